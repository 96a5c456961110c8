package rexl

import (
	"regexp"
	"strings"
)

// Node is an immutable expression tree node: *Literal, *Identifier or *Operation.
type Node interface {
	Span() (start, end int)
	node()
}

type LiteralKind int

const (
	LiteralNumeric LiteralKind = iota
	LiteralQuoted
	LiteralUnquoted
)

// Literal holds its text with quote escapes already resolved. Unquoted
// literals are locators, @Name[payload]; Text is the name.
type Literal struct {
	Kind    LiteralKind
	Text    string
	Payload string
	Start   int
	End     int
}

type Identifier struct {
	Name   string
	Quoted bool
	Start  int
	End    int
}

// Operation applies an operator, function or property to Args. When Method
// is set the call was written as a method, target.op(args...), and Method is
// the specifier for target.op.
type Operation struct {
	Op     string
	Method *Operation
	Args   []Node
	Start  int
	End    int
}

const (
	OpOr        = "|"
	OpAnd       = "&"
	OpNot       = "!()"
	OpNegate    = "-()"
	OpPlus      = "+()"
	OpAdd       = "+"
	OpSubtract  = "-"
	OpMultiply  = "*"
	OpDivide    = "/"
	OpPower     = "^"
	OpSpecifier = "."
	OpIndex     = "[]"
	OpList      = "list"
)

var comparisonOps = map[string]bool{
	"=": true, "==": true, "<": true, "<=": true, ">": true, ">=": true,
	"!=": true, "!==": true,
	"~": true, "~~": true, "!~": true, "!~~": true,
	"=~": true, "=~~": true, "!=~": true, "!=~~": true,
}

func (n *Literal) Span() (int, int)    { return n.Start, n.End }
func (n *Identifier) Span() (int, int) { return n.Start, n.End }
func (n *Operation) Span() (int, int)  { return n.Start, n.End }

func (*Literal) node()    {}
func (*Identifier) node() {}
func (*Operation) node()  {}

// Name is the operator or function the operation dispatches to.
func (n *Operation) Name() string {
	if n.Method != nil {
		return n.Method.Property().Name
	}

	return n.Op
}

// CallArgs returns the arguments the handler receives; for method calls the
// target comes first.
func (n *Operation) CallArgs() []Node {
	if n.Method == nil {
		return n.Args
	}

	args := make([]Node, 0, len(n.Args)+1)
	args = append(args, n.Method.Args[0])

	return append(args, n.Args...)
}

// IsSpecifier reports whether n is a dotted access, left.name.
func (n *Operation) IsSpecifier() bool {
	return n.Op == OpSpecifier && n.Method == nil && len(n.Args) == 2
}

// Property is the right operand of a specifier.
func (n *Operation) Property() *Identifier {
	return n.Args[1].(*Identifier)
}

// IdentifierPath flattens an identifier or a chain of specifiers over
// identifiers into the path handed to host resolvers.
func IdentifierPath(n Node) ([]string, bool) {
	switch n := n.(type) {
	case *Identifier:
		return []string{n.Name}, true
	case *Operation:
		if !n.IsSpecifier() {
			return nil, false
		}

		path, ok := IdentifierPath(n.Args[0])
		if !ok {
			return nil, false
		}

		return append(path, n.Property().Name), true
	}

	return nil, false
}

func newOperation(op string, args ...Node) *Operation {
	start, _ := args[0].Span()
	_, end := args[len(args)-1].Span()

	return &Operation{Op: op, Args: args, Start: start, End: end}
}

var locatorParts = regexp.MustCompile(`^@(` + namePattern + `)\[([^\]]*)\]$`)

func newLiteral(tok Token) *Literal {
	lit := &Literal{Text: tok.Text, Start: tok.Start, End: tok.End}

	switch tok.Kind {
	case TokenNumericLiteral:
		lit.Kind = LiteralNumeric
	case TokenQuotedLiteral:
		lit.Kind = LiteralQuoted
		lit.Text = unquote(tok.Text, '\'')
	case TokenUnquotedLiteral:
		lit.Kind = LiteralUnquoted
		m := locatorParts.FindStringSubmatch(tok.Text)
		lit.Text = unquoteName(m[1])
		lit.Payload = m[2]
	}

	return lit
}

func newIdentifier(tok Token) *Identifier {
	return &Identifier{
		Name:   unquoteName(tok.Text),
		Quoted: strings.HasPrefix(tok.Text, `"`),
		Start:  tok.Start,
		End:    tok.End,
	}
}

func unquoteName(text string) string {
	if strings.HasPrefix(text, `"`) {
		return unquote(text, '"')
	}

	return text
}

func unquote(text string, quote byte) string {
	q := string(quote)
	return strings.ReplaceAll(text[1:len(text)-1], q+q, q)
}

// Equal reports whether two trees have the same structure, ignoring spans.
func Equal(a, b Node) bool {
	switch a := a.(type) {
	case *Literal:
		b, ok := b.(*Literal)
		return ok && a.Kind == b.Kind && a.Text == b.Text && a.Payload == b.Payload
	case *Identifier:
		b, ok := b.(*Identifier)
		return ok && a.Name == b.Name && a.Quoted == b.Quoted
	case *Operation:
		b, ok := b.(*Operation)
		if !ok || a.Op != b.Op || len(a.Args) != len(b.Args) {
			return false
		}

		if (a.Method == nil) != (b.Method == nil) {
			return false
		}

		if a.Method != nil && !Equal(a.Method, b.Method) {
			return false
		}

		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}

		return true
	}

	return a == nil && b == nil
}
