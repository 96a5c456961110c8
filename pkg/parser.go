package rexl

import (
	"strings"

	"github.com/lyraproj/issue/issue"
)

const defaultMaxDepth = 256

// callableSymbols may be written in call form, =(a, b, c), to reach the
// n-ary variants the infix grammar has no syntax for.
var callableSymbols = map[string]bool{OpAnd: true, OpOr: true}

type Parser struct {
	source   string
	tokens   []Token
	pos      int
	depth    int
	maxDepth int
}

func NewParser(source string, tokens []Token, opts ...Option) *Parser {
	c := newConfig(opts)

	return &Parser{
		source:   source,
		tokens:   tokens,
		maxDepth: c.maxDepth,
	}
}

// Parse tokenizes and parses source into an expression tree.
func Parse(source string, opts ...Option) (Node, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}

	return NewParser(source, tokens, opts...).Run()
}

func (p *Parser) Run() (Node, error) {
	n, err := p.expr()
	if err != nil {
		return nil, err
	}

	if tok, ok := p.peek(); ok {
		return nil, p.errorf(tok, UnexpectedToken, issue.H{`token`: tok.Text})
	}

	return n, nil
}

func (p *Parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}

	return p.tokens[p.pos], true
}

func (p *Parser) next() Token {
	tok := p.tokens[p.pos]
	p.pos++

	return tok
}

// check reports whether the next token is the symbol text.
func (p *Parser) check(text string) bool {
	tok, ok := p.peek()
	return ok && tok.isSymbol(text)
}

func (p *Parser) consume(text string) bool {
	if !p.check(text) {
		return false
	}

	p.next()
	return true
}

func (p *Parser) expect(text string) (Token, error) {
	tok, ok := p.peek()
	if !ok {
		return tok, p.endOfInput(`'` + text + `'`)
	}

	if !tok.isSymbol(text) {
		return tok, p.errorf(tok, ExpectedToken, issue.H{`expected`: `'` + text + `'`, `token`: tok.Text})
	}

	return p.next(), nil
}

func (p *Parser) errorf(tok Token, code issue.Code, args issue.H) error {
	return newError(KindParser, code, p.source, tok.Start, tok.End, args)
}

func (p *Parser) endOfInput(expected string) error {
	end := len(p.source)
	return newError(KindParser, UnexpectedEnd, p.source, end, end, issue.H{`expected`: expected})
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth <= p.maxDepth {
		return nil
	}

	tok, ok := p.peek()
	if !ok {
		tok = Token{Start: len(p.source), End: len(p.source)}
	}

	return p.errorf(tok, NestingTooDeep, issue.H{`max`: p.maxDepth})
}

func (p *Parser) leave() {
	p.depth--
}

func (p *Parser) expr() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	return p.chain(OpOr, p.andTest)
}

func (p *Parser) andTest() (Node, error) {
	return p.chain(OpAnd, p.notTest)
}

// chain parses operand (op operand)* into a single n-ary operation, so a
// long chain stays one level deep.
func (p *Parser) chain(op string, operand func() (Node, error)) (Node, error) {
	first, err := operand()
	if err != nil {
		return nil, err
	}

	args := []Node{first}
	for p.consume(op) {
		n, err := operand()
		if err != nil {
			return nil, err
		}

		args = append(args, n)
	}

	if len(args) == 1 {
		return first, nil
	}

	return newOperation(op, args...), nil
}

func (p *Parser) notTest() (Node, error) {
	if !p.check("!") {
		return p.comparison()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	bang := p.next()
	operand, err := p.notTest()
	if err != nil {
		return nil, err
	}

	return p.unary(OpNot, bang, operand), nil
}

func (p *Parser) comparison() (Node, error) {
	lhs, err := p.additive()
	if err != nil {
		return nil, err
	}

	tok, ok := p.peek()
	if !ok || tok.Kind != TokenSymbol || !comparisonOps[tok.Text] {
		return lhs, nil
	}

	p.next()
	rhs, err := p.additive()
	if err != nil {
		return nil, err
	}

	return newOperation(tok.Text, lhs, rhs), nil
}

func (p *Parser) additive() (Node, error) {
	return p.leftAssociative(p.term, OpAdd, OpSubtract)
}

// term also accepts 'mod', but only as a symbol token, which the lexer never
// produces: mod lexes as a name. Modulo is reachable as mod(a, b).
func (p *Parser) term() (Node, error) {
	return p.leftAssociative(p.factor, OpMultiply, OpDivide, "mod")
}

func (p *Parser) leftAssociative(operand func() (Node, error), ops ...string) (Node, error) {
	lhs, err := operand()
	if err != nil {
		return nil, err
	}

	// Chained operands (for example 1 - 3 + 1) nest to the left, one level
	// per operator
	depth := p.depth
	defer func() { p.depth = depth }()

	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != TokenSymbol || !contains(ops, tok.Text) {
			return lhs, nil
		}

		if err := p.enter(); err != nil {
			return nil, err
		}

		p.next()
		rhs, err := operand()
		if err != nil {
			return nil, err
		}

		lhs = newOperation(tok.Text, lhs, rhs)
	}
}

func (p *Parser) factor() (Node, error) {
	tok, ok := p.peek()
	if !ok || !(tok.isSymbol("-") || tok.isSymbol("+")) {
		return p.power()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.next()
	operand, err := p.factor()
	if err != nil {
		return nil, err
	}

	op := OpNegate
	if tok.Text == "+" {
		op = OpPlus
	}

	return p.unary(op, tok, operand), nil
}

func (p *Parser) unary(op string, tok Token, operand Node) Node {
	_, end := operand.Span()
	return &Operation{Op: op, Args: []Node{operand}, Start: tok.Start, End: end}
}

func (p *Parser) power() (Node, error) {
	base, err := p.postfix()
	if err != nil {
		return nil, err
	}

	if !p.check(OpPower) {
		return base, nil
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.next()

	exponent, err := p.factor()
	if err != nil {
		return nil, err
	}

	return newOperation(OpPower, base, exponent), nil
}

func (p *Parser) postfix() (Node, error) {
	n, err := p.atom()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != TokenSymbol {
			return n, nil
		}

		switch tok.Text {
		case "[":
			p.next()
			index, err := p.expr()
			if err != nil {
				return nil, err
			}

			closer, err := p.expect("]")
			if err != nil {
				return nil, err
			}

			start, _ := n.Span()
			n = &Operation{Op: OpIndex, Args: []Node{n, index}, Start: start, End: closer.End}
		case "(":
			n, err = p.call(n, tok)
			if err != nil {
				return nil, err
			}
		case ".":
			p.next()
			name, ok := p.peek()
			if !ok {
				return nil, p.endOfInput("a property name")
			}

			if name.Kind != TokenName {
				return nil, p.errorf(name, ExpectedToken, issue.H{`expected`: `a property name`, `token`: name.Text})
			}

			n = newOperation(OpSpecifier, n, newIdentifier(p.next()))
		default:
			return n, nil
		}
	}
}

// call turns callee(args...) into an operation. Only plain names and
// specifiers can be called; a specifier call is the method form.
func (p *Parser) call(callee Node, open Token) (Node, error) {
	var op *Operation
	switch c := callee.(type) {
	case *Identifier:
		if !c.Quoted {
			op = &Operation{Op: c.Name, Start: c.Start}
		}
	case *Operation:
		if c.IsSpecifier() {
			op = &Operation{Op: c.Property().Name, Method: c, Start: c.Start}
		}
	}

	if op == nil {
		start, end := callee.Span()
		text := strings.TrimSpace(p.source[start:end])
		return nil, newError(KindParser, NotCallable, p.source, open.Start, open.End, issue.H{`callee`: text})
	}

	p.next()
	args, end, err := p.arguments(")")
	if err != nil {
		return nil, err
	}

	op.Args = args
	op.End = end

	return op, nil
}

// arguments parses a comma separated list up to closer, which has already
// been opened. It returns the end offset of closer.
func (p *Parser) arguments(closer string) ([]Node, int, error) {
	args := []Node{}
	if tok, ok := p.peek(); ok && tok.isSymbol(closer) {
		return args, p.next().End, nil
	}

	for {
		arg, err := p.expr()
		if err != nil {
			return nil, 0, err
		}

		args = append(args, arg)
		if p.consume(",") {
			continue
		}

		tok, err := p.expect(closer)
		if err != nil {
			return nil, 0, err
		}

		return args, tok.End, nil
	}
}

func (p *Parser) atom() (Node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, p.endOfInput("an operand")
	}

	switch tok.Kind {
	case TokenName:
		return newIdentifier(p.next()), nil
	case TokenNumericLiteral, TokenQuotedLiteral, TokenUnquotedLiteral:
		return newLiteral(p.next()), nil
	}

	switch {
	case tok.Text == "(":
		p.next()
		n, err := p.expr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(")"); err != nil {
			return nil, err
		}

		return n, nil
	case tok.Text == "[":
		p.next()
		args, end, err := p.arguments("]")
		if err != nil {
			return nil, err
		}

		return &Operation{Op: OpList, Args: args, Start: tok.Start, End: end}, nil
	case comparisonOps[tok.Text] || callableSymbols[tok.Text]:
		if p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].isSymbol("(") {
			p.next()
			p.next()
			args, end, err := p.arguments(")")
			if err != nil {
				return nil, err
			}

			return &Operation{Op: tok.Text, Args: args, Start: tok.Start, End: end}, nil
		}
	}

	return nil, p.errorf(tok, UnexpectedToken, issue.H{`token`: tok.Text})
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}

	return false
}
