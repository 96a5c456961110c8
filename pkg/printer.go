package rexl

import (
	"regexp"
	"strings"
)

const (
	precOr = iota + 1
	precAnd
	precNot
	precCompare
	precAdditive
	precTerm
	precUnary
	precPower
	precPostfix
)

var bareName = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

// Format renders n as canonical source that parses back to the same tree.
// Parentheses are only added where precedence requires them.
func Format(n Node) string {
	var b strings.Builder
	printNode(&b, n)

	return b.String()
}

func precedence(n Node) int {
	op, ok := n.(*Operation)
	if !ok || op.Method != nil {
		return precPostfix
	}

	switch {
	case op.Op == OpOr && len(op.Args) >= 2:
		return precOr
	case op.Op == OpAnd && len(op.Args) >= 2:
		return precAnd
	case op.Op == OpNot:
		return precNot
	case comparisonOps[op.Op] && len(op.Args) == 2:
		return precCompare
	case (op.Op == OpAdd || op.Op == OpSubtract) && len(op.Args) == 2:
		return precAdditive
	case (op.Op == OpMultiply || op.Op == OpDivide) && len(op.Args) == 2:
		return precTerm
	case op.Op == OpNegate || op.Op == OpPlus:
		return precUnary
	case op.Op == OpPower && len(op.Args) == 2:
		return precPower
	}

	return precPostfix
}

// printOperand prints n, parenthesised when it binds looser than min.
func printOperand(b *strings.Builder, n Node, min int) {
	if precedence(n) < min {
		b.WriteByte('(')
		printNode(b, n)
		b.WriteByte(')')

		return
	}

	printNode(b, n)
}

func printNode(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Literal:
		printLiteral(b, n)
	case *Identifier:
		b.WriteString(quoteName(n.Name, n.Quoted))
	case *Operation:
		printOperation(b, n)
	}
}

func printLiteral(b *strings.Builder, n *Literal) {
	switch n.Kind {
	case LiteralNumeric:
		b.WriteString(n.Text)
	case LiteralQuoted:
		b.WriteString(`'` + strings.ReplaceAll(n.Text, `'`, `''`) + `'`)
	case LiteralUnquoted:
		b.WriteString(`@` + quoteName(n.Text, false) + `[` + n.Payload + `]`)
	}
}

func quoteName(name string, quoted bool) string {
	if !quoted && bareName.MatchString(name) {
		return name
	}

	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func printOperation(b *strings.Builder, n *Operation) {
	if n.Method != nil {
		printOperand(b, n.Method.Args[0], precPostfix)
		b.WriteString("." + quoteName(n.Method.Property().Name, n.Method.Property().Quoted))
		printArgs(b, "(", n.Args, ")")

		return
	}

	switch prec := precedence(n); prec {
	case precOr, precAnd:
		for i, arg := range n.Args {
			if i > 0 {
				b.WriteString(" " + n.Op + " ")
			}
			printOperand(b, arg, prec+1)
		}
	case precNot:
		var operand strings.Builder
		printOperand(&operand, n.Args[0], precNot)
		b.WriteString("!")
		// keep ! from fusing with a call-form operator, as in ! =(a, b, c)
		if strings.HasPrefix(operand.String(), "=") || strings.HasPrefix(operand.String(), "~") {
			b.WriteString(" ")
		}
		b.WriteString(operand.String())
	case precCompare:
		printBinary(b, n, precAdditive, precAdditive)
	case precAdditive:
		printBinary(b, n, precAdditive, precTerm)
	case precTerm:
		printBinary(b, n, precTerm, precUnary)
	case precUnary:
		b.WriteString(strings.TrimSuffix(n.Op, "()"))
		printOperand(b, n.Args[0], precUnary)
	case precPower:
		printBinary(b, n, precPostfix, precUnary)
	default:
		printPostfix(b, n)
	}
}

func printBinary(b *strings.Builder, n *Operation, left, right int) {
	printOperand(b, n.Args[0], left)
	b.WriteString(" " + n.Op + " ")
	printOperand(b, n.Args[1], right)
}

func printPostfix(b *strings.Builder, n *Operation) {
	switch {
	case n.IsSpecifier():
		printOperand(b, n.Args[0], precPostfix)
		b.WriteString("." + quoteName(n.Property().Name, n.Property().Quoted))
	case n.Op == OpIndex && len(n.Args) == 2:
		printOperand(b, n.Args[0], precPostfix)
		printArgs(b, "[", n.Args[1:], "]")
	case n.Op == OpList:
		printArgs(b, "[", n.Args, "]")
	default:
		// functions and the call form of symbolic operators
		b.WriteString(n.Op)
		printArgs(b, "(", n.Args, ")")
	}
}

func printArgs(b *strings.Builder, open string, args []Node, closer string) {
	b.WriteString(open)
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		printNode(b, arg)
	}
	b.WriteString(closer)
}
