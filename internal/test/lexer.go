package test

import (
	"math/rand"
	"strings"
)

const validTokens = "age;name;flags;\"quoted name\";(;);[;];,;.;+;-;*;/;^;=;!=;<=;>=;~~;=~;&;|;!;123;4.5e2;0.25;'this is a string';'';'it''s';'this is a longer string: Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.';@Page[1];@\"Other page\"[a b c];\n"

var operands = []string{"age", "name", "1", "2.5", "'text'", "trim(name)", "[1, 2, 3]", "(age - 1)", "-age", "name.length", "@Page[1]"}

var operators = []string{"+", "-", "*", "/", "&", "|"}

func GetRandomTokens(size int) string {
	return GetRandomTokensWithSep(size, " ")
}

// GetRandomTokensWithSep joins size random lexable tokens with sep. The
// result tokenizes but rarely parses.
func GetRandomTokensWithSep(size int, sep string) string {
	valid := strings.Split(validTokens, ";")

	var toks []string
	for len(toks) < size {
		toks = append(toks, valid[rand.Intn(len(valid))])
	}

	return strings.Join(toks, sep)
}

// GetRandomExpression returns a syntactically valid expression of size
// operands joined by arithmetic and logical operators.
func GetRandomExpression(size int) string {
	var b strings.Builder
	for i := 0; i < size; i++ {
		if i > 0 {
			b.WriteString(" " + operators[rand.Intn(len(operators))] + " ")
		}
		b.WriteString(operands[rand.Intn(len(operands))])
	}

	return b.String()
}
