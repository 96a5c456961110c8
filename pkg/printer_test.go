package rexl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.rexl.dev/internal/test"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		data   string
		expect string
	}{
		{"1+2*3", "1 + 2 * 3"},
		{"(1+2)*3", "(1 + 2) * 3"},
		{"1-(2-3)", "1 - (2 - 3)"},
		{"(1-2)-3", "1 - 2 - 3"},
		{"2^(3^2)", "2 ^ 3 ^ 2"},
		{"(2^3)^2", "(2 ^ 3) ^ 2"},
		{"-(2^2)", "-2 ^ 2"},
		{"(-2)^2", "(-2) ^ 2"},
		{"1 + -2", "1 + -2"},
		{"a & (b & c)", "a & (b & c)"},
		{"(a | b) & c", "(a | b) & c"},
		{"a | b & c", "a | b & c"},
		{"!(a & b)", "!(a & b)"},
		{"!(a = b)", "!a = b"},
		{"! =(a,b,c)", "! =(a, b, c)"},
		{"=(a, b)", "a = b"},
		{"(a = b) = c", "(a = b) = c"},
		{"'it''s'", "'it''s'"},
		{`"first name".x`, `"first name".x`},
		{`"plain"`, `"plain"`},
		{"name.upper()", "name.upper()"},
		{"x[0]", "x[0]"},
		{"[1,2][0]", "[1, 2][0]"},
		{`@"My Page"[1]`, `@"My Page"[1]`},
		{"@Page[a b]", "@Page[a b]"},
		{"trim( name ).length", "trim(name).length"},
		{"(a + b).c", "(a + b).c"},
		{"if(a, 1, 2)", "if(a, 1, 2)"},
		{"&(a)", "&(a)"},
	}

	for _, c := range cases {
		n, err := Parse(c.data)
		if !assert.NoError(t, err, c.data) {
			continue
		}

		got := Format(n)
		assert.Equal(t, c.expect, got, c.data)

		again, err := Parse(got)
		if assert.NoError(t, err, got) {
			assert.True(t, Equal(n, again), "%s does not parse back to the same tree", got)
		}
	}
}

func TestFormatRoundTripRandom(t *testing.T) {
	for i := 0; i < 50; i++ {
		data := test.GetRandomExpression(15)

		n, err := Parse(data)
		require.NoError(t, err, data)

		again, err := Parse(Format(n))
		require.NoError(t, err, Format(n))
		assert.True(t, Equal(n, again), data)
	}
}

func TestFormatBuiltTree(t *testing.T) {
	// trees built by hand may nest an n-ary & inside another
	n := op(OpAnd, id("a"), op(OpAnd, id("b"), id("c")))
	assert.Equal(t, "a & (b & c)", Format(n))

	n = op(OpNegate, op(OpNegate, num("1")))
	assert.Equal(t, "--1", Format(n))
}
