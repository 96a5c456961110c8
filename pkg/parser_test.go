package rexl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.rexl.dev/internal/test"
)

func id(name string) *Identifier {
	return &Identifier{Name: name}
}

func num(text string) *Literal {
	return &Literal{Kind: LiteralNumeric, Text: text}
}

func str(text string) *Literal {
	return &Literal{Kind: LiteralQuoted, Text: text}
}

func op(name string, args ...Node) *Operation {
	if args == nil {
		args = []Node{}
	}

	return &Operation{Op: name, Args: args}
}

func TestParser(t *testing.T) {
	cases := []struct {
		data   string
		expect Node
	}{
		{"1 + 2 * 3", op(OpAdd, num("1"), op(OpMultiply, num("2"), num("3")))},
		{"1 - 3 + 1", op(OpAdd, op(OpSubtract, num("1"), num("3")), num("1"))},
		{"(1 + 3) * 2", op(OpMultiply, op(OpAdd, num("1"), num("3")), num("2"))},
		{"2 ^ 3 ^ 2", op(OpPower, num("2"), op(OpPower, num("3"), num("2")))},
		{"-2 ^ 2", op(OpNegate, op(OpPower, num("2"), num("2")))},
		{"+-x", op(OpPlus, op(OpNegate, id("x")))},
		{"a & b & c | d", op(OpOr, op(OpAnd, id("a"), id("b"), id("c")), id("d"))},
		{"!a = b", op(OpNot, op("=", id("a"), id("b")))},
		{"!!a", op(OpNot, op(OpNot, id("a")))},
		{
			"age >= 18 & age < 65",
			op(OpAnd, op(">=", id("age"), num("18")), op("<", id("age"), num("65"))),
		},
		{"name !=~~ 'b''c'", op("!=~~", id("name"), str("b'c"))},
		{"person.name", op(OpSpecifier, id("person"), id("name"))},
		{"trim(name).length", op(OpSpecifier, op("trim", id("name")), id("length"))},
		{
			"name.upper()",
			&Operation{Op: "upper", Method: op(OpSpecifier, id("name"), id("upper")), Args: []Node{}},
		},
		{"x[0]", op(OpIndex, id("x"), num("0"))},
		{"[1, 'a']", op(OpList, num("1"), str("a"))},
		{"[]", op(OpList)},
		{"=(a, b, c)", op("=", id("a"), id("b"), id("c"))},
		{"&(a)", op(OpAnd, id("a"))},
		{"today()", op("today")},
		{`"first name"`, &Identifier{Name: "first name", Quoted: true}},
		{`"say ""hi"""`, &Identifier{Name: `say "hi"`, Quoted: true}},
		{"@Page[a b]", &Literal{Kind: LiteralUnquoted, Text: "Page", Payload: "a b"}},
		{`@"My Page"[1]`, &Literal{Kind: LiteralUnquoted, Text: "My Page", Payload: "1"}},
	}

	for _, c := range cases {
		got, err := Parse(c.data)
		if !assert.NoError(t, err, c.data) {
			continue
		}

		assert.True(t, Equal(c.expect, got), "%s: got %s", c.data, Format(got))
	}
}

func TestParserErrors(t *testing.T) {
	cases := []struct {
		data  string
		code  string
		start int
	}{
		{"1 +", UnexpectedEnd, 3},
		{"(1", UnexpectedEnd, 2},
		{"1 2", UnexpectedToken, 2},
		{"a = b = c", UnexpectedToken, 6},
		{"'a'(1)", NotCallable, 3},
		{`"a"(1)`, NotCallable, 3},
		{"a.1", ExpectedToken, 2},
		{"f(1,", UnexpectedEnd, 4},
		{"[1 2]", ExpectedToken, 3},
		{")", UnexpectedToken, 0},
		{"a # b", UnexpectedCharacter, 2},
	}

	for _, c := range cases {
		_, err := Parse(c.data)
		require.Error(t, err, c.data)

		e, ok := AsError(err)
		require.True(t, ok, c.data)
		assert.Equal(t, c.code, string(e.Code()), c.data)
		assert.Equal(t, c.start, e.Start, c.data)
	}
}

func TestParserSpans(t *testing.T) {
	n, err := Parse("age >= 18 & trim(name).length > 2")
	require.NoError(t, err)

	start, end := n.Span()
	assert.Equal(t, 0, start)
	assert.Equal(t, 33, end)

	and := n.(*Operation)
	start, end = and.Args[1].Span()
	assert.Equal(t, 12, start)
	assert.Equal(t, 33, end)
}

func TestParserMaxDepth(t *testing.T) {
	deep := strings.Repeat("(", 300) + "1" + strings.Repeat(")", 300)

	_, err := Parse(deep)
	require.Error(t, err)
	e, _ := AsError(err)
	assert.Equal(t, NestingTooDeep, string(e.Code()))
	assert.Equal(t, KindParser, e.Kind)

	_, err = Parse(deep, WithMaxDepth(1000))
	assert.NoError(t, err)

	_, err = Parse(strings.Repeat("-", 20)+"1", WithMaxDepth(10))
	assert.Error(t, err)

	cases := []struct {
		data     string
		maxDepth int
		fail     bool
	}{
		{strings.Repeat("2 ^ ", 1000) + "2", 10, true},
		{strings.Repeat("2 ^ ", 1000) + "2", 2000, false},
		{strings.Repeat("1 + ", 1000) + "1", defaultMaxDepth, true},
		{strings.Repeat("1 * 2 - ", 300) + "1", defaultMaxDepth, true},
		{strings.Repeat("1 + ", 1000) + "1", 2000, false},
		{strings.Repeat("a | ", 1000) + "a", defaultMaxDepth, false},
		{strings.Repeat("a & ", 1000) + "a", 10, false},
		{"2 ^ 3 ^ 2", 3, false},
		{"1 + 2 + 3", 3, false},
	}

	for _, c := range cases {
		_, err := Parse(c.data, WithMaxDepth(c.maxDepth))
		if !c.fail {
			assert.NoError(t, err, "max %d", c.maxDepth)
			continue
		}

		if assert.Error(t, err, "max %d", c.maxDepth) {
			e, _ := AsError(err)
			assert.Equal(t, NestingTooDeep, string(e.Code()))
		}
	}
}

var benchNode Node

func benchmarkParser(size int, b *testing.B) {
	for n := 0; n < b.N; n++ {
		b.StopTimer()
		data := test.GetRandomExpression(size)

		var err error
		b.StartTimer()

		benchNode, err = Parse(data, WithMaxDepth(2*size))
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParser100(b *testing.B) {
	benchmarkParser(100, b)
}

func BenchmarkParser1000(b *testing.B) {
	benchmarkParser(1000, b)
}
