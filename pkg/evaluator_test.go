package rexl

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testValues(age float64) ValueResolver {
	return MapValues(map[string]Value{
		"age":         NewNumber(age),
		"name":        NewString("Bob"),
		"names":       NewList(NewString("Bob"), NewString("ann"), Null(String)),
		"flags":       NewList(NewBoolean(false), NewBoolean(true)),
		"scores":      NewList(NewNumber(1), NewNumber(2), NewNumber(3)),
		"birthday":    {Raw: "1980-05-01", Class: Date},
		"nothing":     Null(String),
		"unknown":     Null(Boolean),
		"raw":         {Raw: "12", Class: Untyped},
		"person.name": NewString("Ann"),
	})
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		data   string
		expect Value
	}{
		{"1 + 2", NewNumber(3)},
		{"'a' + 'b'", NewString("ab")},
		{"raw + 1", NewNumber(13)},
		{"7 / 2", NewNumber(3.5)},
		{"mod(7, 2)", NewNumber(1)},
		{"div(7, 2)", NewNumber(3)},
		{"2 ^ 3 ^ 2", NewNumber(512)},
		{"-2 ^ 2", NewNumber(-4)},
		{"1 - 3 + 1", NewNumber(-1)},
		{"age >= 18 & age < 65", NewBoolean(true)},
		{"exists(flags)", NewBoolean(true)},
		{"every(flags)", NewBoolean(false)},
		{"count(flags)", NewNumber(2)},
		{"flags.count", NewNumber(2)},
		{"count_true(flags, age > 1)", NewNumber(2)},
		{"name =~ 'bob'", NewBoolean(true)},
		{"name =~~ 'bob'", NewBoolean(false)},
		{"name !=~ '^x'", NewBoolean(true)},
		{"name ~ 'OB'", NewBoolean(true)},
		{"name ~~ 'OB'", NewBoolean(false)},
		{"name !~ 'x'", NewBoolean(true)},
		{"names =~ '^b'", NewList(NewBoolean(true), NewBoolean(false), Null(Boolean))},
		{"names =~~ '^b'", NewList(NewBoolean(false), NewBoolean(false), Null(Boolean))},
		{"names !=~~ '^B'", NewList(NewBoolean(false), NewBoolean(true), Null(Boolean))},
		{"names ~ 'N'", NewList(NewBoolean(false), NewBoolean(true), Null(Boolean))},
		{"names !~~ 'o'", NewList(NewBoolean(false), NewBoolean(true), Null(Boolean))},
		{"nothing = 'x'", Null(Boolean)},
		{"nothing != 'x'", Null(Boolean)},
		{"nothing == 'x'", NewBoolean(false)},
		{"nothing !== 'x'", NewBoolean(true)},
		{"nothing = nothing", NewBoolean(true)},
		{"nothing + 'x'", Null(String)},
		{"null() = null()", NewBoolean(true)},
		{"null() < 5", Null(Boolean)},
		{"list(1, 2, 3) > 1", NewList(NewBoolean(false), NewBoolean(true), NewBoolean(true))},
		{"nothing > 'x'", Null(Boolean)},
		{"unknown | true()", NewBoolean(true)},
		{"unknown & true()", Null(Boolean)},
		{"unknown & false()", NewBoolean(false)},
		{"!unknown", Null(Boolean)},
		{"[1, 2, 3] > 1", NewList(NewBoolean(false), NewBoolean(true), NewBoolean(true))},
		{"[1, 2, 3] = [1, 5]", NewList(NewBoolean(true), NewBoolean(false), Null(Boolean))},
		{"!flags", NewList(NewBoolean(true), NewBoolean(false))},
		{"flags | [false(), false()]", NewList(NewBoolean(false), NewBoolean(true))},
		{"=(1, 2, 1)", NewBoolean(true)},
		{"<(1, 2, 3)", NewBoolean(true)},
		{"<(1, 3, 2)", NewBoolean(false)},
		{"!=(1, 2, 3)", NewBoolean(true)},
		{"length(name)", NewNumber(3)},
		{"name.length", NewNumber(3)},
		{"person.name", NewString("Ann")},
		{"name.upper()", NewString("BOB")},
		{"lower(name)", NewString("bob")},
		{"trim('  x ')", NewString("x")},
		{"trim('  x ').length", NewNumber(1)},
		{"scores[1]", NewNumber(2)},
		{"scores[5]", Null(Untyped)},
		{"sum(scores)", NewNumber(6)},
		{"avg(scores)", NewNumber(2)},
		{"min(scores)", NewNumber(1)},
		{"max(scores)", NewNumber(3)},
		{"avg([])", Null(Number)},
		{"if(age > 50, 1 / 0, 'young')", NewString("young")},
		{"if(age > 50, 'old')", Null(Untyped)},
		{"coalesce(nothing, 'x')", NewString("x")},
		{"round(2.5)", NewNumber(3)},
		{"round(1.2345, 1)", NewNumber(1.2)},
		{"abs(-3)", NewNumber(3)},
		{"pi()", NewNumber(math.Pi)},
		{"string(12)", NewString("12")},
		{"number('4.5')", NewNumber(4.5)},
		{"date_diff('2024-03-15', '2024-03-01')", NewNumber(14)},
		{"date(birthday) < date('2000-01-01')", NewBoolean(true)},
		{"@Page[1]", NewString("@Page[1]")},
		{"list(1, 'a')", NewList(NewNumber(1), NewString("a"))},
	}

	for _, c := range cases {
		n, err := Parse(c.data)
		require.NoError(t, err, c.data)

		got, err := Evaluate(n, testValues(40))
		if assert.NoError(t, err, c.data) {
			assert.Equal(t, c.expect, got, c.data)
		}
	}
}

func TestEvaluateAgeRange(t *testing.T) {
	x := MustCompile("age >= 18 & age < 65")

	for age, expect := range map[float64]bool{40: true, 70: false, 18: true, 17: false} {
		got, err := x.Evaluate(testValues(age))
		require.NoError(t, err)
		assert.Equal(t, NewBoolean(expect), got, "age %v", age)
	}
}

func TestEvaluateToday(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC) }

	got, err := MustCompile("today()").Evaluate(nil, WithClock(clock))
	require.NoError(t, err)
	assert.Equal(t, Value{Raw: "2024-03-15", Class: Date}, got)

	got, err = MustCompile("date_diff(today(), '2024-03-10')").Evaluate(nil, WithClock(clock))
	require.NoError(t, err)
	assert.Equal(t, NewNumber(5), got)
}

func TestEvaluateErrors(t *testing.T) {
	cases := []struct {
		data  string
		code  string
		start int
		end   int
	}{
		{"1 / 0", DivisionByZero, 0, 5},
		{"mod(1, 0)", DivisionByZero, 0, 9},
		{"age >= 'x'", TypeMismatch, 0, 10},
		{"age + 'x'", TypeMismatch, 0, 9},
		{"nope", UnknownIdentifier, 0, 4},
		{"person.age", UnknownIdentifier, 0, 10},
		{"trim(name).foo", NoProperty, 0, 14},
		{"foo(1)", NotImplemented, 0, 6},
		{"trim()", ArgumentCount, 0, 6},
		{"name =~ '('", InvalidPattern, 0, 11},
		{"number('x') + 1", NotANumber, 7, 10},
		{"age ~ 'x'", TypeMismatch, 0, 9},
		{"date('soon')", InvalidText, 5, 11},
	}

	for _, c := range cases {
		x, err := Compile(c.data)
		require.NoError(t, err, c.data)

		_, err = x.Evaluate(testValues(40))
		require.Error(t, err, c.data)

		e, ok := AsError(err)
		require.True(t, ok, c.data)
		assert.Equal(t, KindEvaluator, e.Kind, c.data)
		assert.Equal(t, c.code, string(e.Code()), c.data)
		assert.Equal(t, c.start, e.Start, c.data)
		assert.Equal(t, c.end, e.End, c.data)
	}
}

func TestEvaluateMessages(t *testing.T) {
	_, err := MustCompile("age >= 'x'").Evaluate(testValues(40))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Type mismatch: Number and String")

	_, err = MustCompile("trim(name).foo").Evaluate(testValues(40))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value of type String doesn't have property 'foo'")
}

func TestEvaluateConcurrently(t *testing.T) {
	x := MustCompile("sum(scores) + age > 40 & name =~ '^b'")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			got, err := x.Evaluate(testValues(40))
			assert.NoError(t, err)
			assert.Equal(t, NewBoolean(true), got)
		}()
	}

	wg.Wait()
}
