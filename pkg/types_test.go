package rexl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindCommon(t *testing.T) {
	cases := []struct {
		classes []TypeClass
		allowed []TypeClass
		expect  TypeClass
		ok      bool
	}{
		{[]TypeClass{Number, Number}, addable, Number, true},
		{[]TypeClass{Untyped, Number}, addable, Number, true},
		{[]TypeClass{Untyped, Untyped}, addable, String, true},
		{[]TypeClass{Untyped}, []TypeClass{Boolean, List}, Boolean, true},
		{[]TypeClass{Number, String}, addable, Untyped, false},
		{[]TypeClass{Boolean}, addable, Boolean, false},
		{nil, addable, Untyped, false},
	}

	for _, c := range cases {
		got, ok := FindCommon(c.classes, c.allowed)
		assert.Equal(t, c.ok, ok, "%v", c.classes)
		if c.ok {
			assert.Equal(t, c.expect, got, "%v", c.classes)
		}
	}
}

func TestAdapt(t *testing.T) {
	got, ok := TypeOf(Untyped).Adapt(Number)
	assert.True(t, ok)
	assert.Equal(t, TypeOf(Number), got)

	_, ok = TypeOf(String).Adapt(Number)
	assert.False(t, ok)

	got, ok = ListOf(TypeOf(Boolean)).Adapt(List)
	assert.True(t, ok)
	assert.Equal(t, "List<Boolean>", got.String())
}

func TestParseTypeClass(t *testing.T) {
	c, ok := ParseTypeClass("datetime")
	assert.True(t, ok)
	assert.Equal(t, DateTime, c)

	_, ok = ParseTypeClass("decimal")
	assert.False(t, ok)

	assert.Equal(t, "TimeDelta", TimeDelta.String())
	assert.Equal(t, "Invalid", TypeClass(99).String())
}

func TestCast(t *testing.T) {
	cases := []struct {
		class  TypeClass
		value  Value
		expect Value
		fail   bool
	}{
		{Number, NewString(" 12 "), NewNumber(12), false},
		{Number, NewString("twelve"), Value{}, true},
		{Number, NewBoolean(true), Value{}, true},
		{Number, Null(String), Null(Number), false},
		{String, NewNumber(1.5), NewString("1.5"), false},
		{String, NewNumber(3), NewString("3"), false},
		{String, NewBoolean(false), NewString("false"), false},
		{Boolean, NewList(), NewBoolean(false), false},
		{Boolean, NewList(NewBoolean(false)), NewBoolean(true), false},
		{Boolean, NewString(""), NewBoolean(false), false},
		{Boolean, NewNumber(2), NewBoolean(true), false},
		{List, NewNumber(1), NewList(NewNumber(1)), false},
		{List, Null(Number), Null(List), false},
		{Date, NewString("2024-03-01T10:00:00Z"), Value{Raw: "2024-03-01", Class: Date}, false},
		{Date, NewString("yesterday"), Value{}, true},
		{DateTime, NewString("2024-03-01"), Value{Raw: "2024-03-01T00:00:00Z", Class: DateTime}, false},
		{Time, NewString("10:30"), Value{Raw: "10:30:00", Class: Time}, false},
		{BitString, NewString("0110"), Value{Raw: "0110", Class: BitString}, false},
		{BitString, NewString("012"), Value{}, true},
		{Binary, NewNumber(1), Value{}, true},
		{TimeDelta, NewNumber(3), Value{Raw: 3.0, Class: TimeDelta}, false},
		{Untyped, NewString("x"), Value{Raw: "x", Class: Untyped}, false},
	}

	for _, c := range cases {
		got, err := c.class.Cast(c.value)
		if c.fail {
			assert.Error(t, err, "%s to %s", c.value, c.class)
			continue
		}

		if assert.NoError(t, err, "%s to %s", c.value, c.class) {
			assert.Equal(t, c.expect, got, "%s to %s", c.value, c.class)
		}
	}
}

func TestValueOf(t *testing.T) {
	v, err := ValueOf([]any{1, "a", nil, true})
	assert.NoError(t, err)
	assert.Equal(t, NewList(NewNumber(1), NewString("a"), Null(Untyped), NewBoolean(true)), v)
	assert.Equal(t, "[1, 'a', null, true]", v.String())
	assert.Equal(t, []any{1.0, "a", nil, true}, v.Interface())

	_, err = ValueOf(struct{}{})
	assert.Error(t, err)
}
