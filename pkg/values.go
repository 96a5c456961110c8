package rexl

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a runtime value. Raw is nil, a string, a float64, a bool or a
// []Value; the temporal, binary and bit string classes are held as text and
// TimeDelta as a number of days.
type Value struct {
	Raw   any
	Class TypeClass
}

func Null(c TypeClass) Value {
	return Value{Class: c}
}

func NewString(s string) Value {
	return Value{Raw: s, Class: String}
}

func NewNumber(f float64) Value {
	return Value{Raw: f, Class: Number}
}

func NewBoolean(b bool) Value {
	return Value{Raw: b, Class: Boolean}
}

func NewList(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}

	return Value{Raw: items, Class: List}
}

func (v Value) IsNull() bool {
	return v.Raw == nil
}

// Items returns the elements of a list value; nil for anything else.
func (v Value) Items() []Value {
	items, _ := v.Raw.([]Value)
	return items
}

// Interface converts v into plain Go values: nil, string, float64, bool or []any.
func (v Value) Interface() any {
	if items, ok := v.Raw.([]Value); ok {
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = item.Interface()
		}

		return out
	}

	return v.Raw
}

func (v Value) String() string {
	switch raw := v.Raw.(type) {
	case nil:
		return "null"
	case string:
		if v.Class == String || v.Class == Untyped {
			return "'" + strings.ReplaceAll(raw, "'", "''") + "'"
		}

		return raw
	case float64:
		return formatNumber(raw)
	case bool:
		return strconv.FormatBool(raw)
	case []Value:
		parts := make([]string, len(raw))
		for i, item := range raw {
			parts[i] = item.String()
		}

		return "[" + strings.Join(parts, ", ") + "]"
	}

	return fmt.Sprint(v.Raw)
}

// ValueOf converts plain Go data into an Untyped-free Value. Integers and
// floats become Numbers, slices become Lists.
func ValueOf(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Null(Untyped), nil
	case Value:
		return x, nil
	case string:
		return NewString(x), nil
	case bool:
		return NewBoolean(x), nil
	case float64:
		return NewNumber(x), nil
	case float32:
		return NewNumber(float64(x)), nil
	case int:
		return NewNumber(float64(x)), nil
	case int64:
		return NewNumber(float64(x)), nil
	case int32:
		return NewNumber(float64(x)), nil
	case uint:
		return NewNumber(float64(x)), nil
	case uint64:
		return NewNumber(float64(x)), nil
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			v, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}

		return NewList(items...), nil
	case []Value:
		return NewList(x...), nil
	}

	return Value{}, fmt.Errorf("unsupported value type %T", x)
}
