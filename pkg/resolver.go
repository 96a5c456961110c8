package rexl

import (
	"errors"
	"strings"
)

// TypeResolver describes the static type of an identifier path.
type TypeResolver func(path []string) (Type, error)

// ValueResolver returns the runtime value of an identifier path.
type ValueResolver func(path []string) (Value, error)

var ErrUnknownIdentifier = errors.New("unknown identifier")

// MapTypes resolves dotted paths from a fixed table.
func MapTypes(types map[string]Type) TypeResolver {
	return func(path []string) (Type, error) {
		if t, ok := types[strings.Join(path, ".")]; ok {
			return t, nil
		}

		return Type{}, ErrUnknownIdentifier
	}
}

// MapValues resolves dotted paths from a fixed table.
func MapValues(values map[string]Value) ValueResolver {
	return func(path []string) (Value, error) {
		if v, ok := values[strings.Join(path, ".")]; ok {
			return v, nil
		}

		return Value{}, ErrUnknownIdentifier
	}
}
