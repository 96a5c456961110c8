package rexl

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lyraproj/issue/issue"
)

// TypeClass is the closed set of REXL types.
type TypeClass int

const (
	Untyped TypeClass = iota
	String
	Number
	Boolean
	List
	Binary
	BitString
	Date
	Time
	DateTime
	TimeDelta
)

var classNames = [...]string{
	Untyped:   "Untyped",
	String:    "String",
	Number:    "Number",
	Boolean:   "Boolean",
	List:      "List",
	Binary:    "Binary",
	BitString: "BitString",
	Date:      "Date",
	Time:      "Time",
	DateTime:  "DateTime",
	TimeDelta: "TimeDelta",
}

func (c TypeClass) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return "Invalid"
	}

	return classNames[c]
}

// ParseTypeClass looks a class up by name, ignoring case.
func ParseTypeClass(name string) (TypeClass, bool) {
	for c, n := range classNames {
		if strings.EqualFold(n, name) {
			return TypeClass(c), true
		}
	}

	return Untyped, false
}

// scalarClasses are the classes comparisons accept.
var scalarClasses = []TypeClass{String, Number, Boolean, Binary, BitString, Date, Time, DateTime, TimeDelta}

// Type is a static type. Elem is the element type of a List when known.
type Type struct {
	Class TypeClass
	Elem  *Type
}

func TypeOf(c TypeClass) Type {
	return Type{Class: c}
}

func ListOf(elem Type) Type {
	return Type{Class: List, Elem: &elem}
}

func (t Type) String() string {
	if t.Class == List && t.Elem != nil {
		return "List<" + t.Elem.String() + ">"
	}

	return t.Class.String()
}

// Adapt returns t as target. Untyped promotes to anything; every other class
// only adapts to itself.
func (t Type) Adapt(target TypeClass) (Type, bool) {
	switch {
	case t.Class == target:
		return t, true
	case t.Class == Untyped:
		return TypeOf(target), true
	}

	return t, false
}

// FindCommon returns the single allowed class shared by all non-Untyped
// classes. When every class is Untyped the result is String if allowed,
// otherwise the first allowed class.
func FindCommon(classes []TypeClass, allowed []TypeClass) (TypeClass, bool) {
	common := Untyped
	for _, c := range classes {
		switch {
		case c == Untyped:
		case common == Untyped:
			common = c
		case common != c:
			return Untyped, false
		}
	}

	if common == Untyped {
		if len(classes) == 0 || len(allowed) == 0 {
			return Untyped, false
		}

		if containsClass(allowed, String) {
			return String, true
		}

		return allowed[0], true
	}

	return common, containsClass(allowed, common)
}

func containsClass(list []TypeClass, c TypeClass) bool {
	for _, item := range list {
		if item == c {
			return true
		}
	}

	return false
}

// Cast converts v into class c.
func (c TypeClass) Cast(v Value) (Value, error) {
	if c < 0 || int(c) >= len(casters) {
		return v, castFailure(CannotCast, issue.H{`from`: v.Class, `to`: c})
	}

	return casters[c].cast(v)
}

type caster interface {
	cast(v Value) (Value, error)
}

var casters = [...]caster{
	Untyped:   untypedClass{},
	String:    stringClass{},
	Number:    numberClass{},
	Boolean:   booleanClass{},
	List:      listClass{},
	Binary:    textClass{Binary},
	BitString: bitStringClass{},
	Date:      temporalClass{Date, []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}, "2006-01-02"},
	Time:      temporalClass{Time, []string{"15:04:05", "15:04", time.RFC3339, "2006-01-02T15:04:05"}, "15:04:05"},
	DateTime:  temporalClass{DateTime, []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}, "2006-01-02T15:04:05Z"},
	TimeDelta: timeDeltaClass{},
}

type untypedClass struct{}

func (untypedClass) cast(v Value) (Value, error) {
	return Value{Raw: v.Raw, Class: Untyped}, nil
}

type stringClass struct{}

func (stringClass) cast(v Value) (Value, error) {
	switch raw := v.Raw.(type) {
	case nil:
		return Null(String), nil
	case string:
		return NewString(raw), nil
	case float64:
		return NewString(formatNumber(raw)), nil
	case bool:
		return NewString(strconv.FormatBool(raw)), nil
	}

	return v, castFailure(CannotCast, issue.H{`from`: v.Class, `to`: String})
}

type numberClass struct{}

func (numberClass) cast(v Value) (Value, error) {
	switch v.Class {
	case Number, String, Untyped, TimeDelta:
	default:
		if v.Raw != nil {
			return v, castFailure(CannotCast, issue.H{`from`: v.Class, `to`: Number})
		}
	}

	switch raw := v.Raw.(type) {
	case nil:
		return Null(Number), nil
	case float64:
		return NewNumber(raw), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return v, castFailure(NotANumber, issue.H{`text`: raw})
		}

		return NewNumber(f), nil
	}

	return v, castFailure(CannotCast, issue.H{`from`: v.Class, `to`: Number})
}

type booleanClass struct{}

func (booleanClass) cast(v Value) (Value, error) {
	switch raw := v.Raw.(type) {
	case nil:
		return Null(Boolean), nil
	case bool:
		return NewBoolean(raw), nil
	case []Value:
		return NewBoolean(len(raw) > 0), nil
	case float64:
		return NewBoolean(raw != 0), nil
	case string:
		return NewBoolean(raw != ""), nil
	}

	return v, castFailure(CannotCast, issue.H{`from`: v.Class, `to`: Boolean})
}

type listClass struct{}

func (listClass) cast(v Value) (Value, error) {
	switch {
	case v.Class == List:
		return v, nil
	case v.Raw == nil:
		return Null(List), nil
	}

	return NewList(v), nil
}

// textClass holds classes represented as opaque text.
type textClass struct {
	class TypeClass
}

func (c textClass) cast(v Value) (Value, error) {
	switch raw := v.Raw.(type) {
	case nil:
		return Null(c.class), nil
	case string:
		if v.Class == c.class || v.Class == String || v.Class == Untyped {
			return Value{Raw: raw, Class: c.class}, nil
		}
	}

	return v, castFailure(CannotCast, issue.H{`from`: v.Class, `to`: c.class})
}

type bitStringClass struct{}

func (bitStringClass) cast(v Value) (Value, error) {
	out, err := textClass{BitString}.cast(v)
	if err != nil || out.Raw == nil {
		return out, err
	}

	text := out.Raw.(string)
	if strings.Trim(text, "01") != "" {
		return v, castFailure(InvalidText, issue.H{`text`: text, `class`: BitString})
	}

	return out, nil
}

// temporalClass parses text with the first matching layout and normalises it
// to format, so values of one class compare as text.
type temporalClass struct {
	class   TypeClass
	layouts []string
	format  string
}

func (c temporalClass) cast(v Value) (Value, error) {
	raw, ok := v.Raw.(string)
	switch {
	case v.Raw == nil:
		return Null(c.class), nil
	case !ok:
		return v, castFailure(CannotCast, issue.H{`from`: v.Class, `to`: c.class})
	case v.Class == c.class:
		return v, nil
	}

	for _, layout := range c.layouts {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return Value{Raw: t.UTC().Format(c.format), Class: c.class}, nil
		}
	}

	return v, castFailure(InvalidText, issue.H{`text`: raw, `class`: c.class})
}

// timeDeltaClass counts days.
type timeDeltaClass struct{}

func (timeDeltaClass) cast(v Value) (Value, error) {
	if v.Class == TimeDelta {
		return v, nil
	}

	n, err := numberClass{}.cast(v)
	if err != nil {
		return v, err
	}

	return Value{Raw: n.Raw, Class: TimeDelta}, nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
