package rexl

import "github.com/lyraproj/issue/issue"

const (
	UnexpectedCharacter = `REXL_UNEXPECTED_CHARACTER`
	UnexpectedToken     = `REXL_UNEXPECTED_TOKEN`
	UnexpectedEnd       = `REXL_UNEXPECTED_END`
	ExpectedToken       = `REXL_EXPECTED_TOKEN`
	NotCallable         = `REXL_NOT_CALLABLE`
	NestingTooDeep      = `REXL_NESTING_TOO_DEEP`

	NotImplemented    = `REXL_NOT_IMPLEMENTED`
	ArgumentCount     = `REXL_ARGUMENT_COUNT`
	CannotAdapt       = `REXL_CANNOT_ADAPT`
	NoCommonType      = `REXL_NO_COMMON_TYPE`
	UnknownIdentifier = `REXL_UNKNOWN_IDENTIFIER`

	TypeMismatch   = `REXL_TYPE_MISMATCH`
	NotANumber     = `REXL_NOT_A_NUMBER`
	InvalidText    = `REXL_INVALID_TEXT`
	CannotCast     = `REXL_CANNOT_CAST`
	NoProperty     = `REXL_NO_PROPERTY`
	InvalidPattern = `REXL_INVALID_PATTERN`
	DivisionByZero = `REXL_DIVISION_BY_ZERO`
)

func init() {
	issue.Hard(UnexpectedCharacter, `unexpected character '%{char}'`)

	issue.Hard(UnexpectedToken, `unexpected token '%{token}'`)

	issue.Hard(UnexpectedEnd, `unexpected end of expression, expected %{expected}`)

	issue.Hard(ExpectedToken, `expected %{expected}, got '%{token}'`)

	issue.Hard(NotCallable, `'%{callee}' can't be called, only functions and methods can`)

	issue.Hard(NestingTooDeep, `expression is nested deeper than %{max} levels`)

	issue.Hard(NotImplemented, `operation/function/method/property '%{name}' is not implemented`)

	issue.Hard(ArgumentCount, `'%{name}' expects %{expected}, got %{actual}`)

	issue.Hard(CannotAdapt, `can't adapt from %{from} to %{to}`)

	issue.Hard(NoCommonType, `'%{name}' can't be applied to %{types}`)

	issue.Hard(UnknownIdentifier, `identifier '%{path}' can't be resolved: %{message}`)

	issue.Hard(TypeMismatch, `Type mismatch: %{left} and %{right}`)

	issue.Hard(NotANumber, `'%{text}' is not a number`)

	issue.Hard(InvalidText, `'%{text}' is not a valid %{class}`)

	issue.Hard(CannotCast, `can't cast %{from} to %{to}`)

	issue.Hard(NoProperty, `value of type %{class} doesn't have property '%{name}'`)

	issue.Hard(InvalidPattern, `invalid regular expression '%{pattern}': %{message}`)

	issue.Hard(DivisionByZero, `division by zero`)
}
