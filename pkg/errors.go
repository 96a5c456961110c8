package rexl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lyraproj/issue/issue"
)

// ErrorKind tells which stage of the pipeline rejected an expression.
type ErrorKind int

const (
	KindTokenizer ErrorKind = iota
	KindParser
	KindValidator
	KindEvaluator
)

func (k ErrorKind) String() string {
	switch k {
	case KindTokenizer:
		return "tokenizer"
	case KindParser:
		return "parser"
	case KindValidator:
		return "validator"
	case KindEvaluator:
		return "evaluator"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the only error type returned by the engine. Start and End are
// byte offsets into the source, End exclusive.
type Error struct {
	Kind    ErrorKind
	Message string
	Start   int
	End     int

	reported issue.Reported
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Code returns the issue code identifying the condition, e.g. REXL_TYPE_MISMATCH.
func (e *Error) Code() issue.Code {
	return e.reported.Code()
}

// Issue returns the underlying reported issue.
func (e *Error) Issue() issue.Reported {
	return e.reported
}

// Snippet renders the source line holding the error with the span underlined.
//
//	age >= 'x'
//	       ^^^
func (e *Error) Snippet(source string) string {
	start, end := clamp(e.Start, source), clamp(e.End, source)
	lineStart := strings.LastIndexByte(source[:start], '\n') + 1
	lineEnd := strings.IndexByte(source[start:], '\n')
	if lineEnd < 0 {
		lineEnd = len(source)
	} else {
		lineEnd += start
	}
	if end > lineEnd {
		end = lineEnd
	}

	width := len([]rune(source[start:end]))
	if width == 0 {
		width = 1
	}

	var b strings.Builder
	b.WriteString(source[lineStart:lineEnd])
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", len([]rune(source[lineStart:start]))))
	b.WriteString(strings.Repeat("^", width))

	return b.String()
}

// AsError extracts an engine error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}

	return nil, false
}

func newError(kind ErrorKind, code issue.Code, source string, start, end int, args issue.H) *Error {
	line, col := locate(source, start)
	reported := issue.NewReported(code, issue.SeverityError, args, issue.NewLocation(``, line, col))

	return &Error{
		Kind:     kind,
		Message:  reported.Error(),
		Start:    start,
		End:      end,
		reported: reported,
	}
}

// locate maps a byte offset to a 1-based line and column. Without source
// text the expression is assumed to be a single line.
func locate(source string, offset int) (int, int) {
	if source == "" {
		return 1, offset + 1
	}

	offset = clamp(offset, source)
	line := 1 + strings.Count(source[:offset], "\n")
	col := offset - (strings.LastIndexByte(source[:offset], '\n') + 1)

	return line, len([]rune(source[offset-col:offset])) + 1
}

func clamp(offset int, source string) int {
	if offset < 0 {
		return 0
	}

	if offset > len(source) {
		return len(source)
	}

	return offset
}

// castError is raised by type class casts, which know nothing about source
// positions. The evaluator turns it into an Error spanning the offending node.
type castError struct {
	code issue.Code
	args issue.H
}

func (e *castError) Error() string {
	return fmt.Sprintf("%s %v", e.code, e.args)
}

func castFailure(code issue.Code, args issue.H) error {
	return &castError{code: code, args: args}
}
