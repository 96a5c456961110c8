// Package rexl implements REXL, a small expression language for conditions
// and computed values over host-resolved records.
//
// Source text is tokenized and parsed into an immutable tree, which can be
// type-checked with Validate against a TypeResolver and evaluated with
// Evaluate against a ValueResolver any number of times. Every failure is an
// *Error carrying its stage, issue code and source span.
package rexl

import (
	"log/slog"
	"time"
)

type config struct {
	maxDepth int
	source   string
	logger   *slog.Logger
	now      func() time.Time
}

func newConfig(opts []Option) config {
	c := config{
		maxDepth: defaultMaxDepth,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// Option configures parsing, validation and evaluation.
type Option func(*config)

// WithMaxDepth bounds expression nesting accepted by the parser.
// Default: 256
func WithMaxDepth(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithSource gives Validate and Evaluate the expression text, so error
// locations report the right line and column.
func WithSource(source string) Option {
	return func(c *config) {
		c.source = source
	}
}

// WithLogger enables debug logging of identifier resolution.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithClock replaces the clock used by today().
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// Expression is a parsed expression together with its source text.
type Expression struct {
	source string
	root   Node
}

// Compile parses source into an Expression.
func Compile(source string, opts ...Option) (*Expression, error) {
	root, err := Parse(source, opts...)
	if err != nil {
		return nil, err
	}

	return &Expression{source: source, root: root}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(source string) *Expression {
	x, err := Compile(source)
	if err != nil {
		panic(err)
	}

	return x
}

func (x *Expression) Root() Node {
	return x.root
}

func (x *Expression) Source() string {
	return x.source
}

// String returns the canonical form of the expression.
func (x *Expression) String() string {
	return Format(x.root)
}

func (x *Expression) Validate(resolve TypeResolver, opts ...Option) (Type, error) {
	return Validate(x.root, resolve, append([]Option{WithSource(x.source)}, opts...)...)
}

func (x *Expression) Evaluate(resolve ValueResolver, opts ...Option) (Value, error) {
	return Evaluate(x.root, resolve, append([]Option{WithSource(x.source)}, opts...)...)
}
