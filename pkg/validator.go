package rexl

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lyraproj/issue/issue"
)

// validator holds the state of one type-checking walk.
type validator struct {
	resolve TypeResolver
	source  string
	logger  *slog.Logger
}

// Validate type-checks n, describing identifiers through resolve. It only
// looks at types; no runtime data is touched.
func Validate(n Node, resolve TypeResolver, opts ...Option) (Type, error) {
	c := newConfig(opts)
	v := &validator{
		resolve: resolve,
		source:  c.source,
		logger:  c.logger,
	}

	return v.check(n)
}

func (v *validator) check(n Node) (Type, error) {
	switch n := n.(type) {
	case *Literal:
		if n.Kind == LiteralNumeric {
			return TypeOf(Number), nil
		}

		return TypeOf(String), nil
	case *Identifier:
		return v.describe(n, []string{n.Name})
	case *Operation:
		return v.operation(n)
	}

	return Type{}, newError(KindValidator, NotImplemented, v.source, 0, 0, issue.H{`name`: fmt.Sprintf("%T", n)})
}

func (v *validator) describe(n Node, path []string) (Type, error) {
	if v.resolve == nil {
		return Type{}, v.errorf(n, UnknownIdentifier, issue.H{`path`: strings.Join(path, "."), `message`: "no resolver"})
	}

	t, err := v.resolve(path)
	if err != nil {
		logResolveFailed(v.logger, KindValidator, path, err)
		return Type{}, v.errorf(n, UnknownIdentifier, issue.H{`path`: strings.Join(path, "."), `message`: err.Error()})
	}

	logResolved(v.logger, KindValidator, path, t.Class)
	return t, nil
}

func (v *validator) operation(n *Operation) (Type, error) {
	if n.IsSpecifier() {
		// a path the host does not know may still end in a property
		if path, ok := IdentifierPath(n); ok {
			out, err := v.describe(n, path)
			if err == nil || handlers["."+n.Property().Name] == nil {
				return out, err
			}
		}

		return v.property(n)
	}

	h, ok := handlers[n.Name()]
	if !ok {
		return Type{}, v.errorf(n, NotImplemented, issue.H{`name`: n.Name()})
	}

	args := n.CallArgs()
	if !h.arity.accepts(len(args)) {
		return Type{}, v.errorf(n, ArgumentCount, issue.H{`name`: n.Name(), `expected`: h.arity, `actual`: len(args)})
	}

	types := make([]Type, len(args))
	for i, arg := range args {
		t, err := v.check(arg)
		if err != nil {
			return Type{}, err
		}
		types[i] = t
	}

	return h.validate(v, n, types)
}

func (v *validator) property(n *Operation) (Type, error) {
	target, err := v.check(n.Args[0])
	if err != nil {
		return Type{}, err
	}

	name := "." + n.Property().Name
	h, ok := handlers[name]
	if !ok {
		return Type{}, v.errorf(n, NotImplemented, issue.H{`name`: name})
	}

	return h.validate(v, n, []Type{target})
}

// adapt is Type.Adapt reporting failure at n.
func (v *validator) adapt(n Node, t Type, target TypeClass) (Type, error) {
	out, ok := t.Adapt(target)
	if !ok {
		return Type{}, v.errorf(n, CannotAdapt, issue.H{`from`: t, `to`: target})
	}

	return out, nil
}

func (v *validator) errorf(n Node, code issue.Code, args issue.H) error {
	start, end := n.Span()
	return newError(KindValidator, code, v.source, start, end, args)
}
