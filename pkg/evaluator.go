package rexl

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lyraproj/issue/issue"
)

// evaluator holds the state of one evaluation walk.
type evaluator struct {
	resolve  ValueResolver
	source   string
	logger   *slog.Logger
	now      func() time.Time
	patterns map[string]*regexp.Regexp
}

// Evaluate computes the value of n, resolving identifiers through resolve.
func Evaluate(n Node, resolve ValueResolver, opts ...Option) (Value, error) {
	c := newConfig(opts)
	e := &evaluator{
		resolve:  resolve,
		source:   c.source,
		logger:   c.logger,
		now:      c.now,
		patterns: make(map[string]*regexp.Regexp),
	}

	return e.eval(n)
}

func (e *evaluator) eval(n Node) (Value, error) {
	switch n := n.(type) {
	case *Literal:
		return e.literal(n)
	case *Identifier:
		return e.identifier(n, []string{n.Name})
	case *Operation:
		return e.operation(n)
	}

	return Value{}, newError(KindEvaluator, NotImplemented, e.source, 0, 0, issue.H{`name`: fmt.Sprintf("%T", n)})
}

func (e *evaluator) literal(n *Literal) (Value, error) {
	switch n.Kind {
	case LiteralNumeric:
		f, err := strconv.ParseFloat(n.Text, 64)
		if err != nil {
			return Value{}, e.errorf(n, NotANumber, issue.H{`text`: n.Text})
		}

		return NewNumber(f), nil
	case LiteralUnquoted:
		return NewString(Format(n)), nil
	}

	return NewString(n.Text), nil
}

func (e *evaluator) identifier(n Node, path []string) (Value, error) {
	if e.resolve == nil {
		return Value{}, e.errorf(n, UnknownIdentifier, issue.H{`path`: strings.Join(path, "."), `message`: "no resolver"})
	}

	v, err := e.resolve(path)
	if err != nil {
		logResolveFailed(e.logger, KindEvaluator, path, err)
		return Value{}, e.errorf(n, UnknownIdentifier, issue.H{`path`: strings.Join(path, "."), `message`: err.Error()})
	}

	logResolved(e.logger, KindEvaluator, path, v.Class)
	return v, nil
}

func (e *evaluator) operation(n *Operation) (Value, error) {
	if n.IsSpecifier() {
		// a path the host does not know may still end in a property
		if path, ok := IdentifierPath(n); ok {
			out, err := e.identifier(n, path)
			if err == nil || handlers["."+n.Property().Name] == nil {
				return out, err
			}
		}

		return e.property(n)
	}

	h, ok := handlers[n.Name()]
	if !ok {
		return Value{}, e.errorf(n, NotImplemented, issue.H{`name`: n.Name()})
	}

	args := n.CallArgs()
	if !h.arity.accepts(len(args)) {
		return Value{}, e.errorf(n, ArgumentCount, issue.H{`name`: n.Name(), `expected`: h.arity, `actual`: len(args)})
	}

	if h.lazy != nil {
		return h.lazy(e, n, args)
	}

	vals := make([]Value, len(args))
	for i, arg := range args {
		v, err := e.eval(arg)
		if err != nil {
			return Value{}, err
		}
		vals[i] = v
	}

	return h.eval(e, n, vals)
}

// property dispatches value.name to the "."+name handler.
func (e *evaluator) property(n *Operation) (Value, error) {
	target, err := e.eval(n.Args[0])
	if err != nil {
		return Value{}, err
	}

	name := n.Property().Name
	h, ok := handlers["."+name]
	if !ok {
		return Value{}, e.errorf(n, NoProperty, issue.H{`class`: target.Class, `name`: name})
	}

	return h.eval(e, n, []Value{target})
}

// broadcast applies f to l and r, elementwise when either is a list. Two
// lists are walked to the longer length with missing elements null.
func (e *evaluator) broadcast(n *Operation, l, r Value, f scalarFunc) (Value, error) {
	lList, rList := l.Class == List, r.Class == List
	if !lList && !rList {
		return f(e, n, l, r)
	}

	length := 0
	if lList {
		length = len(l.Items())
	}
	if rList && len(r.Items()) > length {
		length = len(r.Items())
	}

	out := make([]Value, length)
	for i := range out {
		li, ri := l, r
		if lList {
			li = itemAt(l.Items(), i)
		}
		if rList {
			ri = itemAt(r.Items(), i)
		}

		res, err := f(e, n, li, ri)
		if err != nil {
			return Value{}, err
		}
		out[i] = res
	}

	return NewList(out...), nil
}

// coerce brings two non-null scalars to one class. Untyped adapts to the
// other side, or both become String.
func (e *evaluator) coerce(n *Operation, l, r Value) (Value, Value, error) {
	var err error
	switch {
	case l.Class == Untyped && r.Class == Untyped:
		if l, err = e.cast(n, String, l); err == nil {
			r, err = e.cast(n, String, r)
		}
	case l.Class == Untyped:
		l, err = e.cast(n, r.Class, l)
	case r.Class == Untyped:
		r, err = e.cast(n, l.Class, r)
	case l.Class != r.Class:
		err = e.errorf(n, TypeMismatch, issue.H{`left`: l.Class, `right`: r.Class})
	}

	return l, r, err
}

func (e *evaluator) compare(n *Operation, l, r Value) (int, error) {
	l, r, err := e.coerce(n, l, r)
	if err != nil {
		return 0, err
	}

	if l.Class == List {
		return 0, e.errorf(n, TypeMismatch, issue.H{`left`: l.Class, `right`: r.Class})
	}

	return compareRaw(l.Raw, r.Raw), nil
}

func compareRaw(a, b any) int {
	switch a := a.(type) {
	case float64:
		b, _ := b.(float64)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	case string:
		b, _ := b.(string)
		return strings.Compare(a, b)
	case bool:
		b, _ := b.(bool)
		switch {
		case a == b:
			return 0
		case !a:
			return -1
		}
		return 1
	}

	return 0
}

// textOperands returns both sides as strings; only String and Untyped qualify.
func (e *evaluator) textOperands(n *Operation, l, r Value) (string, string, error) {
	for _, v := range []Value{l, r} {
		if v.Class != String && v.Class != Untyped {
			return "", "", e.errorf(n, TypeMismatch, issue.H{`left`: l.Class, `right`: r.Class})
		}
	}

	ls, err := e.cast(n, String, l)
	if err != nil {
		return "", "", err
	}

	rs, err := e.cast(n, String, r)
	if err != nil {
		return "", "", err
	}

	return ls.Raw.(string), rs.Raw.(string), nil
}

func (e *evaluator) cast(n Node, c TypeClass, v Value) (Value, error) {
	out, err := c.Cast(v)
	return out, e.fail(n, err)
}

// fail positions a cast failure at n. Other errors pass through.
func (e *evaluator) fail(n Node, err error) error {
	var ce *castError
	if errors.As(err, &ce) {
		return e.errorf(n, ce.code, ce.args)
	}

	return err
}

func (e *evaluator) errorf(n Node, code issue.Code, args issue.H) error {
	start, end := n.Span()
	return newError(KindEvaluator, code, e.source, start, end, args)
}
