package rexl

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/lyraproj/issue/issue"
)

type validateFunc func(v *validator, n *Operation, args []Type) (Type, error)
type evalFunc func(e *evaluator, n *Operation, args []Value) (Value, error)
type lazyFunc func(e *evaluator, n *Operation, args []Node) (Value, error)

// arity bounds the argument count; max < 0 means unbounded.
type arity struct {
	min, max int
}

func (a arity) accepts(n int) bool {
	return n >= a.min && (a.max < 0 || n <= a.max)
}

func (a arity) String() string {
	switch {
	case a.min == a.max && a.min == 0:
		return "no arguments"
	case a.min == a.max && a.min == 1:
		return "exactly one argument"
	case a.min == a.max:
		return fmt.Sprintf("exactly %d arguments", a.min)
	case a.max < 0 && a.min == 1:
		return "at least one argument"
	case a.max < 0:
		return fmt.Sprintf("at least %d arguments", a.min)
	case a.max == a.min+1:
		return fmt.Sprintf("%d or %d arguments", a.min, a.max)
	default:
		return fmt.Sprintf("%d to %d arguments", a.min, a.max)
	}
}

// handler is the shared entry for an operator, function or property: the
// validator uses validate, the evaluator uses eval, or lazy when the
// arguments must not be evaluated up front.
type handler struct {
	arity    arity
	validate validateFunc
	eval     evalFunc
	lazy     lazyFunc
}

// handlers is keyed by operator symbol, synthetic unary name ("-()"),
// function name, or "." + property name.
var handlers = map[string]*handler{}

func register(name string, h *handler) {
	handlers[name] = h
}

func init() {
	registerOperators()
	registerBuiltins()
}

type pairing int

const (
	firstToRest pairing = iota
	adjacent
)

func (p pairing) pairs(n int) [][2]int {
	var out [][2]int
	for i := 1; i < n; i++ {
		if p == adjacent {
			out = append(out, [2]int{i - 1, i})
		} else {
			out = append(out, [2]int{0, i})
		}
	}

	return out
}

type scalarFunc func(e *evaluator, n *Operation, l, r Value) (Value, error)

// comparison describes a comparison operator. Called with more than two
// arguments the pairs are combined with combine.
type comparison struct {
	scalar  scalarFunc
	pairing pairing
	combine string
	textual bool
}

func registerOperators() {
	comparisons := map[string]comparison{
		"=":    {equality(false, false), firstToRest, OpOr, false},
		"==":   {equality(true, false), firstToRest, OpOr, false},
		"!=":   {equality(false, true), firstToRest, OpAnd, false},
		"!==":  {equality(true, true), firstToRest, OpAnd, false},
		"<":    {ordering(func(c int) bool { return c < 0 }), adjacent, OpAnd, false},
		"<=":   {ordering(func(c int) bool { return c <= 0 }), adjacent, OpAnd, false},
		">":    {ordering(func(c int) bool { return c > 0 }), adjacent, OpAnd, false},
		">=":   {ordering(func(c int) bool { return c >= 0 }), adjacent, OpAnd, false},
		"~":    {containment(false, false), firstToRest, OpAnd, true},
		"~~":   {containment(true, false), firstToRest, OpAnd, true},
		"!~":   {containment(false, true), firstToRest, OpAnd, true},
		"!~~":  {containment(true, true), firstToRest, OpAnd, true},
		"=~":   {matching(false, false), firstToRest, OpAnd, true},
		"=~~":  {matching(true, false), firstToRest, OpAnd, true},
		"!=~":  {matching(false, true), firstToRest, OpAnd, true},
		"!=~~": {matching(true, true), firstToRest, OpAnd, true},
	}

	for op, c := range comparisons {
		register(op, &handler{
			arity:    arity{2, -1},
			validate: validateComparison(c),
			eval:     evalComparison(c),
		})
	}

	for _, op := range []string{OpAnd, OpOr} {
		register(op, &handler{
			arity:    arity{1, -1},
			validate: validateLogic,
			eval:     evalLogic,
		})
	}

	register(OpNot, &handler{arity: arity{1, 1}, validate: validateNot, eval: evalNot})

	register(OpAdd, &handler{arity: arity{2, 2}, validate: validateAdd, eval: evalAdd})
	register(OpSubtract, numeric(2, func(a []float64) (float64, bool) { return a[0] - a[1], true }))
	register(OpMultiply, numeric(2, func(a []float64) (float64, bool) { return a[0] * a[1], true }))
	register(OpDivide, numeric(2, func(a []float64) (float64, bool) { return a[0] / a[1], a[1] != 0 }))
	register(OpPower, numeric(2, func(a []float64) (float64, bool) { return math.Pow(a[0], a[1]), true }))
	register("mod", numeric(2, func(a []float64) (float64, bool) { return math.Mod(a[0], a[1]), a[1] != 0 }))
	register("div", numeric(2, func(a []float64) (float64, bool) { return math.Floor(a[0] / a[1]), a[1] != 0 }))
	register(OpNegate, numeric(1, func(a []float64) (float64, bool) { return -a[0], true }))
	register(OpPlus, numeric(1, func(a []float64) (float64, bool) { return a[0], true }))

	register(OpIndex, &handler{arity: arity{2, 2}, validate: validateIndex, eval: evalIndex})
}

func validateComparison(c comparison) validateFunc {
	return func(v *validator, n *Operation, args []Type) (Type, error) {
		nodes := n.CallArgs()
		broadcast := false

		for _, pair := range c.pairing.pairs(len(args)) {
			l, r := args[pair[0]], args[pair[1]]
			if l.Class == List || r.Class == List {
				broadcast = true
				l, r = elemOf(l), elemOf(r)
			}

			if c.textual {
				if _, err := v.adapt(nodes[pair[0]], l, String); err != nil {
					return Type{}, err
				}

				if _, err := v.adapt(nodes[pair[1]], r, String); err != nil {
					return Type{}, err
				}

				continue
			}

			if _, ok := FindCommon([]TypeClass{l.Class, r.Class}, scalarClasses); !ok {
				return Type{}, v.errorf(n, TypeMismatch, issue.H{`left`: l, `right`: r})
			}
		}

		if broadcast {
			return ListOf(TypeOf(Boolean)), nil
		}

		return TypeOf(Boolean), nil
	}
}

func elemOf(t Type) Type {
	if t.Class != List {
		return t
	}

	if t.Elem == nil {
		return TypeOf(Untyped)
	}

	return *t.Elem
}

func evalComparison(c comparison) evalFunc {
	return func(e *evaluator, n *Operation, args []Value) (Value, error) {
		results := make([]Value, 0, len(args)-1)
		for _, pair := range c.pairing.pairs(len(args)) {
			res, err := e.broadcast(n, args[pair[0]], args[pair[1]], c.scalar)
			if err != nil {
				return Value{}, err
			}

			results = append(results, res)
		}

		if len(results) == 1 {
			return results[0], nil
		}

		res, err := reduceLogic(c.combine, results)
		return res, e.fail(n, err)
	}
}

// equality implements = and != with null propagation, and the identity
// forms == and !== which treat null as an ordinary value.
func equality(identity, negate bool) scalarFunc {
	return func(e *evaluator, n *Operation, l, r Value) (Value, error) {
		if l.IsNull() || r.IsNull() {
			bothNull := l.IsNull() && r.IsNull()
			if identity || bothNull {
				return NewBoolean(bothNull != negate), nil
			}

			return Null(Boolean), nil
		}

		c, err := e.compare(n, l, r)
		if err != nil {
			return Value{}, err
		}

		return NewBoolean((c == 0) != negate), nil
	}
}

func ordering(test func(int) bool) scalarFunc {
	return func(e *evaluator, n *Operation, l, r Value) (Value, error) {
		if l.IsNull() || r.IsNull() {
			return Null(Boolean), nil
		}

		c, err := e.compare(n, l, r)
		if err != nil {
			return Value{}, err
		}

		return NewBoolean(test(c)), nil
	}
}

func containment(caseSensitive, negate bool) scalarFunc {
	return func(e *evaluator, n *Operation, l, r Value) (Value, error) {
		if l.IsNull() || r.IsNull() {
			return Null(Boolean), nil
		}

		text, part, err := e.textOperands(n, l, r)
		if err != nil {
			return Value{}, err
		}

		if !caseSensitive {
			text, part = strings.ToLower(text), strings.ToLower(part)
		}

		return NewBoolean(strings.Contains(text, part) != negate), nil
	}
}

func matching(caseSensitive, negate bool) scalarFunc {
	return func(e *evaluator, n *Operation, l, r Value) (Value, error) {
		if l.IsNull() || r.IsNull() {
			return Null(Boolean), nil
		}

		text, pattern, err := e.textOperands(n, l, r)
		if err != nil {
			return Value{}, err
		}

		re, err := e.pattern(n, pattern, caseSensitive)
		if err != nil {
			return Value{}, err
		}

		return NewBoolean(re.MatchString(text) != negate), nil
	}
}

func validateLogic(v *validator, n *Operation, args []Type) (Type, error) {
	common, ok := FindCommon(classesOfTypes(args), []TypeClass{Boolean, List})
	if !ok {
		return Type{}, v.errorf(n, NoCommonType, issue.H{`name`: n.Name(), `types`: describeTypes(args)})
	}

	if common == List {
		return ListOf(TypeOf(Boolean)), nil
	}

	return TypeOf(Boolean), nil
}

func evalLogic(e *evaluator, n *Operation, args []Value) (Value, error) {
	common, ok := FindCommon(classesOfValues(args), []TypeClass{Boolean, List})
	if !ok {
		return Value{}, e.errorf(n, NoCommonType, issue.H{`name`: n.Name(), `types`: describeValues(args)})
	}

	operands := make([]Value, len(args))
	for i, arg := range args {
		operands[i] = arg
		if arg.Class == Untyped {
			cast, err := e.cast(n.CallArgs()[i], common, arg)
			if err != nil {
				return Value{}, err
			}
			operands[i] = cast
		}
	}

	res, err := reduceLogic(n.Name(), operands)
	return res, e.fail(n, err)
}

// reduceLogic folds values with three-valued & or |. When any value is a
// list the fold runs per position over the longest list, scalars apply to
// every position and missing elements are null.
func reduceLogic(op string, vals []Value) (Value, error) {
	length, anyList := 0, false
	for _, v := range vals {
		if v.Class == List {
			anyList = true
			if len(v.Items()) > length {
				length = len(v.Items())
			}
		}
	}

	if !anyList {
		return reduceScalar(op, vals)
	}

	out := make([]Value, length)
	row := make([]Value, len(vals))
	for i := range out {
		for j, v := range vals {
			row[j] = v
			if v.Class == List {
				row[j] = itemAt(v.Items(), i)
			}
		}

		res, err := reduceScalar(op, row)
		if err != nil {
			return Value{}, err
		}
		out[i] = res
	}

	return NewList(out...), nil
}

func reduceScalar(op string, vals []Value) (Value, error) {
	// | is decided by the first true, & by the first false
	decisive := op == OpOr
	sawNull := false

	for _, v := range vals {
		b, err := Boolean.Cast(v)
		if err != nil {
			return Value{}, err
		}

		if b.IsNull() {
			sawNull = true
			continue
		}

		if b.Raw.(bool) == decisive {
			return NewBoolean(decisive), nil
		}
	}

	if sawNull {
		return Null(Boolean), nil
	}

	return NewBoolean(!decisive), nil
}

func itemAt(items []Value, i int) Value {
	if i < len(items) {
		return items[i]
	}

	return Null(Untyped)
}

func validateNot(v *validator, n *Operation, args []Type) (Type, error) {
	if args[0].Class == List {
		return ListOf(TypeOf(Boolean)), nil
	}

	return v.adapt(n.CallArgs()[0], args[0], Boolean)
}

func evalNot(e *evaluator, n *Operation, args []Value) (Value, error) {
	not := func(v Value) (Value, error) {
		b, err := e.cast(n, Boolean, v)
		if err != nil || b.IsNull() {
			return b, err
		}

		return NewBoolean(!b.Raw.(bool)), nil
	}

	if args[0].Class != List {
		return not(args[0])
	}

	items := args[0].Items()
	out := make([]Value, len(items))
	for i, item := range items {
		res, err := not(item)
		if err != nil {
			return Value{}, err
		}
		out[i] = res
	}

	return NewList(out...), nil
}

var addable = []TypeClass{Number, String}

func validateAdd(v *validator, n *Operation, args []Type) (Type, error) {
	common, ok := FindCommon(classesOfTypes(args), addable)
	if !ok {
		return Type{}, v.errorf(n, NoCommonType, issue.H{`name`: n.Name(), `types`: describeTypes(args)})
	}

	return TypeOf(common), nil
}

// evalAdd adds numbers or concatenates strings, whichever class the operands share.
func evalAdd(e *evaluator, n *Operation, args []Value) (Value, error) {
	common, ok := FindCommon(classesOfValues(args), addable)
	if !ok {
		return Value{}, e.errorf(n, TypeMismatch, issue.H{`left`: args[0].Class, `right`: args[1].Class})
	}

	nodes := n.CallArgs()
	l, err := e.cast(nodes[0], common, args[0])
	if err != nil {
		return Value{}, err
	}

	r, err := e.cast(nodes[1], common, args[1])
	if err != nil {
		return Value{}, err
	}

	if l.IsNull() || r.IsNull() {
		return Null(common), nil
	}

	if common == Number {
		return NewNumber(l.Raw.(float64) + r.Raw.(float64)), nil
	}

	return NewString(l.Raw.(string) + r.Raw.(string)), nil
}

// numeric builds a handler over Number operands. apply reports false when
// the operands are outside its domain, which only happens on division by zero.
func numeric(count int, apply func([]float64) (float64, bool)) *handler {
	return &handler{
		arity: arity{count, count},
		validate: func(v *validator, n *Operation, args []Type) (Type, error) {
			nodes := n.CallArgs()
			for i, arg := range args {
				if _, err := v.adapt(nodes[i], arg, Number); err != nil {
					return Type{}, err
				}
			}

			return TypeOf(Number), nil
		},
		eval: func(e *evaluator, n *Operation, args []Value) (Value, error) {
			nodes := n.CallArgs()
			operands := make([]float64, len(args))
			null := false
			for i, arg := range args {
				num, err := e.cast(nodes[i], Number, arg)
				if err != nil {
					return Value{}, err
				}

				if num.IsNull() {
					null = true
					continue
				}
				operands[i] = num.Raw.(float64)
			}

			if null {
				return Null(Number), nil
			}

			res, ok := apply(operands)
			if !ok {
				return Value{}, e.errorf(n, DivisionByZero, issue.NoArgs)
			}

			return NewNumber(res), nil
		},
	}
}

func validateIndex(v *validator, n *Operation, args []Type) (Type, error) {
	nodes := n.CallArgs()
	if _, err := v.adapt(nodes[1], args[1], Number); err != nil {
		return Type{}, err
	}

	switch args[0].Class {
	case List:
		return elemOf(args[0]), nil
	case Untyped:
		return TypeOf(Untyped), nil
	}

	_, err := v.adapt(nodes[0], args[0], List)
	return Type{}, err
}

// evalIndex returns the zero-based element; out of range yields null.
func evalIndex(e *evaluator, n *Operation, args []Value) (Value, error) {
	nodes := n.CallArgs()
	list, err := e.cast(nodes[0], List, args[0])
	if err != nil {
		return Value{}, err
	}

	index, err := e.cast(nodes[1], Number, args[1])
	if err != nil {
		return Value{}, err
	}

	if list.IsNull() || index.IsNull() {
		return Null(Untyped), nil
	}

	i := int(math.Floor(index.Raw.(float64)))
	items := list.Items()
	if i < 0 || i >= len(items) {
		return Null(Untyped), nil
	}

	return items[i], nil
}

func (e *evaluator) pattern(n *Operation, pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}

	if re, ok := e.patterns[pattern]; ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, e.errorf(n, InvalidPattern, issue.H{`pattern`: strings.TrimPrefix(pattern, "(?i)"), `message`: err.Error()})
	}

	e.patterns[pattern] = re
	return re, nil
}

func classesOfTypes(types []Type) []TypeClass {
	classes := make([]TypeClass, len(types))
	for i, t := range types {
		classes[i] = t.Class
	}

	return classes
}

func classesOfValues(vals []Value) []TypeClass {
	classes := make([]TypeClass, len(vals))
	for i, v := range vals {
		classes[i] = v.Class
	}

	return classes
}

func describeTypes(types []Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}

	return strings.Join(names, ", ")
}

func describeValues(vals []Value) string {
	names := make([]string, len(vals))
	for i, v := range vals {
		names[i] = v.Class.String()
	}

	return strings.Join(names, ", ")
}
