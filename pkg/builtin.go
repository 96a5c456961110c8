package rexl

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lyraproj/issue/issue"
)

func registerBuiltins() {
	register("true", constant(NewBoolean(true)))
	register("false", constant(NewBoolean(false)))
	register("null", constant(Null(Untyped)))
	register("pi", constant(NewNumber(math.Pi)))

	register("if", &handler{arity: arity{2, 3}, validate: returns(TypeOf(Untyped)), lazy: evalIf})
	register("coalesce", &handler{arity: arity{1, -1}, validate: validateCoalesce, eval: evalCoalesce})
	register("count_true", &handler{arity: arity{1, -1}, validate: returns(TypeOf(Number)), eval: evalCountTrue})
	register(OpList, &handler{arity: arity{0, -1}, validate: validateList, eval: evalList})

	register("length", &handler{arity: arity{1, 1}, validate: validateLength, eval: evalLength})
	register("trim", stringFunc(strings.TrimSpace))
	register("upper", stringFunc(strings.ToUpper))
	register("lower", stringFunc(strings.ToLower))

	register("number", conversion(Number))
	register("string", conversion(String))
	register("date", conversion(Date))
	register("abs", numeric(1, func(a []float64) (float64, bool) { return math.Abs(a[0]), true }))
	register("round", &handler{arity: arity{1, 2}, validate: validateNumbers, eval: evalRound})

	register("today", &handler{arity: arity{0, 0}, validate: returns(TypeOf(Date)), eval: evalToday})
	register("date_diff", &handler{arity: arity{2, 2}, validate: validateDates, eval: evalDateDiff})

	register("exists", aggregate(TypeOf(Boolean), evalExists))
	register("every", aggregate(TypeOf(Boolean), evalEvery))
	register("count", aggregate(TypeOf(Number), evalCount))
	register("sum", aggregate(TypeOf(Number), evalSum))
	register("avg", aggregate(TypeOf(Number), evalAvg))
	register("min", &handler{arity: arity{1, 1}, validate: validateExtreme, eval: extreme(-1)})
	register("max", &handler{arity: arity{1, 1}, validate: validateExtreme, eval: extreme(1)})

	// properties of computed values, e.g. trim(name).length
	register(".length", &handler{arity: arity{1, 1}, validate: validateLength, eval: evalLength})
	register(".count", aggregate(TypeOf(Number), evalCount))
	register(".trim", stringFunc(strings.TrimSpace))
	register(".upper", stringFunc(strings.ToUpper))
	register(".lower", stringFunc(strings.ToLower))
}

func returns(t Type) validateFunc {
	return func(*validator, *Operation, []Type) (Type, error) {
		return t, nil
	}
}

func constant(v Value) *handler {
	return &handler{
		arity:    arity{0, 0},
		validate: returns(TypeOf(v.Class)),
		eval: func(*evaluator, *Operation, []Value) (Value, error) {
			return v, nil
		},
	}
}

// evalIf only evaluates the branch that is taken.
func evalIf(e *evaluator, n *Operation, args []Node) (Value, error) {
	cond, err := e.eval(args[0])
	if err != nil {
		return Value{}, err
	}

	b, err := e.cast(args[0], Boolean, cond)
	if err != nil {
		return Value{}, err
	}

	switch {
	case !b.IsNull() && b.Raw.(bool):
		return e.eval(args[1])
	case len(args) == 3:
		return e.eval(args[2])
	}

	return Null(Untyped), nil
}

func validateCoalesce(v *validator, n *Operation, args []Type) (Type, error) {
	common, ok := FindCommon(classesOfTypes(args), classNamesOrder())
	if !ok {
		return Type{}, v.errorf(n, NoCommonType, issue.H{`name`: n.Name(), `types`: describeTypes(args)})
	}

	for _, t := range args {
		if t.Class == common {
			return t, nil
		}
	}

	return TypeOf(common), nil
}

func evalCoalesce(e *evaluator, n *Operation, args []Value) (Value, error) {
	for _, arg := range args {
		if !arg.IsNull() {
			return arg, nil
		}
	}

	return args[len(args)-1], nil
}

// classNamesOrder lists every class, String first so an all-Untyped
// argument list settles on String.
func classNamesOrder() []TypeClass {
	return append([]TypeClass{String, List}, scalarClasses[1:]...)
}

func evalCountTrue(e *evaluator, n *Operation, args []Value) (Value, error) {
	count := 0
	for i, arg := range args {
		items := []Value{arg}
		if arg.Class == List {
			items = arg.Items()
		}

		for _, item := range items {
			b, err := e.cast(n.CallArgs()[i], Boolean, item)
			if err != nil {
				return Value{}, err
			}

			if !b.IsNull() && b.Raw.(bool) {
				count++
			}
		}
	}

	return NewNumber(float64(count)), nil
}

func validateList(v *validator, n *Operation, args []Type) (Type, error) {
	if len(args) == 0 {
		return ListOf(TypeOf(Untyped)), nil
	}

	common, ok := FindCommon(classesOfTypes(args), classNamesOrder())
	if !ok {
		return ListOf(TypeOf(Untyped)), nil
	}

	return ListOf(TypeOf(common)), nil
}

func evalList(e *evaluator, n *Operation, args []Value) (Value, error) {
	return NewList(append([]Value{}, args...)...), nil
}

func validateLength(v *validator, n *Operation, args []Type) (Type, error) {
	if args[0].Class != List {
		if _, err := v.adapt(n.CallArgs()[0], args[0], String); err != nil {
			return Type{}, err
		}
	}

	return TypeOf(Number), nil
}

// evalLength counts the characters of a string or the elements of a list.
func evalLength(e *evaluator, n *Operation, args []Value) (Value, error) {
	if args[0].Class == List {
		if args[0].IsNull() {
			return Null(Number), nil
		}

		return NewNumber(float64(len(args[0].Items()))), nil
	}

	s, err := e.cast(n.CallArgs()[0], String, args[0])
	if err != nil || s.IsNull() {
		return Null(Number), err
	}

	return NewNumber(float64(utf8.RuneCountInString(s.Raw.(string)))), nil
}

func stringFunc(apply func(string) string) *handler {
	return &handler{
		arity: arity{1, 1},
		validate: func(v *validator, n *Operation, args []Type) (Type, error) {
			return v.adapt(n.CallArgs()[0], args[0], String)
		},
		eval: func(e *evaluator, n *Operation, args []Value) (Value, error) {
			s, err := e.cast(n.CallArgs()[0], String, args[0])
			if err != nil || s.IsNull() {
				return s, err
			}

			return NewString(apply(s.Raw.(string))), nil
		},
	}
}

// conversion casts its argument explicitly, the one place where every class
// may be turned into another.
func conversion(c TypeClass) *handler {
	return &handler{
		arity:    arity{1, 1},
		validate: returns(TypeOf(c)),
		eval: func(e *evaluator, n *Operation, args []Value) (Value, error) {
			return e.cast(n.CallArgs()[0], c, args[0])
		},
	}
}

func validateNumbers(v *validator, n *Operation, args []Type) (Type, error) {
	for i, arg := range args {
		if _, err := v.adapt(n.CallArgs()[i], arg, Number); err != nil {
			return Type{}, err
		}
	}

	return TypeOf(Number), nil
}

// evalRound rounds half away from zero to an optional number of decimals.
func evalRound(e *evaluator, n *Operation, args []Value) (Value, error) {
	nums := make([]float64, 2)
	for i, arg := range args {
		num, err := e.cast(n.CallArgs()[i], Number, arg)
		if err != nil || num.IsNull() {
			return Null(Number), err
		}
		nums[i] = num.Raw.(float64)
	}

	scale := math.Pow(10, math.Trunc(nums[1]))
	return NewNumber(math.Round(nums[0]*scale) / scale), nil
}

func evalToday(e *evaluator, n *Operation, args []Value) (Value, error) {
	return Value{Raw: e.now().Format("2006-01-02"), Class: Date}, nil
}

func validateDates(v *validator, n *Operation, args []Type) (Type, error) {
	for i, arg := range args {
		switch arg.Class {
		case Date, DateTime, String, Untyped:
		default:
			return Type{}, v.errorf(n.CallArgs()[i], CannotAdapt, issue.H{`from`: arg, `to`: Date})
		}
	}

	return TypeOf(Number), nil
}

// evalDateDiff returns the whole days from the second date to the first.
func evalDateDiff(e *evaluator, n *Operation, args []Value) (Value, error) {
	dates := make([]time.Time, 2)
	for i, arg := range args {
		d, err := e.cast(n.CallArgs()[i], Date, arg)
		if err != nil || d.IsNull() {
			return Null(Number), err
		}

		dates[i], _ = time.Parse("2006-01-02", d.Raw.(string))
	}

	return NewNumber(math.Round(dates[0].Sub(dates[1]).Hours() / 24)), nil
}

// aggregate builds a list function. The argument goes through List.Cast and
// reduce sees only its non-null elements.
func aggregate(result Type, reduce func(e *evaluator, n *Operation, items []Value) (Value, error)) *handler {
	return &handler{
		arity:    arity{1, 1},
		validate: returns(result),
		eval: func(e *evaluator, n *Operation, args []Value) (Value, error) {
			list, err := e.cast(n.CallArgs()[0], List, args[0])
			if err != nil {
				return Value{}, err
			}

			var items []Value
			for _, item := range list.Items() {
				if !item.IsNull() {
					items = append(items, item)
				}
			}

			return reduce(e, n, items)
		},
	}
}

func truths(e *evaluator, n *Operation, items []Value) ([]bool, error) {
	out := make([]bool, len(items))
	for i, item := range items {
		b, err := e.cast(n, Boolean, item)
		if err != nil {
			return nil, err
		}
		out[i] = !b.IsNull() && b.Raw.(bool)
	}

	return out, nil
}

func evalExists(e *evaluator, n *Operation, items []Value) (Value, error) {
	bs, err := truths(e, n, items)
	if err != nil {
		return Value{}, err
	}

	for _, b := range bs {
		if b {
			return NewBoolean(true), nil
		}
	}

	return NewBoolean(false), nil
}

func evalEvery(e *evaluator, n *Operation, items []Value) (Value, error) {
	bs, err := truths(e, n, items)
	if err != nil {
		return Value{}, err
	}

	for _, b := range bs {
		if !b {
			return NewBoolean(false), nil
		}
	}

	return NewBoolean(true), nil
}

func evalCount(e *evaluator, n *Operation, items []Value) (Value, error) {
	return NewNumber(float64(len(items))), nil
}

func numbers(e *evaluator, n *Operation, items []Value) ([]float64, error) {
	out := make([]float64, len(items))
	for i, item := range items {
		num, err := e.cast(n, Number, item)
		if err != nil {
			return nil, err
		}
		out[i] = num.Raw.(float64)
	}

	return out, nil
}

func evalSum(e *evaluator, n *Operation, items []Value) (Value, error) {
	nums, err := numbers(e, n, items)
	if err != nil {
		return Value{}, err
	}

	sum := 0.0
	for _, f := range nums {
		sum += f
	}

	return NewNumber(sum), nil
}

func evalAvg(e *evaluator, n *Operation, items []Value) (Value, error) {
	if len(items) == 0 {
		return Null(Number), nil
	}

	sum, err := evalSum(e, n, items)
	if err != nil {
		return Value{}, err
	}

	return NewNumber(sum.Raw.(float64) / float64(len(items))), nil
}

func validateExtreme(v *validator, n *Operation, args []Type) (Type, error) {
	if args[0].Class == List {
		return elemOf(args[0]), nil
	}

	return args[0], nil
}

// extreme picks the element comparing furthest in direction sign among the
// non-null elements, which must share a class.
func extreme(sign int) evalFunc {
	return aggregate(TypeOf(Untyped), func(e *evaluator, n *Operation, items []Value) (Value, error) {
		if len(items) == 0 {
			return Null(Untyped), nil
		}

		common, ok := FindCommon(classesOfValues(items), scalarClasses)
		if !ok {
			return Value{}, e.errorf(n, NoCommonType, issue.H{`name`: n.Name(), `types`: describeValues(items)})
		}

		var best Value
		for i, item := range items {
			v, err := e.cast(n, common, item)
			if err != nil {
				return Value{}, err
			}

			if i == 0 || compareRaw(v.Raw, best.Raw)*sign > 0 {
				best = v
			}
		}

		return best, nil
	}).eval
}
