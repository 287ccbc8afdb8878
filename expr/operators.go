package expr

import (
	"fmt"
	"regexp"
	"strings"

	"abacengine/constants"
)

// BinaryImpl is the evaluation behavior bound to a single binary operator.
type BinaryImpl interface {
	Evaluate(actual, expected any) Result
}

// UnaryImpl is the evaluation behavior bound to a single unary operator.
type UnaryImpl interface {
	Evaluate(value any) Result
}

// FunctionImpl is the evaluation behavior bound to a single named function.
type FunctionImpl interface {
	Evaluate(subject any, args []any) Result
}

// Registry holds the closed set of operator implementations the engine
// supports. It mirrors the teacher's Operator/OperatorRegistry shape
// (register-by-name, look-up-by-name) but returns a tri-valued Result
// instead of a bare bool, and never silently coerces across types.
type Registry struct {
	binary    map[constants.BinaryOperator]BinaryImpl
	unary     map[constants.UnaryOperator]UnaryImpl
	functions map[constants.FunctionName]FunctionImpl
}

// NewRegistry builds a Registry with the fixed set of operators spec.md §4.2
// requires.
func NewRegistry() *Registry {
	r := &Registry{
		binary:    make(map[constants.BinaryOperator]BinaryImpl),
		unary:     make(map[constants.UnaryOperator]UnaryImpl),
		functions: make(map[constants.FunctionName]FunctionImpl),
	}

	r.binary[constants.OpEq] = eqOp{}
	r.binary[constants.OpNe] = neOp{}
	r.binary[constants.OpLt] = orderOp{want: -1}
	r.binary[constants.OpLe] = orderOp{want: -1, orEqual: true}
	r.binary[constants.OpGt] = orderOp{want: 1}
	r.binary[constants.OpGe] = orderOp{want: 1, orEqual: true}
	r.binary[constants.OpIn] = inOp{}
	r.binary[constants.OpNotIn] = notInOp{}
	r.binary[constants.OpMatches] = matchesOp{}

	r.unary[constants.OpIsNull] = isNullOp{}
	r.unary[constants.OpNotNull] = notNullOp{}
	r.unary[constants.OpTruthy] = truthyOp{}
	r.unary[constants.OpFalsy] = falsyOp{}
	r.unary[constants.OpNot] = notOp{}

	r.functions[constants.FnStartsWith] = startsWithOp{}
	r.functions[constants.FnEndsWith] = endsWithOp{}
	r.functions[constants.FnContains] = containsOp{}
	r.functions[constants.FnIsBetween] = isBetweenOp{}
	r.functions[constants.FnHasAny] = hasAnyOp{}
	r.functions[constants.FnHasAll] = hasAllOp{}

	return r
}

func (r *Registry) Binary(op constants.BinaryOperator) (BinaryImpl, error) {
	impl, ok := r.binary[op]
	if !ok {
		return nil, fmt.Errorf("expr: unknown binary operator %q", op)
	}
	return impl, nil
}

func (r *Registry) Unary(op constants.UnaryOperator) (UnaryImpl, error) {
	impl, ok := r.unary[op]
	if !ok {
		return nil, fmt.Errorf("expr: unknown unary operator %q", op)
	}
	return impl, nil
}

func (r *Registry) Function(name constants.FunctionName) (FunctionImpl, error) {
	impl, ok := r.functions[name]
	if !ok {
		return nil, fmt.Errorf("expr: unknown function %q", name)
	}
	return impl, nil
}

// --- binary operators ---

type eqOp struct{}

func (eqOp) Evaluate(actual, expected any) Result { return equal(actual, expected) }

type neOp struct{}

func (neOp) Evaluate(actual, expected any) Result { return Not(equal(actual, expected)) }

// orderOp implements lt/le/gt/ge uniformly: want=-1 means "actual below
// expected", want=1 means "actual above expected"; orEqual folds in the
// equals case for le/ge.
type orderOp struct {
	want    int
	orEqual bool
}

func (o orderOp) Evaluate(actual, expected any) Result {
	cmp, ok := ordered(actual, expected)
	if !ok {
		return Indeterminate
	}
	if o.orEqual && cmp == 0 {
		return True
	}
	return FromBool(cmp == o.want)
}

type inOp struct{}

func (inOp) Evaluate(actual, expected any) Result {
	items, ok := toSlice(expected)
	if !ok {
		return Indeterminate
	}
	results := make([]Result, len(items))
	for i, item := range items {
		results[i] = equal(actual, item)
	}
	if len(results) == 0 {
		return False
	}
	return OrAll(results)
}

type notInOp struct{}

func (notInOp) Evaluate(actual, expected any) Result {
	return Not(inOp{}.Evaluate(actual, expected))
}

// matchesOp recompiles the pattern on every call. NewBinary rebinds a
// literal string pattern to cachedMatchesOp, so matchesOp is reached when
// the pattern is attribute-sourced (and cannot be precompiled) or a
// non-string literal, which evaluates to Indeterminate.
type matchesOp struct{}

func (matchesOp) Evaluate(actual, expected any) Result {
	str, ok := toString(actual)
	if !ok {
		return Indeterminate
	}
	pattern, ok := toString(expected)
	if !ok {
		return Indeterminate
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Indeterminate
	}
	return FromBool(re.MatchString(str))
}

// cachedMatchesOp binds a regex compiled once at build time, when the
// pattern is a literal known at policy-load time.
type cachedMatchesOp struct {
	re *regexp.Regexp
}

func (c cachedMatchesOp) Evaluate(actual, _ any) Result {
	str, ok := toString(actual)
	if !ok {
		return Indeterminate
	}
	return FromBool(c.re.MatchString(str))
}

// --- unary operators ---

type isNullOp struct{}

func (isNullOp) Evaluate(value any) Result { return FromBool(value == nil) }

type notNullOp struct{}

func (notNullOp) Evaluate(value any) Result { return FromBool(value != nil) }

type truthyOp struct{}

func (truthyOp) Evaluate(value any) Result { return FromBool(truthiness(value)) }

type falsyOp struct{}

func (falsyOp) Evaluate(value any) Result { return FromBool(!truthiness(value)) }

type notOp struct{}

func (notOp) Evaluate(value any) Result { return FromBool(!truthiness(value)) }

// --- functions ---

type startsWithOp struct{}

func (startsWithOp) Evaluate(subject any, args []any) Result {
	s, ok := toString(subject)
	if !ok || len(args) != 1 {
		return Indeterminate
	}
	prefix, ok := toString(args[0])
	if !ok {
		return Indeterminate
	}
	return FromBool(strings.HasPrefix(s, prefix))
}

type endsWithOp struct{}

func (endsWithOp) Evaluate(subject any, args []any) Result {
	s, ok := toString(subject)
	if !ok || len(args) != 1 {
		return Indeterminate
	}
	suffix, ok := toString(args[0])
	if !ok {
		return Indeterminate
	}
	return FromBool(strings.HasSuffix(s, suffix))
}

type containsOp struct{}

func (containsOp) Evaluate(subject any, args []any) Result {
	if len(args) != 1 {
		return Indeterminate
	}
	if s, ok := toString(subject); ok {
		substr, ok := toString(args[0])
		if !ok {
			return Indeterminate
		}
		return FromBool(strings.Contains(s, substr))
	}
	items, ok := toSlice(subject)
	if !ok {
		return Indeterminate
	}
	for _, item := range items {
		if equal(item, args[0]) == True {
			return True
		}
	}
	return False
}

type isBetweenOp struct{}

func (isBetweenOp) Evaluate(subject any, args []any) Result {
	if len(args) != 2 {
		return Indeterminate
	}
	lowCmp, ok1 := ordered(subject, args[0])
	highCmp, ok2 := ordered(subject, args[1])
	if !ok1 || !ok2 {
		return Indeterminate
	}
	return FromBool(lowCmp >= 0 && highCmp <= 0)
}

type hasAnyOp struct{}

func (hasAnyOp) Evaluate(subject any, args []any) Result {
	items, ok := toSlice(subject)
	if !ok || len(args) == 0 {
		return Indeterminate
	}
	for _, want := range args {
		for _, item := range items {
			if equal(item, want) == True {
				return True
			}
		}
	}
	return False
}

type hasAllOp struct{}

func (hasAllOp) Evaluate(subject any, args []any) Result {
	items, ok := toSlice(subject)
	if !ok || len(args) == 0 {
		return Indeterminate
	}
	for _, want := range args {
		found := false
		for _, item := range items {
			if equal(item, want) == True {
				found = true
				break
			}
		}
		if !found {
			return False
		}
	}
	return True
}
