package expr

import (
	"fmt"
	"regexp"

	"abacengine/attribute"
	"abacengine/constants"
	"abacengine/policy"
)

// Unary is a one-operand predicate expression.
type Unary struct {
	Operator constants.UnaryOperator
	Operand  policy.Attribute
	impl     UnaryImpl
}

// NewUnary validates the operator against the registry and builds a Unary
// node with its implementation bound.
func NewUnary(reg *Registry, operator constants.UnaryOperator, operand policy.Attribute) (*Unary, error) {
	impl, err := reg.Unary(operator)
	if err != nil {
		return nil, err
	}
	return &Unary{Operator: operator, Operand: operand, impl: impl}, nil
}

// Eval resolves the operand and applies the bound unary operator.
func (u *Unary) Eval(ctx policy.PolicyContext, acc attribute.Accessor) Result {
	value, err := acc.Resolve(ctx, u.Operand)
	if err != nil {
		return Indeterminate
	}
	return u.impl.Evaluate(value)
}

// Describe implements policy.Expression.
func (u *Unary) Describe() string {
	return fmt.Sprintf("%s(%s)", u.Operator, u.Operand)
}

// Binary is a two-operand relational/equality expression.
type Binary struct {
	Operator constants.BinaryOperator
	Left     policy.Attribute
	Right    policy.Attribute
	impl     BinaryImpl
}

// NewBinary validates the operator against the registry and builds a
// Binary node with its implementation bound. When operator is "matches"
// and the right operand is a literal pattern, the regex is compiled once
// here and cached on the node instead of being recompiled on every Eval.
func NewBinary(reg *Registry, operator constants.BinaryOperator, left, right policy.Attribute) (*Binary, error) {
	impl, err := reg.Binary(operator)
	if err != nil {
		return nil, err
	}
	if operator == constants.OpMatches && right.IsLiteral() {
		if pattern, ok := right.Literal.(string); ok {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("expr: invalid matches pattern %q: %w", pattern, err)
			}
			impl = cachedMatchesOp{re: re}
		}
	}
	return &Binary{Operator: operator, Left: left, Right: right, impl: impl}, nil
}

// Eval resolves both operands and applies the bound binary operator.
func (b *Binary) Eval(ctx policy.PolicyContext, acc attribute.Accessor) Result {
	left, err := acc.Resolve(ctx, b.Left)
	if err != nil {
		return Indeterminate
	}
	right, err := acc.Resolve(ctx, b.Right)
	if err != nil {
		return Indeterminate
	}
	return b.impl.Evaluate(left, right)
}

// Describe implements policy.Expression.
func (b *Binary) Describe() string {
	return fmt.Sprintf("%s %s %s", b.Left, b.Operator, b.Right)
}

// Function is a named predicate taking a subject operand and an ordered
// sequence of argument operands.
type Function struct {
	Name    constants.FunctionName
	Subject policy.Attribute
	Args    []policy.Attribute
	impl    FunctionImpl
}

// NewFunction validates the function name and arity against the registry
// and builds a Function node with its implementation bound.
func NewFunction(reg *Registry, name constants.FunctionName, subject policy.Attribute, args []policy.Attribute) (*Function, error) {
	impl, err := reg.Function(name)
	if err != nil {
		return nil, err
	}
	if arity, ok := constants.FunctionArity[name]; ok && arity >= 0 && len(args) != arity {
		return nil, fmt.Errorf("expr: function %q expects %d argument(s), got %d", name, arity, len(args))
	}
	if arity, ok := constants.FunctionArity[name]; ok && arity < 0 && len(args) == 0 {
		return nil, fmt.Errorf("expr: function %q expects at least one argument", name)
	}
	return &Function{Name: name, Subject: subject, Args: args, impl: impl}, nil
}

// Eval resolves the subject and every argument, then applies the bound
// function. Any unresolved operand makes the whole expression indeterminate.
func (f *Function) Eval(ctx policy.PolicyContext, acc attribute.Accessor) Result {
	subject, err := acc.Resolve(ctx, f.Subject)
	if err != nil {
		return Indeterminate
	}
	args := make([]any, len(f.Args))
	for i, a := range f.Args {
		v, err := acc.Resolve(ctx, a)
		if err != nil {
			return Indeterminate
		}
		args[i] = v
	}
	return f.impl.Evaluate(subject, args)
}

// Describe implements policy.Expression.
func (f *Function) Describe() string {
	return fmt.Sprintf("%s(%s, %v)", f.Name, f.Subject, f.Args)
}

// Eval is implemented by every concrete expression node exported from this
// package. It is not part of policy.Expression (which only needs
// Describe) so that package policy does not need to import attribute,
// which itself imports policy; EvalRule asserts each rule expression to
// Evaluable to call Eval.
type Evaluable interface {
	policy.Expression
	Eval(ctx policy.PolicyContext, acc attribute.Accessor) Result
}
