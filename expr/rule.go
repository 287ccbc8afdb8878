package expr

import (
	"context"

	"abacengine/attribute"
	"abacengine/constants"
	"abacengine/policy"
)

// EvalRule evaluates every expression in rule against ctx and combines the
// results with the rule's declared combinator, in the rule's declared
// left-to-right order. Every expression is evaluated (no short-circuit),
// and the results are then folded with Kleene AND/OR/NOT, so an early
// False under AND stays False even when a later expression is
// Indeterminate, per the three-valued truth table.
//
// ctx is checked between expression evaluations: a cancelled or expired
// context aborts the rule immediately and EvalRule returns ctx.Err()
// rather than a Result, so a deadline expiring mid-rule never silently
// resolves to a decision.
func EvalRule(ctx context.Context, rule policy.Rule, reqCtx policy.PolicyContext, acc attribute.Accessor) (Result, error) {
	results := make([]Result, 0, len(rule.Expressions))
	for _, e := range rule.Expressions {
		if err := ctx.Err(); err != nil {
			return Indeterminate, err
		}

		evaluable, ok := e.(Evaluable)
		if !ok {
			results = append(results, Indeterminate)
			continue
		}
		results = append(results, evaluable.Eval(reqCtx, acc))
	}

	switch rule.Condition {
	case constants.ConditionNot:
		return Not(results[0]), nil
	case constants.ConditionOr:
		return OrAll(results), nil
	default: // constants.ConditionAnd
		return AndAll(results), nil
	}
}
