package builder

import (
	"abacengine/constants"
	"abacengine/policy"
)

// BuildRule turns a declarative rule record, shaped
// {"condition": "AND"|"OR"|"NOT", "expressions": [...]}, into a policy.Rule.
func (b *ExpressionBuilder) BuildRule(record map[string]any) (policy.Rule, error) {
	condRaw, ok := record["condition"]
	if !ok {
		return policy.Rule{}, malformed("rule is missing \"condition\"")
	}
	condName, ok := condRaw.(string)
	if !ok {
		return policy.Rule{}, malformed("\"condition\" must be a string, got %T", condRaw)
	}
	if !constants.IsValidCondition(condName) {
		return policy.Rule{}, malformed("unknown condition %q", condName)
	}

	exprsRaw, ok := record["expressions"]
	if !ok {
		return policy.Rule{}, malformed("rule is missing \"expressions\"")
	}
	exprList, ok := exprsRaw.([]any)
	if !ok {
		return policy.Rule{}, malformed("\"expressions\" must be a list, got %T", exprsRaw)
	}

	expressions := make([]policy.Expression, 0, len(exprList))
	for i, raw := range exprList {
		exprRecord, ok := raw.(map[string]any)
		if !ok {
			return policy.Rule{}, malformed("expression %d must be an object, got %T", i, raw)
		}
		built, err := b.BuildExpression(exprRecord)
		if err != nil {
			return policy.Rule{}, err
		}
		expressions = append(expressions, built)
	}

	rule, err := policy.NewRule(constants.Condition(condName), expressions)
	if err != nil {
		return policy.Rule{}, malformed("%v", err)
	}
	return rule, nil
}
