package builder

import "fmt"

// MalformedExpressionError is raised when a declarative expression record
// cannot be disambiguated into a Unary, Binary, or Function shape, or fails
// operator/arity/regex validation. It aborts the load of the policy that
// contains it; the cache never holds a policy built from a record that
// produced one of these.
type MalformedExpressionError struct {
	PolicyName string
	RuleIndex  int
	Detail     string
}

func (e *MalformedExpressionError) Error() string {
	if e.PolicyName == "" {
		return fmt.Sprintf("malformed expression: %s", e.Detail)
	}
	return fmt.Sprintf("malformed expression in policy %q (rule index %d): %s", e.PolicyName, e.RuleIndex, e.Detail)
}

func malformed(detail string, args ...any) *MalformedExpressionError {
	return &MalformedExpressionError{Detail: fmt.Sprintf(detail, args...)}
}

// WithContext attaches the offending policy name and rule index, as
// required by spec for fail-fast diagnostics at load time.
func (e *MalformedExpressionError) WithContext(policyName string, ruleIndex int) *MalformedExpressionError {
	e.PolicyName = policyName
	e.RuleIndex = ruleIndex
	return e
}
