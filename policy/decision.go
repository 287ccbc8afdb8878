package policy

import "abacengine/constants"

// Decision is the outcome of evaluating one request against the policy set.
type Decision struct {
	Allowed bool
	Message string
	Code    constants.DecisionCode
}

// Permit builds an allowed decision.
func Permit(message string) Decision {
	return Decision{Allowed: true, Message: message, Code: constants.CodeNone}
}

// Deny builds a denied decision carrying a stable reason code.
func Deny(code constants.DecisionCode, message string) Decision {
	return Decision{Allowed: false, Message: message, Code: code}
}
