// Package enforcer is the PEP's read-path boundary: it turns an
// Evaluator decision into either nil (permitted) or an error a caller can
// propagate straight up an HTTP/RPC stack. Grounded on the teacher's
// pep/core.go PolicyEnforcementPoint, trimmed to this read path only (the
// teacher's rate limiting, circuit breaking, and decision caching are out
// of scope here: PolicyCache already covers the caching concern one layer
// down), and on nacx-padme's enforcer.Answer, whose fail-closed-and-log
// shape this package's Allow method mirrors directly.
package enforcer

import (
	"context"
	"errors"
	"log"

	"abacengine/constants"
	"abacengine/evaluator"
	"abacengine/policy"
)

// DeniedError is returned by Enforce when the PDP denies a request. It
// carries the full Decision so callers can inspect the reason code.
type DeniedError struct {
	Decision policy.Decision
}

func (e *DeniedError) Error() string {
	return "enforcer: denied: " + e.Decision.Message
}

// Enforcer wraps an Evaluator and fails closed: any error evaluating a
// request, other than cancellation, is treated as a denial, never as a
// pass-through.
type Enforcer struct {
	evaluator *evaluator.Evaluator
	logger    *log.Logger
}

// New builds an Enforcer over eval. A nil logger uses log.Default().
func New(eval *evaluator.Evaluator, logger *log.Logger) *Enforcer {
	if logger == nil {
		logger = log.Default()
	}
	return &Enforcer{evaluator: eval, logger: logger}
}

// Enforce returns nil if action is permitted against reqCtx, or a
// *DeniedError wrapping the decision otherwise. A backend failure while
// evaluating is logged and denied rather than propagated as a bare error,
// so callers can treat a non-nil, non-cancellation Enforce result
// uniformly as "not permitted" without needing to special-case
// infrastructure failures. Cancellation is the one exception: a
// context.Canceled or context.DeadlineExceeded from the evaluator is
// returned to the caller as-is, never folded into a DeniedError, since it
// reflects discarded partial work rather than a decision.
func (e *Enforcer) Enforce(ctx context.Context, action string, reqCtx policy.PolicyContext) error {
	decision, err := e.evaluator.Decide(ctx, action, reqCtx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		e.logger.Printf("enforcer: evaluation failed, denying by default: %v", err)
		return &DeniedError{Decision: policy.Deny(constants.CodeIndeterminate, "evaluation failed")}
	}
	if !decision.Allowed {
		return &DeniedError{Decision: decision}
	}
	return nil
}

// Allow is the boolean-returning convenience form of Enforce.
func (e *Enforcer) Allow(ctx context.Context, action string, reqCtx policy.PolicyContext) bool {
	return e.Enforce(ctx, action, reqCtx) == nil
}
