// Package evaluator implements the PDP: the deny-overrides-with-
// indeterminate-as-deny combining algorithm over the candidates the PRP
// (package retrieval) hands it. Grounded on the teacher's
// evaluator/pdp.go Evaluate/evaluatePolicies, corrected in two ways the
// teacher's version does not attempt: an unresolved attribute or a
// cross-type comparison never silently becomes false (see package expr's
// Result), and that indeterminate outcome ranks above a matching permit
// in the combining order, configurable via WithIndeterminateAsDeny. A
// cancelled or expired ctx aborts mid-candidate or mid-rule and surfaces
// ctx.Err() rather than completing to a Decision.
package evaluator

import (
	"context"
	"fmt"

	"abacengine/attribute"
	"abacengine/constants"
	"abacengine/expr"
	"abacengine/policy"
	"abacengine/retrieval"
)

// Evaluator is the PDP: it narrows candidates via its Retriever, evaluates
// each one's Rule, and combines the outcomes.
type Evaluator struct {
	retriever           *retrieval.Retriever
	accessor            attribute.Accessor
	indeterminateAsDeny bool
}

// Option configures an Evaluator at construction time.
type Option func(*Evaluator)

// WithIndeterminateAsDeny controls whether an indeterminate rule outcome
// ranks above a matching permit in the combining order (the default,
// true) or is simply ignored as if the rule had evaluated false.
func WithIndeterminateAsDeny(v bool) Option {
	return func(e *Evaluator) { e.indeterminateAsDeny = v }
}

// New builds an Evaluator. Defaults to indeterminate-as-deny.
func New(retriever *retrieval.Retriever, accessor attribute.Accessor, opts ...Option) *Evaluator {
	e := &Evaluator{retriever: retriever, accessor: accessor, indeterminateAsDeny: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decide narrows the candidate policies for action against reqCtx and
// combines their rule outcomes under deny-overrides with default-deny: an
// explicit deny short-circuits immediately; barring that, an
// indeterminate outcome (if indeterminateAsDeny) outranks a permit; with
// neither, a matching permit wins; with none of the above, the result is a
// default deny with CodeNoApplicablePolicy.
//
// ctx is checked between candidates, and EvalRule checks it again between
// each candidate's own expressions, so a cancelled or expired ctx aborts
// the decision and surfaces ctx.Err() rather than completing to a
// Decision built on partial work.
func (e *Evaluator) Decide(ctx context.Context, action string, reqCtx policy.PolicyContext) (policy.Decision, error) {
	candidates, err := e.retriever.Candidates(ctx, action, reqCtx.Actor, reqCtx.Subjects)
	if err != nil {
		return policy.Decision{}, fmt.Errorf("evaluator: failed to retrieve candidate policies: %w", err)
	}
	if len(candidates) == 0 {
		return policy.Deny(constants.CodeNoApplicablePolicy, "no applicable policy matched the request"), nil
	}

	var sawIndeterminate bool
	var permitMatch *policy.Policy

	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			return policy.Decision{}, err
		}

		result, err := expr.EvalRule(ctx, p.Rule, reqCtx, e.accessor)
		if err != nil {
			return policy.Decision{}, err
		}
		switch result {
		case expr.True:
			if p.Effect == constants.EffectDeny {
				return policy.Deny(constants.CodeExplicitDeny, fmt.Sprintf("denied by policy %q", p.Name)), nil
			}
			if permitMatch == nil {
				permitMatch = p
			}
		case expr.Indeterminate:
			sawIndeterminate = true
		}
	}

	if sawIndeterminate && e.indeterminateAsDeny {
		return policy.Deny(constants.CodeIndeterminate, "a candidate policy's rule could not be resolved"), nil
	}
	if permitMatch != nil {
		return policy.Permit(fmt.Sprintf("permitted by policy %q", permitMatch.Name)), nil
	}
	return policy.Deny(constants.CodeNoApplicablePolicy, "no candidate policy's rule matched"), nil
}

// Trace is a single candidate policy's evaluated outcome, used by Explain
// for diagnostics, mirroring the teacher's ExplainDecision map.
type Trace struct {
	PolicyName string
	Effect     constants.Effect
	Result     expr.Result
}

// Explain evaluates every candidate the same way Decide does, but returns
// the full per-policy trace instead of collapsing it into one Decision.
func (e *Evaluator) Explain(ctx context.Context, action string, reqCtx policy.PolicyContext) ([]Trace, error) {
	candidates, err := e.retriever.Candidates(ctx, action, reqCtx.Actor, reqCtx.Subjects)
	if err != nil {
		return nil, fmt.Errorf("evaluator: failed to retrieve candidate policies: %w", err)
	}

	traces := make([]Trace, 0, len(candidates))
	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := expr.EvalRule(ctx, p.Rule, reqCtx, e.accessor)
		if err != nil {
			return nil, err
		}
		traces = append(traces, Trace{PolicyName: p.Name, Effect: p.Effect, Result: result})
	}
	return traces, nil
}
