package policy

import (
	"fmt"

	"abacengine/constants"
)

// Expression is a single evaluable predicate over a PolicyContext. The
// concrete Unary/Binary/Function node types live in package expr; Policy
// only needs to combine and walk them, so it depends on this narrow
// interface rather than the concrete expr package to keep the dependency
// direction leaf-first (policy does not import expr).
type Expression interface {
	// Describe returns a short human-readable rendering of the expression.
	Describe() string
}

// Rule is an ordered sequence of expressions combined by a single
// combinator.
type Rule struct {
	Condition   constants.Condition
	Expressions []Expression
}

// NewRule validates and builds a Rule. NOT requires exactly one expression;
// AND/OR require at least one.
func NewRule(condition constants.Condition, expressions []Expression) (Rule, error) {
	if !constants.IsValidCondition(string(condition)) {
		return Rule{}, fmt.Errorf("rule: unknown condition %q", condition)
	}
	if len(expressions) == 0 {
		return Rule{}, fmt.Errorf("rule: must contain at least one expression")
	}
	if condition == constants.ConditionNot && len(expressions) != 1 {
		return Rule{}, fmt.Errorf("rule: NOT requires exactly one expression, got %d", len(expressions))
	}
	return Rule{Condition: condition, Expressions: expressions}, nil
}

// Policy is an immutable, named unit bundling effect, declared routing
// dimensions, and a single combined Rule.
type Policy struct {
	Name        string
	Description string
	Effect      constants.Effect
	Actions     map[string]struct{}
	Actors      map[string]struct{}
	Subjects    map[string]struct{}
	Rule        Rule
}

// NewPolicy validates and builds a Policy.
func NewPolicy(name, description string, effect constants.Effect, actions, actors, subjects []string, rule Rule) (*Policy, error) {
	if name == "" {
		return nil, fmt.Errorf("policy: name must not be empty")
	}
	if !constants.IsValidEffect(string(effect)) {
		return nil, fmt.Errorf("policy %q: invalid effect %q", name, effect)
	}
	return &Policy{
		Name:        name,
		Description: description,
		Effect:      effect,
		Actions:     toSet(actions),
		Actors:      toSet(actors),
		Subjects:    toSet(subjects),
		Rule:        rule,
	}, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// HasAction reports whether the policy declares the given action, or
// declares no actions at all (matches any).
func (p *Policy) HasAction(action string) bool {
	if len(p.Actions) == 0 {
		return true
	}
	_, ok := p.Actions[action]
	return ok
}

// HasActor reports whether the policy declares the given actor category,
// or declares none at all (matches any).
func (p *Policy) HasActor(category string) bool {
	if len(p.Actors) == 0 {
		return true
	}
	_, ok := p.Actors[category]
	return ok
}

// HasSubject reports whether the policy declares the given subject
// category, or declares none at all (matches any).
func (p *Policy) HasSubject(category string) bool {
	if len(p.Subjects) == 0 {
		return true
	}
	_, ok := p.Subjects[category]
	return ok
}

// MatchesAny reports whether the policy's declared subject categories
// intersect the given set, or it declares none at all.
func (p *Policy) MatchesAny(categories map[string]struct{}) bool {
	if len(p.Subjects) == 0 {
		return true
	}
	for c := range categories {
		if _, ok := p.Subjects[c]; ok {
			return true
		}
	}
	return false
}
