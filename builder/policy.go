package builder

import (
	"abacengine/constants"
	"abacengine/policy"
)

// BuildPolicy turns a declarative policy document into a *policy.Policy.
// The expected shape is:
//
//	{
//	  "name": "...", "description": "...", "effect": "permit"|"deny",
//	  "actions": [...], "actors": [...], "subjects": [...],
//	  "rules": {"condition": ..., "expressions": [...]}
//	}
//
// "rule" (singular) is also accepted as an alias of "rules", since a
// Policy carries exactly one combined Rule internally; whichever key is
// present wins, with "rules" checked first to match the canonical
// on-disk document.
//
// Any failure is returned as a *MalformedExpressionError carrying the
// document's own name (empty string if it could not even be read) and a
// rule index: 0 for an error inside the rule, -1 for one found before the
// rule is reached.
func (b *ExpressionBuilder) BuildPolicy(record map[string]any) (*policy.Policy, error) {
	name, _ := record["name"].(string)

	description, _ := record["description"].(string)

	effectRaw, ok := record["effect"]
	if !ok {
		return nil, malformed("policy %q is missing \"effect\"", name).WithContext(name, -1)
	}
	effectName, ok := effectRaw.(string)
	if !ok {
		return nil, malformed("policy %q: \"effect\" must be a string, got %T", name, effectRaw).WithContext(name, -1)
	}

	actions, err := toStringList(record["actions"])
	if err != nil {
		return nil, malformed("policy %q: actions: %v", name, err).WithContext(name, -1)
	}
	actors, err := toStringList(record["actors"])
	if err != nil {
		return nil, malformed("policy %q: actors: %v", name, err).WithContext(name, -1)
	}
	subjects, err := toStringList(record["subjects"])
	if err != nil {
		return nil, malformed("policy %q: subjects: %v", name, err).WithContext(name, -1)
	}

	ruleRaw, ok := record["rules"]
	if !ok {
		ruleRaw, ok = record["rule"]
	}
	if !ok {
		return nil, malformed("policy %q is missing \"rules\"", name).WithContext(name, -1)
	}
	ruleRecord, ok := ruleRaw.(map[string]any)
	if !ok {
		return nil, malformed("policy %q: \"rules\" must be an object, got %T", name, ruleRaw).WithContext(name, -1)
	}

	rule, err := b.BuildRule(ruleRecord)
	if err != nil {
		if me, ok := err.(*MalformedExpressionError); ok {
			return nil, me.WithContext(name, 0)
		}
		return nil, err
	}

	built, err := policy.NewPolicy(name, description, constants.Effect(effectName), actions, actors, subjects, rule)
	if err != nil {
		return nil, malformed("%v", err).WithContext(name, -1)
	}
	return built, nil
}

// BuildPolicies builds every record in turn, stopping at and returning the
// first malformed one. The caller never sees a partially loaded policy set.
func (b *ExpressionBuilder) BuildPolicies(records []map[string]any) ([]*policy.Policy, error) {
	policies := make([]*policy.Policy, 0, len(records))
	for _, record := range records {
		p, err := b.BuildPolicy(record)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, nil
}

// toStringList coerces an optional declarative list field (nil, []any, or
// []string) into a []string. A nil/missing field means "matches any" and
// yields an empty list, not an error.
func toStringList(raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, malformed("list element must be a string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, malformed("must be a list, got %T", raw)
	}
}
