package builder

import "testing"

func TestBuildExpression_BinaryTwoAttributes(t *testing.T) {
	b := New()
	record := map[string]any{
		"operator":          "eq",
		"actor_attribute":   "id",
		"subject_attribute": "authorId",
	}
	expr, err := b.BuildExpression(record)
	if err != nil {
		t.Fatalf("BuildExpression: %v", err)
	}
	if got := expr.Describe(); got != "actor.id eq subject.authorId" {
		t.Fatalf("Describe() = %q", got)
	}
}

func TestBuildExpression_BinaryAttributeAndValue(t *testing.T) {
	b := New()
	record := map[string]any{
		"operator":          "in",
		"subject_attribute": "status",
		"value":             []any{"draft", "review"},
	}
	if _, err := b.BuildExpression(record); err != nil {
		t.Fatalf("BuildExpression: %v", err)
	}
}

func TestBuildExpression_Unary(t *testing.T) {
	b := New()
	record := map[string]any{
		"operator":              "truthy",
		"environment_attribute": "enabled",
	}
	if _, err := b.BuildExpression(record); err != nil {
		t.Fatalf("BuildExpression: %v", err)
	}
}

func TestBuildExpression_Function(t *testing.T) {
	b := New()
	record := map[string]any{
		"function":              "isBetween",
		"environment_attribute": "hour",
		"arguments":             []any{9, 17},
	}
	if _, err := b.BuildExpression(record); err != nil {
		t.Fatalf("BuildExpression: %v", err)
	}
}

func TestBuildExpression_FunctionWithAttributeArgument(t *testing.T) {
	b := New()
	record := map[string]any{
		"function":          "hasAny",
		"subject_attribute": "roles",
		"arguments": []any{
			map[string]any{"actor_attribute": "requiredRole"},
			"viewer",
		},
	}
	if _, err := b.BuildExpression(record); err != nil {
		t.Fatalf("BuildExpression: %v", err)
	}
}

func TestBuildExpression_UnknownOperatorIsMalformed(t *testing.T) {
	b := New()
	record := map[string]any{
		"operator":        "frobnicate",
		"actor_attribute": "id",
		"value":           1,
	}
	_, err := b.BuildExpression(record)
	if err == nil {
		t.Fatal("expected a malformed expression error")
	}
	if _, ok := err.(*MalformedExpressionError); !ok {
		t.Fatalf("expected *MalformedExpressionError, got %T", err)
	}
}

func TestBuildExpression_TooManyOperandsIsMalformed(t *testing.T) {
	b := New()
	record := map[string]any{
		"operator":              "eq",
		"actor_attribute":       "id",
		"subject_attribute":     "authorId",
		"environment_attribute": "now",
	}
	if _, err := b.BuildExpression(record); err == nil {
		t.Fatal("expected a malformed expression error for three operands")
	}
}

func TestBuildExpression_NoShapeIsMalformed(t *testing.T) {
	b := New()
	if _, err := b.BuildExpression(map[string]any{"foo": "bar"}); err == nil {
		t.Fatal("expected a malformed expression error")
	}
}

func TestBuildExpression_MatchesLiteralPatternBuilds(t *testing.T) {
	b := New()
	record := map[string]any{
		"operator":        "matches",
		"actor_attribute": "id",
		"value":           "^user-[0-9]+$",
	}
	built, err := b.BuildExpression(record)
	if err != nil {
		t.Fatalf("BuildExpression: %v", err)
	}
	if _, ok := built.(interface{ Describe() string }); !ok {
		t.Fatalf("expected a policy.Expression")
	}
}

func TestBuildExpression_InvalidMatchesPatternIsMalformed(t *testing.T) {
	b := New()
	record := map[string]any{
		"operator":        "matches",
		"actor_attribute": "id",
		"value":           "[unterminated",
	}
	if _, err := b.BuildExpression(record); err == nil {
		t.Fatal("expected a malformed expression error for an invalid regex literal")
	}
}

func TestBuildRule_And(t *testing.T) {
	b := New()
	record := map[string]any{
		"condition": "AND",
		"expressions": []any{
			map[string]any{"operator": "eq", "actor_attribute": "id", "subject_attribute": "authorId"},
			map[string]any{"operator": "truthy", "environment_attribute": "enabled"},
		},
	}
	rule, err := b.BuildRule(record)
	if err != nil {
		t.Fatalf("BuildRule: %v", err)
	}
	if len(rule.Expressions) != 2 {
		t.Fatalf("got %d expressions, want 2", len(rule.Expressions))
	}
}

func TestBuildRule_NotRequiresExactlyOne(t *testing.T) {
	b := New()
	record := map[string]any{
		"condition": "NOT",
		"expressions": []any{
			map[string]any{"operator": "truthy", "environment_attribute": "a"},
			map[string]any{"operator": "truthy", "environment_attribute": "b"},
		},
	}
	if _, err := b.BuildRule(record); err == nil {
		t.Fatal("expected an error for NOT with two expressions")
	}
}

func TestBuildPolicy_Full(t *testing.T) {
	b := New()
	record := map[string]any{
		"name":        "owners-can-edit-drafts",
		"description": "owners may edit their own draft posts",
		"effect":      "permit",
		"actions":     []any{"edit"},
		"actors":      []any{"user"},
		"subjects":    []any{"post"},
		"rule": map[string]any{
			"condition": "AND",
			"expressions": []any{
				map[string]any{"operator": "eq", "actor_attribute": "id", "subject_attribute": "authorId"},
				map[string]any{"operator": "eq", "subject_attribute": "status", "value": "draft"},
			},
		},
	}
	p, err := b.BuildPolicy(record)
	if err != nil {
		t.Fatalf("BuildPolicy: %v", err)
	}
	if !p.HasAction("edit") || p.HasAction("delete") {
		t.Fatalf("action routing incorrect: %+v", p.Actions)
	}
}

func TestBuildPolicy_CanonicalRulesKey(t *testing.T) {
	b := New()
	record := map[string]any{
		"name":    "owners-can-edit-drafts",
		"effect":  "permit",
		"actions": []any{"edit"},
		"rules": map[string]any{
			"condition": "AND",
			"expressions": []any{
				map[string]any{"operator": "eq", "actor_attribute": "id", "subject_attribute": "authorId"},
			},
		},
	}
	if _, err := b.BuildPolicy(record); err != nil {
		t.Fatalf("BuildPolicy with canonical \"rules\" key: %v", err)
	}
}

func TestBuildPolicy_MissingEffectCarriesName(t *testing.T) {
	b := New()
	record := map[string]any{
		"name": "broken",
		"rule": map[string]any{"condition": "AND", "expressions": []any{}},
	}
	_, err := b.BuildPolicy(record)
	if err == nil {
		t.Fatal("expected a malformed expression error")
	}
	me, ok := err.(*MalformedExpressionError)
	if !ok {
		t.Fatalf("expected *MalformedExpressionError, got %T", err)
	}
	if me.PolicyName != "broken" {
		t.Fatalf("PolicyName = %q, want %q", me.PolicyName, "broken")
	}
}

func TestBuildPolicies_StopsAtFirstMalformed(t *testing.T) {
	b := New()
	records := []map[string]any{
		{
			"name": "good", "effect": "permit",
			"rule": map[string]any{
				"condition":   "AND",
				"expressions": []any{map[string]any{"operator": "truthy", "environment_attribute": "a"}},
			},
		},
		{
			"name": "bad", "effect": "nonsense",
			"rule": map[string]any{
				"condition":   "AND",
				"expressions": []any{map[string]any{"operator": "truthy", "environment_attribute": "a"}},
			},
		},
	}
	if _, err := b.BuildPolicies(records); err == nil {
		t.Fatal("expected an error from the second, malformed record")
	}
}
