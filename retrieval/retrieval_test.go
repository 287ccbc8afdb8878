package retrieval

import (
	"context"
	"testing"
	"time"

	"abacengine/cache"
	"abacengine/categorizer"
	"abacengine/constants"
	"abacengine/policy"
)

type trueExpr struct{}

func (trueExpr) Describe() string { return "true" }

type stubStore struct {
	policies []*policy.Policy
}

func (s *stubStore) LoadAll(ctx context.Context) ([]*policy.Policy, error) {
	return s.policies, nil
}

func (s *stubStore) LoadByName(ctx context.Context, name string) (*policy.Policy, error) {
	for _, p := range s.policies {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

type user struct{}
type draft struct{}

func newPolicy(name string, actions, actors, subjects []string) *policy.Policy {
	rule, _ := policy.NewRule(constants.ConditionAnd, []policy.Expression{trueExpr{}})
	p, _ := policy.NewPolicy(name, "", constants.EffectPermit, actions, actors, subjects, rule)
	return p
}

func TestCandidates_FiltersByActionActorSubject(t *testing.T) {
	policies := []*policy.Policy{
		newPolicy("b-edit-own-draft", []string{"edit"}, []string{"user"}, []string{"draft"}),
		newPolicy("a-wildcard", nil, nil, nil),
		newPolicy("delete-anything", []string{"delete"}, nil, nil),
		newPolicy("edit-invoice-only", []string{"edit"}, []string{"user"}, []string{"invoice"}),
	}
	backend := &stubStore{policies: policies}
	c, err := cache.New(context.Background(), backend, time.Hour, nil)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	r := New(c, categorizer.New())

	got, err := r.Candidates(context.Background(), "edit", &user{}, []any{&draft{}})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}

	var names []string
	for _, p := range got {
		names = append(names, p.Name)
	}
	want := []string{"a-wildcard", "b-edit-own-draft"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}
