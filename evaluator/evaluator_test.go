package evaluator

import (
	"context"
	"errors"
	"testing"
	"time"

	"abacengine/attribute"
	"abacengine/builder"
	"abacengine/cache"
	"abacengine/categorizer"
	"abacengine/policy"
	"abacengine/retrieval"
)

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

func mustPolicy(t *testing.T, record map[string]any) *policy.Policy {
	t.Helper()
	p, err := builder.New().BuildPolicy(record)
	if err != nil {
		t.Fatalf("BuildPolicy: %v", err)
	}
	return p
}

func newEvaluator(t *testing.T, policies []*policy.Policy, opts ...Option) *Evaluator {
	t.Helper()
	c, err := cache.New(context.Background(), &stubStore{policies: policies}, time.Hour, nil)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	r := retrieval.New(c, categorizer.New())
	return New(r, attribute.NewAccessor(), opts...)
}

// user is the spec scenario 1 actor type: categorized "user" by its type
// name (no Category() override needed, same fallback path as post).
type user struct {
	ID int
}

func (u *user) GetAttributes() map[string]any {
	return map[string]any{"id": u.ID}
}

type post struct {
	AuthorID int
	Status   string
}

func (p *post) GetAttributes() map[string]any {
	return map[string]any{"authorId": p.AuthorID, "status": p.Status}
}

// incompletePost categorizes as "post" (spec scenario 1's subject
// category) but exposes no attributes, so attribute resolution against
// it is unresolved rather than merely uncategorized.
type incompletePost struct{}

func (incompletePost) Category() string { return "post" }

func (incompletePost) GetAttributes() map[string]any { return map[string]any{} }

// ownershipPolicy is spec scenario 1 verbatim: actor category "user",
// subject category "post", permit when the actor owns a draft post.
func ownershipPolicy(t *testing.T) *policy.Policy {
	return mustPolicy(t, map[string]any{
		"name":     "owners-can-edit-drafts",
		"effect":   "permit",
		"actions":  []any{"edit"},
		"actors":   []any{"user"},
		"subjects": []any{"post"},
		"rule": map[string]any{
			"condition": "AND",
			"expressions": []any{
				map[string]any{"operator": "eq", "actor_attribute": "id", "subject_attribute": "authorId"},
				map[string]any{"operator": "eq", "subject_attribute": "status", "value": "draft"},
			},
		},
	})
}

func TestDecide_Permit(t *testing.T) {
	e := newEvaluator(t, []*policy.Policy{ownershipPolicy(t)})

	reqCtx := policy.NewPolicyContext(
		&user{ID: 7},
		[]any{&post{AuthorID: 7, Status: "draft"}},
		nil,
	)
	decision, err := e.Decide(context.Background(), "edit", reqCtx)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("got %+v, want Allowed", decision)
	}
}

func TestDecide_DenyOverridesPermit(t *testing.T) {
	permit := ownershipPolicy(t)
	deny := mustPolicy(t, map[string]any{
		"name":    "deny-locked-posts",
		"effect":  "deny",
		"actions": []any{"edit"},
		"rule": map[string]any{
			"condition":   "AND",
			"expressions": []any{map[string]any{"operator": "truthy", "subject_attribute": "locked"}},
		},
	})

	e := newEvaluator(t, []*policy.Policy{permit, deny})
	reqCtx := policy.NewPolicyContext(
		&user{ID: 7},
		[]any{&lockedPost{AuthorID: 7, Status: "draft", Locked: true}},
		nil,
	)
	decision, err := e.Decide(context.Background(), "edit", reqCtx)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected deny to override permit")
	}
}

// lockedPost categorizes as "post" too: it is the same spec subject
// category with an extra attribute, not a different kind of subject.
type lockedPost struct {
	AuthorID int
	Status   string
	Locked   bool
}

func (lockedPost) Category() string { return "post" }

func (p *lockedPost) GetAttributes() map[string]any {
	return map[string]any{"authorId": p.AuthorID, "status": p.Status, "locked": p.Locked}
}

func TestDecide_NoApplicablePolicyIsDefaultDeny(t *testing.T) {
	e := newEvaluator(t, []*policy.Policy{ownershipPolicy(t)})
	reqCtx := policy.NewPolicyContext(&user{ID: 1}, []any{&post{AuthorID: 1, Status: "draft"}}, nil)

	decision, err := e.Decide(context.Background(), "delete", reqCtx)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected default deny for an action no policy declares")
	}
}

func TestDecide_IndeterminateOutranksPermitByDefault(t *testing.T) {
	e := newEvaluator(t, []*policy.Policy{ownershipPolicy(t)})
	reqCtx := policy.NewPolicyContext(&user{ID: 7}, []any{incompletePost{}}, nil)

	decision, err := e.Decide(context.Background(), "edit", reqCtx)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected indeterminate (unresolved subject attribute) to deny by default")
	}
}

func TestDecide_WithIndeterminateAsDenyFalse(t *testing.T) {
	e := newEvaluator(t, []*policy.Policy{ownershipPolicy(t)}, WithIndeterminateAsDeny(false))
	reqCtx := policy.NewPolicyContext(&user{ID: 7}, []any{incompletePost{}}, nil)

	decision, err := e.Decide(context.Background(), "edit", reqCtx)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected no permit match since the rule never resolved true")
	}
}

func TestDecide_CancelledContextReturnsCanceled(t *testing.T) {
	e := newEvaluator(t, []*policy.Policy{ownershipPolicy(t)})
	reqCtx := policy.NewPolicyContext(&user{ID: 7}, []any{&post{AuthorID: 7, Status: "draft"}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Decide(ctx, "edit", reqCtx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Decide with a cancelled context = %v, want context.Canceled", err)
	}
}
