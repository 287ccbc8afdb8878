package cache

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"abacengine/constants"
	"abacengine/policy"
)

type fakeStore struct {
	policies  []*policy.Policy
	loadCalls int64
	failNext  atomic.Bool
}

func (f *fakeStore) LoadAll(ctx context.Context) ([]*policy.Policy, error) {
	atomic.AddInt64(&f.loadCalls, 1)
	if f.failNext.Load() {
		return nil, errors.New("backend unavailable")
	}
	return f.policies, nil
}

func (f *fakeStore) LoadByName(ctx context.Context, name string) (*policy.Policy, error) {
	for _, p := range f.policies {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, errors.New("not found")
}

func onePolicy(name string, actions []string) *policy.Policy {
	rule, _ := policy.NewRule(constants.ConditionAnd, []policy.Expression{describeOnly{}})
	p, _ := policy.NewPolicy(name, "", constants.EffectPermit, actions, nil, nil, rule)
	return p
}

type describeOnly struct{}

func (describeOnly) Describe() string { return "true" }

func TestNew_InitialLoad(t *testing.T) {
	backend := &fakeStore{policies: []*policy.Policy{onePolicy("p1", []string{"read"})}}
	c, err := New(context.Background(), backend, time.Hour, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Policies) != 1 {
		t.Fatalf("got %d policies, want 1", len(snap.Policies))
	}
}

func TestNew_BackendErrorPropagates(t *testing.T) {
	backend := &fakeStore{}
	backend.failNext.Store(true)
	if _, err := New(context.Background(), backend, time.Hour, nil); err == nil {
		t.Fatal("expected an error when the initial load fails")
	}
}

func TestSnapshot_RefreshesAfterTTL(t *testing.T) {
	backend := &fakeStore{policies: []*policy.Policy{onePolicy("p1", nil)}}
	c, err := New(context.Background(), backend, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := c.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if atomic.LoadInt64(&backend.loadCalls) < 2 {
		t.Fatalf("expected a refresh load, got %d total loads", backend.loadCalls)
	}
}

func TestSnapshot_FailsOpenToLastGood(t *testing.T) {
	backend := &fakeStore{policies: []*policy.Policy{onePolicy("p1", nil)}}
	c, err := New(context.Background(), backend, time.Millisecond, log.New(discard{}, "", 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	backend.failNext.Store(true)

	snap, err := c.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("expected fail-open, got error: %v", err)
	}
	if len(snap.Policies) != 1 {
		t.Fatalf("expected the last good snapshot, got %d policies", len(snap.Policies))
	}
	if c.Stats().FailedOpenUses == 0 {
		t.Fatal("expected FailedOpenUses to be recorded")
	}
}

func TestInvalidate_ForcesNextRefresh(t *testing.T) {
	backend := &fakeStore{policies: []*policy.Policy{onePolicy("p1", nil)}}
	c, err := New(context.Background(), backend, time.Hour, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Invalidate()
	if _, err := c.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if atomic.LoadInt64(&backend.loadCalls) < 2 {
		t.Fatal("expected Invalidate to force a reload")
	}
}

func TestSnapshot_CancelledContextErrorsOnWarmPath(t *testing.T) {
	backend := &fakeStore{policies: []*policy.Policy{onePolicy("p1", nil)}}
	c, err := New(context.Background(), backend, time.Hour, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Snapshot(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Snapshot with a cancelled context = %v, want context.Canceled", err)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
