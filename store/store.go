// Package store provides the PolicyStore interface and its concrete
// backends: a flat JSON file, a flat YAML file, and a PostgreSQL table via
// GORM. Cache wraps one of these to add TTL refresh and indexing; store
// itself only knows how to load a full policy set.
package store

import (
	"context"

	"abacengine/policy"
)

// PolicyStore is the PRP's retrieval boundary: it knows how to produce the
// current full set of policies, and to fetch one by name for diagnostics.
// It does not cache, filter, or index; that is PolicyCache's job.
type PolicyStore interface {
	LoadAll(ctx context.Context) ([]*policy.Policy, error)
	LoadByName(ctx context.Context, name string) (*policy.Policy, error)
}

// findByName is a shared helper for backends that only know how to load
// everything and must linear-scan for LoadByName.
func findByName(policies []*policy.Policy, name string) (*policy.Policy, error) {
	for _, p := range policies {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, &NotFoundError{Name: name}
}

// NotFoundError is returned by LoadByName when no policy carries the given
// name in the backing store.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "store: no policy named " + e.Name
}
