// Package retrieval implements the PRP: given a request shape (action,
// actor, subjects), it narrows the cached policy set down to the
// candidates that could possibly apply, before the evaluator walks their
// rules. Grounded on the teacher's evaluator/pdp.go
// filterApplicablePolicies + sort.Slice-by-priority step, adapted to the
// cache's secondary indexes and a category-based actor/subject match
// instead of an action-string/resource-pattern match.
package retrieval

import (
	"context"
	"sort"

	"abacengine/cache"
	"abacengine/categorizer"
	"abacengine/policy"
)

// Retriever narrows a PolicyCache snapshot to the policies that declare
// (or wildcard-match) a given action, actor category, and subject
// category set.
type Retriever struct {
	cache       *cache.PolicyCache
	categorizer categorizer.Categorizer
}

// New builds a Retriever over the given cache and categorizer.
func New(c *cache.PolicyCache, cat categorizer.Categorizer) *Retriever {
	return &Retriever{cache: c, categorizer: cat}
}

// Candidates returns every policy that could apply to a request for
// action by actor against subjects, in a stable name-sorted order so the
// evaluator's deny-overrides short-circuit is deterministic across runs.
func (r *Retriever) Candidates(ctx context.Context, action string, actor any, subjects []any) ([]*policy.Policy, error) {
	snap, err := r.cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	actorCategory := r.categorizer.ActorCategory(actor)
	subjectCategories := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		subjectCategories[r.categorizer.SubjectCategory(s)] = struct{}{}
	}

	byAction := snap.ByAction(action)
	seen := make(map[string]struct{}, len(byAction))
	candidates := make([]*policy.Policy, 0, len(byAction))

	for _, p := range byAction {
		if _, dup := seen[p.Name]; dup {
			continue
		}
		if !p.HasActor(actorCategory) {
			continue
		}
		if !p.MatchesAny(subjectCategories) {
			continue
		}
		seen[p.Name] = struct{}{}
		candidates = append(candidates, p)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Name < candidates[j].Name
	})
	return candidates, nil
}
