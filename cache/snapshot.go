package cache

import (
	"time"

	"abacengine/constants"
	"abacengine/policy"
)

// Snapshot is an immutable, fully-indexed view of a policy set at a point
// in time. Once built it is never mutated; PolicyCache swaps the pointer
// to a new Snapshot under refresh instead of mutating one in place, so
// readers never need to lock.
type Snapshot struct {
	Policies          []*policy.Policy
	byAction          map[string][]*policy.Policy
	byActorCategory   map[string][]*policy.Policy
	bySubjectCategory map[string][]*policy.Policy
	byEffect          map[constants.Effect][]*policy.Policy
	loadedAt          time.Time
}

func buildSnapshot(policies []*policy.Policy) *Snapshot {
	snap := &Snapshot{
		Policies:          policies,
		byAction:          make(map[string][]*policy.Policy),
		byActorCategory:   make(map[string][]*policy.Policy),
		bySubjectCategory: make(map[string][]*policy.Policy),
		byEffect:          make(map[constants.Effect][]*policy.Policy),
		loadedAt:          time.Now(),
	}

	const wildcard = ""
	for _, p := range policies {
		snap.byEffect[p.Effect] = append(snap.byEffect[p.Effect], p)

		if len(p.Actions) == 0 {
			snap.byAction[wildcard] = append(snap.byAction[wildcard], p)
		} else {
			for action := range p.Actions {
				snap.byAction[action] = append(snap.byAction[action], p)
			}
		}

		if len(p.Actors) == 0 {
			snap.byActorCategory[wildcard] = append(snap.byActorCategory[wildcard], p)
		} else {
			for category := range p.Actors {
				snap.byActorCategory[category] = append(snap.byActorCategory[category], p)
			}
		}

		if len(p.Subjects) == 0 {
			snap.bySubjectCategory[wildcard] = append(snap.bySubjectCategory[wildcard], p)
		} else {
			for category := range p.Subjects {
				snap.bySubjectCategory[category] = append(snap.bySubjectCategory[category], p)
			}
		}
	}

	return snap
}

// ByAction returns policies declaring action, plus every policy that
// declares no actions at all (wildcard match-any).
func (s *Snapshot) ByAction(action string) []*policy.Policy {
	return concatCopy(s.byAction[action], s.byAction[""])
}

// ByActorCategory returns policies declaring category as an actor
// category, plus every wildcard (no actors declared) policy.
func (s *Snapshot) ByActorCategory(category string) []*policy.Policy {
	return concatCopy(s.byActorCategory[category], s.byActorCategory[""])
}

// BySubjectCategory returns policies declaring category as a subject
// category, plus every wildcard (no subjects declared) policy.
func (s *Snapshot) BySubjectCategory(category string) []*policy.Policy {
	return concatCopy(s.bySubjectCategory[category], s.bySubjectCategory[""])
}

// concatCopy returns a fresh slice holding a's then b's elements. It never
// appends directly onto a or b: those are the index's stored backing
// arrays, and concurrent readers call this against the same key, so
// writing into shared spare capacity would race.
func concatCopy(a, b []*policy.Policy) []*policy.Policy {
	out := make([]*policy.Policy, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// ByEffect returns every policy with the given effect.
func (s *Snapshot) ByEffect(effect constants.Effect) []*policy.Policy {
	return s.byEffect[effect]
}

// Age reports how long ago this snapshot was loaded.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.loadedAt)
}
