// Package cache implements the PRP-facing PolicyCache: a TTL-refreshed,
// indexed, fail-open view over a store.PolicyStore. It is grounded on the
// teacher's pep/cache.go DecisionCache (sync.RWMutex-guarded map, a stats
// struct, background cleanup) but caches the policy *set*, not per-request
// decisions, and adds single-flight refresh collapsing and atomic snapshot
// swap so readers never block behind a slow backend.
package cache

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"abacengine/store"
)

// Stats mirrors the teacher's CacheStats shape, adapted to a refresh-based
// cache: it counts refresh attempts, failed refreshes, and the times a
// failed refresh fell back to the last good snapshot. Fresh-snapshot reads
// are not counted.
type Stats struct {
	Refreshes      int64
	RefreshErrors  int64
	FailedOpenUses int64
}

// PolicyCache wraps a PolicyStore with TTL-based refresh. On a refresh
// failure it serves the last good Snapshot rather than erroring out,
// logging the failure; it only returns an error when no Snapshot has ever
// loaded successfully.
type PolicyCache struct {
	backend store.PolicyStore
	ttl     time.Duration
	logger  *log.Logger

	current atomic.Pointer[Snapshot]
	group   singleflight.Group
	stats   atomic.Pointer[Stats]
}

// New builds a PolicyCache and performs a synchronous initial load: a
// cache with no data is never handed to the retrieval layer.
func New(ctx context.Context, backend store.PolicyStore, ttl time.Duration, logger *log.Logger) (*PolicyCache, error) {
	if logger == nil {
		logger = log.Default()
	}
	c := &PolicyCache{backend: backend, ttl: ttl, logger: logger}
	c.stats.Store(&Stats{})

	policies, err := backend.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	c.current.Store(buildSnapshot(policies))
	return c, nil
}

// Snapshot returns the current indexed policy set, refreshing it first if
// the cached one is older than ttl. Concurrent callers triggering a
// refresh at the same moment collapse onto a single backend call via
// singleflight. A refresh failure falls back to the last good snapshot;
// Snapshot only errors if the cache has never loaded successfully.
//
// ctx is checked first, even on the warm (no-refresh) path: cancellation
// is a boundary check here, not a best-effort one, so a cancelled caller
// never gets a snapshot back, warm or not.
func (c *PolicyCache) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cur := c.current.Load()
	if cur != nil && cur.Age() < c.ttl {
		return cur, nil
	}

	v, err, _ := c.group.Do("refresh", func() (any, error) {
		policies, err := c.backend.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		snap := buildSnapshot(policies)
		c.current.Store(snap)
		return snap, nil
	})

	c.bumpRefreshes()
	if err != nil {
		c.bumpRefreshErrors()
		if cur == nil {
			return nil, err
		}
		c.bumpFailedOpen()
		c.logger.Printf("policy cache: refresh failed, serving snapshot age=%s: %v", cur.Age(), err)
		return cur, nil
	}
	return v.(*Snapshot), nil
}

// Invalidate forces the next Snapshot call to refresh regardless of age,
// by discarding the recorded load time. It does not clear the data itself,
// so a concurrent reader never observes an empty cache.
func (c *PolicyCache) Invalidate() {
	if cur := c.current.Load(); cur != nil {
		stale := buildSnapshot(cur.Policies)
		stale.loadedAt = time.Time{}
		c.current.Store(stale)
	}
}

// Stats returns a snapshot of cache refresh counters.
func (c *PolicyCache) Stats() Stats {
	return *c.stats.Load()
}

func (c *PolicyCache) bumpRefreshes() {
	for {
		old := c.stats.Load()
		next := *old
		next.Refreshes++
		if c.stats.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (c *PolicyCache) bumpRefreshErrors() {
	for {
		old := c.stats.Load()
		next := *old
		next.RefreshErrors++
		if c.stats.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (c *PolicyCache) bumpFailedOpen() {
	for {
		old := c.stats.Load()
		next := *old
		next.FailedOpenUses++
		if c.stats.CompareAndSwap(old, &next) {
			return
		}
	}
}
