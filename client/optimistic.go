// ABOUTME: Optimistic update coordinator
// ABOUTME: Applies local patches before server confirmation, with exact rollback
package client

import (
	"sync"

	"github.com/charmbracelet/log"
)

// patchState tracks one in-flight optimistic mutation.
type patchState struct {
	cacheKey string
	snapshot interface{}
	hadValue bool
}

// Optimist coordinates optimistic updates against the cache. Per entity
// identity at most one patch may be in flight: Begin for an entity with a
// pending patch fails with ErrMutationPending so rollback targets never
// stack.
//
// Lifecycle per mutation: Begin (snapshot saved, patch applied) then either
// Commit (server response replaces the patch) or Fail (snapshot restored
// exactly; optionally flags the entry stale so a refetch reconciles).
type Optimist struct {
	cache  *Cache
	logger *log.Logger

	mu       sync.Mutex
	inFlight map[string]*patchState
}

func NewOptimist(cache *Cache, logger *log.Logger) *Optimist {
	return &Optimist{
		cache:    cache,
		logger:   logger,
		inFlight: make(map[string]*patchState),
	}
}

// Begin snapshots the cache entry at cacheKey and replaces it with
// apply(current). apply must return a new value rather than mutating
// current, so the snapshot stays byte-for-byte intact for rollback.
func (o *Optimist) Begin(entityID, cacheKey string, apply func(current interface{}) interface{}) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, pending := o.inFlight[entityID]; pending {
		return ErrMutationPending
	}

	snapshot, hadValue := o.cache.Peek(cacheKey)
	o.inFlight[entityID] = &patchState{
		cacheKey: cacheKey,
		snapshot: snapshot,
		hadValue: hadValue,
	}
	o.cache.Set(cacheKey, apply(snapshot))
	return nil
}

// Commit settles the patch with the authoritative server response. The
// server value wins over the local guess, whatever the difference.
func (o *Optimist) Commit(entityID string, serverValue interface{}) {
	o.mu.Lock()
	p, ok := o.inFlight[entityID]
	delete(o.inFlight, entityID)
	o.mu.Unlock()

	if !ok {
		o.logger.Warn("commit without pending patch", "entity", entityID)
		return
	}
	o.cache.Set(p.cacheKey, serverValue)
}

// Fail rolls the entry back to the exact pre-patch snapshot. When the
// failure means the entity no longer exists (gone), the entry is flagged
// stale instead of retried, so the next read refetches the collection.
func (o *Optimist) Fail(entityID string, gone bool) {
	o.mu.Lock()
	p, ok := o.inFlight[entityID]
	delete(o.inFlight, entityID)
	o.mu.Unlock()

	if !ok {
		o.logger.Warn("fail without pending patch", "entity", entityID)
		return
	}
	if p.hadValue {
		o.cache.Set(p.cacheKey, p.snapshot)
	}
	if gone {
		o.cache.InvalidateKey(p.cacheKey)
	}
}

// Pending reports whether a patch is in flight for the entity.
func (o *Optimist) Pending(entityID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.inFlight[entityID]
	return ok
}
