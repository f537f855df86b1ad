// Package uow implements the batch-scoped entity cache. Each cache is the
// single source of truth for "has this entity been touched in this batch":
// reads go cache first then store, writes stay in memory, and everything is
// persisted exactly once at batch flush.
package uow

import (
	"context"
	"errors"
	"sort"

	"github.com/chainscope/evm-token-indexer/internal/store"
)

var (
	// ErrNotInitialized is returned when a cache is used before being bound
	// to a durable-store handle
	ErrNotInitialized = errors.New("cache not bound to a store")

	// ErrFlushed is returned when a mutating operation is attempted after
	// the cache has been flushed
	ErrFlushed = errors.New("cache already flushed")
)

// Cache is the per-entity-kind unit of work. Not safe for concurrent use:
// batch processing is single-threaded by design.
type Cache[T any] struct {
	repo        store.Repo[T]
	idOf        func(*T) string
	items       map[string]*T
	prefetchIDs map[string]struct{}
	flushed     bool
}

// NewCache binds a cache to a durable-store repo. idOf extracts the entity's
// deterministic id, which keys the cache.
func NewCache[T any](repo store.Repo[T], idOf func(*T) string) *Cache[T] {
	return &Cache[T]{
		repo:        repo,
		idOf:        idOf,
		items:       make(map[string]*T),
		prefetchIDs: make(map[string]struct{}),
	}
}

// Get returns the in-batch cached instance if present, otherwise queries the
// durable store, returning nil if absent in both. A store miss does not
// insert a placeholder. After flush the cache is empty, so every Get falls
// through to the store without repopulating.
func (c *Cache[T]) Get(ctx context.Context, id string, preloads ...string) (*T, error) {
	if c == nil || c.repo == nil {
		return nil, ErrNotInitialized
	}

	if entity, ok := c.items[id]; ok {
		return entity, nil
	}

	entity, err := c.repo.Get(ctx, id, preloads...)
	if err != nil {
		return nil, err
	}
	if entity != nil && !c.flushed {
		c.items[id] = entity
	}

	return entity, nil
}

// Add inserts or overwrites the cache entry for the entity. Side effect only
// on the in-memory cache, no I/O.
func (c *Cache[T]) Add(entity *T) error {
	if c == nil || c.repo == nil {
		return ErrNotInitialized
	}
	if c.flushed {
		return ErrFlushed
	}

	c.items[c.idOf(entity)] = entity
	return nil
}

// AddPrefetchIDs accumulates ids to be bulk-loaded by the next PrefetchAll
func (c *Cache[T]) AddPrefetchIDs(ids ...string) error {
	if c == nil || c.repo == nil {
		return ErrNotInitialized
	}
	if c.flushed {
		return ErrFlushed
	}

	for _, id := range ids {
		c.prefetchIDs[id] = struct{}{}
	}
	return nil
}

// PrefetchAll bulk-loads every accumulated id from the durable store and
// populates the cache with the results. The accumulated list is cleared
// afterward, so calling again with nothing accumulated is a no-op.
func (c *Cache[T]) PrefetchAll(ctx context.Context, preloads ...string) error {
	if c == nil || c.repo == nil {
		return ErrNotInitialized
	}
	if c.flushed {
		return ErrFlushed
	}
	if len(c.prefetchIDs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(c.prefetchIDs))
	for id := range c.prefetchIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entities, err := c.repo.Find(ctx, ids, preloads...)
	if err != nil {
		return err
	}

	for _, entity := range entities {
		c.items[c.idOf(entity)] = entity
	}
	c.prefetchIDs = make(map[string]struct{})

	return nil
}

// FlushAll persists every cached entity via one bulk save, then clears the
// cache. Must be the last operation of a batch: any mutation afterward is a
// programming error and fails fast.
func (c *Cache[T]) FlushAll(ctx context.Context) error {
	if c == nil || c.repo == nil {
		return ErrNotInitialized
	}
	if c.flushed {
		return ErrFlushed
	}

	if len(c.items) > 0 {
		ids := make([]string, 0, len(c.items))
		for id := range c.items {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		entities := make([]*T, 0, len(ids))
		for _, id := range ids {
			entities = append(entities, c.items[id])
		}

		if err := c.repo.Save(ctx, entities); err != nil {
			return err
		}
	}

	c.items = make(map[string]*T)
	c.flushed = true

	return nil
}

// Len returns the number of entities currently cached
func (c *Cache[T]) Len() int {
	return len(c.items)
}
