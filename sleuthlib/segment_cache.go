package sleuthlib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// SegmentCache is a best-effort cache of resolved results grouped by
// address segments. It never fails a resolution: all errors are logged
// and treated as misses.
//
// Documents are kept in the SegmentStore. There is an optional
// in-memory LRU in front of it which holds decoded results. Its entries
// expire after a TTL so writes of other instances sharing the same store
// become visible.
type SegmentCache struct {
	store  SegmentStore
	memory *expirable.LRU[string, ResolveResult]
	logger Logger
}

// Load returns a cached result for the segment of the address. The
// result has its address field rewritten to a given address: cache is
// shared by the whole segment but must never return an address of
// another host.
func (s *SegmentCache) Load(ctx context.Context, addr string) (ResolveResult, bool) {
	segment, ok := SegmentOf(addr)
	if !ok {
		return ResolveResult{}, false
	}

	key := EscapeSegment(segment)

	if s.memory != nil {
		if value, ok := s.memory.Get(key); ok {
			return value.WithAddress(addr), true
		}
	}

	doc, err := s.store.Get(ctx, key)

	switch {
	case errors.Is(err, ErrSegmentNotFound):
		return ResolveResult{}, false
	case err != nil:
		s.logger.CacheError(addr, fmt.Errorf("%w: cannot read from %s: %w", ErrCacheUnavailable, s.store.Name(), err))

		return ResolveResult{}, false
	}

	result, err := decodeResolveResult(doc)
	if err != nil {
		s.logger.CacheError(addr, fmt.Errorf("%w: %w", ErrCacheUnavailable, err))

		return ResolveResult{}, false
	}

	if s.memory != nil {
		s.memory.Add(key, result)
	}

	return result.WithAddress(addr), true
}

// Save stores the result for the segment of the address overwriting
// previous one. Nothing is merged.
func (s *SegmentCache) Save(ctx context.Context, addr string, result ResolveResult) {
	segment, ok := SegmentOf(addr)
	if !ok {
		return
	}

	key := EscapeSegment(segment)

	if s.memory != nil {
		s.memory.Add(key, result)
	}

	doc, err := json.Marshal(result)
	if err != nil {
		s.logger.CacheError(addr, fmt.Errorf("%w: cannot encode a result: %w", ErrCacheUnavailable, err))

		return
	}

	if err := s.store.Put(ctx, key, doc); err != nil {
		s.logger.CacheError(addr, fmt.Errorf("%w: cannot write to %s: %w", ErrCacheUnavailable, s.store.Name(), err))
	}
}

// NewSegmentCache creates a new cache on top of the store. memorySize
// is a number of segments to keep in memory, 0 disables memory layer.
// memoryTTL is a lifetime of memory entries.
func NewSegmentCache(store SegmentStore, memorySize int, memoryTTL time.Duration, logger Logger) (*SegmentCache, error) {
	rv := &SegmentCache{
		store:  store,
		logger: logger,
	}

	switch {
	case memorySize <= 0:
	case memoryTTL <= 0:
		return nil, fmt.Errorf("incorrect memory cache ttl %v", memoryTTL)
	default:
		rv.memory = expirable.NewLRU[string, ResolveResult](memorySize, nil, memoryTTL)
	}

	return rv, nil
}
