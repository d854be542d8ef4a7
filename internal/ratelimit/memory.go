package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 64

type entry struct {
	count   int
	resetAt time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// MemoryStore keeps windows in process memory. Keys are spread over
// shards so unrelated keys rarely contend for the same lock.
type MemoryStore struct {
	shards [shardCount]*shard
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	return s.shards[xxhash.Sum64String(key)%shardCount]
}

func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok || !now.Before(e.resetAt) {
		// Expired windows are replaced, never mutated.
		e = &entry{count: 1, resetAt: now.Add(window)}
		sh.entries[key] = e
		return Result{Allowed: true, Limit: limit, Remaining: limit - 1, ResetAt: e.resetAt}, nil
	}

	if e.count >= limit {
		return Result{Allowed: false, Limit: limit, Remaining: 0, ResetAt: e.resetAt}, nil
	}

	e.count++
	return Result{Allowed: true, Limit: limit, Remaining: max(0, limit-e.count), ResetAt: e.resetAt}, nil
}

// Sweep drops every entry whose window has elapsed and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, e := range sh.entries {
			if !now.Before(e.resetAt) {
				delete(sh.entries, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len returns the number of entries currently held, expired or not.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}
