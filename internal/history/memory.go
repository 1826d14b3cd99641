package history

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore is an in-process RecentStore and PopularStore.
type MemoryStore struct {
	mu      sync.RWMutex
	limit   int
	recent  map[string][]string
	popular map[string]int
}

// NewMemoryStore creates an in-memory store capping recent lists at limit.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &MemoryStore{
		limit:   limit,
		recent:  make(map[string][]string),
		popular: make(map[string]int),
	}
}

// Recent returns the recent searches of user.
func (s *MemoryStore) Recent(_ context.Context, user string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.recent[user]), nil
}

// Push records query for user.
func (s *MemoryStore) Push(_ context.Context, user, query string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := Push(s.recent[user], query, s.limit)
	s.recent[user] = list
	return slices.Clone(list), nil
}

// Clear removes the recent searches of user.
func (s *MemoryStore) Clear(_ context.Context, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recent, user)
	return nil
}

// Record counts one submission of query.
func (s *MemoryStore) Record(_ context.Context, query string) error {
	key := NormalizeQuery(query)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.popular[key]++
	return nil
}

// Top returns the n most submitted queries; ties are ordered alphabetically.
func (s *MemoryStore) Top(_ context.Context, n int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		query string
		count int
	}
	entries := make([]entry, 0, len(s.popular))
	for q, c := range s.popular {
		entries = append(entries, entry{q, c})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if a.count != b.count {
			return cmp.Compare(b.count, a.count)
		}
		return cmp.Compare(a.query, b.query)
	})

	out := make([]string, 0, n)
	for _, e := range entries {
		if len(out) == n {
			break
		}
		out = append(out, e.query)
	}
	return out, nil
}
