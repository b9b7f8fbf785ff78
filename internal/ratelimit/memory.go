package ratelimit

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps attempts in process. Windows are lost on restart and are
// not shared between instances.
type MemoryStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{attempts: make(map[string][]time.Time)}
}

var _ Store = (*MemoryStore)(nil)

// Take implements Store.Take under a single lock. Identifiers left with no
// attempts are removed so idle clients do not accumulate.
func (s *MemoryStore) Take(
	_ context.Context,
	identifier string,
	limit int,
	window time.Duration,
	now time.Time,
) (Window, error) {
	if window <= 0 {
		return Window{}, errors.New("window must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	threshold := now.Add(-window)
	kept := s.attempts[identifier]
	// attempts are kept sorted, so everything before the first in-window entry goes
	i := sort.Search(len(kept), func(i int) bool { return kept[i].After(threshold) })
	kept = kept[i:]

	result := Window{Count: len(kept)}
	if len(kept) < limit {
		kept = insertSorted(kept, now)
		result.Recorded = true
	}

	if len(kept) == 0 {
		delete(s.attempts, identifier)
		return result, nil
	}
	s.attempts[identifier] = kept

	result.Oldest = kept[0]
	result.HasOldest = true
	return result, nil
}

func insertSorted(list []time.Time, at time.Time) []time.Time {
	i := sort.Search(len(list), func(i int) bool { return list[i].After(at) })
	list = append(list, time.Time{})
	copy(list[i+1:], list[i:])
	list[i] = at
	return list
}
