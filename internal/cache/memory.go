package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

// sweepInterval is the minimum gap between expiry sweeps run from Set.
const sweepInterval = time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store for tests and single-instance
// deployments. Expired entries are dropped by a sweep piggybacked on Set.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	nextSweep time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, ErrMiss
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)
	now := s.now()
	s.mu.Lock()
	if !now.Before(s.nextSweep) {
		s.sweepLocked(now)
		s.nextSweep = now.Add(sweepInterval)
	}
	s.entries[key] = memoryEntry{value: v, expiresAt: now.Add(ttl)}
	s.mu.Unlock()
	return nil
}

// sweepLocked removes every entry expired at now. Caller holds mu.
func (s *MemoryStore) sweepLocked(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeletePattern(_ context.Context, pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.entries {
		if ok, _ := path.Match(pattern, k); ok {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}
