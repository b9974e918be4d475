package positionstore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/gaptime-companion/internal/domain/location"
)

// MemoryStore keeps the last fix in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	pos       location.Position
	ok        bool
	expiresAt time.Time
	now       func() time.Time
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context) (location.Position, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ok {
		return location.Position{}, false, nil
	}
	if !s.expiresAt.IsZero() && s.expiresAt.Before(s.now()) {
		return location.Position{}, false, nil
	}
	return s.pos, true, nil
}

// Save replaces the stored fix. A non-positive ttl never expires.
func (s *MemoryStore) Save(_ context.Context, pos location.Position, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos, s.ok = pos, true
	s.expiresAt = time.Time{}
	if ttl > 0 {
		s.expiresAt = s.now().Add(ttl)
	}
	return nil
}

var _ location.Store = (*MemoryStore)(nil)
