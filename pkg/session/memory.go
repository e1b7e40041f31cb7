package session

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps sessions in a bounded in-process LRU.
// Sessions are lost on restart and not shared between replicas.
type MemoryStore struct {
	cache *lru.LRU[string, Session]
	now   func() time.Time
}

// NewMemoryStore creates a store holding at most maxEntries sessions, each
// evicted after ttl at the latest
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries < 1 {
		maxEntries = 10000
	}

	return &MemoryStore{
		cache: lru.NewLRU[string, Session](maxEntries, nil, ttl),
		now:   time.Now,
	}
}

func (s *MemoryStore) Backend() string {
	return "memory"
}

// Get retrieves a copy of a session
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Expired(s.now()) {
		s.cache.Remove(id)
		return nil, ErrNotFound
	}

	sess.Groups = append([]string(nil), sess.Groups...)
	return &sess, nil
}

// Save stores a copy of the session. A ttl shorter than the store-wide TTL is
// honored through the session's ExpiresAt.
func (s *MemoryStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	stored := *sess
	stored.Groups = append([]string(nil), sess.Groups...)
	if ttl > 0 {
		expiresAt := s.now().Add(ttl)
		if stored.ExpiresAt.IsZero() || expiresAt.Before(stored.ExpiresAt) {
			stored.ExpiresAt = expiresAt
		}
	}

	s.cache.Add(sess.ID, stored)
	return nil
}

// Delete removes a session
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.cache.Remove(id)
	return nil
}

// Len returns the number of cached sessions, including expired ones not yet evicted
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
