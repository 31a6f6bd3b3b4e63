package cache

import (
	"context"
	"sync"
	"time"

	"github.com/comptaflow/backend/internal/domain/shared"
)

// seenEntry records when a processed event id stops being remembered
type seenEntry struct {
	expiresAt time.Time
}

// InMemoryIdempotencyStore implements shared.IdempotencyStore with a local
// map. Suitable for single-instance deployments and tests; distributed
// deployments use the Redis store so all consumers share dedupe state.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	seen      map[string]seenEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store and
// starts a background goroutine sweeping expired ids.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		seen:     make(map[string]seenEntry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.sweepLoop()

	return store
}

// MarkProcessed marks an event id as processed with a TTL.
// Returns true if the id was newly marked, false if it was already processed.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.seen[eventID]; exists && time.Now().Before(e.expiresAt) {
		return false, nil
	}

	s.seen[eventID] = seenEntry{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// IsProcessed checks if an event id has already been processed
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.seen[eventID]
	if !exists || time.Now().After(e.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Close stops the sweep goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for eventID, e := range s.seen {
		if now.After(e.expiresAt) {
			delete(s.seen, eventID)
		}
	}
}

// Size returns the number of remembered ids (for tests and monitoring)
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Ensure InMemoryIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
