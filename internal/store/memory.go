package store

import (
	"context"
	"sync"
)

// MemoryNonceStore is an in-process NonceRepository. Suitable for single
// instance deployments; multi-instance deployments should use the redis
// or postgres implementation so grants stay at-most-once across replicas.
type MemoryNonceStore struct {
	mu       sync.Mutex
	consumed map[nonceKey]struct{}
}

type nonceKey struct {
	sender string
	nonce  string
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{consumed: make(map[nonceKey]struct{})}
}

func (s *MemoryNonceStore) Consume(_ context.Context, sender, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := nonceKey{sender: sender, nonce: nonce}
	if _, ok := s.consumed[key]; ok {
		return false, nil
	}
	s.consumed[key] = struct{}{}
	return true, nil
}
