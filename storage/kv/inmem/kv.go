// Package inmem provides an in-memory key/value store, mainly for tests and
// local development.
package inmem

import (
	"sync"

	"github.com/trezcool/arifa/core"
)

type store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ core.KV = (*store)(nil)

func NewStore() *store {
	return &store{data: make(map[string][]byte)}
}

func (s *store) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (s *store) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[key] = cp
	return nil
}
