package memory

import (
	"context"
	"sync"

	"github.com/sirosfoundation/go-login-servers/internal/storage"
)

// Store implements an in-memory key-value storage
type Store struct {
	mu     sync.RWMutex
	values map[string]string
	pairs  map[string][]storage.Pair
}

// NewStore creates a new in-memory store
func NewStore() *Store {
	return &Store{
		values: make(map[string]string),
		pairs:  make(map[string][]storage.Pair),
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.values[key]
	if !exists {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *Store) GetPairs(ctx context.Context, namespace string) ([]storage.Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pairs := make([]storage.Pair, len(s.pairs[namespace]))
	copy(pairs, s.pairs[namespace])
	return pairs, nil
}

func (s *Store) AppendPair(ctx context.Context, namespace string, pair storage.Pair) error {
	if err := storage.ValidateKey(namespace); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pairs[namespace] = append(s.pairs[namespace], pair)
	return nil
}

func (s *Store) DeletePairs(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pairs, namespace)
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }
