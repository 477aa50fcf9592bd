// Package redis implements storage.KeyValueStore on Redis so several hosts
// can share one login server registry.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sirosfoundation/go-login-servers/internal/storage"
	"github.com/sirosfoundation/go-login-servers/pkg/config"
)

// DefaultKeyPrefix is used when the configuration leaves the prefix empty
const DefaultKeyPrefix = "loginservers:"

// Store implements Redis storage. Plain values are Redis strings; pair lists
// are Redis lists of JSON-encoded pairs.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewStore connects to Redis and verifies the connection
func NewStore(ctx context.Context, cfg *config.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewStoreWithClient creates a Store with a pre-configured client.
// This is useful for testing with miniredis.
func NewStoreWithClient(client redis.UniversalClient, keyPrefix string) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Store{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *Store) valueKey(key string) string {
	return s.keyPrefix + "kv:" + key
}

func (s *Store) pairsKey(namespace string) string {
	return s.keyPrefix + "pairs:" + namespace
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.valueKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrDatabase, err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.valueKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrDatabase, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.valueKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrDatabase, err)
	}
	return nil
}

func (s *Store) GetPairs(ctx context.Context, namespace string) ([]storage.Pair, error) {
	items, err := s.client.LRange(ctx, s.pairsKey(namespace), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrDatabase, err)
	}

	pairs := make([]storage.Pair, 0, len(items))
	for _, item := range items {
		var pair storage.Pair
		if err := json.Unmarshal([]byte(item), &pair); err != nil {
			return nil, fmt.Errorf("%w: corrupt pair in %s: %v", storage.ErrDatabase, namespace, err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func (s *Store) AppendPair(ctx context.Context, namespace string, pair storage.Pair) error {
	if err := storage.ValidateKey(namespace); err != nil {
		return err
	}

	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("failed to encode pair: %w", err)
	}
	if err := s.client.RPush(ctx, s.pairsKey(namespace), data).Err(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrDatabase, err)
	}
	return nil
}

func (s *Store) DeletePairs(ctx context.Context, namespace string) error {
	if err := s.client.Del(ctx, s.pairsKey(namespace)).Err(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrDatabase, err)
	}
	return nil
}

// Ping checks Redis connectivity (health check).
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (s *Store) Close() error {
	return s.client.Close()
}
