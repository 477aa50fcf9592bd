package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-login-servers/internal/storage"
	"github.com/sirosfoundation/go-login-servers/internal/storage/storagetest"
	"github.com/sirosfoundation/go-login-servers/pkg/config"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStoreWithClient(client, "test:")
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestStore_Conformance(t *testing.T) {
	storagetest.TestKeyValueStore(t, func(t *testing.T) storage.KeyValueStore {
		store, _ := newTestStore(t)
		return store
	})
}

func TestNewStore(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewStore(context.Background(), &config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, DefaultKeyPrefix, store.keyPrefix)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestNewStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewStore(context.Background(), &config.RedisConfig{Address: addr})
	assert.Error(t, err)
}

func TestStore_KeyLayout(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "selected", "https://new.com"))
	require.NoError(t, store.AppendPair(ctx, "servers", storage.Pair{Name: "New", Value: "https://new.com"}))

	value, err := mr.Get("test:kv:selected")
	require.NoError(t, err)
	assert.Equal(t, "https://new.com", value)

	items, err := mr.List("test:pairs:servers")
	require.NoError(t, err)
	assert.Equal(t, []string{`{"name":"New","value":"https://new.com"}`}, items)
}

func TestStore_CorruptPair(t *testing.T) {
	store, mr := newTestStore(t)

	_, err := mr.Push("test:pairs:servers", "not-json")
	require.NoError(t, err)

	_, err = store.GetPairs(context.Background(), "servers")
	assert.True(t, errors.Is(err, storage.ErrDatabase), "expected ErrDatabase, got %v", err)
}

func TestStore_ServerDown(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "selected")
	assert.True(t, errors.Is(err, storage.ErrDatabase), "expected ErrDatabase, got %v", err)
	assert.Error(t, store.Ping(context.Background()))
}
