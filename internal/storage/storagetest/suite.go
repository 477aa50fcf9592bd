// Package storagetest provides a conformance suite shared by every
// storage.KeyValueStore backend.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-login-servers/internal/storage"
)

// TestKeyValueStore runs the conformance suite. factory must return an empty
// store; it is called once per case.
func TestKeyValueStore(t *testing.T, factory func(t *testing.T) storage.KeyValueStore) {
	type testCase struct {
		Name string
		Run  func(t *testing.T, ctx context.Context, store storage.KeyValueStore)
	}

	testCases := []testCase{
		{
			Name: "GetMissingKey",
			Run: func(t *testing.T, ctx context.Context, store storage.KeyValueStore) {
				_, err := store.Get(ctx, "missing")
				assert.True(t, errors.Is(err, storage.ErrNotFound), "expected ErrNotFound, got %v", err)
			},
		},
		{
			Name: "PutGetOverwrite",
			Run: func(t *testing.T, ctx context.Context, store storage.KeyValueStore) {
				require.NoError(t, store.Put(ctx, "selected", "https://login.salesforce.com"))

				value, err := store.Get(ctx, "selected")
				require.NoError(t, err)
				assert.Equal(t, "https://login.salesforce.com", value)

				require.NoError(t, store.Put(ctx, "selected", "https://test.salesforce.com"))
				value, err = store.Get(ctx, "selected")
				require.NoError(t, err)
				assert.Equal(t, "https://test.salesforce.com", value)
			},
		},
		{
			Name: "DeleteIsIdempotent",
			Run: func(t *testing.T, ctx context.Context, store storage.KeyValueStore) {
				require.NoError(t, store.Put(ctx, "k", "v"))
				require.NoError(t, store.Delete(ctx, "k"))
				require.NoError(t, store.Delete(ctx, "k"))

				_, err := store.Get(ctx, "k")
				assert.True(t, errors.Is(err, storage.ErrNotFound))
			},
		},
		{
			Name: "GetPairsMissingNamespace",
			Run: func(t *testing.T, ctx context.Context, store storage.KeyValueStore) {
				pairs, err := store.GetPairs(ctx, "missing")
				require.NoError(t, err)
				assert.Empty(t, pairs)
			},
		},
		{
			Name: "AppendPairKeepsOrder",
			Run: func(t *testing.T, ctx context.Context, store storage.KeyValueStore) {
				want := []storage.Pair{
					{Name: "New", Value: "https://new.com"},
					{Name: "New2", Value: "https://new2.com"},
					{Name: "New", Value: "https://new.com"},
				}
				for _, p := range want {
					require.NoError(t, store.AppendPair(ctx, "servers", p))
				}

				pairs, err := store.GetPairs(ctx, "servers")
				require.NoError(t, err)
				assert.Equal(t, want, pairs)
			},
		},
		{
			Name: "NamespacesAreIsolated",
			Run: func(t *testing.T, ctx context.Context, store storage.KeyValueStore) {
				require.NoError(t, store.AppendPair(ctx, "a", storage.Pair{Name: "x", Value: "1"}))
				require.NoError(t, store.AppendPair(ctx, "b", storage.Pair{Name: "y", Value: "2"}))
				require.NoError(t, store.Put(ctx, "a", "plain"))

				pairs, err := store.GetPairs(ctx, "a")
				require.NoError(t, err)
				assert.Equal(t, []storage.Pair{{Name: "x", Value: "1"}}, pairs)

				value, err := store.Get(ctx, "a")
				require.NoError(t, err)
				assert.Equal(t, "plain", value)
			},
		},
		{
			Name: "DeletePairs",
			Run: func(t *testing.T, ctx context.Context, store storage.KeyValueStore) {
				require.NoError(t, store.AppendPair(ctx, "servers", storage.Pair{Name: "New", Value: "https://new.com"}))
				require.NoError(t, store.DeletePairs(ctx, "servers"))
				require.NoError(t, store.DeletePairs(ctx, "servers"))

				pairs, err := store.GetPairs(ctx, "servers")
				require.NoError(t, err)
				assert.Empty(t, pairs)
			},
		},
		{
			Name: "ReturnedPairsAreCopies",
			Run: func(t *testing.T, ctx context.Context, store storage.KeyValueStore) {
				require.NoError(t, store.AppendPair(ctx, "servers", storage.Pair{Name: "New", Value: "https://new.com"}))

				pairs, err := store.GetPairs(ctx, "servers")
				require.NoError(t, err)
				require.Len(t, pairs, 1)
				pairs[0].Name = "Changed"

				pairs, err = store.GetPairs(ctx, "servers")
				require.NoError(t, err)
				assert.Equal(t, "New", pairs[0].Name)
			},
		},
		{
			Name: "EmptyKeyRejected",
			Run: func(t *testing.T, ctx context.Context, store storage.KeyValueStore) {
				assert.True(t, errors.Is(store.Put(ctx, "", "v"), storage.ErrInvalidInput))
				assert.True(t, errors.Is(store.AppendPair(ctx, "", storage.Pair{}), storage.ErrInvalidInput))
			},
		},
		{
			Name: "Ping",
			Run: func(t *testing.T, ctx context.Context, store storage.KeyValueStore) {
				assert.NoError(t, store.Ping(ctx))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			store := factory(t)
			tc.Run(t, context.Background(), store)
		})
	}
}
