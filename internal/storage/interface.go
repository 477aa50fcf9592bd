package storage

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
)

// Pair is one entry of an ordered pair list
type Pair struct {
	Name  string `json:"name" yaml:"name" bson:"name"`
	Value string `json:"value" yaml:"value" bson:"value"`
}

// KeyValueStore defines a durable string key-value store scoped to one
// application install. Besides plain keys it keeps ordered lists of string
// pairs under a namespace key.
type KeyValueStore interface {
	// Get returns the value stored under key, or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Put stores value under key, replacing any previous value
	Put(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GetPairs returns the pairs stored under namespace in insertion order.
	// A missing namespace yields an empty slice.
	GetPairs(ctx context.Context, namespace string) ([]Pair, error)

	// AppendPair adds pair at the end of the list stored under namespace
	AppendPair(ctx context.Context, namespace string, pair Pair) error

	// DeletePairs removes the whole list stored under namespace
	DeletePairs(ctx context.Context, namespace string) error

	// Ping checks if the storage is alive
	Ping(ctx context.Context) error

	// Close closes the storage connection
	Close() error
}

// ValidateKey rejects empty keys and namespaces
func ValidateKey(key string) error {
	if key == "" {
		return ErrInvalidInput
	}
	return nil
}
