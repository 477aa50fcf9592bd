package backend

import (
	"context"
	"fmt"

	"github.com/sirosfoundation/go-login-servers/internal/storage"
	"github.com/sirosfoundation/go-login-servers/internal/storage/file"
	"github.com/sirosfoundation/go-login-servers/internal/storage/memory"
	"github.com/sirosfoundation/go-login-servers/internal/storage/mongodb"
	"github.com/sirosfoundation/go-login-servers/internal/storage/redis"
	"github.com/sirosfoundation/go-login-servers/pkg/config"
)

// Type defines the type of storage backend
type Type string

const (
	// TypeMemory uses in-memory storage (for testing/development)
	TypeMemory Type = config.StorageMemory
	// TypeFile uses a YAML file in the user's config directory
	TypeFile Type = config.StorageFile
	// TypeRedis uses Redis (shared across hosts)
	TypeRedis Type = config.StorageRedis
	// TypeMongoDB uses MongoDB (shared across hosts)
	TypeMongoDB Type = config.StorageMongoDB
)

// New creates a storage backend based on the configuration
func New(ctx context.Context, cfg *config.Config) (storage.KeyValueStore, error) {
	storageType := Type(cfg.Storage.Type)

	switch storageType {
	case TypeMemory, "":
		// Default to memory if not specified
		return memory.NewStore(), nil

	case TypeFile:
		store, err := file.NewStore(&cfg.Storage.File)
		if err != nil {
			return nil, fmt.Errorf("failed to create file backend: %w", err)
		}
		return store, nil

	case TypeRedis:
		store, err := redis.NewStore(ctx, &cfg.Storage.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis backend: %w", err)
		}
		return store, nil

	case TypeMongoDB:
		store, err := mongodb.NewStore(ctx, &cfg.Storage.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to create MongoDB backend: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
