// Package file implements storage.KeyValueStore on a single YAML document in
// the user's config directory, guarded by a lock file so several processes of
// the same install can share it.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/sirosfoundation/go-login-servers/internal/storage"
	"github.com/sirosfoundation/go-login-servers/pkg/config"
)

const (
	// lockTimeout is the maximum time to wait for the file lock
	lockTimeout = 1 * time.Second
	// lockRetryDelay is the interval between lock attempts
	lockRetryDelay = 50 * time.Millisecond
)

// DefaultPath returns the per-user store location
func DefaultPath() (string, error) {
	return xdg.ConfigFile("login-servers/store.yaml")
}

// document is the on-disk layout
type document struct {
	Values map[string]string         `yaml:"values,omitempty"`
	Pairs  map[string][]storage.Pair `yaml:"pairs,omitempty"`
}

// Store implements a YAML file storage
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore creates a file store. An empty path in cfg selects DefaultPath.
// The file itself is created lazily on first write.
func NewStore(cfg *config.FileConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("unable to resolve store path: %w", err)
		}
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &Store{
		path: path,
		// Use a separate lock file so the document can be replaced by rename
		lock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the location of the YAML document
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.view(ctx, func(doc *document) error {
		v, exists := doc.Values[key]
		if !exists {
			return storage.ErrNotFound
		}
		value = v
		return nil
	})
	return value, err
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	return s.update(ctx, func(doc *document) {
		doc.Values[key] = value
	})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.update(ctx, func(doc *document) {
		delete(doc.Values, key)
	})
}

func (s *Store) GetPairs(ctx context.Context, namespace string) ([]storage.Pair, error) {
	pairs := []storage.Pair{}
	err := s.view(ctx, func(doc *document) error {
		pairs = append(pairs, doc.Pairs[namespace]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pairs, nil
}

func (s *Store) AppendPair(ctx context.Context, namespace string, pair storage.Pair) error {
	if err := storage.ValidateKey(namespace); err != nil {
		return err
	}
	return s.update(ctx, func(doc *document) {
		doc.Pairs[namespace] = append(doc.Pairs[namespace], pair)
	})
}

func (s *Store) DeletePairs(ctx context.Context, namespace string) error {
	return s.update(ctx, func(doc *document) {
		delete(doc.Pairs, namespace)
	})
}

// Ping verifies the store directory is reachable
func (s *Store) Ping(ctx context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("store directory unavailable: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.lock.Close()
}

func (s *Store) view(ctx context.Context, fn func(*document) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer func() { _ = s.lock.Unlock() }()

	doc, err := s.read()
	if err != nil {
		return err
	}
	return fn(doc)
}

// update performs a locked read-modify-write of the document
func (s *Store) update(ctx context.Context, fn func(*document)) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer func() { _ = s.lock.Unlock() }()

	doc, err := s.read()
	if err != nil {
		return err
	}
	fn(doc)
	return s.write(doc)
}

func (s *Store) acquire(ctx context.Context) error {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock: timeout after %v", lockTimeout)
	}
	return nil
}

func (s *Store) read() (*document, error) {
	doc := &document{}

	// #nosec G304: path comes from configuration
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("%w: unable to read %s: %v", storage.ErrDatabase, s.path, err)
	default:
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", storage.ErrDatabase, s.path, err)
		}
	}

	if doc.Values == nil {
		doc.Values = make(map[string]string)
	}
	if doc.Pairs == nil {
		doc.Pairs = make(map[string][]storage.Pair)
	}
	return doc, nil
}

// write replaces the document atomically through a temp file in the same directory
func (s *Store) write(doc *document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", storage.ErrDatabase, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: failed to write store: %v", storage.ErrDatabase, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: failed to close store: %v", storage.ErrDatabase, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: failed to replace store: %v", storage.ErrDatabase, err)
	}
	return nil
}
