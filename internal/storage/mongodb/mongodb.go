package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirosfoundation/go-login-servers/internal/storage"
	"github.com/sirosfoundation/go-login-servers/pkg/config"
)

// valueDocument holds one plain key
type valueDocument struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// pairListDocument holds one ordered pair list
type pairListDocument struct {
	Namespace string         `bson:"_id"`
	Pairs     []storage.Pair `bson:"pairs"`
}

// Store implements MongoDB storage
type Store struct {
	client   *mongo.Client
	database *mongo.Database
	cfg      *config.MongoDBConfig

	values    *mongo.Collection
	pairLists *mongo.Collection
}

// NewStore creates a new MongoDB store
func NewStore(ctx context.Context, cfg *config.MongoDBConfig) (*Store, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(time.Duration(cfg.Timeout) * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)

	return &Store{
		client:    client,
		database:  database,
		cfg:       cfg,
		values:    database.Collection("values"),
		pairLists: database.Collection("pair_lists"),
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var doc valueDocument
	err := s.values.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("%w: failed to get value: %v", storage.ErrDatabase, err)
	}
	return doc.Value, nil
}

func (s *Store) Put(ctx context.Context, key, value string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	_, err := s.values.ReplaceOne(ctx,
		bson.M{"_id": key},
		valueDocument{Key: key, Value: value},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to put value: %v", storage.ErrDatabase, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.values.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("%w: failed to delete value: %v", storage.ErrDatabase, err)
	}
	return nil
}

func (s *Store) GetPairs(ctx context.Context, namespace string) ([]storage.Pair, error) {
	var doc pairListDocument
	err := s.pairLists.FindOne(ctx, bson.M{"_id": namespace}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []storage.Pair{}, nil
		}
		return nil, fmt.Errorf("%w: failed to get pairs: %v", storage.ErrDatabase, err)
	}
	if doc.Pairs == nil {
		return []storage.Pair{}, nil
	}
	return doc.Pairs, nil
}

func (s *Store) AppendPair(ctx context.Context, namespace string, pair storage.Pair) error {
	if err := storage.ValidateKey(namespace); err != nil {
		return err
	}

	_, err := s.pairLists.UpdateOne(ctx,
		bson.M{"_id": namespace},
		bson.M{"$push": bson.M{"pairs": pair}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to append pair: %v", storage.ErrDatabase, err)
	}
	return nil
}

func (s *Store) DeletePairs(ctx context.Context, namespace string) error {
	if _, err := s.pairLists.DeleteOne(ctx, bson.M{"_id": namespace}); err != nil {
		return fmt.Errorf("%w: failed to delete pairs: %v", storage.ErrDatabase, err)
	}
	return nil
}

// Ping checks if the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
