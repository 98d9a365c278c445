package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig holds connection settings for MongoStore.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore implements Store on a MongoDB collection, one document per key.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// entryDocument is the stored form of one key.
type entryDocument struct {
	Key       string     `bson:"_id"`
	Value     []byte     `bson:"value"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB and ensures the expiry index exists.
func NewMongoStore(cfg MongoConfig) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(20).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)

	// The server drops documents once expires_at has passed.
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		slog.Warn("failed to create mongo expiry index", "error", err)
	}

	slog.Info("mongo store connected", "database", cfg.Database, "collection", cfg.Collection)
	return &MongoStore{client: client, collection: coll}, nil
}

// Get retrieves a value by key.
func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	var doc entryDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	// The TTL monitor runs about once a minute; hide stale documents meanwhile.
	if doc.ExpiresAt != nil && !time.Now().Before(*doc.ExpiresAt) {
		return nil, ErrNotFound
	}
	return doc.Value, nil
}

// Set upserts a value.
func (s *MongoStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	doc := entryDocument{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	if exp := expiryFor(ttl); !exp.IsZero() {
		exp = exp.UTC()
		doc.ExpiresAt = &exp
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes a value by key.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Exists checks if a key holds a live value.
func (s *MongoStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// DeleteExpired removes documents past their expiry without waiting for the
// TTL monitor.
func (s *MongoStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired documents: %w", err)
	}
	return result.DeletedCount, nil
}

// Stats returns the document count.
func (s *MongoStore) Stats(ctx context.Context) (map[string]interface{}, error) {
	count, err := s.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"backend":    "mongodb",
		"keys":       count,
		"collection": s.collection.Name(),
	}, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var (
	_ Store  = (*MongoStore)(nil)
	_ Purger = (*MongoStore)(nil)
)
