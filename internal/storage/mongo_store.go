package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/annel0/neonite-mod/internal/config"
)

// MongoStore хранит свойства как документы {_id: key, value, updated_at}
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

type propertyDoc struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore подключается к MongoDB
func NewMongoStore(ctx context.Context, cfg config.MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "neonite"
	}
	if cfg.Collection == "" {
		cfg.Collection = "properties"
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	// ping
	if err := client.Ping(cctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}, nil
}

func (m *MongoStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	var doc propertyDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("mongo get %s: %w", key, err)
	}
	return doc.Value, true, nil
}

func (m *MongoStore) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	doc := propertyDoc{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo set %s: %w", key, err)
	}
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("mongo delete %s: %w", key, err)
	}
	return nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
