package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoOpTimeout = 5 * time.Second

// MongoStore persists values in a single collection of {_id, value}
// documents, one per key.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection

	mu sync.Mutex // guards Push's read-append-write cycle
}

type mongoDocument struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("store: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("store: mongo ping: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection("lunalink_state"),
	}, nil
}

func (s *MongoStore) Get(key string, v any) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	var doc mongoDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: mongo get %q: %w", key, err)
	}
	if v == nil {
		return true, nil
	}
	if err := json.Unmarshal([]byte(doc.Value), v); err != nil {
		return true, fmt.Errorf("store: decoding %q: %w", key, err)
	}
	return true, nil
}

func (s *MongoStore) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encoding %q: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	_, err = s.collection.ReplaceOne(ctx,
		bson.M{"_id": key},
		mongoDocument{Key: key, Value: string(raw)},
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (s *MongoStore) Push(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []json.RawMessage
	if _, err := s.Get(key, &list); err != nil {
		return err
	}
	item, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encoding %q: %w", key, err)
	}
	list = append(list, item)
	return s.Set(key, list)
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
