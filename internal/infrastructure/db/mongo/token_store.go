package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultCollection = "client_storage"

type storageDoc struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// TokenStore implements ports.TokenStore as one document keyed by the storage
// key.
type TokenStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	key    string
}

// NewTokenStore wraps an already connected client. The store owns the client
// and disconnects it on Close.
func NewTokenStore(client *mongo.Client, db *mongo.Database, collection, key string) *TokenStore {
	if collection == "" {
		collection = defaultCollection
	}
	return &TokenStore{client: client, coll: db.Collection(collection), key: key}
}

func (s *TokenStore) Load(ctx context.Context) (string, bool, error) {
	var doc storageDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": s.key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find token: %w", err)
	}
	return doc.Value, doc.Value != "", nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": s.key},
		storageDoc{Key: s.key, Value: token},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.key}); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Ping checks the primary and the storage database.
func (s *TokenStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}
	return s.coll.Database().RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (s *TokenStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
