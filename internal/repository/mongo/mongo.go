// Package mongo implements the repository interfaces on MongoDB.
//
// Selected with STORE_DRIVER=mongo. Documents use the model's bson tags;
// IDs are xid strings, the same as the sqlite backend, so both stores hand
// out identical-looking identifiers.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/wetube/internal/repository"
)

var _ repository.Store = (*Store)(nil)

const (
	usersCollection  = "users"
	videosCollection = "videos"

	connectTimeout    = 10 * time.Second
	disconnectTimeout = 5 * time.Second
)

// Store holds the client and the two collections this component uses.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	videos *mongo.Collection
}

// New connects to uri, verifies the connection and ensures indexes exist.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(
		options.Client().
			ApplyURI(uri).
			SetConnectTimeout(connectTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: pinging: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		users:  db.Collection(usersCollection),
		videos: db.Collection(videosCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: creating indexes: %w", err)
	}

	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ensureIndexes mirrors the sqlite schema: unique email, videos by creator.
// CreateOne is a no-op when an identical index already exists.
func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users.email: %w", err)
	}

	_, err = s.videos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "creator_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("videos.creator_id: %w", err)
	}

	return nil
}
