package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/sakif/wetube/internal/apperror"
	"github.com/sakif/wetube/internal/model"
	"github.com/sakif/wetube/internal/repository"
)

var _ repository.UserRepository = (*Store)(nil)

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.Email = normalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user", "email")
		}
		return fmt.Errorf("mongo: inserting user (email=%s): %w", user.Email, err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string, opts repository.GetOptions) (*model.User, error) {
	u, err := s.findUser(ctx, bson.D{{Key: "_id", Value: id}}, id)
	if err != nil {
		return nil, err
	}

	if opts.PopulateVideos {
		videos, err := s.ListVideosByCreator(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		u.Videos = videos
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = normalizeEmail(email)
	return s.findUser(ctx, bson.D{{Key: "email", Value: email}}, email)
}

func (s *Store) findUser(ctx context.Context, filter bson.D, key string) (*model.User, error) {
	var u model.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("mongo: finding user %s: %w", key, err)
	}
	return &u, nil
}

// UpdateUser sets the profile fields. Empty provider ids are unset rather
// than stored as "" to match the sqlite backend's NULLs.
func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	user.Email = normalizeEmail(user.Email)
	user.UpdatedAt = time.Now().UTC()

	set := bson.D{
		{Key: "name", Value: user.Name},
		{Key: "email", Value: user.Email},
		{Key: "avatar_url", Value: user.AvatarURL},
		{Key: "updated_at", Value: user.UpdatedAt},
	}
	unset := bson.D{}
	for _, f := range []struct{ key, value string }{
		{"github_id", user.GitHubID},
		{"facebook_id", user.FacebookID},
	} {
		if f.value == "" {
			unset = append(unset, bson.E{Key: f.key, Value: ""})
		} else {
			set = append(set, bson.E{Key: f.key, Value: f.value})
		}
	}

	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}

	res, err := s.users.UpdateOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user", "email")
		}
		return fmt.Errorf("mongo: updating user %s: %w", user.ID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

func (s *Store) SetPasswordHash(ctx context.Context, id, hash string) error {
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "password_hash", Value: hash},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("mongo: setting password for user %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
