// Package repository declares the persistence interfaces the services depend on.
//
// Implementations live in sub-packages (sqlite, mongo). Services receive the
// interfaces, never a concrete store, so tests can pass in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/wetube/internal/model"
)

// GetOptions controls what is loaded alongside a user.
type GetOptions struct {
	// PopulateVideos eagerly loads the user's videos into User.Videos.
	PopulateVideos bool
}

type UserRepository interface {
	// CreateUser assigns ID and timestamps and inserts the user.
	// A duplicate email returns an apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string, opts GetOptions) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateUser writes every profile field of user (not the password hash).
	UpdateUser(ctx context.Context, user *model.User) error
	SetPasswordHash(ctx context.Context, id, hash string) error
}

type VideoRepository interface {
	CreateVideo(ctx context.Context, video *model.Video) error
	ListVideosByCreator(ctx context.Context, creatorID string) ([]model.Video, error)
	ListRecentVideos(ctx context.Context, limit int) ([]model.Video, error)
}

// Store is what a storage backend provides to the server.
type Store interface {
	UserRepository
	VideoRepository
	Close() error
}
