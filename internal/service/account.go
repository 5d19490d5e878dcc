// Package service holds the account business rules. It sits between the HTTP
// handlers and the repositories:
//
//	UserHandler (HTTP) → AccountService (rules) → UserRepository / VideoRepository
//	                                            ↘ PasswordService (bcrypt)
//
// Nothing here reads requests or writes responses, so every rule can be
// tested with in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/wetube/internal/apperror"
	"github.com/sakif/wetube/internal/auth"
	"github.com/sakif/wetube/internal/model"
	"github.com/sakif/wetube/internal/repository"
)

// AccountService registers, authenticates and edits users.
type AccountService struct {
	users     repository.UserRepository
	videos    repository.VideoRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAccountService(
	users repository.UserRepository,
	videos repository.VideoRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		videos:    videos,
		passwords: passwords,
		logger:    logger,
	}
}

// Register hashes password and stores user with it. On success user.ID is set.
// A taken email returns apperror.ErrConflict.
func (s *AccountService) Register(ctx context.Context, user *model.User, password string) error {
	user.Name = strings.TrimSpace(user.Name)
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return apperror.ValidationFailed("email", "must not be empty")
	}
	if password == "" {
		return apperror.ValidationFailed("password", "must not be empty")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("service/account: registering %s: %w", user.Email, err)
	}
	user.PasswordHash = hash

	if err := s.users.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("service/account: registering %s: %w", user.Email, err)
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return nil
}

// Authenticate returns the user owning email if password matches.
// An unknown email and a wrong password both return apperror.ErrUnauthorized,
// so callers cannot tell which one was wrong.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("service/account: authenticating %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the user's password after checking the old one.
func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return apperror.ValidationFailed("newPassword", "must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, userID, repository.GetOptions{})
	if err != nil {
		return fmt.Errorf("service/account: changing password of %s: %w", userID, err)
	}
	if err := s.passwords.Verify(user.PasswordHash, oldPassword); err != nil {
		return err
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("service/account: changing password of %s: %w", userID, err)
	}
	if err := s.users.SetPasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("service/account: changing password of %s: %w", userID, err)
	}

	s.logger.Info("password changed", slog.String("user_id", userID))
	return nil
}

// GetUserWithVideos loads a user and the videos they uploaded.
func (s *AccountService) GetUserWithVideos(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.NotFound("user", id)
	}

	user, err := s.users.GetUserByID(ctx, id, repository.GetOptions{PopulateVideos: true})
	if err != nil {
		return nil, fmt.Errorf("service/account: fetching user %s: %w", id, err)
	}
	return user, nil
}

// ProfileInput is an edit of the profile form.
type ProfileInput struct {
	Name  string
	Email string
	// AvatarURL is the location of a newly uploaded picture. Empty keeps the
	// current avatar.
	AvatarURL string
}

// UpdateProfile applies in to the user with the given id and returns the
// stored result.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, userID, repository.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("service/account: editing profile of %s: %w", userID, err)
	}

	user.Name = strings.TrimSpace(in.Name)
	user.Email = email
	if in.AvatarURL != "" {
		user.AvatarURL = in.AvatarURL
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/account: editing profile of %s: %w", userID, err)
	}
	return user, nil
}

// LinkGitHub finds the account owning the GitHub profile's email and links
// it, or creates one. Returning an error fails the login.
func (s *AccountService) LinkGitHub(ctx context.Context, profile *auth.Profile) (*model.User, error) {
	return s.findOrCreate(ctx, profile, profile.AvatarURL, func(u *model.User) {
		u.GitHubID = profile.ID
	})
}

// LinkFacebook is LinkGitHub for Facebook. The avatar is always the
// canonical picture URL derived from the Facebook id.
func (s *AccountService) LinkFacebook(ctx context.Context, profile *auth.Profile) (*model.User, error) {
	return s.findOrCreate(ctx, profile, auth.FacebookPictureURL(profile.ID), func(u *model.User) {
		u.FacebookID = profile.ID
	})
}

// findOrCreate looks the profile up by email. A match gets the provider id
// and avatar written over its own; otherwise a new user is created from the
// profile.
func (s *AccountService) findOrCreate(ctx context.Context, profile *auth.Profile, avatarURL string, setProviderID func(*model.User)) (*model.User, error) {
	if profile == nil || profile.ID == "" {
		return nil, apperror.ValidationFailed("profile", "provider returned no id")
	}
	if profile.Email == "" {
		return nil, apperror.ValidationFailed("email", profile.Provider+" account has no email")
	}

	user, err := s.users.GetUserByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		setProviderID(user)
		user.AvatarURL = avatarURL
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("service/account: linking %s account %s: %w", profile.Provider, profile.ID, err)
		}
		s.logger.Info("provider account linked",
			slog.String("provider", profile.Provider),
			slog.String("user_id", user.ID),
		)
		return user, nil

	case errors.Is(err, apperror.ErrNotFound):
		user = &model.User{
			Name:      profile.Name,
			Email:     profile.Email,
			AvatarURL: avatarURL,
		}
		setProviderID(user)
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("service/account: creating %s user %s: %w", profile.Provider, profile.ID, err)
		}
		s.logger.Info("user created from provider",
			slog.String("provider", profile.Provider),
			slog.String("user_id", user.ID),
		)
		return user, nil

	default:
		return nil, fmt.Errorf("service/account: looking up %s: %w", profile.Email, err)
	}
}

// ListRecentVideos returns the newest videos for the home page.
func (s *AccountService) ListRecentVideos(ctx context.Context, limit int) ([]model.Video, error) {
	videos, err := s.videos.ListRecentVideos(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service/account: listing recent videos: %w", err)
	}
	return videos, nil
}
