package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/wetube/internal/apperror"
	"github.com/sakif/wetube/internal/model"
	"github.com/sakif/wetube/internal/repository"
)

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, name, email string) *model.User {
	t.Helper()
	user := &model.User{
		Name:      name,
		Email:     email,
		AvatarURL: "https://example.com/avatar.png",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Name: "Nico", Email: "Nico@Example.com "}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("CreateUser() did not set timestamps")
	}
	if user.Email != "nico@example.com" {
		t.Errorf("Email = %q, want normalized %q", user.Email, "nico@example.com")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "first", "same@example.com")

	err := db.CreateUser(context.Background(), &model.User{Name: "second", Email: "SAME@example.com"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() error = %v, want ErrConflict", err)
	}
}

func TestCreateUser_ManyUsersWithoutProviderIDs(t *testing.T) {
	db := newTestDB(t)

	// github_id / facebook_id are stored as NULL when empty, so they never collide.
	createTestUser(t, db, "a", "a@example.com")
	createTestUser(t, db, "b", "b@example.com")
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "getbyid", "getbyid@example.com")

	found, err := db.GetUserByID(context.Background(), created.ID, repository.GetOptions{})
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.Name != "getbyid" {
		t.Errorf("Name = %q, want %q", found.Name, "getbyid")
	}
	if found.Videos != nil {
		t.Errorf("Videos = %v, want nil without PopulateVideos", found.Videos)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "nonexistent-id", repository.GetOptions{})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByID_PopulateVideos(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner", "owner@example.com")
	other := createTestUser(t, db, "other", "other@example.com")

	createTestVideo(t, db, owner.ID, "first")
	createTestVideo(t, db, owner.ID, "second")
	createTestVideo(t, db, other.ID, "not mine")

	found, err := db.GetUserByID(context.Background(), owner.ID, repository.GetOptions{PopulateVideos: true})
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if len(found.Videos) != 2 {
		t.Fatalf("len(Videos) = %d, want 2", len(found.Videos))
	}
	for _, v := range found.Videos {
		if v.CreatorID != owner.ID {
			t.Errorf("video %s has creator %s, want %s", v.ID, v.CreatorID, owner.ID)
		}
	}
}

func TestGetUserByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "byemail", "byemail@example.com")

	found, err := db.GetUserByEmail(context.Background(), "ByEmail@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByEmail() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdateUser(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "before", "before@example.com")
	createdAt := user.CreatedAt

	user.Name = "after"
	user.Email = "after@example.com"
	user.GitHubID = "42"
	user.AvatarURL = "https://avatars.githubusercontent.com/u/42"
	if err := db.UpdateUser(context.Background(), user); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	found, err := db.GetUserByID(context.Background(), user.ID, repository.GetOptions{})
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.Name != "after" || found.Email != "after@example.com" {
		t.Errorf("profile = (%q, %q), want (after, after@example.com)", found.Name, found.Email)
	}
	if found.GitHubID != "42" {
		t.Errorf("GitHubID = %q, want %q", found.GitHubID, "42")
	}
	if found.FacebookID != "" {
		t.Errorf("FacebookID = %q, want empty", found.FacebookID)
	}
	if !found.CreatedAt.Equal(createdAt) {
		t.Errorf("UpdateUser() changed CreatedAt: got %v, want %v", found.CreatedAt, createdAt)
	}
}

func TestUpdateUser_EmailTakenByAnotherUser(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "taken", "taken@example.com")
	user := createTestUser(t, db, "mover", "mover@example.com")

	user.Email = "taken@example.com"
	err := db.UpdateUser(context.Background(), user)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("UpdateUser() error = %v, want ErrConflict", err)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateUser(context.Background(), &model.User{ID: "missing", Email: "x@example.com"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("UpdateUser() error = %v, want ErrNotFound", err)
	}
}

func TestSetPasswordHash(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "pw", "pw@example.com")

	if err := db.SetPasswordHash(context.Background(), user.ID, "$2a$04$hash"); err != nil {
		t.Fatalf("SetPasswordHash() error = %v", err)
	}

	found, _ := db.GetUserByID(context.Background(), user.ID, repository.GetOptions{})
	if found.PasswordHash != "$2a$04$hash" {
		t.Errorf("PasswordHash = %q, want %q", found.PasswordHash, "$2a$04$hash")
	}

	if err := db.SetPasswordHash(context.Background(), "missing", "x"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("SetPasswordHash(missing) error = %v, want ErrNotFound", err)
	}
}
