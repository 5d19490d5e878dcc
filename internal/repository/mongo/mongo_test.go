package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/wetube/internal/apperror"
	"github.com/sakif/wetube/internal/model"
	"github.com/sakif/wetube/internal/repository"
)

// newTestStore connects to WETUBE_TEST_MONGO_URI and returns a store on a
// throwaway database. The test is skipped when the variable is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("WETUBE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("WETUBE_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	store, err := New(ctx, uri, "wetube_test_"+xid.New().String())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.users.Database().Drop(context.Background())
		store.Close()
	})
	return store
}

func TestStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &model.User{Name: "Nico", Email: " Nico@Example.com"}
	require.NoError(t, store.CreateUser(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "nico@example.com", user.Email)

	t.Run("duplicate email", func(t *testing.T) {
		err := store.CreateUser(ctx, &model.User{Name: "other", Email: "NICO@example.com"})
		assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
	})

	t.Run("lookups", func(t *testing.T) {
		byID, err := store.GetUserByID(ctx, user.ID, repository.GetOptions{})
		require.NoError(t, err)
		assert.Equal(t, "Nico", byID.Name)

		byEmail, err := store.GetUserByEmail(ctx, "nico@EXAMPLE.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		_, err = store.GetUserByID(ctx, "missing", repository.GetOptions{})
		assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
	})

	t.Run("update and password", func(t *testing.T) {
		user.Name = "Nicolas"
		user.GitHubID = "42"
		require.NoError(t, store.UpdateUser(ctx, user))
		require.NoError(t, store.SetPasswordHash(ctx, user.ID, "hash"))

		got, err := store.GetUserByID(ctx, user.ID, repository.GetOptions{})
		require.NoError(t, err)
		assert.Equal(t, "Nicolas", got.Name)
		assert.Equal(t, "42", got.GitHubID)
		assert.Equal(t, "hash", got.PasswordHash)

		err = store.SetPasswordHash(ctx, "missing", "hash")
		assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
	})
}

func TestStore_Videos(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &model.User{Name: "creator", Email: "creator@example.com"}
	require.NoError(t, store.CreateUser(ctx, user))

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, title := range []string{"first", "second", "third"} {
		require.NoError(t, store.CreateVideo(ctx, &model.Video{
			Title:     title,
			CreatorID: user.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := store.GetUserByID(ctx, user.ID, repository.GetOptions{PopulateVideos: true})
	require.NoError(t, err)
	require.Len(t, got.Videos, 3)
	assert.Equal(t, "third", got.Videos[0].Title)

	recent, err := store.ListRecentVideos(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Title)
	assert.Equal(t, "second", recent[1].Title)
}
