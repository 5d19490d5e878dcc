package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-test"

// missingEnv points Load at a file that does not exist.
func missingEnv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "none.env")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STATE_SECRET", testSecret)

	cfg, err := Load(missingEnv(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, StoreSQLite, cfg.Store.Driver)
	assert.Equal(t, "data/wetube.db", cfg.Store.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.Session.Lifetime)
	assert.Equal(t, UploadLocal, cfg.Upload.Driver)
	assert.EqualValues(t, 5<<20, cfg.Upload.MaxAvatarBytes)
	assert.Equal(t, "http://localhost:8080/auth/github/callback", cfg.GitHub.CallbackURL)
	assert.Equal(t, "http://localhost:8080/auth/facebook/callback", cfg.Facebook.CallbackURL)
	assert.False(t, cfg.GitHub.Enabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STATE_SECRET", testSecret)
	t.Setenv("PORT", "9000")
	t.Setenv("BASE_URL", "https://wetube.example/")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("SESSION_LIFETIME", "2h")
	t.Setenv("GITHUB_CLIENT_ID", "gh-id")
	t.Setenv("GITHUB_CLIENT_SECRET", "gh-secret")
	t.Setenv("FACEBOOK_CALLBACK_URL", "https://fb.example/cb")
	t.Setenv("UPLOAD_DRIVER", "s3")
	t.Setenv("S3_BUCKET", "avatars")
	t.Setenv("S3_REGION", "eu-central-1")

	cfg, err := Load(missingEnv(t))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "https://wetube.example", cfg.BaseURL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, StoreMongo, cfg.Store.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Session.Lifetime)
	assert.True(t, cfg.GitHub.Enabled())
	assert.Equal(t, "https://wetube.example/auth/github/callback", cfg.GitHub.CallbackURL)
	assert.Equal(t, "https://fb.example/cb", cfg.Facebook.CallbackURL)
	assert.Equal(t, "avatars", cfg.Upload.S3Bucket)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	t.Setenv("STATE_SECRET", testSecret)
	t.Setenv("PORT", "7000")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=1234\nDB_PATH=/tmp/from-dotenv.db\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DB_PATH") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Store.DBPath)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"STATE_SECRET": ""}},
		{"short secret", map[string]string{"STATE_SECRET": "short"}},
		{"bad store", map[string]string{"STORE_DRIVER": "postgres"}},
		{"bad upload", map[string]string{"UPLOAD_DRIVER": "ftp"}},
		{"s3 without bucket", map[string]string{"UPLOAD_DRIVER": "s3"}},
		{"bad port", map[string]string{"PORT": "70000"}},
		{"bad duration", map[string]string{"SESSION_LIFETIME": "forever"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STATE_SECRET", testSecret)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(missingEnv(t))
			assert.Error(t, err)
		})
	}
}
