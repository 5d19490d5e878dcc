// Package config loads the server configuration from the environment.
//
// Variables may also come from .env files, which are read first and never
// override variables already set in the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"

	UploadLocal = "local"
	UploadS3    = "s3"
)

type Config struct {
	Port     int        `env:"PORT"      envDefault:"8080"`
	BaseURL  string     `env:"BASE_URL"  envDefault:"http://localhost:8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	Store    StoreConfig
	Session  SessionConfig
	GitHub   OAuthConfig `envPrefix:"GITHUB_"`
	Facebook OAuthConfig `envPrefix:"FACEBOOK_"`
	Upload   UploadConfig
}

type StoreConfig struct {
	Driver        string `env:"STORE_DRIVER"   envDefault:"sqlite"`
	DBPath        string `env:"DB_PATH"        envDefault:"data/wetube.db"`
	MongoURI      string `env:"MONGO_URI"      envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"wetube"`
}

type SessionConfig struct {
	CookieName   string        `env:"SESSION_COOKIE"   envDefault:"wetube_session"`
	Lifetime     time.Duration `env:"SESSION_LIFETIME" envDefault:"24h"`
	CookieSecure bool          `env:"COOKIE_SECURE"    envDefault:"false"`
	// StateSecret signs the OAuth state parameter.
	StateSecret string `env:"STATE_SECRET,required"`
}

// OAuthConfig holds one provider's app credentials. A provider with no
// client id is disabled.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`
}

// Enabled reports whether the provider has credentials.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

type UploadConfig struct {
	Driver         string `env:"UPLOAD_DRIVER"    envDefault:"local"`
	Dir            string `env:"UPLOAD_DIR"       envDefault:"uploads"`
	MaxAvatarBytes int64  `env:"MAX_AVATAR_BYTES" envDefault:"5242880"`

	S3Bucket         string `env:"S3_BUCKET"`
	S3Region         string `env:"S3_REGION"`
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"S3_SECRET_KEY"`
	S3BaseURL        string `env:"S3_BASE_URL"`
	S3ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE"`
}

// Load reads the given .env files (".env" when none are given), then parses
// and validates the environment. Missing .env files are not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: reading %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}

	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = cfg.BaseURL + "/auth/github/callback"
	}
	if cfg.Facebook.CallbackURL == "" {
		cfg.Facebook.CallbackURL = cfg.BaseURL + "/auth/facebook/callback"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the struct tags cannot express.
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	switch c.Store.Driver {
	case StoreSQLite, StoreMongo:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}
	switch c.Upload.Driver {
	case UploadLocal:
	case UploadS3:
		if c.Upload.S3Bucket == "" || c.Upload.S3Region == "" {
			errs = append(errs, errors.New("S3_BUCKET and S3_REGION are required when UPLOAD_DRIVER=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown UPLOAD_DRIVER %q", c.Upload.Driver))
	}
	if len(c.Session.StateSecret) < 16 {
		errs = append(errs, errors.New("STATE_SECRET must be at least 16 characters"))
	}
	if c.Upload.MaxAvatarBytes <= 0 {
		errs = append(errs, errors.New("MAX_AVATAR_BYTES must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
