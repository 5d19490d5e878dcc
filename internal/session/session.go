// Package session keeps per-browser state on the server: who is logged in,
// the flash notices queued for the next page, and the nonce of a pending
// OAuth handshake. The browser only holds an opaque HttpOnly cookie.
package session

import (
	"context"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

const (
	keyUserID  = "userID"
	keyNotices = "notices"
	keyState   = "oauthState:"
)

// Level is the severity of a flash notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is a one-shot message shown on the next rendered page.
type Notice struct {
	Level   Level
	Message string
}

func init() {
	// scs encodes session values with gob.
	gob.Register(Notice{})
	gob.Register([]Notice{})
}

// Config controls the session cookie.
type Config struct {
	CookieName string
	Lifetime   time.Duration
	Secure     bool
}

// Manager wraps an scs.SessionManager with the typed operations the
// application needs.
type Manager struct {
	scs *scs.SessionManager
}

// New creates a Manager backed by scs's in-memory store.
func New(cfg Config) *Manager {
	sm := scs.New()
	if cfg.Lifetime > 0 {
		sm.Lifetime = cfg.Lifetime
	}
	if cfg.CookieName != "" {
		sm.Cookie.Name = cfg.CookieName
	}
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.Secure
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Persist = true

	return &Manager{scs: sm}
}

// LoadAndSave must wrap every route that touches the session.
func (m *Manager) LoadAndSave(next http.Handler) http.Handler {
	return m.scs.LoadAndSave(next)
}

// Login binds userID to the session. The token is renewed first so a
// session id planted before login is worthless afterwards.
func (m *Manager) Login(ctx context.Context, userID string) error {
	if err := m.scs.RenewToken(ctx); err != nil {
		return err
	}
	m.scs.Put(ctx, keyUserID, userID)
	return nil
}

// Logout forgets the user but keeps queued notices, so "Logged Out" still
// reaches the next page.
func (m *Manager) Logout(ctx context.Context) error {
	m.scs.Remove(ctx, keyUserID)
	return m.scs.RenewToken(ctx)
}

// UserID returns the logged-in user's id, or "" for an anonymous session.
func (m *Manager) UserID(ctx context.Context) string {
	return m.scs.GetString(ctx, keyUserID)
}

// Flash queues a notice for the next rendered page.
func (m *Manager) Flash(ctx context.Context, level Level, message string) {
	notices, _ := m.scs.Get(ctx, keyNotices).([]Notice)
	notices = append(notices, Notice{Level: level, Message: message})
	m.scs.Put(ctx, keyNotices, notices)
}

// PopNotices returns and clears the queued notices.
func (m *Manager) PopNotices(ctx context.Context) []Notice {
	notices, _ := m.scs.Pop(ctx, keyNotices).([]Notice)
	return notices
}

// PutOAuthState remembers the nonce of a handshake started with provider.
func (m *Manager) PutOAuthState(ctx context.Context, provider, nonce string) {
	m.scs.Put(ctx, keyState+provider, nonce)
}

// PopOAuthState returns the pending nonce for provider and clears it, so a
// state value is accepted at most once.
func (m *Manager) PopOAuthState(ctx context.Context, provider string) string {
	return m.scs.PopString(ctx, keyState+provider)
}
