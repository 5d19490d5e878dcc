package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	stateIssuer   = "wetube"
	stateLifetime = 10 * time.Minute
)

var (
	// ErrInvalidState is returned when an OAuth callback carries a state
	// that was not issued by us, was issued for another provider, or expired.
	ErrInvalidState = errors.New("auth: invalid OAuth state")
)

// StateService issues and checks the OAuth "state" parameter.
//
// The state is an HS256 JWT whose audience is the provider name and whose
// ID is a random nonce. The nonce is also kept in the user's session, so a
// state is only accepted from the browser that started the handshake, and
// only once.
type StateService struct {
	secret []byte
	now    func() time.Time
}

// NewStateService creates a StateService with the given secret.
// The secret should be at least 32 bytes of random data in production.
func NewStateService(secret string) (*StateService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: state secret must be at least 16 characters")
	}
	return &StateService{secret: []byte(secret), now: time.Now}, nil
}

type stateClaims struct {
	jwt.RegisteredClaims
}

// Issue returns a signed state for provider and the nonce embedded in it.
func (s *StateService) Issue(provider string) (state, nonce string, err error) {
	now := s.now()
	nonce = xid.New().String()

	c := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        nonce,
			Issuer:    stateIssuer,
			Audience:  jwt.ClaimStrings{provider},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateLifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("auth: signing state: %w", err)
	}
	return signed, nonce, nil
}

// Verify checks signature, issuer, audience and expiry, and returns the nonce.
func (s *StateService) Verify(state, provider string) (string, error) {
	token, err := jwt.ParseWithClaims(
		state,
		&stateClaims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithAudience(provider),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidState, err)
	}

	c, ok := token.Claims.(*stateClaims)
	if !ok || !token.Valid || c.ID == "" {
		return "", ErrInvalidState
	}
	return c.ID, nil
}
