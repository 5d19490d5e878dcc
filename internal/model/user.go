// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// Email is the natural key: provider logins (GitHub, Facebook) are linked to
// an existing account by matching it. GitHubID and FacebookID are empty until
// the user first signs in through that provider.
//
// PasswordHash is a bcrypt hash owned by the account service. It is empty for
// accounts created through a provider and is never rendered.
type User struct {
	ID           string    `json:"id"         bson:"_id"`
	Name         string    `json:"name"       bson:"name"`
	Email        string    `json:"email"      bson:"email"`
	PasswordHash string    `json:"-"          bson:"password_hash,omitempty"`
	AvatarURL    string    `json:"avatarUrl"  bson:"avatar_url"`
	GitHubID     string    `json:"githubId"   bson:"github_id,omitempty"`
	FacebookID   string    `json:"facebookId" bson:"facebook_id,omitempty"`
	Videos       []Video   `json:"videos"     bson:"-"` // populated on demand
	CreatedAt    time.Time `json:"createdAt"  bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"  bson:"updated_at"`
}
