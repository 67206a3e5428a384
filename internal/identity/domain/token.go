package domain

import "time"

// TokenSet is what the token endpoint hands back: the JWT access token,
// optionally an identity token and an opaque refresh token.
type TokenSet struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	TokenType    string // "Bearer"
	ExpiresIn    time.Duration
	Scopes       []string
}

// RefreshToken models the stored refresh token record. Only the
// fingerprint of the opaque token is persisted.
type RefreshToken struct {
	ID        string
	UserID    string
	ClientID  string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	SessionID string // stable across rotations of the same login
	Scopes    []string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the record is past its expiry.
func (t RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
