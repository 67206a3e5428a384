package domain

import "time"

// PKCE code challenge methods.
const (
	CodeChallengeS256  = "S256"
	CodeChallengePlain = "plain"
)

// AuthorizationCode represents an OAuth 2.0 authorization code issuance.
type AuthorizationCode struct {
	ID                  string
	UserID              string
	ClientID            string
	CodeHash            string
	RedirectURI         string
	Scopes              []string
	SessionID           string
	CodeChallenge       string
	CodeChallengeMethod string
	ExpiresAt           time.Time
	UsedAt              *time.Time
	CreatedAt           time.Time
}

// Used reports whether the code has already been redeemed.
func (c AuthorizationCode) Used() bool {
	return c.UsedAt != nil
}
