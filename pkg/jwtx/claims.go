package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Short access tokens, week-long refresh tokens.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// ScopeList is a scope claim that tolerates both wire encodings: a JSON
// array of discrete entries (what we emit) and a single space-delimited
// string (what some issuers emit). It always marshals as a JSON array.
type ScopeList []string

func (s *ScopeList) UnmarshalJSON(data []byte) error {
	// Try the array form first.
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*s = arr
		return nil
	}

	// Fall back to the legacy space-delimited string form.
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	if joined == "" {
		*s = nil
		return nil
	}
	*s = ScopeList{joined}
	return nil
}

// Claims are the access-token claims shared between the identity service and
// the resource APIs.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID, stable across refreshes of the same login.
	SID string `json:"sid,omitempty"`

	// Granted permission scopes, one entry per scope. The decoder also
	// accepts the legacy space-delimited string encoding; run the result
	// through scopex.Normalize before matching.
	Scope ScopeList `json:"scope,omitempty"`

	// Role names the subject holds ("Admin", "Manager", "User").
	Roles []string `json:"role,omitempty"`

	// Email address of the subject, if known.
	Email string `json:"email,omitempty"`

	// Name is the display/user name of the subject, if known.
	Name string `json:"name,omitempty"`
}

// NewAccessClaims builds minimally-correct access token claims.
func NewAccessClaims(
	subject, sid string,
	scopes, roles []string,
	email, name string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID:   sid,
		Scope: ScopeList(scopes),
		Roles: roles,
		Email: email,
		Name:  name,
	}
}

// NewIdentityClaims builds the claims for an OIDC-style identity token. Only
// identity-destined facts belong here; scopes, roles and API audiences stay
// in the access token.
func NewIdentityClaims(
	subject, email, name string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email: email,
		Name:  name,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks that at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it becomes valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
