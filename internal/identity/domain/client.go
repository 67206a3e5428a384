package domain

import "time"

type Client struct {
	ID           string
	ClientID     string // public identifier used on the wire
	Name         string
	SecretHash   string // argon2 encoded, empty for public clients
	RedirectURIs []string
	GrantTypes   []string // grant types this client may use
	Protected    bool     // seeded clients cannot be deleted
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AllowsGrant reports whether the client may use the given grant type.
func (c Client) AllowsGrant(grantType string) bool {
	for _, g := range c.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}

// AllowsRedirect reports whether the redirect URI is registered for the
// client. Exact string match, no prefix or wildcard logic.
func (c Client) AllowsRedirect(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}
