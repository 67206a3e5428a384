package domain

// Token destinations a claim may be emitted to.
const (
	DestinationAccessToken   = "access_token"
	DestinationIdentityToken = "id_token"
)

// ClaimType is the closed set of claim kinds the issuer emits.
type ClaimType string

const (
	ClaimSubject  ClaimType = "sub"
	ClaimEmail    ClaimType = "email"
	ClaimName     ClaimType = "name"
	ClaimRole     ClaimType = "role"
	ClaimScope    ClaimType = "scope"
	ClaimAudience ClaimType = "aud"
	ClaimIssuer   ClaimType = "iss"
)

// Claim is a single typed fact about a principal together with the tokens
// it may appear in. A claim with no destinations is dropped before
// signing.
type Claim struct {
	Type         ClaimType
	Value        string
	Destinations []string
}

// InAccessToken reports whether the claim is destined for the access
// token.
func (c Claim) InAccessToken() bool {
	for _, d := range c.Destinations {
		if d == DestinationAccessToken {
			return true
		}
	}
	return false
}

// InIdentityToken reports whether the claim is destined for the identity
// token.
func (c Claim) InIdentityToken() bool {
	for _, d := range c.Destinations {
		if d == DestinationIdentityToken {
			return true
		}
	}
	return false
}

// DestinationsFor returns the token destinations for a claim type.
// Identity-bearing claims go to both tokens; authorization-bearing claims
// stay in the access token only.
func DestinationsFor(t ClaimType) []string {
	switch t {
	case ClaimSubject, ClaimEmail, ClaimName:
		return []string{DestinationAccessToken, DestinationIdentityToken}
	case ClaimRole, ClaimScope, ClaimAudience, ClaimIssuer:
		return []string{DestinationAccessToken}
	default:
		return nil
	}
}

// NewClaim builds a claim of the given type with its default
// destinations.
func NewClaim(t ClaimType, value string) Claim {
	return Claim{Type: t, Value: value, Destinations: DestinationsFor(t)}
}
