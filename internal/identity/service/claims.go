package service

import (
	"time"

	"github.com/tollgate-labs/tollgate/internal/identity/domain"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
	"github.com/tollgate-labs/tollgate/pkg/scopex"
)

// ClaimsBuilder turns a principal plus its granted scopes and audiences
// into destination-tagged claims and renders them into signable token
// claims.
type ClaimsBuilder struct {
	Issuer string
}

// BuildClaims emits one typed claim per fact. Claims whose type has no
// destinations are dropped rather than signed into any token.
func (b *ClaimsBuilder) BuildClaims(user domain.User, scopes, audiences []string) []domain.Claim {
	out := make([]domain.Claim, 0, 4+len(user.Roles)+len(scopes)+len(audiences))

	out = append(out, domain.NewClaim(domain.ClaimSubject, user.ID))
	if user.Email != "" {
		out = append(out, domain.NewClaim(domain.ClaimEmail, user.Email))
	}
	if user.Name != "" {
		out = append(out, domain.NewClaim(domain.ClaimName, user.Name))
	}
	for _, role := range user.Roles {
		out = append(out, domain.NewClaim(domain.ClaimRole, role))
	}
	// Scopes are emitted as discrete entries, one claim per scope.
	for _, scope := range scopex.Normalize(scopes...) {
		out = append(out, domain.NewClaim(domain.ClaimScope, scope))
	}
	for _, aud := range audiences {
		out = append(out, domain.NewClaim(domain.ClaimAudience, aud))
	}
	out = append(out, domain.NewClaim(domain.ClaimIssuer, b.Issuer))

	filtered := out[:0]
	for _, c := range out {
		if len(c.Destinations) == 0 {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

// RenderAccessClaims assembles the JWT access token claims from the
// access-token-destined subset.
func (b *ClaimsBuilder) RenderAccessClaims(claims []domain.Claim, sessionID string, ttl time.Duration, now time.Time) jwtx.Claims {
	var (
		subject, email, name string
		scopes, roles, auds  []string
	)
	for _, c := range claims {
		if !c.InAccessToken() {
			continue
		}
		switch c.Type {
		case domain.ClaimSubject:
			subject = c.Value
		case domain.ClaimEmail:
			email = c.Value
		case domain.ClaimName:
			name = c.Value
		case domain.ClaimRole:
			roles = append(roles, c.Value)
		case domain.ClaimScope:
			scopes = append(scopes, c.Value)
		case domain.ClaimAudience:
			auds = append(auds, c.Value)
		}
	}
	return jwtx.NewAccessClaims(subject, sessionID, scopes, roles, email, name, ttl, b.Issuer, auds, now)
}

// RenderIdentityClaims assembles the OIDC identity token claims from the
// identity-token-destined subset. Scopes, roles and API audiences never
// appear here.
func (b *ClaimsBuilder) RenderIdentityClaims(claims []domain.Claim, clientID string, ttl time.Duration, now time.Time) jwtx.Claims {
	var subject, email, name string
	for _, c := range claims {
		if !c.InIdentityToken() {
			continue
		}
		switch c.Type {
		case domain.ClaimSubject:
			subject = c.Value
		case domain.ClaimEmail:
			email = c.Value
		case domain.ClaimName:
			name = c.Value
		}
	}
	// The identity token is for the client, so the client is its audience.
	return jwtx.NewIdentityClaims(subject, email, name, ttl, b.Issuer, []string{clientID}, now)
}
