package service

import (
	"github.com/tollgate-labs/tollgate/internal/identity/domain"
	"github.com/tollgate-labs/tollgate/pkg/scopex"
)

// API audiences stamped into access tokens.
const (
	AudienceTransport = "TransportApi"
	AudienceSports    = "SportsApi"
)

// Scopes granted by role tier.
const (
	ScopeUserTransport    = "user.transport.api"
	ScopeManagerTransport = "manager.transport.api"
	ScopeManagerSports    = "manager.sports.api"
	ScopeAdminTransport   = "admin.transport.api"
	ScopeAdminSports      = "admin.sports.api"
)

// Request-passthrough scopes: granted only when the client asks for them,
// independent of role.
const (
	ScopeOpenID        = "openid"
	ScopeEmail         = "email"
	ScopeProfile       = "profile"
	ScopeOfflineAccess = "offline_access"
)

// ScopeMap is the immutable role to scope table. Higher tiers include the
// lower tiers' scopes, so an Admin token satisfies every policy a User
// token does.
type ScopeMap struct {
	table map[string][]string

	// Fallback names the role tier applied to unknown roles. Unknown
	// roles degrade rather than fail the grant.
	Fallback string

	passthrough map[string]struct{}
}

// DefaultScopeMap returns the built-in role tiers.
func DefaultScopeMap() *ScopeMap {
	return &ScopeMap{
		table: map[string][]string{
			domain.RoleAdmin: {
				ScopeAdminTransport, ScopeManagerTransport,
				ScopeAdminSports, ScopeManagerSports,
				ScopeUserTransport,
			},
			domain.RoleManager: {
				ScopeManagerTransport, ScopeManagerSports,
				ScopeUserTransport,
			},
			domain.RoleUser: {
				ScopeUserTransport,
			},
		},
		Fallback: domain.RoleUser,
		passthrough: map[string]struct{}{
			ScopeOpenID:        {},
			ScopeEmail:         {},
			ScopeProfile:       {},
			ScopeOfflineAccess: {},
		},
	}
}

// MapRolesToScopes resolves the granted scopes and token audiences for a
// principal. The tier set is the union over all held roles; unknown roles
// contribute the Fallback tier. The tier set is always granted in full;
// requested scopes never narrow it and only contribute the passthrough
// scopes named in the request. Anything else requested is ignored.
func (m *ScopeMap) MapRolesToScopes(roles, requested []string) (scopes, audiences []string) {
	scopes = m.tierFor(roles)

	for _, s := range scopex.Normalize(requested...) {
		if _, ok := m.passthrough[s]; ok {
			scopes = append(scopes, s)
		}
	}
	scopes = scopex.Dedupe(scopes)

	return scopes, m.AudiencesFor(scopes)
}

// AudiencesFor derives the token audiences from granted scopes. Any
// manager-or-above scope makes the sports API reachable too.
func (m *ScopeMap) AudiencesFor(scopes []string) []string {
	if scopex.ContainsAny(scopes,
		ScopeManagerTransport, ScopeManagerSports,
		ScopeAdminTransport, ScopeAdminSports,
	) {
		return []string{AudienceTransport, AudienceSports}
	}
	return []string{AudienceTransport}
}

func (m *ScopeMap) tierFor(roles []string) []string {
	var tier []string
	for _, role := range roles {
		granted, ok := m.table[role]
		if !ok {
			granted = m.table[m.Fallback]
		}
		tier = append(tier, granted...)
	}
	if len(tier) == 0 {
		tier = append(tier, m.table[m.Fallback]...)
	}
	return scopex.Dedupe(tier)
}
