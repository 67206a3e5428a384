package oauth2x

import "github.com/tollgate-labs/tollgate/pkg/jwtx"

// TokenResponse is the OAuth2 token endpoint response per RFC 6749,
// returned from POST /connect/token for every grant type.
type TokenResponse struct {
	// AccessToken is the JWT access token used to authenticate API requests.
	AccessToken string `json:"access_token"`

	// IDToken is the OIDC identity token, present when the openid scope
	// was granted.
	IDToken string `json:"id_token,omitempty"`

	// RefreshToken is the opaque refresh token, present when the
	// offline_access scope was granted.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`

	// Scope is the space-delimited list of granted scopes.
	Scope string `json:"scope,omitempty"`
}

// UserInfoResponse is returned from GET /connect/userinfo.
type UserInfoResponse struct {
	// Sub is the stable identifier of the user.
	Sub string `json:"sub"`

	// Email is present only when the token carries the email scope.
	Email string `json:"email,omitempty"`

	// Name is the user's display name.
	Name string `json:"name,omitempty"`

	// Roles lists the role names the user holds.
	Roles []string `json:"role,omitempty"`
}

// HealthResponse is returned from /livez and /readyz.
type HealthResponse struct {
	// Status is the overall health status ("ok" or "degraded").
	Status string `json:"status"`

	// Uptime is the service uptime as a duration string.
	Uptime string `json:"uptime,omitempty"`

	// Version is the service build version.
	Version string `json:"version,omitempty"`

	// Checks holds readiness results per dependency, only on /readyz.
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of critical dependencies. Each service
// fills in the checks it actually depends on.
type HealthChecks struct {
	// Database is the database connection status.
	Database string `json:"database,omitempty"`

	// Signer is the JWT signing capability status.
	Signer string `json:"signer,omitempty"`

	// JWKS is the remote verification key source status, used by the
	// resource APIs.
	JWKS string `json:"jwks,omitempty"`
}

// JWKSResponse contains the public JSON Web Key Set, served from
// GET /.well-known/jwks.json.
type JWKSResponse = jwtx.JWKS

// AuthorizeResponse is the JSON form of a successful authorization code
// issuance, used when the client asks for a JSON response instead of a
// redirect.
type AuthorizeResponse struct {
	Code        string `json:"code"`
	State       string `json:"state,omitempty"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}
