package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tollgate-labs/tollgate/internal/identity/domain"
	"github.com/tollgate-labs/tollgate/internal/identity/store"
	"github.com/tollgate-labs/tollgate/pkg/cryptox"
	"github.com/tollgate-labs/tollgate/pkg/idx"
)

// ResponseTypeCode is the only response_type the authorize endpoint
// supports.
const ResponseTypeCode = "code"

// ErrUnsupportedResponseType is returned for response types other than
// "code".
var ErrUnsupportedResponseType = errors.New("service: unsupported response type")

// AuthorizeService implements the front-channel authorization code flow.
type AuthorizeService struct {
	store   store.Store
	scopes  *ScopeMap
	codeTTL time.Duration

	now func() time.Time
}

// AuthorizeServiceConfig wires the authorize service.
type AuthorizeServiceConfig struct {
	Store   store.Store
	Scopes  *ScopeMap     // nil means DefaultScopeMap
	CodeTTL time.Duration // default 5m
}

func NewAuthorizeService(cfg AuthorizeServiceConfig) (*AuthorizeService, error) {
	if cfg.Store == nil {
		return nil, errors.New("authorize service requires a store")
	}
	scopes := cfg.Scopes
	if scopes == nil {
		scopes = DefaultScopeMap()
	}
	codeTTL := cfg.CodeTTL
	if codeTTL <= 0 {
		codeTTL = 5 * time.Minute
	}
	return &AuthorizeService{
		store:   cfg.Store,
		scopes:  scopes,
		codeTTL: codeTTL,
		now:     time.Now,
	}, nil
}

// AuthorizeRequest is a parsed /connect/authorize request.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scopes              []string
	CodeChallenge       string
	CodeChallengeMethod string

	// Session identifies an already authenticated user. When zero, Email
	// and Password are tried instead.
	Session SessionContext

	Email    string
	Password string
}

// SessionContext is the authenticated principal behind an authorize
// request, typically recovered from a verified bearer token.
type SessionContext struct {
	UserID    string
	SessionID string
}

func (s SessionContext) Authenticated() bool { return s.UserID != "" }

// AuthorizeCode is the issued code handed back for redirection.
type AuthorizeCode struct {
	Code      string
	ExpiresAt time.Time
}

// IssueAuthorizationCode validates the request, authenticates the user if
// needed and mints a single-use code bound to client, redirect, scopes and
// PKCE challenge.
func (s *AuthorizeService) IssueAuthorizationCode(ctx context.Context, req AuthorizeRequest) (AuthorizeCode, error) {
	if req.ResponseType != ResponseTypeCode {
		return AuthorizeCode{}, ErrUnsupportedResponseType
	}
	if req.ClientID == "" || req.RedirectURI == "" {
		return AuthorizeCode{}, fmt.Errorf("%w: client_id and redirect_uri are required", ErrInvalidRequest)
	}

	client, err := s.lookupClient(ctx, req.ClientID)
	if err != nil {
		return AuthorizeCode{}, err
	}
	if !client.AllowsRedirect(req.RedirectURI) {
		return AuthorizeCode{}, fmt.Errorf("%w: redirect_uri is not registered", ErrInvalidRequest)
	}

	challenge, method, err := validatePKCE(client, req.CodeChallenge, req.CodeChallengeMethod)
	if err != nil {
		return AuthorizeCode{}, err
	}

	user, sessionID, err := s.resolvePrincipal(ctx, req)
	if err != nil {
		return AuthorizeCode{}, err
	}

	granted, _ := s.scopes.MapRolesToScopes(user.Roles, req.Scopes)

	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return AuthorizeCode{}, fmt.Errorf("generate code: %w", err)
	}

	now := s.now()
	record := domain.AuthorizationCode{
		ID:                  idx.New().String(),
		UserID:              user.ID,
		ClientID:            client.ClientID,
		CodeHash:            cryptox.FingerprintToken(opaque),
		RedirectURI:         req.RedirectURI,
		Scopes:              granted,
		SessionID:           sessionID,
		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
		ExpiresAt:           now.Add(s.codeTTL),
		CreatedAt:           now,
	}
	if err := s.store.AuthorizationCodes().CreateAuthorizationCode(ctx, record); err != nil {
		return AuthorizeCode{}, fmt.Errorf("store authorization code: %w", err)
	}

	return AuthorizeCode{Code: opaque, ExpiresAt: record.ExpiresAt}, nil
}

// resolvePrincipal prefers an existing session and falls back to form
// credentials. No session and no credentials means the user agent must be
// sent to log in.
func (s *AuthorizeService) resolvePrincipal(ctx context.Context, req AuthorizeRequest) (domain.User, string, error) {
	if req.Session.Authenticated() {
		user, err := s.store.Users().GetUserByID(ctx, req.Session.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.User{}, "", ErrLoginRequired
			}
			return domain.User{}, "", fmt.Errorf("look up user: %w", err)
		}
		sessionID := req.Session.SessionID
		if sessionID == "" {
			sessionID = idx.New().String()
		}
		return user, sessionID, nil
	}

	if req.Email == "" || req.Password == "" {
		return domain.User{}, "", ErrLoginRequired
	}
	user, err := s.store.Users().GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyPassword(req.Password, dummyPasswordHash)
			return domain.User{}, "", ErrInvalidCredentials
		}
		return domain.User{}, "", fmt.Errorf("look up user: %w", err)
	}
	if err := cryptox.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		return domain.User{}, "", ErrInvalidCredentials
	}
	return user, idx.New().String(), nil
}

func (s *AuthorizeService) lookupClient(ctx context.Context, clientID string) (domain.Client, error) {
	client, err := s.store.Clients().GetClientByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrInvalidClient
		}
		return domain.Client{}, fmt.Errorf("look up client: %w", err)
	}
	if !client.AllowsGrant(GrantAuthorizationCode) {
		return domain.Client{}, ErrInvalidClient
	}
	return client, nil
}

// validatePKCE normalises the challenge parameters. Public clients have no
// secret to present at the token endpoint, so a challenge is mandatory for
// them. The method defaults to S256 when a challenge is present.
func validatePKCE(client domain.Client, challenge, method string) (string, string, error) {
	if challenge == "" {
		if client.SecretHash == "" {
			return "", "", fmt.Errorf("%w: public clients must send a code_challenge", ErrInvalidRequest)
		}
		if method != "" {
			return "", "", fmt.Errorf("%w: code_challenge_method without code_challenge", ErrInvalidRequest)
		}
		return "", "", nil
	}
	switch method {
	case "", domain.CodeChallengeS256:
		return challenge, domain.CodeChallengeS256, nil
	case domain.CodeChallengePlain:
		return challenge, domain.CodeChallengePlain, nil
	default:
		return "", "", fmt.Errorf("%w: unsupported code_challenge_method %q", ErrInvalidRequest, method)
	}
}
