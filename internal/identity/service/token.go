package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/tollgate-labs/tollgate/internal/identity/domain"
	"github.com/tollgate-labs/tollgate/internal/identity/store"
	"github.com/tollgate-labs/tollgate/pkg/cryptox"
	"github.com/tollgate-labs/tollgate/pkg/idx"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
	"github.com/tollgate-labs/tollgate/pkg/scopex"
)

// Grant type identifiers accepted by the token endpoint.
const (
	GrantPassword          = "password"
	GrantRefreshToken      = "refresh_token"
	GrantAuthorizationCode = "authorization_code"
)

const tokenTypeBearer = "Bearer"

// Sentinel errors mapped to OAuth2 error responses by the HTTP layer.
var (
	// ErrInvalidCredentials covers both unknown-user and wrong-password so
	// callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("service: invalid credentials")

	// ErrInvalidClient covers unknown clients, grant types the client is
	// not registered for, and failed client secret checks.
	ErrInvalidClient = errors.New("service: invalid client")

	// ErrInvalidRefresh covers unknown, revoked, expired and wrong-client
	// refresh tokens.
	ErrInvalidRefresh = errors.New("service: invalid refresh token")

	// ErrInvalidGrant covers authorization codes that are unknown, used,
	// expired, bound to another client or redirect, or fail PKCE.
	ErrInvalidGrant = errors.New("service: invalid grant")

	// ErrInvalidRequest is returned for requests missing required fields.
	ErrInvalidRequest = errors.New("service: invalid request")

	// ErrLoginRequired is returned by the authorize endpoint when no
	// session or credentials accompany the request.
	ErrLoginRequired = errors.New("service: login required")
)

// TokenService implements the token endpoint grants. All database writes
// performed while redeeming or rotating a credential happen inside one
// transaction.
type TokenService struct {
	store  store.Store
	keys   *jwtx.KeyManager
	scopes *ScopeMap
	claims *ClaimsBuilder

	accessTTL   time.Duration
	identityTTL time.Duration
	refreshTTL  time.Duration

	now func() time.Time
}

// TokenServiceConfig wires the token service.
type TokenServiceConfig struct {
	Store  store.Store
	Keys   *jwtx.KeyManager
	Scopes *ScopeMap // nil means DefaultScopeMap
	Issuer string

	AccessTTL   time.Duration // default 15m
	IdentityTTL time.Duration // default matches AccessTTL
	RefreshTTL  time.Duration // default 720h
}

func NewTokenService(cfg TokenServiceConfig) (*TokenService, error) {
	if cfg.Store == nil {
		return nil, errors.New("token service requires a store")
	}
	if cfg.Keys == nil {
		return nil, errors.New("token service requires a key manager")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("token service requires an issuer")
	}
	scopes := cfg.Scopes
	if scopes == nil {
		scopes = DefaultScopeMap()
	}
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	identityTTL := cfg.IdentityTTL
	if identityTTL <= 0 {
		identityTTL = accessTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 720 * time.Hour
	}
	return &TokenService{
		store:       cfg.Store,
		keys:        cfg.Keys,
		scopes:      scopes,
		claims:      &ClaimsBuilder{Issuer: cfg.Issuer},
		accessTTL:   accessTTL,
		identityTTL: identityTTL,
		refreshTTL:  refreshTTL,
		now:         time.Now,
	}, nil
}

// PasswordGrant carries the parsed form fields for grant_type=password.
type PasswordGrant struct {
	ClientID     string
	ClientSecret string
	Email        string
	Password     string
	Scopes       []string
}

// ExchangePassword validates resource owner credentials and issues a
// token set. Unknown users and wrong passwords are indistinguishable to
// the caller.
func (s *TokenService) ExchangePassword(ctx context.Context, req PasswordGrant) (domain.TokenSet, error) {
	if req.Email == "" || req.Password == "" {
		return domain.TokenSet{}, fmt.Errorf("%w: username and password are required", ErrInvalidRequest)
	}

	client, err := s.lookupClient(ctx, req.ClientID, GrantPassword)
	if err != nil {
		return domain.TokenSet{}, err
	}
	if err := verifyClientSecret(client, req.ClientSecret); err != nil {
		return domain.TokenSet{}, err
	}

	user, err := s.store.Users().GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn comparable time so timing does not reveal whether
			// the account exists.
			_ = cryptox.VerifyPassword(req.Password, dummyPasswordHash)
			return domain.TokenSet{}, ErrInvalidCredentials
		}
		return domain.TokenSet{}, fmt.Errorf("look up user: %w", err)
	}
	if err := cryptox.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		return domain.TokenSet{}, ErrInvalidCredentials
	}

	granted, audiences := s.scopes.MapRolesToScopes(user.Roles, req.Scopes)

	// A fresh password login starts a new session.
	sessionID := idx.New().String()
	return s.issue(ctx, user, client, granted, audiences, sessionID)
}

// RefreshGrant carries the parsed form fields for grant_type=refresh_token.
type RefreshGrant struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// ExchangeRefreshToken rotates a refresh token. The presented token is
// revoked and a replacement stored in the same transaction as the new
// token set, so a crash never leaves two live tokens for one session.
func (s *TokenService) ExchangeRefreshToken(ctx context.Context, req RefreshGrant) (domain.TokenSet, error) {
	if req.RefreshToken == "" {
		return domain.TokenSet{}, fmt.Errorf("%w: refresh_token is required", ErrInvalidRequest)
	}

	client, err := s.lookupClient(ctx, req.ClientID, GrantRefreshToken)
	if err != nil {
		return domain.TokenSet{}, err
	}
	if err := verifyClientSecret(client, req.ClientSecret); err != nil {
		return domain.TokenSet{}, err
	}

	hash := cryptox.FingerprintToken(req.RefreshToken)
	record, err := s.store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenSet{}, ErrInvalidRefresh
		}
		return domain.TokenSet{}, fmt.Errorf("look up refresh token: %w", err)
	}
	if record.Revoked || record.Expired(s.now()) {
		return domain.TokenSet{}, ErrInvalidRefresh
	}
	if record.ClientID != client.ClientID {
		// Token presented by a different client than it was issued to.
		return domain.TokenSet{}, ErrInvalidRefresh
	}

	user, err := s.store.Users().GetUserByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenSet{}, ErrInvalidRefresh
		}
		return domain.TokenSet{}, fmt.Errorf("look up user: %w", err)
	}

	// Re-derive the tier from the user's current roles, carrying over the
	// passthrough scopes of the original grant. A demoted user loses tier
	// scopes on refresh; a promoted user gains them.
	granted, audiences := s.scopes.MapRolesToScopes(user.Roles, record.Scopes)

	var set domain.TokenSet
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, hash); err != nil {
			return fmt.Errorf("revoke presented token: %w", err)
		}
		set, err = s.issueTx(ctx, tx, user, client, granted, audiences, record.SessionID)
		return err
	})
	if err != nil {
		return domain.TokenSet{}, err
	}
	return set, nil
}

// CodeGrant carries the parsed form fields for grant_type=authorization_code.
type CodeGrant struct {
	ClientID     string
	ClientSecret string
	Code         string
	RedirectURI  string
	CodeVerifier string
}

// ExchangeAuthorizationCode redeems a single-use authorization code for a
// token set, verifying client binding, redirect binding and PKCE.
func (s *TokenService) ExchangeAuthorizationCode(ctx context.Context, req CodeGrant) (domain.TokenSet, error) {
	if req.Code == "" {
		return domain.TokenSet{}, fmt.Errorf("%w: code is required", ErrInvalidRequest)
	}

	client, err := s.lookupClient(ctx, req.ClientID, GrantAuthorizationCode)
	if err != nil {
		return domain.TokenSet{}, err
	}
	if err := verifyClientSecret(client, req.ClientSecret); err != nil {
		return domain.TokenSet{}, err
	}

	hash := cryptox.FingerprintToken(req.Code)
	code, err := s.store.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenSet{}, ErrInvalidGrant
		}
		return domain.TokenSet{}, fmt.Errorf("look up authorization code: %w", err)
	}
	switch {
	case code.Used():
		return domain.TokenSet{}, ErrInvalidGrant
	case s.now().After(code.ExpiresAt):
		return domain.TokenSet{}, ErrInvalidGrant
	case code.ClientID != client.ClientID:
		return domain.TokenSet{}, ErrInvalidGrant
	case code.RedirectURI != "" && code.RedirectURI != req.RedirectURI:
		return domain.TokenSet{}, ErrInvalidGrant
	}
	if err := verifyCodeVerifier(code, req.CodeVerifier); err != nil {
		return domain.TokenSet{}, err
	}

	user, err := s.store.Users().GetUserByID(ctx, code.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenSet{}, ErrInvalidGrant
		}
		return domain.TokenSet{}, fmt.Errorf("look up user: %w", err)
	}

	granted, audiences := s.scopes.MapRolesToScopes(user.Roles, code.Scopes)

	var set domain.TokenSet
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		// Marking consumes the code; a concurrent redemption loses the
		// race and sees not-found.
		if err := tx.AuthorizationCodes().MarkAuthorizationCodeUsed(ctx, code.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidGrant
			}
			return fmt.Errorf("mark code used: %w", err)
		}
		set, err = s.issueTx(ctx, tx, user, client, granted, audiences, code.SessionID)
		return err
	})
	if err != nil {
		return domain.TokenSet{}, err
	}
	return set, nil
}

// RevokeRefreshToken invalidates a single refresh token by its opaque
// value. Unknown tokens revoke silently, per RFC 7009.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, token string) error {
	hash := cryptox.FingerprintToken(token)
	err := s.store.RefreshTokens().RevokeRefreshToken(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// verifyClientSecret authenticates a confidential client. Clients without
// a registered secret are public and present nothing.
func verifyClientSecret(client domain.Client, secret string) error {
	if client.SecretHash == "" {
		return nil
	}
	if err := cryptox.VerifyPassword(secret, client.SecretHash); err != nil {
		return ErrInvalidClient
	}
	return nil
}

func (s *TokenService) lookupClient(ctx context.Context, clientID, grantType string) (domain.Client, error) {
	if clientID == "" {
		return domain.Client{}, fmt.Errorf("%w: client_id is required", ErrInvalidRequest)
	}
	client, err := s.store.Clients().GetClientByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrInvalidClient
		}
		return domain.Client{}, fmt.Errorf("look up client: %w", err)
	}
	if !client.AllowsGrant(grantType) {
		return domain.Client{}, ErrInvalidClient
	}
	return client, nil
}

// issue signs tokens and persists the refresh record outside any existing
// transaction.
func (s *TokenService) issue(ctx context.Context, user domain.User, client domain.Client, scopes, audiences []string, sessionID string) (domain.TokenSet, error) {
	var set domain.TokenSet
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		set, err = s.issueTx(ctx, tx, user, client, scopes, audiences, sessionID)
		return err
	})
	if err != nil {
		return domain.TokenSet{}, err
	}
	return set, nil
}

// issueTx signs the access token (and, scope permitting, the identity and
// refresh tokens) and writes the refresh record through the supplied
// transaction.
func (s *TokenService) issueTx(ctx context.Context, tx store.Tx, user domain.User, client domain.Client, scopes, audiences []string, sessionID string) (domain.TokenSet, error) {
	now := s.now()
	signer := s.keys.GetSigner()
	if signer == nil {
		return domain.TokenSet{}, errors.New("no signing key available")
	}

	claims := s.claims.BuildClaims(user, scopes, audiences)

	access, err := signer.Sign(s.claims.RenderAccessClaims(claims, sessionID, s.accessTTL, now))
	if err != nil {
		return domain.TokenSet{}, fmt.Errorf("sign access token: %w", err)
	}

	set := domain.TokenSet{
		AccessToken: access,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   s.accessTTL,
		Scopes:      scopes,
	}

	if scopex.Contains(scopes, ScopeOpenID) {
		idToken, err := signer.Sign(s.claims.RenderIdentityClaims(claims, client.ClientID, s.identityTTL, now))
		if err != nil {
			return domain.TokenSet{}, fmt.Errorf("sign identity token: %w", err)
		}
		set.IDToken = idToken
	}

	if scopex.Contains(scopes, ScopeOfflineAccess) {
		opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return domain.TokenSet{}, fmt.Errorf("generate refresh token: %w", err)
		}
		record := domain.RefreshToken{
			ID:        idx.New().String(),
			UserID:    user.ID,
			ClientID:  client.ClientID,
			TokenHash: cryptox.FingerprintToken(opaque),
			SessionID: sessionID,
			Scopes:    scopes,
			ExpiresAt: now.Add(s.refreshTTL),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.RefreshTokens().CreateRefreshToken(ctx, record); err != nil {
			return domain.TokenSet{}, fmt.Errorf("store refresh token: %w", err)
		}
		set.RefreshToken = opaque
	}

	return set, nil
}

// verifyCodeVerifier checks the PKCE verifier against the stored
// challenge. Codes issued without a challenge skip the check.
func verifyCodeVerifier(code domain.AuthorizationCode, verifier string) error {
	if code.CodeChallenge == "" {
		return nil
	}
	if verifier == "" {
		return fmt.Errorf("%w: code_verifier is required", ErrInvalidGrant)
	}

	var derived string
	switch code.CodeChallengeMethod {
	case domain.CodeChallengePlain:
		derived = verifier
	case domain.CodeChallengeS256, "":
		sum := sha256.Sum256([]byte(verifier))
		derived = base64.RawURLEncoding.EncodeToString(sum[:])
	default:
		return fmt.Errorf("%w: unsupported code_challenge_method", ErrInvalidGrant)
	}
	if subtle.ConstantTimeCompare([]byte(derived), []byte(code.CodeChallenge)) != 1 {
		return fmt.Errorf("%w: code_verifier mismatch", ErrInvalidGrant)
	}
	return nil
}

// dummyPasswordHash is a real argon2id digest of a throwaway value, used
// to equalise response time when the user does not exist.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=3,p=2$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
