package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/tollgate-labs/tollgate/internal/identity/service"
	"github.com/tollgate-labs/tollgate/pkg/httpx"
	"github.com/tollgate-labs/tollgate/pkg/oauth2x"
	"github.com/tollgate-labs/tollgate/pkg/scopex"
	"github.com/tollgate-labs/tollgate/pkg/slogx"
)

// TokenHandler serves POST /connect/token.
// Accepts application/x-www-form-urlencoded per RFC 6749.
type TokenHandler struct {
	TokenService *service.TokenService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		oauth2x.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		oauth2x.ErrInvalidFormBody.WriteError(w)
		return
	}

	grantType := r.Form.Get("grant_type")
	switch grantType {
	case service.GrantPassword:
		h.handlePasswordGrant(w, r, r.Form)
	case service.GrantRefreshToken:
		h.handleRefreshGrant(w, r, r.Form)
	case service.GrantAuthorizationCode:
		h.handleAuthorizationCodeGrant(w, r, r.Form)
	default:
		httpx.RecordTokenDenied(grantType, oauth2x.ErrorCodeUnsupportedGrantType)
		oauth2x.ErrUnsupportedGrantType.WriteError(w)
	}
}

func (h *TokenHandler) handlePasswordGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	username := strings.TrimSpace(form.Get("username"))
	password := form.Get("password")
	clientID := strings.TrimSpace(form.Get("client_id"))
	requested := scopex.Normalize(form.Get("scope"))

	set, err := h.TokenService.ExchangePassword(ctx, service.PasswordGrant{
		ClientID:     clientID,
		ClientSecret: form.Get("client_secret"),
		Email:        username,
		Password:     password,
		Scopes:       requested,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.RecordTokenDenied(service.GrantPassword, oauth2x.ErrorCodeInvalidGrant)
			oauth2x.ErrInvalidGrant.WriteError(w)
		case errors.Is(err, service.ErrInvalidClient):
			httpx.RecordTokenDenied(service.GrantPassword, oauth2x.ErrorCodeInvalidClient)
			oauth2x.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrInvalidRequest):
			httpx.RecordTokenDenied(service.GrantPassword, oauth2x.ErrorCodeInvalidRequest)
			oauth2x.ErrInvalidRequest.WriteError(w)
		default:
			log.Error("password grant failed", "err", err)
			oauth2x.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.RecordTokenIssued(service.GrantPassword)
	writeTokenSet(w, set)
}

func (h *TokenHandler) handleRefreshGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	refresh := form.Get("refresh_token")
	clientID := strings.TrimSpace(form.Get("client_id"))

	set, err := h.TokenService.ExchangeRefreshToken(ctx, service.RefreshGrant{
		ClientID:     clientID,
		ClientSecret: form.Get("client_secret"),
		RefreshToken: refresh,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefresh):
			httpx.RecordTokenDenied(service.GrantRefreshToken, oauth2x.ErrorCodeInvalidGrant)
			oauth2x.ErrInvalidGrant.WriteError(w)
		case errors.Is(err, service.ErrInvalidClient):
			httpx.RecordTokenDenied(service.GrantRefreshToken, oauth2x.ErrorCodeInvalidClient)
			oauth2x.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrInvalidRequest):
			httpx.RecordTokenDenied(service.GrantRefreshToken, oauth2x.ErrorCodeInvalidRequest)
			oauth2x.ErrInvalidRequest.WriteError(w)
		default:
			log.Error("refresh grant failed", "err", err)
			oauth2x.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.RecordTokenIssued(service.GrantRefreshToken)
	writeTokenSet(w, set)
}

func (h *TokenHandler) handleAuthorizationCodeGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	set, err := h.TokenService.ExchangeAuthorizationCode(ctx, service.CodeGrant{
		ClientID:     strings.TrimSpace(form.Get("client_id")),
		ClientSecret: form.Get("client_secret"),
		Code:         strings.TrimSpace(form.Get("code")),
		RedirectURI:  strings.TrimSpace(form.Get("redirect_uri")),
		CodeVerifier: strings.TrimSpace(form.Get("code_verifier")),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidClient):
			httpx.RecordTokenDenied(service.GrantAuthorizationCode, oauth2x.ErrorCodeInvalidClient)
			oauth2x.ErrInvalidClient.WriteError(w)
		case errors.Is(err, service.ErrInvalidGrant):
			httpx.RecordTokenDenied(service.GrantAuthorizationCode, oauth2x.ErrorCodeInvalidGrant)
			oauth2x.ErrInvalidGrant.WriteError(w)
		case errors.Is(err, service.ErrInvalidRequest):
			httpx.RecordTokenDenied(service.GrantAuthorizationCode, oauth2x.ErrorCodeInvalidRequest)
			oauth2x.ErrInvalidRequest.WriteError(w)
		default:
			log.Error("authorization_code grant failed", "err", err)
			oauth2x.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.RecordTokenIssued(service.GrantAuthorizationCode)
	writeTokenSet(w, set)
}
