package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tollgate-labs/tollgate/internal/identity/service"
	"github.com/tollgate-labs/tollgate/pkg/httpx"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
	"github.com/tollgate-labs/tollgate/pkg/oauth2x"
	"github.com/tollgate-labs/tollgate/pkg/scopex"
)

// AuthorizeHandler processes authorization code flow requests.
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
	Verifier         jwtx.Verifier
	Logger           *slog.Logger
}

// HandleGet serves the redirect entry point of the flow. A bearer token
// from an earlier login acts as the session; without one the user agent is
// told to authenticate first.
func (h *AuthorizeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if h.AuthorizeService == nil {
		oauth2x.ErrServerError.WriteError(w)
		return
	}

	query := r.URL.Query()
	req, state := h.buildAuthorizeRequest(nil, query)
	req.Session = h.resolveSession(r)

	h.processAuthorize(w, r, req, state)
}

// HandlePost serves direct authentication with username and password form
// fields.
func (h *AuthorizeHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	if h.AuthorizeService == nil {
		oauth2x.ErrServerError.WriteError(w)
		return
	}

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		oauth2x.ErrInvalidContentType.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		oauth2x.ErrInvalidFormBody.WriteError(w)
		return
	}

	req, state := h.buildAuthorizeRequest(r.Form, r.URL.Query())
	req.Session = h.resolveSession(r)
	req.Email = strings.TrimSpace(r.Form.Get("username"))
	req.Password = r.Form.Get("password")

	h.processAuthorize(w, r, req, state)
}

// resolveSession recovers an authenticated principal from a bearer token,
// if one is present and valid. A missing or bad token is not an error
// here; the flow falls through to credential login.
func (h *AuthorizeHandler) resolveSession(r *http.Request) service.SessionContext {
	if h.Verifier == nil {
		return service.SessionContext{}
	}
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return service.SessionContext{}
	}
	claims, err := h.Verifier.Verify(token)
	if err != nil {
		return service.SessionContext{}
	}
	return service.SessionContext{UserID: claims.Subject, SessionID: claims.SID}
}

func (h *AuthorizeHandler) buildAuthorizeRequest(primary, secondary url.Values) (service.AuthorizeRequest, string) {
	pick := func(key string) string {
		if primary != nil {
			if v := strings.TrimSpace(primary.Get(key)); v != "" {
				return v
			}
		}
		if secondary != nil {
			return strings.TrimSpace(secondary.Get(key))
		}
		return ""
	}

	req := service.AuthorizeRequest{
		ResponseType:        pick("response_type"),
		ClientID:            pick("client_id"),
		RedirectURI:         pick("redirect_uri"),
		Scopes:              scopex.Normalize(pick("scope")),
		CodeChallenge:       pick("code_challenge"),
		CodeChallengeMethod: pick("code_challenge_method"),
	}
	return req, pick("state")
}

func (h *AuthorizeHandler) processAuthorize(w http.ResponseWriter, r *http.Request, req service.AuthorizeRequest, state string) {
	ctx := r.Context()

	code, err := h.AuthorizeService.IssueAuthorizationCode(ctx, req)
	if err != nil {
		h.handleAuthorizeError(w, req, state, err)
		return
	}

	redirectURL, err := buildAuthorizeRedirect(req.RedirectURI, code.Code, state)
	if err != nil {
		h.Logger.Error("failed to build redirect URL", "error", err)
		oauth2x.ErrServerError.WriteError(w)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (h *AuthorizeHandler) handleAuthorizeError(w http.ResponseWriter, req service.AuthorizeRequest, state string, err error) {
	// Per RFC 6749 section 3.1.2.3 an unvalidated redirect URI must never
	// receive a redirect, so request-level errors render as JSON.
	var oauthError *oauth2x.OAuth2Error
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		oauthError = oauth2x.ErrInvalidRequest
	case errors.Is(err, service.ErrUnsupportedResponseType):
		oauthError = oauth2x.ErrUnsupportedResponseType
	case errors.Is(err, service.ErrInvalidClient):
		oauthError = oauth2x.ErrInvalidClient
	case errors.Is(err, service.ErrInvalidCredentials):
		oauthError = oauth2x.ErrInvalidGrant
	case errors.Is(err, service.ErrLoginRequired):
		h.writeLoginRequired(w, req, state)
		return
	default:
		h.Logger.Error("authorize request failed", "error", err)
		oauthError = oauth2x.ErrServerError
	}

	oauthError.WriteError(w)
}

// writeLoginRequired tells the user agent to authenticate, echoing the
// request parameters so a login form can resubmit them unchanged.
func (h *AuthorizeHandler) writeLoginRequired(w http.ResponseWriter, req service.AuthorizeRequest, state string) {
	payload := map[string]any{
		"error":             oauth2x.ErrorCodeLoginRequired,
		"error_description": "user authentication required",
		"response_type":     req.ResponseType,
		"client_id":         req.ClientID,
		"redirect_uri":      req.RedirectURI,
	}
	if len(req.Scopes) > 0 {
		payload["scope"] = scopex.Join(req.Scopes)
	}
	if state != "" {
		payload["state"] = state
	}
	httpx.WriteJSON(w, http.StatusUnauthorized, payload)
}

func buildAuthorizeRedirect(redirectURI, code, state string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
