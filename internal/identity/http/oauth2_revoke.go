package http

import (
	"net/http"
	"strings"

	"github.com/tollgate-labs/tollgate/internal/identity/service"
	"github.com/tollgate-labs/tollgate/pkg/oauth2x"
	"github.com/tollgate-labs/tollgate/pkg/slogx"
)

// RevokeHandler serves POST /connect/revoke per RFC 7009. Revocation of an
// unknown token still answers 200 so callers cannot probe token validity.
type RevokeHandler struct {
	TokenService *service.TokenService
}

func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		oauth2x.ErrInvalidContentType.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		oauth2x.ErrInvalidFormBody.WriteError(w)
		return
	}

	token := r.Form.Get("token")
	if token == "" {
		oauth2x.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.TokenService.RevokeRefreshToken(ctx, token); err != nil {
		log.Error("revocation failed", "err", err)
		oauth2x.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusOK)
}
