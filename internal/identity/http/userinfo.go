package http

import (
	"errors"
	"net/http"

	"github.com/tollgate-labs/tollgate/internal/identity/service"
	"github.com/tollgate-labs/tollgate/pkg/httpx"
	"github.com/tollgate-labs/tollgate/pkg/oauth2x"
	"github.com/tollgate-labs/tollgate/pkg/policyx"
	"github.com/tollgate-labs/tollgate/pkg/scopex"
	"github.com/tollgate-labs/tollgate/pkg/slogx"
)

// UserInfoHandler serves GET /connect/userinfo. The subject always gets
// its id and roles back; the email claim additionally requires the email
// scope, the name claim the profile scope.
type UserInfoHandler struct {
	UserService *service.UserService
	Policies    *policyx.Registry
}

func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		oauth2x.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			oauth2x.ErrInvalidToken.WriteError(w)
			return
		}
		log.Warn("failed to load user", "user_id", userID, "err", err)
		oauth2x.ErrServerError.WriteError(w)
		return
	}

	scopes := httpx.ScopesFromContext(ctx)

	response := oauth2x.UserInfoResponse{
		Sub:   user.ID,
		Roles: user.Roles,
	}
	if h.Policies.Evaluate(PolicyEmailScope, scopes).Allowed {
		response.Email = user.Email
	}
	if scopex.Contains(scopes, "profile") {
		response.Name = user.Name
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}
