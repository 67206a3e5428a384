package http

import (
	"net/http"
	"strings"

	"github.com/tollgate-labs/tollgate/internal/identity/domain"
	"github.com/tollgate-labs/tollgate/pkg/httpx"
	"github.com/tollgate-labs/tollgate/pkg/oauth2x"
)

// writeTokenSet renders a token set as the RFC 6749 token response.
func writeTokenSet(w http.ResponseWriter, set domain.TokenSet) {
	response := oauth2x.TokenResponse{
		AccessToken:  set.AccessToken,
		IDToken:      set.IDToken,
		RefreshToken: set.RefreshToken,
		TokenType:    set.TokenType,
		ExpiresIn:    int(set.ExpiresIn.Seconds()),
		Scope:        strings.Join(set.Scopes, " "),
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}
