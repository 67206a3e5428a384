package http

import (
	"net/http"

	"github.com/tollgate-labs/tollgate/pkg/httpx"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
	"github.com/tollgate-labs/tollgate/pkg/oauth2x"
)

// JWKSHandler exposes the JSON Web Key Set for public key discovery.
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, oauth2x.JWKSResponse(keys.PublicJWKS()))
	}
}
