package http

import (
	"net/http"
	"time"

	"github.com/tollgate-labs/tollgate/pkg/httpx"
	"github.com/tollgate-labs/tollgate/pkg/oauth2x"
)

// LivezHandler is the liveness probe. Always 200 while the process runs.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := oauth2x.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		}
		httpx.WriteJSON(w, http.StatusOK, response)
	}
}
