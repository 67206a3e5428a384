package http

import (
	"net/http"
	"time"

	"github.com/tollgate-labs/tollgate/pkg/httpx"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
	"github.com/tollgate-labs/tollgate/pkg/oauth2x"
)

// LivezHandler is the liveness probe. Always 200 while the process runs.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, oauth2x.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler is the readiness probe. Degrades to 503 while no
// verification keys can be loaded from the identity JWKS endpoint.
func ReadyzHandler(startTime time.Time, version string, src *jwtx.RemoteKeySource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &oauth2x.HealthChecks{JWKS: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := src.Ensure(r.Context()); err != nil {
			checks.JWKS = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, oauth2x.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
