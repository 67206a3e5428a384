package http

import (
	"net/http"
	"time"

	"github.com/tollgate-labs/tollgate/internal/identity/store"
	"github.com/tollgate-labs/tollgate/pkg/httpx"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
	"github.com/tollgate-labs/tollgate/pkg/oauth2x"
)

// ReadyzHandler is the readiness probe. Degrades to 503 when the database
// is unreachable or no signing keys are loaded.
func ReadyzHandler(startTime time.Time, version string, st store.Store, keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &oauth2x.HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := oauth2x.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
