package http

import (
	"net/http"

	"github.com/tollgate-labs/tollgate/internal/sports/service"
	"github.com/tollgate-labs/tollgate/pkg/httpx"
)

// MatchHandler serves the fixture and forecast routes. Authentication and
// scope checks happen in middleware before any of these run.
type MatchHandler struct {
	Matches *service.MatchService
}

// List handles GET /api/gamematch.
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.Matches.Matches())
}

// GetByTeam handles GET /api/gamematch/{team}.
func (h *MatchHandler) GetByTeam(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.Matches.MatchesForTeam(r.PathValue("team")))
}

// Forecast handles GET /api/weatherforecast.
func (h *MatchHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.Matches.Forecast())
}
