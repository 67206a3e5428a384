package http

import (
	"net/http"

	"github.com/tollgate-labs/tollgate/internal/transport/service"
	"github.com/tollgate-labs/tollgate/pkg/httpx"
)

// ScheduleHandler serves the timetable and forecast routes. Authentication
// and scope checks happen in middleware before any of these run.
type ScheduleHandler struct {
	Schedules *service.ScheduleService
}

// ListBuses handles GET /api/busschedule.
func (h *ScheduleHandler) ListBuses(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.Schedules.BusSchedules())
}

// GetBusByNumber handles GET /api/busschedule/{busNumber}.
func (h *ScheduleHandler) GetBusByNumber(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.Schedules.BusByNumber(r.PathValue("busNumber")))
}

// ListFlights handles GET /api/flightschedule.
func (h *ScheduleHandler) ListFlights(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.Schedules.FlightSchedules())
}

// GetFlightByNumber handles GET /api/flightschedule/{flightNumber}.
func (h *ScheduleHandler) GetFlightByNumber(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.Schedules.FlightByNumber(r.PathValue("flightNumber")))
}

// Forecast handles GET /api/weatherforecast.
func (h *ScheduleHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.Schedules.Forecast())
}
