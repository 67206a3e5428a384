// Package http serves the transport resource API. All data routes require
// a bearer token minted by the identity service, verified against its
// published JWKS, and each route is gated by a named scope policy.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tollgate-labs/tollgate/internal/transport/service"
	"github.com/tollgate-labs/tollgate/pkg/httpx"
	"github.com/tollgate-labs/tollgate/pkg/jwtx"
	"github.com/tollgate-labs/tollgate/pkg/policyx"
	"github.com/tollgate-labs/tollgate/pkg/slogx"
)

// Policy names enforced on the data routes.
const (
	PolicyAdminScope   = "AdminScope"
	PolicyManagerScope = "ManagerScope"
	PolicyUserScope    = "UserScope"
)

// ResourcePolicies is the shared policy table of the resource APIs. Each
// policy passes when any one of its scopes is present.
func ResourcePolicies() *policyx.Registry {
	return policyx.MustNew(
		policyx.Policy{Name: PolicyAdminScope, RequiredScopes: []string{"admin.transport.api", "admin.sports.api"}},
		policyx.Policy{Name: PolicyManagerScope, RequiredScopes: []string{"manager.transport.api", "manager.sports.api"}},
		policyx.Policy{Name: PolicyUserScope, RequiredScopes: []string{"user.transport.api"}},
	)
}

// Router holds shared dependencies for the transport HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keySource    *jwtx.RemoteKeySource
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	policies     *policyx.Registry

	Schedules *service.ScheduleService
}

func NewRouter(
	src *jwtx.RemoteKeySource,
	verifier jwtx.Verifier,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keySource:    src,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		policies:     ResourcePolicies(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.MetricsMiddleware,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSchedules()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSchedules() {
	h := &ScheduleHandler{Schedules: r.Schedules}

	r.secure("GET /api/busschedule", PolicyUserScope, h.ListBuses)
	r.secure("GET /api/busschedule/{busNumber}", PolicyManagerScope, h.GetBusByNumber)
	r.secure("GET /api/flightschedule", PolicyUserScope, h.ListFlights)
	r.secure("GET /api/flightschedule/{flightNumber}", PolicyManagerScope, h.GetFlightByNumber)
	r.secure("GET /api/weatherforecast", PolicyAdminScope, h.Forecast)
}

// secure registers a data route behind bearer authentication, the named
// policy and a per-user rate limit.
func (r *Router) secure(pattern, policy string, h http.HandlerFunc) {
	r.Mux.Handle(pattern, httpx.Chain(h,
		httpx.AuthnRemoteMiddleware(r.keySource, r.verifier),
		httpx.RequirePolicy(r.policies, policy),
		httpx.RateLimitByUser(httpx.LenientLimit),
	))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.keySource),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if metrics, err := httpx.RegisterMetrics(); err == nil {
		r.Mux.Handle("GET /metrics", metrics)
	} else {
		r.logger.Warn("metrics registration failed", "error", err)
	}
}
