// Package http serves the sports resource API. All data routes require a
// bearer token minted by the identity service, verified against its
// published JWKS, and each route is gated by a named scope policy.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tollgate-labs/tollgate/internal/sports/service"
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

// Router holds shared dependencies for the sports HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keySource    *jwtx.RemoteKeySource
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	policies     *policyx.Registry

	Matches *service.MatchService
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
		policies: policyx.MustNew(
			policyx.Policy{Name: PolicyAdminScope, RequiredScopes: []string{"admin.transport.api", "admin.sports.api"}},
			policyx.Policy{Name: PolicyManagerScope, RequiredScopes: []string{"manager.transport.api", "manager.sports.api"}},
			policyx.Policy{Name: PolicyUserScope, RequiredScopes: []string{"user.transport.api"}},
		),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.MetricsMiddleware,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerMatches()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerMatches() {
	h := &MatchHandler{Matches: r.Matches}

	r.secure("GET /api/gamematch", PolicyAdminScope, h.List)
	r.secure("GET /api/gamematch/{team}", PolicyManagerScope, h.GetByTeam)
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
