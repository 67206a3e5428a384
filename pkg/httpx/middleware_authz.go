package httpx

import (
	"net/http"
	"strings"

	"github.com/tollgate-labs/tollgate/pkg/policyx"
	"github.com/tollgate-labs/tollgate/pkg/slogx"
)

// RequirePolicy enforces a named authorization policy against the scopes
// of the authenticated caller. A denial carries the missing scope in the
// WWW-Authenticate header so clients can tell what to request.
func RequirePolicy(reg *policyx.Registry, name string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := reg.Evaluate(name, ScopesFromContext(r.Context()))
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			if decision.Reason == policyx.ReasonUnknownPolicy {
				// A route gated on a policy nobody registered is a wiring
				// bug, not a caller problem.
				slogx.FromContext(r.Context()).Error("unknown authorization policy", "policy", name)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			RecordPolicyDenied(name)
			writeBearerScopeError(w, http.StatusForbidden, decision.MissingScope)
		})
	}
}

// RequireAnyScope passes callers holding at least one of the listed
// scopes.
func RequireAnyScope(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := ScopesFromContext(r.Context())
			for _, s := range have {
				for _, req := range required {
					if s == req {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			writeBearerScopeError(w, http.StatusForbidden, required...)
		})
	}
}

// RFC 6750 error response for bearer insufficient_scope.
func writeBearerScopeError(w http.ResponseWriter, code int, required ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	w.WriteHeader(code)
	_, _ = w.Write([]byte("insufficient_scope"))
}
