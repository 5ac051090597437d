package middleware

import (
	"net/http"

	"github.com/rpattn/econgate/internal/auth"
)

// identityHeader carries the caller's declared username. Authentication is a
// stand-in for development: the resolver decides the role, and unknown names
// fall through to read-only.
const identityHeader = "X-Dev-User"

// IdentityMiddleware resolves the declared user into the request context so
// handlers can pass an explicit identity into the services.
func IdentityMiddleware(resolver *auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := resolver.Resolve(r.Header.Get(identityHeader))
			next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), identity)))
		})
	}
}
