package middleware

import (
	"context"
	"errors"
	"net/http"

	adminGate "github.com/MrEthical07/adminGate"
	"github.com/MrEthical07/adminGate/session"
)

type principalContextKey struct{}

// PrincipalFromContext returns the admin authenticated by [RequireAuth].
func PrincipalFromContext(ctx context.Context) (adminGate.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(adminGate.Principal)
	return p, ok
}

// RequireAuth lets a request through only while its session holds a fresh
// authenticated admin. Rejections end the request with one of:
//
//	401 {"error":"Authentication required"}
//	401 {"error":"Session expired"}
//	500 {"error":"Internal server error"}
//
// Without a Handle in the context the middleware binds one from the cookie when
// Config.Session.StartSession is true, and otherwise treats the request as
// unauthenticated.
func RequireAuth(g *adminGate.Guard) func(http.Handler) http.Handler {
	start := g != nil && g.Config().Session.StartSession
	b := newBinder(g)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			h, ok := session.FromContext(r.Context())
			if !ok && start {
				r = b.bind(w, r)
				h, _ = session.FromContext(r.Context())
			}

			p, err := g.RequireAuth(r.Context(), h)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, adminGate.ErrUnauthenticated):
		WriteJSONError(w, http.StatusUnauthorized, adminGate.ErrUnauthenticated.Error())
	case errors.Is(err, adminGate.ErrSessionExpired):
		WriteJSONError(w, http.StatusUnauthorized, adminGate.ErrSessionExpired.Error())
	default:
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}
