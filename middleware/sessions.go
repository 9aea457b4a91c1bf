package middleware

import (
	"net"
	"net/http"

	adminGate "github.com/MrEthical07/adminGate"
	"github.com/MrEthical07/adminGate/internal"
	"github.com/MrEthical07/adminGate/session"
)

// Sessions binds a session.Handle to every request, keyed by the session cookie.
//
// A missing, malformed, or badly signed cookie binds an anonymous handle. When the
// session identifier rotates the cookie is re-issued, and when the session is
// destroyed the cookie is cleared.
func Sessions(g *adminGate.Guard) func(http.Handler) http.Handler {
	b := newBinder(g)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if _, ok := session.FromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, b.bind(w, r))
		})
	}
}

type binder struct {
	guard  *adminGate.Guard
	cookie session.CookieOptions
}

func newBinder(g *adminGate.Guard) *binder {
	b := &binder{guard: g}
	if g != nil {
		c := g.Config().Cookie
		b.cookie = session.CookieOptions{
			Name:     c.Name,
			Path:     c.Path,
			Domain:   c.Domain,
			MaxAge:   c.MaxAge,
			Secure:   c.Secure,
			SameSite: c.SameSite,
		}
	}
	return b
}

// bind returns r with a Handle and the client metadata attached to its context.
func (b *binder) bind(w http.ResponseWriter, r *http.Request) *http.Request {
	ctx := r.Context()
	logger := b.guard.Logger()
	signer := b.guard.CookieSigner()

	id := ""
	if c, err := r.Cookie(b.cookie.CookieName()); err == nil && c.Value != "" {
		id = c.Value
		if signer != nil {
			sid, err := signer.Parse(c.Value)
			if err != nil {
				logger.DebugContext(ctx, "session.cookie.reject", "error", err)
				sid = ""
			}
			id = sid
		}
		if id != "" && !internal.ValidSessionID(id) {
			logger.DebugContext(ctx, "session.cookie.malformed")
			id = ""
		}
	}

	h := session.NewHandle(b.guard.Store(), id,
		session.OnRotate(func(newID string) {
			value := newID
			if signer != nil {
				signed, err := signer.Sign(newID)
				if err != nil {
					logger.ErrorContext(ctx, "session.cookie.sign_fail", "error", err)
					return
				}
				value = signed
			}
			session.SetCookie(w, value, b.cookie)
		}),
		session.OnDestroy(func() {
			session.ClearCookie(w, b.cookie)
		}),
	)

	ctx = session.NewContext(ctx, h)
	ctx = adminGate.WithClientIP(ctx, clientIP(r))
	ctx = adminGate.WithUserAgent(ctx, r.UserAgent())
	return r.WithContext(ctx)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
