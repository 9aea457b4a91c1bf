package middleware

import (
	"net/http"

	adminGate "github.com/MrEthical07/adminGate"
	"github.com/MrEthical07/adminGate/session"
)

// RequireCSRF checks the CSRF token on POST, PUT, PATCH and DELETE requests. The
// token is read from the configured header, then from the configured form field.
// A mismatch ends the request with 403 {"error":"Invalid CSRF token"}.
//
// It expects a Handle in the context, normally bound by [Sessions] or
// [RequireAuth].
func RequireCSRF(g *adminGate.Guard) func(http.Handler) http.Handler {
	var cfg adminGate.CSRFConfig
	if g != nil {
		cfg = g.Config().CSRF
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !stateChanging(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			h, _ := session.FromContext(r.Context())
			token := r.Header.Get(cfg.HeaderName)
			if token == "" && cfg.FormField != "" {
				token = r.PostFormValue(cfg.FormField)
			}

			if token == "" || !g.ValidateCSRF(r.Context(), h, token) {
				WriteJSONError(w, http.StatusForbidden, adminGate.ErrCSRFMismatch.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func stateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
