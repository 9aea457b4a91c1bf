package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSConfig lists the cross-origin callers allowed to use the admin API.
type CORSConfig struct {
	AllowedOrigins []string
	// CSRFHeader is added to the allowed request headers. Defaults to
	// X-CSRF-Token.
	CSRFHeader string
	MaxAge     int
}

// CORS answers preflight requests and adds CORS headers for cfg.AllowedOrigins.
// Credentials are always allowed since the session travels in a cookie. With no
// allowed origins the handler is returned unchanged.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	if len(cfg.AllowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.CSRFHeader == "" {
		cfg.CSRFHeader = "X-CSRF-Token"
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"Content-Type", cfg.CSRFHeader, RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           cfg.MaxAge,
	})
	return c.Handler
}
