package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	adminGate "github.com/MrEthical07/adminGate"
	"github.com/MrEthical07/adminGate/internal/appconfig"
	"github.com/MrEthical07/adminGate/metrics/export/prometheus"
	"github.com/MrEthical07/adminGate/middleware"
	"github.com/MrEthical07/adminGate/session"
	"github.com/MrEthical07/adminGate/spa"
)

const maxLoginBody = 64 << 10

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type adminResponse struct {
	Admin     adminGate.Principal `json:"admin"`
	CSRFToken string              `json:"csrf_token"`
}

type api struct {
	guard  *adminGate.Guard
	logger *slog.Logger
}

// newHandler assembles the admin API, the metrics endpoint and the SPA.
func newHandler(g *adminGate.Guard, cfg appconfig.Config, logger *slog.Logger) http.Handler {
	a := &api{guard: g, logger: logger}

	sessions := middleware.Sessions(g)
	auth := middleware.RequireAuth(g)
	csrf := middleware.RequireCSRF(g)

	mux := http.NewServeMux()
	mux.Handle("POST /api/login", sessions(http.HandlerFunc(a.login)))
	mux.Handle("POST /api/logout", sessions(auth(csrf(http.HandlerFunc(a.logout)))))
	mux.Handle("GET /api/me", sessions(auth(http.HandlerFunc(a.me))))
	mux.HandleFunc("GET /api/health", a.health)

	if cfg.Metrics.Enabled {
		mux.Handle("GET /metrics", prometheus.New(g).Handler())
	}

	mux.Handle("/", spa.NewDir(cfg.StaticDir, spa.Options{MaxAge: cfg.StaticMaxAge}))

	var h http.Handler = mux
	h = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CSRFHeader:     g.Config().CSRF.HeaderName,
		MaxAge:         cfg.CORS.MaxAge,
	})(h)
	h = middleware.AccessLog(logger)(h)
	h = middleware.RequestID(h)
	return h
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody))
	if err := dec.Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		middleware.WriteJSONError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h, _ := session.FromContext(r.Context())
	p, err := a.guard.Login(r.Context(), h, req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, adminGate.ErrInvalidCredentials):
		middleware.WriteJSONError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case errors.Is(err, adminGate.ErrLoginRateLimited):
		middleware.WriteJSONError(w, http.StatusTooManyRequests, "Too many login attempts")
		return
	default:
		a.logger.ErrorContext(r.Context(), "api.login.fail", "error", err)
		middleware.WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	a.writeAdmin(w, r, h, p)
}

func (a *api) logout(w http.ResponseWriter, r *http.Request) {
	h, _ := session.FromContext(r.Context())
	if err := a.guard.Logout(r.Context(), h); err != nil {
		a.logger.ErrorContext(r.Context(), "api.logout.fail", "error", err)
		middleware.WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) me(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFromContext(r.Context())
	h, _ := session.FromContext(r.Context())
	a.writeAdmin(w, r, h, p)
}

func (a *api) writeAdmin(w http.ResponseWriter, r *http.Request, h *session.Handle, p adminGate.Principal) {
	token, err := a.guard.CSRFToken(r.Context(), h)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "api.csrf_token.fail", "error", err)
		middleware.WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, adminResponse{Admin: p, CSRFToken: token})
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	if err := a.guard.Ping(r.Context()); err != nil {
		a.logger.WarnContext(r.Context(), "api.health.fail", "error", err)
		middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
