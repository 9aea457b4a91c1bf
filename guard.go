package adminGate

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/adminGate/internal"
	"github.com/MrEthical07/adminGate/internal/rate"
	"github.com/MrEthical07/adminGate/jwt"
	"github.com/MrEthical07/adminGate/password"
	"github.com/MrEthical07/adminGate/session"
)

// Guard owns the authenticated-session lifecycle. It is safe for concurrent use
// once returned by [Builder.Build]; the per-request state lives in the
// [session.Handle] passed to each method.
type Guard struct {
	config  Config
	store   session.Store
	limiter *rate.Limiter
	hasher  *password.Argon2
	admins  AdminProvider
	signer  *jwt.CookieSigner
	audit   *auditDispatcher
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Close flushes queued audit events. The Guard must not be used afterwards.
func (g *Guard) Close() {
	if g == nil {
		return
	}
	if g.audit != nil {
		g.audit.Close()
	}
}

// Config returns a copy of the configuration the Guard was built with.
func (g *Guard) Config() Config {
	if g == nil {
		return DefaultConfig()
	}
	return cloneConfig(g.config)
}

// Store returns the session store backing every Handle.
func (g *Guard) Store() session.Store {
	if g == nil {
		return nil
	}
	return g.store
}

// CookieSigner returns the signer for session cookie values, or nil when cookies
// carry the raw identifier.
func (g *Guard) CookieSigner() *jwt.CookieSigner {
	if g == nil {
		return nil
	}
	return g.signer
}

// Logger returns the Guard's logger. It is never nil on a built Guard.
func (g *Guard) Logger() *slog.Logger {
	if g == nil || g.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return g.logger
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (g *Guard) AuditDropped() uint64 {
	if g == nil || g.audit == nil {
		return 0
	}
	return g.audit.Dropped()
}

// MetricsSnapshot returns a copy of the Guard counters.
func (g *Guard) MetricsSnapshot() MetricsSnapshot {
	if g == nil || g.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return g.metrics.Snapshot()
}

// Ping checks the session store when it supports health checks. Stores without
// a Ping method always report healthy.
func (g *Guard) Ping(ctx context.Context) error {
	if g == nil || g.store == nil {
		return ErrEngineNotReady
	}
	p, ok := g.store.(interface {
		Ping(context.Context) (time.Duration, error)
	})
	if !ok {
		return nil
	}
	if _, err := p.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (g *Guard) metricInc(id MetricID) {
	if g == nil || g.metrics == nil {
		return
	}
	g.metrics.Inc(id)
}

func (g *Guard) storeFailure(ctx context.Context, op string, err error) error {
	g.metricInc(MetricStoreFailure)
	g.logger.ErrorContext(ctx, "session.store.fail", "op", op, "error", err)
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// RequireAuth validates the session bound to h and refreshes its freshness
// timestamp.
//
// It returns [ErrUnauthenticated] when the session carries no principal and
// [ErrSessionExpired] after purging a session idle for longer than
// Session.FreshnessWindow. Store failures are wrapped in [ErrStoreUnavailable].
//
//	Flow: Load → principal check → freshness check (purge on expiry) → Touch (exists-only write)
func (g *Guard) RequireAuth(ctx context.Context, h *session.Handle) (Principal, error) {
	if g == nil || g.store == nil {
		return Principal{}, ErrEngineNotReady
	}
	if g.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { g.metrics.Observe(MetricRequireAuthLatency, time.Since(start)) }()
	}
	if h == nil {
		g.metricInc(MetricAuthRejected)
		return Principal{}, ErrUnauthenticated
	}

	rec, err := h.Load(ctx)
	if err != nil {
		return Principal{}, g.storeFailure(ctx, "load", err)
	}
	if !rec.Authenticated() {
		g.metricInc(MetricAuthRejected)
		g.emitAudit(ctx, auditEventAuthRejected, false, Principal{}, ErrUnauthenticated, nil)
		return Principal{}, ErrUnauthenticated
	}

	principal := Principal{ID: rec.AdminID, Username: rec.AdminUsername}
	now := g.now().Unix()

	if idle := now - rec.LastActivity; rec.LastActivity != 0 && idle > g.windowSeconds() {
		if err := h.Destroy(ctx); err != nil {
			return Principal{}, g.storeFailure(ctx, "purge", err)
		}
		g.metricInc(MetricSessionExpired)
		g.logger.InfoContext(ctx, "session.expired.purge", "admin_id", principal.ID, "idle_seconds", idle)
		g.emitAudit(ctx, auditEventSessionExpired, false, principal, ErrSessionExpired, func() map[string]string {
			return map[string]string{"idle_seconds": fmt.Sprint(idle)}
		})
		return Principal{}, ErrSessionExpired
	}

	rec.LastActivity = now
	if err := h.Touch(ctx, rec); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			// Destroyed between Load and Touch.
			g.metricInc(MetricAuthRejected)
			g.emitAudit(ctx, auditEventAuthRejected, false, principal, ErrUnauthenticated, nil)
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, g.storeFailure(ctx, "touch", err)
	}

	g.metricInc(MetricAuthSuccess)
	return principal, nil
}

func (g *Guard) windowSeconds() int64 {
	return int64(g.config.Session.FreshnessWindow / time.Second)
}

// CreateSession binds p to h under a freshly minted identifier and a new CSRF
// token. Any data stored under the previous identifier stops resolving.
//
// Every failure, including randomness failures, is returned wrapped in
// [ErrSessionCreationFailed].
//
//	Flow: mint CSRF token → encode check → Regenerate (Rotate in store) → Save record (Destroy on failure)
func (g *Guard) CreateSession(ctx context.Context, h *session.Handle, p Principal) error {
	if g == nil || g.store == nil {
		return ErrEngineNotReady
	}
	if h == nil {
		return fmt.Errorf("%w: nil session handle", ErrSessionCreationFailed)
	}
	if p.ID == "" || p.Username == "" {
		return fmt.Errorf("%w: principal requires id and username", ErrSessionCreationFailed)
	}

	token, err := internal.NewCSRFToken()
	if err != nil {
		return g.creationFailed(ctx, p, err)
	}

	rec := &session.Record{
		AdminID:       p.ID,
		AdminUsername: p.Username,
		LastActivity:  g.now().Unix(),
		CSRFToken:     token,
	}
	if _, err := session.Encode(rec); err != nil {
		return g.creationFailed(ctx, p, err)
	}

	if err := h.Regenerate(ctx); err != nil {
		return g.creationFailed(ctx, p, err)
	}
	if err := h.Save(ctx, rec); err != nil {
		// The rotated id still carries the previous session.
		if delErr := h.Destroy(ctx); delErr != nil {
			g.logger.ErrorContext(ctx, "session.create.cleanup.fail", "admin_id", p.ID, "error", delErr)
		}
		return g.creationFailed(ctx, p, err)
	}

	g.metricInc(MetricSessionCreated)
	g.logger.InfoContext(ctx, "session.created", "admin_id", p.ID)
	g.emitAudit(ctx, auditEventSessionCreated, true, p, nil, nil)
	return nil
}

func (g *Guard) creationFailed(ctx context.Context, p Principal, err error) error {
	wrapped := fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	g.metricInc(MetricStoreFailure)
	g.logger.ErrorContext(ctx, "session.create.fail", "admin_id", p.ID, "error", err)
	g.emitAudit(ctx, auditEventSessionCreated, false, p, wrapped, nil)
	return wrapped
}

// DestroySession removes every piece of state bound to h. Destroying an absent
// session is not an error.
func (g *Guard) DestroySession(ctx context.Context, h *session.Handle) error {
	if g == nil || g.store == nil {
		return ErrEngineNotReady
	}
	if h == nil {
		return nil
	}

	var principal Principal
	if rec, err := h.Load(ctx); err == nil && rec.Authenticated() {
		principal = Principal{ID: rec.AdminID, Username: rec.AdminUsername}
	}

	if err := h.Destroy(ctx); err != nil {
		g.metricInc(MetricStoreFailure)
		g.logger.ErrorContext(ctx, "session.destroy.fail", "error", err)
		return fmt.Errorf("%w: %v", ErrSessionInvalidationFailed, err)
	}

	g.metricInc(MetricSessionDestroyed)
	g.emitAudit(ctx, auditEventSessionDestroyed, true, principal, nil, nil)
	return nil
}

// ValidateCSRF reports whether candidate equals the CSRF token stored with h.
// The comparison runs in constant time. It never writes to the store and never
// refreshes the freshness timestamp.
func (g *Guard) ValidateCSRF(ctx context.Context, h *session.Handle, candidate string) bool {
	if g == nil || g.store == nil || h == nil {
		return false
	}

	rec, err := h.Load(ctx)
	if err != nil {
		g.metricInc(MetricStoreFailure)
		g.logger.ErrorContext(ctx, "session.store.fail", "op", "csrf", "error", err)
		return false
	}

	ok := rec != nil && rec.CSRFToken != "" &&
		subtle.ConstantTimeCompare([]byte(rec.CSRFToken), []byte(candidate)) == 1
	if !ok {
		var principal Principal
		if rec.Authenticated() {
			principal = Principal{ID: rec.AdminID, Username: rec.AdminUsername}
		}
		g.metricInc(MetricCSRFRejected)
		g.emitAudit(ctx, auditEventCSRFRejected, false, principal, ErrCSRFMismatch, nil)
		return false
	}

	g.metricInc(MetricCSRFAccepted)
	return true
}

// CSRFToken returns the token stored with an authenticated session so the client
// can echo it on mutating requests.
func (g *Guard) CSRFToken(ctx context.Context, h *session.Handle) (string, error) {
	if g == nil || g.store == nil {
		return "", ErrEngineNotReady
	}
	if h == nil {
		return "", ErrUnauthenticated
	}

	rec, err := h.Load(ctx)
	if err != nil {
		return "", g.storeFailure(ctx, "load", err)
	}
	if !rec.Authenticated() || rec.CSRFToken == "" {
		return "", ErrUnauthenticated
	}
	return rec.CSRFToken, nil
}
