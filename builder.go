package adminGate

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/adminGate/internal/rate"
	"github.com/MrEthical07/adminGate/jwt"
	"github.com/MrEthical07/adminGate/password"
	"github.com/MrEthical07/adminGate/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Guard]. Each Builder produces at most one Guard.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  session.Store

	admins    AdminProvider
	auditSink AuditSink
	signer    *jwt.CookieSigner
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis makes Redis the session store (unless WithStore is also used) and
// enables login throttling.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore sets the session store explicitly.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithAdminProvider sets the credential source used by Login.
func (b *Builder) WithAdminProvider(p AdminProvider) *Builder {
	b.admins = p
	return b
}

// WithAuditSink sets the destination of audit events. Audit.Enabled must also be set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithCookieSigner overrides the signer derived from Cookie.SigningMethod.
func (b *Builder) WithCookieSigner(s *jwt.CookieSigner) *Builder {
	b.signer = s
	return b
}

// WithLogger sets the structured logger. Without one, logs are discarded.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source used for freshness checks.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the RequireAuth latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns the Guard.
func (b *Builder) Build() (*Guard, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- SESSION STORE --------
	store := b.store
	if store == nil && b.redis != nil {
		store = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.StoreTTL)
	}
	if store == nil {
		return nil, errors.New("session store or redis client required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	guard := &Guard{
		config:  cloneConfig(cfg),
		store:   store,
		admins:  b.admins,
		logger:  logger,
		now:     now,
		metrics: NewMetrics(cfg.Metrics),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink, logger),
	}

	// -------- LOGIN THROTTLE --------
	if b.redis != nil {
		guard.limiter = rate.New(b.redis, rate.Config{
			Prefix:                cfg.Session.RedisPrefix,
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		})
	} else {
		logger.Warn("login.throttle.disabled", "reason", "no redis client")
	}

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		guard.Close()
		return nil, err
	}
	guard.hasher = ph

	// -------- COOKIE SIGNER --------
	guard.signer = b.signer
	if guard.signer == nil && cfg.Cookie.SigningMethod != "" {
		signer, err := jwt.NewCookieSigner(jwt.Config{
			SigningMethod: jwt.SigningMethod(cfg.Cookie.SigningMethod),
			PrivateKey:    cloneBytes(cfg.Cookie.PrivateKey),
			PublicKey:     cloneBytes(cfg.Cookie.PublicKey),
			Issuer:        cfg.Cookie.Issuer,
			KeyID:         cfg.Cookie.KeyID,
		})
		if err != nil {
			guard.Close()
			return nil, err
		}
		guard.signer = signer
	}

	b.built = true

	return guard, nil
}
