package adminGate

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// Config is the full Guard configuration. Build it from [DefaultConfig], adjust
// fields, and pass it to [Builder.WithConfig].
type Config struct {
	Session  SessionConfig
	CSRF     CSRFConfig
	Cookie   CookieConfig
	Password PasswordConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session freshness and storage.
type SessionConfig struct {
	// FreshnessWindow is the maximum idle time between validated requests.
	FreshnessWindow time.Duration
	// StoreTTL bounds how long an untouched record stays in the store.
	StoreTTL    time.Duration
	RedisPrefix string
	// StartSession lets the auth middleware bind a session itself when no
	// session middleware ran before it.
	StartSession bool
}

/*
====================================
CSRF CONFIG
====================================
*/

// CSRFConfig names where the CSRF middleware looks for the submitted token.
type CSRFConfig struct {
	HeaderName string
	FormField  string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig describes the session cookie and its optional signature.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	MaxAge   int
	Secure   bool
	SameSite http.SameSite

	SigningMethod string // "" (unsigned), "hs256", or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	KeyID         string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the argon2id cost parameters.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds login throttling and production hardening switches.
type SecurityConfig struct {
	ProductionMode        bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration used when [Builder.WithConfig] is not called.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			FreshnessWindow: 24 * time.Hour,
			StoreTTL:        48 * time.Hour,
			RedisPrefix:     "ag",
			StartSession:    true,
		},
		CSRF: CSRFConfig{
			HeaderName: "X-CSRF-Token",
			FormField:  "csrf_token",
		},
		Cookie: CookieConfig{
			Name:     "admin_session",
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Security: SecurityConfig{
			ProductionMode:        false,
			EnableIPThrottle:      true,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Cookie.PrivateKey = cloneBytes(cfg.Cookie.PrivateKey)
	out.Cookie.PublicKey = cloneBytes(cfg.Cookie.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	// Session
	if c.Session.FreshnessWindow < time.Second {
		return errors.New("Session FreshnessWindow must be >= 1s")
	}
	if c.Session.StoreTTL < c.Session.FreshnessWindow {
		return errors.New("Session StoreTTL must be >= FreshnessWindow")
	}
	if strings.ContainsAny(c.Session.RedisPrefix, " \t\r\n") {
		return errors.New("Session RedisPrefix must not contain whitespace")
	}

	// CSRF
	if strings.TrimSpace(c.CSRF.HeaderName) == "" {
		return errors.New("CSRF HeaderName must not be empty")
	}
	if strings.TrimSpace(c.CSRF.FormField) == "" {
		return errors.New("CSRF FormField must not be empty")
	}

	// Cookie
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("Cookie Name must not be empty")
	}
	if c.Cookie.MaxAge < 0 {
		return errors.New("Cookie MaxAge must be >= 0")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}
	switch c.Cookie.SigningMethod {
	case "":
	case "hs256":
		if len(c.Cookie.PrivateKey) == 0 {
			return errors.New("hs256 requires PrivateKey")
		}
	case "ed25519":
		if len(c.Cookie.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.Cookie.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported Cookie SigningMethod")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Security
	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("Security MaxLoginAttempts must be > 0")
	}
	if c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security LoginCooldownDuration must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	if c.Security.ProductionMode {
		if !c.Cookie.Secure {
			return errors.New("ProductionMode requires Secure cookies")
		}
		if c.Cookie.SigningMethod == "hs256" && len(c.Cookie.PrivateKey) < 32 {
			return errors.New("ProductionMode requires hs256 key length >= 256 bits")
		}
		if c.Session.FreshnessWindow > 24*time.Hour {
			return errors.New("ProductionMode requires Session FreshnessWindow <= 24h")
		}
		if c.Password.Memory < 64*1024 {
			return errors.New("ProductionMode requires Password Memory >= 65536 KB")
		}
		if c.Password.Time < 2 {
			return errors.New("ProductionMode requires Password Time >= 2")
		}
		if c.Password.KeyLength < 32 {
			return errors.New("ProductionMode requires Password KeyLength >= 32")
		}
	}

	return nil
}

// ParseSameSite maps "lax", "strict", "none" or "default" to an http.SameSite value.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	case "default":
		return http.SameSiteDefaultMode, nil
	default:
		return 0, errors.New("unknown SameSite mode " + s)
	}
}

func sameSiteName(s http.SameSite) string {
	switch s {
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteNoneMode:
		return "none"
	case http.SameSiteDefaultMode:
		return "default"
	default:
		return "lax"
	}
}
