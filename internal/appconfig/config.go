// Package appconfig loads the admin-gate server configuration: code defaults,
// then an optional YAML file, then ADMIN_GATE_* environment variables.
package appconfig

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	adminGate "github.com/MrEthical07/adminGate"
	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config is the server configuration.
type Config struct {
	Addr            string        `yaml:"addr" env:"ADMIN_GATE_ADDR"`
	StaticDir       string        `yaml:"static_dir" env:"ADMIN_GATE_STATIC_DIR"`
	StaticMaxAge    time.Duration `yaml:"static_max_age" env:"ADMIN_GATE_STATIC_MAX_AGE"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"ADMIN_GATE_SHUTDOWN_TIMEOUT"`

	Log      LogConfig      `yaml:"log"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Cookie   CookieConfig   `yaml:"cookie"`
	CORS     CORSConfig     `yaml:"cors"`
	Security SecurityConfig `yaml:"security"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Audit    AuditConfig    `yaml:"audit"`

	// Admins come from the file. ADMIN_GATE_ADMIN_* adds one more.
	Admins []AdminEntry `yaml:"admins"`
	Admin  AdminEntry   `yaml:"-"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"ADMIN_GATE_LOG_LEVEL"`
	Format string `yaml:"format" env:"ADMIN_GATE_LOG_FORMAT"`
}

// RedisConfig selects the session backend. With no Addr and Embedded unset the
// server keeps sessions in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	// Embedded starts an in-process miniredis when Addr is empty. Development only.
	Embedded bool `yaml:"embedded" env:"ADMIN_GATE_REDIS_EMBEDDED"`
}

type SessionConfig struct {
	FreshnessWindow time.Duration `yaml:"freshness_window" env:"ADMIN_GATE_SESSION_FRESHNESS"`
	StoreTTL        time.Duration `yaml:"store_ttl" env:"ADMIN_GATE_SESSION_STORE_TTL"`
	RedisPrefix     string        `yaml:"redis_prefix" env:"ADMIN_GATE_SESSION_PREFIX"`
}

type CookieConfig struct {
	Name     string `yaml:"name" env:"ADMIN_GATE_COOKIE_NAME"`
	Domain   string `yaml:"domain" env:"ADMIN_GATE_COOKIE_DOMAIN"`
	Secure   bool   `yaml:"secure" env:"ADMIN_GATE_COOKIE_SECURE"`
	SameSite string `yaml:"same_site" env:"ADMIN_GATE_COOKIE_SAMESITE"`
	// SigningMethod is "", "hs256" or "ed25519".
	SigningMethod string `yaml:"signing_method" env:"ADMIN_GATE_COOKIE_SIGNING"`
	// Secret is the hex-encoded hs256 key.
	Secret         string `yaml:"secret" env:"ADMIN_GATE_COOKIE_SECRET"`
	PrivateKeyFile string `yaml:"private_key_file" env:"ADMIN_GATE_COOKIE_PRIVATE_KEY_FILE"`
	PublicKeyFile  string `yaml:"public_key_file" env:"ADMIN_GATE_COOKIE_PUBLIC_KEY_FILE"`
	Issuer         string `yaml:"issuer" env:"ADMIN_GATE_COOKIE_ISSUER"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"ADMIN_GATE_CORS_ORIGINS"`
	MaxAge         int      `yaml:"max_age" env:"ADMIN_GATE_CORS_MAX_AGE"`
}

type SecurityConfig struct {
	ProductionMode   bool          `yaml:"production_mode" env:"ADMIN_GATE_PRODUCTION"`
	MaxLoginAttempts int           `yaml:"max_login_attempts" env:"ADMIN_GATE_MAX_LOGIN_ATTEMPTS"`
	LoginCooldown    time.Duration `yaml:"login_cooldown" env:"ADMIN_GATE_LOGIN_COOLDOWN"`
	EnableIPThrottle bool          `yaml:"ip_throttle" env:"ADMIN_GATE_IP_THROTTLE"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"ADMIN_GATE_METRICS"`
	Latency bool `yaml:"latency_histograms" env:"ADMIN_GATE_METRICS_LATENCY"`
}

// AuditConfig writes audit events as JSON lines to Path, or stdout for "-".
type AuditConfig struct {
	Enabled    bool   `yaml:"enabled" env:"ADMIN_GATE_AUDIT"`
	Path       string `yaml:"path" env:"ADMIN_GATE_AUDIT_PATH"`
	BufferSize int    `yaml:"buffer_size" env:"ADMIN_GATE_AUDIT_BUFFER"`
}

type AdminEntry struct {
	ID           string `yaml:"id" env:"ADMIN_GATE_ADMIN_ID"`
	Username     string `yaml:"username" env:"ADMIN_GATE_ADMIN_USERNAME"`
	PasswordHash string `yaml:"password_hash" env:"ADMIN_GATE_ADMIN_PASSWORD_HASH"`
}

// Default returns the configuration used before any file or environment is applied.
func Default() Config {
	lib := adminGate.DefaultConfig()
	return Config{
		Addr:            ":8080",
		StaticDir:       "./public",
		StaticMaxAge:    24 * time.Hour,
		ShutdownTimeout: 10 * time.Second,
		Log:             LogConfig{Level: "info", Format: "json"},
		Session: SessionConfig{
			FreshnessWindow: lib.Session.FreshnessWindow,
			StoreTTL:        lib.Session.StoreTTL,
			RedisPrefix:     lib.Session.RedisPrefix,
		},
		Cookie: CookieConfig{
			Name:     lib.Cookie.Name,
			SameSite: "lax",
		},
		Security: SecurityConfig{
			MaxLoginAttempts: lib.Security.MaxLoginAttempts,
			LoginCooldown:    lib.Security.LoginCooldownDuration,
			EnableIPThrottle: lib.Security.EnableIPThrottle,
		},
		Audit: AuditConfig{Path: "-", BufferSize: lib.Audit.BufferSize},
	}
}

// Load applies path (when non-empty) and the environment on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the server-level fields. Guard settings are checked again by
// adminGate.Config.Validate when the Guard is built.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be > 0")
	}
	if _, err := adminGate.ParseSameSite(c.Cookie.SameSite); err != nil {
		return err
	}
	if c.Cookie.Secret != "" {
		if _, err := hex.DecodeString(c.Cookie.Secret); err != nil {
			return fmt.Errorf("cookie secret must be hex: %w", err)
		}
	}
	for i, a := range c.AdminRecords() {
		if a.ID == "" || a.Username == "" || a.PasswordHash == "" {
			return fmt.Errorf("admin %d requires id, username and password_hash", i)
		}
	}
	return nil
}

// AdminRecords returns the configured admins, file entries first.
func (c *Config) AdminRecords() []adminGate.AdminRecord {
	entries := c.Admins
	if c.Admin != (AdminEntry{}) {
		entries = append(entries[:len(entries):len(entries)], c.Admin)
	}

	out := make([]adminGate.AdminRecord, 0, len(entries))
	for _, a := range entries {
		out = append(out, adminGate.AdminRecord{
			ID:           a.ID,
			Username:     a.Username,
			PasswordHash: a.PasswordHash,
		})
	}
	return out
}

// GuardConfig maps c onto the library configuration, reading key files as needed.
func (c *Config) GuardConfig() (adminGate.Config, error) {
	cfg := adminGate.DefaultConfig()

	cfg.Session.FreshnessWindow = c.Session.FreshnessWindow
	cfg.Session.StoreTTL = c.Session.StoreTTL
	cfg.Session.RedisPrefix = c.Session.RedisPrefix

	sameSite, err := adminGate.ParseSameSite(c.Cookie.SameSite)
	if err != nil {
		return cfg, err
	}
	cfg.Cookie.Name = c.Cookie.Name
	cfg.Cookie.Domain = c.Cookie.Domain
	cfg.Cookie.Secure = c.Cookie.Secure
	cfg.Cookie.SameSite = sameSite
	cfg.Cookie.SigningMethod = strings.ToLower(c.Cookie.SigningMethod)
	cfg.Cookie.Issuer = c.Cookie.Issuer

	switch cfg.Cookie.SigningMethod {
	case "hs256":
		key, err := hex.DecodeString(c.Cookie.Secret)
		if err != nil {
			return cfg, fmt.Errorf("cookie secret: %w", err)
		}
		cfg.Cookie.PrivateKey = key
	case "ed25519":
		if cfg.Cookie.PrivateKey, err = os.ReadFile(c.Cookie.PrivateKeyFile); err != nil {
			return cfg, fmt.Errorf("read cookie private key: %w", err)
		}
		if cfg.Cookie.PublicKey, err = os.ReadFile(c.Cookie.PublicKeyFile); err != nil {
			return cfg, fmt.Errorf("read cookie public key: %w", err)
		}
	}

	cfg.Security.ProductionMode = c.Security.ProductionMode
	cfg.Security.MaxLoginAttempts = c.Security.MaxLoginAttempts
	cfg.Security.LoginCooldownDuration = c.Security.LoginCooldown
	cfg.Security.EnableIPThrottle = c.Security.EnableIPThrottle

	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Latency

	cfg.Audit.Enabled = c.Audit.Enabled
	cfg.Audit.BufferSize = c.Audit.BufferSize

	return cfg, cfg.Validate()
}
