// Command admin-gate serves an admin single-page application behind
// session authentication.
//
// Usage:
//
//	admin-gate [-config admin-gate.yaml]
//	admin-gate hash-password < password.txt
//
// Configuration is read from the optional YAML file and ADMIN_GATE_*
// environment variables. Sessions live in Redis when REDIS_ADDR is set and in
// process memory otherwise.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminGate "github.com/MrEthical07/adminGate"
	"github.com/MrEthical07/adminGate/internal/appconfig"
	"github.com/MrEthical07/adminGate/internal/logging"
	"github.com/MrEthical07/adminGate/metrics/export/otel"
	"github.com/MrEthical07/adminGate/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	otelglobal "go.opentelemetry.io/otel"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		os.Exit(runHashPassword(os.Args[2:], os.Stdin, os.Stdout, os.Stderr))
	}
	os.Exit(runServe(os.Args[1:]))
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("admin-gate", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("ADMIN_GATE_CONFIG"), "path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "admin-gate: %v\n", err)
		return 2
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "admin-gate: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("server.fail", "error", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg appconfig.Config, logger *slog.Logger) error {
	guard, cleanup, err := buildGuard(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logSecurityReport(logger, guard.SecurityReport())

	if cfg.Metrics.Enabled {
		exp, err := otel.New(otelglobal.GetMeterProvider().Meter("github.com/MrEthical07/adminGate"), guard)
		if err != nil {
			return fmt.Errorf("otel exporter: %w", err)
		}
		defer exp.Close()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(guard, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listen", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("server.shutdown", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildGuard wires the configured session backend and audit sink into a Guard.
func buildGuard(ctx context.Context, cfg appconfig.Config, logger *slog.Logger) (*adminGate.Guard, func(), error) {
	guardCfg, err := cfg.GuardConfig()
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	admins := cfg.AdminRecords()
	if len(admins) == 0 {
		logger.Warn("login.no_admins", "hint", "set ADMIN_GATE_ADMIN_* or admins in the config file")
	}

	b := adminGate.New().
		WithConfig(guardCfg).
		WithLogger(logger).
		WithAdminProvider(adminGate.NewStaticAdmins(admins...))

	client, closeRedis, err := openRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return nil, nil, err
	}
	if client != nil {
		closers = append(closers, closeRedis)
		b = b.WithRedis(client)
	} else {
		logger.Info("session.store.memory")
		b = b.WithStore(session.NewMemoryStore(guardCfg.Session.StoreTTL))
	}

	if cfg.Audit.Enabled {
		w, closeAudit, err := openAuditWriter(cfg.Audit.Path)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, closeAudit)
		b = b.WithAuditSink(adminGate.NewJSONWriterSink(w))
	}

	guard, err := b.Build()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("build guard: %w", err)
	}
	closers = append(closers, guard.Close)
	return guard, cleanup, nil
}

// openRedis returns nil without error when no Redis is configured.
func openRedis(ctx context.Context, cfg appconfig.RedisConfig, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	addr := cfg.Addr
	var mr *miniredis.Miniredis
	if addr == "" {
		if !cfg.Embedded {
			return nil, nil, nil
		}
		var err error
		if mr, err = miniredis.Run(); err != nil {
			return nil, nil, fmt.Errorf("start embedded redis: %w", err)
		}
		addr = mr.Addr()
		logger.Warn("session.store.embedded_redis", "addr", addr)
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	closeFn := func() {
		_ = client.Close()
		if mr != nil {
			mr.Close()
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	logger.Info("session.store.redis", "addr", addr)
	return client, closeFn, nil
}

func openAuditWriter(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func logSecurityReport(logger *slog.Logger, r adminGate.SecurityReport) {
	logger.Info("security.report",
		"production_mode", r.ProductionMode,
		"freshness_window", r.FreshnessWindow,
		"store_ttl", r.StoreTTL,
		"cookie_signed", r.CookieSigned,
		"signing_algorithm", r.SigningAlgorithm,
		"secure_cookies", r.SecureCookies,
		"same_site", r.SameSite,
		"rate_limiting", r.RateLimitingActive,
		"ip_throttle", r.IPThrottleActive,
		"audit", r.AuditEnabled,
		"argon2_memory_kb", r.Argon2.Memory,
		"argon2_time", r.Argon2.Time,
	)
	if !r.SecureCookies {
		logger.Warn("security.insecure_cookies", "hint", "set cookie.secure behind TLS")
	}
}
