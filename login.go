package adminGate

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/adminGate/internal/rate"
	"github.com/MrEthical07/adminGate/session"
)

// Login checks username and password against the configured [AdminProvider] and,
// on success, starts a session on h through [Guard.CreateSession].
//
// Unknown usernames and wrong passwords both return [ErrInvalidCredentials] after
// the same amount of hashing work. While the username or the client IP (see
// [WithClientIP]) is over its attempt budget, Login returns [ErrLoginRateLimited]
// without checking the password.
//
//	Flow: throttle check → provider lookup → argon2id verify → throttle reset → CreateSession
func (g *Guard) Login(ctx context.Context, h *session.Handle, username, password string) (Principal, error) {
	if g == nil || g.store == nil || g.hasher == nil {
		return Principal{}, ErrEngineNotReady
	}
	if g.admins == nil {
		return Principal{}, fmt.Errorf("%w: no admin provider", ErrEngineNotReady)
	}

	ip := clientIPFromContext(ctx)

	if g.limiter != nil {
		if err := g.limiter.CheckLogin(ctx, username, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				g.metricInc(MetricLoginRateLimited)
				g.logger.WarnContext(ctx, "login.rate_limited", "username", username, "ip", ip)
				g.emitAudit(ctx, auditEventLoginRateLimited, false, Principal{Username: username}, ErrLoginRateLimited, nil)
				return Principal{}, ErrLoginRateLimited
			}
			return Principal{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	admin, err := g.admins.GetAdminByUsername(ctx, username)
	found := err == nil && admin.PasswordHash != ""
	if err != nil && !errors.Is(err, ErrAdminNotFound) {
		g.logger.ErrorContext(ctx, "login.provider.fail", "error", err)
		return Principal{}, fmt.Errorf("admin lookup: %w", err)
	}

	hash := g.hasher.DummyHash()
	if found {
		hash = admin.PasswordHash
	}
	ok, verr := g.hasher.Verify(password, hash)
	if verr != nil && found {
		g.logger.WarnContext(ctx, "login.hash.invalid", "admin_id", admin.ID, "error", verr)
	}

	if !found || !ok || verr != nil {
		return Principal{}, g.loginFailed(ctx, username, ip)
	}

	if g.limiter != nil {
		if err := g.limiter.ResetLogin(ctx, username); err != nil {
			g.logger.WarnContext(ctx, "login.throttle.reset_fail", "error", err)
		}
	}

	g.upgradeHash(ctx, admin, password)

	principal := Principal{ID: admin.ID, Username: admin.Username}
	if err := g.CreateSession(ctx, h, principal); err != nil {
		return Principal{}, err
	}

	g.metricInc(MetricLoginSuccess)
	g.logger.InfoContext(ctx, "login.accepted", "admin_id", principal.ID, "ip", ip)
	g.emitAudit(ctx, auditEventLoginSuccess, true, principal, nil, nil)
	return principal, nil
}

func (g *Guard) loginFailed(ctx context.Context, username, ip string) error {
	if g.limiter != nil {
		if err := g.limiter.IncrementLogin(ctx, username, ip); err != nil {
			g.logger.WarnContext(ctx, "login.throttle.increment_fail", "error", err)
		}
	}

	g.metricInc(MetricLoginFailure)
	g.logger.InfoContext(ctx, "login.rejected", "username", username, "ip", ip)
	g.emitAudit(ctx, auditEventLoginFailure, false, Principal{Username: username}, ErrInvalidCredentials, nil)
	return ErrInvalidCredentials
}

func (g *Guard) upgradeHash(ctx context.Context, admin AdminRecord, plaintext string) {
	if !g.config.Password.UpgradeOnLogin {
		return
	}
	updater, ok := g.admins.(PasswordHashUpdater)
	if !ok {
		return
	}
	needs, err := g.hasher.NeedsUpgrade(admin.PasswordHash)
	if err != nil || !needs {
		return
	}

	newHash, err := g.hasher.Hash(plaintext)
	if err != nil {
		g.logger.WarnContext(ctx, "login.hash.upgrade_fail", "admin_id", admin.ID, "error", err)
		return
	}
	if err := updater.UpdatePasswordHash(ctx, admin.ID, newHash); err != nil {
		g.logger.WarnContext(ctx, "login.hash.upgrade_fail", "admin_id", admin.ID, "error", err)
		return
	}
	g.logger.InfoContext(ctx, "login.hash.upgraded", "admin_id", admin.ID)
}

// Logout destroys the session bound to h. It is safe to call without a session.
func (g *Guard) Logout(ctx context.Context, h *session.Handle) error {
	if err := g.DestroySession(ctx, h); err != nil {
		return err
	}
	g.metricInc(MetricLogout)
	return nil
}
