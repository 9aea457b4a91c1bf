package adminGate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/adminGate/session"
)

var testPrincipal = Principal{ID: "42", Username: "admin"}

func startSession(t *testing.T, g *Guard) *session.Handle {
	t.Helper()
	h := session.NewHandle(g.Store(), "")
	if err := g.CreateSession(context.Background(), h, testPrincipal); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return h
}

// sameCookie simulates the next request arriving with the same session id.
func sameCookie(g *Guard, h *session.Handle) *session.Handle {
	return session.NewHandle(g.Store(), h.ID())
}

func TestRequireAuthRequiresBothPrincipalFields(t *testing.T) {
	testBackends(t, func(t *testing.T, b *Builder) {
		clock := newTestClock()
		g := buildGuard(t, b, clock)
		ctx := context.Background()

		cases := map[string]*session.Record{
			"empty":       {},
			"no username": {AdminID: "42"},
			"no id":       {AdminUsername: "admin"},
		}
		for name, rec := range cases {
			h := session.NewHandle(g.Store(), "sid-"+name)
			if err := h.Save(ctx, rec); err != nil {
				t.Fatalf("%s: seed failed: %v", name, err)
			}
			if _, err := g.RequireAuth(ctx, h); !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("%s: expected ErrUnauthenticated, got %v", name, err)
			}
		}

		if _, err := g.RequireAuth(ctx, session.NewHandle(g.Store(), "")); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("anonymous handle: expected ErrUnauthenticated, got %v", err)
		}
		if _, err := g.RequireAuth(ctx, session.NewHandle(g.Store(), "never-issued")); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("unknown id: expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestRequireAuthUnsetLastActivityIsFresh(t *testing.T) {
	testBackends(t, func(t *testing.T, b *Builder) {
		clock := newTestClock()
		g := buildGuard(t, b, clock)
		ctx := context.Background()

		h := session.NewHandle(g.Store(), "legacy")
		if err := h.Save(ctx, &session.Record{AdminID: "42", AdminUsername: "admin"}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		p, err := g.RequireAuth(ctx, h)
		if err != nil {
			t.Fatalf("RequireAuth failed: %v", err)
		}
		if p != testPrincipal {
			t.Fatalf("expected %+v, got %+v", testPrincipal, p)
		}
	})
}

func TestRequireAuthTouchesLastActivity(t *testing.T) {
	testBackends(t, func(t *testing.T, b *Builder) {
		clock := newTestClock()
		g := buildGuard(t, b, clock)
		ctx := context.Background()

		h := startSession(t, g)
		clock.Advance(10 * time.Hour)

		if _, err := g.RequireAuth(ctx, h); err != nil {
			t.Fatalf("RequireAuth failed: %v", err)
		}

		rec, err := sameCookie(g, h).Load(ctx)
		if err != nil || rec == nil {
			t.Fatalf("reload failed: rec=%v err=%v", rec, err)
		}
		if rec.LastActivity != clock.Now().Unix() {
			t.Fatalf("expected LastActivity=%d, got %d", clock.Now().Unix(), rec.LastActivity)
		}
	})
}

func TestRequireAuthFreshnessBoundary(t *testing.T) {
	testBackends(t, func(t *testing.T, b *Builder) {
		clock := newTestClock()
		g := buildGuard(t, b, clock)
		ctx := context.Background()

		h := startSession(t, g)
		clock.Advance(24 * time.Hour)
		if _, err := g.RequireAuth(ctx, sameCookie(g, h)); err != nil {
			t.Fatalf("exactly at the window must still be fresh: %v", err)
		}

		clock.Advance(24*time.Hour + time.Second)
		if _, err := g.RequireAuth(ctx, sameCookie(g, h)); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})
}

func TestRequireAuthExpiryPurgesRecord(t *testing.T) {
	testBackends(t, func(t *testing.T, b *Builder) {
		clock := newTestClock()
		g := buildGuard(t, b, clock)
		ctx := context.Background()

		h := startSession(t, g)
		clock.Advance(24*time.Hour + time.Second)

		if _, err := g.RequireAuth(ctx, h); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}

		if _, err := g.Store().Load(ctx, h.ID()); !errors.Is(err, session.ErrNotFound) {
			t.Fatalf("expected record to be purged, got %v", err)
		}
		if _, err := g.RequireAuth(ctx, sameCookie(g, h)); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated after purge, got %v", err)
		}
		if _, err := g.RequireAuth(ctx, h); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected same handle to report ErrUnauthenticated, got %v", err)
		}
	})
}

// racingLogoutStore deletes the record right after the next Load, as if a
// logout ran between RequireAuth reading and refreshing the session.
type racingLogoutStore struct {
	session.Store
	armed bool
}

func (s *racingLogoutStore) Load(ctx context.Context, id string) (*session.Record, error) {
	r, err := s.Store.Load(ctx, id)
	if s.armed {
		s.armed = false
		_ = s.Store.Delete(ctx, id)
	}
	return r, err
}

func storeBackends(t *testing.T, fn func(t *testing.T, inner session.Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, session.NewMemoryStore(time.Hour))
	})
	t.Run("redis", func(t *testing.T) {
		_, rdb := newTestRedis(t)
		fn(t, session.NewRedisStore(rdb, "ag", 0))
	})
}

func TestRequireAuthDoesNotResurrectConcurrentLogout(t *testing.T) {
	storeBackends(t, func(t *testing.T, inner session.Store) {
		store := &racingLogoutStore{Store: inner}
		clock := newTestClock()
		g := buildGuard(t, New().WithConfig(testConfig()).WithStore(store).WithMetricsEnabled(true), clock)
		ctx := context.Background()

		h := startSession(t, g)
		clock.Advance(time.Minute)
		store.armed = true

		if _, err := g.RequireAuth(ctx, sameCookie(g, h)); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
		if rec, err := inner.Load(ctx, h.ID()); !errors.Is(err, session.ErrNotFound) {
			t.Fatalf("destroyed session came back: rec=%+v err=%v", rec, err)
		}
		if got := g.MetricsSnapshot().Counters[MetricAuthRejected]; got != 1 {
			t.Fatalf("expected 1 auth rejection, got %d", got)
		}
	})
}

// failingSaveStore fails every Save once armed.
type failingSaveStore struct {
	session.Store
	armed bool
}

func (s *failingSaveStore) Save(ctx context.Context, id string, r *session.Record) error {
	if s.armed {
		return errors.New("write refused")
	}
	return s.Store.Save(ctx, id, r)
}

func TestCreateSessionSaveFailureDropsPreviousSession(t *testing.T) {
	storeBackends(t, func(t *testing.T, inner session.Store) {
		store := &failingSaveStore{Store: inner}
		g := buildGuard(t, New().WithConfig(testConfig()).WithStore(store), newTestClock())
		ctx := context.Background()

		h := startSession(t, g)
		oldID := h.ID()
		store.armed = true

		err := g.CreateSession(ctx, h, Principal{ID: "7", Username: "other"})
		if !errors.Is(err, ErrSessionCreationFailed) {
			t.Fatalf("expected ErrSessionCreationFailed, got %v", err)
		}
		for _, id := range []string{oldID, h.ID()} {
			if _, err := inner.Load(ctx, id); !errors.Is(err, session.ErrNotFound) {
				t.Fatalf("expected %q to hold no session, got %v", id, err)
			}
		}
		if _, err := g.RequireAuth(ctx, sameCookie(g, h)); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestCreateSessionOversizedPrincipalKeepsIdentifier(t *testing.T) {
	g := buildGuard(t, New().WithConfig(testConfig()).WithStore(session.NewMemoryStore(time.Hour)), newTestClock())
	ctx := context.Background()

	h := startSession(t, g)
	oldID := h.ID()

	err := g.CreateSession(ctx, h, Principal{ID: "7", Username: strings.Repeat("u", 70_000)})
	if !errors.Is(err, ErrSessionCreationFailed) {
		t.Fatalf("expected ErrSessionCreationFailed, got %v", err)
	}
	if h.ID() != oldID {
		t.Fatalf("rejected record must not rotate the id: %q -> %q", oldID, h.ID())
	}

	long := Principal{ID: "7", Username: strings.Repeat("u", 1024)}
	if err := g.CreateSession(ctx, h, long); err != nil {
		t.Fatalf("expected long username to be accepted, got %v", err)
	}
	got, err := g.RequireAuth(ctx, sameCookie(g, h))
	if err != nil || got != long {
		t.Fatalf("expected %d-byte username back, got %d err=%v", len(long.Username), len(got.Username), err)
	}
}

func TestCreateSessionRotatesIdentifier(t *testing.T) {
	testBackends(t, func(t *testing.T, b *Builder) {
		g := buildGuard(t, b, newTestClock())
		ctx := context.Background()

		h := session.NewHandle(g.Store(), "pre-login")
		if err := h.Save(ctx, &session.Record{}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		if err := g.CreateSession(ctx, h, testPrincipal); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
		if h.ID() == "pre-login" || h.ID() == "" {
			t.Fatalf("expected rotated id, got %q", h.ID())
		}
		if _, err := g.Store().Load(ctx, "pre-login"); !errors.Is(err, session.ErrNotFound) {
			t.Fatalf("expected old id unbound, got %v", err)
		}

		p, err := g.RequireAuth(ctx, sameCookie(g, h))
		if err != nil {
			t.Fatalf("RequireAuth after CreateSession failed: %v", err)
		}
		if p != testPrincipal {
			t.Fatalf("expected %+v, got %+v", testPrincipal, p)
		}
	})
}

func TestCreateSessionRejectsIncompletePrincipal(t *testing.T) {
	g := buildGuard(t, New().WithConfig(testConfig()).WithStore(session.NewMemoryStore(time.Hour)), nil)
	h := session.NewHandle(g.Store(), "")

	err := g.CreateSession(context.Background(), h, Principal{ID: "42"})
	if !errors.Is(err, ErrSessionCreationFailed) {
		t.Fatalf("expected ErrSessionCreationFailed, got %v", err)
	}
	if h.ID() != "" {
		t.Fatal("handle must not be rotated for a rejected principal")
	}
}

func TestCreateSessionStoreFailureIsReturned(t *testing.T) {
	mr, rdb := newTestRedis(t)
	g := buildGuard(t, New().WithConfig(testConfig()).WithRedis(rdb), nil)
	mr.Close()

	err := g.CreateSession(context.Background(), session.NewHandle(g.Store(), "old"), testPrincipal)
	if !errors.Is(err, ErrSessionCreationFailed) {
		t.Fatalf("expected ErrSessionCreationFailed, got %v", err)
	}
}

func TestValidateCSRF(t *testing.T) {
	testBackends(t, func(t *testing.T, b *Builder) {
		g := buildGuard(t, b, newTestClock())
		ctx := context.Background()

		h := startSession(t, g)
		token, err := g.CSRFToken(ctx, h)
		if err != nil {
			t.Fatalf("CSRFToken failed: %v", err)
		}
		if len(token) != 64 {
			t.Fatalf("expected 64-char token, got %d", len(token))
		}

		if !g.ValidateCSRF(ctx, sameCookie(g, h), token) {
			t.Fatal("expected exact token to validate")
		}
		for i := range token {
			mutated := []byte(token)
			if mutated[i] == 'a' {
				mutated[i] = 'b'
			} else {
				mutated[i] = 'a'
			}
			if g.ValidateCSRF(ctx, h, string(mutated)) {
				t.Fatalf("mutation at %d validated", i)
			}
		}
		for _, bad := range []string{"", token[:63], token + "0"} {
			if g.ValidateCSRF(ctx, h, bad) {
				t.Fatalf("expected %q to be rejected", bad)
			}
		}
	})
}

func TestValidateCSRFDoesNotTouchSession(t *testing.T) {
	testBackends(t, func(t *testing.T, b *Builder) {
		clock := newTestClock()
		g := buildGuard(t, b, clock)
		ctx := context.Background()

		h := startSession(t, g)
		created := clock.Now().Unix()
		token, _ := g.CSRFToken(ctx, h)

		clock.Advance(time.Hour)
		if !g.ValidateCSRF(ctx, sameCookie(g, h), token) {
			t.Fatal("expected token to validate")
		}

		rec, err := sameCookie(g, h).Load(ctx)
		if err != nil || rec == nil {
			t.Fatalf("reload failed: rec=%v err=%v", rec, err)
		}
		if rec.LastActivity != created {
			t.Fatalf("ValidateCSRF moved LastActivity from %d to %d", created, rec.LastActivity)
		}
	})
}

func TestValidateCSRFWithoutSession(t *testing.T) {
	g := buildGuard(t, New().WithConfig(testConfig()).WithStore(session.NewMemoryStore(time.Hour)), nil)
	ctx := context.Background()

	if g.ValidateCSRF(ctx, nil, "x") {
		t.Fatal("nil handle validated")
	}
	if g.ValidateCSRF(ctx, session.NewHandle(g.Store(), ""), "") {
		t.Fatal("empty candidate against absent session validated")
	}
	if _, err := g.CSRFToken(ctx, session.NewHandle(g.Store(), "")); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestDestroySessionThenRequireAuth(t *testing.T) {
	testBackends(t, func(t *testing.T, b *Builder) {
		g := buildGuard(t, b, newTestClock())
		ctx := context.Background()

		h := startSession(t, g)
		stale := sameCookie(g, h)

		if err := g.DestroySession(ctx, h); err != nil {
			t.Fatalf("DestroySession failed: %v", err)
		}
		if err := g.DestroySession(ctx, h); err != nil {
			t.Fatalf("second DestroySession failed: %v", err)
		}
		if _, err := g.RequireAuth(ctx, stale); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestReloginIssuesNewCSRFToken(t *testing.T) {
	testBackends(t, func(t *testing.T, b *Builder) {
		g := buildGuard(t, b, newTestClock())
		ctx := context.Background()

		h := startSession(t, g)
		first, _ := g.CSRFToken(ctx, h)
		firstID := h.ID()

		if err := g.CreateSession(ctx, h, testPrincipal); err != nil {
			t.Fatalf("second CreateSession failed: %v", err)
		}
		second, _ := g.CSRFToken(ctx, h)

		if first == second {
			t.Fatal("expected a new CSRF token on re-login")
		}
		if firstID == h.ID() {
			t.Fatal("expected a new session id on re-login")
		}
		if g.ValidateCSRF(ctx, h, first) {
			t.Fatal("previous CSRF token still validates")
		}
	})
}

func TestRequireAuthStoreFailure(t *testing.T) {
	mr, rdb := newTestRedis(t)
	g := buildGuard(t, New().WithConfig(testConfig()).WithRedis(rdb).WithMetricsEnabled(true), newTestClock())
	h := startSession(t, g)
	mr.Close()

	_, err := g.RequireAuth(context.Background(), sameCookie(g, h))
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if errors.Is(err, ErrUnauthenticated) {
		t.Fatal("store failure must not look like a missing session")
	}
	if got := g.MetricsSnapshot().Counters[MetricStoreFailure]; got != 1 {
		t.Fatalf("expected 1 store failure, got %d", got)
	}
	if err := g.Ping(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected Ping to fail, got %v", err)
	}
}

func TestNilGuard(t *testing.T) {
	var g *Guard
	if _, err := g.RequireAuth(context.Background(), nil); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if g.ValidateCSRF(context.Background(), nil, "x") {
		t.Fatal("nil guard validated CSRF")
	}
}

func TestBuildRequiresStore(t *testing.T) {
	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("expected Build to fail without a store")
	}

	b := New().WithConfig(testConfig()).WithStore(session.NewMemoryStore(time.Hour))
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer g.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected builder reuse to fail")
	}
}

func TestSecurityReport(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := testConfig()
	cfg.Cookie.SigningMethod = "hs256"
	cfg.Cookie.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	g := buildGuard(t, New().WithConfig(cfg).WithRedis(rdb), nil)

	r := g.SecurityReport()
	if !r.CookieSigned || r.SigningAlgorithm != "hs256" {
		t.Fatalf("expected signed cookies, got %+v", r)
	}
	if !r.RateLimitingActive || !r.IPThrottleActive {
		t.Fatalf("expected throttling active with redis, got %+v", r)
	}
	if r.FreshnessWindow != 24*time.Hour || r.SameSite != "lax" {
		t.Fatalf("unexpected report %+v", r)
	}
}
