package adminGate

import (
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/adminGate/password"
	"github.com/MrEthical07/adminGate/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// testConfig keeps argon2 cheap enough for unit tests.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Security.MaxLoginAttempts = 3
	cfg.Security.LoginCooldownDuration = time.Minute
	return cfg
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func newTestHasher(t testing.TB) *password.Argon2 {
	t.Helper()

	cfg := testConfig().Password
	h, err := password.NewArgon2(password.Config{
		Memory:      cfg.Memory,
		Time:        cfg.Time,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return h
}

// testBackends runs fn once against the memory store and once against a
// miniredis-backed Redis store.
func testBackends(t *testing.T, fn func(t *testing.T, b *Builder)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, New().WithConfig(testConfig()).WithStore(session.NewMemoryStore(time.Hour)))
	})
	t.Run("redis", func(t *testing.T) {
		_, rdb := newTestRedis(t)
		fn(t, New().WithConfig(testConfig()).WithRedis(rdb))
	})
}

func buildGuard(t *testing.T, b *Builder, clock *testClock) *Guard {
	t.Helper()

	if clock != nil {
		b = b.WithClock(clock.Now)
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(g.Close)
	return g
}
