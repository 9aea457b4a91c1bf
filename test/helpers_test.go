//go:build integration
// +build integration

package test

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	adminGate "github.com/MrEthical07/adminGate"
	"github.com/MrEthical07/adminGate/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var admin = adminGate.Principal{ID: "1", Username: "root"}

// cmdCounter is a go-redis Hook that counts Redis commands.
type cmdCounter struct {
	commands atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset()          { h.commands.Store(0) }
func (h *cmdCounter) Commands() int64 { return h.commands.Load() }

type clock struct {
	now atomic.Int64
}

func (c *clock) Now() time.Time          { return time.Unix(c.now.Load(), 0) }
func (c *clock) Advance(d time.Duration) { c.now.Add(int64(d / time.Second)) }

func integrationConfig() adminGate.Config {
	cfg := adminGate.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

// newIntegrationGuard builds a Redis-backed Guard on miniredis with a command
// counter installed. Reset the counter before each measured operation.
func newIntegrationGuard(t *testing.T) (*adminGate.Guard, *cmdCounter, *clock) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counter := &cmdCounter{}
	rdb.AddHook(counter)

	c := &clock{}
	c.now.Store(1_700_000_000)

	g, err := adminGate.New().WithConfig(integrationConfig()).WithRedis(rdb).WithClock(c.Now).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() {
		g.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return g, counter, c
}

func login(t *testing.T, g *adminGate.Guard) (string, string) {
	t.Helper()
	h := session.NewHandle(g.Store(), "")
	if err := g.CreateSession(context.Background(), h, admin); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	token, err := g.CSRFToken(context.Background(), h)
	if err != nil {
		t.Fatalf("CSRFToken failed: %v", err)
	}
	return h.ID(), token
}
