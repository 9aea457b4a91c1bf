package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, "ag", time.Hour)
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func testRecord() *Record {
	return &Record{
		AdminID:       "42",
		AdminUsername: "admin",
		LastActivity:  time.Now().Unix(),
		CSRFToken:     "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
	}
}

func TestRedisStoreSaveLoad(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	want := testRecord()
	if err := store.Save(ctx, "sid-1", want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Load(ctx, "sid-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *got != *want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	if ttl := mr.TTL("ag:sid-1"); ttl != time.Hour {
		t.Fatalf("expected TTL 1h, got %s", ttl)
	}
}

func TestRedisStoreLoadMissing(t *testing.T) {
	store, _, done := newRedisStoreTest(t)
	defer done()

	if _, err := store.Load(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisStoreDeleteIdempotent(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Save(ctx, "sid-1", testRecord()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if mr.Exists("ag:sid-1") {
		t.Fatal("expected key to be gone")
	}
}

func TestRedisStoreRotateMovesRecord(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	want := testRecord()
	if err := store.Save(ctx, "old", want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Rotate(ctx, "old", "new"); err != nil {
		t.Fatalf("rotate failed: %v", err)
	}

	if _, err := store.Load(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected old id to be unbound, got %v", err)
	}
	got, err := store.Load(ctx, "new")
	if err != nil {
		t.Fatalf("load new failed: %v", err)
	}
	if *got != *want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if ttl := mr.TTL("ag:new"); ttl <= 0 {
		t.Fatalf("expected rotated key to carry a TTL, got %s", ttl)
	}
}

func TestRedisStoreRotateMissingIsNoop(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()

	if err := store.Rotate(context.Background(), "ghost", "new"); err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if mr.Exists("ag:new") {
		t.Fatal("expected no record for new id")
	}
}

func TestRedisStoreCorruptBlobTreatedAsAbsent(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()

	if err := mr.Set("ag:bad", "garbage"); err != nil {
		t.Fatalf("seed corrupt blob failed: %v", err)
	}
	if _, err := store.Load(context.Background(), "bad"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for corrupt blob, got %v", err)
	}
	if mr.Exists("ag:bad") {
		t.Fatal("expected corrupt blob to be removed")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	mr.Close()

	_, err := store.Load(context.Background(), "sid-1")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}

func TestRedisStoreTouchOnlyUpdatesExisting(t *testing.T) {
	store, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Touch(ctx, "gone", testRecord()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists("ag:gone") {
		t.Fatal("touch must not create a missing key")
	}

	rec := testRecord()
	if err := store.Save(ctx, "sid-1", rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	mr.FastForward(30 * time.Minute)
	rec.LastActivity++
	if err := store.Touch(ctx, "sid-1", rec); err != nil {
		t.Fatalf("touch failed: %v", err)
	}
	got, err := store.Load(ctx, "sid-1")
	if err != nil || got.LastActivity != rec.LastActivity {
		t.Fatalf("expected touched record, got %+v err=%v", got, err)
	}
	if ttl := mr.TTL("ag:sid-1"); ttl != time.Hour {
		t.Fatalf("expected TTL reset to 1h, got %s", ttl)
	}
}
