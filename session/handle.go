package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/adminGate/internal"
)

// ErrNotStarted is returned by Handle.Save when no identifier has been bound yet.
var ErrNotStarted = errors.New("session not started")

// Handle is one request's view of one session: an identifier, the [Store] it lives
// in, and the record loaded for it. A Handle is not safe for concurrent use; create
// one per request.
type Handle struct {
	store Store
	id    string

	record *Record
	loaded bool

	onRotate  func(newID string)
	onDestroy func()
}

// HandleOption configures a [Handle].
type HandleOption func(*Handle)

// OnRotate registers fn to run after the identifier changes. The cookie layer uses
// it to re-issue the session cookie.
func OnRotate(fn func(newID string)) HandleOption {
	return func(h *Handle) { h.onRotate = fn }
}

// OnDestroy registers fn to run after the session is destroyed.
func OnDestroy(fn func()) HandleOption {
	return func(h *Handle) { h.onDestroy = fn }
}

// NewHandle binds id to store. An empty id is an anonymous handle with no record.
func NewHandle(store Store, id string, opts ...HandleOption) *Handle {
	h := &Handle{store: store, id: id}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ID returns the currently bound identifier, or "" for an anonymous handle.
func (h *Handle) ID() string {
	return h.id
}

// Load returns a copy of the bound record, or nil when none exists. The first call
// reads the store; later calls are served from the handle.
func (h *Handle) Load(ctx context.Context) (*Record, error) {
	if h.loaded {
		return h.record.Clone(), nil
	}
	if h.id == "" {
		h.loaded = true
		return nil, nil
	}

	r, err := h.store.Load(ctx, h.id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.record, h.loaded = nil, true
			return nil, nil
		}
		return nil, err
	}

	h.record, h.loaded = r, true
	return r.Clone(), nil
}

// Save writes r under the bound identifier.
func (h *Handle) Save(ctx context.Context, r *Record) error {
	if h.id == "" {
		return ErrNotStarted
	}
	if err := h.store.Save(ctx, h.id, r); err != nil {
		return err
	}
	h.record, h.loaded = r.Clone(), true
	return nil
}

// Touch rewrites r under the bound identifier only if the store still holds a
// record for it. A session deleted concurrently yields [ErrNotFound] and the
// handle then reports no record.
func (h *Handle) Touch(ctx context.Context, r *Record) error {
	if h.id == "" {
		return ErrNotFound
	}
	if err := h.store.Touch(ctx, h.id, r); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.record, h.loaded = nil, true
		}
		return err
	}
	h.record, h.loaded = r.Clone(), true
	return nil
}

// Regenerate mints a new identifier and moves any existing data onto it. The old
// identifier no longer resolves afterwards.
func (h *Handle) Regenerate(ctx context.Context) error {
	newID, err := internal.NewSessionID()
	if err != nil {
		return fmt.Errorf("generate session id: %w", err)
	}

	if h.id != "" {
		if err := h.store.Rotate(ctx, h.id, newID); err != nil {
			return err
		}
	}

	h.id = newID
	if h.onRotate != nil {
		h.onRotate(newID)
	}
	return nil
}

// Destroy removes every piece of state bound to the identifier. It is a no-op for
// anonymous handles and safe to call repeatedly.
func (h *Handle) Destroy(ctx context.Context) error {
	if h.id != "" {
		if err := h.store.Delete(ctx, h.id); err != nil {
			return err
		}
	}

	h.record, h.loaded = nil, true
	if h.onDestroy != nil {
		h.onDestroy()
	}
	return nil
}

type handleContextKey struct{}

// NewContext returns a copy of ctx carrying h.
func NewContext(ctx context.Context, h *Handle) context.Context {
	return context.WithValue(ctx, handleContextKey{}, h)
}

// FromContext returns the handle attached by NewContext.
func FromContext(ctx context.Context) (*Handle, bool) {
	if ctx == nil {
		return nil, false
	}
	h, ok := ctx.Value(handleContextKey{}).(*Handle)
	return h, ok && h != nil
}
