package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/shivamghaware/BlogIn/internal/errors"
	"github.com/shivamghaware/BlogIn/internal/events"
	"github.com/shivamghaware/BlogIn/internal/metrics"
)

// Change is one element of Adapter.WriteMany. Value is JSON-encoded
// unless Delete is set.
type Change struct {
	Key    string
	Value  any
	Delete bool
}

// Adapter is the persistence capability handed to repositories: JSON
// encoding over a KV backend, with a change event after every write.
type Adapter struct {
	kv      KV
	bus     *events.Bus
	locks   *KeyedMutex
	latency time.Duration
}

type Option func(*Adapter)

// WithLatency delays every repository operation by d to emulate a network hop.
func WithLatency(d time.Duration) Option {
	return func(a *Adapter) { a.latency = d }
}

// NewAdapter wires kv to bus. A nil bus gets a private one.
func NewAdapter(kv KV, bus *events.Bus, opts ...Option) *Adapter {
	if bus == nil {
		bus = events.NewBus("local")
	}
	a := &Adapter{kv: kv, bus: bus, locks: NewKeyedMutex()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Bus() *events.Bus { return a.bus }

// Lookup decodes key into a T. The bool is false when the key is absent,
// undecodable or the backend failed; those cases never surface as errors.
func Lookup[T any](ctx context.Context, a *Adapter, key string) (T, bool) {
	var v T
	raw, err := a.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			metrics.StoreReadFallbacks.Inc()
			logg.Error("store", "Read failed for key "+key+", using default", err)
		}
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		metrics.StoreReadFallbacks.Inc()
		logg.Error("store", "Corrupted value for key "+key+", using default", err)
		var zero T
		return zero, false
	}
	return v, true
}

// ReadOr returns the decoded value of key, or def.
func ReadOr[T any](ctx context.Context, a *Adapter, key string, def T) T {
	if v, ok := Lookup[T](ctx, a, key); ok {
		return v
	}
	return def
}

// Exists reports whether key holds a value.
func (a *Adapter) Exists(ctx context.Context, key string) bool {
	_, err := a.kv.Get(ctx, key)
	return err == nil
}

// Write stores value under key and publishes one event for ref.
func (a *Adapter) Write(ctx context.Context, key string, value any, ref events.Ref) error {
	return a.WriteMany(ctx, []Change{{Key: key, Value: value}}, ref)
}

// Remove deletes key and publishes one event for ref.
func (a *Adapter) Remove(ctx context.Context, key string, ref events.Ref) error {
	return a.WriteMany(ctx, []Change{{Key: key, Delete: true}}, ref)
}

// WriteMany applies every change atomically, then publishes one event.
// On failure nothing is published and the error wraps ErrStorageUnavailable.
func (a *Adapter) WriteMany(ctx context.Context, changes []Change, ref events.Ref) error {
	entries := make([]Entry, 0, len(changes))
	for _, c := range changes {
		if c.Delete {
			entries = append(entries, Entry{Key: c.Key, Delete: true})
			continue
		}
		raw, err := json.Marshal(c.Value)
		if err != nil {
			return a.writeFailed(c.Key, fmt.Errorf("encode: %w", err))
		}
		entries = append(entries, Entry{Key: c.Key, Value: raw})
	}

	if len(entries) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.kv.SetMany(ctx, entries); err != nil {
		return a.writeFailed(entries[0].Key, err)
	}

	metrics.StoreWrites.WithLabelValues("ok").Inc()
	a.bus.Changed(ref)
	return nil
}

func (a *Adapter) writeFailed(key string, err error) error {
	metrics.StoreWrites.WithLabelValues("error").Inc()
	logg.Error("store", "Write dropped for key "+key, err)
	return apperrors.Wrap(apperrors.CodeStorageUnavailable, "write "+key, err)
}

// Lock serializes read-modify-write cycles on keys within this process.
func (a *Adapter) Lock(keys ...string) func() {
	return a.locks.Lock(keys...)
}

// Delay waits out the simulated latency, returning early with ctx's error.
func (a *Adapter) Delay(ctx context.Context) error {
	if a.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(a.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close releases the backend.
func (a *Adapter) Close() error {
	return a.kv.Close()
}
