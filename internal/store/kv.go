package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/shivamghaware/BlogIn/internal/logger"
)

var logg = logger.New()

// ErrKeyNotFound is returned by KV.Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// Entry is one element of an atomic batch. Delete removes Key and ignores Value.
type Entry struct {
	Key    string
	Value  []byte
	Delete bool
}

// KV is the durable key-value medium behind the persistence adapter.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// SetMany applies every entry or none of them.
	SetMany(ctx context.Context, entries []Entry) error
	Close() error
}

// --- Memory implementation ---

// MemoryKV keeps values in a map. Values are copied in and out.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return slices.Clone(v), nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value []byte) error {
	return m.SetMany(ctx, []Entry{{Key: key, Value: value}})
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	return m.SetMany(ctx, []Entry{{Key: key, Delete: true}})
}

func (m *MemoryKV) SetMany(ctx context.Context, entries []Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if e.Delete {
			delete(m.data, e.Key)
			continue
		}
		m.data[e.Key] = slices.Clone(e.Value)
	}
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *MemoryKV) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.data))
}

func (m *MemoryKV) Close() error { return nil }
