package store

import (
	"context"
	"errors"
	"sync"
)

// MockKV wraps MemoryKV with switchable failures for tests.
type MockKV struct {
	*MemoryKV

	mu         sync.Mutex
	ShouldFail bool // every operation fails
	FailWrites bool // Set, Delete and SetMany fail; reads still work
	FailBatch  bool // only multi-entry SetMany calls fail
	Batches    int  // number of successful SetMany calls
}

// NewMock initializes a new mock store
func NewMock() *MockKV {
	return &MockKV{MemoryKV: NewMemory()}
}

func (m *MockKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	fail := m.ShouldFail
	m.mu.Unlock()
	if fail {
		return nil, errors.New("mock: get failed")
	}
	return m.MemoryKV.Get(ctx, key)
}

func (m *MockKV) Set(ctx context.Context, key string, value []byte) error {
	return m.SetMany(ctx, []Entry{{Key: key, Value: value}})
}

func (m *MockKV) Delete(ctx context.Context, key string) error {
	return m.SetMany(ctx, []Entry{{Key: key, Delete: true}})
}

func (m *MockKV) SetMany(ctx context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail || m.FailWrites {
		return errors.New("mock: write failed")
	}
	if m.FailBatch && len(entries) > 1 {
		return errors.New("mock: batch failed")
	}
	if err := m.MemoryKV.SetMany(ctx, entries); err != nil {
		return err
	}
	m.Batches++
	return nil
}

// Fail switches ShouldFail under the mock's lock.
func (m *MockKV) Fail(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldFail = on
}

// ---------------------------------------------
// FailingKV always returns errors for negative tests
type FailingKV struct{}

func (FailingKV) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("failing store get failed")
}

func (FailingKV) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("failing store set failed")
}

func (FailingKV) Delete(ctx context.Context, key string) error {
	return errors.New("failing store delete failed")
}

func (FailingKV) SetMany(ctx context.Context, entries []Entry) error {
	return errors.New("failing store batch failed")
}

func (FailingKV) Close() error { return nil }
