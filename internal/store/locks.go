package store

import (
	"slices"
	"sync"
)

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex serializes read-modify-write cycles per storage key.
// It is not reentrant.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*lockEntry)}
}

// Lock acquires every key in sorted order and returns the release function.
func (k *KeyedMutex) Lock(keys ...string) func() {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	held := make([]*lockEntry, 0, len(keys))
	for _, key := range keys {
		k.mu.Lock()
		e, ok := k.locks[key]
		if !ok {
			e = &lockEntry{}
			k.locks[key] = e
		}
		e.refs++
		k.mu.Unlock()

		e.mu.Lock()
		held = append(held, e)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].mu.Unlock()
				k.release(keys[i], held[i])
			}
		})
	}
}

func (k *KeyedMutex) release(key string, e *lockEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

// size reports tracked keys; used by tests to check cleanup.
func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
