// Package keylock provides per-key mutual exclusion.
// The engine guarantees per-user linearizability: two simultaneous balance
// mutations for the same user must not interleave, while operations on
// different users proceed fully in parallel. KeyLock is that serialization
// boundary - one mutex per key, created lazily and shared by every service
// that mutates user state.
// No external dependencies - uses only standard library.
package keylock

import (
	"sync"
)

// KeyLock is a set of named mutexes. The zero value is not usable; use New.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{
		locks: make(map[string]*entry),
	}
}

// Lock acquires the mutex for key, blocking until it is available.
// The returned function releases it. Entries are removed once the last
// holder releases, so the map does not grow with the number of users seen.
func (k *KeyLock) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Do runs fn while holding the mutex for key.
func (k *KeyLock) Do(key string, fn func() error) error {
	unlock := k.Lock(key)
	defer unlock()
	return fn()
}
