// Package keylock serializes operations per string key.
//
// The rights coordinator and the consent ledger share one KeyLock keyed by
// data-subject id, so an erasure cannot interleave with a consent
// registration for the same subject within a process.
package keylock

import "sync"

// KeyLock provides a mutex per key. Locks are created on first use and kept
// for the KeyLock's lifetime; keys are low-cardinality (subject ids under
// active mutation), so no eviction is needed.
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
	return &KeyLock{locks: make(map[string]*entry)}
}

// Lock acquires the mutex for key, blocking until it is available, and
// returns the unlock function.
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
