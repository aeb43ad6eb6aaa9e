package scheduler

import (
	"sync"
)

// KeyedLock serializes work per faculty. Every scheduling decision,
// eviction pass, and capacity mutation for a faculty runs under that
// faculty's mutex; work on different faculties proceeds in parallel.
//
// One instance is shared by the scheduling service, the rescheduler,
// and the node lifecycle manager so their critical sections exclude
// each other.
type KeyedLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedLock creates an empty keyed lock.
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{locks: make(map[string]*sync.Mutex)}
}

func (k *KeyedLock) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the mutex for key, creating it on first use.
func (k *KeyedLock) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key.
func (k *KeyedLock) Unlock(key string) {
	k.get(key).Unlock()
}
