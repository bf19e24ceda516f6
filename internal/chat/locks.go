package chat

import "sync"

// keyedMutex hands out one mutex per chat id. Edit, delete and
// read-mark all run a fetch-scan-write-back cycle against the chat's
// message list; without serialization two concurrent mutations can
// compute a positional index from a stale read and overwrite the wrong
// entry. Locks are never released from the map; the set of active chats
// is small relative to message volume.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use, and
// returns the unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
