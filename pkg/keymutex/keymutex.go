// Package keymutex provides per-key mutual exclusion with reference-counted
// lock entries. An entry is removed from the table only once the last holder
// or waiter has released it, so a caller arriving while another releases the
// same key can never observe two distinct lock objects for one key.
//
// Typical usage:
//
//	var locks keymutex.Locker
//
//	unlock := locks.Lock(guildID)
//	defer unlock()
//	// critical section for guildID
//
// The zero value is ready to use.
package keymutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locker is a table of keyed mutexes. It is safe for concurrent use.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Lock blocks until the lock for key is held and returns the release
// function. The release function must be called exactly once.
func (l *Locker) Lock(key string) (unlock func()) {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[string]*entry)
	}
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, key)
			}
			l.mu.Unlock()
		})
	}
}

// Len reports how many keys currently have live lock entries.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
