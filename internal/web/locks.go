package web

import (
	"sync"
	"time"
)

// Locks is a registry of named try-locks. A held name rejects further
// holders until released.
type Locks struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocks() *Locks {
	return &Locks{held: map[string]time.Time{}, now: time.Now}
}

// TryLock takes key if it is free. release is safe to call more than once.
func (l *Locks) TryLock(key string) (release func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return func() {}, false
	}
	at := l.now()
	l.held[key] = at
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.held[key] == at {
				delete(l.held, key)
			}
		})
	}, true
}

func (l *Locks) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// Prune force-releases locks held longer than maxAge and returns how many.
func (l *Locks) Prune(maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-maxAge)
	n := 0
	for k, at := range l.held {
		if at.Before(cutoff) {
			delete(l.held, k)
			n++
		}
	}
	return n
}
