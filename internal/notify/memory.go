package notify

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memEntry struct {
	n     Notification
	timer *time.Timer
}

type memScope struct {
	entries map[string]*memEntry
	touched time.Time
}

// MemoryStore keeps notifications in process, each with its own timer.
type MemoryStore struct {
	mu     sync.Mutex
	scopes map[string]*memScope
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: map[string]*memScope{}}
}

func (s *MemoryStore) scope(name string) *memScope {
	sc, ok := s.scopes[name]
	if !ok {
		sc = &memScope{entries: map[string]*memEntry{}}
		s.scopes[name] = sc
	}
	sc.touched = time.Now()
	return sc
}

func (s *MemoryStore) Add(_ context.Context, scope string, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &memEntry{n: n}
	if n.Duration > 0 {
		e.timer = time.AfterFunc(n.Duration, func() { s.expire(scope, n.ID, e) })
	}
	s.scope(scope).entries[n.ID] = e
	return nil
}

// expire only removes the entry the timer was created for.
func (s *MemoryStore) expire(scope, id string, e *memEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scopes[scope]
	if !ok {
		return
	}
	if cur, ok := sc.entries[id]; ok && cur == e {
		delete(sc.entries, id)
	}
}

func (s *MemoryStore) Remove(_ context.Context, scope, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scopes[scope]
	if !ok {
		return nil
	}
	if e, ok := sc.entries[id]; ok {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(sc.entries, id)
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, scope string) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := s.scope(scope)
	out := make([]Notification, 0, len(sc.entries))
	for _, e := range sc.entries {
		out = append(out, e.n)
	}
	sortNotifications(out)
	return out, nil
}

// Prune forgets scopes that have been empty and untouched for idle. It
// returns how many were dropped.
func (s *MemoryStore) Prune(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-idle)
	n := 0
	for name, sc := range s.scopes {
		if len(sc.entries) == 0 && sc.touched.Before(cutoff) {
			delete(s.scopes, name)
			n++
		}
	}
	return n
}

func sortNotifications(list []Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
