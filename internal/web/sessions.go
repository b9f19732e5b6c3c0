package web

import (
	"sync"
	"time"

	"github.com/bugboard/bugboard/internal/breadcrumb"
)

type sessionState struct {
	trail *breadcrumb.Trail
	seen  time.Time
}

// Sessions keeps per-browser navigation state between requests.
type Sessions struct {
	mu  sync.Mutex
	m   map[string]*sessionState
	now func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{m: map[string]*sessionState{}, now: time.Now}
}

// Trail returns the breadcrumb trail of session id, creating it on first
// use.
func (s *Sessions) Trail(id string) *breadcrumb.Trail {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.m[id]
	if !ok {
		st = &sessionState{trail: breadcrumb.New()}
		s.m[id] = st
	}
	st.seen = s.now()
	return st.trail
}

func (s *Sessions) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}

// Prune drops sessions not seen for idle and returns how many went.
func (s *Sessions) Prune(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-idle)
	n := 0
	for id, st := range s.m {
		if st.seen.Before(cutoff) {
			delete(s.m, id)
			n++
		}
	}
	return n
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
