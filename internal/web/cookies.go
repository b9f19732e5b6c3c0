package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// cookieStore keeps the session token in a browser cookie. A write during
// the request is visible to later reads of the same request.
type cookieStore struct {
	c      *gin.Context
	name   string
	secure bool

	mu     sync.Mutex
	value  string
	loaded bool
}

func newCookieStore(c *gin.Context, name string, secure bool) *cookieStore {
	return &cookieStore{c: c, name: name, secure: secure}
}

func (s *cookieStore) Load() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		if v, err := s.c.Cookie(s.name); err == nil {
			s.value = v
		}
		s.loaded = true
	}
	return s.value
}

func (s *cookieStore) Save(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value, s.loaded = token, true
	setCookie(s.c, s.name, token, tokenMaxAge, s.secure)
}

func (s *cookieStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value, s.loaded = "", true
	setCookie(s.c, s.name, "", -1, s.secure)
}

func setCookie(c *gin.Context, name, value string, maxAge time.Duration, secure bool) {
	age := int(maxAge / time.Second)
	if maxAge < 0 {
		age = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, age, "/", "", secure, true)
}
