package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugboard/bugboard/internal/validation"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestLocks(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	l := NewLocks()
	l.now = clock.now

	release, ok := l.TryLock("s1:bug1")
	require.True(t, ok)
	assert.True(t, l.Held("s1:bug1"))

	_, ok = l.TryLock("s1:bug1")
	assert.False(t, ok, "second holder is turned away")

	other, ok := l.TryLock("s2:bug1")
	require.True(t, ok, "other sessions lock independently")
	other()

	release()
	release()
	assert.False(t, l.Held("s1:bug1"))

	_, ok = l.TryLock("s1:bug1")
	require.True(t, ok)
	clock.t = clock.t.Add(time.Minute)
	assert.Equal(t, 0, l.Prune(2*time.Minute))
	clock.t = clock.t.Add(2 * time.Minute)
	assert.Equal(t, 1, l.Prune(2*time.Minute))
	assert.False(t, l.Held("s1:bug1"))
}

func TestLocks_StaleReleaseKeepsNewHolder(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	l := NewLocks()
	l.now = clock.now

	stale, ok := l.TryLock("k")
	require.True(t, ok)
	clock.t = clock.t.Add(time.Hour)
	require.Equal(t, 1, l.Prune(time.Minute))

	_, ok = l.TryLock("k")
	require.True(t, ok)
	stale()
	assert.True(t, l.Held("k"), "a pruned holder must not release its successor")
}

func TestSessions(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	s := NewSessions()
	s.now = clock.now

	a := s.Trail("a")
	assert.Same(t, a, s.Trail("a"))
	s.Trail("b")
	assert.Equal(t, 2, s.Len())

	clock.t = clock.t.Add(time.Hour)
	s.Trail("b")
	assert.Equal(t, 1, s.Prune(30*time.Minute))
	assert.Equal(t, 1, s.Len())

	s.Forget("b")
	assert.Equal(t, 0, s.Len())
}

func TestDict(t *testing.T) {
	m, err := dict("createdAt", "Newest", "title", "Title")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"createdAt": "Newest", "title": "Title"}, m)

	_, err = dict("odd")
	assert.Error(t, err)
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "DR", initials("Dana Reyes"))
	assert.Equal(t, "AB", initials("ada byron king"))
	assert.Equal(t, "É", initials("émile"))
	assert.Equal(t, "?", initials("  "))
}

func TestRenderMarkdown(t *testing.T) {
	out := string(renderMarkdown("Cart shows **9.99**\nsee https://example.com <script>x</script>"))
	assert.Contains(t, out, "<strong>9.99</strong>")
	assert.Contains(t, out, `<a href="https://example.com">`)
	assert.Contains(t, out, "<br>")
	assert.NotContains(t, out, "<script>")
}

func TestPage_ErrAndValue(t *testing.T) {
	p := Page{Errors: validation.Errors{"name": "Name is required"}}
	assert.Equal(t, "Name is required", p.Err("name"))
	assert.Equal(t, "", p.Err("email"))
	assert.Equal(t, "", p.Value("email"), "nil form reads as empty")
}

func TestTemplatesParse(t *testing.T) {
	tmpl, err := parseTemplates()
	require.NoError(t, err)
	for _, name := range []string{
		"login.html", "register.html", "forgot_password.html", "reset_password.html",
		"dashboard.html", "project.html", "bug.html", "my_bugs.html", "profile.html", "not_found.html",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestCookieStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: "token", Value: "tok-1"})

	s := newCookieStore(c, "token", false)
	assert.Equal(t, "tok-1", s.Load())

	s.Save("tok-2")
	assert.Equal(t, "tok-2", s.Load(), "writes are visible within the request")

	s.Clear()
	assert.Equal(t, "", s.Load())

	cookies := rr.Header().Values("Set-Cookie")
	require.Len(t, cookies, 2)
	assert.True(t, strings.HasPrefix(cookies[0], "token=tok-2"))
	assert.Contains(t, cookies[0], "HttpOnly")
	assert.Contains(t, cookies[0], "SameSite=Lax")
	assert.Contains(t, cookies[1], "Max-Age=0")
}

func TestLocalReferer(t *testing.T) {
	cases := map[string]string{
		"":                                     "",
		"http://bugboard.test/projects/p1?x=1": "/projects/p1?x=1",
		"https://bugboard.test/my-bugs":        "/my-bugs",
		"https://evil.example/projects/p1":     "",
		"javascript://bugboard.test/alert":     "",
		"//evil.example/dashboard":             "",
	}
	for ref, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "http://bugboard.test/breadcrumbs/0", nil)
		if ref != "" {
			req.Header.Set("Referer", ref)
		}
		assert.Equal(t, want, localReferer(req), ref)
	}
}

func TestPage_ValueOr(t *testing.T) {
	assert.Equal(t, "Checkout", Page{}.ValueOr("name", "Checkout"))
	p := Page{Form: map[string]string{"name": ""}}
	assert.Equal(t, "", p.ValueOr("name", "Checkout"), "a cleared field stays cleared")
}
