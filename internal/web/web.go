// Package web is the browser-facing side of bugboard: per-request session
// wiring, cookies, page rendering and the JSON notification endpoints.
package web

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bugboard/bugboard/internal/api/client"
	authdomain "github.com/bugboard/bugboard/internal/auth/domain"
	"github.com/bugboard/bugboard/internal/breadcrumb"
	"github.com/bugboard/bugboard/internal/logging"
	"github.com/bugboard/bugboard/internal/notify"
	"github.com/bugboard/bugboard/internal/session"
)

const (
	DefaultTokenCookie = "token"
	SessionIDCookie    = "bugboard_sid"

	tokenMaxAge   = 30 * 24 * time.Hour
	sessionMaxAge = 30 * 24 * time.Hour

	requestKey = "web_request"
)

type Options struct {
	API          *client.Client
	Notes        notify.Store
	CookieName   string
	CookieSecure bool
	FanOut       int
}

// App holds what all requests share.
type App struct {
	api          *client.Client
	notes        notify.Store
	cookieName   string
	cookieSecure bool
	fanOut       int

	sessions  *Sessions
	locks     *Locks
	templates *template.Template
}

func New(opts Options) (*App, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultTokenCookie
	}
	if opts.Notes == nil {
		opts.Notes = notify.NewMemoryStore()
	}
	return &App{
		api:          opts.API,
		notes:        opts.Notes,
		cookieName:   opts.CookieName,
		cookieSecure: opts.CookieSecure,
		fanOut:       opts.FanOut,
		sessions:     NewSessions(),
		locks:        NewLocks(),
		templates:    tmpl,
	}, nil
}

func (a *App) Templates() *template.Template { return a.templates }
func (a *App) Sessions() *Sessions           { return a.sessions }
func (a *App) Locks() *Locks                 { return a.locks }
func (a *App) FanOut() int                   { return a.fanOut }

// Request is the per-request view of one browser session.
type Request struct {
	ID      string
	Session *session.Provider
	Notes   *notify.Center
	Trail   *breadcrumb.Trail

	app *App
	c   *gin.Context
}

// Attach builds the Request for every incoming request. A browser without
// a session id cookie gets a fresh one.
func (a *App) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionIDCookie)
		if err != nil || sid == "" {
			sid = uuid.NewString()
			setCookie(c, SessionIDCookie, sid, sessionMaxAge, a.cookieSecure)
		}
		store := newCookieStore(c, a.cookieName, a.cookieSecure)
		r := &Request{
			ID:      sid,
			Session: session.New(a.api, store),
			Notes:   notify.NewCenter(a.notes, sid),
			Trail:   a.sessions.Trail(sid),
			app:     a,
			c:       c,
		}
		c.Set(requestKey, r)
		c.Next()
	}
}

// From returns the Request built by Attach.
func From(c *gin.Context) *Request {
	return c.MustGet(requestKey).(*Request)
}

func (r *Request) Context() context.Context { return r.c.Request.Context() }

func (r *Request) API() *client.Client { return r.Session.API() }

func (r *Request) User() *authdomain.User { return r.Session.User() }

func (r *Request) UserID() string { return r.Session.UserID() }

func (r *Request) FanOut() int { return r.app.fanOut }

// Redirect sends the browser to path with 303 so the next request is a GET.
func (r *Request) Redirect(path string) {
	r.c.Redirect(http.StatusSeeOther, path)
	r.c.Abort()
}

// ToLogin drops the session and sends the browser to the login page.
func (r *Request) ToLogin() {
	r.Session.Logout()
	r.Redirect("/login")
}

// Expired handles err when it means the session token is no longer valid.
// It reports whether the response has been written.
func (r *Request) Expired(err error) bool {
	if err == nil || !client.IsUnauthorized(err) {
		return false
	}
	logging.FromContext(r.Context()).LogInfof("session_expired", "session=%s redirected to login", r.ID)
	r.ToLogin()
	return true
}

// Lock serialises mutations of one item for this browser session. When
// another request already holds the lock the user is told so and ok is
// false.
func (r *Request) Lock(item string) (release func(), ok bool) {
	release, ok = r.app.locks.TryLock(r.ID + ":" + item)
	if !ok {
		r.Notes.Error(r.Context(), notify.MsgBusy)
	}
	return release, ok
}
