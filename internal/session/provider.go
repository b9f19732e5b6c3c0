// Package session holds the signed-in user and the token that backs it.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bugboard/bugboard/internal/api/client"
	"github.com/bugboard/bugboard/internal/auth/domain"
	"github.com/bugboard/bugboard/internal/logging"
)

// Provider is one scoped session: Init reads and validates the stored
// token, Login and Adopt establish a new one, Logout tears it down.
type Provider struct {
	api   *client.Client
	store client.TokenStore

	mu   sync.RWMutex
	user *domain.User
}

func New(api *client.Client, store client.TokenStore) *Provider {
	return &Provider{api: api.WithTokenStore(store), store: store}
}

// Init validates the stored token by fetching the profile. Any failure
// clears the token and leaves the session anonymous.
func (p *Provider) Init(ctx context.Context) (*domain.User, error) {
	if p.store.Load() == "" {
		return nil, domain.ErrNoSession
	}
	u, err := p.api.Profile(ctx)
	if err != nil {
		logging.FromContext(ctx).LogWarnf("session_init", "stored token rejected: %v", err)
		p.teardown()
		return nil, fmt.Errorf("%w: %w", domain.ErrNoSession, err)
	}
	p.setUser(u)
	return u, nil
}

func (p *Provider) Login(ctx context.Context, email, password string) (*domain.User, error) {
	res, err := p.api.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	return p.establish(res)
}

func (p *Provider) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	res, err := p.api.Register(ctx, strings.TrimSpace(name), strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	return p.establish(res)
}

// Adopt takes a token handed over by the OAuth callback and validates it.
func (p *Provider) Adopt(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrNoSession
	}
	p.store.Save(token)
	return p.Init(ctx)
}

func (p *Provider) establish(res *domain.AuthResponse) (*domain.User, error) {
	if res.Token == "" {
		return nil, fmt.Errorf("login response carried no token: %w", client.ErrServer)
	}
	p.store.Save(res.Token)
	u := res.User
	p.setUser(&u)
	return &u, nil
}

// Logout clears the token and the user.
func (p *Provider) Logout() { p.teardown() }

func (p *Provider) teardown() {
	p.store.Clear()
	p.setUser(nil)
}

func (p *Provider) setUser(u *domain.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.user = u
}

// Refresh replaces the cached user after a profile edit.
func (p *Provider) Refresh(u *domain.User) {
	if u != nil {
		p.setUser(u)
	}
}

func (p *Provider) User() *domain.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user
}

func (p *Provider) UserID() string {
	if u := p.User(); u != nil {
		return u.ID
	}
	return ""
}

// Authenticated is true once a user has been loaded and the token is still
// present; a 401 anywhere clears the token and with it the session.
func (p *Provider) Authenticated() bool {
	return p.User() != nil && p.store.Load() != ""
}

// HasToken reports whether a token is stored, valid or not.
func (p *Provider) HasToken() bool { return p.store.Load() != "" }

// API is the client bound to this session's token.
func (p *Provider) API() *client.Client { return p.api }
