package client

import (
	"context"
	"net/http"

	"github.com/bugboard/bugboard/internal/auth/domain"
)

func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	err := c.do(ctx, call{
		op: "login", method: http.MethodPost, path: "/auth/login", public: true,
		body: map[string]string{"email": email, "password": password},
		out:  &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	err := c.do(ctx, call{
		op: "register", method: http.MethodPost, path: "/auth/register", public: true,
		body: map[string]string{"name": name, "email": email, "password": password},
		out:  &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, call{
		op: "forgot_password", method: http.MethodPost, path: "/auth/forgot-password", public: true,
		body: map[string]string{"email": email},
	})
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, call{
		op: "reset_password", method: http.MethodPost, path: "/auth/reset-password", public: true,
		body: map[string]string{"token": token, "newPassword": newPassword},
	})
}

// GoogleAuthURL is where the browser is sent to start the Google sign-in.
// The API redirects back to /oauth/callback with ?token= or ?error=.
func (c *Client) GoogleAuthURL() string {
	return c.baseURL + "/auth/google"
}
