package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/bugboard/bugboard/internal/auth/domain"
)

// MaxAvatarBytes is the largest avatar the profile page accepts.
const MaxAvatarBytes = 2 << 20

// Profile returns the signed-in user. It doubles as the token check.
func (c *Client) Profile(ctx context.Context) (*domain.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{op: "get_profile", method: http.MethodGet, path: "/users/profile", out: &raw}); err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

func (c *Client) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) (*domain.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{op: "update_profile", method: http.MethodPut, path: "/users/profile", body: req, out: &raw}); err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

// UploadAvatar sends the image as the "avatar" form field and returns the
// stored avatar URL.
func (c *Client) UploadAvatar(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, io.LimitReader(r, MaxAvatarBytes+1)); err != nil {
		return "", fmt.Errorf("copy avatar: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	var out struct {
		Avatar string       `json:"avatar"`
		User   *domain.User `json:"user"`
	}
	err = c.do(ctx, call{
		op: "upload_avatar", method: http.MethodPost, path: "/users/profile/avatar",
		rawBody: &buf, contentType: mw.FormDataContentType(), out: &out,
	})
	if err != nil {
		return "", err
	}
	if out.Avatar == "" && out.User != nil {
		return out.User.Avatar, nil
	}
	return out.Avatar, nil
}

func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	if err := c.do(ctx, call{op: "list_users", method: http.MethodGet, path: "/users", out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchUsers(ctx context.Context, q string) ([]domain.User, error) {
	var out []domain.User
	err := c.do(ctx, call{
		op: "search_users", method: http.MethodGet, path: "/users/search",
		query: url.Values{"q": {q}}, out: &out,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// decodeUser accepts either a bare user or {"user": {...}}.
func decodeUser(raw json.RawMessage) (*domain.User, error) {
	var wrapped struct {
		User *domain.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, &APIError{Op: "decode_user", Kind: ErrServer, Cause: err}
	}
	return &u, nil
}
