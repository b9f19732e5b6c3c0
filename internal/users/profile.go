// Package users covers the signed-in user's own profile.
package users

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bugboard/bugboard/internal/api/client"
	"github.com/bugboard/bugboard/internal/auth/domain"
	"github.com/bugboard/bugboard/internal/notify"
	"github.com/bugboard/bugboard/internal/validation"
)

var (
	ErrNotImage     = errors.New("avatar is not an image")
	ErrAvatarTooBig = errors.New("avatar exceeds 2MB")
)

const (
	msgNotImage     = "Please select an image file"
	msgAvatarTooBig = "File size must be less than 2MB"
)

// ProfileAPI is the part of the API client the profile uses.
type ProfileAPI interface {
	Profile(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) (*domain.User, error)
	UploadAvatar(ctx context.Context, filename string, r io.Reader) (string, error)
}

type ProfileService struct {
	api   ProfileAPI
	notes *notify.Center
}

func NewProfileService(api ProfileAPI, notes *notify.Center) *ProfileService {
	return &ProfileService{api: api, notes: notes}
}

// Get loads the profile. Missing contact preferences get the defaults.
func (s *ProfileService) Get(ctx context.Context) (*domain.User, error) {
	u, err := s.api.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if u.ContactPreferences == nil {
		p := domain.DefaultContactPreferences()
		u.ContactPreferences = &p
	}
	return u, nil
}

// Update saves name, bio and contact preferences.
func (s *ProfileService) Update(ctx context.Context, req domain.UpdateProfileRequest) (*domain.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Bio = strings.TrimSpace(req.Bio)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	var out *domain.User
	err := s.notes.Track(ctx, notify.ProfileUpdate, func(ctx context.Context) error {
		u, err := s.api.UpdateProfile(ctx, req)
		out = u
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return out, nil
}

// UploadAvatar checks the file is an image of at most client.MaxAvatarBytes
// and uploads it. It returns the new avatar path.
func (s *ProfileService) UploadAvatar(ctx context.Context, filename string, size int64, r io.Reader) (string, error) {
	if size > client.MaxAvatarBytes {
		s.notes.Error(ctx, msgAvatarTooBig)
		return "", ErrAvatarTooBig
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	head = head[:n]
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		s.notes.Error(ctx, msgNotImage)
		return "", ErrNotImage
	}

	var avatar string
	err = s.notes.Track(ctx, notify.Messages{
		Pending: "Uploading avatar...",
		Success: "Avatar updated successfully",
		Failure: "Failed to upload avatar",
	}, func(ctx context.Context) error {
		a, err := s.api.UploadAvatar(ctx, filename, io.MultiReader(bytes.NewReader(head), r))
		avatar = a
		return err
	})
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return avatar, nil
}

// AvatarURL resolves an avatar as stored by the API. Relative paths are
// served by the API host, outside its /api prefix.
func AvatarURL(apiBase, avatar string) string {
	if avatar == "" || strings.HasPrefix(avatar, "http://") || strings.HasPrefix(avatar, "https://") {
		return avatar
	}
	origin := strings.TrimSuffix(strings.TrimRight(apiBase, "/"), "/api")
	return origin + "/" + strings.TrimLeft(avatar, "/")
}
