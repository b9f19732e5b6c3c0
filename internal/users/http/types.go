package http

import (
	"github.com/bugboard/bugboard/internal/auth/domain"
)

// Handler serves the profile page.
type Handler struct{}

func New() *Handler {
	return &Handler{}
}

type profileForm struct {
	Name               string `form:"name"`
	Bio                string `form:"bio"`
	EmailNotifications bool   `form:"emailNotifications"`
	SMSNotifications   bool   `form:"smsNotifications"`
}

func (f profileForm) request() domain.UpdateProfileRequest {
	return domain.UpdateProfileRequest{
		Name: f.Name,
		Bio:  f.Bio,
		ContactPreferences: &domain.ContactPreferences{
			EmailNotifications: f.EmailNotifications,
			SMSNotifications:   f.SMSNotifications,
		},
	}
}

type profileData struct {
	Profile   *domain.User
	AvatarURL string
	Editing   bool
	BioMax    int
}
