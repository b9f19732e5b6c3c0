package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

var ErrNoSession = errors.New("no active session")

// User represents a user as returned by the bug-tracker API.
// The same shape is used wherever the API embeds a user reference
// (reportedBy, assignedTo, changedBy, comment author, member).
type User struct {
	ID                 string              `json:"_id"`
	Name               string              `json:"name"`
	Email              string              `json:"email"`
	Avatar             string              `json:"avatar,omitempty"`
	Bio                string              `json:"bio,omitempty"`
	ContactPreferences *ContactPreferences `json:"contactPreferences,omitempty"`
}

type ContactPreferences struct {
	EmailNotifications bool `json:"emailNotifications"`
	SMSNotifications   bool `json:"smsNotifications"`
}

// DefaultContactPreferences mirrors what the profile form shows for users
// that never saved preferences.
func DefaultContactPreferences() ContactPreferences {
	return ContactPreferences{EmailNotifications: true}
}

// UnmarshalJSON accepts both "_id" and "id" for the identifier, and a bare
// id string where the API did not populate the reference.
func (u *User) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		*u = User{}
		return json.Unmarshal(b, &u.ID)
	}
	type alias User
	var raw struct {
		alias
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*u = User(raw.alias)
	if u.ID == "" {
		u.ID = raw.AltID
	}
	return nil
}

// DisplayName falls back to the email when the name is blank.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type RegisterRequest struct {
	Name            string `json:"name" form:"name" validate:"required"`
	Email           string `json:"email" form:"email" validate:"required,loose_email"`
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"-" form:"confirmPassword" validate:"required,eqfield=Password" label:"Password confirmation"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email" validate:"required,loose_email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" form:"token" validate:"required"`
	NewPassword     string `json:"newPassword" form:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"-" form:"confirmPassword" validate:"required,eqfield=NewPassword" label:"Password confirmation"`
}

// UpdateProfileRequest represents data for updating the current user.
type UpdateProfileRequest struct {
	Name               string              `json:"name,omitempty" validate:"required"`
	Bio                string              `json:"bio" validate:"max=300"`
	ContactPreferences *ContactPreferences `json:"contactPreferences,omitempty"`
}
