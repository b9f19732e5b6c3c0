package domain

import (
	"encoding/json"
	"errors"
	"time"

	authdomain "github.com/bugboard/bugboard/internal/auth/domain"
)

var ErrNotFound = errors.New("project not found")

// Project is a bug-tracker project as returned by the API. It is read-only
// on the front end except through the explicit project operations.
type Project struct {
	ID          string           `json:"_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	CreatedBy   *authdomain.User `json:"createdBy,omitempty"`
	Members     []Member         `json:"members"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func (p *Project) UnmarshalJSON(b []byte) error {
	type alias Project
	var raw struct {
		alias
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = Project(raw.alias)
	if p.ID == "" {
		p.ID = raw.AltID
	}
	return nil
}

// Member is one membership entry of a project.
type Member struct {
	ID   string          `json:"_id"`
	User authdomain.User `json:"userId"`
	Role Role            `json:"role"`
}

// UnmarshalJSON accepts the populated user under "userId" or "user".
func (m *Member) UnmarshalJSON(b []byte) error {
	type alias Member
	var raw struct {
		alias
		AltID   string           `json:"id"`
		AltUser *authdomain.User `json:"user"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = Member(raw.alias)
	if m.ID == "" {
		m.ID = raw.AltID
	}
	if m.User.ID == "" && raw.AltUser != nil {
		m.User = *raw.AltUser
	}
	return nil
}

// FindMember returns the membership of userID, or nil.
func (p *Project) FindMember(userID string) *Member {
	if p == nil || userID == "" {
		return nil
	}
	for i := range p.Members {
		if p.Members[i].User.ID == userID {
			return &p.Members[i]
		}
	}
	return nil
}

type ProjectInput struct {
	Name        string `json:"name" validate:"required" label:"Project name"`
	Description string `json:"description"`
}

type AddMemberInput struct {
	UserEmail string `json:"userEmail" validate:"required,loose_email"`
	Role      Role   `json:"role" validate:"required,oneof=admin developer tester"`
}
