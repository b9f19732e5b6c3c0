package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bugboard/bugboard/internal/api/client"
	authdomain "github.com/bugboard/bugboard/internal/auth/domain"
	"github.com/bugboard/bugboard/internal/notify"
	"github.com/bugboard/bugboard/internal/projects/domain"
	"github.com/bugboard/bugboard/internal/validation"
)

// ProjectAPI is the part of the API client the project service uses.
type ProjectAPI interface {
	Projects(ctx context.Context) ([]domain.Project, error)
	Project(ctx context.Context, id string) (*domain.Project, error)
	CreateProject(ctx context.Context, in domain.ProjectInput) (*domain.Project, error)
	UpdateProject(ctx context.Context, id string, in domain.ProjectInput) (*domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
	AddMember(ctx context.Context, projectID string, in domain.AddMemberInput) (*domain.Project, error)
	RemoveMember(ctx context.Context, projectID, memberID string) (*domain.Project, error)
	Users(ctx context.Context) ([]authdomain.User, error)
	SearchUsers(ctx context.Context, q string) ([]authdomain.User, error)
}

// ProjectService handles project and membership operations for one session
type ProjectService struct {
	api   ProjectAPI
	notes *notify.Center
}

// NewProjectService creates a new project service
func NewProjectService(api ProjectAPI, notes *notify.Center) *ProjectService {
	return &ProjectService{api: api, notes: notes}
}

// List returns the projects the user belongs to, newest first as the API
// orders them
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	ps, err := s.api.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return ps, nil
}

// Get returns one project. A missing project matches domain.ErrNotFound.
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	p, err := s.api.Project(ctx, id)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		}
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

// GetWithView returns the project together with userID's role in it
func (s *ProjectService) GetWithView(ctx context.Context, id, userID string) (*domain.Project, domain.View, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, domain.View{}, err
	}
	return p, domain.Resolve(p, userID), nil
}

func normalizeProject(in domain.ProjectInput) domain.ProjectInput {
	return domain.ProjectInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
}

// Create creates a new project; the API makes the caller its admin
func (s *ProjectService) Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	in = normalizeProject(in)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out *domain.Project
	err := s.notes.Track(ctx, notify.ProjectCreate, func(ctx context.Context) error {
		p, err := s.api.CreateProject(ctx, in)
		out = p
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return out, nil
}

// Update changes a project's name and description
func (s *ProjectService) Update(ctx context.Context, id string, in domain.ProjectInput) (*domain.Project, error) {
	in = normalizeProject(in)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out *domain.Project
	err := s.notes.Track(ctx, notify.ProjectUpdate, func(ctx context.Context) error {
		p, err := s.api.UpdateProject(ctx, id, in)
		out = p
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}
	return out, nil
}

// Delete deletes a project with its bugs
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	err := s.notes.Track(ctx, notify.ProjectDelete, func(ctx context.Context) error {
		return s.api.DeleteProject(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

// AddMember adds the user with the given email. Role defaults to developer.
func (s *ProjectService) AddMember(ctx context.Context, id, email string, role domain.Role) (*domain.Project, error) {
	if role == domain.RoleUnknown {
		role = domain.RoleDeveloper
	}
	in := domain.AddMemberInput{UserEmail: strings.TrimSpace(email), Role: role}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out *domain.Project
	err := s.notes.Track(ctx, notify.ProjectAddMember, func(ctx context.Context) error {
		p, err := s.api.AddMember(ctx, id, in)
		out = p
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("add member to project %s: %w", id, err)
	}
	return out, nil
}

// RemoveMember removes a membership from the project
func (s *ProjectService) RemoveMember(ctx context.Context, id, memberID string) (*domain.Project, error) {
	var out *domain.Project
	err := s.notes.Track(ctx, notify.ProjectRemoveMember, func(ctx context.Context) error {
		p, err := s.api.RemoveMember(ctx, id, memberID)
		out = p
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("remove member from project %s: %w", id, err)
	}
	return out, nil
}

// Invitees lists users who could be added to p: those matching q by name
// or email, or everyone when q is blank, minus the current members.
func (s *ProjectService) Invitees(ctx context.Context, p *domain.Project, q string) ([]authdomain.User, error) {
	q = strings.TrimSpace(q)
	var (
		users []authdomain.User
		err   error
	)
	if q == "" {
		users, err = s.api.Users(ctx)
	} else {
		users, err = s.api.SearchUsers(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("search users %q: %w", q, err)
	}

	members := make(map[string]bool)
	if p != nil {
		for _, m := range p.Members {
			members[m.User.ID] = true
		}
	}
	out := make([]authdomain.User, 0, len(users))
	for _, u := range users {
		if !members[u.ID] {
			out = append(out, u)
		}
	}
	return out, nil
}
