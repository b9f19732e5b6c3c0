package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bugboard/bugboard/internal/bugs/domain"
	"github.com/bugboard/bugboard/internal/notify"
	"github.com/bugboard/bugboard/internal/validation"
)

// CreateForm is the create-bug form as submitted.
type CreateForm struct {
	Title       string
	Description string
	Priority    string
	AssignedTo  string
}

// Input turns the form into the request body: trimmed, priority defaulted
// to medium, an empty assignee left out. Status is left to the server.
func (f CreateForm) Input(projectID, reporterID string) domain.CreateInput {
	priority := domain.Priority(strings.ToLower(strings.TrimSpace(f.Priority)))
	if priority == "" {
		priority = domain.PriorityMedium
	}
	return domain.CreateInput{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Priority:    priority,
		AssignedTo:  strings.TrimSpace(f.AssignedTo),
		Project:     projectID,
		ReportedBy:  reporterID,
	}
}

// Create files a new bug in projectID. Invalid input returns
// validation.Errors without calling the API.
func (c *Collection) Create(ctx context.Context, projectID, reporterID string, form CreateForm) (*domain.Bug, error) {
	in := form.Input(projectID, reporterID)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var created *domain.Bug
	err := c.notes.Track(ctx, notify.BugCreate, func(ctx context.Context) error {
		b, err := c.api.CreateBug(ctx, projectID, in)
		created = b
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bug in project %s: %w", projectID, err)
	}
	return created, nil
}
