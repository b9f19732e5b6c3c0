package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bugboard/bugboard/internal/api/client"
	"github.com/bugboard/bugboard/internal/bugs/domain"
	"github.com/bugboard/bugboard/internal/logging"
	"github.com/bugboard/bugboard/internal/notify"
	projectdomain "github.com/bugboard/bugboard/internal/projects/domain"
)

// NoBugsFound is the inline empty state of every bug list.
const NoBugsFound = "No bugs found"

// BugAPI is the part of the API client the bug views use.
type BugAPI interface {
	ListBugs(ctx context.Context, projectID string, f domain.Filters) (*domain.ListResult, error)
	Bug(ctx context.Context, projectID, bugID string) (*domain.Bug, error)
	CreateBug(ctx context.Context, projectID string, in domain.CreateInput) (*domain.Bug, error)
	UpdateBug(ctx context.Context, projectID, bugID string, in domain.UpdateInput) (*domain.Bug, error)
	DeleteBug(ctx context.Context, projectID, bugID string) error
	AssignBug(ctx context.Context, projectID, bugID, userID string) error
	AddComment(ctx context.Context, projectID, bugID, content string) error
	Project(ctx context.Context, id string) (*projectdomain.Project, error)
}

// ListView is what a bug list renders. A failed fetch still yields a view:
// empty, with Err set.
type ListView struct {
	ProjectID  string
	Bugs       []domain.Bug
	TotalCount int
	Filters    domain.Filters
	HasMore    bool
	// Fetched is the size of the server's page before local refinement.
	Fetched int
	Err     error
}

func (v ListView) Empty() bool { return len(v.Bugs) == 0 }

// EmptyText is shown in place of the list when there is nothing to show.
func (v ListView) EmptyText() string { return NoBugsFound }

// NextSkip is the skip value of the following page.
func (v ListView) NextSkip() int {
	skip := 0
	if v.Filters.HasSkip() {
		skip = v.Filters.Skip
	}
	return skip + v.Fetched
}

// Collection lists and creates bugs for one session.
type Collection struct {
	api   BugAPI
	notes *notify.Center
}

func NewCollection(api BugAPI, notes *notify.Center) *Collection {
	return &Collection{api: api, notes: notes}
}

// List fetches one page of a project's bugs. Errors never escape: the view
// degrades to an empty list and carries the error in Err, except for an
// expired session which callers must act on.
func (c *Collection) List(ctx context.Context, projectID string, f domain.Filters) ListView {
	f = f.Normalize()
	view := ListView{ProjectID: projectID, Filters: f, Bugs: []domain.Bug{}}

	res, err := c.api.ListBugs(ctx, projectID, f)
	if err != nil {
		logging.FromContext(ctx).LogWarnf("list_bugs", "project=%s degraded to empty list: %v", projectID, err)
		view.Err = fmt.Errorf("list bugs of project %s: %w", projectID, err)
		return view
	}

	skip := 0
	if f.HasSkip() {
		skip = f.Skip
	}
	view.TotalCount = res.TotalCount
	view.Fetched = len(res.Bugs)
	view.HasMore = skip+len(res.Bugs) < res.TotalCount
	for _, b := range res.Bugs {
		if f.Matches(b) {
			view.Bugs = append(view.Bugs, b)
		}
	}
	return view
}

// SessionExpired reports whether the view failed because the token is no
// longer valid.
func (v ListView) SessionExpired() bool {
	return v.Err != nil && errors.Is(v.Err, client.ErrUnauthorized)
}
