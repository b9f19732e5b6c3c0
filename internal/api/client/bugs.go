package client

import (
	"context"
	"net/http"

	"github.com/bugboard/bugboard/internal/bugs/domain"
)

func bugsPath(projectID string) string { return "/projects/" + escape(projectID) + "/bugs" }

func bugPath(projectID, bugID string) string { return bugsPath(projectID) + "/" + escape(bugID) }

// ListBugs fetches one page of a project's bugs. Empty filters are never
// sent.
func (c *Client) ListBugs(ctx context.Context, projectID string, f domain.Filters) (*domain.ListResult, error) {
	var out domain.ListResult
	err := c.do(ctx, call{
		op: "list_bugs", method: http.MethodGet, path: bugsPath(projectID),
		query: f.Query(), out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Bug(ctx context.Context, projectID, bugID string) (*domain.Bug, error) {
	var out domain.Bug
	if err := c.do(ctx, call{op: "get_bug", method: http.MethodGet, path: bugPath(projectID, bugID), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateBug(ctx context.Context, projectID string, in domain.CreateInput) (*domain.Bug, error) {
	var out domain.Bug
	if err := c.do(ctx, call{op: "create_bug", method: http.MethodPost, path: bugsPath(projectID), body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBug(ctx context.Context, projectID, bugID string, in domain.UpdateInput) (*domain.Bug, error) {
	var out domain.Bug
	if err := c.do(ctx, call{op: "update_bug", method: http.MethodPut, path: bugPath(projectID, bugID), body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteBug(ctx context.Context, projectID, bugID string) error {
	return c.do(ctx, call{op: "delete_bug", method: http.MethodDelete, path: bugPath(projectID, bugID)})
}

func (c *Client) AssignBug(ctx context.Context, projectID, bugID, userID string) error {
	return c.do(ctx, call{
		op: "assign_bug", method: http.MethodPut, path: bugPath(projectID, bugID) + "/assign",
		body: map[string]string{"assignedTo": userID},
	})
}

// AddComment posts a comment. The API answers with either the bug or the
// comment; callers refetch the bug either way.
func (c *Client) AddComment(ctx context.Context, projectID, bugID, content string) error {
	return c.do(ctx, call{
		op: "add_comment", method: http.MethodPost, path: bugPath(projectID, bugID) + "/comments",
		body: map[string]string{"content": content},
	})
}
