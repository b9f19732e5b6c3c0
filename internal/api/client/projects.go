package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bugboard/bugboard/internal/projects/domain"
)

// Projects lists the projects visible to the signed-in user in server order.
func (c *Client) Projects(ctx context.Context) ([]domain.Project, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{op: "list_projects", method: http.MethodGet, path: "/projects", out: &raw}); err != nil {
		return nil, err
	}
	var list []domain.Project
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Projects []domain.Project `json:"projects"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &APIError{Op: "list_projects", Kind: ErrServer, Cause: err}
	}
	return wrapped.Projects, nil
}

func (c *Client) Project(ctx context.Context, id string) (*domain.Project, error) {
	var out domain.Project
	if err := c.do(ctx, call{op: "get_project", method: http.MethodGet, path: "/projects/" + escape(id), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProject(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	var out domain.Project
	if err := c.do(ctx, call{op: "create_project", method: http.MethodPost, path: "/projects", body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProject(ctx context.Context, id string, in domain.ProjectInput) (*domain.Project, error) {
	var out domain.Project
	if err := c.do(ctx, call{op: "update_project", method: http.MethodPut, path: "/projects/" + escape(id), body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, call{op: "delete_project", method: http.MethodDelete, path: "/projects/" + escape(id)})
}

func (c *Client) Members(ctx context.Context, projectID string) ([]domain.Member, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{op: "list_members", method: http.MethodGet, path: "/projects/" + escape(projectID) + "/members", out: &raw}); err != nil {
		return nil, err
	}
	var list []domain.Member
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Members []domain.Member `json:"members"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &APIError{Op: "list_members", Kind: ErrServer, Cause: err}
	}
	return wrapped.Members, nil
}

func (c *Client) AddMember(ctx context.Context, projectID string, in domain.AddMemberInput) (*domain.Project, error) {
	var out domain.Project
	err := c.do(ctx, call{
		op: "add_member", method: http.MethodPost, path: "/projects/" + escape(projectID) + "/members",
		body: in, out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveMember(ctx context.Context, projectID, memberID string) (*domain.Project, error) {
	var out domain.Project
	err := c.do(ctx, call{
		op: "remove_member", method: http.MethodDelete,
		path: "/projects/" + escape(projectID) + "/members/" + escape(memberID),
		out:  &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
