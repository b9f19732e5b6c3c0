package http

import (
	authdomain "github.com/bugboard/bugboard/internal/auth/domain"
	bugdomain "github.com/bugboard/bugboard/internal/bugs/domain"
	bugservice "github.com/bugboard/bugboard/internal/bugs/service"
	"github.com/bugboard/bugboard/internal/projects/domain"
)

// Handler bundles the dashboard and project pages.
type Handler struct{}

func New() *Handler {
	return &Handler{}
}

type projectForm struct {
	Name        string `form:"name"`
	Description string `form:"description"`
}

func (f projectForm) values() map[string]string {
	return map[string]string{"name": f.Name, "description": f.Description}
}

type bugForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Priority    string `form:"priority"`
	AssignedTo  string `form:"assignedTo"`
}

func (f bugForm) values() map[string]string {
	return map[string]string{
		"title":       f.Title,
		"description": f.Description,
		"priority":    f.Priority,
		"assignedTo":  f.AssignedTo,
	}
}

type memberForm struct {
	UserEmail string `form:"userEmail"`
	Role      string `form:"role"`
}

type dashboardData struct {
	Projects   []domain.Project
	RecentBugs []bugdomain.Bug
	CreateOpen bool
}

type projectData struct {
	Project       *domain.Project
	View          domain.View
	Bugs          bugservice.ListView
	Roles         []domain.Role
	EditOpen      bool
	DeleteOpen    bool
	AddMemberOpen bool
	CreateBugOpen bool
	// Invitees are the users the add-member dialog offers for InviteQuery.
	Invitees    []authdomain.User
	InviteQuery string
	// Query is the current filter query, kept across pagination links.
	Query string
}
