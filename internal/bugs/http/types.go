package http

import (
	"github.com/bugboard/bugboard/internal/bugs/domain"
	"github.com/bugboard/bugboard/internal/bugs/service"
	projectdomain "github.com/bugboard/bugboard/internal/projects/domain"
)

// Handler serves bug pages.
type Handler struct{}

func New() *Handler {
	return &Handler{}
}

type editForm struct {
	Priority      string `form:"priority"`
	Status        string `form:"status"`
	StatusComment string `form:"statusComment"`
}

type bugData struct {
	ProjectID   string
	ProjectName string
	Bug         *domain.Bug
	View        projectdomain.View
	Activity    []domain.Activity
	Edit        service.EditState
	Editing     bool
	AssignOpen  bool
	Candidates  []service.Candidate
	DeleteOpen  bool
	DeleteError string
	Draft       string
}

type myBugsData struct {
	Bugs     []domain.Bug
	Failed   int
	Status   string
	Statuses []domain.Status
}
