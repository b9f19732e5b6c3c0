package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bugboard/bugboard/internal/breadcrumb"
	bugdomain "github.com/bugboard/bugboard/internal/bugs/domain"
	bugservice "github.com/bugboard/bugboard/internal/bugs/service"
	"github.com/bugboard/bugboard/internal/logging"
	"github.com/bugboard/bugboard/internal/projects/domain"
	"github.com/bugboard/bugboard/internal/projects/service"
	"github.com/bugboard/bugboard/internal/validation"
	"github.com/bugboard/bugboard/internal/web"
)

func projects(r *web.Request) *service.ProjectService {
	return service.NewProjectService(r.API(), r.Notes)
}

func (h *Handler) dashboard(c *gin.Context) {
	h.renderDashboard(web.From(c), http.StatusOK, nil, nil)
}

func (h *Handler) renderDashboard(r *web.Request, status int, errs validation.Errors, form map[string]string) {
	ctx := r.Context()
	list, err := projects(r).List(ctx)
	if err != nil {
		if r.Expired(err) {
			return
		}
		logging.FromContext(ctx).LogError("list_projects", err)
		r.Notes.Error(ctx, "Failed to load projects")
	}
	recent := bugservice.NewCollection(r.API(), r.Notes).RecentForUser(ctx, r.UserID(), list, r.FanOut())

	r.Trail.Set(breadcrumb.Dashboard()...)
	r.Render(status, "dashboard.html", web.Page{
		Title:  "Dashboard",
		Errors: errs,
		Form:   form,
		Data: dashboardData{
			Projects:   list,
			RecentBugs: recent.Bugs,
			CreateOpen: errs != nil,
		},
	})
}

func (h *Handler) create(c *gin.Context) {
	r := web.From(c)
	var form projectForm
	_ = c.ShouldBind(&form)

	_, err := projects(r).Create(c.Request.Context(), domain.ProjectInput{Name: form.Name, Description: form.Description})
	if err != nil {
		if r.Expired(err) {
			return
		}
		// The failure toast is already queued; keep what was typed.
		h.renderDashboard(r, http.StatusUnprocessableEntity, formErrors(err), form.values())
		return
	}
	r.Redirect("/dashboard")
}

func (h *Handler) show(c *gin.Context) {
	r := web.From(c)
	h.renderProject(r, c, http.StatusOK, projectData{
		EditOpen:      c.Query("edit") != "",
		DeleteOpen:    c.Query("delete") != "",
		AddMemberOpen: c.Query("addMember") != "",
		CreateBugOpen: c.Query("newBug") != "",
	}, nil, nil)
}

// renderProject loads the project and its bug list around the dialog
// state in data. A missing project goes back to the dashboard.
func (h *Handler) renderProject(r *web.Request, c *gin.Context, status int, data projectData, errs validation.Errors, form map[string]string) {
	ctx := c.Request.Context()
	id := c.Param("id")
	p, view, err := projects(r).GetWithView(ctx, id, r.UserID())
	if err != nil {
		if r.Expired(err) {
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			r.Notes.Error(ctx, "Project not found")
		} else {
			logging.FromContext(ctx).LogError("get_project", err)
			r.Notes.Error(ctx, "Failed to load project")
		}
		r.Redirect("/dashboard")
		return
	}

	filters := bugdomain.FiltersFromQuery(c.Request.URL.Query())
	bugs := bugservice.NewCollection(r.API(), r.Notes).List(ctx, p.ID, filters)
	if r.Expired(bugs.Err) {
		return
	}

	data.Project = p
	data.View = view
	data.Bugs = bugs
	data.Roles = domain.Roles
	data.Query = bugs.Filters.Query().Encode()
	// Only admins get the mutating dialogs.
	if !view.IsAdmin {
		data.EditOpen, data.DeleteOpen, data.AddMemberOpen = false, false, false
	}
	if data.AddMemberOpen {
		data.InviteQuery = strings.TrimSpace(c.Query("q"))
		invitees, err := projects(r).Invitees(ctx, p, data.InviteQuery)
		if err != nil {
			if r.Expired(err) {
				return
			}
			logging.FromContext(ctx).LogWarnf("search_users", "suggestions unavailable: %v", err)
		}
		data.Invitees = invitees
		if form == nil && c.Query("email") != "" {
			form = map[string]string{"userEmail": c.Query("email")}
		}
	}

	r.Trail.Set(breadcrumb.Project(p.ID, p.Name)...)
	r.Render(status, "project.html", web.Page{
		Title:  p.Name,
		Errors: errs,
		Form:   form,
		Data:   data,
	})
}

func (h *Handler) update(c *gin.Context) {
	r := web.From(c)
	id := c.Param("id")
	var form projectForm
	_ = c.ShouldBind(&form)

	_, err := projects(r).Update(c.Request.Context(), id, domain.ProjectInput{Name: form.Name, Description: form.Description})
	if err != nil {
		if r.Expired(err) {
			return
		}
		h.renderProject(r, c, http.StatusUnprocessableEntity, projectData{EditOpen: true}, formErrors(err), form.values())
		return
	}
	r.Redirect("/projects/" + id)
}

func (h *Handler) delete(c *gin.Context) {
	r := web.From(c)
	id := c.Param("id")
	if err := projects(r).Delete(c.Request.Context(), id); err != nil {
		if r.Expired(err) {
			return
		}
		r.Redirect("/projects/" + id)
		return
	}
	r.Redirect("/dashboard")
}

func (h *Handler) addMember(c *gin.Context) {
	r := web.From(c)
	id := c.Param("id")
	var form memberForm
	_ = c.ShouldBind(&form)

	_, err := projects(r).AddMember(c.Request.Context(), id, form.UserEmail, domain.ParseRole(form.Role))
	if err != nil {
		if r.Expired(err) {
			return
		}
		h.renderProject(r, c, http.StatusUnprocessableEntity, projectData{AddMemberOpen: true}, formErrors(err),
			map[string]string{"userEmail": form.UserEmail, "role": form.Role})
		return
	}
	r.Redirect("/projects/" + id)
}

// createBug files a bug from the project page's report dialog. Any failure
// reopens the dialog with the submitted values.
func (h *Handler) createBug(c *gin.Context) {
	r := web.From(c)
	id := c.Param("id")
	var form bugForm
	_ = c.ShouldBind(&form)

	_, err := bugservice.NewCollection(r.API(), r.Notes).Create(c.Request.Context(), id, r.UserID(), bugservice.CreateForm{
		Title:       form.Title,
		Description: form.Description,
		Priority:    form.Priority,
		AssignedTo:  form.AssignedTo,
	})
	if err != nil {
		if r.Expired(err) {
			return
		}
		h.renderProject(r, c, http.StatusUnprocessableEntity, projectData{CreateBugOpen: true}, formErrors(err), form.values())
		return
	}
	r.Redirect("/projects/" + id)
}

// formErrors keeps field errors for the form; other failures have already
// been reported as a notification.
func formErrors(err error) validation.Errors {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return verrs
	}
	return validation.Errors{}
}

func (h *Handler) removeMember(c *gin.Context) {
	r := web.From(c)
	id := c.Param("id")
	if _, err := projects(r).RemoveMember(c.Request.Context(), id, c.Param("memberId")); err != nil && r.Expired(err) {
		return
	}
	r.Redirect("/projects/" + id)
}
