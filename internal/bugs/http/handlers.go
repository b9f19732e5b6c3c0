package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bugboard/bugboard/internal/breadcrumb"
	"github.com/bugboard/bugboard/internal/bugs/domain"
	"github.com/bugboard/bugboard/internal/bugs/service"
	"github.com/bugboard/bugboard/internal/logging"
	"github.com/bugboard/bugboard/internal/notify"
	"github.com/bugboard/bugboard/internal/validation"
	"github.com/bugboard/bugboard/internal/web"
)

func bugPath(projectID, bugID string) string {
	return "/projects/" + projectID + "/bugs/" + bugID
}

// load builds the controller for the bug in the URL. On failure the
// response has been written and ok is false.
func (h *Handler) load(r *web.Request, c *gin.Context) (ctrl *service.Controller, ok bool) {
	projectID, bugID := c.Param("id"), c.Param("bugId")
	ctrl = service.NewController(r.API(), r.Notes, projectID, bugID)
	err := ctrl.Load(c.Request.Context())
	if err == nil {
		return ctrl, true
	}
	if r.Expired(err) {
		return nil, false
	}
	if errors.Is(err, domain.ErrNotFound) {
		r.Notes.Error(c.Request.Context(), "Bug not found")
	} else {
		logging.FromContext(c.Request.Context()).LogError("load_bug", err)
		r.Notes.Error(c.Request.Context(), notify.MsgError)
	}
	r.Redirect("/projects/" + projectID)
	return nil, false
}

func (h *Handler) render(r *web.Request, status int, ctrl *service.Controller, errs validation.Errors) {
	defer ctrl.Close()
	b := ctrl.Bug()
	edit, editing := ctrl.Editing()
	deleteOpen, deleteErr := ctrl.DeleteDialog()
	view := ctrl.Membership(r.UserID())

	data := bugData{
		ProjectID:   b.Project.ID,
		ProjectName: ctrl.ProjectName(),
		Bug:         b,
		View:        view,
		Activity:    ctrl.Activity(),
		Edit:        edit,
		Editing:     editing,
		AssignOpen:  ctrl.AssignOpen() && view.Capabilities.CanAssign,
		Candidates:  ctrl.AssignCandidates(),
		DeleteOpen:  deleteOpen,
		Draft:       ctrl.Draft(),
	}
	if data.ProjectID == "" {
		if p := ctrl.Project(); p != nil {
			data.ProjectID = p.ID
		}
	}
	if deleteErr != nil {
		data.DeleteError = notify.FailureText(deleteErr, notify.BugDelete.Failure)
	}

	r.Trail.Set(breadcrumb.Bug(data.ProjectID, data.ProjectName, b.ID, b.Title)...)
	r.Render(status, "bug.html", web.Page{Title: b.Title, Errors: errs, Data: data})
}

func (h *Handler) show(c *gin.Context) {
	r := web.From(c)
	ctrl, ok := h.load(r, c)
	if !ok {
		return
	}
	if c.Query("edit") != "" {
		_ = ctrl.BeginEdit()
	}
	if c.Query("assign") != "" {
		ctrl.OpenAssign()
	}
	if c.Query("delete") != "" {
		ctrl.RequestDelete()
	}
	h.render(r, http.StatusOK, ctrl, nil)
}

// mutate runs fn on a freshly loaded controller while holding the
// session's lock on the bug. A concurrent mutation of the same bug from
// the same session is turned away.
func (h *Handler) mutate(c *gin.Context, fn func(r *web.Request, ctrl *service.Controller)) {
	r := web.From(c)
	release, ok := r.Lock(c.Param("bugId"))
	if !ok {
		r.Redirect(bugPath(c.Param("id"), c.Param("bugId")))
		return
	}
	defer release()

	ctrl, ok := h.load(r, c)
	if !ok {
		return
	}
	fn(r, ctrl)
}

// failed handles a mutation error that is not a form problem: an expired
// session, a busy controller, or an API error already shown as a toast.
// It reports whether the response has been written.
func failed(r *web.Request, c *gin.Context, err error) bool {
	if r.Expired(err) {
		return true
	}
	if errors.Is(err, domain.ErrBusy) {
		r.Notes.Error(c.Request.Context(), notify.MsgBusy)
		r.Redirect(bugPath(c.Param("id"), c.Param("bugId")))
		return true
	}
	return false
}

func (h *Handler) edit(c *gin.Context) {
	h.mutate(c, func(r *web.Request, ctrl *service.Controller) {
		var form editForm
		_ = c.ShouldBind(&form)

		_ = ctrl.BeginEdit()
		_ = ctrl.Stage(domain.Priority(form.Priority), domain.Status(form.Status), form.StatusComment)
		err := ctrl.SubmitEdit(c.Request.Context())
		if err == nil {
			r.Redirect(bugPath(c.Param("id"), c.Param("bugId")))
			return
		}
		if failed(r, c, err) {
			return
		}
		errs, _ := err.(validation.Errors)
		h.render(r, http.StatusUnprocessableEntity, ctrl, errs)
	})
}

func (h *Handler) assign(c *gin.Context) {
	h.mutate(c, func(r *web.Request, ctrl *service.Controller) {
		err := ctrl.Assign(c.Request.Context(), c.PostForm("assignedTo"))
		if err == nil {
			r.Redirect(bugPath(c.Param("id"), c.Param("bugId")))
			return
		}
		if failed(r, c, err) {
			return
		}
		if errors.Is(err, domain.ErrAlreadyAssigned) {
			r.Notes.Info(c.Request.Context(), "Bug is already assigned to this member")
		}
		ctrl.OpenAssign()
		errs, _ := err.(validation.Errors)
		h.render(r, http.StatusUnprocessableEntity, ctrl, errs)
	})
}

func (h *Handler) comment(c *gin.Context) {
	h.mutate(c, func(r *web.Request, ctrl *service.Controller) {
		ctrl.SetDraft(c.PostForm("content"))
		err := ctrl.SubmitComment(c.Request.Context())
		if err == nil {
			r.Redirect(bugPath(c.Param("id"), c.Param("bugId")))
			return
		}
		if failed(r, c, err) {
			return
		}
		h.render(r, http.StatusUnprocessableEntity, ctrl, nil)
	})
}

// delete is the second step of deletion. Only the confirmation dialog
// posts confirm=yes; anything else just opens the dialog.
func (h *Handler) delete(c *gin.Context) {
	if c.PostForm("confirm") != "yes" {
		web.From(c).Redirect(bugPath(c.Param("id"), c.Param("bugId")) + "?delete=1")
		return
	}
	h.mutate(c, func(r *web.Request, ctrl *service.Controller) {
		ctrl.RequestDelete()
		err := ctrl.ConfirmDelete(c.Request.Context())
		if err == nil && ctrl.Deleted() {
			r.Redirect("/projects/" + c.Param("id"))
			return
		}
		if failed(r, c, err) {
			return
		}
		h.render(r, http.StatusUnprocessableEntity, ctrl, nil)
	})
}

func (h *Handler) myBugs(c *gin.Context) {
	r := web.From(c)
	ctx := c.Request.Context()
	projects, err := r.API().Projects(ctx)
	if err != nil {
		if r.Expired(err) {
			return
		}
		logging.FromContext(ctx).LogError("my_bugs", err)
		r.Notes.Error(ctx, "Failed to load projects")
	}

	status := domain.Status(c.Query("status"))
	opts := service.MyBugsOptions{Concurrency: r.FanOut()}
	if status.Valid() {
		opts.PerProject.Status = string(status)
	} else {
		status = ""
	}
	res := service.NewCollection(r.API(), r.Notes).MyBugs(ctx, r.UserID(), projects, opts)

	r.Trail.Set(breadcrumb.MyBugs()...)
	r.Render(http.StatusOK, "my_bugs.html", web.Page{
		Title: "My Bugs",
		Data: myBugsData{
			Bugs:     res.Bugs,
			Failed:   len(res.Failed),
			Status:   string(status),
			Statuses: domain.Statuses,
		},
	})
}
