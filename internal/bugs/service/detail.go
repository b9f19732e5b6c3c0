package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bugboard/bugboard/internal/api/client"
	"github.com/bugboard/bugboard/internal/bugs/domain"
	"github.com/bugboard/bugboard/internal/logging"
	"github.com/bugboard/bugboard/internal/notify"
	projectdomain "github.com/bugboard/bugboard/internal/projects/domain"
	"github.com/bugboard/bugboard/internal/validation"
)

// EditState is the staged edit of a bug.
type EditState struct {
	Priority      domain.Priority
	Status        domain.Status
	StatusComment string
}

// Candidate is a member offered in the assign dialog. The current assignee
// is Blocked.
type Candidate struct {
	projectdomain.Member
	Blocked bool
}

// Controller holds the state of one bug page: the loaded bug, any open
// edit, assign or delete dialog, and the comment draft. Mutations are
// serialised; a second one while another is in flight fails with ErrBusy.
type Controller struct {
	api       BugAPI
	notes     *notify.Center
	projectID string
	bugID     string

	mu         sync.Mutex
	bug        *domain.Bug
	project    *projectdomain.Project
	inFlight   bool
	closed     bool
	edit       *EditState
	assignOpen bool
	draft      string
	deleteOpen bool
	deleteErr  error
	deleted    bool
}

func NewController(api BugAPI, notes *notify.Center, projectID, bugID string) *Controller {
	return &Controller{api: api, notes: notes, projectID: projectID, bugID: bugID}
}

// Load fetches the bug and its project. A missing bug returns an error
// matching domain.ErrNotFound; the project is best effort since only the
// assign dialog and role checks need it.
func (c *Controller) Load(ctx context.Context) error {
	b, err := c.api.Bug(ctx, c.projectID, c.bugID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		}
		return fmt.Errorf("load bug %s: %w", c.bugID, err)
	}
	p, perr := c.api.Project(ctx, c.projectID)
	if perr != nil {
		if client.IsUnauthorized(perr) {
			return fmt.Errorf("load project %s: %w", c.projectID, perr)
		}
		logging.FromContext(ctx).LogWarnf("load_bug", "project=%s unavailable: %v", c.projectID, perr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrClosed
	}
	c.bug = b
	if perr == nil {
		c.project = p
	}
	return nil
}

func (c *Controller) Bug() *domain.Bug {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bug
}

func (c *Controller) Project() *projectdomain.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.project
}

// ProjectName is empty until the project has loaded.
func (c *Controller) ProjectName() string {
	if p := c.Project(); p != nil {
		return p.Name
	}
	if b := c.Bug(); b != nil {
		return b.Project.Name
	}
	return ""
}

// Membership resolves userID's role in the bug's project.
func (c *Controller) Membership(userID string) projectdomain.View {
	return projectdomain.Resolve(c.Project(), userID)
}

// Activity is the merged history and comments, most recent first.
func (c *Controller) Activity() []domain.Activity {
	if b := c.Bug(); b != nil {
		return b.Activity()
	}
	return nil
}

func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Close tears the controller down. Results of calls still in flight are
// dropped when they arrive.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return domain.ErrClosed
	case c.bug == nil:
		return domain.ErrNotFound
	case c.inFlight:
		return domain.ErrBusy
	}
	c.inFlight = true
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// track runs a mutation with notification feedback unless the controller
// was closed meanwhile, in which case the outcome is swallowed.
func (c *Controller) track(ctx context.Context, m notify.Messages, fn func(context.Context) error) error {
	var notes *notify.Center
	if !c.isClosed() {
		notes = c.notes
	}
	return notes.Track(ctx, m, fn)
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// refetch replaces the bug with the server's copy. The mutation already
// succeeded, so a failed refetch only leaves the old copy in place.
func (c *Controller) refetch(ctx context.Context) {
	b, err := c.api.Bug(ctx, c.projectID, c.bugID)
	if err != nil {
		logging.FromContext(ctx).LogWarnf("refetch_bug", "bug=%s kept stale copy: %v", c.bugID, err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.bug = b
	}
}

// BeginEdit stages the bug's current priority and status.
func (c *Controller) BeginEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrClosed
	}
	if c.bug == nil {
		return domain.ErrNotFound
	}
	c.edit = &EditState{Priority: c.bug.Priority, Status: c.bug.Status}
	return nil
}

// Stage overwrites the staged values. Empty priority or status keep the
// staged value.
func (c *Controller) Stage(priority domain.Priority, status domain.Status, statusComment string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edit == nil {
		return domain.ErrNotEditing
	}
	if priority != "" {
		c.edit.Priority = priority
	}
	if status != "" {
		c.edit.Status = status
	}
	c.edit.StatusComment = statusComment
	return nil
}

func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edit = nil
}

// Editing returns the staged edit, if any.
func (c *Controller) Editing() (EditState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.edit == nil {
		return EditState{}, false
	}
	return *c.edit, true
}

// SubmitEdit sends the staged priority and status. The status comment goes
// along only when the status actually changes. On failure the edit stays
// open with the attempted values.
func (c *Controller) SubmitEdit(ctx context.Context) error {
	c.mu.Lock()
	if c.edit == nil {
		c.mu.Unlock()
		return domain.ErrNotEditing
	}
	staged := *c.edit
	current := c.bug
	c.mu.Unlock()

	in := domain.UpdateInput{Priority: staged.Priority, Status: staged.Status}
	if current != nil && staged.Status != current.Status {
		in.StatusComment = strings.TrimSpace(staged.StatusComment)
	}
	if err := validation.Struct(in); err != nil {
		c.notes.Error(ctx, notify.FailureText(err, notify.BugUpdate.Failure))
		return err
	}

	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	err := c.track(ctx, notify.BugUpdate, func(ctx context.Context) error {
		_, err := c.api.UpdateBug(ctx, c.projectID, c.bugID, in)
		return err
	})
	if err != nil {
		return fmt.Errorf("update bug %s: %w", c.bugID, err)
	}
	if c.isClosed() {
		return domain.ErrClosed
	}
	c.mu.Lock()
	c.edit = nil
	c.mu.Unlock()
	c.refetch(ctx)
	return nil
}

func (c *Controller) OpenAssign() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assignOpen = true
}

func (c *Controller) CloseAssign() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assignOpen = false
}

func (c *Controller) AssignOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assignOpen
}

// AssignCandidates lists the project's members in project order.
func (c *Controller) AssignCandidates() []Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.project == nil {
		return nil
	}
	out := make([]Candidate, 0, len(c.project.Members))
	for _, m := range c.project.Members {
		out = append(out, Candidate{
			Member:  m,
			Blocked: c.bug != nil && c.bug.IsAssignedTo(m.User.ID),
		})
	}
	return out
}

// Assign gives the bug to userID. Assigning to the current assignee is
// rejected without a call.
func (c *Controller) Assign(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return validation.Errors{}.Add("assignedTo", "Please select a member")
	}

	c.mu.Lock()
	if c.bug != nil && c.bug.IsAssignedTo(userID) {
		c.mu.Unlock()
		return domain.ErrAlreadyAssigned
	}
	name := userID
	if c.project != nil {
		if m := c.project.FindMember(userID); m != nil {
			name = m.User.DisplayName()
		}
	}
	c.mu.Unlock()

	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	m := notify.BugAssign
	m.Success = fmt.Sprintf("Bug successfully assigned to %s!", name)
	err := c.track(ctx, m, func(ctx context.Context) error {
		return c.api.AssignBug(ctx, c.projectID, c.bugID, userID)
	})
	if err != nil {
		c.OpenAssign()
		return fmt.Errorf("assign bug %s: %w", c.bugID, err)
	}
	if c.isClosed() {
		return domain.ErrClosed
	}
	c.CloseAssign()
	c.refetch(ctx)
	return nil
}

func (c *Controller) SetDraft(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = s
}

func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SubmitComment posts the draft. A blank draft does nothing. The draft is
// kept when the call fails.
func (c *Controller) SubmitComment(ctx context.Context) error {
	content := strings.TrimSpace(c.Draft())
	if content == "" {
		return nil
	}

	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	err := c.track(ctx, notify.BugComment, func(ctx context.Context) error {
		return c.api.AddComment(ctx, c.projectID, c.bugID, content)
	})
	if err != nil {
		return fmt.Errorf("comment on bug %s: %w", c.bugID, err)
	}
	if c.isClosed() {
		return domain.ErrClosed
	}
	c.SetDraft("")
	c.refetch(ctx)
	return nil
}

func (c *Controller) RequestDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteOpen = true
	c.deleteErr = nil
}

func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteOpen = false
	c.deleteErr = nil
}

// DeleteDialog reports whether the confirmation is open and the error of
// the last failed attempt.
func (c *Controller) DeleteDialog() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteOpen, c.deleteErr
}

// ConfirmDelete deletes the bug; the dialog must be open. After success
// Deleted reports true and the caller leaves the page.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	open := c.deleteOpen
	c.mu.Unlock()
	if !open {
		return domain.ErrNoDeleteDialog
	}

	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	err := c.track(ctx, notify.BugDelete, func(ctx context.Context) error {
		return c.api.DeleteBug(ctx, c.projectID, c.bugID)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrClosed
	}
	if err != nil {
		c.deleteErr = err
		return fmt.Errorf("delete bug %s: %w", c.bugID, err)
	}
	c.deleteOpen = false
	c.deleted = true
	return nil
}

func (c *Controller) Deleted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleted
}
