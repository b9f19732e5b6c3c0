package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugboard/bugboard/internal/api/client"
	"github.com/bugboard/bugboard/internal/bugs/domain"
	projectdomain "github.com/bugboard/bugboard/internal/projects/domain"
)

func TestLoad_NotFound(t *testing.T) {
	f := newFixture(t)
	c := NewController(f.api, f.notes, f.project.ID, "missing")

	err := c.Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, err, client.ErrNotFound)
}

// Dashboard through status change, against the fake API.
func TestBugLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	projects, err := f.api.Projects(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, projects)
	assert.Equal(t, "Checkout Revamp", projects[0].Name)
	view := projectdomain.Resolve(&projects[0], f.adminID)
	assert.True(t, view.IsAdmin)

	created, err := f.collection().Create(ctx, f.project.ID, f.adminID, CreateForm{Title: "Cart total wrong", Priority: "high"})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, created.Priority)
	assert.Equal(t, domain.StatusOpen, created.Status)
	assert.Nil(t, created.AssignedTo)

	c := f.controller(t, created.ID)
	candidates := c.AssignCandidates()
	require.Len(t, candidates, 2)
	for _, cand := range candidates {
		assert.False(t, cand.Blocked)
	}

	require.NoError(t, c.Assign(ctx, f.devID))
	b := c.Bug()
	require.NotNil(t, b.AssignedTo)
	assert.Equal(t, f.devID, b.AssignedTo.ID)
	require.Len(t, b.History, 1)
	assert.Equal(t, "assignedTo", b.History[0].Field)
	assert.Equal(t, "none", domain.FormatValue(b.History[0].OldValue))
	assert.Equal(t, f.devID, domain.FormatValue(b.History[0].NewValue))
	assert.Contains(t, f.messages(t), "Bug successfully assigned to Dev!")
	assert.False(t, c.AssignOpen())

	require.NoError(t, c.BeginEdit())
	require.NoError(t, c.Stage("", domain.StatusResolved, "fixed rounding"))
	require.NoError(t, c.SubmitEdit(ctx))

	b = c.Bug()
	assert.Equal(t, domain.StatusResolved, b.Status)
	require.Len(t, b.History, 2)
	last := b.History[1]
	assert.Equal(t, "status", last.Field)
	assert.Equal(t, "open", domain.FormatValue(last.OldValue))
	assert.Equal(t, "resolved", domain.FormatValue(last.NewValue))
	assert.Equal(t, "fixed rounding", last.Comment)
	_, editing := c.Editing()
	assert.False(t, editing)

	activity := c.Activity()
	require.Len(t, activity, 2)
	assert.Equal(t, "status", activity[0].Change.Field)
}

func TestAssign_CurrentAssigneeRejectedLocally(t *testing.T) {
	f := newFixture(t)
	b, err := f.collection().Create(context.Background(), f.project.ID, f.adminID, CreateForm{Title: "x", AssignedTo: f.devID})
	require.NoError(t, err)
	c := f.controller(t, b.ID)
	before := f.srv.CountCalls("PUT")

	err = c.Assign(context.Background(), f.devID)

	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
	assert.Equal(t, before, f.srv.CountCalls("PUT"))
	for _, cand := range c.AssignCandidates() {
		assert.Equal(t, cand.User.ID == f.devID, cand.Blocked)
	}
}

func TestAssign_FailureKeepsDialogOpenWithServerMessage(t *testing.T) {
	f := newFixture(t)
	outsider, _ := f.srv.AddUser("Out", "out@example.com", "secret1")
	b := f.createBug(t, "x")
	c := f.controller(t, b.ID)
	c.OpenAssign()

	err := c.Assign(context.Background(), outsider)

	assert.ErrorIs(t, err, client.ErrValidation)
	assert.True(t, c.AssignOpen())
	assert.Contains(t, f.messages(t), "User is not a member of this project")
}

func TestSubmitEdit_CommentOnlyWithStatusChange(t *testing.T) {
	f := newFixture(t)
	b := f.createBug(t, "x")
	c := f.controller(t, b.ID)

	require.NoError(t, c.BeginEdit())
	require.NoError(t, c.Stage(domain.PriorityCritical, "", "ignored"))
	require.NoError(t, c.SubmitEdit(context.Background()))

	got := c.Bug()
	assert.Equal(t, domain.PriorityCritical, got.Priority)
	require.Len(t, got.History, 1)
	assert.Equal(t, "priority", got.History[0].Field)
	assert.Empty(t, got.History[0].Comment)
}

func TestSubmitEdit_FailureKeepsEdit(t *testing.T) {
	f := newFixture(t)
	b := f.createBug(t, "x")
	c := f.controller(t, b.ID)
	require.NoError(t, c.BeginEdit())
	require.NoError(t, c.Stage("", domain.StatusClosed, ""))
	f.srv.FailNext("PUT /api/projects/", http.StatusInternalServerError)

	err := c.SubmitEdit(context.Background())

	require.ErrorIs(t, err, client.ErrServer)
	st, editing := c.Editing()
	assert.True(t, editing)
	assert.Equal(t, domain.StatusClosed, st.Status)
	assert.Equal(t, domain.StatusOpen, c.Bug().Status)
	assert.Contains(t, f.messages(t), "injected failure")
}

func TestSubmitEdit_RequiresBeginEdit(t *testing.T) {
	f := newFixture(t)
	c := f.controller(t, f.createBug(t, "x").ID)
	assert.ErrorIs(t, c.SubmitEdit(context.Background()), domain.ErrNotEditing)
	assert.ErrorIs(t, c.Stage("", domain.StatusClosed, ""), domain.ErrNotEditing)
}

func TestSubmitComment(t *testing.T) {
	f := newFixture(t)
	c := f.controller(t, f.createBug(t, "x").ID)
	before := f.srv.CountCalls("POST")

	c.SetDraft("   ")
	require.NoError(t, c.SubmitComment(context.Background()))
	assert.Equal(t, before, f.srv.CountCalls("POST"))

	c.SetDraft("  looks like a rounding issue ")
	require.NoError(t, c.SubmitComment(context.Background()))
	assert.Empty(t, c.Draft())
	require.Len(t, c.Bug().Comments, 1)
	assert.Equal(t, "looks like a rounding issue", c.Bug().Comments[0].Content)
}

func TestSubmitComment_FailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	c := f.controller(t, f.createBug(t, "x").ID)
	f.srv.FailNext("POST /api/projects/", http.StatusBadGateway)
	c.SetDraft("hello")

	err := c.SubmitComment(context.Background())

	require.Error(t, err)
	assert.Equal(t, "hello", c.Draft())
}

func TestDelete_TwoStep(t *testing.T) {
	f := newFixture(t)
	c := f.controller(t, f.createBug(t, "x").ID)
	ctx := context.Background()

	assert.ErrorIs(t, c.ConfirmDelete(ctx), domain.ErrNoDeleteDialog)
	assert.Zero(t, f.srv.CountCalls("DELETE"))

	c.RequestDelete()
	f.srv.FailNext("DELETE", http.StatusForbidden)
	require.ErrorIs(t, c.ConfirmDelete(ctx), client.ErrForbidden)
	open, derr := c.DeleteDialog()
	assert.True(t, open)
	assert.Error(t, derr)
	assert.False(t, c.Deleted())

	require.NoError(t, c.ConfirmDelete(ctx))
	assert.True(t, c.Deleted())
	open, _ = c.DeleteDialog()
	assert.False(t, open)
	assert.Contains(t, f.messages(t), "Bug deleted successfully")
}

func TestCancelDelete(t *testing.T) {
	f := newFixture(t)
	c := f.controller(t, f.createBug(t, "x").ID)
	c.RequestDelete()
	c.CancelDelete()
	assert.ErrorIs(t, c.ConfirmDelete(context.Background()), domain.ErrNoDeleteDialog)
}

// blockingAPI holds AssignBug until release is closed.
type blockingAPI struct {
	BugAPI
	entered chan struct{}
	release chan struct{}
}

func (b *blockingAPI) AssignBug(ctx context.Context, projectID, bugID, userID string) error {
	close(b.entered)
	<-b.release
	return nil
}

func (b *blockingAPI) AddComment(ctx context.Context, projectID, bugID, content string) error {
	panic("AddComment must not be called while another mutation is in flight")
}

func TestMutationsAreSerialised(t *testing.T) {
	f := newFixture(t)
	bug := f.createBug(t, "x")
	api := &blockingAPI{BugAPI: f.api, entered: make(chan struct{}), release: make(chan struct{})}
	c := NewController(api, nil, f.project.ID, bug.ID)
	require.NoError(t, c.Load(context.Background()))

	done := make(chan error, 1)
	go func() { done <- c.Assign(context.Background(), f.devID) }()
	<-api.entered

	assert.True(t, c.Busy())
	c.SetDraft("second")
	assert.ErrorIs(t, c.SubmitComment(context.Background()), domain.ErrBusy)

	close(api.release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("assign did not finish")
	}
	assert.False(t, c.Busy())
}

func TestClose_DiscardsLateResults(t *testing.T) {
	f := newFixture(t)
	bug := f.createBug(t, "x")
	api := &blockingAPI{BugAPI: f.api, entered: make(chan struct{}), release: make(chan struct{})}
	c := NewController(api, nil, f.project.ID, bug.ID)
	require.NoError(t, c.Load(context.Background()))

	done := make(chan error, 1)
	go func() { done <- c.Assign(context.Background(), f.devID) }()
	<-api.entered
	c.Close()
	close(api.release)

	assert.ErrorIs(t, <-done, domain.ErrClosed)
	assert.Nil(t, c.Bug().AssignedTo)
	assert.ErrorIs(t, c.BeginEdit(), domain.ErrClosed)
}
