package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugboard/bugboard/internal/api/apitest"
	"github.com/bugboard/bugboard/internal/api/client"
	"github.com/bugboard/bugboard/internal/bugs/domain"
	"github.com/bugboard/bugboard/internal/notify"
	projectdomain "github.com/bugboard/bugboard/internal/projects/domain"
	"github.com/bugboard/bugboard/internal/session"
	"github.com/bugboard/bugboard/internal/validation"
)

type fixture struct {
	srv     *apitest.Server
	api     *client.Client
	notes   *notify.Center
	adminID string
	devID   string
	project *projectdomain.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)

	adminID, token := srv.AddUser("Ada", "ada@example.com", "secret1")
	devID, _ := srv.AddUser("Dev", "dev@example.com", "secret1")
	api := client.New(client.Options{BaseURL: srv.APIURL()}).WithTokenStore(session.NewMemoryStore(token))

	p, err := api.CreateProject(context.Background(), projectdomain.ProjectInput{Name: "Checkout Revamp"})
	require.NoError(t, err)
	srv.AddMember(p.ID, devID, "developer")
	p, err = api.Project(context.Background(), p.ID)
	require.NoError(t, err)

	return &fixture{
		srv:     srv,
		api:     api,
		notes:   notify.NewCenter(notify.NewMemoryStore(), "test"),
		adminID: adminID,
		devID:   devID,
		project: p,
	}
}

func (f *fixture) collection() *Collection { return NewCollection(f.api, f.notes) }

func (f *fixture) createBug(t *testing.T, title string) *domain.Bug {
	t.Helper()
	b, err := f.collection().Create(context.Background(), f.project.ID, f.adminID, CreateForm{Title: title})
	require.NoError(t, err)
	return b
}

func (f *fixture) controller(t *testing.T, bugID string) *Controller {
	t.Helper()
	c := NewController(f.api, f.notes, f.project.ID, bugID)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func (f *fixture) messages(t *testing.T) []string {
	t.Helper()
	list, err := f.notes.Active(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.Message)
	}
	return out
}

func TestCreate_DefaultsAndTrims(t *testing.T) {
	f := newFixture(t)

	b, err := f.collection().Create(context.Background(), f.project.ID, f.adminID, CreateForm{
		Title:       "  Cart total wrong ",
		Description: "adds tax twice",
		Priority:    "high",
	})

	require.NoError(t, err)
	assert.Equal(t, "Cart total wrong", b.Title)
	assert.Equal(t, domain.PriorityHigh, b.Priority)
	assert.Equal(t, domain.StatusOpen, b.Status)
	assert.Nil(t, b.AssignedTo)
	assert.Contains(t, f.messages(t), "Bug report created successfully")
}

func TestCreate_BlankTitleMakesNoCall(t *testing.T) {
	f := newFixture(t)
	before := f.srv.CountCalls("POST /api/projects/" + f.project.ID + "/bugs")

	_, err := f.collection().Create(context.Background(), f.project.ID, f.adminID, CreateForm{Title: "   "})

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "Title is required", verrs.Get("title"))
	assert.Equal(t, before, f.srv.CountCalls("POST /api/projects/"+f.project.ID+"/bugs"))
}

func TestCreateForm_Input(t *testing.T) {
	in := CreateForm{Title: "x"}.Input("p1", "u1")
	assert.Equal(t, domain.PriorityMedium, in.Priority)
	assert.Empty(t, in.AssignedTo)
	assert.Empty(t, in.Status)
}

func TestList_DegradesOnFailure(t *testing.T) {
	f := newFixture(t)
	f.createBug(t, "one")
	f.srv.FailBugList(f.project.ID, http.StatusInternalServerError)

	v := f.collection().List(context.Background(), f.project.ID, domain.Filters{})

	assert.True(t, v.Empty())
	assert.Equal(t, NoBugsFound, v.EmptyText())
	require.Error(t, v.Err)
	assert.ErrorIs(t, v.Err, client.ErrServer)
	assert.False(t, v.SessionExpired())
}

func TestList_PagingAndSearch(t *testing.T) {
	f := newFixture(t)
	f.createBug(t, "Login broken")
	f.createBug(t, "Cart total wrong")
	f.createBug(t, "Cart empty after refresh")

	v := f.collection().List(context.Background(), f.project.ID, domain.Filters{}.WithLimit(2))
	require.NoError(t, v.Err)
	assert.Len(t, v.Bugs, 2)
	assert.Equal(t, 3, v.TotalCount)
	assert.True(t, v.HasMore)
	assert.Equal(t, 2, v.NextSkip())
	assert.Equal(t, "Cart empty after refresh", v.Bugs[0].Title)

	v = f.collection().List(context.Background(), f.project.ID, domain.Filters{SearchText: " cart "})
	require.NoError(t, v.Err)
	assert.Len(t, v.Bugs, 2)
	assert.False(t, v.HasMore)
}

// looseSearchAPI ignores searchText, like a server whose search is wider
// than the local title/description match.
type looseSearchAPI struct {
	BugAPI
	bugs []domain.Bug
}

func (a looseSearchAPI) ListBugs(_ context.Context, _ string, f domain.Filters) (*domain.ListResult, error) {
	page := a.bugs[f.Skip:]
	if f.HasLimit() && len(page) > f.Limit {
		page = page[:f.Limit]
	}
	return &domain.ListResult{Bugs: page, TotalCount: len(a.bugs)}, nil
}

func TestList_NextSkipCountsServerPage(t *testing.T) {
	api := looseSearchAPI{bugs: []domain.Bug{
		{ID: "b1", Title: "Cart total wrong"},
		{ID: "b2", Title: "Login broken"},
		{ID: "b3", Title: "Cart empty"},
		{ID: "b4", Title: "Slow search"},
	}}
	v := NewCollection(api, nil).List(context.Background(), "p1", domain.Filters{SearchText: "cart"}.WithLimit(2))
	require.NoError(t, v.Err)
	assert.Len(t, v.Bugs, 1, "only the local match is shown")
	assert.Equal(t, 2, v.Fetched)
	assert.Equal(t, 2, v.NextSkip(), "the next page starts after every row the server sent")
	assert.True(t, v.HasMore)
}

func TestMyBugs_FanOutToleratesFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other, err := f.api.CreateProject(ctx, projectdomain.ProjectInput{Name: "Search"})
	require.NoError(t, err)
	broken, err := f.api.CreateProject(ctx, projectdomain.ProjectInput{Name: "Broken"})
	require.NoError(t, err)

	col := f.collection()
	_, err = col.Create(ctx, f.project.ID, f.adminID, CreateForm{Title: "first", AssignedTo: f.adminID})
	require.NoError(t, err)
	_, err = col.Create(ctx, other.ID, f.adminID, CreateForm{Title: "second", AssignedTo: f.adminID})
	require.NoError(t, err)
	_, err = col.Create(ctx, other.ID, f.adminID, CreateForm{Title: "not mine"})
	require.NoError(t, err)
	f.srv.FailBugList(broken.ID, http.StatusInternalServerError)

	projects, err := f.api.Projects(ctx)
	require.NoError(t, err)
	res := col.MyBugs(ctx, f.adminID, projects, MyBugsOptions{Concurrency: 2})

	require.Len(t, res.Bugs, 2)
	assert.Equal(t, "second", res.Bugs[0].Title)
	assert.Equal(t, "first", res.Bugs[1].Title)
	assert.Equal(t, "Search", res.Bugs[0].Project.Name)
	assert.Equal(t, []string{broken.ID}, res.Failed)
}

func TestRecentForUser_TopFive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	col := f.collection()
	for i := 0; i < 7; i++ {
		_, err := col.Create(ctx, f.project.ID, f.adminID, CreateForm{Title: "bug", AssignedTo: f.adminID})
		require.NoError(t, err)
	}

	res := col.RecentForUser(ctx, f.adminID, []projectdomain.Project{*f.project}, 0)

	assert.Len(t, res.Bugs, 3)
}
