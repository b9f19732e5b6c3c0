package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugboard/bugboard/internal/api/apitest"
	"github.com/bugboard/bugboard/internal/api/client"
	"github.com/bugboard/bugboard/internal/notify"
	"github.com/bugboard/bugboard/internal/projects/domain"
	"github.com/bugboard/bugboard/internal/session"
	"github.com/bugboard/bugboard/internal/validation"
)

func newService(t *testing.T) (*ProjectService, *apitest.Server, *notify.Center, string) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	id, token := srv.AddUser("Ada", "ada@example.com", "secret1")
	srv.AddUser("Dev", "dev@example.com", "secret1")
	api := client.New(client.Options{BaseURL: srv.APIURL()}).WithTokenStore(session.NewMemoryStore(token))
	notes := notify.NewCenter(notify.NewMemoryStore(), "test")
	return NewProjectService(api, notes), srv, notes, id
}

func active(t *testing.T, notes *notify.Center) []string {
	t.Helper()
	list, err := notes.Active(context.Background())
	require.NoError(t, err)
	var out []string
	for _, n := range list {
		out = append(out, n.Message)
	}
	return out
}

func TestCreate_NewestFirstAndCreatorIsAdmin(t *testing.T) {
	svc, _, notes, me := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.ProjectInput{Name: "Search"})
	require.NoError(t, err)
	p, err := svc.Create(ctx, domain.ProjectInput{Name: "  Checkout Revamp  ", Description: " payments "})
	require.NoError(t, err)
	assert.Equal(t, "Checkout Revamp", p.Name)
	assert.Equal(t, "payments", p.Description)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Checkout Revamp", list[0].Name)

	_, view, err := svc.GetWithView(ctx, p.ID, me)
	require.NoError(t, err)
	assert.True(t, view.IsAdmin)
	assert.True(t, view.Capabilities.CanManageMembers)
	assert.Contains(t, active(t, notes), "Project created successfully")
}

func TestCreate_NameRequired(t *testing.T) {
	svc, srv, _, _ := newService(t)

	_, err := svc.Create(context.Background(), domain.ProjectInput{Name: "  "})

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "Project name is required", verrs.Get("name"))
	assert.Zero(t, srv.CountCalls("POST /api/projects"))
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMembers(t *testing.T) {
	svc, _, notes, _ := newService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, domain.ProjectInput{Name: "Checkout Revamp"})
	require.NoError(t, err)

	p, err = svc.AddMember(ctx, p.ID, " dev@example.com ", domain.RoleUnknown)
	require.NoError(t, err)
	require.Len(t, p.Members, 2)
	assert.Equal(t, domain.RoleDeveloper, p.Members[1].Role)

	_, err = svc.AddMember(ctx, p.ID, "dev@example.com", domain.RoleTester)
	assert.ErrorIs(t, err, client.ErrValidation)
	assert.Contains(t, active(t, notes), "User is already a member of this project")

	_, err = svc.AddMember(ctx, p.ID, "ghost@example.com", domain.RoleTester)
	assert.ErrorIs(t, err, client.ErrNotFound)

	p, err = svc.RemoveMember(ctx, p.ID, p.Members[1].ID)
	require.NoError(t, err)
	assert.Len(t, p.Members, 1)
}

func TestInvitees_ExcludesMembers(t *testing.T) {
	svc, srv, _, _ := newService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, domain.ProjectInput{Name: "Checkout Revamp"})
	require.NoError(t, err)

	all, err := svc.Invitees(ctx, p, "  ")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "dev@example.com", all[0].Email)
	assert.Equal(t, 1, srv.CountCalls("GET /api/users"))

	found, err := svc.Invitees(ctx, p, "DEV")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Dev", found[0].Name)
	assert.Equal(t, 1, srv.CountCalls("GET /api/users/search"))

	self, err := svc.Invitees(ctx, p, "ada")
	require.NoError(t, err)
	assert.Empty(t, self, "members are never offered again")
}

func TestAddMember_InvalidEmailMakesNoCall(t *testing.T) {
	svc, srv, _, _ := newService(t)
	p, err := svc.Create(context.Background(), domain.ProjectInput{Name: "x"})
	require.NoError(t, err)

	_, err = svc.AddMember(context.Background(), p.ID, "not-an-email", domain.RoleTester)

	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "Please enter a valid email address", verrs.Get("userEmail"))
	assert.Zero(t, srv.CountCalls("POST /api/projects/"+p.ID+"/members"))
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _, notes, _ := newService(t)
	ctx := context.Background()
	p, err := svc.Create(ctx, domain.ProjectInput{Name: "x"})
	require.NoError(t, err)

	p, err = svc.Update(ctx, p.ID, domain.ProjectInput{Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", p.Name)

	require.NoError(t, svc.Delete(ctx, p.ID))
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Contains(t, active(t, notes), "Project deleted successfully")
}
