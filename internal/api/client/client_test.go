package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugboard/bugboard/internal/api/apitest"
	bugdomain "github.com/bugboard/bugboard/internal/bugs/domain"
	projectdomain "github.com/bugboard/bugboard/internal/projects/domain"
)

type memStore struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (s *memStore) Load() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *memStore) Save(t string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = t
}

func (s *memStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.cleared++
}

func newFake(t *testing.T) (*apitest.Server, *Client, *memStore) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	_, token := srv.AddUser("Ada", "ada@example.com", "secret1")
	store := &memStore{token: token}
	c := New(Options{BaseURL: srv.APIURL() + "/"}).WithTokenStore(store)
	return srv, c, store
}

func TestClient_SendsBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"_id":"u1","name":"Ada","email":"ada@example.com"}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL}).WithTokenStore(&memStore{token: "abc"})
	u, err := c.Profile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got)
	assert.Equal(t, "u1", u.ID)
}

func TestClient_PublicEndpointsSendNoToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL}).WithTokenStore(&memStore{token: "abc"})
	require.NoError(t, c.ForgotPassword(context.Background(), "ada@example.com"))
	assert.Empty(t, got)
}

func TestClient_NoTokenIsUnauthorizedWithoutCall(t *testing.T) {
	srv, c, store := newFake(t)
	store.Save("")

	_, err := c.Projects(context.Background())

	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Zero(t, srv.CountCalls("GET /api/projects"))
}

func TestClient_401ClearsToken(t *testing.T) {
	_, c, store := newFake(t)
	store.Save("expired")

	_, err := c.Projects(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, store.Load())
	assert.Equal(t, 1, store.cleared)
	assert.Equal(t, "Not authorized, token failed", Message(err, "fallback"))
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
		msg    string
	}{
		{http.StatusForbidden, `{"message":"nope"}`, ErrForbidden, "nope"},
		{http.StatusNotFound, `{"error":"missing"}`, ErrNotFound, "missing"},
		{http.StatusBadRequest, `{"message":"Title is required"}`, ErrValidation, "Title is required"},
		{http.StatusUnprocessableEntity, `not json`, ErrValidation, ""},
		{http.StatusInternalServerError, ``, ErrServer, ""},
		{http.StatusBadGateway, `{"error":{"code":1}}`, ErrServer, ""},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(Options{BaseURL: srv.URL}).WithTokenStore(&memStore{token: "t"})
			_, err := c.Bug(context.Background(), "p1", "b1")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.msg, apiErr.Message)
			if tt.msg == "" {
				assert.Equal(t, "fallback", Message(err, "fallback"))
			}
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(Options{BaseURL: base, Timeout: time.Second}).WithTokenStore(&memStore{token: "t"})
	_, err := c.Projects(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_ListBugsQueryOmitsEmptyFilters(t *testing.T) {
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/p1/bugs", r.URL.Path)
		rawQuery = r.URL.RawQuery
		w.Write([]byte(`{"bugs":[{"_id":"b1","title":"x","project":"p1"}],"totalCount":1}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL}).WithTokenStore(&memStore{token: "t"})
	res, err := c.ListBugs(context.Background(), "p1", bugdomain.Filters{Status: " ", Priority: "high"}.WithLimit(3))

	require.NoError(t, err)
	require.Len(t, res.Bugs, 1)
	assert.NotContains(t, rawQuery, "status=")
	assert.Contains(t, rawQuery, "priority=high")
	assert.Contains(t, rawQuery, "limit=3")
	assert.Contains(t, rawQuery, "sortBy=createdAt")
	assert.Contains(t, rawQuery, "sortOrder=desc")
}

func TestClient_ProjectsAndMembers(t *testing.T) {
	srv, c, _ := newFake(t)
	ctx := context.Background()
	lin, _ := srv.AddUser("Linus", "linus@example.com", "pw1234")

	p, err := c.CreateProject(ctx, projectdomain.ProjectInput{Name: "Checkout Revamp"})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	p, err = c.AddMember(ctx, p.ID, projectdomain.AddMemberInput{UserEmail: "linus@example.com", Role: projectdomain.RoleDeveloper})
	require.NoError(t, err)
	require.Len(t, p.Members, 2)
	assert.Equal(t, lin, p.Members[1].User.ID)

	members, err := c.Members(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	_, err = c.AddMember(ctx, p.ID, projectdomain.AddMemberInput{UserEmail: "linus@example.com", Role: projectdomain.RoleTester})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "User is already a member of this project", Message(err, ""))

	p, err = c.RemoveMember(ctx, p.ID, p.Members[1].ID)
	require.NoError(t, err)
	assert.Len(t, p.Members, 1)

	list, err := c.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, c.DeleteProject(ctx, p.ID))
	_, err = c.Project(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_AuthFlow(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	c := New(Options{BaseURL: srv.APIURL()})
	ctx := context.Background()

	res, err := c.Register(ctx, "Grace", "grace@example.com", "hopper1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Grace", res.User.Name)

	res, err = c.Login(ctx, "grace@example.com", "hopper1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = c.Login(ctx, "grace@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Invalid email or password", Message(err, ""))

	assert.ErrorIs(t, c.ResetPassword(ctx, "bogus", "newpass"), ErrValidation)
	assert.NoError(t, c.ResetPassword(ctx, "valid-reset", "newpass"))
	assert.Equal(t, srv.APIURL()+"/auth/google", c.GoogleAuthURL())
}

func TestClient_UploadAvatar(t *testing.T) {
	_, c, _ := newFake(t)

	url, err := c.UploadAvatar(context.Background(), "me.png", strings.NewReader("png-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "/uploads/me.png", url)
}

func TestClient_RecordsMetrics(t *testing.T) {
	srv, _, store := newFake(t)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := New(Options{BaseURL: srv.APIURL(), Metrics: m}).WithTokenStore(store)

	_, err := c.Projects(context.Background())
	require.NoError(t, err)
	_, err = c.Project(context.Background(), "missing")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("list_projects", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("get_project", "not_found")))
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, RateLimit: 0.001, RateBurst: 1}).WithTokenStore(&memStore{token: "t"})
	_, err := c.Projects(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Projects(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
}
