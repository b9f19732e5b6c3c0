package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugboard/bugboard/internal/api/apitest"
	"github.com/bugboard/bugboard/internal/api/client"
	bugdomain "github.com/bugboard/bugboard/internal/bugs/domain"
	projectdomain "github.com/bugboard/bugboard/internal/projects/domain"
	"github.com/bugboard/bugboard/internal/session"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	userID, token := srv.AddUser("Dana Reyes", "dana@example.com", "secret1")
	srv.AddUser("Sam Lee", "sam@example.com", "secret1")
	api := client.New(client.Options{BaseURL: srv.APIURL()}).WithTokenStore(session.NewMemoryStore(token))
	p, err := api.CreateProject(context.Background(), projectdomain.ProjectInput{Name: "Checkout Revamp"})
	require.NoError(t, err)

	cfg := filepath.Join(t.TempDir(), "config.json")
	global := []string{"--api", srv.APIURL(), "--config", cfg}
	cli := func(args ...string) (string, error) {
		return run(t, append(args, global...)...)
	}

	_, err = cli("projects", "ls")
	assert.ErrorIs(t, err, errNotLoggedIn)

	out, err := cli("login", "-e", "dana@example.com", "-p", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Dana Reyes")
	assert.Equal(t, token, session.NewFileStore(cfg, srv.APIURL()).Load())

	out, err = cli("projects", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "Checkout Revamp")
	assert.Contains(t, out, "admin")

	out, err = cli("projects", "invitees", p.ID, "sam")
	require.NoError(t, err)
	assert.Contains(t, out, "sam@example.com")
	assert.NotContains(t, out, "dana@example.com")

	out, err = cli("projects", "invitees", p.ID, "dana")
	require.NoError(t, err)
	assert.Contains(t, out, "No users found")

	out, err = cli("bugs", "ls", p.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "No bugs found")

	out, err = cli("bugs", "create", p.ID, "Total rounds wrong", "--priority", "high")
	require.NoError(t, err)
	assert.Contains(t, out, "Bug report created successfully")

	list, err := api.ListBugs(context.Background(), p.ID, bugdomain.Filters{})
	require.NoError(t, err)
	require.Len(t, list.Bugs, 1)
	bugID := list.Bugs[0].ID

	out, err = cli("bugs", "assign", p.ID, bugID, userID)
	require.NoError(t, err)
	assert.Contains(t, out, "Bug successfully assigned to Dana Reyes!")

	out, err = cli("bugs", "status", p.ID, bugID, "resolved", "-m", "fixed rounding")
	require.NoError(t, err)
	assert.Contains(t, out, "Bug updated successfully")

	_, err = cli("bugs", "comment", p.ID, bugID, "verified", "on", "staging")
	require.NoError(t, err)

	out, err = cli("bugs", "show", p.ID, bugID)
	require.NoError(t, err)
	assert.Contains(t, out, "Resolved")
	assert.Contains(t, out, "fixed rounding")
	assert.Contains(t, out, "verified on staging")

	out, err = cli("bugs", "mine")
	require.NoError(t, err)
	assert.Contains(t, out, "Total rounds wrong")

	_, err = cli("bugs", "rm", p.ID, bugID)
	assert.Error(t, err, "delete needs --yes")
	_, err = cli("bugs", "rm", p.ID, bugID, "--yes")
	require.NoError(t, err)

	_, err = cli("logout")
	require.NoError(t, err)
	assert.Empty(t, session.NewFileStore(cfg, srv.APIURL()).Load())
}
