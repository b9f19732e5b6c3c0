package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bugboard/bugboard/internal/api/client"
	"github.com/bugboard/bugboard/internal/notify"
	"github.com/bugboard/bugboard/internal/session"
)

var errNotLoggedIn = errors.New("not logged in, run 'bugctl login' first")

// env is what every command works with: the session stored for --api and
// a notification channel that prints to the command's output.
type env struct {
	path    string
	store   *session.FileStore
	session *session.Provider
	notes   *notify.Center
}

func newEnv(cmd *cobra.Command) (*env, error) {
	path := configPath
	if path == "" {
		p, err := session.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	store := session.NewFileStore(path, apiAddr)
	api := client.New(client.Options{BaseURL: apiAddr})
	return &env{
		path:    path,
		store:   store,
		session: session.New(api, store),
		notes:   notify.NewCenter(printStore{w: cmd.OutOrStdout()}, "cli"),
	}, nil
}

// requireSession validates the stored token. A rejected token has already
// been cleared by the provider.
func (e *env) requireSession(ctx context.Context) error {
	if !e.session.HasToken() {
		return errNotLoggedIn
	}
	if _, err := e.session.Init(ctx); err != nil {
		if client.IsUnauthorized(err) {
			return errNotLoggedIn
		}
		return err
	}
	return nil
}

func (e *env) api() *client.Client { return e.session.API() }

// printStore writes finished notifications as lines. Loading notifications
// are skipped; a terminal has no spinner to take down again.
type printStore struct {
	w io.Writer
}

func (p printStore) Add(_ context.Context, _ string, n notify.Notification) error {
	if n.Kind == notify.KindLoading {
		return nil
	}
	prefix := "✓"
	switch n.Kind {
	case notify.KindError:
		prefix = "✗"
	case notify.KindInfo:
		prefix = "i"
	}
	_, err := fmt.Fprintf(p.w, "%s %s\n", prefix, n.Message)
	return err
}

func (printStore) Remove(context.Context, string, string) error { return nil }

func (printStore) List(context.Context, string) ([]notify.Notification, error) { return nil, nil }
