package platform_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nebulaboard/internal/authtest"
	"github.com/aretw0/nebulaboard/internal/platform"
	"github.com/aretw0/nebulaboard/pkg/adapters/fs"
	"github.com/aretw0/nebulaboard/pkg/auth"
	"github.com/aretw0/nebulaboard/pkg/httpclient"
	"github.com/aretw0/nebulaboard/pkg/nav"
	"github.com/aretw0/nebulaboard/pkg/notes"
	"github.com/aretw0/nebulaboard/pkg/session"
	"github.com/aretw0/nebulaboard/pkg/tasks"
)

func open(t *testing.T, dir string, opts ...platform.Option) *platform.App {
	t.Helper()
	app, err := platform.New(context.Background(), append([]platform.Option{platform.WithProfileDir(dir)}, opts...)...)
	require.NoError(t, err)
	return app
}

func TestNew_Layout(t *testing.T) {
	dir := t.TempDir()
	app := open(t, dir, platform.WithAppName("board"))

	assert.Equal(t, dir, app.ProfileDir, "paths inside the temp dir are kept")
	assert.Equal(t, filepath.Join(dir, platform.DataDirName), app.DataDir)
	assert.Equal(t, session.Anonymous, app.Session.Status())
	assert.Equal(t, nav.RouteLogin, app.Router.Current().Name)
	assert.Equal(t, "board-token", app.Session.TokenCookie())

	names := []string{}
	for _, r := range app.Collections() {
		names = append(names, r.Schema().Name)
	}
	assert.Equal(t, []string{"notes", "tasks", "richtext"}, names)

	state := app.State().(platform.AppState)
	assert.Equal(t, "board", state.Name)
	assert.Len(t, state.Collections, 3)
	assert.Equal(t, "app", app.ComponentType())
}

func TestNew_DevSafetyReRootsProfile(t *testing.T) {
	app, err := platform.New(context.Background(),
		platform.WithAppName("board-safety-test"),
		platform.WithProfileDir("/definitely/not/temp/profile"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(filepath.Dir(app.ProfileDir)) })

	assert.True(t, strings.HasPrefix(app.ProfileDir, os.TempDir()))
	assert.Equal(t, "profile", filepath.Base(app.ProfileDir))
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := platform.New(context.Background(),
		platform.WithProfileDir(t.TempDir()),
		platform.WithFormat("xml"),
	)
	assert.Error(t, err)
}

func TestApp_DataSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			profileDir := filepath.Join(dir, format)
			app := open(t, profileDir, platform.WithFormat(format))

			noteID, err := app.Notes.AddNote(ctx, notes.NoteInput{Title: "Groceries", Tags: []string{"home"}})
			require.NoError(t, err)
			taskID, err := app.Tasks.AddTask(ctx, tasks.TaskInput{Title: "Ship it"})
			require.NoError(t, err)
			_, err = app.Tasks.AddRichNote(ctx, "Journal", "<p>hi</p>")
			require.NoError(t, err)

			reopened := open(t, profileDir, platform.WithFormat(format))
			n, err := reopened.Notes.GetNote(ctx, noteID)
			require.NoError(t, err)
			assert.Equal(t, "Groceries", n.Title)

			tk, err := reopened.Tasks.GetTask(ctx, taskID)
			require.NoError(t, err)
			assert.Equal(t, tasks.StatusTodo, tk.Status)

			rich, err := reopened.Tasks.ListRichNotes(ctx)
			require.NoError(t, err)
			assert.Len(t, rich, 1)
		})
	}
}

func TestApp_ReadOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	open(t, dir)

	app := open(t, dir, platform.WithReadOnly(true))
	_, err := app.Notes.AddNote(ctx, notes.NoteInput{Title: "nope"})
	assert.Error(t, err)
}

func TestApp_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := authtest.NewServer(t)
	_, err := srv.AddUser("Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	dir := t.TempDir()
	app := open(t, dir, platform.WithAPIBaseURL(srv.URL))

	require.NoError(t, app.Session.Login(ctx, auth.LoginRequest{Email: "ada@example.com", Password: "secret1"}))
	assert.True(t, app.Session.IsAuthenticated())
	assert.Equal(t, nav.RouteDashboard, app.Router.Navigate(nav.RouteLogin).Name)

	var me auth.User
	require.NoError(t, app.Client.Get(ctx, "/me", nil, &me), "the client sends the session token")
	assert.Equal(t, "ada@example.com", me.Email)

	_, err = app.Menu.Select("notes")
	require.NoError(t, err)

	t.Run("Restored After Restart", func(t *testing.T) {
		again := open(t, dir, platform.WithAPIBaseURL(srv.URL))
		assert.Equal(t, session.Authenticated, again.Session.Status())
		assert.Equal(t, nav.RouteDashboard, again.Router.Current().Name)
		assert.Equal(t, "notes", again.Menu.ActiveItem())
	})

	t.Run("Revoked Token Redirects To Login", func(t *testing.T) {
		tok, _ := app.Session.Token()
		srv.Revoke(tok)

		err := app.Client.Get(ctx, "/me", nil, nil)
		assert.True(t, errors.Is(err, httpclient.ErrUnauthorized))
		assert.Equal(t, nav.RouteLogin, app.Router.Current().Name)
	})

	t.Run("Logout", func(t *testing.T) {
		require.NoError(t, app.Session.Logout())
		assert.False(t, app.Session.IsAuthenticated())

		again := open(t, dir, platform.WithAPIBaseURL(srv.URL))
		assert.Equal(t, session.Anonymous, again.Session.Status())
	})
}

func TestApp_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	app := open(t, dir)
	other := open(t, dir)

	events, err := app.Watch(ctx, "notes")
	require.NoError(t, err)

	id, err := other.Notes.AddNote(ctx, notes.NoteInput{Title: "From elsewhere"})
	require.NoError(t, err)

	select {
	case e := <-events:
		assert.Equal(t, "notes", e.Collection)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}

	n, err := app.Notes.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "From elsewhere", n.Title)
}

func TestNew_WatchFromConfig(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	app, err := platform.New(ctx, platform.WithProfileDir(dir), platform.WithWatch(true))
	require.NoError(t, err)
	for _, repo := range app.Collections() {
		assert.True(t, repo.State().(fs.RepositoryState).WatcherActive, repo.ComponentType())
	}

	other := open(t, dir)
	id, err := other.Notes.AddNote(ctx, notes.NoteInput{Title: "Synced"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := app.Notes.GetNote(ctx, id)
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)

	assert.False(t, open(t, t.TempDir()).Collections()[0].State().(fs.RepositoryState).WatcherActive)
}

func TestApp_Diagram(t *testing.T) {
	app := open(t, t.TempDir())

	top := app.Topology()
	assert.Equal(t, app.Name, top.Name)
	require.NotEmpty(t, top.Children)
	assert.Len(t, top.Children[0].Children, 3)

	assert.NotEmpty(t, app.Diagram())
}
