package nav_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nebulaboard/pkg/nav"
	"github.com/aretw0/nebulaboard/pkg/profile"
)

func ids(items []nav.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestMenu_Defaults(t *testing.T) {
	p, err := profile.Open(t.TempDir())
	require.NoError(t, err)

	m := nav.NewMenu(p.Local, nil)
	assert.Equal(t, nav.DefaultActiveItem, m.ActiveItem())
	assert.Equal(t, "Dashboard", m.ActiveLabel())
	assert.False(t, m.IsOpen())
	assert.Equal(t, []string{"settings", "music", "journal", "tasks", "notes", "dashboard"}, ids(m.Items()))
}

func TestMenu_Select(t *testing.T) {
	dir := t.TempDir()
	p, err := profile.Open(dir)
	require.NoError(t, err)

	router := nav.NewRouter(&fakeAuth{})
	m := nav.NewMenu(p.Local, router)

	assert.True(t, m.Toggle())
	assert.True(t, m.Snapshot().IsMenuOpen)

	rt, err := m.Select("tasks")
	require.NoError(t, err)
	assert.Equal(t, nav.RouteTasks, rt.Name)
	assert.Equal(t, nav.RouteTasks, router.Current().Name)

	assert.Equal(t, nav.MenuState{ActiveItemID: "tasks", IsMenuOpen: false}, m.Snapshot())
	assert.Equal(t, "Tasks", m.ActiveLabel())

	items := m.Items()
	assert.Equal(t, []string{"settings", "music", "journal", "notes", "dashboard", "tasks"}, ids(items))
	for _, it := range items {
		assert.Equal(t, it.ID == "tasks", it.Active, it.ID)
	}

	stored, ok := p.Local.Get(nav.ActiveItemKey)
	assert.True(t, ok)
	assert.Equal(t, "tasks", stored)

	t.Run("Restored After Restart", func(t *testing.T) {
		reopened, err := profile.Open(dir)
		require.NoError(t, err)
		m2 := nav.NewMenu(reopened.Local, nil)
		assert.Equal(t, "tasks", m2.ActiveItem())
		assert.Equal(t, "tasks", ids(m2.Items())[5])
	})

	t.Run("Unknown Item", func(t *testing.T) {
		_, err := m.Select("podcasts")
		assert.True(t, errors.Is(err, nav.ErrUnknownItem))
		assert.Equal(t, "tasks", m.ActiveItem())
	})
}

func TestMenu_UnknownStoredItemFallsBack(t *testing.T) {
	p, err := profile.Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, p.Local.Set(nav.ActiveItemKey, "podcasts"))

	m := nav.NewMenu(p.Local, nil)
	assert.Equal(t, nav.DefaultActiveItem, m.ActiveItem())
}

func TestMenu_SelectGoesThroughGuard(t *testing.T) {
	p, err := profile.Open(t.TempDir())
	require.NoError(t, err)

	m := nav.NewMenu(p.Local, protectedRouter(&fakeAuth{}))
	rt, err := m.Select("notes")
	require.NoError(t, err)
	assert.Equal(t, nav.RouteLogin, rt.Name)
	assert.Equal(t, "notes", m.ActiveItem(), "the selection is kept even when the guard redirects")
}
