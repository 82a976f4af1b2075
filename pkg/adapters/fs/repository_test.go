package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nebulaboard/pkg/adapters/fs"
	"github.com/aretw0/nebulaboard/pkg/core"
)

var notesSchema = core.MustParseSchema("notes", "id, title, isPinned, createdDate, updatedDate, *tags")

// setupRepo creates and initializes a repository in a fresh directory.
func setupRepo(t *testing.T, opts ...func(*fs.Config)) (*fs.Repository, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "data")
	cfg := fs.Config{Dir: dir, Schema: notesSchema}
	for _, opt := range opts {
		opt(&cfg)
	}

	repo, err := fs.NewRepository(cfg)
	require.NoError(t, err)
	require.NoError(t, repo.Initialize(context.Background()))
	return repo, dir
}

func note(id, title string, pinned bool, created float64, tags ...any) core.Record {
	if tags == nil {
		tags = []any{}
	}
	return core.Record{ID: id, Fields: core.Fields{
		"title":       title,
		"isPinned":    pinned,
		"createdDate": created,
		"updatedDate": created,
		"tags":        tags,
	}}
}

func ids(records []core.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestInitialize(t *testing.T) {
	t.Run("Creates Directory if Missing", func(t *testing.T) {
		_, dir := setupRepo(t)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("Fails if MustExist and Missing", func(t *testing.T) {
		repo, err := fs.NewRepository(fs.Config{
			Dir:       filepath.Join(t.TempDir(), "missing"),
			Schema:    notesSchema,
			MustExist: true,
		})
		require.NoError(t, err)
		assert.Error(t, repo.Initialize(context.Background()))
	})

	t.Run("Rejects Unknown Format", func(t *testing.T) {
		_, err := fs.NewRepository(fs.Config{Dir: t.TempDir(), Schema: notesSchema, Format: "toml"})
		assert.Error(t, err)
	})

	t.Run("Rejects Empty Schema", func(t *testing.T) {
		_, err := fs.NewRepository(fs.Config{Dir: t.TempDir()})
		assert.Error(t, err)
	})
}

func TestRepository_CRUD(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, note("a", "Alpha", false, 1, "work")))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Fields["title"])
	assert.NotContains(t, got.Fields, "id", "primary key is carried by Record.ID only")

	require.NoError(t, repo.Update(ctx, "a", core.Fields{"title": "Alpha 2", "id": "hijack"}))
	got, err = repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, "Alpha 2", got.Fields["title"])
	assert.Equal(t, float64(1), got.Fields["createdDate"], "update must merge, not replace")

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepository_NotFoundPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("Present", func(t *testing.T) {
		repo, _ := setupRepo(t)
		require.NoError(t, repo.Add(ctx, note("a", "A", false, 1)))

		assert.NoError(t, repo.Update(ctx, "a", core.Fields{"title": "B"}))
		assert.NoError(t, repo.Delete(ctx, "a"))
	})

	t.Run("Absent", func(t *testing.T) {
		repo, _ := setupRepo(t)

		assert.ErrorIs(t, repo.Update(ctx, "ghost", core.Fields{"title": "B"}), core.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "ghost"), core.ErrNotFound)
		err := repo.Modify(ctx, "ghost", func(core.Record) (core.Fields, error) { return nil, nil })
		assert.ErrorIs(t, err, core.ErrNotFound)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n, "a failed update must not create the record")
	})

	t.Run("Deleted Twice", func(t *testing.T) {
		repo, _ := setupRepo(t)
		require.NoError(t, repo.Add(ctx, note("a", "A", false, 1)))
		require.NoError(t, repo.Delete(ctx, "a"))
		assert.ErrorIs(t, repo.Delete(ctx, "a"), core.ErrNotFound)
	})
}

func TestRepository_AddValidation(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Add(ctx, core.Record{}), core.ErrEmptyID)
	require.NoError(t, repo.Add(ctx, note("a", "A", false, 1)))
	assert.ErrorIs(t, repo.Add(ctx, note("a", "A again", false, 2)), core.ErrDuplicateID)
}

func TestRepository_GetReturnsCopy(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, note("a", "A", false, 1, "x")))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	got.Fields["title"] = "mutated"
	got.Fields["tags"].([]any)[0] = "mutated"

	again, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", again.Fields["title"])
	assert.Equal(t, []any{"x"}, again.Fields["tags"])
}

func TestRepository_Persistence(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			repo, dir := setupRepo(t, func(c *fs.Config) { c.Format = format })
			ctx := context.Background()

			require.NoError(t, repo.Add(ctx, note("a", "Alpha", true, 1700000000123, "work", "home")))
			require.NoError(t, repo.Add(ctx, note("b", "Beta", false, 1700000000456)))
			require.NoError(t, repo.Delete(ctx, "b"))

			reopened, err := fs.NewRepository(fs.Config{Dir: dir, Schema: notesSchema, Format: format})
			require.NoError(t, err)
			require.NoError(t, reopened.Initialize(ctx))

			all, err := reopened.All(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "a", all[0].ID)
			assert.Equal(t, true, all[0].Fields["isPinned"])
			assert.Equal(t, float64(1700000000123), all[0].Fields["createdDate"])
			assert.Equal(t, []any{"work", "home"}, all[0].Fields["tags"])

			// Indexes are rebuilt on load.
			found, err := reopened.Find(ctx, core.Where("tags").Equals("home"))
			require.NoError(t, err)
			assert.Equal(t, []string{"a"}, ids(found))
		})
	}
}

func TestRepository_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{not json"), 0644))

	repo, err := fs.NewRepository(fs.Config{Dir: dir, Schema: notesSchema})
	require.NoError(t, err)
	assert.Error(t, repo.Initialize(context.Background()))
}

func TestRepository_ReadOnly(t *testing.T) {
	_, dir := setupRepo(t)
	ctx := context.Background()

	repo, err := fs.NewRepository(fs.Config{Dir: dir, Schema: notesSchema, ReadOnly: true})
	require.NoError(t, err)
	require.NoError(t, repo.Initialize(ctx))

	assert.ErrorIs(t, repo.Add(ctx, note("a", "A", false, 1)), core.ErrReadOnly)
	assert.ErrorIs(t, repo.Update(ctx, "a", core.Fields{}), core.ErrReadOnly)
	assert.ErrorIs(t, repo.Delete(ctx, "a"), core.ErrReadOnly)
	assert.ErrorIs(t, repo.Clear(ctx), core.ErrReadOnly)
}

func TestRepository_Find(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, note("n1", "Groceries", false, 30, "home", "errands", "hobby")))
	require.NoError(t, repo.Add(ctx, note("n2", "Go notes", true, 10, "work", "go")))
	require.NoError(t, repo.Add(ctx, note("n3", "Garden", false, 20, "home")))
	require.NoError(t, repo.Add(ctx, core.Record{ID: "n4", Fields: core.Fields{"title": "Untitled"}}))

	tests := []struct {
		name string
		q    core.Query
		want []string
	}{
		{"equals scalar", core.Where("isPinned").Equals(true), []string{"n2"}},
		{"equals multi", core.Where("tags").Equals("home"), []string{"n1", "n3"}},
		{"between numbers inclusive", core.Where("createdDate").Between(10, 20), []string{"n2", "n3"}},
		{"starts with", core.Where("title").StartsWith("G"), []string{"n3", "n2", "n1"}},
		{"starts with multi dedups", core.Where("tags").StartsWith("h"), []string{"n1", "n3"}},
		{"any of", core.Where("tags").AnyOf("go", "errands"), []string{"n1", "n2"}},
		{"primary key", core.Where("id").Equals("n3"), []string{"n3"}},
		{"no match", core.Where("title").Equals("nothing"), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Find(ctx, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	t.Run("not indexed", func(t *testing.T) {
		_, err := repo.Find(ctx, core.Where("content").Equals("x"))
		assert.ErrorIs(t, err, core.ErrNotIndexed)
	})

	t.Run("invalid arity", func(t *testing.T) {
		_, err := repo.Find(ctx, core.Query{Field: "title", Op: core.OpBetween, Values: []any{"a"}})
		assert.Error(t, err)
	})
}

func TestRepository_IndexTracksUpdates(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, note("n1", "A", false, 1, "old")))
	require.NoError(t, repo.Update(ctx, "n1", core.Fields{"tags": []any{"new"}, "isPinned": true}))

	found, err := repo.Find(ctx, core.Where("tags").Equals("old"))
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = repo.Find(ctx, core.Where("tags").Equals("new"))
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, ids(found))

	require.NoError(t, repo.Delete(ctx, "n1"))
	found, err = repo.Find(ctx, core.Where("isPinned").Equals(true))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestRepository_NormalizesCallerValues(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, core.Record{ID: "n1", Fields: core.Fields{
		"tags":        []string{"go", "work"},
		"createdDate": int64(42),
	}}))

	found, err := repo.Find(ctx, core.Where("tags").Equals("go"))
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, ids(found))

	got, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, float64(42), got.Fields["createdDate"])
	assert.Equal(t, []any{"go", "work"}, got.Fields["tags"])

	require.NoError(t, repo.Update(ctx, "n1", core.Fields{"tags": []string{"home"}}))
	found, err = repo.Find(ctx, core.Where("tags").Equals("home"))
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, ids(found))

	before, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	require.NoError(t, repo.Reload(ctx))
	reloaded, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, before.Fields, reloaded.Fields)

	err = repo.Add(ctx, core.Record{ID: "bad", Fields: core.Fields{"ch": make(chan int)}})
	assert.Error(t, err)
	_, err = repo.Get(ctx, "bad")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepository_OrderBy(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, note("a", "A", false, 200)))
	require.NoError(t, repo.Add(ctx, note("b", "B", false, 100)))
	require.NoError(t, repo.Add(ctx, note("c", "C", false, 300)))

	asc, err := repo.OrderBy(ctx, "createdDate", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, ids(asc))

	desc, err := repo.OrderBy(ctx, "createdDate", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(desc))

	_, err = repo.OrderBy(ctx, "color", false)
	assert.ErrorIs(t, err, core.ErrNotIndexed)
}

func TestRepository_Clear(t *testing.T) {
	repo, dir := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, note("a", "A", false, 1, "x")))
	require.NoError(t, repo.Clear(ctx))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	found, err := repo.Find(ctx, core.Where("tags").Equals("x"))
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = os.Stat(filepath.Join(dir, "notes.json"))
	assert.NoError(t, err, "clearing rewrites an empty collection file")
}

func TestRepository_CanceledContext(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.Add(ctx, note("a", "A", false, 1)), context.Canceled)
	_, err := repo.All(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRepository_State(t *testing.T) {
	repo, _ := setupRepo(t)
	require.NoError(t, repo.Add(context.Background(), note("a", "A", false, 1)))

	state, ok := repo.State().(fs.RepositoryState)
	require.True(t, ok)
	assert.Equal(t, "notes", state.Collection)
	assert.Equal(t, 1, state.Records)
	assert.Contains(t, state.Indexes, "*tags")
	assert.Equal(t, "repository", repo.ComponentType())
}
