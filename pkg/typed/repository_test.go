package typed_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nebulaboard/pkg/adapters/fs"
	"github.com/aretw0/nebulaboard/pkg/core"
	"github.com/aretw0/nebulaboard/pkg/typed"
)

type Bookmark struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Visits  int64    `json:"visits"`
	Starred bool     `json:"starred"`
	Tags    []string `json:"tags"`
	Note    *string  `json:"note,omitempty"`
}

func setupRepo(t *testing.T) *typed.Repository[Bookmark] {
	t.Helper()

	repo, err := fs.NewRepository(fs.Config{
		Dir:    t.TempDir(),
		Schema: core.MustParseSchema("bookmarks", "id, visits, starred, *tags"),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Initialize(context.Background()))
	return typed.NewRepository[Bookmark](repo)
}

func TestTypedRepository(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	note := "weekly"
	require.NoError(t, repo.Add(ctx, Bookmark{ID: "go", Title: "Go", Visits: 1700000000000, Tags: []string{"lang"}, Note: &note}))
	require.NoError(t, repo.Add(ctx, Bookmark{ID: "rust", Title: "Rust", Visits: 3, Starred: true}))

	got, err := repo.Get(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Title)
	assert.Equal(t, int64(1700000000000), got.Visits)
	assert.Equal(t, []string{"lang"}, got.Tags)
	require.NotNil(t, got.Note)
	assert.Equal(t, "weekly", *got.Note)

	raw, err := repo.Raw().Get(ctx, "go")
	require.NoError(t, err)
	assert.NotContains(t, raw.Fields, "id")

	starred, err := repo.Find(ctx, core.Where("starred").Equals(true))
	require.NoError(t, err)
	require.Len(t, starred, 1)
	assert.Equal(t, "rust", starred[0].ID)

	ordered, err := repo.OrderBy(ctx, "visits", true)
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "go", ordered[0].ID)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, "rust"))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTypedRepository_Modify(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, Bookmark{ID: "go", Title: "Go"}))

	require.NoError(t, repo.Modify(ctx, "go", func(current Bookmark) (core.Fields, error) {
		return core.Fields{"starred": !current.Starred}, nil
	}))
	got, err := repo.Get(ctx, "go")
	require.NoError(t, err)
	assert.True(t, got.Starred)

	boom := errors.New("boom")
	err = repo.Modify(ctx, "go", func(Bookmark) (core.Fields, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	err = repo.Modify(ctx, "missing", func(Bookmark) (core.Fields, error) { return nil, nil })
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTypedRepository_WithTransaction(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Add(ctx, Bookmark{ID: "a", Title: "A"}))

	err := repo.WithTransaction(ctx, func(tx *typed.Transaction[Bookmark]) error {
		if err := tx.Put(ctx, Bookmark{ID: "b", Title: "B"}); err != nil {
			return err
		}
		staged, err := tx.Get(ctx, "b")
		if err != nil {
			return err
		}
		assert.Equal(t, "B", staged.Title)
		return tx.Delete(ctx, "a")
	})
	require.NoError(t, err)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].ID)

	// A failing body rolls everything back.
	boom := errors.New("boom")
	err = repo.WithTransaction(ctx, func(tx *typed.Transaction[Bookmark]) error {
		_ = tx.Put(ctx, Bookmark{ID: "c"})
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = repo.Get(ctx, "c")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestToRecord(t *testing.T) {
	rec, err := typed.ToRecord(Bookmark{ID: "x", Title: "X", Visits: 2}, "id")
	require.NoError(t, err)
	assert.Equal(t, "x", rec.ID)
	assert.Equal(t, float64(2), rec.Fields["visits"])
	assert.NotContains(t, rec.Fields, "note", "omitempty fields are left out")

	back, err := typed.FromRecord[Bookmark](rec, "id")
	require.NoError(t, err)
	assert.Equal(t, "x", back.ID)
	assert.Equal(t, int64(2), back.Visits)
}
