package fs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nebulaboard/pkg/core"
)

func TestTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("Commit Applies Puts and Deletes", func(t *testing.T) {
		repo, _ := setupRepo(t)
		require.NoError(t, repo.Add(ctx, note("keep", "Keep", false, 1)))
		require.NoError(t, repo.Add(ctx, note("drop", "Drop", false, 2, "x")))

		tx, err := repo.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Put(ctx, note("new", "New", true, 3)))
		require.NoError(t, tx.Delete(ctx, "drop"))

		// Staged state is visible inside the transaction only.
		_, err = tx.Get(ctx, "drop")
		assert.ErrorIs(t, err, core.ErrNotFound)
		staged, err := tx.Get(ctx, "new")
		require.NoError(t, err)
		assert.Equal(t, "New", staged.Fields["title"])
		_, err = repo.Get(ctx, "new")
		assert.ErrorIs(t, err, core.ErrNotFound)

		require.NoError(t, tx.Commit(ctx))

		all, err := repo.OrderBy(ctx, "createdDate", false)
		require.NoError(t, err)
		assert.Equal(t, []string{"keep", "new"}, ids(all))

		found, err := repo.Find(ctx, core.Where("tags").Equals("x"))
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("Delete of Missing ID Aborts Commit", func(t *testing.T) {
		repo, _ := setupRepo(t)

		tx, err := repo.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Put(ctx, note("a", "A", false, 1)))
		require.NoError(t, tx.Delete(ctx, "ghost"))

		assert.ErrorIs(t, tx.Commit(ctx), core.ErrNotFound)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Rollback Discards", func(t *testing.T) {
		repo, _ := setupRepo(t)

		tx, err := repo.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Put(ctx, note("a", "A", false, 1)))
		require.NoError(t, tx.Rollback(ctx))

		assert.Error(t, tx.Commit(ctx))
		assert.Error(t, tx.Put(ctx, note("b", "B", false, 1)))

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Put Replaces Stored Version", func(t *testing.T) {
		repo, _ := setupRepo(t)
		require.NoError(t, repo.Add(ctx, note("a", "A", false, 1, "old")))

		tx, err := repo.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Put(ctx, note("a", "A2", false, 1, "new")))
		require.NoError(t, tx.Commit(ctx))

		found, err := repo.Find(ctx, core.Where("tags").Equals("old"))
		require.NoError(t, err)
		assert.Empty(t, found)

		got, err := repo.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "A2", got.Fields["title"])
	})

	t.Run("Empty ID Rejected", func(t *testing.T) {
		repo, _ := setupRepo(t)
		tx, err := repo.Begin(ctx)
		require.NoError(t, err)
		assert.ErrorIs(t, tx.Put(ctx, core.Record{}), core.ErrEmptyID)
	})
}

func TestTransaction_PutNormalizesValues(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepo(t)

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Put(ctx, core.Record{ID: "n1", Fields: core.Fields{"tags": []string{"go"}}}))
	require.NoError(t, tx.Commit(ctx))

	found, err := repo.Find(ctx, core.Where("tags").Equals("go"))
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, ids(found))
}
