package repository

import (
	"context"
	"testing"

	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_Integration(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	reader := testutil.CreateUser(t, db, "reader")
	writer := testutil.CreateUser(t, db, "writer")

	t.Run("Create is get-or-create", func(t *testing.T) {
		created, err := repo.Create(ctx, reader.ID, writer.ID)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = repo.Create(ctx, reader.ID, writer.ID)
		require.NoError(t, err)
		assert.False(t, created)

		followers, err := repo.CountFollowers(ctx, writer.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), followers)
	})

	t.Run("Exists is directional", func(t *testing.T) {
		ok, err := repo.Exists(ctx, reader.ID, writer.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, writer.ID, reader.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		removed, err := repo.Delete(ctx, reader.ID, writer.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.Delete(ctx, reader.ID, writer.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		following, err := repo.CountFollowing(ctx, reader.ID)
		require.NoError(t, err)
		assert.Zero(t, following)
	})
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.False(t, isUniqueConstraintError(assert.AnError))
	assert.True(t, isUniqueConstraintError(errString("UNIQUE constraint failed: follows.user_id, follows.author_id")))
	assert.True(t, isUniqueConstraintError(errString(`ERROR: duplicate key value violates unique constraint "idx_follows_user_author" (SQLSTATE 23505)`)))
}

type errString string

func (e errString) Error() string { return string(e) }
