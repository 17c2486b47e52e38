package repository

import (
	"context"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRepository_Integration(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	t.Run("Create and GetBySlug", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, &models.Group{Title: "Books", Slug: "books", Description: "reading"}))

		g, err := repo.GetBySlug(ctx, "books")
		require.NoError(t, err)
		assert.Equal(t, "Books", g.String())

		err = repo.Create(ctx, &models.Group{Title: "Other", Slug: "books", Description: "x"})
		assert.True(t, models.HasCode(err, models.CodeConflict))

		_, err = repo.GetBySlug(ctx, "missing")
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})

	t.Run("Delete refuses referenced group", func(t *testing.T) {
		g := testutil.CreateGroup(t, db, "busy")
		author := testutil.CreateUser(t, db, "poster")
		testutil.CreatePost(t, db, author, g, "pinned here")

		err := repo.Delete(ctx, g.ID)
		assert.True(t, models.HasCode(err, models.CodeConflict))

		empty := testutil.CreateGroup(t, db, "empty")
		require.NoError(t, repo.Delete(ctx, empty.ID))

		groups, err := repo.List(ctx)
		require.NoError(t, err)
		slugs := make([]string, 0, len(groups))
		for _, gr := range groups {
			slugs = append(slugs, gr.Slug)
		}
		assert.ElementsMatch(t, []string{"books", "busy"}, slugs)
	})
}
