package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_ListOrderAndScopes(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	cats := testutil.CreateGroup(t, db, "cats")

	first := testutil.CreatePost(t, db, alice, cats, "first cat post")
	second := testutil.CreatePost(t, db, bob, nil, "bob writes about dogs")
	third := testutil.CreatePost(t, db, alice, nil, "third, no group")

	t.Run("all posts newest first", func(t *testing.T) {
		posts, err := repo.List(ctx, AllPosts(""), 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, []uint{third.ID, second.ID, first.ID}, []uint{posts[0].ID, posts[1].ID, posts[2].ID})
		assert.Equal(t, "alice", posts[0].Author.Username)
	})

	t.Run("group scope", func(t *testing.T) {
		posts, err := repo.List(ctx, GroupPosts(cats.ID), 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, first.ID, posts[0].ID)
		require.NotNil(t, posts[0].Group)
		assert.Equal(t, "cats", posts[0].Group.Slug)
	})

	t.Run("author scope", func(t *testing.T) {
		total, err := repo.Count(ctx, AuthorPosts(alice.ID))
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("search is literal substring", func(t *testing.T) {
		posts, err := repo.List(ctx, AllPosts("dogs"), 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, second.ID, posts[0].ID)

		total, err := repo.Count(ctx, AllPosts("100%"))
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("search keeps whitespace", func(t *testing.T) {
		total, err := repo.Count(ctx, AllPosts("  "))
		require.NoError(t, err)
		assert.Zero(t, total)

		posts, err := repo.List(ctx, AllPosts(" cat "), 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, first.ID, posts[0].ID)
	})

	t.Run("feed follows the graph at query time", func(t *testing.T) {
		total, err := repo.Count(ctx, FeedPosts(bob.ID))
		require.NoError(t, err)
		assert.Zero(t, total)

		testutil.CreateFollow(t, db, bob, alice)
		posts, err := repo.List(ctx, FeedPosts(bob.ID), 10, 0)
		require.NoError(t, err)
		assert.Len(t, posts, 2)
		for _, p := range posts {
			assert.Equal(t, alice.ID, p.AuthorID)
		}
	})
}

func TestPostRepository_Pagination(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	author := testutil.CreateUser(t, db, "writer")

	for i := 0; i < 13; i++ {
		testutil.CreatePost(t, db, author, nil, fmt.Sprintf("post %02d", i))
	}

	page1, err := repo.List(context.Background(), AllPosts(""), 10, 0)
	require.NoError(t, err)
	assert.Len(t, page1, 10)
	assert.Equal(t, "post 12", page1[0].Text)

	page2, err := repo.List(context.Background(), AllPosts(""), 10, 10)
	require.NoError(t, err)
	assert.Len(t, page2, 3)
	assert.Equal(t, "post 00", page2[2].Text)
}

func TestPostRepository_UpdateKeepsCreatedAt(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author")
	group := testutil.CreateGroup(t, db, "news")
	post := testutil.CreatePost(t, db, author, group, "before")
	created := post.CreatedAt

	post.Text = "after"
	post.GroupID = nil
	require.NoError(t, repo.Update(ctx, post))

	reloaded, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", reloaded.Text)
	assert.Nil(t, reloaded.GroupID)
	assert.True(t, created.Equal(reloaded.CreatedAt))
}

func TestPostRepository_DeleteRemovesComments(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author")
	post := testutil.CreatePost(t, db, author, nil, "doomed")
	require.NoError(t, comments.Create(ctx, &models.Comment{PostID: post.ID, AuthorID: author.ID, Text: "bye"}))

	require.NoError(t, repo.Delete(ctx, post.ID))

	var remaining int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	_, err := repo.GetByID(ctx, post.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	err = repo.Delete(ctx, post.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostRepository_FeedQueryShape(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "posts" WHERE posts.author_id IN (SELECT`) + `.*` +
		regexp.QuoteMeta(`FROM "follows" WHERE user_id = $1)`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := repo.Count(context.Background(), FeedPosts(7))
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_CreateOmitsAssociations(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	post := &models.Post{Text: "hello", AuthorID: 3, Author: models.User{ID: 3, Username: "ghost"}}
	require.NoError(t, repo.Create(context.Background(), post))
	assert.Equal(t, uint(1), post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
