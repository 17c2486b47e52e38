package repository

import (
	"context"
	"regexp"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByUsername(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		username     string
		mockBehavior func()
		wantCode     string
	}{
		{
			name:     "Found",
			username: "leo",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE username = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs("leo", 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(1, "leo"))
			},
		},
		{
			name:     "Not Found",
			username: "nobody",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE username = $1`)).
					WithArgs("nobody", 1).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			wantCode: models.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByUsername(ctx, tt.username)
			if tt.wantCode != "" {
				assert.True(t, models.HasCode(err, tt.wantCode))
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.username, user.Username)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "dup", Email: "a@example.com", Password: "x"}))
	err := repo.Create(ctx, &models.User{Username: "dup", Email: "b@example.com", Password: "x"})
	assert.True(t, models.HasCode(err, models.CodeConflict))

	byEmail, err := repo.GetByEmail(ctx, "missing@example.com")
	require.NoError(t, err)
	assert.Nil(t, byEmail)
}

func TestUserRepository_Delete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author")
	reader := testutil.CreateUser(t, db, "reader")
	post := testutil.CreatePost(t, db, author, nil, "kept")
	testutil.CreateFollow(t, db, reader, author)
	require.NoError(t, db.Create(&models.Comment{PostID: post.ID, AuthorID: reader.ID, Text: "hi"}).Error)

	t.Run("author with posts is protected", func(t *testing.T) {
		err := repo.Delete(ctx, author.ID)
		assert.True(t, models.HasCode(err, models.CodeConflict))
	})

	t.Run("reader is removed with comments and follows", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, reader.ID))

		var comments, follows int64
		require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
		require.NoError(t, db.Model(&models.Follow{}).Count(&follows).Error)
		assert.Zero(t, comments)
		assert.Zero(t, follows)

		_, err := repo.GetByID(ctx, reader.ID)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	})
}
