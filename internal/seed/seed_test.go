package seed

import (
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroups_IsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)

	first, err := Groups(db)
	require.NoError(t, err)
	require.Len(t, first, len(DefaultGroups))

	second, err := Groups(db)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)

	var count int64
	require.NoError(t, db.Model(&models.Group{}).Count(&count).Error)
	assert.EqualValues(t, len(DefaultGroups), count)
}

func TestSeeder_Run(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewSeeder(db, Options{NumUsers: 6, NumPosts: 25, SkipBcrypt: true, MaxDays: 10, RandSeed: 7})

	sum, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 6, sum.Users)
	assert.Equal(t, 25, sum.Posts)

	var posts int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.EqualValues(t, 25, posts)

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).Where("user_id = author_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)

	require.NoError(t, s.ClearAll())
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Zero(t, posts)
}

func TestSeeder_DryRunWritesNothing(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewSeeder(db, Options{NumUsers: 3, NumPosts: 5, DryRun: true, SkipBcrypt: true, RandSeed: 1})

	sum, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Posts)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
