package seed

import (
	"context"
	"testing"

	"postboard/internal/database"
	"postboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestSeedPostsAndClear(t *testing.T) {
	db := setupTestDB(t)
	s := NewSeeder(db, SeedOptions{Users: 5, MaxLikes: 3, MaxComments: 2})

	posts, err := s.SeedPosts(context.Background(), 6)
	require.NoError(t, err)
	require.Len(t, posts, 6)

	for _, p := range posts {
		assert.True(t, models.IsValidPostID(p.ID))
		assert.NotEmpty(t, p.Title)
		assert.LessOrEqual(t, len(p.Likes), 3)
		assert.LessOrEqual(t, len(p.Comments), 2)
		assert.Contains(t, s.users, p.Creator)
	}

	var n int64
	require.NoError(t, db.Model(&models.Post{}).Count(&n).Error)
	assert.Equal(t, int64(6), n)

	require.NoError(t, s.ClearAll())
	for _, model := range []any{&models.Post{}, &models.PostTag{}, &models.PostLike{}, &models.PostComment{}} {
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
}

func TestBuildPostOverrides(t *testing.T) {
	s := NewSeeder(nil, SeedOptions{})
	p := s.BuildPost(func(p *models.Post) { p.Title = "fixed" })
	assert.Equal(t, "fixed", p.Title)
	assert.LessOrEqual(t, len(p.Tags), 3)
}
