package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"postboard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPost(t *testing.T, repo PostRepository, title string, tags ...string) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:     title,
		Message:   "message for " + title,
		Creator:   "u1",
		Tags:      tags,
		CreatedAt: "2024-01-01T00:00:00.000Z",
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestPostRepository_CreateAndGet(t *testing.T) {
	repo := NewPostRepository(setupTestDB(t))
	ctx := context.Background()

	p := createPost(t, repo, "Hello", "go", "fiber")
	require.True(t, models.IsValidPostID(p.ID))
	assert.Empty(t, p.Likes)
	assert.Empty(t, p.Comments)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, "u1", got.Creator)
	assert.Equal(t, []string{"go", "fiber"}, got.Tags)
	assert.Equal(t, []string{}, got.Likes)
	assert.Equal(t, []string{}, got.Comments)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", got.CreatedAt)
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	repo := NewPostRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "0190b6a4-0000-7000-8000-000000000000")
	assert.ErrorIs(t, err, models.ErrPostNotFound)
}

func TestPostRepository_ListNewestFirst(t *testing.T) {
	repo := NewPostRepository(setupTestDB(t))
	ctx := context.Background()

	var ids []string
	for i := range 6 {
		ids = append(ids, createPost(t, repo, fmt.Sprintf("post %d", i)).ID)
	}

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)

	first, err := repo.List(ctx, models.PageSize, 0)
	require.NoError(t, err)
	require.Len(t, first, 4)
	assert.Equal(t, ids[5], first[0].ID)
	for i := 1; i < len(first); i++ {
		assert.Greater(t, first[i-1].ID, first[i].ID)
	}

	second, err := repo.List(ctx, models.PageSize, models.PageSize)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, ids[0], second[1].ID)
}

func TestPostRepository_Search(t *testing.T) {
	repo := NewPostRepository(setupTestDB(t))
	ctx := context.Background()

	byTitle := createPost(t, repo, "All about ABC", "misc")
	byTag := createPost(t, repo, "Unrelated", "y")
	neither := createPost(t, repo, "Nothing here", "z")
	wildcard := createPost(t, repo, "100% real")

	found, err := repo.Search(ctx, "abc", []string{"x", "y"})
	require.NoError(t, err)
	ids := postIDs(found)
	assert.ElementsMatch(t, []string{byTitle.ID, byTag.ID}, ids)
	assert.NotContains(t, ids, neither.ID)

	found, err = repo.Search(ctx, "%", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{wildcard.ID}, postIDs(found))

	found, err = repo.Search(ctx, "", nil)
	require.NoError(t, err)
	assert.Len(t, found, 4)
}

func TestPostRepository_UpdatePartial(t *testing.T) {
	repo := NewPostRepository(setupTestDB(t))
	ctx := context.Background()
	p := createPost(t, repo, "Before", "a", "b")

	title := "After"
	tags := []string{"c"}
	got, err := repo.Update(ctx, p.ID, models.UpdatePostRequest{Title: &title, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	assert.Equal(t, p.Message, got.Message)
	assert.Equal(t, []string{"c"}, got.Tags)
	assert.Equal(t, p.Creator, got.Creator)
	assert.Equal(t, p.CreatedAt, got.CreatedAt)

	_, err = repo.Update(ctx, "0190b6a4-0000-7000-8000-000000000000", models.UpdatePostRequest{Title: &title})
	assert.ErrorIs(t, err, models.ErrPostNotFound)
}

func TestPostRepository_ToggleLike(t *testing.T) {
	repo := NewPostRepository(setupTestDB(t))
	ctx := context.Background()
	p := createPost(t, repo, "Likeable")

	got, err := repo.ToggleLike(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, got.Likes)

	got, err = repo.ToggleLike(ctx, p.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, got.Likes)

	got, err = repo.ToggleLike(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, got.Likes)

	_, err = repo.ToggleLike(ctx, "0190b6a4-0000-7000-8000-000000000000", "u1")
	assert.ErrorIs(t, err, models.ErrPostNotFound)
}

func TestPostRepository_AddCommentAppends(t *testing.T) {
	repo := NewPostRepository(setupTestDB(t))
	ctx := context.Background()
	p := createPost(t, repo, "Commentable")

	want := []string{}
	for _, v := range []string{"first", "second", "third"} {
		got, err := repo.AddComment(ctx, p.ID, v)
		require.NoError(t, err)
		want = append(want, v)
		assert.Equal(t, want, got.Comments)
	}

	_, err := repo.AddComment(ctx, "0190b6a4-0000-7000-8000-000000000000", "x")
	assert.ErrorIs(t, err, models.ErrPostNotFound)
}

func TestPostRepository_DeleteIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	p := createPost(t, repo, "Doomed", "t")
	_, err := repo.ToggleLike(ctx, p.ID, "u1")
	require.NoError(t, err)
	_, err = repo.AddComment(ctx, p.ID, "bye")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, p.ID))
	require.NoError(t, repo.Delete(ctx, p.ID))

	_, err = repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, models.ErrPostNotFound)

	for _, model := range []any{&models.PostTag{}, &models.PostLike{}, &models.PostComment{}} {
		var n int64
		require.NoError(t, db.Model(model).Where("post_id = ?", p.ID).Count(&n).Error)
		assert.Zero(t, n)
	}
}

func TestPostRepository_ToggleLike_PostgresStatements(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	postID := "0190b6a4-0000-7000-8000-000000000001"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "posts" WHERE id = $1 LIMIT $2`)).
		WithArgs(postID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "post_likes" WHERE post_id = $1 AND user_id = $2`)).
		WithArgs(postID, "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "post_likes" ("post_id","user_id") VALUES ($1,$2) ON CONFLICT DO NOTHING RETURNING "id"`)).
		WithArgs(postID, "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE id = $1`)).
		WithArgs(postID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "creator", "created_at"}).
			AddRow(postID, "T", "u0", "2024-01-01T00:00:00.000Z"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "post_comments" WHERE "post_comments"."post_id" = $1`)).
		WithArgs(postID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "value"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "post_likes" WHERE "post_likes"."post_id" = $1`)).
		WithArgs(postID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "user_id"}).AddRow(1, postID, "u1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "post_tags" WHERE "post_tags"."post_id" = $1`)).
		WithArgs(postID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "tag", "position"}))
	mock.ExpectCommit()

	got, err := repo.ToggleLike(context.Background(), postID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, got.Likes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func postIDs(posts []*models.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}
