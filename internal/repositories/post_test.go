package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepositories(t *testing.T) {
	db, teardown := setupPostgresContainer(t)
	defer teardown()

	users := NewUserWriteRepository(db, nil)
	writeRepo := NewPostWriteRepository(db, nil)
	readRepo := NewPostReadRepository(db, nil)
	ctx := context.Background()

	aliceID, err := users.Create(ctx, "alice", "alice@example.com", "hash")
	require.NoError(t, err)
	bobID, err := users.Create(ctx, "bob", "bob@example.com", "hash")
	require.NoError(t, err)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first, err := writeRepo.Create(ctx, aliceID, "first", "one", created)
	require.NoError(t, err)
	second, err := writeRepo.Create(ctx, bobID, "second", "two", created.Add(time.Hour))
	require.NoError(t, err)
	third, err := writeRepo.Create(ctx, aliceID, "third", "three", created.Add(2*time.Hour))
	require.NoError(t, err)

	t.Run("GetByID", func(t *testing.T) {
		post, err := readRepo.GetByID(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, "first", post.Title)
		assert.Equal(t, "one", post.Body)
		assert.Equal(t, aliceID, post.UserID)
		assert.Equal(t, "alice", post.AuthorName)
		assert.True(t, created.Equal(post.CreatedAt))
	})

	t.Run("NotFound", func(t *testing.T) {
		post, err := readRepo.GetByID(ctx, 999999)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, post)
	})

	t.Run("ListNewestFirstRegardlessOfUpdates", func(t *testing.T) {
		require.NoError(t, writeRepo.Update(ctx, first, "first edited", "one edited"))

		posts, err := readRepo.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, []int64{third, second, first}, []int64{posts[0].ID, posts[1].ID, posts[2].ID})
		for i := 1; i < len(posts); i++ {
			assert.Greater(t, posts[i-1].ID, posts[i].ID)
		}
		assert.Equal(t, "first edited", posts[2].Title)
		assert.Equal(t, aliceID, posts[2].UserID)
	})

	t.Run("CountByUser", func(t *testing.T) {
		count, err := readRepo.CountByUser(ctx, aliceID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		count, err = readRepo.CountByUser(ctx, bobID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, writeRepo.Delete(ctx, second))
		_, err := readRepo.GetByID(ctx, second)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("CascadeOnUserDelete", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, aliceID)
		require.NoError(t, err)

		posts, err := readRepo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})
}
