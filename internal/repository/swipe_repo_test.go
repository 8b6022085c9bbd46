package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tandemapp/tandem-server/internal/db"
	"github.com/tandemapp/tandem-server/internal/repository"
)

func appendSwipe(t *testing.T, repo *repository.SwipeRepository, coupleID, userID, activityID uint64, direction string) {
	t.Helper()
	err := repo.Append(context.Background(), &db.SwipeRecord{
		CoupleID:   coupleID,
		UserID:     userID,
		Category:   "casa",
		ActivityID: activityID,
		Direction:  direction,
	})
	require.NoError(t, err)
}

func TestListNewestFirstWithPagination(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSwipeRepository(setupTestDB(t))

	appendSwipe(t, repo, 1, 10, 100, "like")
	appendSwipe(t, repo, 1, 11, 101, "dislike")
	appendSwipe(t, repo, 1, 10, 102, "superlike")
	appendSwipe(t, repo, 2, 12, 100, "like") // other couple, excluded

	page1, next, err := repo.List(ctx, 1, "casa", nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotNil(t, next)
	assert.Equal(t, uint64(102), page1[0].ActivityID)
	assert.Equal(t, uint64(101), page1[1].ActivityID)

	page2, next, err := repo.List(ctx, 1, "casa", next, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Nil(t, next)
	assert.Equal(t, uint64(100), page2[0].ActivityID)
}

func TestListRejectsGarbageToken(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSwipeRepository(setupTestDB(t))

	bad := "not-base64!"
	_, _, err := repo.List(ctx, 1, "casa", &bad, 10)
	assert.Error(t, err)
}

func TestCountLikesIncludesSuperlikes(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSwipeRepository(setupTestDB(t))

	appendSwipe(t, repo, 1, 10, 100, "like")
	appendSwipe(t, repo, 2, 12, 100, "superlike")
	appendSwipe(t, repo, 3, 14, 100, "dislike")
	appendSwipe(t, repo, 1, 10, 200, "like")

	count, err := repo.CountLikes(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
