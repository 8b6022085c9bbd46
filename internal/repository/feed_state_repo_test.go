package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tandemapp/tandem-server/internal/db"
	"github.com/tandemapp/tandem-server/internal/repository"
)

func TestGetOrInitCreatesOnce(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewFeedStateRepository(setupTestDB(t))
	scope := db.CoupleScope(1)

	state, err := repo.GetOrInit(ctx, scope, "casa")
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentIndex)
	assert.Equal(t, 0, state.DeckVersion)

	// second init sees the same row, not a fresh one
	_, err = repo.Advance(ctx, scope, "casa", 0, 0)
	require.NoError(t, err)

	state, err = repo.GetOrInit(ctx, scope, "casa")
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentIndex)
}

func TestGetOrInitScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewFeedStateRepository(setupTestDB(t))

	_, err := repo.GetOrInit(ctx, db.CoupleScope(1), "casa")
	require.NoError(t, err)
	_, err = repo.GetOrInit(ctx, db.UserScope(1), "casa")
	require.NoError(t, err)

	ok, err := repo.Advance(ctx, db.CoupleScope(1), "casa", 0, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	// the user scope with the same numeric id is untouched
	state, err := repo.Get(ctx, db.UserScope(1), "casa")
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentIndex)
}

func TestAdvanceConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewFeedStateRepository(setupTestDB(t))
	scope := db.CoupleScope(7)

	_, err := repo.GetOrInit(ctx, scope, "casa")
	require.NoError(t, err)

	// matching expected index wins
	ok, err := repo.Advance(ctx, scope, "casa", 0, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	// a second claim on the same index loses without mutating anything
	ok, err = repo.Advance(ctx, scope, "casa", 0, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	state, err := repo.Get(ctx, scope, "casa")
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentIndex)
}

func TestAdvanceRejectsWrongDeckVersion(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewFeedStateRepository(setupTestDB(t))
	scope := db.CoupleScope(7)

	_, err := repo.GetOrInit(ctx, scope, "casa")
	require.NoError(t, err)
	_, err = repo.Reset(ctx, scope, "casa")
	require.NoError(t, err)

	// a claim validated against version 0 must not advance version 1
	ok, err := repo.Advance(ctx, scope, "casa", 0, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResetBumpsVersionAndZeroesCursor(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewFeedStateRepository(setupTestDB(t))
	scope := db.CoupleScope(3)

	_, err := repo.GetOrInit(ctx, scope, "hot")
	require.NoError(t, err)
	ok, err := repo.Advance(ctx, scope, "hot", 0, 0)
	require.NoError(t, err)
	require.True(t, ok)

	state, err := repo.Reset(ctx, scope, "hot")
	require.NoError(t, err)
	assert.Equal(t, 1, state.DeckVersion)
	assert.Equal(t, 0, state.CurrentIndex)

	state, err = repo.Reset(ctx, scope, "hot")
	require.NoError(t, err)
	assert.Equal(t, 2, state.DeckVersion)
}

func TestResetWithoutStateFails(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewFeedStateRepository(setupTestDB(t))

	_, err := repo.Reset(ctx, db.CoupleScope(42), "casa")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
