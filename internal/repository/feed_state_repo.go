package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tandemapp/tandem-server/internal/db"
)

// FeedStateRepository owns the shared cursor row per (scope, category).
//
// The row is the single mutable register both partners contend on, so every
// mutation here is a single conditional statement: correctness never depends
// on in-process locking or on holding anything across a round trip.
type FeedStateRepository struct {
	db *gorm.DB
}

// NewFeedStateRepository creates a new repository bound to the given DB connection.
func NewFeedStateRepository(database *gorm.DB) *FeedStateRepository {
	return &FeedStateRepository{db: database}
}

// GetOrInit returns the feed state for (scope, category), creating it at
// index 0 / version 0 if absent. Safe under concurrent first access: the
// insert is ON CONFLICT DO NOTHING on the composite PK, and the read that
// follows sees whichever caller won.
func (r *FeedStateRepository) GetOrInit(ctx context.Context, scope db.Scope, category string) (db.FeedState, error) {
	state := db.FeedState{
		ScopeKind: scope.Kind,
		ScopeID:   scope.ID,
		Category:  category,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&state).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return db.FeedState{}, err
	}

	err = r.db.WithContext(ctx).
		Where("scope_kind = ? AND scope_id = ? AND category = ?", scope.Kind, scope.ID, category).
		First(&state).Error
	return state, err
}

// Get returns the feed state without initializing it.
func (r *FeedStateRepository) Get(ctx context.Context, scope db.Scope, category string) (db.FeedState, error) {
	var state db.FeedState
	err := r.db.WithContext(ctx).
		Where("scope_kind = ? AND scope_id = ? AND category = ?", scope.Kind, scope.ID, category).
		First(&state).Error
	return state, err
}

// Advance performs the compare-and-swap at the heart of swipe processing:
// current_index moves from expectedIndex to expectedIndex+1 only if the
// stored index and deck version still match what the caller validated
// against. Returns whether this caller won the swap.
//
// Of any number of concurrent callers with the same expectedIndex, the
// database accepts exactly one; the rest see RowsAffected == 0.
func (r *FeedStateRepository) Advance(ctx context.Context, scope db.Scope, category string, expectedIndex, deckVersion int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.FeedState{}).
		Where("scope_kind = ? AND scope_id = ? AND category = ? AND current_index = ? AND deck_version = ?",
			scope.Kind, scope.ID, category, expectedIndex, deckVersion).
		Update("current_index", gorm.Expr("current_index + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Reset bumps the deck version and zeroes the cursor in one UPDATE. The new
// version's deck is generated lazily on the next fetch. Returns the state
// after the reset.
func (r *FeedStateRepository) Reset(ctx context.Context, scope db.Scope, category string) (db.FeedState, error) {
	res := r.db.WithContext(ctx).
		Model(&db.FeedState{}).
		Where("scope_kind = ? AND scope_id = ? AND category = ?", scope.Kind, scope.ID, category).
		Updates(map[string]interface{}{
			"current_index": 0,
			"deck_version":  gorm.Expr("deck_version + ?", 1),
		})
	if res.Error != nil {
		return db.FeedState{}, res.Error
	}
	if res.RowsAffected == 0 {
		return db.FeedState{}, gorm.ErrRecordNotFound
	}
	return r.Get(ctx, scope, category)
}
