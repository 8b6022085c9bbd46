package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tandemapp/tandem-server/internal/db"
)

// ErrDeckExists signals that a concurrent generator persisted a deck for the
// same (scope, category, version) first. The caller's computed deck is
// discarded and the winner's rows are re-read.
var ErrDeckExists = errors.New("deck already generated")

// DeckRepository provides data access for versioned deck items.
type DeckRepository struct {
	db *gorm.DB
}

// NewDeckRepository creates a new repository bound to the given DB connection.
func NewDeckRepository(database *gorm.DB) *DeckRepository {
	return &DeckRepository{db: database}
}

// InsertDeck persists one full shuffled deck as a single transaction.
//
// activityIDs are already in final shuffle order; positions are assigned
// 0..n-1 from slice order. The batch either commits whole or not at all:
// any duplicate-key hit (a racing generator won) rolls back every row and
// surfaces ErrDeckExists. This is what gives deck generation its
// exactly-one-winner semantics.
func (r *DeckRepository) InsertDeck(ctx context.Context, scope db.Scope, category string, version int, activityIDs []uint64) error {
	if len(activityIDs) == 0 {
		return nil
	}

	items := make([]db.DeckItem, 0, len(activityIDs))
	for pos, activityID := range activityIDs {
		items = append(items, db.DeckItem{
			ScopeKind:   scope.Kind,
			ScopeID:     scope.ID,
			Category:    category,
			DeckVersion: version,
			Position:    pos,
			ActivityID:  activityID,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&items).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDeckExists
	}
	return err
}

// Count returns how many items the deck holds for (scope, category, version).
func (r *DeckRepository) Count(ctx context.Context, scope db.Scope, category string, version int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.DeckItem{}).
		Where("scope_kind = ? AND scope_id = ? AND category = ? AND deck_version = ?",
			scope.Kind, scope.ID, category, version).
		Count(&count).Error
	return count, err
}

// ItemAt resolves the deck slot at the given position.
func (r *DeckRepository) ItemAt(ctx context.Context, scope db.Scope, category string, version, position int) (db.DeckItem, error) {
	var item db.DeckItem
	err := r.db.WithContext(ctx).
		Where("scope_kind = ? AND scope_id = ? AND category = ? AND deck_version = ? AND position = ?",
			scope.Kind, scope.ID, category, version, position).
		First(&item).Error
	return item, err
}

// Items returns the full deck in position order. Used by tests and
// diagnostics, not by the hot path.
func (r *DeckRepository) Items(ctx context.Context, scope db.Scope, category string, version int) ([]db.DeckItem, error) {
	var items []db.DeckItem
	err := r.db.WithContext(ctx).
		Where("scope_kind = ? AND scope_id = ? AND category = ? AND deck_version = ?",
			scope.Kind, scope.ID, category, version).
		Order("position ASC").
		Find(&items).Error
	return items, err
}
