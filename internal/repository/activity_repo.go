package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tandemapp/tandem-server/internal/db"
)

// ActivityRepository reads the activity catalog. The catalog is owned
// externally; this core only reads ids and display metadata.
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new repository bound to the given DB connection.
func NewActivityRepository(database *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: database}
}

// ListActiveIDs returns the ids of all active activities in a category.
// Ordered by id so the input to the shuffle is deterministic; the shuffle
// itself supplies the randomness.
func (r *ActivityRepository) ListActiveIDs(ctx context.Context, category string) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.Activity{}).
		Where("category = ? AND active = ?", category, true).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// GetByID returns one activity with full display metadata.
func (r *ActivityRepository) GetByID(ctx context.Context, activityID uint64) (db.Activity, error) {
	var activity db.Activity
	err := r.db.WithContext(ctx).First(&activity, activityID).Error
	return activity, err
}

// SetActive toggles an activity's eligibility for future decks. Existing
// deck items are untouched; the change takes effect on the next reset.
func (r *ActivityRepository) SetActive(ctx context.Context, activityID uint64, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&db.Activity{}).
		Where("id = ?", activityID).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count returns the total number of activities.
func (r *ActivityRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Activity{}).Count(&count).Error
	return count, err
}
