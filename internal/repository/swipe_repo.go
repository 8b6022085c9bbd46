package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tandemapp/tandem-server/internal/db"
	"github.com/tandemapp/tandem-server/internal/utils/pagination"
)

// SwipeRepository provides access to the append-only swipe log.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB
// connection. Bind it to a transaction handle when the append must commit or
// roll back together with a cursor advance.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Append records one swipe. Rows are never updated or deleted.
func (r *SwipeRepository) Append(ctx context.Context, record *db.SwipeRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// List returns a couple's swipes for a category, newest first, with
// cursor-based pagination via paginationToken.
func (r *SwipeRepository) List(
	ctx context.Context,
	coupleID uint64,
	category string,
	paginationToken *string,
	limit int,
) ([]db.SwipeRecord, *string, error) {
	var records []db.SwipeRecord

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&db.SwipeRecord{}).
		Where("couple_id = ? AND category = ?", coupleID, category).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if cursor.SwipeID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.SwipeID,
		)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(records) > limit {
		last := records[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			SwipeID:     last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		records = records[:limit]
	}

	return records, nextToken, nil
}

// CountLikes returns how many like/superlike swipes an activity has
// accumulated across all couples. Redis is the first stop; this is the
// fallback.
func (r *SwipeRepository) CountLikes(ctx context.Context, activityID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.SwipeRecord{}).
		Where("activity_id = ? AND direction IN ?", activityID, []string{"like", "superlike"}).
		Count(&count).Error
	return count, err
}

// CountAll returns the total number of recorded swipes.
func (r *SwipeRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.SwipeRecord{}).Count(&count).Error
	return count, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
