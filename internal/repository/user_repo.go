package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tandemapp/tandem-server/internal/db"
)

// UserRepository reads user rows. Account creation and credentials live in
// the upstream auth service; the feed core only needs role and counts.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// GetByID returns one user.
func (r *UserRepository) GetByID(ctx context.Context, userID uint64) (db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).First(&user, userID).Error
	return user, err
}

// IsAdmin reports whether the user carries the admin role.
func (r *UserRepository) IsAdmin(ctx context.Context, userID uint64) (bool, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Role == "admin", nil
}

// Count returns the total number of users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Count(&count).Error
	return count, err
}

// CountPremium returns how many users have a premium subscription.
func (r *UserRepository) CountPremium(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("premium = ?", true).
		Count(&count).Error
	return count, err
}
