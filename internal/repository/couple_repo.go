package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tandemapp/tandem-server/internal/db"
	svcErr "github.com/tandemapp/tandem-server/internal/errors"
	"github.com/tandemapp/tandem-server/internal/id"
)

// CoupleRepository manages couple rows and invite-code pairing.
type CoupleRepository struct {
	db *gorm.DB
}

// NewCoupleRepository creates a new repository bound to the given DB connection.
func NewCoupleRepository(database *gorm.DB) *CoupleRepository {
	return &CoupleRepository{db: database}
}

// Create opens a couple for userID and returns it with a fresh invite code.
// Retries code generation on the (unlikely) code collision.
//
// The couple row and the creator's CoupleMember row commit in one
// transaction; the member primary key is what actually enforces one couple
// per user, so a user racing two pairings loses the insert and the couple
// row rolls back with it.
func (r *CoupleRepository) Create(ctx context.Context, userID uint64) (db.Couple, error) {
	already, err := r.GetByUser(ctx, userID)
	if err == nil && already.ID != 0 {
		return db.Couple{}, svcErr.ErrAlreadyPaired
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Couple{}, err
	}

	for attempt := 0; attempt < 3; attempt++ {
		code, err := id.NewInviteCode()
		if err != nil {
			return db.Couple{}, err
		}

		couple := db.Couple{User1ID: userID, InviteCode: code}
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&couple).Error; err != nil {
				return err
			}
			member := db.CoupleMember{UserID: userID, CoupleID: couple.ID}
			if err := tx.Create(&member).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return svcErr.ErrAlreadyPaired
				}
				return err
			}
			return nil
		})
		if errors.Is(err, svcErr.ErrAlreadyPaired) {
			return db.Couple{}, err
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Either the code collided or the user raced a second create.
			if existing, lookupErr := r.GetByUser(ctx, userID); lookupErr == nil && existing.ID != 0 {
				return db.Couple{}, svcErr.ErrAlreadyPaired
			}
			continue
		}
		if err != nil {
			return db.Couple{}, err
		}
		return couple, nil
	}
	return db.Couple{}, errors.New("failed to allocate invite code")
}

// JoinByCode binds userID as the second member of the couple carrying code.
//
// The bind is a conditional UPDATE on user2_id IS NULL, so a code is
// redeemable exactly once even when two joiners race: one wins the row, the
// other reads back a full couple. The joiner's CoupleMember row commits in
// the same transaction; if the user got paired elsewhere in the meantime,
// the member insert trips and the bind rolls back, leaving the code
// redeemable.
func (r *CoupleRepository) JoinByCode(ctx context.Context, userID uint64, code string) (db.Couple, error) {
	if already, err := r.GetByUser(ctx, userID); err == nil && already.ID != 0 {
		return db.Couple{}, svcErr.ErrAlreadyPaired
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Couple{}, err
	}

	errNoBind := errors.New("no open couple bound")
	var couple db.Couple
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.Couple{}).
			Where("invite_code = ? AND user2_id IS NULL AND user1_id <> ?", code, userID).
			Update("user2_id", userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNoBind
		}

		if err := tx.Where("invite_code = ?", code).First(&couple).Error; err != nil {
			return err
		}
		member := db.CoupleMember{UserID: userID, CoupleID: couple.ID}
		if err := tx.Create(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return svcErr.ErrAlreadyPaired
			}
			return err
		}
		return nil
	})

	if errors.Is(err, errNoBind) {
		// Distinguish a bad code from an already-redeemed one.
		var full db.Couple
		err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&full).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.Couple{}, svcErr.ErrInvalidInviteCode
		}
		if err != nil {
			return db.Couple{}, err
		}
		if full.User1ID == userID {
			return db.Couple{}, svcErr.ErrInvalidInviteCode
		}
		return db.Couple{}, svcErr.ErrCoupleFull
	}
	if err != nil {
		return db.Couple{}, err
	}
	return couple, nil
}

// GetByUser returns the couple the user belongs to, as either member.
func (r *CoupleRepository) GetByUser(ctx context.Context, userID uint64) (db.Couple, error) {
	var couple db.Couple
	err := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		First(&couple).Error
	return couple, err
}

// Count returns the total number of couples.
func (r *CoupleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Couple{}).Count(&count).Error
	return count, err
}
