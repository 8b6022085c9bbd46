// Package couple implements pairing: one user opens a couple and receives an
// invite code, the partner redeems it exactly once.
package couple

import (
	"context"

	"github.com/tandemapp/tandem-server/internal/app"
	"github.com/tandemapp/tandem-server/internal/db"
	"github.com/tandemapp/tandem-server/internal/repository"
)

// Service contains pairing business logic on top of the couple repository.
type Service struct {
	appCtx  *app.AppContext
	couples *repository.CoupleRepository
}

// NewService creates a couple service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		couples: repository.NewCoupleRepository(appCtx.DB),
	}
}

// Create opens a couple for the caller. Fails if they are already paired.
func (s *Service) Create(ctx context.Context, userID uint64) (db.Couple, error) {
	couple, err := s.couples.Create(ctx, userID)
	if err != nil {
		return db.Couple{}, err
	}
	s.appCtx.Logger.Info("couple created", "couple", couple.ID, "user", userID)
	return couple, nil
}

// Join binds the caller as the second member of the couple carrying code.
func (s *Service) Join(ctx context.Context, userID uint64, code string) (db.Couple, error) {
	couple, err := s.couples.JoinByCode(ctx, userID, code)
	if err != nil {
		return db.Couple{}, err
	}
	s.appCtx.Logger.Info("couple joined", "couple", couple.ID, "user", userID)
	return couple, nil
}

// Get returns the caller's couple, or gorm.ErrRecordNotFound if unpaired.
func (s *Service) Get(ctx context.Context, userID uint64) (db.Couple, error) {
	return s.couples.GetByUser(ctx, userID)
}
