// Package admin exposes operator endpoints: dashboard stats and catalog
// toggles. Everything here is gated on the caller's stored admin role.
package admin

import (
	"context"

	"github.com/tandemapp/tandem-server/internal/app"
	"github.com/tandemapp/tandem-server/internal/repository"
)

// Stats is the dashboard summary.
type Stats struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalCouples    int64 `json:"totalCouples"`
	PremiumUsers    int64 `json:"premiumUsers"`
	TotalActivities int64 `json:"totalActivities"`
	TotalSwipes     int64 `json:"totalSwipes"`
}

// Service aggregates counts for the admin dashboard.
type Service struct {
	appCtx     *app.AppContext
	users      *repository.UserRepository
	couples    *repository.CoupleRepository
	activities *repository.ActivityRepository
	swipes     *repository.SwipeRepository
}

// NewService creates an admin service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		users:      repository.NewUserRepository(appCtx.DB),
		couples:    repository.NewCoupleRepository(appCtx.DB),
		activities: repository.NewActivityRepository(appCtx.DB),
		swipes:     repository.NewSwipeRepository(appCtx.DB),
	}
}

// Stats gathers the dashboard counters.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var (
		stats Stats
		err   error
	)
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return Stats{}, err
	}
	if stats.TotalCouples, err = s.couples.Count(ctx); err != nil {
		return Stats{}, err
	}
	if stats.PremiumUsers, err = s.users.CountPremium(ctx); err != nil {
		return Stats{}, err
	}
	if stats.TotalActivities, err = s.activities.Count(ctx); err != nil {
		return Stats{}, err
	}
	if stats.TotalSwipes, err = s.swipes.CountAll(ctx); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// SetActivityActive toggles a catalog item's deck eligibility.
func (s *Service) SetActivityActive(ctx context.Context, activityID uint64, active bool) error {
	return s.activities.SetActive(ctx, activityID, active)
}

// IsAdmin reports whether the caller may use this service.
func (s *Service) IsAdmin(ctx context.Context, userID uint64) (bool, error) {
	return s.users.IsAdmin(ctx, userID)
}
