package feed

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"gorm.io/gorm"

	"github.com/tandemapp/tandem-server/internal/app"
	"github.com/tandemapp/tandem-server/internal/db"
	svcErr "github.com/tandemapp/tandem-server/internal/errors"
	"github.com/tandemapp/tandem-server/internal/repository"
)

// Service implements the shared feed: versioned shuffled decks per
// (scope, category) and a single cursor both partners advance by swiping.
//
// All concurrency control lives in the storage layer — conditional updates
// and unique constraints — so any number of concurrent requests against the
// same scope resolve to exactly one winner per cursor position.
type Service struct {
	appCtx     *app.AppContext
	feedStates *repository.FeedStateRepository
	decks      *repository.DeckRepository
	swipes     *repository.SwipeRepository
	activities *repository.ActivityRepository
	couples    *repository.CoupleRepository
}

// NewService creates a feed service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		feedStates: repository.NewFeedStateRepository(appCtx.DB),
		decks:      repository.NewDeckRepository(appCtx.DB),
		swipes:     repository.NewSwipeRepository(appCtx.DB),
		activities: repository.NewActivityRepository(appCtx.DB),
		couples:    repository.NewCoupleRepository(appCtx.DB),
	}
}

// Snapshot is the client-facing view of a feed's cursor state.
type Snapshot struct {
	CurrentIndex int  `json:"currentIndex"`
	DeckVersion  int  `json:"deckVersion"`
	TotalItems   int  `json:"totalItems"`
	IsFinished   bool `json:"isFinished"`
}

func snapshot(state db.FeedState, total int64) Snapshot {
	return Snapshot{
		CurrentIndex: state.CurrentIndex,
		DeckVersion:  state.DeckVersion,
		TotalItems:   int(total),
		IsFinished:   state.CurrentIndex >= int(total),
	}
}

// ActivityPayload is the display shape of a catalog item. LikeCount is the
// global like/superlike tally across all couples.
type ActivityPayload struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Difficulty  string   `json:"difficulty"`
	HowTo       string   `json:"howTo,omitempty"`
	Tip         string   `json:"tip,omitempty"`
	Tags        []string `json:"tags"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	LikeCount   int64    `json:"likeCount"`
}

func activityPayload(a db.Activity) *ActivityPayload {
	var tags []string
	if a.Tags != "" {
		tags = strings.Split(a.Tags, ",")
	}
	return &ActivityPayload{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Category:    a.Category,
		Difficulty:  a.Difficulty,
		HowTo:       a.HowTo,
		Tip:         a.Tip,
		Tags:        tags,
		ImageURL:    a.ImageURL,
	}
}

// FeedResponse is the result of FetchCurrent. Activity is nil when the deck
// is exhausted or the category has no active items.
type FeedResponse struct {
	Activity *ActivityPayload `json:"activity"`
	State    Snapshot         `json:"state"`
}

// SwipeResult is the result of an accepted swipe. Next carries the newly
// current activity (nil at end of deck) to save the client a round trip.
type SwipeResult struct {
	State Snapshot         `json:"state"`
	Next  *ActivityPayload `json:"next"`
}

// ConflictError reports a stale expectedIndex: another writer moved the
// cursor first, or the deck is exhausted. Carries a fresh snapshot so the
// client can resync without an extra fetch. Routine under concurrent use,
// never a fault.
type ConflictError struct {
	State Snapshot
}

func (e *ConflictError) Error() string { return "feed state conflict" }

// FetchCurrent returns the activity at the shared cursor, lazily creating
// the feed state and the current version's deck on first access.
func (s *Service) FetchCurrent(ctx context.Context, scope db.Scope, category string) (*FeedResponse, error) {
	state, err := s.feedStates.GetOrInit(ctx, scope, category)
	if err != nil {
		return nil, err
	}

	total, err := s.ensureDeck(ctx, scope, category, state.DeckVersion)
	if err != nil {
		return nil, err
	}

	resp := &FeedResponse{State: snapshot(state, total)}
	if resp.State.IsFinished {
		return resp, nil
	}

	item, err := s.decks.ItemAt(ctx, scope, category, state.DeckVersion, state.CurrentIndex)
	if err != nil {
		return nil, err
	}
	activity, err := s.activities.GetByID(ctx, item.ActivityID)
	if err != nil {
		return nil, err
	}
	resp.Activity = activityPayload(activity)
	resp.Activity.LikeCount = s.likeCount(ctx, activity.ID)
	return resp, nil
}

// Swipe validates and applies one swipe against the shared cursor.
//
// Acceptance requires three things to hold at commit time: the caller's
// expectedIndex equals the stored cursor, the claimed activity occupies that
// slot, and the conditional advance wins. The swipe record append and the
// advance share one transaction, so a lost race leaves no orphaned record.
// Preview scopes skip the record entirely.
func (s *Service) Swipe(ctx context.Context, scope db.Scope, userID uint64, category string, activityID uint64, direction string, expectedIndex int) (*SwipeResult, error) {
	if err := ValidateDirection(direction); err != nil {
		return nil, err
	}

	state, err := s.feedStates.GetOrInit(ctx, scope, category)
	if err != nil {
		return nil, err
	}
	total, err := s.ensureDeck(ctx, scope, category, state.DeckVersion)
	if err != nil {
		return nil, err
	}

	// Optimistic-concurrency check: stale clients resync and retry.
	if state.CurrentIndex != expectedIndex {
		return nil, &ConflictError{State: snapshot(state, total)}
	}

	// Exhausted decks (empty category included) accept no swipes until reset.
	if state.CurrentIndex >= int(total) {
		return nil, &ConflictError{State: snapshot(state, total)}
	}

	// Integrity check: the claimed activity must occupy the current slot.
	item, err := s.decks.ItemAt(ctx, scope, category, state.DeckVersion, state.CurrentIndex)
	if err != nil {
		return nil, err
	}
	if item.ActivityID != activityID {
		return nil, svcErr.ErrMismatch
	}

	// Commit: record + advance as one unit of work. If the CAS loses, the
	// transaction rolls back and the record is never visible.
	errLostRace := errors.New("cursor moved")
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if scope.Kind == db.ScopeCouple {
			record := &db.SwipeRecord{
				CoupleID:   scope.ID,
				UserID:     userID,
				Category:   category,
				ActivityID: activityID,
				Direction:  direction,
			}
			if err := repository.NewSwipeRepository(tx).Append(ctx, record); err != nil {
				return err
			}
		}

		advanced, err := repository.NewFeedStateRepository(tx).Advance(ctx, scope, category, expectedIndex, state.DeckVersion)
		if err != nil {
			return err
		}
		if !advanced {
			return errLostRace
		}
		return nil
	})
	if errors.Is(err, errLostRace) {
		return nil, s.conflict(ctx, scope, category)
	}
	if err != nil {
		return nil, err
	}

	if scope.Kind == db.ScopeCouple && direction != DirectionDislike {
		// Best-effort analytics counter; the swipe log is the source of truth.
		s.bumpLikeCount(ctx, activityID)
	}

	state.CurrentIndex = expectedIndex + 1
	result := &SwipeResult{State: snapshot(state, total)}
	if !result.State.IsFinished {
		next, err := s.decks.ItemAt(ctx, scope, category, state.DeckVersion, state.CurrentIndex)
		if err != nil {
			return nil, err
		}
		activity, err := s.activities.GetByID(ctx, next.ActivityID)
		if err != nil {
			return nil, err
		}
		result.Next = activityPayload(activity)
		result.Next.LikeCount = s.likeCount(ctx, activity.ID)
	}
	return result, nil
}

// conflict rebuilds a ConflictError from current storage, so the snapshot a
// losing swiper receives reflects any reset that landed while their swipe
// was in flight.
func (s *Service) conflict(ctx context.Context, scope db.Scope, category string) error {
	fresh, err := s.feedStates.Get(ctx, scope, category)
	if err != nil {
		return err
	}
	total, err := s.ensureDeck(ctx, scope, category, fresh.DeckVersion)
	if err != nil {
		return err
	}
	return &ConflictError{State: snapshot(fresh, total)}
}

// likeCount reads an activity's accumulated like/superlike tally, cache
// first, falling back to the swipe log and backfilling Redis on a miss.
// Best-effort: a counter outage degrades the display to zero, never the
// request.
func (s *Service) likeCount(ctx context.Context, activityID uint64) int64 {
	n, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, activityID)
	if err == nil && ok {
		return n
	}

	n, err = s.swipes.CountLikes(ctx, activityID)
	if err != nil {
		s.appCtx.Logger.Debug("like counter fallback failed", "activity", activityID, "err", err)
		return 0
	}
	_ = s.appCtx.RedisCache.SetLikeCount(ctx, activityID, n)
	return n
}

// bumpLikeCount records one more like against a warm counter. A cold counter
// is backfilled from the log instead, which already includes the swipe that
// just committed.
func (s *Service) bumpLikeCount(ctx context.Context, activityID uint64) {
	if _, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, activityID); err == nil && !ok {
		s.likeCount(ctx, activityID)
		return
	}
	if _, err := s.appCtx.RedisCache.IncrLikeCount(ctx, activityID); err != nil {
		s.appCtx.Logger.Debug("like counter update failed", "activity", activityID, "err", err)
	}
}

// Reset bumps the deck version, zeroes the cursor, and generates the new
// version's deck so the returned snapshot is immediately accurate. Prior
// versions' items are retained but never served again.
func (s *Service) Reset(ctx context.Context, scope db.Scope, category string) (Snapshot, error) {
	state, err := s.feedStates.GetOrInit(ctx, scope, category)
	if err != nil {
		return Snapshot{}, err
	}

	_ = s.appCtx.RedisCache.InvalidateDeckTotal(ctx, scope, category, state.DeckVersion)

	state, err = s.feedStates.Reset(ctx, scope, category)
	if err != nil {
		return Snapshot{}, err
	}

	total, err := s.ensureDeck(ctx, scope, category, state.DeckVersion)
	if err != nil {
		return Snapshot{}, err
	}
	return snapshot(state, total), nil
}

// History returns a couple's recorded swipes for a category, newest first.
func (s *Service) History(ctx context.Context, coupleID uint64, category string, paginationToken *string, limit int) ([]db.SwipeRecord, *string, error) {
	return s.swipes.List(ctx, coupleID, category, paginationToken, limit)
}

// ensureDeck guarantees a deck exists for (scope, category, version) and
// returns its size. Zero means the category has no active items.
//
// Generation is at-most-once: the shuffled batch insert either commits whole
// or loses to a concurrent generator's unique constraint, in which case we
// discard ours and count the winner's rows.
func (s *Service) ensureDeck(ctx context.Context, scope db.Scope, category string, version int) (int64, error) {
	if total, ok, err := s.appCtx.RedisCache.GetDeckTotal(ctx, scope, category, version); err == nil && ok {
		return total, nil
	}

	total, err := s.decks.Count(ctx, scope, category, version)
	if err != nil {
		return 0, err
	}

	if total == 0 {
		ids, err := s.activities.ListActiveIDs(ctx, category)
		if err != nil {
			return 0, err
		}
		if len(ids) == 0 {
			return 0, nil
		}

		// Fisher–Yates via rand.Shuffle: every permutation equally likely.
		rand.Shuffle(len(ids), func(i, j int) {
			ids[i], ids[j] = ids[j], ids[i]
		})

		switch err := s.decks.InsertDeck(ctx, scope, category, version, ids); {
		case errors.Is(err, repository.ErrDeckExists):
			total, err = s.decks.Count(ctx, scope, category, version)
			if err != nil {
				return 0, err
			}
		case err != nil:
			return 0, err
		default:
			total = int64(len(ids))
			s.appCtx.Logger.Info("deck generated",
				"scope", scope.String(), "category", category, "version", version, "items", total)
		}
	}

	if total > 0 {
		_ = s.appCtx.RedisCache.SetDeckTotal(ctx, scope, category, version, total)
	}
	return total, nil
}

// ResolveScope maps a caller onto their feed scope: the shared couple scope
// when paired, otherwise a private preview scope keyed by user id. The
// preview feed follows identical index/version semantics so the experience
// is consistent once the user pairs.
func (s *Service) ResolveScope(ctx context.Context, userID uint64) (db.Scope, error) {
	couple, err := s.couples.GetByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.UserScope(userID), nil
	}
	if err != nil {
		return db.Scope{}, err
	}
	return db.CoupleScope(couple.ID), nil
}
