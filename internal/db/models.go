package db

import (
	"fmt"
	"time"
)

// Scope identifies whose feed a row belongs to. A paired couple shares one
// scope; an unpaired user gets a private preview scope with the same
// cursor/version semantics.
type Scope struct {
	Kind string
	ID   uint64
}

const (
	ScopeCouple = "couple"
	ScopeUser   = "user"
)

func CoupleScope(coupleID uint64) Scope { return Scope{Kind: ScopeCouple, ID: coupleID} }
func UserScope(userID uint64) Scope     { return Scope{Kind: ScopeUser, ID: userID} }

func (s Scope) String() string { return fmt.Sprintf("%s:%d", s.Kind, s.ID) }

// User table. Authentication lives upstream; this row carries only what the
// feed core needs (couple membership resolution, role gating, seed data).
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Email        string    `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	Role         string    `gorm:"size:16;not null;default:user"`
	Premium      bool      `gorm:"default:false"`
	Active       bool      `gorm:"default:true"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Couple binds exactly two users. User2ID is nil until the invite code is
// redeemed; once set, the code is inert.
type Couple struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	User1ID    uint64    `gorm:"uniqueIndex;not null"`
	User2ID    *uint64   `gorm:"uniqueIndex"`
	InviteCode string    `gorm:"uniqueIndex;size:12;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// CoupleMember records one user's membership, whichever slot they occupy.
// The primary key spans both roles of Couple, so a user racing two pairings
// loses here and the couple mutation rolls back with it. Rows are written in
// the same transaction as the couple row they guard.
type CoupleMember struct {
	UserID    uint64    `gorm:"primaryKey;autoIncrement:false"`
	CoupleID  uint64    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Activity is the catalog of swipeable content. Only active rows are eligible
// for deck generation.
type Activity struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Title       string    `gorm:"size:128;not null"`
	Description string    `gorm:"size:512"`
	Category    string    `gorm:"size:32;not null;index:idx_activity_category_active,priority:1"`
	Difficulty  string    `gorm:"size:16;not null;default:Easy"`
	HowTo       string    `gorm:"size:512"`
	Tip         string    `gorm:"size:255"`
	Tags        string    `gorm:"size:255"`
	ImageURL    string    `gorm:"size:255"`
	Active      bool      `gorm:"default:true;index:idx_activity_category_active,priority:2"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// FeedState is the shared cursor: one row per (scope, category).
//
// CurrentIndex only ever moves through the conditional UPDATE in
// FeedStateRepository.Advance; DeckVersion only ever moves through Reset.
// Both are guarded by WHERE clauses on the prior value, so the row acts as a
// compare-and-swap register for concurrent swipers.
type FeedState struct {
	ScopeKind    string    `gorm:"primaryKey;size:8"`
	ScopeID      uint64    `gorm:"primaryKey"`
	Category     string    `gorm:"primaryKey;size:32"`
	CurrentIndex int       `gorm:"not null;default:0"`
	DeckVersion  int       `gorm:"not null;default:0"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// DeckItem pins one activity to one position of one deck version.
//
// The composite PK makes positions unique per (scope, category, version);
// idx_deck_activity additionally makes activities unique within a version.
// Together they guarantee a generated deck is a permutation, and make a
// racing duplicate generation fail wholesale at insert time.
type DeckItem struct {
	ScopeKind   string    `gorm:"primaryKey;size:8;index:idx_deck_activity,unique,priority:1"`
	ScopeID     uint64    `gorm:"primaryKey;index:idx_deck_activity,unique,priority:2"`
	Category    string    `gorm:"primaryKey;size:32;index:idx_deck_activity,unique,priority:3"`
	DeckVersion int       `gorm:"primaryKey;index:idx_deck_activity,unique,priority:4"`
	Position    int       `gorm:"primaryKey"`
	ActivityID  uint64    `gorm:"not null;index:idx_deck_activity,unique,priority:5"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// SwipeRecord is the append-only audit log. Never read by cursor logic,
// never updated, never deleted.
type SwipeRecord struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	CoupleID   uint64    `gorm:"not null;index:idx_swipe_couple_category,priority:1"`
	UserID     uint64    `gorm:"not null"`
	Category   string    `gorm:"size:32;not null;index:idx_swipe_couple_category,priority:2"`
	ActivityID uint64    `gorm:"not null"`
	Direction  string    `gorm:"size:16;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:idx_swipe_couple_category,priority:3,sort:desc"`
}
