package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tandemapp/tandem-server/internal/config"
)

// NewDB initializes the database connection using DSN from config.
//
// TranslateError is on so repository code can branch on
// gorm.ErrDuplicatedKey regardless of driver (MySQL in prod, SQLite in
// tests); the deck generator's one-winner guarantee depends on it.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DB.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate ensures the schema is in sync with the models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Couple{},
		&CoupleMember{},
		&Activity{},
		&FeedState{},
		&DeckItem{},
		&SwipeRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
