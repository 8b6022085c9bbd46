package db

import (
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedCatalog holds the demo activity catalog used by `cmd/seed` and
// development startup. Categories match the client's fixed set.
var SeedCatalog = []Activity{
	{Title: "Cook Pasta", Description: "Homemade sauce from scratch.", Category: "casa", Difficulty: "Medium", Tags: "cooking", Active: true},
	{Title: "Board Games", Description: "Play Catan or something shorter.", Category: "casa", Difficulty: "Easy", Tags: "fun", Active: true},
	{Title: "Blanket Fort", Description: "Build one, watch a movie inside.", Category: "casa", Difficulty: "Easy", Tags: "cozy", Active: true},
	{Title: "Bake Bread", Description: "One loaf, four hands.", Category: "casa", Difficulty: "Hard", Tags: "cooking,patience", Active: true},
	{Title: "Picnic in the Park", Description: "Pack a basket, find some shade.", Category: "salir", Difficulty: "Easy", Tags: "outdoors", Active: true},
	{Title: "Street Food Crawl", Description: "Five stalls, one verdict.", Category: "salir", Difficulty: "Medium", Tags: "food,walking", Active: true},
	{Title: "Sunrise Hike", Description: "Early alarm, worth it.", Category: "salir", Difficulty: "Hard", Tags: "outdoors,early", Active: true},
	{Title: "Classic Noir Night", Description: "Double bill, black and white.", Category: "peliculas", Difficulty: "Easy", Tags: "movies", Active: true},
	{Title: "Each Picks One", Description: "No vetoes allowed.", Category: "peliculas", Difficulty: "Easy", Tags: "movies,compromise", Active: true},
	{Title: "Sushi Night", Description: "Roll your own, judge gently.", Category: "comidas", Difficulty: "Medium", Tags: "cooking,japanese", Active: true},
	{Title: "Blind Taste Test", Description: "Three snacks, blindfold, scorecard.", Category: "comidas", Difficulty: "Easy", Tags: "fun,food", Active: true},
	{Title: "Massage", Description: "Relaxing oil massage.", Category: "hot", Difficulty: "Easy", Tags: "intimate", Active: true},
	{Title: "Candlelit Evening", Description: "Phones in a drawer.", Category: "hot", Difficulty: "Easy", Tags: "intimate", Active: true},
}

// SeedTestData resets the database and populates it with demo users, one
// paired couple, and the activity catalog.
//
// Behavior:
//  1. Clears feed state, decks, swipes, couples, users, activities.
//  2. Creates 6 users with hashed passwords; user1+user2 are paired, user6
//     is an admin.
//  3. Inserts the full SeedCatalog.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset skipped for SQLite).
func SeedTestData(db *gorm.DB) error {
	tables := []string{"swipe_records", "deck_items", "feed_states", "couple_members", "couples", "activities", "users"}
	for _, tbl := range tables {
		if err := db.Exec("DELETE FROM " + tbl).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", tbl, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		for _, tbl := range tables {
			db.Exec("ALTER TABLE " + tbl + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		for _, tbl := range tables {
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", tbl)
		}
	}

	log.Println("Cleared existing data")

	// --- Seed Users ---
	for i := 1; i <= 6; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user := User{
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Active:       true,
		}
		if i == 6 {
			user.Role = "admin"
		} else {
			user.Role = "user"
		}
		if i == 3 {
			user.Premium = true
		}

		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 6 users.")

	// --- Seed a paired couple (user1 + user2) ---
	user2 := uint64(2)
	couple := Couple{User1ID: 1, User2ID: &user2, InviteCode: "SEEDED"}
	if err := db.Create(&couple).Error; err != nil {
		return fmt.Errorf("failed to seed couple: %w", err)
	}
	members := []CoupleMember{
		{UserID: 1, CoupleID: couple.ID},
		{UserID: 2, CoupleID: couple.ID},
	}
	if err := db.Create(&members).Error; err != nil {
		return fmt.Errorf("failed to seed couple members: %w", err)
	}

	// --- Seed Activities ---
	catalog := make([]Activity, len(SeedCatalog))
	copy(catalog, SeedCatalog)
	if err := db.Create(&catalog).Error; err != nil {
		return fmt.Errorf("failed to seed activities: %w", err)
	}
	log.Printf("Seeded %d activities.", len(catalog))

	return nil
}
