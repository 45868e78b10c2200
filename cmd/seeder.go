package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open gorm connection: %v", err)
		}

		if clearData {
			for _, table := range []string{"grant_audits", "override_tokens", "redeemed_codes", "entitlements", "promo_code_courses", "promo_codes", "favorites", "videos", "courses", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUser(db, "rani@mail.com", "Rani", string(hash), false)
		seedUser(db, "admin@mail.com", "Admin", string(hash), true)

		courses := []struct {
			Title    string
			Category string
		}{
			{"Intro to Go", "programming"},
			{"Advanced SQL", "databases"},
			{"Web Security Basics", "security"},
		}
		for _, c := range courses {
			var exists int
			row := db.Raw("SELECT 1 FROM courses WHERE title = ?", c.Title).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO courses (title, description, category, is_published, created_at, updated_at) VALUES (?, ?, ?, true, now(), now())",
				c.Title, "Sample course: "+c.Title, c.Category).Error; err != nil {
				log.Fatalf("failed to insert course %q: %v", c.Title, err)
			}
			fmt.Println("Seeded course:", c.Title)
		}

		seedPromo(db, "WELCOME2026", 100, time.Now().AddDate(0, 1, 0))
	},
}

func seedUser(db *gorm.DB, email, name, hash string, isAdmin bool) {
	var exists int
	row := db.Raw("SELECT 1 FROM users WHERE email = ?", email).Row()
	if err := row.Scan(&exists); err == nil {
		fmt.Println("user already exists:", email)
		return
	}

	if err := db.Exec("INSERT INTO users (email, name, password_hash, is_admin, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
		email, name, hash, isAdmin).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	fmt.Println("Seeded user:", email)
}

func seedPromo(db *gorm.DB, code string, maxUses int64, expiresAt time.Time) {
	var exists int
	row := db.Raw("SELECT 1 FROM promo_codes WHERE code = ?", code).Row()
	if err := row.Scan(&exists); err == nil {
		fmt.Println("promo code already exists:", code)
		return
	}

	if err := db.Exec("INSERT INTO promo_codes (code, expires_at, max_uses, uses, is_active, one_shot, created_at, updated_at) VALUES (?, ?, ?, 0, true, false, now(), now())",
		code, expiresAt, maxUses).Error; err != nil {
		log.Fatalf("failed to insert promo code: %v", err)
	}

	// bind the code to every seeded course
	if err := db.Exec(`INSERT INTO promo_code_courses (promo_code_id, course_id)
		SELECT pc.id, c.id FROM promo_codes pc CROSS JOIN courses c WHERE pc.code = ?`, code).Error; err != nil {
		log.Fatalf("failed to bind promo code courses: %v", err)
	}
	fmt.Println("Seeded promo code:", code)
}
