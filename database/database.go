package database

import (
	"log"

	"storefront-app/config"
	"storefront-app/internal/domain/pages"
	"storefront-app/internal/domain/revisions"
	"storefront-app/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := config.DB_URL
	if dsn == "" {
		log.Fatal("❌ DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	DB = db

	if err := DB.AutoMigrate(
		&users.User{},

		// page builder
		&pages.Page{},
		&pages.Section{},
		&pages.Block{},

		// revision history
		&revisions.PageRevision{},
	); err != nil {
		log.Fatal("❌ AutoMigrate error:", err)
	}

	log.Println("✅ Connected and migrated successfully")
}
