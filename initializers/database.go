package initializers

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/avand/docportal-backend/models"
)

var DB *gorm.DB

func ConnectToDatabase() {
	if os.Getenv("RENDER") == "" {
		if err := godotenv.Load(); err != nil {
			log.Warn("no .env file found, using system environment variables")
		}
	}
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatal("DB_URL is not set in environment variables")
	}
	var err error

	DB, err = gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to the database", "err", err)
	}

	if err := DB.AutoMigrate(
		&models.User{},
		&models.Option{},
		&models.Folder{},
		&models.Document{},
		&models.Attachment{},
	); err != nil {
		log.Fatal("failed to migrate database schema", "err", err)
	}
	log.Info("database connected and migrated")
}
