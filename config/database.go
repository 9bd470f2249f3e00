package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/xyber-shield/api-go/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
}

func GetR2Config() *R2Config {
	return &R2Config{
		AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("CLOUDFLARE_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("CLOUDFLARE_SECRET_ACCESS_KEY"),
		BucketName:      os.Getenv("CLOUDFLARE_BUCKET_NAME"),
		Region:          "auto",
	}
}

// ConnectDatabase opens the SQLite file store, or Postgres when DATABASE_URL
// is set.
func ConnectDatabase() (*gorm.DB, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	}

	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = filepath.Join("data", "xybershield.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	return gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{TranslateError: true})
}

// Migrate ensures all tables exist. AutoMigrate is additive and idempotent, so
// running it against an existing database is safe.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.ActivityLog{},
		&models.Report{},
		&models.ReportFile{},
	)
}

func InitDB() *gorm.DB {
	db, err := ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	return db
}
