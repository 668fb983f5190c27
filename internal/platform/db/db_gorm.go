// Package db はPostgreSQLへのGORM接続を提供します。
package db

import (
	"fmt"
	"log"
	"os"
	"time"

	gpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	enrichedentity "enrichment_backend/internal/feature/enrichment/domain/entity"
	listingentity "enrichment_backend/internal/feature/symbollist/domain/entity"
)

// Config holds the database connection parameters.
type Config struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     string
	SSLMode  string
}

// ConfigFromEnv reads the connection parameters from environment variables.
func ConfigFromEnv() Config {
	return Config{
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	}
}

// BuildDSN constructs a PostgreSQL DSN from the config.
// SSLMode falls back to "disable" when unset (local development default).
func BuildDSN(cfg Config) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslmode)
}

// Opener abstracts gorm.Open for testability.
type Opener func(dsn string) (*gorm.DB, error)

// ConnectWithRetry は接続に成功するまでリトライします。
// タイムアウトを超えた場合は最後のエラーを返します。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %v: %w", timeout, err)
		}
		log.Printf("DB connect failed, retrying...: %v", err)
		time.Sleep(3 * time.Second)
	}
}

// OpenDB opens the PostgreSQL connection using environment configuration and
// runs migrations when RUN_MIGRATIONS=true. TranslateError is enabled because
// the version store's upsert relies on gorm.ErrDuplicatedKey to detect
// concurrent writers colliding on the (symbol, version) unique constraint.
func OpenDB() *gorm.DB {
	dsn := BuildDSN(ConfigFromEnv())

	opener := func(dsn string) (*gorm.DB, error) {
		return gorm.Open(gpostgres.Open(dsn), &gorm.Config{TranslateError: true})
	}

	db, err := ConnectWithRetry(dsn, 60*time.Second, opener)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if os.Getenv("RUN_MIGRATIONS") == "true" {
		// マイグレーション（EnrichedData, Listing）
		if err := db.AutoMigrate(
			&enrichedentity.EnrichedData{},
			&listingentity.Listing{},
		); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	return db
}
