package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase opens the database named by databaseURL and brings its schema up
// to date. Postgres urls use the postgres driver, anything else is treated as
// a sqlite file path.
func NewDatabase(databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	isSqlite := false
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		log.Println("Connecting to postgres database...")
		dialector = postgres.Open(databaseURL)
	} else {
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path != ":memory:" && !strings.HasPrefix(path, "file:") {
			if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
				return nil, fmt.Errorf("unable to create database directory: %w", err)
			}
		}
		log.Printf("Opening sqlite database %s", path)
		dialector = sqlite.Open(path)
		isSqlite = true
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if isSqlite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("unable to access sqlite connection pool: %w", err)
		}
		// sqlite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := GetMigrator(db).Migrate(); err != nil {
		return nil, fmt.Errorf("unable to migrate database: %w", err)
	}

	return db, nil
}
