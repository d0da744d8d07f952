package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

// InitDatabase opens the SQLite database and applies pending migrations
func InitDatabase(dbPath string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	database, err := Open(dbPath)
	if err != nil {
		return err
	}

	if err := Migrate(database); err != nil {
		database.Close()
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	DB = database
	log.Printf("Database initialized at: %s", dbPath)
	return nil
}

// Open opens and pings a SQLite database without migrating it
func Open(dbPath string) (*sql.DB, error) {
	database, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return database, nil
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
