package db

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/lesserevil/miniscope/internal/config"
)

//go:embed schema.sql
var schema string

type DB struct {
	*sql.DB
}

func Connect(cfg *config.DatabaseConfig) (*DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	return &DB{db}, nil
}

// Migrate applies the embedded schema. Every statement is idempotent so it
// runs on every startup.
func Migrate(database *DB) error {
	if _, err := database.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
