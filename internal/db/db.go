// Package db is the sqlite store for bot bookkeeping, execution records,
// order history and table reservations.
package db

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type DB struct {
	*sql.DB
}

// Open connects to the sqlite database at dbPath. ":memory:" gives a
// throwaway database that lives as long as the process.
func Open(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection serializes writers and keeps an in-memory database
	// from being recreated per connection.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if !isMemory(dbPath) {
		if _, err := sqlDB.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("setting WAL mode: %w", err)
		}
	}

	return &DB{DB: sqlDB}, nil
}

// OpenAndMigrate opens the database and brings its schema up to date.
func OpenAndMigrate(dbPath string) (*DB, error) {
	database, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

func (db *DB) Migrate() error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// SchemaVersion reports the latest applied migration.
func (db *DB) SchemaVersion() (int64, error) {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, fmt.Errorf("setting dialect: %w", err)
	}
	v, err := goose.GetDBVersion(db.DB)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

func isMemory(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}
