// Package db provides the sqlite build history for akb.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bitswalk/akb/src/akb/db/migrations"
	"github.com/bitswalk/akb/src/common/paths"
)

// Database wraps the SQLite connection
type Database struct {
	db   *sql.DB
	path string
}

// Config holds the database configuration
type Config struct {
	// Path is the database file; "~" and environment variables are expanded
	Path string
}

// DefaultConfig returns the default database configuration
func DefaultConfig() Config {
	return Config{Path: "~/.akb/history.db"}
}

// New opens (creating if needed) the history database and migrates it
func New(cfg Config) (*Database, error) {
	path := paths.Expand(cfg.Path)
	if path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if err := paths.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := migrations.NewRunner(db).Run(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Database{db: db, path: path}, nil
}

// DB returns the underlying sql.DB
func (d *Database) DB() *sql.DB {
	return d.db
}

// Path returns the database file path
func (d *Database) Path() string {
	return d.path
}

// Close closes the database
func (d *Database) Close() error {
	return d.db.Close()
}
