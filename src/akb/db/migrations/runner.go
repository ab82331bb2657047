// Package migrations versions the build history schema. The applied
// version lives in sqlite's user_version pragma.
package migrations

import (
	"database/sql"
	"fmt"

	"github.com/bitswalk/akb/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the migrations package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Migration is one schema step. Version N moves user_version from N-1 to N.
type Migration struct {
	Version     int
	Description string
	Statements  []string
}

// All returns the known migrations in version order
func All() []Migration {
	return []Migration{
		buildHistory,
		releaseColumns,
	}
}

// Runner applies pending migrations
type Runner struct {
	db         *sql.DB
	migrations []Migration
}

// NewRunner creates a runner for All
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db, migrations: All()}
}

// CurrentVersion returns the schema version stored in the database
func (r *Runner) CurrentVersion() (int, error) {
	var v int
	if err := r.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// Latest returns the version the runner migrates to
func (r *Runner) Latest() int {
	if len(r.migrations) == 0 {
		return 0
	}
	return r.migrations[len(r.migrations)-1].Version
}

// Run applies every migration above the current version, each in its own
// transaction. A database newer than the runner is an error.
func (r *Runner) Run() error {
	for i, m := range r.migrations {
		if m.Version != i+1 {
			return fmt.Errorf("migration %q has version %d, expected %d", m.Description, m.Version, i+1)
		}
	}

	current, err := r.CurrentVersion()
	if err != nil {
		return err
	}
	if current > r.Latest() {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, r.Latest())
	}

	for _, m := range r.migrations[current:] {
		if err := r.apply(m); err != nil {
			log.Error("Migration failed", "version", m.Version, "description", m.Description, "error", err)
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
	}
	return nil
}

func (r *Runner) apply(m Migration) error {
	log.Debug("Applying migration", "version", m.Version, "description", m.Description)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range m.Statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	// PRAGMA does not accept bound parameters
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}
