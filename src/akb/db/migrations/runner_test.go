package migrations

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunner_RunIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	r := NewRunner(db)
	if err := r.Run(); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}
	if err := r.Run(); err != nil {
		t.Fatalf("second Run() error: %v", err)
	}

	v, err := r.CurrentVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 || r.Latest() != 2 {
		t.Errorf("CurrentVersion() = %d, Latest() = %d; want 2", v, r.Latest())
	}

	if _, err := db.Exec(`INSERT INTO build_runs (id, project, branch, release_tag) VALUES ('a', 'p', 'b', 't')`); err != nil {
		t.Errorf("schema missing columns: %v", err)
	}
}

func TestRunner_UpgradesFromVersionOne(t *testing.T) {
	db := openTestDB(t)

	r := &Runner{db: db, migrations: All()[:1]}
	if err := r.Run(); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO build_runs (id, project, branch) VALUES ('old', 'p', 'b')`); err != nil {
		t.Fatal(err)
	}

	if err := NewRunner(db).Run(); err != nil {
		t.Fatalf("upgrade error: %v", err)
	}
	var tag string
	if err := db.QueryRow(`SELECT release_tag FROM build_runs WHERE id = 'old'`).Scan(&tag); err != nil {
		t.Fatalf("existing row lost: %v", err)
	}
	if tag != "" {
		t.Errorf("release_tag = %q, want empty default", tag)
	}
}

func TestRunner_FailedMigrationRollsBack(t *testing.T) {
	db := openTestDB(t)

	r := &Runner{db: db, migrations: []Migration{
		buildHistory,
		{Version: 2, Description: "broken", Statements: []string{
			`CREATE TABLE extra (id INTEGER)`,
			`NOT VALID SQL`,
		}},
	}}
	err := r.Run()
	if err == nil || !strings.Contains(err.Error(), "migration 2 (broken)") {
		t.Fatalf("Run() error = %v", err)
	}

	v, _ := r.CurrentVersion()
	if v != 1 {
		t.Errorf("CurrentVersion() = %d, want 1", v)
	}
	if _, err := db.Exec(`INSERT INTO extra (id) VALUES (1)`); err == nil {
		t.Error("partial migration was committed")
	}
}

func TestRunner_RejectsNewerDatabase(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Exec(`PRAGMA user_version = 9`); err != nil {
		t.Fatal(err)
	}
	if err := NewRunner(db).Run(); err == nil {
		t.Error("expected error for a newer schema")
	}
}

func TestRunner_RejectsGaps(t *testing.T) {
	r := &Runner{db: openTestDB(t), migrations: []Migration{buildHistory, {Version: 3, Description: "gap"}}}
	if err := r.Run(); err == nil {
		t.Error("expected error for non-contiguous versions")
	}
}
