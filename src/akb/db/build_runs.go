package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BuildRunRepository handles build history operations
type BuildRunRepository struct {
	db *Database
}

// NewBuildRunRepository creates a new build run repository
func NewBuildRunRepository(db *Database) *BuildRunRepository {
	return &BuildRunRepository{db: db}
}

// Create inserts a new build run
func (r *BuildRunRepository) Create(run *BuildRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Status == "" {
		run.Status = BuildStatusRunning
	}
	run.CreatedAt = time.Now()

	query := `
		INSERT INTO build_runs (id, project, branch, variant, release, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.DB().Exec(query,
		run.ID, run.Project, run.Branch, run.Variant, run.Release, run.Status, run.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create build run: %w", err)
	}
	return nil
}

const selectBuildRunsQuery = `
	SELECT id, project, branch, variant, release, status, current_stage,
		error_stage, error_message, archive_name, archive_checksum, archive_size,
		storage_key, release_tag, release_url, created_at, completed_at
	FROM build_runs
`

// GetByID retrieves a build run by ID
func (r *BuildRunRepository) GetByID(id string) (*BuildRun, error) {
	row := r.db.DB().QueryRow(selectBuildRunsQuery+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("build run not found: %s", id)
	}
	return run, err
}

// List returns the most recent build runs, newest first.
// A non-positive limit returns every run.
func (r *BuildRunRepository) List(limit int) ([]BuildRun, error) {
	query := selectBuildRunsQuery + ` ORDER BY created_at DESC, rowid DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.DB().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list build runs: %w", err)
	}
	defer rows.Close()

	var runs []BuildRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*BuildRun, error) {
	var run BuildRun
	var currentStage, errorStage, errorMsg, archiveName, checksum sql.NullString
	var storageKey, releaseTag, releaseURL sql.NullString
	var size sql.NullInt64
	var completedAt sql.NullTime

	if err := s.Scan(
		&run.ID, &run.Project, &run.Branch, &run.Variant, &run.Release, &run.Status, &currentStage,
		&errorStage, &errorMsg, &archiveName, &checksum, &size,
		&storageKey, &releaseTag, &releaseURL, &run.CreatedAt, &completedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan build run: %w", err)
	}

	run.CurrentStage = currentStage.String
	run.ErrorStage = errorStage.String
	run.ErrorMessage = errorMsg.String
	run.ArchiveName = archiveName.String
	run.ArchiveChecksum = checksum.String
	run.ArchiveSize = size.Int64
	run.StorageKey = storageKey.String
	run.ReleaseTag = releaseTag.String
	run.ReleaseURL = releaseURL.String
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}

func (r *BuildRunRepository) execOne(query, what, id string, args ...interface{}) error {
	result, err := r.db.DB().Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("build run not found: %s", id)
	}
	return nil
}

// MarkStageStarted records a stage as running and makes it the current stage
func (r *BuildRunRepository) MarkStageStarted(runID, stage string) error {
	if err := r.execOne(`UPDATE build_runs SET current_stage = ? WHERE id = ?`,
		"update current stage", runID, stage, runID); err != nil {
		return err
	}

	_, err := r.db.DB().Exec(
		`INSERT INTO build_stage_runs (run_id, name, status, started_at) VALUES (?, ?, ?, ?)`,
		runID, stage, BuildStatusRunning, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create stage run: %w", err)
	}
	return nil
}

// MarkStageCompleted marks a stage as completed
func (r *BuildRunRepository) MarkStageCompleted(runID, stage string, durationMs int64) error {
	query := `
		UPDATE build_stage_runs
		SET status = ?, completed_at = ?, duration_ms = ?
		WHERE run_id = ? AND name = ?
	`
	if _, err := r.db.DB().Exec(query, BuildStatusCompleted, time.Now(), durationMs, runID, stage); err != nil {
		return fmt.Errorf("failed to mark stage completed: %w", err)
	}
	return nil
}

// MarkStageFailed marks a stage as failed
func (r *BuildRunRepository) MarkStageFailed(runID, stage, errMsg string) error {
	query := `
		UPDATE build_stage_runs
		SET status = ?, completed_at = ?, error_message = ?
		WHERE run_id = ? AND name = ?
	`
	if _, err := r.db.DB().Exec(query, BuildStatusFailed, time.Now(), errMsg, runID, stage); err != nil {
		return fmt.Errorf("failed to mark stage failed: %w", err)
	}
	return nil
}

// MarkCompleted marks a build run as completed with its outputs
func (r *BuildRunRepository) MarkCompleted(runID string, res RunResult) error {
	query := `
		UPDATE build_runs
		SET status = ?, completed_at = ?, archive_name = ?, archive_checksum = ?,
			archive_size = ?, storage_key = ?, release_tag = ?, release_url = ?, error_message = ''
		WHERE id = ?
	`
	return r.execOne(query, "mark build completed", runID,
		BuildStatusCompleted, time.Now(), res.ArchiveName, res.ArchiveChecksum,
		res.ArchiveSize, res.StorageKey, res.ReleaseTag, res.ReleaseURL, runID,
	)
}

// MarkFailed marks a build run as failed at the given stage
func (r *BuildRunRepository) MarkFailed(runID, stage, errMsg string) error {
	query := `
		UPDATE build_runs
		SET status = ?, completed_at = ?, error_stage = ?, error_message = ?
		WHERE id = ?
	`
	return r.execOne(query, "mark build failed", runID,
		BuildStatusFailed, time.Now(), stage, errMsg, runID,
	)
}

// GetStages returns the stages of a run in execution order
func (r *BuildRunRepository) GetStages(runID string) ([]StageRun, error) {
	rows, err := r.db.DB().Query(`
		SELECT id, run_id, name, status, started_at, completed_at, duration_ms, error_message
		FROM build_stage_runs
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage runs: %w", err)
	}
	defer rows.Close()

	var stages []StageRun
	for rows.Next() {
		var s StageRun
		var startedAt, completedAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&s.ID, &s.RunID, &s.Name, &s.Status, &startedAt, &completedAt, &s.DurationMs, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan stage run: %w", err)
		}
		if startedAt.Valid {
			s.StartedAt = &startedAt.Time
		}
		if completedAt.Valid {
			s.CompletedAt = &completedAt.Time
		}
		s.ErrorMessage = errMsg.String
		stages = append(stages, s)
	}
	return stages, rows.Err()
}
