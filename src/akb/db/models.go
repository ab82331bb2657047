package db

import "time"

// BuildStatus represents the state of a build run or stage
type BuildStatus string

const (
	BuildStatusRunning   BuildStatus = "running"
	BuildStatusCompleted BuildStatus = "completed"
	BuildStatusFailed    BuildStatus = "failed"
)

// BuildRun is one pipeline invocation
type BuildRun struct {
	ID              string      `json:"id" yaml:"id"`
	Project         string      `json:"project" yaml:"project"`
	Branch          string      `json:"branch" yaml:"branch"`
	Variant         string      `json:"variant" yaml:"variant"`
	Release         bool        `json:"release" yaml:"release"`
	Status          BuildStatus `json:"status" yaml:"status"`
	CurrentStage    string      `json:"current_stage,omitempty" yaml:"current_stage,omitempty"`
	ErrorStage      string      `json:"error_stage,omitempty" yaml:"error_stage,omitempty"`
	ErrorMessage    string      `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	ArchiveName     string      `json:"archive_name,omitempty" yaml:"archive_name,omitempty"`
	ArchiveChecksum string      `json:"archive_checksum,omitempty" yaml:"archive_checksum,omitempty"`
	ArchiveSize     int64       `json:"archive_size,omitempty" yaml:"archive_size,omitempty"`
	StorageKey      string      `json:"storage_key,omitempty" yaml:"storage_key,omitempty"`
	ReleaseTag      string      `json:"release_tag,omitempty" yaml:"release_tag,omitempty"`
	ReleaseURL      string      `json:"release_url,omitempty" yaml:"release_url,omitempty"`
	CreatedAt       time.Time   `json:"created_at" yaml:"created_at"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// StageRun is one stage execution inside a build run
type StageRun struct {
	ID           int64       `json:"id" yaml:"id"`
	RunID        string      `json:"run_id" yaml:"run_id"`
	Name         string      `json:"name" yaml:"name"`
	Status       BuildStatus `json:"status" yaml:"status"`
	StartedAt    *time.Time  `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	DurationMs   int64       `json:"duration_ms" yaml:"duration_ms"`
	ErrorMessage string      `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// RunResult holds what a successful run produced
type RunResult struct {
	ArchiveName     string
	ArchiveChecksum string
	ArchiveSize     int64
	StorageKey      string
	ReleaseTag      string
	ReleaseURL      string
}
