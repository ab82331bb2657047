package migrations

var buildHistory = Migration{
	Version:     1,
	Description: "Add build_runs and build_stage_runs tables",
	Statements: []string{
		`CREATE TABLE build_runs (
			id TEXT PRIMARY KEY,
			project TEXT NOT NULL,
			branch TEXT NOT NULL,
			variant TEXT NOT NULL DEFAULT '',
			release BOOLEAN NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'running',
			current_stage TEXT DEFAULT '',
			error_stage TEXT DEFAULT '',
			error_message TEXT DEFAULT '',
			archive_name TEXT DEFAULT '',
			archive_checksum TEXT DEFAULT '',
			archive_size INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME
		)`,
		`CREATE TABLE build_stage_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'running',
			started_at DATETIME,
			completed_at DATETIME,
			duration_ms INTEGER DEFAULT 0,
			error_message TEXT DEFAULT '',
			FOREIGN KEY (run_id) REFERENCES build_runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX idx_build_runs_project ON build_runs(project)`,
		`CREATE INDEX idx_build_runs_status ON build_runs(status)`,
		`CREATE INDEX idx_build_stage_runs_run ON build_stage_runs(run_id)`,
	},
}
