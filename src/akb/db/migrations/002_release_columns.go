package migrations

var releaseColumns = Migration{
	Version:     2,
	Description: "Record release tag, release URL and storage key on build runs",
	Statements: []string{
		`ALTER TABLE build_runs ADD COLUMN release_tag TEXT DEFAULT ''`,
		`ALTER TABLE build_runs ADD COLUMN release_url TEXT DEFAULT ''`,
		`ALTER TABLE build_runs ADD COLUMN storage_key TEXT DEFAULT ''`,
	},
}
