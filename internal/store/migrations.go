package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Runs table - one row per batch invocation
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			manifest TEXT NOT NULL,
			augment_count INTEGER NOT NULL DEFAULT 0,
			entries INTEGER NOT NULL DEFAULT 0,
			tables INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			finished_at DATETIME
		)`,

		// Landmark tables - one row per written .npy file; variant -1 is the unaugmented video
		`CREATE TABLE IF NOT EXISTS landmark_tables (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			gloss TEXT NOT NULL,
			source_file TEXT NOT NULL,
			variant INTEGER NOT NULL CHECK(variant >= -1),
			path TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_landmark_tables_run_id ON landmark_tables(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_landmark_tables_gloss ON landmark_tables(gloss)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
