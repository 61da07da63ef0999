package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// One row per launch attempt, successful or not
		`CREATE TABLE IF NOT EXISTS launches (
			id TEXT PRIMARY KEY,
			plugin TEXT NOT NULL,
			dir TEXT NOT NULL,
			entry_file TEXT NOT NULL,
			success INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL,
			closed_at DATETIME
		)`,

		`CREATE INDEX IF NOT EXISTS idx_launches_plugin ON launches(plugin)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
