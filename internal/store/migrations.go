package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Settings table - application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Style settings table - last used variant and parameters per style
		`CREATE TABLE IF NOT EXISTS style_settings (
			style TEXT PRIMARY KEY,
			variant TEXT NOT NULL DEFAULT '',
			params TEXT NOT NULL DEFAULT '{}',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Snapshots table - captured output frames
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			style TEXT NOT NULL DEFAULT '',
			variant TEXT NOT NULL DEFAULT '',
			params TEXT NOT NULL DEFAULT '{}',
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			jpeg BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
