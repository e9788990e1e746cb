package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Scans table - one row per processed frame
		`CREATE TABLE IF NOT EXISTS scans (
			id TEXT PRIMARY KEY,
			side TEXT NOT NULL CHECK(side IN ('front', 'back')),
			detected INTEGER NOT NULL DEFAULT 0,
			confidence REAL NOT NULL DEFAULT 0,
			glare_score REAL NOT NULL DEFAULT 0,
			blur_score REAL NOT NULL DEFAULT 0,
			mrz_score INTEGER NOT NULL DEFAULT 0,
			tckn TEXT NOT NULL DEFAULT '',
			tckn_valid INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Scan fields table - recognized text per card region
		`CREATE TABLE IF NOT EXISTS scan_fields (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
			field TEXT NOT NULL,
			text TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_scan_fields_scan_id ON scan_fields(scan_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
