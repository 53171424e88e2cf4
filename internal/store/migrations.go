package store

func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per reported plate reading.
		`CREATE TABLE IF NOT EXISTS detections (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			normalized TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			watchlisted INTEGER NOT NULL DEFAULT 0,
			snapshot BLOB,
			detected_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS watchlist (
			id TEXT PRIMARY KEY,
			plate TEXT NOT NULL UNIQUE,
			label TEXT NOT NULL DEFAULT '',
			max_distance INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_detections_detected_at ON detections(detected_at)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_normalized ON detections(normalized)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
