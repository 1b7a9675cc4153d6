package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Gesture templates - user-trained dynamic gestures
		`CREATE TABLE IF NOT EXISTS gesture_templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			gesture TEXT NOT NULL,
			signal TEXT NOT NULL CHECK(signal IN ('hand_right', 'hand_left', 'hand_spread')),
			tolerance REAL NOT NULL DEFAULT 0.2,
			min_extent REAL NOT NULL DEFAULT 0,
			samples INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Template paths - reference path of each template
		`CREATE TABLE IF NOT EXISTS template_paths (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			template_id TEXT NOT NULL REFERENCES gesture_templates(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			timestamp_ms INTEGER NOT NULL
		)`,

		// Template samples - raw recorded samples for training
		`CREATE TABLE IF NOT EXISTS template_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			template_id TEXT NOT NULL REFERENCES gesture_templates(id) ON DELETE CASCADE,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Recognitions - log of every recognized gesture
		`CREATE TABLE IF NOT EXISTS recognitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gesture TEXT NOT NULL,
			score REAL NOT NULL,
			tracking_id INTEGER NOT NULL DEFAULT 0,
			published INTEGER NOT NULL DEFAULT 0,
			recognized_at DATETIME NOT NULL
		)`,

		// Settings - application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_template_paths_template_id ON template_paths(template_id)`,
		`CREATE INDEX IF NOT EXISTS idx_template_samples_template_id ON template_samples(template_id)`,
		`CREATE INDEX IF NOT EXISTS idx_recognitions_recognized_at ON recognitions(recognized_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
