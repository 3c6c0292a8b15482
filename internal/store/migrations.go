package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Models table - trained classifier snapshots
		`CREATE TABLE IF NOT EXISTS models (
			id TEXT PRIMARY KEY,
			labels TEXT NOT NULL DEFAULT '[]',
			data TEXT NOT NULL,
			train_size INTEGER NOT NULL DEFAULT 0,
			test_size INTEGER NOT NULL DEFAULT 0,
			accuracy REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Model samples table - the training examples a model was built from
		`CREATE TABLE IF NOT EXISTS model_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			model_id TEXT NOT NULL REFERENCES models(id) ON DELETE CASCADE,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL
		)`,

		// Rounds table - finished games
		`CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ended_at DATETIME NOT NULL,
			spawned INTEGER NOT NULL DEFAULT 0,
			cleared INTEGER NOT NULL DEFAULT 0,
			missed INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_model_samples_model_id ON model_samples(model_id)`,
		`CREATE INDEX IF NOT EXISTS idx_models_created_at ON models(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_ended_at ON rounds(ended_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
