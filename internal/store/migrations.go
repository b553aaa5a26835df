package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Rounds table - one row per committed throw
		`CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			player TEXT NOT NULL CHECK(player IN ('rock', 'paper', 'scissors')),
			opponent TEXT NOT NULL CHECK(opponent IN ('rock', 'paper', 'scissors')),
			outcome TEXT NOT NULL CHECK(outcome IN ('win', 'lose', 'draw')),
			tips INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_rounds_created_at ON rounds(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
