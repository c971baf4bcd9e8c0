package store

import "fmt"

// migrate creates the schema if it does not exist. Every statement is
// idempotent, so re-running against an existing database is a no-op.
func (s *SQLiteStore) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS participants (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id                                      INTEGER PRIMARY KEY AUTOINCREMENT,
			sender_id                               INTEGER NOT NULL REFERENCES participants(id),
			timestamp_ms                            INTEGER NOT NULL,
			content                                 TEXT,
			is_geoblocked_for_viewer                INTEGER NOT NULL DEFAULT 0,
			is_unsent_image_by_messenger_kid_parent INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS reactions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id INTEGER NOT NULL REFERENCES messages(id),
			reaction   TEXT NOT NULL,
			actor_id   INTEGER NOT NULL REFERENCES participants(id)
		)`,

		`CREATE TABLE IF NOT EXISTS media (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id         INTEGER NOT NULL REFERENCES messages(id),
			media_uri          TEXT NOT NULL,
			creation_timestamp INTEGER,
			media_type         TEXT NOT NULL DEFAULT 'photo'
		)`,

		// Range-query indexes for the dashboard read side.
		`CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages (timestamp_ms)`,
		`CREATE INDEX IF NOT EXISTS idx_reactions_message_id ON reactions (message_id)`,
		`CREATE INDEX IF NOT EXISTS idx_media_message_id ON media (message_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}
