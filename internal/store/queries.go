package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// MessagesBetween returns denormalized message rows whose timestamp falls
// in [fromMs, toMs), ordered by timestamp. This is the range query the
// dashboard consumers depend on; rows are guaranteed free of double-encoded
// text because everything was normalized before loading.
func (s *SQLiteStore) MessagesBetween(ctx context.Context, fromMs, toMs int64) ([]MessageRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, p.name, m.content, m.timestamp_ms
		 FROM messages m
		 JOIN participants p ON p.id = m.sender_id
		 WHERE m.timestamp_ms >= ? AND m.timestamp_ms < ?
		 ORDER BY m.timestamp_ms`, fromMs, toMs)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var out []MessageRow
	for rows.Next() {
		var r MessageRow
		var content sql.NullString
		if err := rows.Scan(&r.ID, &r.Sender, &content, &r.TimestampMs); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		r.Content = content.String
		r.HasContent = content.Valid
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReactionsWithActors returns all reactions joined with their actor names.
// Every row references an existing message: orphans were dropped at load.
func (s *SQLiteStore) ReactionsWithActors(ctx context.Context) ([]ReactionRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.message_id, r.reaction, p.name
		 FROM reactions r
		 JOIN participants p ON p.id = r.actor_id
		 ORDER BY r.message_id, r.id`)
	if err != nil {
		return nil, fmt.Errorf("querying reactions: %w", err)
	}
	defer rows.Close()

	var out []ReactionRow
	for rows.Next() {
		var r ReactionRow
		if err := rows.Scan(&r.MessageID, &r.Glyph, &r.Actor); err != nil {
			return nil, fmt.Errorf("scanning reaction row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats returns row counts and the database file size.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	counts := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM participants`, &st.Participants},
		{`SELECT COUNT(*) FROM messages`, &st.Messages},
		{`SELECT COUNT(*) FROM reactions`, &st.Reactions},
		{`SELECT COUNT(*) FROM media`, &st.Media},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("collecting stats: %w", err)
		}
	}

	if s.dbPath != ":memory:" {
		if info, err := os.Stat(s.dbPath); err == nil {
			st.DBSizeBytes = info.Size()
		}
	}
	return st, nil
}
