package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
)

// UpsertParticipant inserts a participant by name or returns the existing
// id — the unique-name invariant holds across re-runs against the same
// database. Results are cached for the lifetime of the store.
func (s *SQLiteStore) UpsertParticipant(ctx context.Context, name string) (int64, error) {
	id, _, err := s.upsertParticipant(ctx, name)
	return id, err
}

func (s *SQLiteStore) upsertParticipant(ctx context.Context, name string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.participants[name]; ok {
		return id, false, nil
	}

	// Insert-or-get. The conflict path is not an error: it means a prior
	// run (or file) already created the row.
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO participants (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return 0, false, fmt.Errorf("inserting participant %q: %w", name, err)
	}

	created := false
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		created = true
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM participants WHERE name = ?`, name).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("fetching participant %q: %w", name, err)
	}

	s.participants[name] = id
	return id, created, nil
}

// LoadFile commits one file's batch in a single transaction. Messages are
// inserted first, capturing each durable id keyed by the batch-local
// LinkKey; reactions and media are then linked through that lookup.
// Entries whose owner cannot be resolved are dropped and counted, never
// inserted as orphans. A failed transaction begin or commit is a
// connection-level error and aborts the run.
func (s *SQLiteStore) LoadFile(ctx context.Context, batch *FileBatch) (*FileReport, error) {
	report := &FileReport{File: batch.File}

	// Participants first, outside the batch transaction. The upsert is
	// idempotent, so a later rollback leaves nothing inconsistent.
	participantIDs := make(map[string]int64)
	resolve := func(name string) (int64, error) {
		if id, ok := participantIDs[name]; ok {
			return id, nil
		}
		id, created, err := s.upsertParticipant(ctx, name)
		if err != nil {
			return 0, err
		}
		if created {
			report.NewParticipants++
		}
		participantIDs[name] = id
		return id, nil
	}

	// Listed members go in even when they never sent or reacted; a thread
	// roster is data in its own right.
	for _, name := range batch.Participants {
		if _, err := resolve(name); err != nil {
			return nil, err
		}
	}
	for _, m := range batch.Messages {
		if _, err := resolve(m.SenderName); err != nil {
			return nil, err
		}
	}
	for _, r := range batch.Reactions {
		if _, err := resolve(r.Actor); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction for %s: %w", batch.File, err)
	}
	defer tx.Rollback()

	// Pass one: messages, capturing durable ids.
	ids := make(map[LinkKey]int64, len(batch.Messages))
	for _, m := range batch.Messages {
		var content any
		if m.HasContent {
			content = m.Content
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO messages (sender_id, timestamp_ms, content,
				is_geoblocked_for_viewer, is_unsent_image_by_messenger_kid_parent)
			 VALUES (?, ?, ?, ?, ?)`,
			participantIDs[m.SenderName], m.TimestampMs, content,
			m.Geoblocked, m.UnsentByGuardian)
		if err != nil {
			log.Printf("store: skipping message (file=%s seq=%d): %v", batch.File, m.Key.Seq, err)
			continue
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading message id: %w", err)
		}
		ids[m.Key] = id
		report.Messages++
	}

	// Pass two: reactions and media, linked through the captured ids.
	for _, r := range batch.Reactions {
		mid, ok := ids[r.Owner]
		if !ok {
			report.Orphans++
			log.Printf("store: dropping orphaned reaction (file=%s seq=%d actor=%s)", batch.File, r.Owner.Seq, r.Actor)
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO reactions (message_id, reaction, actor_id) VALUES (?, ?, ?)`,
			mid, r.Glyph, participantIDs[r.Actor])
		if err != nil {
			return nil, fmt.Errorf("inserting reaction: %w", err)
		}
		report.Reactions++
	}

	for _, m := range batch.Media {
		mid, ok := ids[m.Owner]
		if !ok {
			report.Orphans++
			log.Printf("store: dropping orphaned media (file=%s seq=%d uri=%s)", batch.File, m.Owner.Seq, m.URI)
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO media (message_id, media_uri, creation_timestamp, media_type) VALUES (?, ?, ?, ?)`,
			mid, m.URI, m.CreationTimestamp, m.Kind)
		if err != nil {
			return nil, fmt.Errorf("inserting media: %w", err)
		}
		report.Media++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing %s: %w", batch.File, err)
	}
	return report, nil
}

// ParticipantCount reports the number of participant rows.
func (s *SQLiteStore) ParticipantCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&n)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("counting participants: %w", err)
	}
	return n, nil
}
