// Package store provides the SQLite persistence layer for threadkeep.
//
// The normalized chat dataset lives in a single SQLite database file:
// participants, messages, reactions, and media attachments as separate
// tables, with reactions and media referencing the durable message id that
// only exists once the message row is inserted. The loader links them in
// two passes inside one transaction per source file.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.threadkeep/threadkeep.db"

// LinkKey identifies a message within one batch before it has a durable id:
// the source file's index in the run and the message's sequence number
// within that file. Reactions and media reference their owner through it.
type LinkKey struct {
	File int
	Seq  int
}

// Message is one chat event ready for insertion. Content has already been
// normalized upstream; HasContent distinguishes a cleared content field
// from one that was never present.
type Message struct {
	ID          int64
	Key         LinkKey
	SenderName  string
	TimestampMs int64
	Content     string
	HasContent  bool

	Geoblocked       bool
	UnsentByGuardian bool
}

// Reaction is an emoji reaction awaiting linkage to its owning message.
type Reaction struct {
	Owner LinkKey
	Glyph string
	Actor string
}

// Media is a photo/video/audio attachment awaiting linkage.
type Media struct {
	Owner             LinkKey
	URI               string
	CreationTimestamp int64
	Kind              string // "photo", "video", "audio"
}

// FileBatch holds the extracted records of one source file. Each batch is
// committed in its own transaction.
type FileBatch struct {
	File string
	// Participants lists every member named by the file, including ones
	// with no messages or reactions of their own.
	Participants []string
	Messages     []Message
	Reactions    []Reaction
	Media        []Media
}

// FileReport summarizes loading one file.
type FileReport struct {
	File            string
	NewParticipants int
	Messages        int
	Reactions       int
	Media           int
	Orphans         int
}

// MessageRow is a denormalized read-side row for dashboard consumers.
type MessageRow struct {
	ID          int64
	Sender      string
	Content     string
	HasContent  bool
	TimestampMs int64
}

// ReactionRow is a denormalized reaction with actor and owning message.
type ReactionRow struct {
	MessageID int64
	Glyph     string
	Actor     string
}

// Stats holds row counts for observability.
type Stats struct {
	Participants int64
	Messages     int64
	Reactions    int64
	Media        int64
	DBSizeBytes  int64
}

// Config holds configuration for New.
type Config struct {
	DBPath string
}

// Store is the persistence interface the pipeline loads into and the
// read side queries against.
type Store interface {
	// Loading
	UpsertParticipant(ctx context.Context, name string) (int64, error)
	LoadFile(ctx context.Context, batch *FileBatch) (*FileReport, error)

	// Read side
	ParticipantCount(ctx context.Context) (int64, error)
	MessagesBetween(ctx context.Context, fromMs, toMs int64) ([]MessageRow, error)
	ReactionsWithActors(ctx context.Context) ([]ReactionRow, error)
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string

	// name → durable id, shared across files in a run. Single-writer
	// discipline: all mutation goes through UpsertParticipant.
	mu           sync.Mutex
	participants map[string]int64
}

// New opens (creating if needed) a SQLite-backed Store and runs migrations.
// Pass ":memory:" for in-memory databases (testing). An unreachable or
// unusable database is a fatal error here: loading without a store is
// meaningless.
func New(cfg Config) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{
		db:           db,
		dbPath:       cfg.DBPath,
		participants: make(map[string]int64),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
