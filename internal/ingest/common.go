// Package ingest is the batch pipeline that turns raw chat-export files
// into a clean, linked dataset.
//
// Each file flows through the same stages: parse (archive), extract records
// with normalized text (normalize), resolve participant identities, then
// either load into the store file-by-file or consolidate into one
// interchange document. Per-file failures are recovered and aggregated;
// only a persistence connection failure aborts a run.
package ingest

import (
	"encoding/json"

	"github.com/threadkeep/threadkeep/internal/store"
)

// Metadata holds the conversation-level fields of an export document.
// Across files these merge last-write-wins, except MagicWords which append.
type Metadata struct {
	Title              string
	ThreadPath         string
	IsStillParticipant *bool
	MagicWords         []string
	Image              json.RawMessage
	JoinableMode       json.RawMessage
}

// ExtractionResult holds everything extracted from one export document.
// Records in Batch carry batch-local link keys; durable ids are assigned
// at load time.
type ExtractionResult struct {
	File   string
	FileID int
	Batch  store.FileBatch
	Meta   Metadata

	UnknownSenders     int // messages missing a sender name
	BoilerplateCleared int // messages whose content was reply-context noise
}

// Options configures a pipeline run.
type Options struct {
	DryRun     bool
	ProgressFn func(current, total int, file string)
}

// FileError records a recovered per-file failure.
type FileError struct {
	File    string
	Kind    string // "not_found", "parse", "load"
	Message string
}

// Result summarizes a pipeline run across all files.
type Result struct {
	RunID string

	FilesScanned int
	FilesLoaded  int
	FilesSkipped int

	NewParticipants int
	Messages        int
	Reactions       int
	Media           int
	Orphans         int

	UnknownSenders     int
	BoilerplateCleared int

	Errors []FileError
}

// Add merges another Result into this one.
func (r *Result) Add(other *Result) {
	r.FilesScanned += other.FilesScanned
	r.FilesLoaded += other.FilesLoaded
	r.FilesSkipped += other.FilesSkipped
	r.NewParticipants += other.NewParticipants
	r.Messages += other.Messages
	r.Reactions += other.Reactions
	r.Media += other.Media
	r.Orphans += other.Orphans
	r.UnknownSenders += other.UnknownSenders
	r.BoilerplateCleared += other.BoilerplateCleared
	r.Errors = append(r.Errors, other.Errors...)
}
