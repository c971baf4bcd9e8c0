package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/threadkeep/threadkeep/internal/archive"
	"github.com/threadkeep/threadkeep/internal/store"
)

// Engine drives the batch pipeline. With a store it loads file-by-file,
// each file in its own transaction; without one (or in dry-run mode) it
// only extracts, which is all the interchange export path needs.
type Engine struct {
	store store.Store
}

// NewEngine creates a pipeline engine. A nil store is valid and disables
// persistence.
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// Run processes the given paths (files or directories of export JSON) and
// loads them into the store. Per-file parse failures are recovered and
// reported in the Result; a store-level failure aborts the run with the
// partial Result alongside the error, since files already committed stay
// valid.
func (e *Engine) Run(ctx context.Context, paths []string, opts Options) (*Result, error) {
	res := newResult()
	resolver := NewResolver()
	files := expandPaths(paths, res)

	for i, f := range files {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}
		if opts.ProgressFn != nil {
			opts.ProgressFn(i+1, len(files), f)
		}

		ex := e.extractOne(f, i, resolver, res)
		if ex == nil {
			continue
		}

		if e.store == nil || opts.DryRun {
			res.FilesLoaded++
			res.Messages += len(ex.Batch.Messages)
			res.Reactions += len(ex.Batch.Reactions)
			res.Media += len(ex.Batch.Media)
			continue
		}

		rep, err := e.store.LoadFile(ctx, &ex.Batch)
		if err != nil {
			return res, fmt.Errorf("loading %s: %w", f, err)
		}
		res.FilesLoaded++
		res.NewParticipants += rep.NewParticipants
		res.Messages += rep.Messages
		res.Reactions += rep.Reactions
		res.Media += rep.Media
		res.Orphans += rep.Orphans
	}

	return res, nil
}

// Export processes the given paths without persistence and writes the
// consolidated dataset as one cleaned interchange JSON document.
func (e *Engine) Export(ctx context.Context, paths []string, opts Options, w io.Writer) (*Result, error) {
	res := newResult()
	resolver := NewResolver()
	files := expandPaths(paths, res)

	var results []*ExtractionResult
	for i, f := range files {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}
		if opts.ProgressFn != nil {
			opts.ProgressFn(i+1, len(files), f)
		}

		ex := e.extractOne(f, i, resolver, res)
		if ex == nil {
			continue
		}
		res.FilesLoaded++
		res.Messages += len(ex.Batch.Messages)
		res.Reactions += len(ex.Batch.Reactions)
		res.Media += len(ex.Batch.Media)
		results = append(results, ex)
	}

	ds := Consolidate(results, resolver)
	if err := WriteInterchange(ds, w); err != nil {
		return res, err
	}
	return res, nil
}

// extractOne parses and extracts a single file, recording any recovered
// failure on res. Returns nil when the file was skipped.
func (e *Engine) extractOne(file string, fileID int, resolver *Resolver, res *Result) *ExtractionResult {
	res.FilesScanned++

	doc, err := archive.ParseFile(file)
	if err != nil {
		res.FilesSkipped++
		res.Errors = append(res.Errors, classifyError(file, err))
		return nil
	}

	ex := Extract(doc, file, fileID, resolver)
	res.UnknownSenders += ex.UnknownSenders
	res.BoilerplateCleared += ex.BoilerplateCleared
	return ex
}

func newResult() *Result {
	return &Result{RunID: uuid.NewString()}
}

// expandPaths resolves files and directories into the flat list of export
// files to process. Missing paths are reported and skipped.
func expandPaths(paths []string, res *Result) []string {
	var files []string
	for _, p := range paths {
		list, err := archive.ListFiles(p)
		if err != nil {
			res.FilesSkipped++
			res.Errors = append(res.Errors, classifyError(p, err))
			continue
		}
		files = append(files, list...)
	}
	return files
}

func classifyError(file string, err error) FileError {
	kind := "load"
	switch {
	case errors.Is(err, archive.ErrNotFound):
		kind = "not_found"
	case errors.Is(err, archive.ErrParse):
		kind = "parse"
	}
	return FileError{File: file, Kind: kind, Message: err.Error()}
}

// FormatResult renders a run summary for CLI output.
func FormatResult(r *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s\n", r.RunID)
	fmt.Fprintf(&b, "  Files:        %d scanned, %d loaded, %d skipped\n",
		r.FilesScanned, r.FilesLoaded, r.FilesSkipped)
	fmt.Fprintf(&b, "  Messages:     %d\n", r.Messages)
	fmt.Fprintf(&b, "  Reactions:    %d\n", r.Reactions)
	fmt.Fprintf(&b, "  Media:        %d\n", r.Media)
	if r.NewParticipants > 0 {
		fmt.Fprintf(&b, "  Participants: %d new\n", r.NewParticipants)
	}
	if r.Orphans > 0 {
		fmt.Fprintf(&b, "  Orphans:      %d dropped\n", r.Orphans)
	}
	if r.BoilerplateCleared > 0 {
		fmt.Fprintf(&b, "  Boilerplate:  %d content fields cleared\n", r.BoilerplateCleared)
	}
	if r.UnknownSenders > 0 {
		fmt.Fprintf(&b, "  Unattributed: %d messages with no sender\n", r.UnknownSenders)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "  Errors:       %d\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "    [%s] %s: %s\n", e.Kind, e.File, e.Message)
		}
	}

	return b.String()
}
