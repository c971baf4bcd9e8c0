package ingest

import "github.com/threadkeep/threadkeep/internal/store"

// Dataset is the merged output of a batch: one coherent in-memory view of
// every processed file, ready for interchange export.
type Dataset struct {
	Participants []string // resolver first-sight order
	Messages     []store.Message
	Reactions    []store.Reaction
	Media        []store.Media
	Meta         Metadata

	UnknownSenders     int
	BoilerplateCleared int
}

// Consolidate merges per-file extraction results. Participants are the
// resolver's deduplicated set; messages keep file-processing order then
// file-internal order — downstream consumers re-sort by timestamp when they
// need to. Conversation metadata is last-write-wins across files.
func Consolidate(results []*ExtractionResult, r *Resolver) *Dataset {
	ds := &Dataset{Participants: r.Names()}

	for _, res := range results {
		ds.Messages = append(ds.Messages, res.Batch.Messages...)
		ds.Reactions = append(ds.Reactions, res.Batch.Reactions...)
		ds.Media = append(ds.Media, res.Batch.Media...)
		ds.UnknownSenders += res.UnknownSenders
		ds.BoilerplateCleared += res.BoilerplateCleared

		if res.Meta.Title != "" {
			ds.Meta.Title = res.Meta.Title
		}
		if res.Meta.ThreadPath != "" {
			ds.Meta.ThreadPath = res.Meta.ThreadPath
		}
		if res.Meta.IsStillParticipant != nil {
			ds.Meta.IsStillParticipant = res.Meta.IsStillParticipant
		}
		if len(res.Meta.Image) > 0 {
			ds.Meta.Image = res.Meta.Image
		}
		if len(res.Meta.JoinableMode) > 0 {
			ds.Meta.JoinableMode = res.Meta.JoinableMode
		}
		ds.Meta.MagicWords = append(ds.Meta.MagicWords, res.Meta.MagicWords...)
	}

	return ds
}
