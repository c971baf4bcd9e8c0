package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/threadkeep/threadkeep/internal/archive"
	"github.com/threadkeep/threadkeep/internal/store"
)

// WriteInterchange emits the consolidated dataset as one cleaned JSON
// document in the same shape as the input format. This is the output path
// for runs without a relational store: content fields are normalized and
// boilerplate-only content is cleared, but the nesting of reactions and
// media under their messages is restored.
func WriteInterchange(ds *Dataset, w io.Writer) error {
	doc := archive.Document{
		Participants: make([]archive.Participant, 0, len(ds.Participants)),
		Messages:     make([]archive.Message, 0, len(ds.Messages)),
		Title:        ds.Meta.Title,
		ThreadPath:   ds.Meta.ThreadPath,

		IsStillParticipant: ds.Meta.IsStillParticipant,
		MagicWords:         ds.Meta.MagicWords,
		Image:              ds.Meta.Image,
		JoinableMode:       ds.Meta.JoinableMode,
	}

	for _, name := range ds.Participants {
		doc.Participants = append(doc.Participants, archive.Participant{Name: name})
	}

	reactions := make(map[store.LinkKey][]archive.Reaction)
	for _, r := range ds.Reactions {
		reactions[r.Owner] = append(reactions[r.Owner], archive.Reaction{
			Reaction: r.Glyph,
			Actor:    r.Actor,
		})
	}

	media := make(map[store.LinkKey]map[string][]archive.Media)
	for _, m := range ds.Media {
		if media[m.Owner] == nil {
			media[m.Owner] = make(map[string][]archive.Media)
		}
		media[m.Owner][m.Kind] = append(media[m.Owner][m.Kind], archive.Media{
			URI:               m.URI,
			CreationTimestamp: m.CreationTimestamp,
		})
	}

	for _, m := range ds.Messages {
		out := archive.Message{
			SenderName:  m.SenderName,
			TimestampMs: m.TimestampMs,

			IsGeoblockedForViewer:             m.Geoblocked,
			IsUnsentImageByMessengerKidParent: m.UnsentByGuardian,

			Reactions: reactions[m.Key],
		}
		if m.HasContent {
			out.Content = m.Content
		}
		if byKind := media[m.Key]; byKind != nil {
			out.Photos = byKind["photo"]
			out.Videos = byKind["video"]
			out.AudioFiles = byKind["audio"]
		}
		doc.Messages = append(doc.Messages, out)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encoding interchange document: %w", err)
	}
	return nil
}
