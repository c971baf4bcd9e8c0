package ingest

import (
	"github.com/threadkeep/threadkeep/internal/archive"
	"github.com/threadkeep/threadkeep/internal/normalize"
	"github.com/threadkeep/threadkeep/internal/store"
)

// UnknownSender is the sentinel used when a message carries no sender name.
// The record is kept rather than dropped so message counts stay honest even
// with incomplete attribution.
const UnknownSender = "Unknown"

// Extract walks one parsed export document and produces typed records.
// Message content goes through the normalizer here; reactions and media are
// flattened out of their parent message and reference it by a batch-local
// link key (fileID, sequence number) — the natural (sender, timestamp) pair
// is not unique enough to link against.
func Extract(doc *archive.Document, file string, fileID int, r *Resolver) *ExtractionResult {
	res := &ExtractionResult{
		File:   file,
		FileID: fileID,
		Batch:  store.FileBatch{File: file},
		Meta: Metadata{
			Title:              doc.Title,
			ThreadPath:         doc.ThreadPath,
			IsStillParticipant: doc.IsStillParticipant,
			MagicWords:         doc.MagicWords,
			Image:              doc.Image,
			JoinableMode:       doc.JoinableMode,
		},
	}

	for _, p := range doc.Participants {
		r.Resolve(p.Name)
		res.Batch.Participants = append(res.Batch.Participants, p.Name)
	}

	for seq, msg := range doc.Messages {
		key := store.LinkKey{File: fileID, Seq: seq}

		sender := msg.SenderName
		if sender == "" {
			sender = UnknownSender
			res.UnknownSenders++
		}
		r.Resolve(sender)

		out := store.Message{
			Key:              key,
			SenderName:       sender,
			TimestampMs:      msg.TimestampMs,
			Geoblocked:       msg.IsGeoblockedForViewer,
			UnsentByGuardian: msg.IsUnsentImageByMessengerKidParent,
		}

		if msg.Content != "" {
			clean, ok := normalize.Normalize(msg.Content)
			if ok {
				out.Content = clean
				out.HasContent = true
			} else {
				// Boilerplate clears the content field only; the message
				// stays so its reactions, media, and flags survive.
				res.BoilerplateCleared++
			}
		}
		res.Batch.Messages = append(res.Batch.Messages, out)

		for _, re := range msg.Reactions {
			actor := re.Actor
			if actor == "" {
				actor = UnknownSender
			}
			r.Resolve(actor)
			res.Batch.Reactions = append(res.Batch.Reactions, store.Reaction{
				Owner: key,
				Glyph: normalize.RepairEncoding(re.Reaction),
				Actor: actor,
			})
		}

		appendMedia := func(items []archive.Media, kind string) {
			for _, m := range items {
				res.Batch.Media = append(res.Batch.Media, store.Media{
					Owner:             key,
					URI:               m.URI,
					CreationTimestamp: m.CreationTimestamp,
					Kind:              kind,
				})
			}
		}
		appendMedia(msg.Photos, "photo")
		appendMedia(msg.Videos, "video")
		appendMedia(msg.AudioFiles, "audio")
	}

	return res
}
