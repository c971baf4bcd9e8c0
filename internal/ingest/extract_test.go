package ingest

import (
	"reflect"
	"strings"
	"testing"

	"github.com/threadkeep/threadkeep/internal/archive"
	"github.com/threadkeep/threadkeep/internal/store"
)

// doubleEncode reproduces the export defect for test inputs.
func doubleEncode(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		b.WriteRune(rune(c))
	}
	return b.String()
}

func testDocument() *archive.Document {
	return &archive.Document{
		Participants: []archive.Participant{{Name: "Mitchell Potts"}, {Name: "Bruce Kesselring"}},
		Messages: []archive.Message{
			{
				SenderName:  "Miles Neilson",
				TimestampMs: 1740093773073,
				Content:     doubleEncode("it’s gonna take a day"),
			},
			{
				SenderName:  "Jonah Eggleston",
				TimestampMs: 1740093564158,
				Content:     "I thought it was going to be longer tbh",
				Reactions: []archive.Reaction{
					{Reaction: doubleEncode("❤"), Actor: "Matty Merritt"},
				},
			},
			{
				SenderName:  "Matty Merritt",
				TimestampMs: 1740093849028,
				Content:     "Replying to your message from earlier",
				Photos: []archive.Media{
					{URI: "photos/1.jpg", CreationTimestamp: 1740093849},
				},
			},
			{
				TimestampMs:           1740093900000,
				IsGeoblockedForViewer: true,
			},
		},
		Title: "puppygirl hacker polycule",
	}
}

func TestExtract(t *testing.T) {
	r := NewResolver()
	res := Extract(testDocument(), "message_1.json", 0, r)

	if len(res.Batch.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(res.Batch.Messages))
	}

	// Listed members ride along in the batch even though neither of them
	// ever speaks; the store persists the roster, not just senders.
	wantRoster := []string{"Mitchell Potts", "Bruce Kesselring"}
	if !reflect.DeepEqual(res.Batch.Participants, wantRoster) {
		t.Errorf("batch participants = %v, want %v", res.Batch.Participants, wantRoster)
	}

	first := res.Batch.Messages[0]
	if !first.HasContent || first.Content != "its gonna take a day" {
		t.Errorf("double-encoded content not repaired: %+v", first)
	}
	if first.Key != (store.LinkKey{File: 0, Seq: 0}) {
		t.Errorf("link key = %+v", first.Key)
	}

	// Boilerplate clears the content field but keeps the message (and its
	// media).
	boiler := res.Batch.Messages[2]
	if boiler.HasContent {
		t.Errorf("boilerplate content not cleared: %+v", boiler)
	}
	if res.BoilerplateCleared != 1 {
		t.Errorf("BoilerplateCleared = %d, want 1", res.BoilerplateCleared)
	}
	if len(res.Batch.Media) != 1 || res.Batch.Media[0].Owner != boiler.Key {
		t.Errorf("media = %+v, want one item owned by seq 2", res.Batch.Media)
	}
	if res.Batch.Media[0].Kind != "photo" {
		t.Errorf("media kind = %q, want photo", res.Batch.Media[0].Kind)
	}

	// Missing sender gets the sentinel, and the record survives.
	last := res.Batch.Messages[3]
	if last.SenderName != UnknownSender {
		t.Errorf("sender = %q, want %q", last.SenderName, UnknownSender)
	}
	if !last.Geoblocked {
		t.Error("geoblocked flag lost")
	}
	if res.UnknownSenders != 1 {
		t.Errorf("UnknownSenders = %d, want 1", res.UnknownSenders)
	}

	// Reaction glyph goes through the same decode repair.
	if len(res.Batch.Reactions) != 1 {
		t.Fatalf("reactions = %+v", res.Batch.Reactions)
	}
	re := res.Batch.Reactions[0]
	if re.Glyph != "❤" {
		t.Errorf("glyph = %q, want ❤", re.Glyph)
	}
	if re.Owner != (store.LinkKey{File: 0, Seq: 1}) {
		t.Errorf("reaction owner = %+v", re.Owner)
	}

	// Everyone seen — listed participants, senders, actors, sentinel — is a
	// resolved identity.
	names := r.Names()
	want := map[string]bool{
		"Mitchell Potts": true, "Bruce Kesselring": true,
		"Miles Neilson": true, "Jonah Eggleston": true,
		"Matty Merritt": true, UnknownSender: true,
	}
	if len(names) != len(want) {
		t.Errorf("resolved names = %v", names)
	}
	for _, n := range names {
		if !want[n] {
			t.Errorf("unexpected identity %q", n)
		}
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	r := NewResolver()
	res := Extract(&archive.Document{}, "empty.json", 0, r)

	if len(res.Batch.Messages) != 0 || len(res.Batch.Reactions) != 0 || len(res.Batch.Media) != 0 {
		t.Errorf("empty document extracted records: %+v", res.Batch)
	}
	if r.Len() != 0 {
		t.Errorf("empty document resolved identities: %v", r.Names())
	}
}

func TestExtractFlagsDefaultFalse(t *testing.T) {
	r := NewResolver()
	doc := &archive.Document{
		Messages: []archive.Message{
			{SenderName: "A", TimestampMs: 1, Content: "hi"},
		},
	}
	res := Extract(doc, "f.json", 2, r)

	m := res.Batch.Messages[0]
	if m.Geoblocked || m.UnsentByGuardian {
		t.Errorf("flags should default to false: %+v", m)
	}
	if m.Key.File != 2 {
		t.Errorf("file id = %d, want 2", m.Key.File)
	}
}
