package stats

import (
	"context"
	"strings"
	"testing"

	"github.com/threadkeep/threadkeep/internal/store"
)

func loadedStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.New(store.Config{DBPath: ":memory:"})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	batch := &store.FileBatch{
		File: "message_1.json",
		Messages: []store.Message{
			{
				Key: store.LinkKey{Seq: 0}, SenderName: "Matty Merritt", TimestampMs: 100,
				Content: "Oh thanks for handling that Caroline", HasContent: true,
			},
			{
				Key: store.LinkKey{Seq: 1}, SenderName: "Miles Neilson", TimestampMs: 200,
				Content: "its gonna take a day", HasContent: true,
			},
			{
				Key: store.LinkKey{Seq: 2}, SenderName: "Miles Neilson", TimestampMs: 300,
			},
		},
		Reactions: []store.Reaction{
			{Owner: store.LinkKey{Seq: 0}, Glyph: "❤", Actor: "Miles Neilson"},
			{Owner: store.LinkKey{Seq: 0}, Glyph: "👍", Actor: "Jonah Eggleston"},
		},
	}
	if _, err := s.LoadFile(context.Background(), batch); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	return s
}

func TestCollect(t *testing.T) {
	ctx := context.Background()
	r, err := Collect(ctx, loadedStore(t))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if r.TotalMessages != 3 {
		t.Errorf("TotalMessages = %d, want 3", r.TotalMessages)
	}
	// 6 words + 5 words; the content-less message adds nothing.
	if r.TotalWords != 11 {
		t.Errorf("TotalWords = %d, want 11", r.TotalWords)
	}
	if r.WordsPerSender["Matty Merritt"] != 6 {
		t.Errorf("WordsPerSender[Matty] = %d, want 6", r.WordsPerSender["Matty Merritt"])
	}
	if r.MessagesPerSender["Miles Neilson"] != 2 {
		t.Errorf("MessagesPerSender[Miles] = %d, want 2", r.MessagesPerSender["Miles Neilson"])
	}
	if r.ReactionsReceived["Matty Merritt"] != 2 {
		t.Errorf("ReactionsReceived[Matty] = %d, want 2", r.ReactionsReceived["Matty Merritt"])
	}
	if r.ReactionsGiven["Miles Neilson"] != 1 || r.ReactionsGiven["Jonah Eggleston"] != 1 {
		t.Errorf("ReactionsGiven = %+v", r.ReactionsGiven)
	}
}

func TestFormat(t *testing.T) {
	r, err := Collect(context.Background(), loadedStore(t))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	out := Format(r)
	if !strings.Contains(out, "Words:    11") {
		t.Errorf("missing total words:\n%s", out)
	}
	// Sorted by words: Matty (6) before Miles (5).
	if strings.Index(out, "Matty Merritt") > strings.Index(out, "Miles Neilson") {
		t.Errorf("senders not sorted by word count:\n%s", out)
	}
}
