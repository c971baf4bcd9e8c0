package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "message_1.json", `{
		"participants": [{"name": "Mitchell Potts"}, {"name": "Bruce Kesselring"}],
		"messages": [
			{
				"sender_name": "Jonah Eggleston",
				"timestamp_ms": 1740093564158,
				"content": "I thought it was going to be longer tbh",
				"reactions": [{"reaction": "â¤", "actor": "Matty Merritt"}]
			},
			{
				"sender_name": "Miles Neilson",
				"timestamp_ms": 1740093773073,
				"photos": [{"uri": "photos/1.jpg", "creation_timestamp": 1740093773}]
			}
		],
		"title": "puppygirl hacker polycule",
		"is_still_participant": true
	}`)

	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(doc.Participants) != 2 || doc.Participants[0].Name != "Mitchell Potts" {
		t.Errorf("participants = %+v", doc.Participants)
	}
	if len(doc.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(doc.Messages))
	}
	if doc.Title != "puppygirl hacker polycule" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.IsStillParticipant == nil || !*doc.IsStillParticipant {
		t.Error("is_still_participant not decoded")
	}

	first := doc.Messages[0]
	if len(first.Reactions) != 1 || first.Reactions[0].Actor != "Matty Merritt" {
		t.Errorf("reactions = %+v", first.Reactions)
	}
	if first.IsGeoblockedForViewer {
		t.Error("absent flag should default to false")
	}

	second := doc.Messages[1]
	if second.Content != "" {
		t.Errorf("content should be empty, got %q", second.Content)
	}
	if len(second.Photos) != 1 || second.Photos[0].URI != "photos/1.jpg" {
		t.Errorf("photos = %+v", second.Photos)
	}
}

func TestParseFileMissingKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.json", `{"title": "bare"}`)

	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(doc.Participants) != 0 || len(doc.Messages) != 0 {
		t.Errorf("missing keys should decode to empty slices, got %+v", doc)
	}
}

func TestParseFileErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("not found", func(t *testing.T) {
		_, err := ParseFile(filepath.Join(dir, "missing.json"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("want ErrNotFound, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeFile(t, dir, "bad.json", `{"messages": [`)
		_, err := ParseFile(path)
		if !errors.Is(err, ErrParse) {
			t.Errorf("want ErrParse, got %v", err)
		}
	})

	t.Run("non-object top level", func(t *testing.T) {
		path := writeFile(t, dir, "array.json", `[1, 2, 3]`)
		_, err := ParseFile(path)
		if !errors.Is(err, ErrParse) {
			t.Errorf("want ErrParse, got %v", err)
		}
	})
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "message_2.json", `{}`)
	writeFile(t, dir, "message_1.json", `{}`)
	writeFile(t, dir, "notes.txt", "skip me")

	files, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want 2 entries", files)
	}
	if filepath.Base(files[0]) != "message_1.json" || filepath.Base(files[1]) != "message_2.json" {
		t.Errorf("files not sorted: %v", files)
	}

	single, err := ListFiles(files[0])
	if err != nil || len(single) != 1 {
		t.Errorf("ListFiles(file) = %v, %v", single, err)
	}

	if _, err := ListFiles(filepath.Join(dir, "nope")); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}
