// Package archive models the raw chat-export document format.
//
// One export document is one JSON file holding a conversation snapshot:
// a participant list, a message list (newest first in practice, but no
// ordering is guaranteed), and conversation-level metadata. Optional fields
// are explicit here; absent keys decode to zero values, never errors.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Sentinel errors for per-file failure classification.
var (
	// ErrNotFound marks a source path that does not exist.
	ErrNotFound = errors.New("source file not found")
	// ErrParse marks a file whose content is not a valid export document.
	ErrParse = errors.New("invalid export document")
)

// Document is one parsed export file.
type Document struct {
	Participants []Participant `json:"participants"`
	Messages     []Message     `json:"messages"`
	Title        string        `json:"title,omitempty"`
	ThreadPath   string        `json:"thread_path,omitempty"`

	IsStillParticipant *bool    `json:"is_still_participant,omitempty"`
	MagicWords         []string `json:"magic_words,omitempty"`

	// Opaque metadata blobs carried through to the interchange output.
	Image        json.RawMessage `json:"image,omitempty"`
	JoinableMode json.RawMessage `json:"joinable_mode,omitempty"`
}

// Participant is a chat member as named in the export.
type Participant struct {
	Name string `json:"name"`
}

// Message is one chat event. Content is optional; pure media or system
// events carry none.
type Message struct {
	SenderName  string `json:"sender_name"`
	TimestampMs int64  `json:"timestamp_ms"`
	Content     string `json:"content,omitempty"`

	IsGeoblockedForViewer             bool `json:"is_geoblocked_for_viewer,omitempty"`
	IsUnsentImageByMessengerKidParent bool `json:"is_unsent_image_by_messenger_kid_parent,omitempty"`

	Reactions  []Reaction `json:"reactions,omitempty"`
	Photos     []Media    `json:"photos,omitempty"`
	Videos     []Media    `json:"videos,omitempty"`
	AudioFiles []Media    `json:"audio_files,omitempty"`
}

// Reaction is an emoji reaction nested under its message.
type Reaction struct {
	Reaction string `json:"reaction"`
	Actor    string `json:"actor"`
}

// Media is a photo, video, or audio attachment nested under its message.
type Media struct {
	URI               string `json:"uri"`
	CreationTimestamp int64  `json:"creation_timestamp"`
}

// ParseFile reads and decodes one export document. A missing file wraps
// ErrNotFound; malformed JSON or a non-object top level wraps ErrParse.
// Missing participants or messages keys yield empty slices.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	// Reject non-object top levels (arrays, scalars) before decoding into
	// the document shape, which would silently zero them.
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("%w: %s: top level is not an object", ErrParse, path)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	return &doc, nil
}

// ListFiles expands a path into the export files it names. A directory
// yields its *.json entries sorted by name; a file yields itself. A missing
// path wraps ErrNotFound.
func ListFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", path, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
