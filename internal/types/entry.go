package types

import (
	"bytes"
	"time"
)

// Kind identifies which pair of retention lists an entry belongs to.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// TextEntry is a single captured clipboard string. Content is trimmed at
// capture time and is never empty or all-whitespace.
type TextEntry struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	CapturedAt time.Time `json:"capturedAt"`
	Pinned     bool      `json:"isPinned"`
}

// ImageEntry is a single captured clipboard image. Data is always canonical
// PNG regardless of the pasteboard format it was read from, and it serializes
// as base64 in JSON.
type ImageEntry struct {
	ID         string    `json:"id"`
	Data       []byte    `json:"imageData"`
	CapturedAt time.Time `json:"capturedAt"`
	Pinned     bool      `json:"isPinned"`
}

// EqualData reports whether two image entries carry byte-identical payloads.
func (e *ImageEntry) EqualData(other *ImageEntry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return bytes.Equal(e.Data, other.Data)
}
