package domain

import (
	"time"
	"unicode/utf8"
)

// BookmarkSnippetLength is the number of characters captured after a
// bookmark's position.
const BookmarkSnippetLength = 100

// Document is a library entry: a previously ingested PDF with its extracted
// text and bookmarks. Entries are never mutated after creation except to
// append or remove bookmarks.
type Document struct {
	ID       string `json:"id"`
	DeviceID string `json:"device_id"`
	Name     string `json:"name"`
	// Size is the original file size in bytes.
	Size int64 `json:"size"`
	// Pages is the page count reported by the extractor.
	Pages int `json:"pages"`
	// Text is the cleaned extracted text.
	Text      string     `json:"text"`
	Bookmarks []Bookmark `json:"bookmarks"`
	AddedAt   time.Time  `json:"added_at"`
}

// Bookmark marks a position in a document's text.
type Bookmark struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	// Text is the snippet following the position, at most
	// BookmarkSnippetLength characters.
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Snippet extracts the bookmark snippet at the given position. Cut points
// that land inside a multi-byte rune are walked back to the rune start so
// the snippet is always valid UTF-8.
func (d *Document) Snippet(position int) string {
	if position < 0 {
		position = 0
	}
	if position >= len(d.Text) {
		return ""
	}
	for position > 0 && !utf8.RuneStart(d.Text[position]) {
		position--
	}
	end := position + BookmarkSnippetLength
	if end >= len(d.Text) {
		return d.Text[position:]
	}
	for end > position && !utf8.RuneStart(d.Text[end]) {
		end--
	}
	return d.Text[position:end]
}
