package domain

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSnippet(t *testing.T) {
	doc := &Document{Text: "Hello, world. " + strings.Repeat("x", 200)}

	assert.Len(t, doc.Snippet(0), BookmarkSnippetLength)
	assert.Equal(t, doc.Snippet(0), doc.Snippet(-5))
	assert.Equal(t, "", doc.Snippet(len(doc.Text)))
	assert.Equal(t, "xx", doc.Snippet(len(doc.Text)-2))
}

func TestSnippet_RuneBoundaries(t *testing.T) {
	// Three bytes per rune, so a 100-byte cut never lands on a boundary.
	doc := &Document{Text: strings.Repeat("世", 200)}

	for _, position := range []int{0, 1, 2, 3, 151, 300, 598, 599} {
		snippet := doc.Snippet(position)
		assert.True(t, utf8.ValidString(snippet), "position %d", position)
		assert.LessOrEqual(t, len(snippet), BookmarkSnippetLength, "position %d", position)
	}

	// A cut inside a rune starts the snippet at that rune's first byte.
	assert.Equal(t, doc.Snippet(0), doc.Snippet(2))
}
