package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"collapses spaces", "hello    world", "hello world"},
		{"collapses newlines and tabs", "line one\n\n\tline two", "line one line two"},
		{"trims edges", "  padded  ", "padded"},
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
		{"ligature normalized", "eﬃcient", "efficient"}, // ﬃ -> ffi
		{"fullwidth digits", "１２３", "123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestIsPDF(t *testing.T) {
	pdfData := []byte("%PDF-1.7\n...")

	assert.True(t, IsPDF("book.pdf", "application/pdf", pdfData))
	assert.True(t, IsPDF("renamed.bin", "application/octet-stream", pdfData))
	assert.True(t, IsPDF("book.pdf", "application/pdf", nil))
	assert.False(t, IsPDF("notes.txt", "text/plain", []byte("plain text")))
	assert.False(t, IsPDF("book.pdf", "text/plain", []byte("plain text")))
}
