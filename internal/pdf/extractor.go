// Package pdf wraps PDF text extraction behind a small collaborator
// interface so ingestion can be tested without real PDF files.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	domainerrors "github.com/pagevoiceapp/pagevoice-server/internal/errors"
)

// magic is the PDF file signature.
var magic = []byte("%PDF-")

// IsPDF reports whether the upload looks like a PDF. The content sniff wins;
// extension and MIME type are accepted as a fallback for files whose header
// is preceded by junk bytes some generators emit.
func IsPDF(name, mimeType string, data []byte) bool {
	if bytes.HasPrefix(data, magic) {
		return true
	}
	if len(data) > 1024 && bytes.Contains(data[:1024], magic) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(name), ".pdf") && mimeType == "application/pdf"
}

// ProgressFunc receives per-page extraction progress.
type ProgressFunc func(page, total int)

// Extraction is the result of extracting a document.
type Extraction struct {
	Pages int
	Text  string
}

// Extractor extracts plain text from PDF data.
type Extractor interface {
	Extract(ctx context.Context, data []byte, progress ProgressFunc) (*Extraction, error)
	Available() bool
}

// Reader extracts text using the ledongthuc/pdf parser.
type Reader struct{}

// NewReader creates the default PDF extractor.
func NewReader() *Reader {
	return &Reader{}
}

// Available reports whether extraction is supported. The parser is compiled
// in, so this is always true; the method exists to satisfy the collaborator
// contract shared with the speech engine.
func (r *Reader) Available() bool {
	return true
}

// Extract parses the PDF and concatenates the plain text of every page.
// Pages that fail individually are skipped; the whole document failing to
// parse is an ingestion error.
func (r *Reader) Extract(ctx context.Context, data []byte, progress ProgressFunc) (*Extraction, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domainerrors.Ingestion("could not parse PDF").WithCause(err)
	}

	total := reader.NumPage()
	if total == 0 {
		return nil, domainerrors.Ingestion("PDF has no pages")
	}

	var sb strings.Builder
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction canceled: %w", err)
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}
		sb.WriteString(text)
		sb.WriteByte('\n')

		if progress != nil {
			progress(i, total)
		}
	}

	extracted := sb.String()
	if strings.TrimSpace(extracted) == "" {
		return nil, domainerrors.Ingestion("no extractable text in PDF")
	}

	return &Extraction{Pages: total, Text: extracted}, nil
}
