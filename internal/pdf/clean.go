package pdf

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanText normalizes extracted text for speech: NFKC normalization (so
// ligatures and fullwidth forms read as their plain equivalents), whitespace
// runs collapsed to a single space, and leading/trailing space trimmed.
func CleanText(text string) string {
	text = norm.NFKC.String(text)

	var sb strings.Builder
	sb.Grow(len(text))

	inSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		inSpace = false
		sb.WriteRune(r)
	}

	return sb.String()
}
