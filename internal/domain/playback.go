package domain

import "time"

// PlaybackRates is the fixed set of selectable playback rates.
var PlaybackRates = []float64{0.5, 0.75, 1.0, 1.25, 1.5, 1.75, 2.0}

// ValidPlaybackRate reports whether rate is one of the selectable rates.
func ValidPlaybackRate(rate float64) bool {
	for _, r := range PlaybackRates {
		if r == rate {
			return true
		}
	}
	return false
}

// PlaybackSession tracks playback over a document's text for one device.
// It exists only while the player is open; a snapshot is persisted so a
// device can resume after a restart.
type PlaybackSession struct {
	ID         string `json:"id"`
	DeviceID   string `json:"device_id"`
	DocumentID string `json:"document_id,omitempty"`
	// Text is the buffer being spoken.
	Text string `json:"-"`
	// Position is the cursor as a byte offset into Text.
	Position int `json:"position"`
	// Rate is the playback rate, one of PlaybackRates.
	Rate    float64 `json:"rate"`
	Playing bool    `json:"playing"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Progress returns the cursor as a fraction of the text in [0, 1].
func (s *PlaybackSession) Progress() float64 {
	if len(s.Text) == 0 {
		return 0
	}
	return float64(s.Position) / float64(len(s.Text))
}

// ClampPosition bounds an offset to the text buffer.
func (s *PlaybackSession) ClampPosition(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(s.Text) {
		return len(s.Text)
	}
	return offset
}

// Remaining returns the unspoken tail of the text buffer.
func (s *PlaybackSession) Remaining() string {
	return s.Text[s.ClampPosition(s.Position):]
}
