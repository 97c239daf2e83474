package subtitle

import (
	"math"
	"strings"
	"time"

	"github.com/svdC1/mirumoji-open-api/internal/transcriber"
)

// Cue is one subtitle entry. Indices are 1-based and strictly sequential in
// emission order. End is never earlier than Start.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Document is an ordered cue sequence, round-trippable through Compose and
// Parse.
type Document struct {
	Cues []Cue
}

// FromSegments assembles one cue per segment in transcription order. Times
// are rounded to the millisecond, the precision of the wire format, so the
// resulting document survives Compose/Parse unchanged.
func FromSegments(segments []transcriber.Segment) Document {
	cues := make([]Cue, 0, len(segments))
	for i, seg := range segments {
		cues = append(cues, Cue{
			Index: i + 1,
			Start: secondsToDuration(seg.Start),
			End:   secondsToDuration(seg.End),
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return Document{Cues: cues}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds*1000)) * time.Millisecond
}
