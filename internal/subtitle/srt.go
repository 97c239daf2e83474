package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/svdC1/mirumoji-open-api/internal/errs"
)

var blockSeparator = regexp.MustCompile(`\n{2,}`)

// Compose serializes the document to SRT text. An empty document composes to
// the empty string.
func (d Document) Compose() string {
	if len(d.Cues) == 0 {
		return ""
	}

	var b strings.Builder
	for i, cue := range d.Cues {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n",
			cue.Index,
			formatTimestamp(cue.Start),
			formatTimestamp(cue.End),
			cue.Text,
		)
	}
	return b.String()
}

// Parse deserializes SRT text. It is the exact left inverse of Compose for
// any document built by FromSegments. Malformed blocks, bad timestamps,
// non-sequential indices and cues ending before they start all yield
// ErrFormat. The empty string parses to an empty document.
func Parse(text string) (Document, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return Document{}, nil
	}

	var cues []Cue
	for _, block := range blockSeparator.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		cue, err := parseBlock(block)
		if err != nil {
			return Document{}, err
		}
		if cue.Index != len(cues)+1 {
			return Document{}, errs.Wrap(errs.ErrFormat,
				"cue index %d out of sequence, want %d", cue.Index, len(cues)+1)
		}
		cues = append(cues, cue)
	}

	return Document{Cues: cues}, nil
}

func parseBlock(block string) (Cue, error) {
	lines := strings.Split(block, "\n")
	if len(lines) < 2 {
		return Cue{}, errs.Wrap(errs.ErrFormat, "cue block %q too short", block)
	}

	index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil || index < 1 {
		return Cue{}, errs.Wrap(errs.ErrFormat, "bad cue index %q", lines[0])
	}

	start, end, err := parseTimeLine(lines[1])
	if err != nil {
		return Cue{}, err
	}
	if end < start {
		return Cue{}, errs.Wrap(errs.ErrFormat, "cue %d ends before it starts", index)
	}

	return Cue{
		Index: index,
		Start: start,
		End:   end,
		Text:  strings.Join(lines[2:], "\n"),
	}, nil
}

func parseTimeLine(line string) (time.Duration, time.Duration, error) {
	parts := strings.Split(line, " --> ")
	if len(parts) != 2 {
		return 0, 0, errs.Wrap(errs.ErrFormat, "bad time line %q", line)
	}

	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// formatTimestamp renders a duration as HH:MM:SS,mmm with zero padding.
func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3_600_000
	ms %= 3_600_000
	minutes := ms / 60_000
	ms %= 60_000
	seconds := ms / 1_000
	ms %= 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

func parseTimestamp(s string) (time.Duration, error) {
	clock, millisText, ok := strings.Cut(s, ",")
	if !ok {
		return 0, errs.Wrap(errs.ErrFormat, "bad timestamp %q", s)
	}
	units := strings.Split(clock, ":")
	if len(units) != 3 || len(millisText) != 3 {
		return 0, errs.Wrap(errs.ErrFormat, "bad timestamp %q", s)
	}

	fields := make([]int64, 0, 4)
	for _, unit := range append(units, millisText) {
		v, err := strconv.ParseInt(unit, 10, 64)
		if err != nil || v < 0 {
			return 0, errs.Wrap(errs.ErrFormat, "bad timestamp %q", s)
		}
		fields = append(fields, v)
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, errs.Wrap(errs.ErrFormat, "bad timestamp %q", s)
	}

	total := fields[0]*3_600_000 + fields[1]*60_000 + fields[2]*1_000 + fields[3]
	return time.Duration(total) * time.Millisecond, nil
}
