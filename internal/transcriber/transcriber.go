package transcriber

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/svdC1/mirumoji-open-api/internal/errs"
)

// Segment is one speech-model output unit. Times are seconds from the start
// of the audio; 0 <= Start < End always holds for emitted segments.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Result is a completed transcription run.
type Result struct {
	Segments []Segment
	Language string
	Elapsed  time.Duration
}

// Options are per-call decoding knobs passed through to whisper.cpp.
type Options struct {
	BeamSize          int
	BestOf            int
	MaxSegmentLen     int
	MaxContext        int
	Threads           int
	NoSpeechThreshold float64
	LogProbThreshold  float64
	EntropyThreshold  float64
	Prompt            string
}

// DefaultOptions returns conservative decoding defaults: no previous-text
// conditioning (MaxContext 0) so hallucinations cannot carry over between
// segments, and quality-gate thresholds tuned for conversational speech.
func DefaultOptions() Options {
	return Options{
		BeamSize:          5,
		BestOf:            5,
		MaxSegmentLen:     0,
		MaxContext:        0,
		NoSpeechThreshold: 0.3,
		LogProbThreshold:  -1.0,
		EntropyThreshold:  2.0,
	}
}

// Transcribe runs the speech model over the audio file and returns the
// ordered segment list. A tool or model failure yields ErrTranscription and
// never a partial list. Zero segments is a valid result for silent input.
func (t *implTranscriber) Transcribe(ctx context.Context, audioPath, language string, opts Options) (*Result, error) {
	outputPrefix := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	args := t.buildArgs(audioPath, language, outputPrefix, opts)

	t.logger.Info(ctx, "Transcribing %s (language=%s, threads=%d)",
		audioPath, language, t.threads(opts))

	start := time.Now()
	if _, err := t.executor.Execute(ctx, t.cfg.Whisper.BinaryPath, args...); err != nil {
		return nil, errs.Wrap(errs.ErrTranscription, "whisper: %v", err)
	}
	elapsed := time.Since(start)

	jsonPath := outputPrefix + ".json"
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, errs.Wrap(errs.ErrTranscription, "read whisper output: %v", err)
	}
	defer os.Remove(jsonPath)

	result, err := parseWhisperJSON(data)
	if err != nil {
		return nil, err
	}
	result.Elapsed = elapsed

	t.logger.Info(ctx, "Transcription completed: %d segments in %s",
		len(result.Segments), elapsed.Round(time.Millisecond))
	return result, nil
}

// TranscribeText joins all segment texts with the sentence-ending mark into
// one string, for callers that do not need timing.
func (t *implTranscriber) TranscribeText(ctx context.Context, audioPath, language string, opts Options) (string, error) {
	result, err := t.Transcribe(ctx, audioPath, language, opts)
	if err != nil {
		return "", err
	}

	texts := make([]string, 0, len(result.Segments))
	for _, seg := range result.Segments {
		texts = append(texts, seg.Text)
	}
	return strings.Join(texts, "。"), nil
}

func (t *implTranscriber) buildArgs(audioPath, language, outputPrefix string, opts Options) []string {
	args := []string{
		"-m", t.cfg.Whisper.ModelPath,
		"-f", audioPath,
		"-oj",
		"-l", language,
		"-t", strconv.Itoa(t.threads(opts)),
		"-bs", strconv.Itoa(opts.BeamSize),
		"-bo", strconv.Itoa(opts.BestOf),
		"-ml", strconv.Itoa(opts.MaxSegmentLen),
		"-mc", strconv.Itoa(opts.MaxContext),
		"-nth", formatFloat(opts.NoSpeechThreshold),
		"-lpt", formatFloat(opts.LogProbThreshold),
		"-et", formatFloat(opts.EntropyThreshold),
		"--output-file", outputPrefix,
	}
	if opts.Prompt != "" {
		args = append(args, "--prompt", opts.Prompt)
	}
	return args
}

func (t *implTranscriber) threads(opts Options) int {
	if opts.Threads > 0 {
		return opts.Threads
	}
	return t.cfg.Whisper.Threads
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type whisperPayload struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// parseWhisperJSON decodes the -oj output file. Offsets are milliseconds.
func parseWhisperJSON(data []byte) (*Result, error) {
	var payload whisperPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errs.Wrap(errs.ErrTranscription, "parse whisper json: %v", err)
	}

	segments := make([]Segment, 0, len(payload.Transcription))
	for _, entry := range payload.Transcription {
		text := strings.TrimSpace(entry.Text)
		if text == "" || entry.Offsets.To <= entry.Offsets.From {
			continue
		}
		segments = append(segments, Segment{
			Start: float64(entry.Offsets.From) / 1000,
			End:   float64(entry.Offsets.To) / 1000,
			Text:  text,
		})
	}

	return &Result{
		Segments: segments,
		Language: payload.Result.Language,
	}, nil
}
