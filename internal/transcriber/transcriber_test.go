package transcriber

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/svdC1/mirumoji-open-api/internal/config"
	"github.com/svdC1/mirumoji-open-api/internal/errs"
	"github.com/svdC1/mirumoji-open-api/internal/logger"
)

// fakeExecutor records the command it was given and simulates whisper.cpp by
// writing a canned JSON file next to the --output-file prefix.
type fakeExecutor struct {
	json string
	err  error

	name string
	args []string
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.name = name
	f.args = args
	if f.err != nil {
		return "", f.err
	}
	for i, arg := range args {
		if arg == "--output-file" && i+1 < len(args) {
			if err := os.WriteFile(args[i+1]+".json", []byte(f.json), 0644); err != nil {
				return "", err
			}
		}
	}
	return "", nil
}

func (f *fakeExecutor) ExecuteInDir(ctx context.Context, dir, name string, args ...string) (string, error) {
	return f.Execute(ctx, name, args...)
}

func testConfig() *config.Config {
	return &config.Config{
		Whisper: config.WhisperConfig{
			ModelPath:  "models/ggml-large-v3.bin",
			BinaryPath: "./whisper-cli",
			Language:   "ja",
			Threads:    4,
		},
	}
}

const sampleJSON = `{
  "result": {"language": "ja"},
  "transcription": [
    {"offsets": {"from": 0, "to": 1000}, "text": " こんにちは"},
    {"offsets": {"from": 1000, "to": 2500}, "text": " 元気ですか"}
  ]
}`

func TestTranscribe(t *testing.T) {
	fake := &fakeExecutor{json: sampleJSON}
	tr := New(testConfig(), fake, logger.New("error"))

	audioPath := filepath.Join(t.TempDir(), "clip.wav")
	result, err := tr.Transcribe(context.Background(), audioPath, "ja", DefaultOptions())
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if len(result.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(result.Segments))
	}
	if result.Language != "ja" {
		t.Errorf("Language = %q, want ja", result.Language)
	}

	first := result.Segments[0]
	if first.Start != 0 || first.End != 1.0 || first.Text != "こんにちは" {
		t.Errorf("segment 0 = %+v", first)
	}
	second := result.Segments[1]
	if second.Start != 1.0 || second.End != 2.5 {
		t.Errorf("segment 1 = %+v", second)
	}

	// Temp JSON must be cleaned up.
	if _, err := os.Stat(strings.TrimSuffix(audioPath, ".wav") + ".json"); !os.IsNotExist(err) {
		t.Error("whisper JSON output not removed")
	}
}

func TestTranscribeArgs(t *testing.T) {
	fake := &fakeExecutor{json: `{"result":{"language":"ja"},"transcription":[]}`}
	tr := New(testConfig(), fake, logger.New("error"))

	opts := DefaultOptions()
	opts.Prompt = "anime dialogue"
	audioPath := filepath.Join(t.TempDir(), "clip.wav")
	if _, err := tr.Transcribe(context.Background(), audioPath, "ja", opts); err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if fake.name != "./whisper-cli" {
		t.Errorf("binary = %q", fake.name)
	}

	joined := strings.Join(fake.args, " ")
	for _, want := range []string{
		"-m models/ggml-large-v3.bin",
		"-oj",
		"-l ja",
		"-t 4",
		"-bs 5",
		"-bo 5",
		"-mc 0",
		"-nth 0.3",
		"-lpt -1",
		"-et 2",
		"--prompt anime dialogue",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q in %q", want, joined)
		}
	}
}

func TestTranscribeSilence(t *testing.T) {
	fake := &fakeExecutor{json: `{"result":{"language":"ja"},"transcription":[]}`}
	tr := New(testConfig(), fake, logger.New("error"))

	audioPath := filepath.Join(t.TempDir(), "silence.wav")
	result, err := tr.Transcribe(context.Background(), audioPath, "ja", DefaultOptions())
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if len(result.Segments) != 0 {
		t.Errorf("silence produced %d segments, want 0", len(result.Segments))
	}
}

func TestTranscribeToolFailure(t *testing.T) {
	fake := &fakeExecutor{err: errors.New("exit status 1")}
	tr := New(testConfig(), fake, logger.New("error"))

	result, err := tr.Transcribe(context.Background(), "clip.wav", "ja", DefaultOptions())
	if !errors.Is(err, errs.ErrTranscription) {
		t.Errorf("error = %v, want ErrTranscription", err)
	}
	if result != nil {
		t.Error("tool failure must not return a partial result")
	}
}

func TestTranscribeDropsDegenerateSegments(t *testing.T) {
	payload := `{
  "result": {"language": "ja"},
  "transcription": [
    {"offsets": {"from": 0, "to": 0}, "text": " ノイズ"},
    {"offsets": {"from": 500, "to": 1500}, "text": " 本文"},
    {"offsets": {"from": 1500, "to": 2000}, "text": "  "}
  ]
}`
	result, err := parseWhisperJSON([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Segments) != 1 || result.Segments[0].Text != "本文" {
		t.Errorf("segments = %+v, want only 本文", result.Segments)
	}
}

func TestTranscribeText(t *testing.T) {
	fake := &fakeExecutor{json: sampleJSON}
	tr := New(testConfig(), fake, logger.New("error"))

	audioPath := filepath.Join(t.TempDir(), "clip.wav")
	text, err := tr.TranscribeText(context.Background(), audioPath, "ja", DefaultOptions())
	if err != nil {
		t.Fatalf("TranscribeText() error = %v", err)
	}
	if text != "こんにちは。元気ですか" {
		t.Errorf("TranscribeText() = %q", text)
	}
}
