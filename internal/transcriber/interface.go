package transcriber

import "context"

// Transcriber defines the interface for speech-to-text over a normalized
// audio file
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string, opts Options) (*Result, error)
	TranscribeText(ctx context.Context, audioPath, language string, opts Options) (string, error)
}
