package processor

import (
	"context"

	"github.com/svdC1/mirumoji-open-api/internal/breakdown"
)

// Processor defines the pipeline operations consumed by the watcher daemon
// and the one-shot CLI modes
type Processor interface {
	Process(ctx context.Context, mediaPath string) error
	TranscribeAndCorrect(ctx context.Context, mediaPath string, applyLLMFix bool) (string, error)
	TranscribeText(ctx context.Context, mediaPath string) (string, error)
	Breakdown(ctx context.Context, sentence, focus string) (breakdown.Result, error)
}
