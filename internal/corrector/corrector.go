package corrector

import (
	"context"
	"fmt"

	"github.com/svdC1/mirumoji-open-api/internal/llm"
	"github.com/svdC1/mirumoji-open-api/internal/logger"
	"github.com/svdC1/mirumoji-open-api/internal/pricing"
	"github.com/svdC1/mirumoji-open-api/internal/session"
	"github.com/svdC1/mirumoji-open-api/internal/subtitle"
)

// fixSystemMessage states the correction contract: the model may edit text
// and merge split-sentence cues, but never alters timestamps beyond the merge
// rule and never adds cues or commentary. The contract is prompt-enforced;
// the only machine check on the reply is that it parses as sequential SRT.
const fixSystemMessage = `You are an expert subtitle editor for Japanese anime. You understand:
- Conversational Japanese, character names, honorifics, onomatopoeia and scene-specific slang.
- How to pick the correct Kanji/Kana from phonetic transcriptions based on context.
- Natural sentence flow and typical timing for subtitles.

Your job is to clean only the text of each SRT cue:
- Fix mis-recognized Kanji or Kana.
- Merge cues that split a single sentence (new cue's start = earlier, end = later).
- Remove any pure gibberish or repeated song-lyric artifacts.
- Insert correct punctuation (。？！、) and adjust spacing.

You must not:
- Change any start/end timestamps.
- Renumber beyond simple sequential order.
- Add or remove cues (only merge as above).
- Add any commentary or explanations.

Output only the cleaned .srt file content.`

// Corrector rewrites subtitle text through a single-shot LLM request while
// preserving timing.
type Corrector struct {
	provider  llm.Provider
	model     string
	maxTokens int64
	pricing   pricing.Table
	logger    logger.Logger
}

// New creates a Corrector. Each Correct call opens a fresh session capped at
// maxContextTokens (0 uses the session default), so the Corrector itself is
// request-scoped state free.
func New(provider llm.Provider, model string, maxContextTokens int64, table pricing.Table, log logger.Logger) *Corrector {
	return &Corrector{
		provider:  provider,
		model:     model,
		maxTokens: maxContextTokens,
		pricing:   table,
		logger:    log,
	}
}

// Correct returns the document with its cue text rewritten by the LLM. With
// applyLLMFix false, or for an empty document, the input is returned
// unchanged and no request is made. A provider failure or an unparseable
// reply is surfaced to the caller; the raw document is never silently
// substituted.
func (c *Corrector) Correct(ctx context.Context, doc subtitle.Document, applyLLMFix bool) (subtitle.Document, error) {
	if !applyLLMFix || len(doc.Cues) == 0 {
		return doc, nil
	}

	sess, err := session.New(session.Config{
		Model:            c.model,
		SystemMessage:    fixSystemMessage,
		MaxContextTokens: c.maxTokens,
		Pricing:          c.pricing,
	}, c.provider, c.logger)
	if err != nil {
		return subtitle.Document{}, err
	}

	c.logger.Info(ctx, "Requesting LLM correction for %d cues", len(doc.Cues))

	exchange, err := sess.Request(ctx, doc.Compose())
	if err != nil {
		return subtitle.Document{}, fmt.Errorf("correction request: %w", err)
	}

	fixed, err := subtitle.Parse(exchange.Response)
	if err != nil {
		return subtitle.Document{}, fmt.Errorf("corrected output: %w", err)
	}

	stats := sess.Stats()
	c.logger.Info(ctx, "Correction done: %d -> %d cues, %d tokens, $%.6f",
		len(doc.Cues), len(fixed.Cues), stats.TotalTokens, stats.Price)

	return fixed, nil
}
