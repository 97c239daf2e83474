package breakdown

import (
	"context"
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/svdC1/mirumoji-open-api/internal/errs"
	"github.com/svdC1/mirumoji-open-api/internal/llm"
	"github.com/svdC1/mirumoji-open-api/internal/logger"
	"github.com/svdC1/mirumoji-open-api/internal/pricing"
	"github.com/svdC1/mirumoji-open-api/internal/session"
)

const explainSystemMessage = `You are a Japanese language API that explains the specific nuance of specified word(s) in a Japanese sentence.
Respond concisely in no more than 100 words.
Specified word(s) MUST be in Japanese.
All other explanation text MUST be in English.
In your response:
DO NOT OUTPUT the language name or the word 'nuance';
DO NOT OUTPUT the context sentence;
DO NOT OUTPUT romaji/furigana or any notes on pronunciation;
Conclude with the specific nuance within the context sentence.`

// Token is one unit of morphological analysis.
type Token struct {
	Surface string `json:"surface"`
	Lemma   string `json:"lemma"`
	Reading string `json:"reading"`
	POS     string `json:"pos"`
}

// Result is a full sentence breakdown. Sentence always echoes the caller's
// input, even when the model was shown a sanitized variant.
type Result struct {
	Sentence    string  `json:"sentence"`
	Focus       string  `json:"focus"`
	Tokens      []Token `json:"tokens"`
	Explanation string  `json:"explanation"`
}

// Service combines morphological analysis with an LLM nuance explanation.
type Service struct {
	tokenizer *tokenizer.Tokenizer
	provider  llm.Provider
	model     string
	maxTokens int64
	pricing   pricing.Table
	logger    logger.Logger
}

// New creates a Service with the bundled IPA dictionary. Explanation sessions
// are capped at maxContextTokens; 0 uses the session default.
func New(provider llm.Provider, model string, maxContextTokens int64, table pricing.Table, log logger.Logger) (*Service, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, errs.Wrap(errs.ErrConfiguration, "load tokenizer dictionary: %v", err)
	}

	return &Service{
		tokenizer: t,
		provider:  provider,
		model:     model,
		maxTokens: maxContextTokens,
		pricing:   table,
		logger:    log,
	}, nil
}

// Tokenize runs morphological analysis over the sentence.
func (s *Service) Tokenize(sentence string) []Token {
	morphemes := s.tokenizer.Tokenize(sentence)
	tokens := make([]Token, 0, len(morphemes))
	for _, m := range morphemes {
		token := Token{Surface: m.Surface, Lemma: m.Surface}
		if base, ok := m.BaseForm(); ok {
			token.Lemma = base
		}
		if reading, ok := m.Reading(); ok {
			token.Reading = reading
		}
		if pos := m.POS(); len(pos) > 0 {
			token.POS = pos[0]
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// Explain requests a nuance explanation for the focus word within the
// sentence, or for the whole sentence when focus is empty. Each call uses a
// fresh single-request session.
func (s *Service) Explain(ctx context.Context, sentence, focus string) (Result, error) {
	sess, err := session.New(session.Config{
		Model:            s.model,
		SystemMessage:    explainSystemMessage,
		MaxContextTokens: s.maxTokens,
		Pricing:          s.pricing,
	}, s.provider, s.logger)
	if err != nil {
		return Result{}, err
	}

	prompt := fmt.Sprintf("%s. Explain usage of word : %s", sentence, focus)
	if focus == "" {
		prompt = fmt.Sprintf("Sentence : %s. Word: None, explain the sentence.", sentence)
	}

	exchange, err := sess.Request(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("explain: %w", err)
	}

	return Result{
		Sentence:    sentence,
		Focus:       focus,
		Tokens:      s.Tokenize(sentence),
		Explanation: exchange.Response,
	}, nil
}

// Breakdown is Explain with the sanitize-and-retry policy: on failure the
// sentence is stripped of bracket characters and retried exactly once, and a
// successful retry still echoes the original sentence in the result. The
// retry's own failure is final.
func (s *Service) Breakdown(ctx context.Context, sentence, focus string) (Result, error) {
	result, err := s.Explain(ctx, sentence, focus)
	if err == nil {
		return result, nil
	}

	cleaned := Sanitize(sentence)
	s.logger.Warn(ctx, "Breakdown failed (%v), retrying with cleaned sentence", err)

	result, retryErr := s.Explain(ctx, cleaned, focus)
	if retryErr != nil {
		return Result{}, fmt.Errorf("breakdown retry: %w", retryErr)
	}

	result.Sentence = sentence
	return result, nil
}

var bracketReplacer = strings.NewReplacer(
	"「", "", "」", "",
	"『", "", "』", "",
	"（", "", "）", "",
	"(", "", ")", "",
)

// Sanitize strips the bracket characters known to derail explanations.
func Sanitize(sentence string) string {
	return bracketReplacer.Replace(sentence)
}
