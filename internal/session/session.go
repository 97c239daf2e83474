package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/svdC1/mirumoji-open-api/internal/errs"
	"github.com/svdC1/mirumoji-open-api/internal/llm"
	"github.com/svdC1/mirumoji-open-api/internal/logger"
	"github.com/svdC1/mirumoji-open-api/internal/pricing"
)

const defaultSystemMessage = "You are a helpful assistant."

const defaultMaxContextTokens = 100_000

// Config describes one session.
type Config struct {
	Model            string
	SystemMessage    string
	MaxContextTokens int64
	Pricing          pricing.Table
}

// RequestRecord is the accounting entry for one completed request. Immutable
// after creation.
type RequestRecord struct {
	Output       string
	PromptTokens int64
	OutputTokens int64
	TotalTokens  int64
	FinishReason llm.FinishReason
	Price        float64
}

// Stats are the cumulative counters for one session.
type Stats struct {
	PromptTokens  int64
	OutputTokens  int64
	TotalTokens   int64
	Price         float64
	RequestCount  int
	Requests      []RequestRecord
	FinishReasons []string
}

func (s Stats) clone() Stats {
	cp := s
	cp.Requests = append([]RequestRecord(nil), s.Requests...)
	cp.FinishReasons = append([]string(nil), s.FinishReasons...)
	return cp
}

// Exchange is one prompt/response pair.
type Exchange struct {
	Prompt   string
	Response string
}

// Session is a stateful conversational wrapper around one provider and one
// model. It tracks message history, token consumption and monetary cost, and
// refuses further requests once the cumulative token count reaches the
// configured ceiling. A Session is owned by one logical request and is not
// safe for concurrent use.
type Session struct {
	cfg      Config
	provider llm.Provider
	logger   logger.Logger

	messages []llm.Message
	stats    Stats
	archive  []Stats
}

// New creates a session in the fresh state. The model must be registered in
// the pricing table.
func New(cfg Config, provider llm.Provider, log logger.Logger) (*Session, error) {
	if provider == nil {
		return nil, errs.Wrap(errs.ErrConfiguration, "no LLM provider configured")
	}
	if !cfg.Pricing.Supports(cfg.Model) {
		return nil, errs.Wrap(errs.ErrConfiguration,
			"model %q not supported, expected one of %v", cfg.Model, cfg.Pricing.Models())
	}
	if cfg.SystemMessage == "" {
		cfg.SystemMessage = defaultSystemMessage
	}
	if cfg.MaxContextTokens == 0 {
		cfg.MaxContextTokens = defaultMaxContextTokens
	}

	return &Session{
		cfg:      cfg,
		provider: provider,
		logger:   log,
		messages: []llm.Message{{Role: llm.RoleSystem, Content: cfg.SystemMessage}},
	}, nil
}

// Exhausted reports whether the cumulative token count has reached the
// context ceiling.
func (s *Session) Exhausted() bool {
	return s.stats.RequestCount > 0 && s.stats.TotalTokens >= s.cfg.MaxContextTokens
}

// Request sends the prompt together with the full conversation context so
// chained corrections stay coherent across turns. On success the user and
// assistant turns are appended and all counters update; on any failure
// nothing is mutated.
func (s *Session) Request(ctx context.Context, prompt string) (Exchange, error) {
	if s.Exhausted() {
		return Exchange{}, errs.Wrap(errs.ErrContextExceeded,
			"%d cumulative tokens at or above limit %d", s.stats.TotalTokens, s.cfg.MaxContextTokens)
	}

	history := make([]llm.Message, len(s.messages), len(s.messages)+2)
	copy(history, s.messages)
	history = append(history, llm.Message{Role: llm.RoleUser, Content: prompt})

	completion, err := s.provider.Complete(ctx, s.cfg.Model, history)
	if err != nil {
		return Exchange{}, fmt.Errorf("session request: %w", err)
	}

	price, err := s.cfg.Pricing.ResponsePrice(s.cfg.Model,
		completion.Usage.PromptTokens, completion.Usage.OutputTokens)
	if err != nil {
		return Exchange{}, fmt.Errorf("session request: %w", err)
	}

	s.messages = append(history, llm.Message{Role: llm.RoleAssistant, Content: completion.Text})
	s.stats.Requests = append(s.stats.Requests, RequestRecord{
		Output:       completion.Text,
		PromptTokens: completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.OutputTokens,
		TotalTokens:  completion.Usage.TotalTokens,
		FinishReason: completion.FinishReason,
		Price:        price,
	})
	s.stats.PromptTokens += completion.Usage.PromptTokens
	s.stats.OutputTokens += completion.Usage.OutputTokens
	s.stats.TotalTokens += completion.Usage.TotalTokens
	s.stats.Price += price
	s.stats.FinishReasons = append(s.stats.FinishReasons, completion.FinishReason.String())
	s.stats.RequestCount++

	s.logger.Debug(ctx, "Request %d: %d tokens, $%.6f (%s)",
		s.stats.RequestCount, completion.Usage.TotalTokens, price, completion.FinishReason)

	return Exchange{Prompt: prompt, Response: completion.Text}, nil
}

// StreamRequest opens a streaming request. The user turn is appended
// immediately and survives abandonment; the assistant turn and request count
// commit only once the stream is exhausted without error. Streams carry no
// usage or price accounting because the provider reports none in this mode.
func (s *Session) StreamRequest(ctx context.Context, prompt string) (*Stream, error) {
	if s.Exhausted() {
		return nil, errs.Wrap(errs.ErrContextExceeded,
			"%d cumulative tokens at or above limit %d", s.stats.TotalTokens, s.cfg.MaxContextTokens)
	}

	s.messages = append(s.messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	history := make([]llm.Message, len(s.messages))
	copy(history, s.messages)

	inner, err := s.provider.StreamComplete(ctx, s.cfg.Model, history)
	if err != nil {
		return nil, fmt.Errorf("session stream request: %w", err)
	}
	return &Stream{session: s, inner: inner}, nil
}

// NewSession archives a value copy of the current statistics and resets the
// session to its fresh state. Later mutation of the live session cannot
// corrupt the archived entry.
func (s *Session) NewSession() {
	s.archive = append(s.archive, s.stats.clone())
	s.stats = Stats{}
	s.messages = []llm.Message{{Role: llm.RoleSystem, Content: s.cfg.SystemMessage}}
	s.logger.Info(context.Background(), "Session cleared")
}

// Stats returns a copy of the current session statistics.
func (s *Session) Stats() Stats {
	return s.stats.clone()
}

// History returns a copy of the conversation so far, system message first.
func (s *Session) History() []llm.Message {
	return append([]llm.Message(nil), s.messages...)
}

// Archive returns copies of the statistics of all previous sessions.
func (s *Session) Archive() []Stats {
	archived := make([]Stats, 0, len(s.archive))
	for _, entry := range s.archive {
		archived = append(archived, entry.clone())
	}
	return archived
}

func (s *Session) commitStream(text string) {
	s.messages = append(s.messages, llm.Message{Role: llm.RoleAssistant, Content: text})
	s.stats.RequestCount++
}

// Stream is a single-pass, non-restartable sequence of text increments.
// Abandoning it mid-flight leaves the session's in-flight turn uncommitted.
type Stream struct {
	session   *Session
	inner     llm.Stream
	buf       strings.Builder
	committed bool
}

// Next reports whether another increment is available. When the underlying
// stream ends cleanly, the concatenated text is committed to the session as
// one assistant turn, exactly once.
func (st *Stream) Next() bool {
	if st.inner.Next() {
		st.buf.WriteString(st.inner.Text())
		return true
	}
	if st.inner.Err() == nil && !st.committed {
		st.committed = true
		st.session.commitStream(st.buf.String())
	}
	return false
}

// Text returns the current increment.
func (st *Stream) Text() string {
	return st.inner.Text()
}

// Err returns the first transport failure, if any.
func (st *Stream) Err() error {
	return st.inner.Err()
}

// Close releases the underlying stream. A closed stream can never commit,
// even if Next is called again and the inner stream reports a clean end.
func (st *Stream) Close() error {
	st.committed = true
	return st.inner.Close()
}
