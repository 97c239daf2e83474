package gemini

import (
	"context"
	"iter"

	"google.golang.org/genai"

	"github.com/svdC1/mirumoji-open-api/internal/errs"
	"github.com/svdC1/mirumoji-open-api/internal/llm"
)

// Client is an llm.Provider over the Gemini API.
type Client struct {
	client *genai.Client
}

// New creates a Client. A missing API key is a configuration error.
func New(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errs.Wrap(errs.ErrConfiguration, "GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrConfiguration, "create gemini client: %v", err)
	}
	return &Client{client: client}, nil
}

// Complete sends the full message history and decodes the reply. The system
// message becomes the system instruction; assistant turns map to the model
// role.
func (c *Client) Complete(ctx context.Context, model string, messages []llm.Message) (llm.Completion, error) {
	contents, config := buildContents(messages)

	result, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return llm.Completion{}, errs.Wrap(errs.ErrProvider, "generate content: %v", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return llm.Completion{}, errs.Wrap(errs.ErrProvider, "empty response")
	}
	if result.UsageMetadata == nil {
		return llm.Completion{}, errs.Wrap(errs.ErrProvider, "response reports no usage")
	}

	candidate := result.Candidates[0]
	reason, err := decodeFinishReason(candidate.FinishReason)
	if err != nil {
		return llm.Completion{}, err
	}

	var text string
	for _, part := range candidate.Content.Parts {
		text += part.Text
	}

	return llm.Completion{
		Text: text,
		Usage: llm.Usage{
			PromptTokens: int64(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int64(result.UsageMetadata.TotalTokenCount),
		},
		FinishReason: reason,
	}, nil
}

// StreamComplete opens a streaming completion. The provider reports no
// incremental usage.
func (c *Client) StreamComplete(ctx context.Context, model string, messages []llm.Message) (llm.Stream, error) {
	contents, config := buildContents(messages)

	seq := c.client.Models.GenerateContentStream(ctx, model, contents, config)
	next, stop := iter.Pull2(seq)
	return &stream{next: next, stop: stop}, nil
}

func buildContents(messages []llm.Message) ([]*genai.Content, *genai.GenerateContentConfig) {
	var config *genai.GenerateContentConfig
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			config = &genai.GenerateContentConfig{
				SystemInstruction: genai.NewContentFromText(m.Content, genai.RoleUser),
			}
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, config
}

func decodeFinishReason(raw genai.FinishReason) (llm.FinishReason, error) {
	switch raw {
	case genai.FinishReasonStop:
		return llm.FinishStop, nil
	case genai.FinishReasonMaxTokens:
		return llm.FinishLength, nil
	case genai.FinishReasonSafety, genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent:
		return llm.FinishContentFilter, nil
	case genai.FinishReasonUnspecified, "":
		return llm.FinishInProgress, nil
	}
	return 0, errs.Wrap(errs.ErrProvider, "unexpected finish reason %q", raw)
}

type stream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
	text string
	err  error
}

func (s *stream) Next() bool {
	if s.err != nil {
		return false
	}
	for {
		resp, err, ok := s.next()
		if !ok {
			return false
		}
		if err != nil {
			s.err = errs.Wrap(errs.ErrProvider, "stream: %v", err)
			return false
		}
		if text := responseText(resp); text != "" {
			s.text = text
			return true
		}
	}
}

func (s *stream) Text() string {
	return s.text
}

func (s *stream) Err() error {
	return s.err
}

func (s *stream) Close() error {
	s.stop()
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text
}
