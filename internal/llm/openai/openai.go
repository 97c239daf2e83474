package openai

import (
	"context"

	oai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/ssestream"

	"github.com/svdC1/mirumoji-open-api/internal/errs"
	"github.com/svdC1/mirumoji-open-api/internal/llm"
)

// Client is an llm.Provider over the OpenAI chat-completions API.
type Client struct {
	client oai.Client
}

// New creates a Client. A missing API key is a configuration error.
func New(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errs.Wrap(errs.ErrConfiguration, "OPENAI_API_KEY is not set")
	}
	return &Client{client: oai.NewClient(option.WithAPIKey(apiKey))}, nil
}

// Complete sends the full message history and decodes the reply, usage and
// finish reason. Unexpected response shapes fail fast with ErrProvider.
func (c *Client) Complete(ctx context.Context, model string, messages []llm.Message) (llm.Completion, error) {
	resp, err := c.client.Chat.Completions.New(ctx, buildParams(model, messages))
	if err != nil {
		return llm.Completion{}, errs.Wrap(errs.ErrProvider, "chat completion: %v", err)
	}
	if len(resp.Choices) == 0 {
		return llm.Completion{}, errs.Wrap(errs.ErrProvider, "response contains no choices")
	}
	if resp.Usage.TotalTokens == 0 {
		return llm.Completion{}, errs.Wrap(errs.ErrProvider, "response reports no usage")
	}

	choice := resp.Choices[0]
	reason, err := decodeFinishReason(choice.FinishReason)
	if err != nil {
		return llm.Completion{}, err
	}

	return llm.Completion{
		Text: choice.Message.Content,
		Usage: llm.Usage{
			PromptTokens: resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		FinishReason: reason,
	}, nil
}

// StreamComplete opens a streaming completion. The provider reports no usage
// in this mode.
func (c *Client) StreamComplete(ctx context.Context, model string, messages []llm.Message) (llm.Stream, error) {
	s := c.client.Chat.Completions.NewStreaming(ctx, buildParams(model, messages))
	if err := s.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrProvider, "open stream: %v", err)
	}
	return &stream{inner: s}, nil
}

func buildParams(model string, messages []llm.Message) oai.ChatCompletionNewParams {
	msgs := make([]oai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			msgs = append(msgs, oai.SystemMessage(m.Content))
		case llm.RoleAssistant:
			msgs = append(msgs, oai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, oai.UserMessage(m.Content))
		}
	}
	return oai.ChatCompletionNewParams{
		Model:    oai.ChatModel(model),
		Messages: msgs,
	}
}

func decodeFinishReason(raw string) (llm.FinishReason, error) {
	switch raw {
	case "stop":
		return llm.FinishStop, nil
	case "length":
		return llm.FinishLength, nil
	case "tool_calls", "function_call":
		return llm.FinishToolCall, nil
	case "content_filter":
		return llm.FinishContentFilter, nil
	case "", "null":
		return llm.FinishInProgress, nil
	}
	return 0, errs.Wrap(errs.ErrProvider, "unexpected finish reason %q", raw)
}

type stream struct {
	inner *ssestream.Stream[oai.ChatCompletionChunk]
	text  string
}

func (s *stream) Next() bool {
	for s.inner.Next() {
		chunk := s.inner.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			s.text = delta
			return true
		}
	}
	return false
}

func (s *stream) Text() string {
	return s.text
}

func (s *stream) Err() error {
	if err := s.inner.Err(); err != nil {
		return errs.Wrap(errs.ErrProvider, "stream: %v", err)
	}
	return nil
}

func (s *stream) Close() error {
	return s.inner.Close()
}
