package llm

import "context"

// Role identifies who authored a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Usage is the token accounting reported for one completed request.
type Usage struct {
	PromptTokens int64
	OutputTokens int64
	TotalTokens  int64
}

// FinishReason classifies why a response terminated. Providers must map
// their native values onto these codes at the boundary and fail with
// ErrProvider on anything they do not recognize.
type FinishReason int

const (
	FinishStop FinishReason = iota
	FinishLength
	FinishToolCall
	FinishContentFilter
	FinishInProgress
)

func (f FinishReason) String() string {
	switch f {
	case FinishStop:
		return "success, complete message"
	case FinishLength:
		return "token limit exceeded, incomplete message"
	case FinishToolCall:
		return "model decided to call a function, incomplete message"
	case FinishContentFilter:
		return "content flagged and stopped by the content filter, incomplete message"
	case FinishInProgress:
		return "response still in progress, incomplete message"
	}
	return "unknown finish reason"
}

// Completion is a fully decoded provider response.
type Completion struct {
	Text         string
	Usage        Usage
	FinishReason FinishReason
}

// Stream is a lazy, single-pass sequence of text increments. Next advances to
// the next increment; after it returns false, Err distinguishes a clean end
// of stream from a transport failure. Close releases the connection and is
// safe to call at any point.
type Stream interface {
	Next() bool
	Text() string
	Err() error
	Close() error
}

// Provider is a chat-completion backend. Implementations decode usage and
// finish reasons into the types above and wrap every failure in ErrProvider.
// The streaming variant reports no usage; that gap is accepted by callers.
type Provider interface {
	Complete(ctx context.Context, model string, messages []Message) (Completion, error)
	StreamComplete(ctx context.Context, model string, messages []Message) (Stream, error)
}
