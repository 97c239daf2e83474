package llm

import (
	"context"
	"testing"
)

type stubProvider struct{ name string }

func (s stubProvider) Complete(ctx context.Context, model string, messages []Message) (Completion, error) {
	return Completion{Text: s.name}, nil
}

func (s stubProvider) StreamComplete(ctx context.Context, model string, messages []Message) (Stream, error) {
	return nil, nil
}

func TestRouterRoute(t *testing.T) {
	router := NewRouter(map[string]Provider{
		"openai": stubProvider{"openai"},
		"gemini": stubProvider{"gemini"},
	}, "openai")

	p, err := router.Route("gemini")
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if p.(stubProvider).name != "gemini" {
		t.Errorf("routed to %q, want gemini", p.(stubProvider).name)
	}

	// Unknown engine falls back.
	p, err = router.Route("mistral")
	if err != nil {
		t.Fatalf("Route(fallback) error = %v", err)
	}
	if p.(stubProvider).name != "openai" {
		t.Errorf("fallback routed to %q, want openai", p.(stubProvider).name)
	}
}

func TestRouterEmpty(t *testing.T) {
	router := NewRouter(map[string]Provider{}, "openai")
	if _, err := router.Route("openai"); err == nil {
		t.Error("Route() on empty router expected error")
	}
	if router.Has("openai") {
		t.Error("Has() on empty router = true")
	}
}

func TestFinishReasonStrings(t *testing.T) {
	reasons := []FinishReason{
		FinishStop, FinishLength, FinishToolCall, FinishContentFilter, FinishInProgress,
	}
	seen := map[string]bool{}
	for _, r := range reasons {
		s := r.String()
		if s == "" || s == "unknown finish reason" {
			t.Errorf("FinishReason(%d).String() = %q", r, s)
		}
		if seen[s] {
			t.Errorf("duplicate finish reason string %q", s)
		}
		seen[s] = true
	}
	if FinishReason(42).String() != "unknown finish reason" {
		t.Error("out-of-range finish reason not reported as unknown")
	}
}
