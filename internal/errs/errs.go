package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline. Every failure surfaced by the core wraps
// one of these, so callers classify with errors.Is instead of string matching.
var (
	// ErrConfiguration marks missing credentials, binaries or unsupported
	// model identifiers. Fatal, never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrToolExecution marks a codec subprocess failure. Fatal for the
	// request; captured stderr goes to the error log, not the message.
	ErrToolExecution = errors.New("tool execution failed")

	// ErrTranscription marks a speech model failure. No partial result is
	// ever returned alongside it.
	ErrTranscription = errors.New("transcription failed")

	// ErrContextExceeded marks a session that hit its token ceiling. The
	// caller must start a new session.
	ErrContextExceeded = errors.New("max context exceeded")

	// ErrProvider marks a failed LLM call or an unexpected response shape.
	ErrProvider = errors.New("provider request failed")

	// ErrFormat marks LLM output that failed to deserialize as subtitles.
	ErrFormat = errors.New("malformed subtitle text")
)

// Wrap annotates a sentinel with request-specific detail.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
