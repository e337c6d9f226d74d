// Package providers defines the oracle interface and its OpenAI-compatible
// implementation.
//
// The oracle is the external language-model gateway the engine consults for
// yes/no participation and topic decisions and for composing replies. It is
// treated as best-effort, possibly slow, and possibly ambiguous: every call
// carries its own timeout, failures are never retried here, and callers are
// expected to parse answers defensively.
package providers

import "context"

// Message is one turn of oracle input.
// Role is "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// Oracle is the language-model gateway contract.
type Oracle interface {
	// Ask sends system plus the conversation turns and returns the raw
	// model text. An error means this decision cycle ends with no reply.
	Ask(ctx context.Context, system string, messages []Message) (string, error)
	// DefaultModel names the model used when none is configured per call.
	DefaultModel() string
}
