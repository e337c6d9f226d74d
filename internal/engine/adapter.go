// Package engine implements the multi-bot observer orchestration core: the
// per-persona intake pipeline, the debounced observation scheduler, the
// topic-change gate, and reply composition.
package engine

import (
	"context"

	"github.com/chorusbot/chorus/internal/history"
)

// ChatAdapter is the minimal capability the engine needs from a chat
// platform: send text out and declare the platform's maximum message size.
// Inbound delivery happens over the message bus and is not part of this
// contract.
type ChatAdapter interface {
	// Send delivers one chunk of text to a chat. Each chunk send is
	// independently failable.
	Send(ctx context.Context, chatID, text string) error
	// MaxMessageSize returns the platform's outbound text limit in bytes.
	MaxMessageSize() int
}

// AdapterRegistry resolves the adapter for a channel name.
type AdapterRegistry interface {
	Adapter(channel string) (ChatAdapter, bool)
}

// HistorySource supplies windowed conversation history. It is satisfied by
// the shared history.Store, or by a platform's native fetch where one
// exists.
type HistorySource interface {
	History(convID string, limit int, sinceMessageID string) []history.StoredMessage
}
