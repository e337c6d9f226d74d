// Package channels provides chat-platform channel implementations. Each
// channel delivers observed messages to the engine over the bus and
// satisfies the engine's ChatAdapter capability for outbound sends.
package channels

import (
	"context"
	"log/slog"
	"strings"

	"github.com/chorusbot/chorus/internal/bus"
)

// Channel is one connected chat platform.
type Channel interface {
	Name() string
	// Start runs the platform connection until ctx is cancelled.
	Start(ctx context.Context) error
	// Send delivers one chunk of text to a chat.
	Send(ctx context.Context, chatID, text string) error
	// MaxMessageSize is the platform's outbound text limit in bytes.
	MaxMessageSize() int
}

// Base holds common state and helper methods shared by all channels.
type Base struct {
	channelName bus.ChannelType
	b           bus.Bus
	allowFrom   []string // empty = allow all
}

// NewBase creates a Base with the given channel name, bus, and allowlist.
func NewBase(name bus.ChannelType, b bus.Bus, allowFrom []string) Base {
	return Base{channelName: name, b: b, allowFrom: allowFrom}
}

// IsAllowed checks whether senderID is on the allowlist.
// senderID may be "id|username" (Telegram) or a plain string.
func (b *Base) IsAllowed(senderID string) bool {
	if len(b.allowFrom) == 0 {
		return true
	}
	for _, allowed := range b.allowFrom {
		if allowed == senderID {
			return true
		}
	}
	// Handle "id|username" format used by Telegram.
	if strings.Contains(senderID, "|") {
		for _, part := range strings.Split(senderID, "|") {
			if part == "" {
				continue
			}
			for _, allowed := range b.allowFrom {
				if allowed == part {
					return true
				}
			}
		}
	}
	return false
}

// HandleMessage verifies the sender is allowed, then pushes an
// InboundMessage to the bus. replyTo is the id of the message this one
// answers ("" for a fresh message); isBot flags messages authored by bot
// accounts, which personas observe but never react to.
func (b *Base) HandleMessage(
	senderID, chatID, content, messageID string,
	isBot bool,
	replyTo string,
	media []string,
	metadata map[string]any,
) {
	if !b.IsAllowed(senderID) {
		slog.Warn("access denied", "channel", b.channelName, "sender", senderID)
		return
	}

	msg := bus.NewInboundMessage(string(b.channelName), senderID, chatID, content, messageID)
	msg.SetIsBot(isBot)
	msg.SetReplyToID(replyTo)
	msg.SetMedia(media)
	msg.SetMetadata(metadata)
	b.b.PublishInbound(msg)
}
