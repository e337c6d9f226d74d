// Package bus defines the message types that flow between chat channels and
// the observer engine.
package bus

import "time"

// InboundMessage is a message observed on a chat channel.
type InboundMessage struct {
	channel   string         // "telegram", "discord", "slack", "cli"
	senderID  string         // user identifier within the channel
	chatID    string         // chat / channel / DM identifier
	content   string         // message text
	messageID string         // platform message id, used for dedup and windowing
	isBot     bool           // true when the author is a bot account
	replyToID string         // id of the message this one replies to ("" = fresh)
	timestamp time.Time      // when the message was received
	media     []string       // local file paths of downloaded attachments
	metadata  map[string]any // channel-specific extra data (username, thread_ts, …)
}

// NewInboundMessage creates an InboundMessage with Timestamp set to now.
// Use the setters to attach optional fields.
func NewInboundMessage(channel, senderID, chatID, content, messageID string) InboundMessage {
	return InboundMessage{
		channel:   channel,
		senderID:  senderID,
		chatID:    chatID,
		content:   content,
		messageID: messageID,
		timestamp: time.Now(),
	}
}

func (m InboundMessage) Channel() string                { return m.channel }
func (m InboundMessage) SenderID() string               { return m.senderID }
func (m InboundMessage) ChatID() string                 { return m.chatID }
func (m InboundMessage) Content() string                { return m.content }
func (m InboundMessage) MessageID() string              { return m.messageID }
func (m InboundMessage) IsBot() bool                    { return m.isBot }
func (m InboundMessage) ReplyToID() string              { return m.replyToID }
func (m InboundMessage) IsReply() bool                  { return m.replyToID != "" }
func (m InboundMessage) Timestamp() time.Time           { return m.timestamp }
func (m InboundMessage) Media() []string                { return m.media }
func (m InboundMessage) Metadata() map[string]any       { return m.metadata }
func (m *InboundMessage) SetIsBot(b bool)               { m.isBot = b }
func (m *InboundMessage) SetReplyToID(id string)        { m.replyToID = id }
func (m *InboundMessage) SetContent(content string)     { m.content = content }
func (m *InboundMessage) SetMedia(media []string)       { m.media = media }
func (m *InboundMessage) SetMetadata(md map[string]any) { m.metadata = md }

// ConversationKey returns the unique key used to identify the conversation.
// Format: "channel:chat_id".
func (m InboundMessage) ConversationKey() string {
	return m.channel + ":" + m.chatID
}

// Preview returns a short snippet of the message content for logging.
func (m InboundMessage) Preview() string {
	preview := m.content
	if len(preview) > 80 {
		preview = preview[:80] + "..."
	}
	return preview
}
