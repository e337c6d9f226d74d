package bus

type ChannelType string

const (
	ChannelTelegram ChannelType = "telegram"
	ChannelDiscord  ChannelType = "discord"
	ChannelSlack    ChannelType = "slack"
	ChannelCLI      ChannelType = "cli"
)

// Bus is the contract between chat channels and the observer engine.
// Replies do not travel back over the bus: the engine needs the send
// outcome to record participation, so it calls the channel adapter
// directly.
type Bus interface {
	// PublishInbound delivers an observed message from a channel to the engine.
	PublishInbound(msg InboundMessage)
	// InboundChan returns a receive-only channel for the engine to consume.
	InboundChan() <-chan InboundMessage
}

// MessageBus is the default in-process Bus implementation backed by a
// buffered Go channel. Channels push InboundMessages; the observer
// engine fans them out to persona intake queues.
type MessageBus struct {
	inbound chan InboundMessage // channels -> engine
}

func NewMessageBus(bufSize int) *MessageBus {
	return &MessageBus{
		inbound: make(chan InboundMessage, bufSize),
	}
}

// PublishInbound sends an InboundMessage to the engine.
func (b *MessageBus) PublishInbound(msg InboundMessage) {
	b.inbound <- msg
}

// InboundChan returns a receive-only view of the inbound channel.
func (b *MessageBus) InboundChan() <-chan InboundMessage {
	return b.inbound
}
