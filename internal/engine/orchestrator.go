package engine

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/chorusbot/chorus/internal/bus"
)

// capacityNotice is the fixed message shown to a sender when every queue
// rejects their message. It is the only user-visible failure in the engine.
const capacityNotice = "I'm a bit overloaded right now — please try again in a moment."

// Orchestrator fans every inbound message out to all persona intake queues.
// Personas are mutually unaware; the orchestrator is pure distribution plus
// the capacity-exceeded notice.
type Orchestrator struct {
	bus      bus.Bus
	bots     []*Bot
	adapters AdapterRegistry
}

// NewOrchestrator creates an Orchestrator over the given personas.
func NewOrchestrator(b bus.Bus, bots []*Bot, adapters AdapterRegistry) *Orchestrator {
	return &Orchestrator{bus: b, bots: bots, adapters: adapters}
}

// Bots returns the persona instances, for status reporting and the janitor.
func (o *Orchestrator) Bots() []*Bot { return o.bots }

// Run starts all persona workers and distributes inbound messages until ctx
// is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, b := range o.bots {
		bot := b
		g.Go(func() error { return bot.Start(gctx) })
	}
	g.Go(func() error { return o.distribute(gctx) })

	return g.Wait()
}

func (o *Orchestrator) distribute(ctx context.Context) error {
	slog.Info("orchestrator: running", "personas", len(o.bots))

	for {
		select {
		case msg := <-o.bus.InboundChan():
			o.dispatch(ctx, msg)
		case <-ctx.Done():
			slog.Info("orchestrator: stopping")
			return ctx.Err()
		}
	}
}

// dispatch offers msg to every persona. When all of them reject it the
// sender gets the fixed capacity notice; partial admission is silent.
func (o *Orchestrator) dispatch(ctx context.Context, msg bus.InboundMessage) {
	admitted := 0
	for _, bot := range o.bots {
		if bot.Offer(msg) {
			admitted++
		}
	}
	if admitted > 0 || msg.IsBot() {
		return
	}

	slog.Warn("orchestrator: all queues full", "conversation", msg.ConversationKey())
	o.notifyCapacity(ctx, msg)
}

func (o *Orchestrator) notifyCapacity(ctx context.Context, msg bus.InboundMessage) {
	channel, chatID, ok := strings.Cut(msg.ConversationKey(), ":")
	if !ok {
		return
	}
	adapter, ok := o.adapters.Adapter(channel)
	if !ok {
		return
	}
	if err := adapter.Send(ctx, chatID, capacityNotice); err != nil {
		slog.Warn("orchestrator: capacity notice failed", "channel", channel, "err", err)
	}
}
