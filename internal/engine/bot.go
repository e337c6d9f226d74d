package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chorusbot/chorus/internal/attach"
	"github.com/chorusbot/chorus/internal/bus"
	"github.com/chorusbot/chorus/internal/history"
	"github.com/chorusbot/chorus/internal/intake"
	"github.com/chorusbot/chorus/internal/providers"
	"github.com/chorusbot/chorus/internal/roles"
	"github.com/chorusbot/chorus/internal/shared/stringutils"
)

const (
	defaultStaleQueueAge = 5 * time.Minute

	minChosenDelay = 5 * time.Second
	maxChosenDelay = 120 * time.Second
)

// BotConfig bundles the construction parameters for one persona instance.
type BotConfig struct {
	PersonaID string
	Role      roles.RoleConfig
	QueueSize int
	Workers   int
}

// Bot is one persona running as an independent concurrent actor. Personas do
// not coordinate; mutual awareness emerges only through the shared
// conversation store and the visible effects of each other's replies.
type Bot struct {
	id   string
	role roles.RoleConfig

	oracle    providers.Oracle
	store     *history.Store
	source    HistorySource
	adapters  AdapterRegistry
	processor attach.Processor
	delays    *roles.DelayStore

	gate  *TopicGate
	sched *Scheduler
	queue *intake.Queue

	staleQueueAge time.Duration

	delayOnce     sync.Once
	resolvedDelay time.Duration

	mu     sync.Mutex
	runCtx context.Context // set by Start, used by timer callbacks
}

// NewBot wires a persona instance. source may be nil, in which case the
// shared store serves history reads. delays may be nil to disable delay
// persistence.
func NewBot(
	cfg BotConfig,
	oracle providers.Oracle,
	store *history.Store,
	source HistorySource,
	adapters AdapterRegistry,
	processor attach.Processor,
	delays *roles.DelayStore,
) *Bot {
	if source == nil {
		source = store
	}
	if processor == nil {
		processor = attach.NoopProcessor{}
	}

	b := &Bot{
		id:            cfg.PersonaID,
		role:          cfg.Role,
		oracle:        oracle,
		store:         store,
		source:        source,
		adapters:      adapters,
		processor:     processor,
		delays:        delays,
		staleQueueAge: defaultStaleQueueAge,
	}
	b.gate = NewTopicGate(cfg.PersonaID, oracle)
	b.sched = NewScheduler(cfg.PersonaID, b.runObservation)
	b.queue = intake.NewQueue(cfg.PersonaID, cfg.QueueSize, cfg.Workers, b.handleMessage)
	return b
}

// ID returns the persona id.
func (b *Bot) ID() string { return b.id }

// Role returns the persona's resolved behavioural contract.
func (b *Bot) Role() roles.RoleConfig { return b.role }

// Start runs the persona's worker pool until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	b.runCtx = ctx
	b.mu.Unlock()

	slog.Info("bot: started", "persona", b.id, "strategy", b.role.Strategy)
	return b.queue.Start(ctx)
}

// Offer admits a message to the persona's intake queue.
// Returns false when the queue is full.
func (b *Bot) Offer(msg bus.InboundMessage) bool {
	return b.queue.Offer(msg)
}

// Sweep runs all of this persona's janitor eviction paths.
func (b *Bot) Sweep(now time.Time) {
	records, entries := b.gate.Sweep(now)
	stale := b.queue.EvictStale(b.staleQueueAge)
	stuck := b.sched.ReapStuck(now)
	if records+entries+stale+stuck > 0 {
		slog.Debug("bot: janitor sweep",
			"persona", b.id, "participation", records, "topic_cache", entries,
			"stale_queue", stale, "stuck_tasks", stuck)
	}
}

// ---------------------------------------------------------------------------
// Intake
// ---------------------------------------------------------------------------

// handleMessage is the intake worker entry point for one admitted message.
func (b *Bot) handleMessage(ctx context.Context, msg bus.InboundMessage) {
	content := msg.Content()
	if enrichment := b.processor.Process(ctx, content, msg.Media()); !enrichment.Empty() {
		content = attach.Fold(content, enrichment)
	}

	conv := msg.ConversationKey()

	// Every persona records the same inbound event; the store deduplicates
	// on message id.
	b.store.Record(conv, history.StoredMessage{
		MessageID: msg.MessageID(),
		Author:    msg.SenderID(),
		Content:   content,
		IsBot:     msg.IsBot(),
		IsReply:   msg.IsReply(),
		Timestamp: msg.Timestamp(),
	})

	if msg.IsBot() {
		return
	}

	switch b.role.Strategy {
	case roles.StrategyAlwaysOnUserQuestion:
		if !msg.IsReply() {
			b.replyImmediately(ctx, conv, msg)
		}
	case roles.StrategyOracleDecides:
		// Fresh questions and reply-continuations both count as relevant.
		if b.sched.Schedule(conv, msg.MessageID(), b.observationDelay(ctx)) {
			slog.Debug("bot: observation pending", "persona", b.id, "conversation", conv)
		}
	}
}

// observationDelay resolves the persona's delay once: configured value if
// positive, else the persisted oracle choice, else a fresh oracle choice.
func (b *Bot) observationDelay(ctx context.Context) time.Duration {
	b.delayOnce.Do(func() {
		if b.role.ObservationDelay > 0 || b.role.Strategy != roles.StrategyOracleDecides {
			b.resolvedDelay = b.role.ObservationDelay
			return
		}
		if b.delays != nil {
			if d, ok := b.delays.Get(b.role.Name); ok {
				b.resolvedDelay = d
				return
			}
		}
		b.resolvedDelay = b.chooseDelay(ctx)
	})
	return b.resolvedDelay
}

// chooseDelay asks the oracle to pick an observation delay for the persona
// and persists the answer. Any failure falls back to the registry default.
func (b *Bot) chooseDelay(ctx context.Context) time.Duration {
	prompt := fmt.Sprintf(
		"Persona: %s\n\nChoose how many seconds this persona should wait and observe a "+
			"conversation before deciding to speak. Answer with a single integer between %d and %d.",
		b.role.Description, int(minChosenDelay.Seconds()), int(maxChosenDelay.Seconds()))

	answer, err := b.oracle.Ask(ctx, "", []providers.Message{{Role: "user", Content: prompt}})
	if err != nil {
		slog.Warn("bot: delay choice failed, using default", "persona", b.id, "err", err)
		return 30 * time.Second
	}

	secs, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		slog.Warn("bot: unparseable delay choice, using default", "persona", b.id, "answer", stringutils.Truncate(answer, 40))
		return 30 * time.Second
	}

	d := time.Duration(secs) * time.Second
	if d < minChosenDelay {
		d = minChosenDelay
	}
	if d > maxChosenDelay {
		d = maxChosenDelay
	}
	if b.delays != nil {
		if err := b.delays.Put(b.role.Name, d); err != nil {
			slog.Warn("bot: persisting chosen delay", "persona", b.id, "err", err)
		}
	}
	slog.Info("bot: oracle chose observation delay", "persona", b.id, "delay", d)
	return d
}

// ---------------------------------------------------------------------------
// Observation pipeline
// ---------------------------------------------------------------------------

// runObservation is the Scheduled → Gating → Deciding → (Replying | Declined)
// pipeline, invoked when the conversation's delay timer fires. The task entry
// is removed in every branch, re-opening the conversation.
func (b *Bot) runObservation(conversation, triggerMessageID string) {
	defer b.sched.Complete(conversation)

	b.mu.Lock()
	ctx := b.runCtx
	b.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	// Gating: re-fetch windowed history anchored at the trigger.
	msgs := b.source.History(conversation, b.role.MaxObservationMessages, triggerMessageID)
	if len(msgs) == 0 {
		slog.Debug("bot: nothing to observe", "persona", b.id, "conversation", conversation)
		return
	}

	summary := TopicSummary(msgs)
	if !b.gate.HasTopicChanged(ctx, conversation, summary) {
		slog.Debug("bot: topic unchanged, declining", "persona", b.id, "conversation", conversation)
		return
	}

	// Gating may have taken seconds; decide on the freshest view.
	msgs = b.source.History(conversation, b.role.MaxObservationMessages, triggerMessageID)
	if len(msgs) == 0 {
		return
	}

	if !b.decideParticipation(ctx, msgs) {
		slog.Debug("bot: declined participation", "persona", b.id, "conversation", conversation)
		return
	}

	if b.role.RefreshBeforeReply {
		if fresh := b.source.History(conversation, b.role.MaxObservationMessages, triggerMessageID); len(fresh) > 0 {
			msgs = fresh
		}
	}

	b.reply(ctx, conversation, msgs, summary)
}

// decideParticipation asks the oracle the persona's yes/no question.
// Ambiguity and errors never trigger a reply.
func (b *Bot) decideParticipation(ctx context.Context, msgs []history.StoredMessage) bool {
	prompt := fmt.Sprintf("%s\n\nConversation so far:\n%s\n\nShould you reply now? Answer YES or NO.",
		b.role.DecisionPrompt, FormatHistory(msgs))

	answer, err := b.oracle.Ask(ctx, b.role.Description, []providers.Message{{Role: "user", Content: prompt}})
	if err != nil {
		slog.Warn("bot: participation decision failed", "persona", b.id, "err", err)
		return false
	}
	return ParseVerdict(answer) == VerdictYes
}

// replyImmediately is the expert path: answer a fresh user question with no
// delay and no gate.
func (b *Bot) replyImmediately(ctx context.Context, conversation string, msg bus.InboundMessage) {
	msgs := b.source.History(conversation, b.role.MaxObservationMessages, msg.MessageID())
	if len(msgs) == 0 {
		msgs = []history.StoredMessage{{
			MessageID: msg.MessageID(),
			Author:    msg.SenderID(),
			Content:   msg.Content(),
			Timestamp: msg.Timestamp(),
		}}
	}
	b.reply(ctx, conversation, msgs, stringutils.Head(msg.Content(), topicSummaryLen))
}

// reply composes the final answer, sends it, and records the participation.
// On any failure the cycle ends without retry: a missed turn is acceptable,
// a duplicated or stale one is not.
func (b *Bot) reply(ctx context.Context, conversation string, msgs []history.StoredMessage, summary string) {
	system := fmt.Sprintf("You are %s. %s\nReply in your own voice, briefly and naturally. "+
		"Do not prefix your answer with your name.", b.role.Name, b.role.Description)

	answer, err := b.oracle.Ask(ctx, system, []providers.Message{
		{Role: "user", Content: "Conversation so far:\n" + FormatHistory(msgs) + "\n\nYour reply:"},
	})
	if err != nil {
		slog.Warn("bot: reply composition failed", "persona", b.id, "conversation", conversation, "err", err)
		return
	}

	text := stringutils.Sanitize(answer)
	if text == "" {
		slog.Debug("bot: empty reply after sanitization", "persona", b.id, "conversation", conversation)
		return
	}

	if err := b.send(ctx, conversation, text); err != nil {
		slog.Warn("bot: send failed", "persona", b.id, "conversation", conversation, "err", err)
		return
	}

	b.gate.RecordParticipation(conversation, summary)
	b.store.Record(conversation, history.StoredMessage{
		Author:    b.role.Name,
		Content:   text,
		IsBot:     true,
		Timestamp: time.Now(),
	})
}

// send chunks text to the platform's maximum message size and delivers the
// chunks through the channel adapter. Each chunk send is independently
// failable; an error is returned only when nothing was delivered.
func (b *Bot) send(ctx context.Context, conversation, text string) error {
	channel, chatID, ok := strings.Cut(conversation, ":")
	if !ok {
		return fmt.Errorf("malformed conversation key %q", conversation)
	}
	adapter, ok := b.adapters.Adapter(channel)
	if !ok {
		return fmt.Errorf("no adapter for channel %q", channel)
	}

	delivered := 0
	for _, chunk := range SplitMessage(text, adapter.MaxMessageSize()) {
		if err := adapter.Send(ctx, chatID, chunk); err != nil {
			slog.Warn("bot: chunk send failed", "persona", b.id, "channel", channel, "err", err)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("no chunks delivered to %s", conversation)
	}
	return nil
}
