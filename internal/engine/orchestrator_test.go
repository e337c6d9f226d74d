package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/chorusbot/chorus/internal/bus"
	"github.com/chorusbot/chorus/internal/history"
)

func TestDispatch_FansOutToAllBots(t *testing.T) {
	store := history.NewStore(50, time.Hour)
	adapter := &recordingAdapter{}

	var bots []*Bot
	for _, id := range []string{"a", "b"} {
		cfg := BotConfig{PersonaID: id, Role: observerRole(time.Hour), QueueSize: 8, Workers: 1}
		bots = append(bots, NewBot(cfg, &scriptOracle{answers: []string{"NO"}}, store, nil, adapter, nil, nil))
	}
	o := NewOrchestrator(bus.NewMessageBus(8), bots, adapter)

	o.dispatch(context.Background(), userMsg("m1", "hello"))

	for _, b := range bots {
		if got := b.queue.Len(); got != 1 {
			t.Errorf("persona %s: expected 1 queued message, got %d", b.ID(), got)
		}
	}
	if got := adapter.sent(); len(got) != 0 {
		t.Errorf("partial or full admission must not notify, got %v", got)
	}
}

func TestDispatch_CapacityNoticeWhenAllReject(t *testing.T) {
	store := history.NewStore(50, time.Hour)
	adapter := &recordingAdapter{}

	cfg := BotConfig{PersonaID: "a", Role: observerRole(time.Hour), QueueSize: 1, Workers: 1}
	b := NewBot(cfg, &scriptOracle{answers: []string{"NO"}}, store, nil, adapter, nil, nil)
	// Fill the only slot; workers are not running.
	b.Offer(userMsg("m0", "filler"))

	o := NewOrchestrator(bus.NewMessageBus(8), []*Bot{b}, adapter)
	o.dispatch(context.Background(), userMsg("m1", "overflow"))

	got := adapter.sent()
	if len(got) != 1 || !strings.Contains(got[0], capacityNotice) {
		t.Fatalf("expected one capacity notice, got %v", got)
	}
}

func TestDispatch_NoNoticeForBotMessages(t *testing.T) {
	store := history.NewStore(50, time.Hour)
	adapter := &recordingAdapter{}

	cfg := BotConfig{PersonaID: "a", Role: observerRole(time.Hour), QueueSize: 1, Workers: 1}
	b := NewBot(cfg, &scriptOracle{answers: []string{"NO"}}, store, nil, adapter, nil, nil)
	b.Offer(userMsg("m0", "filler"))

	o := NewOrchestrator(bus.NewMessageBus(8), []*Bot{b}, adapter)

	msg := userMsg("m1", "bot chatter")
	msg.SetIsBot(true)
	o.dispatch(context.Background(), msg)

	if got := adapter.sent(); len(got) != 0 {
		t.Errorf("bot messages never get the capacity notice, got %v", got)
	}
}
