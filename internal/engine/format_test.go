package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/chorusbot/chorus/internal/history"
)

func TestFormatHistory_MarksBotTurns(t *testing.T) {
	now := time.Now()
	got := FormatHistory([]history.StoredMessage{
		{Author: "alice", Content: "hi", Timestamp: now},
		{Author: "expert", Content: "hello", IsBot: true, Timestamp: now},
	})
	want := "alice: hi\n[bot] expert: hello"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTopicSummary_UsesLatestNonBotMessage(t *testing.T) {
	msgs := []history.StoredMessage{
		{Author: "alice", Content: "old topic"},
		{Author: "expert", Content: "bot opinion", IsBot: true},
		{Author: "bob", Content: "new topic here"},
		{Author: "expert", Content: "trailing bot turn", IsBot: true},
	}
	if got := TopicSummary(msgs); got != "new topic here" {
		t.Errorf("expected latest non-bot message, got %q", got)
	}
}

func TestTopicSummary_TruncatesLongMessages(t *testing.T) {
	msgs := []history.StoredMessage{
		{Author: "alice", Content: strings.Repeat("a", 500)},
	}
	if got := TopicSummary(msgs); len(got) > topicSummaryLen {
		t.Errorf("summary exceeds %d chars: %d", topicSummaryLen, len(got))
	}
}

func TestTopicSummary_AllBotsFallsBackToHistory(t *testing.T) {
	msgs := []history.StoredMessage{
		{Author: "expert", Content: "only bots here", IsBot: true},
	}
	got := TopicSummary(msgs)
	if !strings.Contains(got, "only bots here") {
		t.Errorf("expected fallback to formatted history, got %q", got)
	}
}
