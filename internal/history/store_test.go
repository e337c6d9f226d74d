package history

import (
	"fmt"
	"testing"
	"time"
)

func msg(id, author, content string, isBot, isReply bool, ts time.Time) StoredMessage {
	return StoredMessage{
		MessageID: id,
		Author:    author,
		Content:   content,
		IsBot:     isBot,
		IsReply:   isReply,
		Timestamp: ts,
	}
}

// ─── Record ────────────────────────────────────────────────────────────────

func TestRecord_Idempotent(t *testing.T) {
	s := NewStore(10, time.Hour)
	now := time.Now()

	s.Record("c1", msg("m1", "alice", "hello", false, false, now))
	s.Record("c1", msg("m1", "alice", "hello again", false, false, now))

	if got := s.Len("c1"); got != 1 {
		t.Fatalf("expected 1 message after duplicate record, got %d", got)
	}
	h := s.History("c1", 0, "")
	if h[0].Content != "hello" {
		t.Errorf("duplicate record overwrote content: %q", h[0].Content)
	}
}

func TestRecord_EmptyIDGetsGenerated(t *testing.T) {
	s := NewStore(10, time.Hour)
	s.Record("c1", msg("", "alice", "one", false, false, time.Now()))
	s.Record("c1", msg("", "alice", "two", false, false, time.Now()))

	if got := s.Len("c1"); got != 2 {
		t.Fatalf("expected 2 messages, got %d", got)
	}
	h := s.History("c1", 0, "")
	if h[0].MessageID == "" || h[1].MessageID == "" {
		t.Error("expected generated message ids")
	}
	if h[0].MessageID == h[1].MessageID {
		t.Error("generated ids must be distinct")
	}
}

func TestRecord_ClampsBackwardsTimestamps(t *testing.T) {
	s := NewStore(10, time.Hour)
	now := time.Now()

	s.Record("c1", msg("m1", "alice", "first", false, false, now))
	s.Record("c1", msg("m2", "bob", "second", false, false, now.Add(-time.Minute)))

	h := s.History("c1", 0, "")
	if len(h) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(h))
	}
	if h[1].Timestamp.Before(h[0].Timestamp) {
		t.Error("timestamps must be non-decreasing")
	}
}

func TestRecord_CapEvictsOldest(t *testing.T) {
	s := NewStore(3, time.Hour)
	now := time.Now()
	for i := 0; i < 5; i++ {
		s.Record("c1", msg(fmt.Sprintf("m%d", i), "alice", fmt.Sprintf("msg %d", i), false, false, now.Add(time.Duration(i)*time.Second)))
	}

	h := s.History("c1", 0, "")
	if len(h) != 3 {
		t.Fatalf("expected 3 messages after eviction, got %d", len(h))
	}
	if h[0].MessageID != "m2" || h[2].MessageID != "m4" {
		t.Errorf("expected oldest evicted, got %s..%s", h[0].MessageID, h[2].MessageID)
	}

	// Evicted ids may be recorded again.
	s.Record("c1", msg("m0", "alice", "back", false, false, now.Add(10*time.Second)))
	if got := s.Len("c1"); got != 3 {
		t.Errorf("expected cap to hold at 3, got %d", got)
	}
}

// ─── History windowing ─────────────────────────────────────────────────────

func TestHistory_AnchorWindow(t *testing.T) {
	s := NewStore(10, time.Hour)
	now := time.Now()

	// u1 (trigger), b1 (bot), u2 (reply), u3 (fresh unrelated question)
	s.Record("c1", msg("u1", "alice", "what is Go?", false, false, now))
	s.Record("c1", msg("b1", "expert", "a language", true, false, now.Add(time.Second)))
	s.Record("c1", msg("u2", "alice", "thanks!", false, true, now.Add(2*time.Second)))
	s.Record("c1", msg("u3", "bob", "unrelated: lunch?", false, false, now.Add(3*time.Second)))

	h := s.History("c1", 0, "u1")
	if len(h) != 3 {
		t.Fatalf("expected [u1 b1 u2], got %d messages", len(h))
	}
	for i, want := range []string{"u1", "b1", "u2"} {
		if h[i].MessageID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, h[i].MessageID)
		}
	}
}

func TestHistory_AnchorExcludesEarlier(t *testing.T) {
	s := NewStore(10, time.Hour)
	now := time.Now()
	s.Record("c1", msg("u0", "alice", "old chatter", false, false, now))
	s.Record("c1", msg("u1", "bob", "the question", false, false, now.Add(time.Second)))

	h := s.History("c1", 0, "u1")
	if len(h) != 1 || h[0].MessageID != "u1" {
		t.Fatalf("expected only the anchor, got %v", h)
	}
}

func TestHistory_UnknownAnchorReturnsAll(t *testing.T) {
	s := NewStore(10, time.Hour)
	now := time.Now()
	s.Record("c1", msg("u1", "alice", "one", false, false, now))
	s.Record("c1", msg("u2", "bob", "two", false, false, now.Add(time.Second)))

	h := s.History("c1", 0, "nope")
	if len(h) != 2 {
		t.Fatalf("unknown anchor should return full buffer, got %d", len(h))
	}
}

func TestHistory_LimitKeepsNewest(t *testing.T) {
	s := NewStore(10, time.Hour)
	now := time.Now()
	for i := 0; i < 5; i++ {
		s.Record("c1", msg(fmt.Sprintf("m%d", i), "alice", "x", false, false, now.Add(time.Duration(i)*time.Second)))
	}

	h := s.History("c1", 2, "")
	if len(h) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(h))
	}
	if h[0].MessageID != "m3" || h[1].MessageID != "m4" {
		t.Errorf("limit should keep newest, got %s %s", h[0].MessageID, h[1].MessageID)
	}
}

func TestHistory_EmptyConversation(t *testing.T) {
	s := NewStore(10, time.Hour)
	if h := s.History("nope", 0, ""); h != nil {
		t.Errorf("expected nil for unknown conversation, got %v", h)
	}
}

// ─── Sweep ─────────────────────────────────────────────────────────────────

func TestSweep_RemovesExpired(t *testing.T) {
	s := NewStore(10, time.Hour)
	now := time.Now()
	s.Record("c1", msg("old", "alice", "stale", false, false, now.Add(-2*time.Hour)))
	s.Record("c1", msg("new", "alice", "fresh", false, false, now))

	removed := s.Sweep(now)
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	h := s.History("c1", 0, "")
	if len(h) != 1 || h[0].MessageID != "new" {
		t.Errorf("expected only the fresh message to survive, got %v", h)
	}
}

func TestSweep_DeletesEmptyConversations(t *testing.T) {
	s := NewStore(10, time.Hour)
	now := time.Now()
	s.Record("c1", msg("old", "alice", "stale", false, false, now.Add(-2*time.Hour)))

	s.Sweep(now)
	if got := s.Len("c1"); got != 0 {
		t.Fatalf("expected empty conversation, got %d", got)
	}
	// Swept ids can be recorded again.
	s.Record("c1", msg("old", "alice", "again", false, false, now))
	if got := s.Len("c1"); got != 1 {
		t.Errorf("expected re-record after sweep, got %d", got)
	}
}
