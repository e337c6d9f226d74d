// Package history provides the bounded, time-windowed, per-conversation
// message buffer used where the host platform has no native fetch-recent-
// history API.
package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StoredMessage is one observed message in a conversation buffer.
type StoredMessage struct {
	MessageID string
	Author    string
	Content   string
	IsBot     bool
	IsReply   bool // reply-continuation, as opposed to a fresh question
	Timestamp time.Time
}

// Store keeps a bounded message buffer per conversation.
//
// Recording is idempotent on message id so several independent bot instances
// can observe the same inbound event; buffers are capped per conversation
// (oldest evicted first) and swept by age in the background. Message lists
// are monotonically non-decreasing in timestamp order within a conversation.
type Store struct {
	limit  int           // hard per-conversation cap
	expiry time.Duration // messages older than this are swept

	mu    sync.Mutex
	convs map[string][]StoredMessage
	seen  map[string]map[string]struct{} // convID → recorded message ids
}

// NewStore creates a Store with the given per-conversation cap and message
// expiry window.
func NewStore(limit int, expiry time.Duration) *Store {
	if limit <= 0 {
		limit = 200
	}
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Store{
		limit:  limit,
		expiry: expiry,
		convs:  map[string][]StoredMessage{},
		seen:   map[string]map[string]struct{}{},
	}
}

// Record appends msg to the conversation buffer.
//
// A second call with the same MessageID is a no-op. An empty MessageID gets
// a generated one (such messages cannot be deduplicated across instances).
// Timestamps are clamped so the buffer stays non-decreasing.
func (s *Store) Record(convID string, msg StoredMessage) {
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.seen[convID]
	if !ok {
		ids = map[string]struct{}{}
		s.seen[convID] = ids
	}
	if _, dup := ids[msg.MessageID]; dup {
		return
	}
	ids[msg.MessageID] = struct{}{}

	buf := s.convs[convID]
	if n := len(buf); n > 0 && msg.Timestamp.Before(buf[n-1].Timestamp) {
		msg.Timestamp = buf[n-1].Timestamp
	}
	buf = append(buf, msg)

	// Hard cap: evict oldest first.
	if len(buf) > s.limit {
		for _, old := range buf[:len(buf)-s.limit] {
			delete(ids, old.MessageID)
		}
		buf = append(buf[:0:0], buf[len(buf)-s.limit:]...)
	}
	s.convs[convID] = buf
}

// History returns up to limit messages for convID, oldest first.
//
// When sinceMessageID is supplied: messages strictly before the anchor are
// excluded, the anchor itself is always included, and later messages are
// excluded unless they are from a bot or flagged as reply-continuations.
// This lets an observer see the conversation so far minus any brand-new
// unrelated question that arrived while it was waiting. An unknown anchor id
// behaves as if no anchor were given.
func (s *Store) History(convID string, limit int, sinceMessageID string) []StoredMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.convs[convID]
	if len(buf) == 0 {
		return nil
	}

	var out []StoredMessage
	if sinceMessageID == "" {
		out = append(out, buf...)
	} else {
		anchor := -1
		for i, m := range buf {
			if m.MessageID == sinceMessageID {
				anchor = i
				break
			}
		}
		if anchor < 0 {
			out = append(out, buf...)
		} else {
			out = append(out, buf[anchor])
			for _, m := range buf[anchor+1:] {
				if m.IsBot || m.IsReply {
					out = append(out, m)
				}
			}
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Len returns the number of buffered messages for convID.
func (s *Store) Len(convID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs[convID])
}

// Sweep removes messages older than the expiry window and deletes emptied
// conversation entries. Returns the number of messages removed.
func (s *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-s.expiry)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for convID, buf := range s.convs {
		keep := buf[:0:0]
		for _, m := range buf {
			if m.Timestamp.After(cutoff) {
				keep = append(keep, m)
			} else {
				delete(s.seen[convID], m.MessageID)
				removed++
			}
		}
		if len(keep) == 0 {
			delete(s.convs, convID)
			delete(s.seen, convID)
			continue
		}
		s.convs[convID] = keep
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
// It runs independently of any read or write call.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(time.Now()); n > 0 {
				slog.Debug("history: swept expired messages", "removed", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
