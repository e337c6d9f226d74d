package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chorusbot/chorus/internal/providers"
)

// fakeOracle answers every Ask with a scripted response and counts calls.
type fakeOracle struct {
	mu      sync.Mutex
	answer  string
	err     error
	calls   int
	prompts []string
}

func (f *fakeOracle) Ask(_ context.Context, _ string, messages []providers.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(messages) > 0 {
		f.prompts = append(f.prompts, messages[len(messages)-1].Content)
	}
	return f.answer, f.err
}

func (f *fakeOracle) DefaultModel() string { return "fake" }

func (f *fakeOracle) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestHasTopicChanged_NoParticipation(t *testing.T) {
	oracle := &fakeOracle{answer: "NO"}
	g := NewTopicGate("p1", oracle)

	if !g.HasTopicChanged(context.Background(), "c1", "anything") {
		t.Error("no participation record must mean changed")
	}
	if oracle.callCount() != 0 {
		t.Errorf("no oracle call expected, got %d", oracle.callCount())
	}
}

func TestHasTopicChanged_ExpiredParticipation(t *testing.T) {
	oracle := &fakeOracle{answer: "NO"}
	g := NewTopicGate("p1", oracle)
	g.participationMaxAge = 10 * time.Millisecond

	g.RecordParticipation("c1", "old topic")
	time.Sleep(30 * time.Millisecond)

	if !g.HasTopicChanged(context.Background(), "c1", "old topic") {
		t.Error("expired participation must force re-engagement")
	}
	if oracle.callCount() != 0 {
		t.Errorf("no oracle call expected for expired record, got %d", oracle.callCount())
	}
}

func TestHasTopicChanged_CacheHitSkipsOracle(t *testing.T) {
	oracle := &fakeOracle{answer: "NO"}
	g := NewTopicGate("p1", oracle)
	g.RecordParticipation("c1", "the topic")

	// First check misses the cache and consults the oracle.
	if g.HasTopicChanged(context.Background(), "c1", "the topic, continued") {
		t.Fatal("oracle said NO; gate must report unchanged")
	}
	if oracle.callCount() != 1 {
		t.Fatalf("expected 1 oracle call, got %d", oracle.callCount())
	}

	// Identical summary within the TTL: answered from the cache.
	if g.HasTopicChanged(context.Background(), "c1", "the topic, continued") {
		t.Fatal("cache hit must report unchanged")
	}
	if oracle.callCount() != 1 {
		t.Errorf("cache hit must not call the oracle, got %d calls", oracle.callCount())
	}
}

func TestHasTopicChanged_CacheBackfilledOnYes(t *testing.T) {
	oracle := &fakeOracle{answer: "YES"}
	g := NewTopicGate("p1", oracle)
	g.RecordParticipation("c1", "databases")

	if !g.HasTopicChanged(context.Background(), "c1", "gardening") {
		t.Fatal("oracle said YES; gate must report changed")
	}
	// The same summary again is a cache hit even though the answer was YES.
	if g.HasTopicChanged(context.Background(), "c1", "gardening") {
		t.Error("identical summary within TTL must come from the cache")
	}
	if oracle.callCount() != 1 {
		t.Errorf("expected 1 oracle call, got %d", oracle.callCount())
	}
}

func TestHasTopicChanged_OracleErrorMeansUnchanged(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("timeout")}
	g := NewTopicGate("p1", oracle)
	g.RecordParticipation("c1", "the topic")

	if g.HasTopicChanged(context.Background(), "c1", "another topic") {
		t.Error("oracle failure must resolve to unchanged")
	}
}

func TestHasTopicChanged_AmbiguousMeansUnchanged(t *testing.T) {
	oracle := &fakeOracle{answer: "well, it depends"}
	g := NewTopicGate("p1", oracle)
	g.RecordParticipation("c1", "the topic")

	if g.HasTopicChanged(context.Background(), "c1", "another topic") {
		t.Error("ambiguous answer must resolve to unchanged")
	}
}

func TestSweep_ExpiresRecordsAndEntries(t *testing.T) {
	oracle := &fakeOracle{answer: "YES"}
	g := NewTopicGate("p1", oracle)
	g.participationMaxAge = time.Minute
	g.cacheTTL = time.Minute

	g.RecordParticipation("c1", "topic")
	g.HasTopicChanged(context.Background(), "c1", "other") // populates the cache

	records, entries := g.Sweep(time.Now().Add(2 * time.Minute))
	if records != 1 || entries != 1 {
		t.Errorf("expected (1,1) evicted, got (%d,%d)", records, entries)
	}
	if _, ok := g.Participation("c1"); ok {
		t.Error("participation record must be gone after sweep")
	}
}

func TestSweep_EnforcesCacheCeiling(t *testing.T) {
	oracle := &fakeOracle{answer: "YES"}
	g := NewTopicGate("p1", oracle)
	g.cacheMax = 2

	now := time.Now()
	g.cache["c1"] = TopicCacheEntry{Hash: "a", Timestamp: now.Add(-3 * time.Second)}
	g.cache["c2"] = TopicCacheEntry{Hash: "b", Timestamp: now.Add(-2 * time.Second)}
	g.cache["c3"] = TopicCacheEntry{Hash: "c", Timestamp: now.Add(-1 * time.Second)}

	g.Sweep(now)
	if len(g.cache) != 2 {
		t.Fatalf("expected cache ceiling of 2, got %d", len(g.cache))
	}
	if _, ok := g.cache["c1"]; ok {
		t.Error("oldest entry must be evicted first")
	}
}
