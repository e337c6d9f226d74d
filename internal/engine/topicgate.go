package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chorusbot/chorus/internal/providers"
	"github.com/chorusbot/chorus/internal/shared/stringutils"
)

const (
	defaultParticipationMaxAge = time.Hour
	defaultTopicCacheTTL       = 10 * time.Minute
	defaultTopicCacheMax       = 500
)

// ParticipationRecord remembers a persona's last contribution to a
// conversation: the topic summary at the time it spoke, and when.
type ParticipationRecord struct {
	TopicSummary string
	Timestamp    time.Time
}

// TopicCacheEntry is a pure cost-reduction cache line: the digest of a topic
// summary already compared for a conversation.
type TopicCacheEntry struct {
	Hash      string
	Timestamp time.Time
}

// TopicGate decides whether a conversation has meaningfully moved on since
// this persona's last contribution, consulting the oracle only when a cheap
// hash check cannot answer. Keys are conversation identifiers.
type TopicGate struct {
	persona string
	oracle  providers.Oracle

	participationMaxAge time.Duration
	cacheTTL            time.Duration
	cacheMax            int

	mu            sync.Mutex
	participation map[string]ParticipationRecord
	cache         map[string]TopicCacheEntry
}

// NewTopicGate creates a gate for one persona with default TTLs.
func NewTopicGate(persona string, oracle providers.Oracle) *TopicGate {
	return &TopicGate{
		persona:             persona,
		oracle:              oracle,
		participationMaxAge: defaultParticipationMaxAge,
		cacheTTL:            defaultTopicCacheTTL,
		cacheMax:            defaultTopicCacheMax,
		participation:       map[string]ParticipationRecord{},
		cache:               map[string]TopicCacheEntry{},
	}
}

// HasTopicChanged reports whether the persona may consider participating
// again in convID given the current topic summary.
//
// Policy, in order: no prior participation → changed; prior participation
// older than the maximum age → changed (forced re-engagement); cache hit
// with identical hash → unchanged with no oracle call; otherwise ask the
// oracle to compare summaries, defaulting to unchanged on an unparseable or
// failed answer. A successful oracle answer refreshes the cache entry
// regardless of outcome.
func (g *TopicGate) HasTopicChanged(ctx context.Context, convID, summary string) bool {
	now := time.Now()
	hash := stringutils.HashText(summary)

	g.mu.Lock()
	rec, hasRec := g.participation[convID]
	entry, hasEntry := g.cache[convID]
	g.mu.Unlock()

	if !hasRec {
		return true
	}
	if now.Sub(rec.Timestamp) > g.participationMaxAge {
		return true
	}
	if hasEntry && entry.Hash == hash && now.Sub(entry.Timestamp) <= g.cacheTTL {
		return false
	}

	changed, err := g.compareWithOracle(ctx, rec.TopicSummary, summary)
	if err != nil {
		slog.Warn("topicgate: oracle comparison failed, treating topic as unchanged",
			"persona", g.persona, "conversation", convID, "err", err)
		return false
	}

	g.mu.Lock()
	g.cache[convID] = TopicCacheEntry{Hash: hash, Timestamp: now}
	g.enforceCacheCeilingLocked()
	g.mu.Unlock()

	return changed
}

func (g *TopicGate) compareWithOracle(ctx context.Context, previous, current string) (bool, error) {
	prompt := fmt.Sprintf(
		"Previous topic:\n%s\n\nCurrent topic:\n%s\n\n"+
			"Has the conversation moved on to a meaningfully different topic? Answer YES or NO.",
		previous, current)

	answer, err := g.oracle.Ask(ctx, "", []providers.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return false, err
	}

	switch ParseVerdict(answer) {
	case VerdictYes:
		return true, nil
	case VerdictNo:
		return false, nil
	default:
		// Ambiguity resolves to "no change", so no reply is triggered.
		slog.Debug("topicgate: ambiguous oracle answer", "persona", g.persona, "answer", stringutils.Truncate(answer, 60))
		return false, nil
	}
}

// RecordParticipation overwrites the persona's record for convID after it
// actually replied.
func (g *TopicGate) RecordParticipation(convID, summary string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.participation[convID] = ParticipationRecord{TopicSummary: summary, Timestamp: time.Now()}
}

// Participation returns the persona's record for convID, if present.
func (g *TopicGate) Participation(convID string) (ParticipationRecord, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.participation[convID]
	return rec, ok
}

// Sweep expires participation records and cache entries past their TTLs and
// enforces the cache size ceiling. Returns counts of evicted records and
// cache entries.
func (g *TopicGate) Sweep(now time.Time) (records, entries int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for convID, rec := range g.participation {
		if now.Sub(rec.Timestamp) > g.participationMaxAge {
			delete(g.participation, convID)
			records++
		}
	}
	for convID, entry := range g.cache {
		if now.Sub(entry.Timestamp) > g.cacheTTL {
			delete(g.cache, convID)
			entries++
		}
	}
	entries += g.enforceCacheCeilingLocked()
	return records, entries
}

// enforceCacheCeilingLocked evicts oldest-timestamp entries until the cache
// fits the ceiling. Caller holds g.mu.
func (g *TopicGate) enforceCacheCeilingLocked() int {
	evicted := 0
	for len(g.cache) > g.cacheMax {
		oldestKey := ""
		var oldest time.Time
		for k, e := range g.cache {
			if oldestKey == "" || e.Timestamp.Before(oldest) {
				oldestKey = k
				oldest = e.Timestamp
			}
		}
		delete(g.cache, oldestKey)
		evicted++
	}
	return evicted
}
