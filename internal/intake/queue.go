// Package intake is the admission-control boundary for every inbound
// message: a per-bot bounded FIFO drained by a fixed-size worker pool, with
// drop-on-full backpressure.
package intake

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/chorusbot/chorus/internal/bus"
)

var (
	waitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chorus",
		Subsystem: "intake",
		Name:      "wait_seconds",
		Help:      "Time a message spent queued before a worker picked it up.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"persona"})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chorus",
		Subsystem: "intake",
		Name:      "depth",
		Help:      "Current number of queued messages.",
	}, []string{"persona"})

	dropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chorus",
		Subsystem: "intake",
		Name:      "dropped_total",
		Help:      "Messages rejected because the queue was full or stale.",
	}, []string{"persona", "reason"})
)

// Item is one queued message with its admission timestamp.
type Item struct {
	Msg        bus.InboundMessage
	EnqueuedAt time.Time
}

// Handler processes one admitted message. It is called from a worker
// goroutine and may block on oracle or send calls.
type Handler func(ctx context.Context, msg bus.InboundMessage)

// Queue is a bounded FIFO with a fixed worker concurrency limit.
//
// Offer never blocks: when the queue is full the message is rejected and the
// caller decides how to signal the sender. Workers drain in admission order,
// one item at a time per worker (pipeline, not batch).
type Queue struct {
	persona  string
	capacity int
	workers  int
	handler  Handler

	mu    sync.Mutex
	items []Item

	wake chan struct{}
}

// NewQueue creates a Queue for one persona.
func NewQueue(persona string, capacity, workers int, handler Handler) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	if workers <= 0 {
		workers = 4
	}
	return &Queue{
		persona:  persona,
		capacity: capacity,
		workers:  workers,
		handler:  handler,
		wake:     make(chan struct{}, capacity),
	}
}

// Offer admits msg to the queue. Returns false when the queue is full; the
// message is not retained and must be signalled to the sender by the caller.
func (q *Queue) Offer(msg bus.InboundMessage) bool {
	q.mu.Lock()
	if len(q.items) >= q.capacity {
		q.mu.Unlock()
		dropped.WithLabelValues(q.persona, "full").Inc()
		slog.Warn("intake: queue full, rejecting message",
			"persona", q.persona, "conversation", msg.ConversationKey())
		return false
	}
	q.items = append(q.items, Item{Msg: msg, EnqueuedAt: time.Now()})
	depth := len(q.items)
	q.mu.Unlock()

	queueDepth.WithLabelValues(q.persona).Set(float64(depth))

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Start launches the worker pool and blocks until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.work(ctx)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (q *Queue) work(ctx context.Context) {
	for {
		item, ok := q.pop()
		if !ok {
			select {
			case <-q.wake:
				continue
			case <-ctx.Done():
				return
			}
		}

		waitSeconds.WithLabelValues(q.persona).Observe(time.Since(item.EnqueuedAt).Seconds())
		q.handler(ctx, item.Msg)
	}
}

func (q *Queue) pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Item{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	queueDepth.WithLabelValues(q.persona).Set(float64(len(q.items)))
	return item, true
}

// Len returns the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// EvictStale discards queued items older than maxAge. Called by the janitor.
func (q *Queue) EvictStale(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	q.mu.Lock()
	keep := q.items[:0:0]
	evicted := 0
	for _, item := range q.items {
		if item.EnqueuedAt.Before(cutoff) {
			evicted++
			continue
		}
		keep = append(keep, item)
	}
	q.items = keep
	depth := len(q.items)
	q.mu.Unlock()

	if evicted > 0 {
		queueDepth.WithLabelValues(q.persona).Set(float64(depth))
		dropped.WithLabelValues(q.persona, "stale").Add(float64(evicted))
		slog.Info("intake: evicted stale messages", "persona", q.persona, "count", evicted)
	}
	return evicted
}
