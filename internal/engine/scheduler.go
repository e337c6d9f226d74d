package engine

import (
	"log/slog"
	"sync"
	"time"
)

// defaultTaskGrace is how long past its delay a task may live before the
// janitor reclaims it.
const defaultTaskGrace = time.Minute

// observationTask is the single live observation for one conversation:
// the trigger message, when it was scheduled, and the pending delay handle.
type observationTask struct {
	conversation     string
	triggerMessageID string
	startTime        time.Time
	delay            time.Duration
	timer            *time.Timer
}

// deadline is the instant after which the janitor may reclaim the task.
func (t *observationTask) deadline(grace time.Duration) time.Time {
	return t.startTime.Add(t.delay + grace)
}

// Scheduler owns the per-conversation debounce timers for one persona.
//
// Single-flight is enforced by presence in the task map: a second relevant
// message arriving while a task is pending does not spawn a second task; it
// is implicitly covered by the next history read. Timers are explicit
// handles stored in the map and cancellable by key, which is what makes the
// janitor-eviction invariant enforceable.
type Scheduler struct {
	persona string
	grace   time.Duration
	fire    func(conversation, triggerMessageID string)

	mu    sync.Mutex
	tasks map[string]*observationTask
}

// NewScheduler creates a Scheduler. fire runs the observation pipeline when
// a delay elapses; it is invoked on a fresh goroutine and must call Complete
// when done.
func NewScheduler(persona string, fire func(conversation, triggerMessageID string)) *Scheduler {
	return &Scheduler{
		persona: persona,
		grace:   defaultTaskGrace,
		fire:    fire,
		tasks:   map[string]*observationTask{},
	}
}

// Schedule arms an observation for conversation anchored at trigger.
// Returns false when a task is already pending for the conversation.
func (s *Scheduler) Schedule(conversation, triggerMessageID string, delay time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[conversation]; exists {
		return false
	}

	task := &observationTask{
		conversation:     conversation,
		triggerMessageID: triggerMessageID,
		startTime:        time.Now(),
		delay:            delay,
	}
	task.timer = time.AfterFunc(delay, func() {
		s.fire(conversation, triggerMessageID)
	})
	s.tasks[conversation] = task

	slog.Debug("scheduler: observation scheduled",
		"persona", s.persona, "conversation", conversation, "delay", delay)
	return true
}

// Pending reports whether an observation is in flight for conversation.
func (s *Scheduler) Pending(conversation string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[conversation]
	return ok
}

// Complete removes the task entry, re-opening the conversation for the next
// relevant message. Called at the end of every pipeline run, success or not.
func (s *Scheduler) Complete(conversation string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, conversation)
}

// ReapStuck force-terminates tasks that outlived delay + grace without
// completing, bounding worst-case resource hold. Called by the janitor.
func (s *Scheduler) ReapStuck(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	reaped := 0
	for conversation, task := range s.tasks {
		if now.After(task.deadline(s.grace)) {
			task.timer.Stop()
			delete(s.tasks, conversation)
			reaped++
			slog.Warn("scheduler: reaped stuck observation task",
				"persona", s.persona, "conversation", conversation)
		}
	}
	return reaped
}

// Len returns the number of pending tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
