// Package planner schedules local reminders for planner tasks.
package planner

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atelierhq/client-platform/internal/model"
	"github.com/atelierhq/client-platform/pkg/logger"
	"github.com/atelierhq/client-platform/pkg/metrics"
)

// Notifier delivers a reminder at fire time.
type Notifier interface {
	Notify(id, title, body string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(id, title, body string)

// Notify calls f.
func (f NotifierFunc) Notify(id, title, body string) { f(id, title, body) }

// Scheduler schedules one local reminder per task, a fixed lead before
// the due time. Reminders are keyed by "planner_<taskID>", so
// re-scheduling a task replaces its pending reminder rather than
// stacking a duplicate.
type Scheduler struct {
	notifier Notifier
	logger   *logger.Logger
	lead     time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewScheduler creates a scheduler. lead is how long before the due
// time the reminder fires; zero means the 10-minute default.
func NewScheduler(notifier Notifier, log *logger.Logger, lead time.Duration) *Scheduler {
	if lead == 0 {
		lead = 10 * time.Minute
	}
	return &Scheduler{
		notifier: notifier,
		logger:   log,
		lead:     lead,
		timers:   make(map[string]*time.Timer),
	}
}

func reminderID(taskID string) string {
	return "planner_" + taskID
}

// Schedule arms a reminder for the task. Any pending reminder for the
// same task is cancelled first. When the reminder moment has already
// passed, nothing is scheduled: no past-due reminder is ever created.
// Returns whether a reminder was armed.
func (s *Scheduler) Schedule(task *model.Task) bool {
	id := reminderID(task.ID)
	fireAt := task.DueAt.Add(-s.lead)
	delay := time.Until(fireAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}

	if delay <= 0 {
		metrics.RemindersScheduledTotal.WithLabelValues("past_due").Inc()
		s.logger.Debug("skipping past-due reminder",
			zap.String("task_id", task.ID), zap.Time("due_at", task.DueAt))
		return false
	}

	title := task.Title
	body := "Due " + task.DueAt.Local().Format("3:04 PM")
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		s.notifier.Notify(id, title, body)
	})

	metrics.RemindersScheduledTotal.WithLabelValues("scheduled").Inc()
	s.logger.Debug("reminder scheduled",
		zap.String("task_id", task.ID), zap.Duration("in", delay))
	return true
}

// Cancel stops the pending reminder for a task, if any.
func (s *Scheduler) Cancel(taskID string) {
	id := reminderID(taskID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// Pending reports whether a reminder is armed for the task.
func (s *Scheduler) Pending(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[reminderID(taskID)]
	return ok
}

// Stop cancels every pending reminder.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
