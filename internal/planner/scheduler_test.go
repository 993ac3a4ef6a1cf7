package planner

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/client-platform/internal/model"
	"github.com/atelierhq/client-platform/pkg/logger"
)

type recordingNotifier struct {
	mu    sync.Mutex
	fired []string
}

func (r *recordingNotifier) Notify(id, title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, id)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func task(id string, due time.Time) *model.Task {
	return &model.Task{ID: id, Title: "Deliver moodboard", DueAt: due, Reminder: true}
}

func TestScheduleFiresOncePerTask(t *testing.T) {
	notifier := &recordingNotifier{}
	sched := NewScheduler(notifier, logger.NewNop(), 20*time.Millisecond)
	defer sched.Stop()

	due := time.Now().Add(60 * time.Millisecond)
	require.True(t, sched.Schedule(task("t1", due)))
	require.True(t, sched.Pending("t1"))

	assert.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.False(t, sched.Pending("t1"), "fired reminder is removed from the pending set")
}

func TestRescheduleReplacesPendingReminder(t *testing.T) {
	notifier := &recordingNotifier{}
	sched := NewScheduler(notifier, logger.NewNop(), 20*time.Millisecond)
	defer sched.Stop()

	// Schedule the same task twice with different due times; only the
	// second reminder may fire.
	require.True(t, sched.Schedule(task("t1", time.Now().Add(80*time.Millisecond))))
	require.True(t, sched.Schedule(task("t1", time.Now().Add(120*time.Millisecond))))

	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, 1, notifier.count(), "re-scheduling must not stack reminders")
}

func TestPastDueReminderIsNeverScheduled(t *testing.T) {
	notifier := &recordingNotifier{}
	sched := NewScheduler(notifier, logger.NewNop(), 10*time.Minute)
	defer sched.Stop()

	// Due in 5 minutes with a 10-minute lead: the fire moment is already
	// in the past.
	assert.False(t, sched.Schedule(task("t1", time.Now().Add(5*time.Minute))))
	assert.False(t, sched.Pending("t1"))
	assert.Zero(t, notifier.count())
}

func TestCancelStopsPendingReminder(t *testing.T) {
	notifier := &recordingNotifier{}
	sched := NewScheduler(notifier, logger.NewNop(), 10*time.Millisecond)
	defer sched.Stop()

	require.True(t, sched.Schedule(task("t1", time.Now().Add(60*time.Millisecond))))
	sched.Cancel("t1")
	assert.False(t, sched.Pending("t1"))

	time.Sleep(120 * time.Millisecond)
	assert.Zero(t, notifier.count())

	// Cancelling an unknown task is a no-op.
	sched.Cancel("t9")
}

func TestStopCancelsEverything(t *testing.T) {
	notifier := &recordingNotifier{}
	sched := NewScheduler(notifier, logger.NewNop(), 10*time.Millisecond)

	require.True(t, sched.Schedule(task("t1", time.Now().Add(80*time.Millisecond))))
	require.True(t, sched.Schedule(task("t2", time.Now().Add(80*time.Millisecond))))
	sched.Stop()

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, notifier.count())
	assert.False(t, sched.Pending("t1"))
	assert.False(t, sched.Pending("t2"))
}
