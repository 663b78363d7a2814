package resilience

import (
	"sync"
	"time"
)

// Task is a handle to a scheduled function
type Task interface {
	// Cancel stops the task if it has not run yet. It returns true if the
	// call prevented the function from running.
	Cancel() bool
}

// Scheduler runs functions after a delay
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Task
}

// TimerScheduler schedules functions on runtime timers
type TimerScheduler struct{}

// NewTimerScheduler creates a scheduler backed by time.AfterFunc
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

// Schedule runs fn on its own goroutine once delay has elapsed
func (s *TimerScheduler) Schedule(delay time.Duration, fn func()) Task {
	return &timerTask{timer: time.AfterFunc(delay, fn)}
}

type timerTask struct {
	timer *time.Timer
}

func (t *timerTask) Cancel() bool {
	return t.timer.Stop()
}

// Group tracks tasks so they can be cancelled together on shutdown
type Group struct {
	scheduler Scheduler

	mu     sync.Mutex
	nextID uint64
	tasks  map[uint64]Task
	closed bool
}

// NewGroup creates a task group over the given scheduler
func NewGroup(scheduler Scheduler) *Group {
	if scheduler == nil {
		scheduler = NewTimerScheduler()
	}
	return &Group{
		scheduler: scheduler,
		tasks:     make(map[uint64]Task),
	}
}

// Schedule registers fn with the underlying scheduler. Tasks scheduled after
// CancelAll are dropped and nil is returned.
func (g *Group) Schedule(delay time.Duration, fn func()) Task {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}

	g.nextID++
	id := g.nextID
	task := g.scheduler.Schedule(delay, func() {
		g.mu.Lock()
		delete(g.tasks, id)
		g.mu.Unlock()
		fn()
	})
	g.tasks[id] = task
	return task
}

// Pending returns the number of tasks that have not run yet
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tasks)
}

// CancelAll cancels every pending task and refuses new ones.
// Returns the number of tasks that were stopped before running.
func (g *Group) CancelAll() int {
	g.mu.Lock()
	tasks := g.tasks
	g.tasks = make(map[uint64]Task)
	g.closed = true
	g.mu.Unlock()

	stopped := 0
	for _, task := range tasks {
		if task.Cancel() {
			stopped++
		}
	}
	return stopped
}
