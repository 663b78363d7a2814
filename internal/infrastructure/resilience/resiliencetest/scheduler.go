// Package resiliencetest provides a manually driven Scheduler for tests.
package resiliencetest

import (
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/resilience"
)

// Scheduler records scheduled functions and runs them only when the test
// advances its clock.
type Scheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	entries []*entry
	history []time.Duration
}

type entry struct {
	seq       int
	at        time.Duration
	delay     time.Duration
	fn        func()
	cancelled bool
	fired     bool
}

func (e *entry) Cancel() bool {
	if e.cancelled || e.fired {
		return false
	}
	e.cancelled = true
	return true
}

var _ resilience.Scheduler = (*Scheduler)(nil)

// New creates a scheduler at virtual time zero
func New() *Scheduler {
	return &Scheduler{}
}

// Schedule records fn to run delay after the current virtual time
func (s *Scheduler) Schedule(delay time.Duration, fn func()) resilience.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	e := &entry{seq: s.seq, at: s.now + delay, delay: delay, fn: fn}
	s.entries = append(s.entries, e)
	s.history = append(s.history, delay)
	return &task{s: s, e: e}
}

type task struct {
	s *Scheduler
	e *entry
}

func (t *task) Cancel() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.e.Cancel()
}

// Delays returns every delay ever passed to Schedule, in call order
func (s *Scheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return nil
	}
	out := make([]time.Duration, len(s.history))
	copy(out, s.history)
	return out
}

// Pending returns the delays of tasks that have neither fired nor been cancelled
func (s *Scheduler) Pending() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Duration
	for _, e := range s.entries {
		if !e.fired && !e.cancelled {
			out = append(out, e.delay)
		}
	}
	return out
}

// Advance moves virtual time forward by d and runs every task that became
// due, in due order. Functions run on the calling goroutine with the
// scheduler unlocked, so they may schedule further tasks; those run too if
// they fall due within the same window.
func (s *Scheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	ran := 0
	for {
		s.mu.Lock()
		next := s.nextDueLocked(target)
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return ran
		}
		next.fired = true
		s.now = next.at
		s.mu.Unlock()

		next.fn()
		ran++
	}
}

// RunNext jumps to the earliest pending task and runs it.
// Returns false when nothing is pending.
func (s *Scheduler) RunNext() bool {
	s.mu.Lock()
	var live []*entry
	for _, e := range s.entries {
		if !e.fired && !e.cancelled {
			live = append(live, e)
		}
	}
	if len(live) == 0 {
		s.mu.Unlock()
		return false
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].at == live[j].at {
			return live[i].seq < live[j].seq
		}
		return live[i].at < live[j].at
	})
	next := live[0]
	next.fired = true
	s.now = next.at
	s.mu.Unlock()

	next.fn()
	return true
}

func (s *Scheduler) nextDueLocked(target time.Duration) *entry {
	var best *entry
	for _, e := range s.entries {
		if e.fired || e.cancelled || e.at > target {
			continue
		}
		if best == nil || e.at < best.at || (e.at == best.at && e.seq < best.seq) {
			best = e
		}
	}
	return best
}
