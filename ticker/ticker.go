package ticker

import (
	"sync"
	"time"
)

type (
	// Scheduler runs a function repeatedly until the returned Task is
	// cancelled.
	Scheduler interface {
		Every(interval time.Duration, fn func()) Task
	}

	// Task is a scheduled repeating function. Cancel is idempotent and may be
	// called from inside the function itself.
	Task interface {
		Cancel()
	}

	// Clock tells the current time.
	Clock interface {
		Now() time.Time
	}

	// Real schedules on time.Ticker goroutines.
	Real struct{}

	SystemClock struct{}

	realTask struct {
		once sync.Once
		done chan struct{}
	}
)

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (Real) Every(interval time.Duration, fn func()) Task {
	t := &realTask{done: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-ticker.C:
				// a tick can race with Cancel; check again before running
				select {
				case <-t.done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return t
}

func (t *realTask) Cancel() {
	t.once.Do(func() { close(t.done) })
}

// Slot holds at most one running task. Starting a new task cancels the
// previous one, so a component can never leak duplicate loops.
type Slot struct {
	mu   sync.Mutex
	task Task
}

func (s *Slot) Start(sched Scheduler, interval time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task != nil {
		s.task.Cancel()
	}
	s.task = sched.Every(interval, fn)
}

func (s *Slot) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task != nil {
		s.task.Cancel()
		s.task = nil
	}
}

func (s *Slot) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task != nil
}
