package ticker

import (
	"sync"
	"time"
)

// Manual is a Scheduler and Clock driven by hand, for tests and offline
// rendering. Tick runs every live task once; Advance moves the clock.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	tasks []*manualTask
}

type manualTask struct {
	owner     *Manual
	fn        func()
	cancelled bool
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Every(_ time.Duration, fn func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTask{owner: m, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

func (t *manualTask) Cancel() {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	t.cancelled = true
}

// Tick runs each live task once, in the order they were scheduled.
func (m *Manual) Tick() {
	m.mu.Lock()
	tasks := append([]*manualTask(nil), m.tasks...)
	m.mu.Unlock()
	for _, t := range tasks {
		m.mu.Lock()
		cancelled := t.cancelled
		m.mu.Unlock()
		if !cancelled {
			t.fn()
		}
	}
	m.prune()
}

func (m *Manual) prune() {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	m.tasks = live
}

// Active returns the number of tasks not yet cancelled.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
