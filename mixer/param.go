package mixer

import (
	"sort"
	"sync"
)

type eventKind int

const (
	setEvent eventKind = iota
	rampEvent
)

type event struct {
	kind  eventKind
	at    float64
	value float64
}

// AutomationParam is a value that can be scheduled along the graph
// timeline. A ramp runs from the previous event (or from time 0 with the
// base value) to its own time and value.
type AutomationParam struct {
	mu     sync.Mutex
	base   float64
	events []event
}

func NewParam(value float64) *AutomationParam {
	return &AutomationParam{base: value}
}

// SetValue drops all scheduled events and holds v.
func (p *AutomationParam) SetValue(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = v
	p.events = nil
}

func (p *AutomationParam) SetValueAtTime(v, at float64) {
	p.insert(event{kind: setEvent, at: at, value: v})
}

func (p *AutomationParam) LinearRampToValueAtTime(v, at float64) {
	p.insert(event{kind: rampEvent, at: at, value: v})
}

// insert keeps events ordered by time; events at equal times stay in the
// order they were scheduled.
func (p *AutomationParam) insert(e event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].at > e.at })
	p.events = append(p.events, event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// CancelScheduledValues removes every event at or after from.
func (p *AutomationParam) CancelScheduledValues(from float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].at >= from })
	p.events = p.events[:i]
}

func (p *AutomationParam) ValueAt(t float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	prevAt, prevValue := 0.0, p.base
	for _, e := range p.events {
		if e.at > t {
			if e.kind == rampEvent && e.at > prevAt {
				frac := (t - prevAt) / (e.at - prevAt)
				if frac < 0 {
					frac = 0
				}
				return prevValue + (e.value-prevValue)*frac
			}
			return prevValue
		}
		prevAt, prevValue = e.at, e.value
	}
	return prevValue
}
