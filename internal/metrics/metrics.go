// Package metrics keeps in-process counters of what the workers do. It is
// written from the tick loop and read from HTTP handlers and tests.
package metrics

import (
	"sort"
	"sync"
	"time"

	"settlers.ai/internal/sim/brain"
)

type Metrics struct {
	mu sync.Mutex

	ticks      uint64
	brainTicks uint64
	stepLast   time.Duration
	stepMax    time.Duration

	transitions map[transitionKey]uint64
	conflicts   map[string]uint64
	status      map[string]map[string]string // world -> agent -> status
}

type transitionKey struct {
	Profession string
	To         string
}

func New() *Metrics {
	return &Metrics{
		transitions: map[transitionKey]uint64{},
		conflicts:   map[string]uint64{},
		status:      map[string]map[string]string{},
	}
}

// Transition implements brain.Sink.
func (m *Metrics) Transition(t brain.Transition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[transitionKey{Profession: t.Profession, To: t.To}]++
	byAgent := m.status[t.World]
	if byAgent == nil {
		byAgent = map[string]string{}
		m.status[t.World] = byAgent
	}
	byAgent[t.Agent] = t.To
}

// Conflict implements brain.Sink.
func (m *Metrics) Conflict(c brain.Conflict) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts[c.Pool.String()]++
}

// ObserveStep records one driver tick. brain is true when workers ran.
func (m *Metrics) ObserveStep(d time.Duration, brains bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
	if brains {
		m.brainTicks++
	}
	m.stepLast = d
	if d > m.stepMax {
		m.stepMax = d
	}
}

// Forget drops the last known status of a removed agent.
func (m *Metrics) Forget(world, agent string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.status[world], agent)
}

type TransitionCount struct {
	Profession string `json:"profession"`
	To         string `json:"to"`
	Count      uint64 `json:"count"`
}

type Snapshot struct {
	Ticks       uint64            `json:"ticks"`
	BrainTicks  uint64            `json:"brain_ticks"`
	StepMS      float64           `json:"step_ms"`
	StepMaxMS   float64           `json:"step_max_ms"`
	Transitions []TransitionCount `json:"transitions"`
	Conflicts   map[string]uint64 `json:"conflicts"`

	// Statuses counts agents per current job status.
	Statuses map[string]int `json:"statuses"`
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Snapshot{
		Ticks:      m.ticks,
		BrainTicks: m.brainTicks,
		StepMS:     float64(m.stepLast.Microseconds()) / 1000,
		StepMaxMS:  float64(m.stepMax.Microseconds()) / 1000,
		Conflicts:  make(map[string]uint64, len(m.conflicts)),
		Statuses:   map[string]int{},
	}
	for k, n := range m.transitions {
		s.Transitions = append(s.Transitions, TransitionCount{Profession: k.Profession, To: k.To, Count: n})
	}
	sort.Slice(s.Transitions, func(i, j int) bool {
		a, b := s.Transitions[i], s.Transitions[j]
		if a.Profession != b.Profession {
			return a.Profession < b.Profession
		}
		return a.To < b.To
	})
	for k, n := range m.conflicts {
		s.Conflicts[k] = n
	}
	for _, byAgent := range m.status {
		for _, st := range byAgent {
			s.Statuses[st]++
		}
	}
	return s
}
