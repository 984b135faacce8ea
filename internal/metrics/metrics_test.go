package metrics

import (
	"testing"
	"time"

	"settlers.ai/internal/sim/brain"
	"settlers.ai/internal/sim/reservations"
)

func TestSnapshotCounts(t *testing.T) {
	m := New()
	m.Transition(brain.Transition{World: "w", Agent: "a", Profession: "woodcutter", From: "idle", To: "breaking"})
	m.Transition(brain.Transition{World: "w", Agent: "b", Profession: "woodcutter", From: "idle", To: "breaking"})
	m.Transition(brain.Transition{World: "w", Agent: "a", Profession: "woodcutter", From: "breaking", To: "idle"})
	m.Conflict(brain.Conflict{World: "w", Agent: "b", Pool: reservations.PoolTargets})
	m.ObserveStep(2*time.Millisecond, true)
	m.ObserveStep(time.Millisecond, false)

	s := m.Snapshot()
	if s.Ticks != 2 || s.BrainTicks != 1 {
		t.Fatalf("ticks=%d brain=%d", s.Ticks, s.BrainTicks)
	}
	if s.StepMaxMS != 2 || s.StepMS != 1 {
		t.Fatalf("step=%v max=%v", s.StepMS, s.StepMaxMS)
	}
	if len(s.Transitions) != 2 || s.Transitions[0].To != "breaking" || s.Transitions[0].Count != 2 {
		t.Fatalf("transitions=%+v", s.Transitions)
	}
	if s.Conflicts["target"] != 1 {
		t.Fatalf("conflicts=%v", s.Conflicts)
	}
	if s.Statuses["idle"] != 1 || s.Statuses["breaking"] != 1 {
		t.Fatalf("statuses=%v", s.Statuses)
	}

	m.Forget("w", "a")
	if s := m.Snapshot(); s.Statuses["idle"] != 0 {
		t.Fatalf("forgotten agent still counted: %v", s.Statuses)
	}
}
