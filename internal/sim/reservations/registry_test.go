package reservations

import (
	"sync"
	"sync/atomic"
	"testing"

	"settlers.ai/internal/sim/world/kernel/model"
)

const w = "overworld"

type liveSet map[string]bool

func (l liveSet) alive(_, agent string) bool { return l[agent] }

func TestReserve_Exclusive(t *testing.T) {
	live := liveSet{"a1": true, "a2": true}
	r := New(live.alive)
	p := model.Vec3i{X: 4, Y: 1}

	if !r.Targets.Reserve(w, "a1", p) {
		t.Fatalf("a1 should reserve")
	}
	if r.Targets.Reserve(w, "a2", p) {
		t.Fatalf("a2 must not reserve a1's position")
	}
	if r.Targets.IsAvailable(w, p) {
		t.Fatalf("position should be taken")
	}
	if !r.Targets.Reserve(w, "a1", p) {
		t.Fatalf("re-reserving an owned position should succeed")
	}
	// The other pool and other worlds are independent.
	if !r.Chests.Reserve(w, "a2", p) {
		t.Fatalf("chest pool is separate")
	}
	if !r.Targets.Reserve("nether", "a2", p) {
		t.Fatalf("worlds are separate")
	}

	r.Targets.Release(w, p)
	if !r.Targets.Reserve(w, "a2", p) {
		t.Fatalf("a2 should reserve after release")
	}
	if _, ok := r.Targets.Owned(w, "a1"); ok {
		t.Fatalf("a1 should own nothing after release")
	}
}

func TestReserve_OnePerAgentPerPool(t *testing.T) {
	r := New(nil)
	p1 := model.Vec3i{X: 1}
	p2 := model.Vec3i{X: 2}
	r.Targets.Reserve(w, "a1", p1)
	if !r.Targets.Reserve(w, "a1", p2) {
		t.Fatalf("reserve p2")
	}
	if !r.Targets.IsAvailable(w, p1) {
		t.Fatalf("p1 should be released when a1 claims p2")
	}
	got, ok := r.Targets.Owned(w, "a1")
	if !ok || got != p2 {
		t.Fatalf("owned=%v ok=%v", got, ok)
	}
	if r.Targets.Len() != 1 {
		t.Fatalf("len=%d", r.Targets.Len())
	}
}

func TestReserve_StaleOwnerReclaimed(t *testing.T) {
	live := liveSet{"a1": true, "a2": true}
	r := New(live.alive)
	p := model.Vec3i{Z: 9}
	r.Chests.Reserve(w, "a1", p)

	live["a1"] = false
	if !r.Chests.IsAvailable(w, p) {
		t.Fatalf("dead owner's claim should be available")
	}
	if _, ok := r.Chests.Owner(w, p); ok {
		t.Fatalf("stale entry should be purged")
	}
	if !r.Chests.Reserve(w, "a2", p) {
		t.Fatalf("a2 should take the stale claim")
	}
}

func TestForgetAndRestore(t *testing.T) {
	r := New(nil)
	r.Targets.Reserve(w, "a1", model.Vec3i{X: 1})
	r.Chests.Reserve(w, "a1", model.Vec3i{X: 2})
	r.Chests.Reserve(w, "a2", model.Vec3i{X: 3})

	entries := r.Entries()
	if len(entries) != 3 || entries[0].Pool != PoolTargets {
		t.Fatalf("entries=%+v", entries)
	}

	r.Forget(w, "a1")
	if r.Targets.Len() != 0 || r.Chests.Len() != 1 {
		t.Fatalf("forget left targets=%d chests=%d", r.Targets.Len(), r.Chests.Len())
	}

	r2 := New(nil)
	r2.Restore(entries)
	if pos, ok := r2.Chests.Owned(w, "a1"); !ok || pos.X != 2 {
		t.Fatalf("restore lost a1's chest: %v %v", pos, ok)
	}
}

func TestRestore_ConflictingPositionKeepsMapsConsistent(t *testing.T) {
	r := New(nil)
	p := model.Vec3i{X: 5}
	r.Restore([]Entry{
		{Pool: PoolTargets, World: w, Pos: p, Agent: "a1"},
		{Pool: PoolTargets, World: w, Pos: p, Agent: "a2"},
	})
	if owner, ok := r.Targets.Owner(w, p); !ok || owner != "a2" {
		t.Fatalf("owner=%q ok=%v", owner, ok)
	}
	if _, ok := r.Targets.Owned(w, "a1"); ok {
		t.Fatalf("a1 must not keep a position owned by a2")
	}
	if !r.Targets.Reserve(w, "a1", model.Vec3i{X: 6}) {
		t.Fatalf("a1 should reserve elsewhere")
	}
	if owner, _ := r.Targets.Owner(w, p); owner != "a2" {
		t.Fatalf("a1's reserve released a2's position: owner=%q", owner)
	}
}

func TestReserve_ConcurrentSingleWinner(t *testing.T) {
	r := New(nil)
	p := model.Vec3i{X: 7, Y: 7, Z: 7}
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if r.Targets.Reserve(w, string(rune('a'+i)), p) {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("wins=%d", wins.Load())
	}
}
