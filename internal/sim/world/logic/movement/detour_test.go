package movement

import "testing"

// flat builds a StandFunc over a y=1 walking plane with the given walls.
func flat(walls map[[2]int]bool) StandFunc {
	return func(from Pos, x, z int) (Pos, bool) {
		if walls[[2]int{x, z}] {
			return Pos{}, false
		}
		return Pos{X: x, Y: 1, Z: z}, true
	}
}

func TestNextStep_Direct(t *testing.T) {
	got, ok := NextStep(Pos{Y: 1}, Pos{X: 5, Y: 1}, 8, flat(nil))
	if !ok || got != (Pos{X: 1, Y: 1}) {
		t.Fatalf("got=%v ok=%v", got, ok)
	}
}

func TestNextStep_DetoursAroundWall(t *testing.T) {
	walls := map[[2]int]bool{{1, 0}: true, {1, 1}: true, {1, -1}: false}
	got, ok := NextStep(Pos{Y: 1}, Pos{X: 3, Y: 1}, 8, flat(walls))
	if !ok {
		t.Fatalf("expected a detour")
	}
	if got.X != 0 || (got.Z != 1 && got.Z != -1) {
		t.Fatalf("unexpected first step %v", got)
	}
}

func TestNextStep_Stuck(t *testing.T) {
	walls := map[[2]int]bool{{1, 0}: true, {-1, 0}: true, {0, 1}: true, {0, -1}: true}
	if _, ok := NextStep(Pos{Y: 1}, Pos{X: 4, Y: 1}, 8, flat(walls)); ok {
		t.Fatalf("enclosed agent should be stuck")
	}
	if _, ok := NextStep(Pos{Y: 1}, Pos{Y: 1}, 8, flat(nil)); ok {
		t.Fatalf("no step needed at the target")
	}
}

func TestNextStep_StepsUp(t *testing.T) {
	stand := func(from Pos, x, z int) (Pos, bool) {
		if x >= 1 {
			return Pos{X: x, Y: 2, Z: z}, true
		}
		return Pos{X: x, Y: 1, Z: z}, true
	}
	got, ok := NextStep(Pos{Y: 1}, Pos{X: 3, Y: 2}, 4, stand)
	if !ok || got != (Pos{X: 1, Y: 2}) {
		t.Fatalf("got=%v ok=%v", got, ok)
	}
}
