package mining

import "testing"

func TestParseToolFamily(t *testing.T) {
	if got := ParseToolFamily("AXE"); got != ToolFamilyAxe {
		t.Fatalf("expected axe family, got %v", got)
	}
	if got := ParseToolFamily("shovel"); got != ToolFamilyShovel {
		t.Fatalf("expected shovel family, got %v", got)
	}
	if got := ParseToolFamily(""); got != ToolFamilyNone {
		t.Fatalf("expected none, got %v", got)
	}
}

func TestToolSpeed_OnlyMatchingFamily(t *testing.T) {
	if got := ToolSpeed(ToolFamilyAxe, 4, ToolFamilyAxe); got != 4 {
		t.Fatalf("axe on log: got %v", got)
	}
	if got := ToolSpeed(ToolFamilyPickaxe, 4, ToolFamilyAxe); got != 1 {
		t.Fatalf("pickaxe on log: got %v", got)
	}
	if got := ToolSpeed(ToolFamilyAxe, 0.5, ToolFamilyAxe); got != 1 {
		t.Fatalf("slow tool should count as hands: got %v", got)
	}
}

func TestBreakTicks(t *testing.T) {
	if got := BreakTicks(2, 1); got != 60 {
		t.Fatalf("log by hand: got %d", got)
	}
	if got := BreakTicks(2, 0); got != 60 {
		t.Fatalf("speed below 1 should clamp: got %d", got)
	}
	if got := BreakTicks(0, 1); got != 1 {
		t.Fatalf("zero hardness should take 1 tick: got %d", got)
	}
	if got := BreakTicks(-1, 8); got != Unbreakable {
		t.Fatalf("negative hardness: got %d", got)
	}
}

func TestBreakTicks_DecreasesWithSpeed(t *testing.T) {
	for _, hardness := range []float64{0.2, 0.5, 2, 3, 50} {
		prev := BreakTicks(hardness, 1)
		for _, speed := range []float64{2, 4, 6, 8, 12} {
			got := BreakTicks(hardness, speed)
			if got < 1 {
				t.Fatalf("h=%v s=%v: ticks %d below 1", hardness, speed, got)
			}
			if got > prev {
				t.Fatalf("h=%v s=%v: ticks %d increased from %d", hardness, speed, got, prev)
			}
			if prev > 1 && hardness*30/speed >= 1 && got == prev {
				t.Fatalf("h=%v s=%v: ticks did not decrease from %d", hardness, speed, prev)
			}
			prev = got
		}
	}
}

func TestProgressStepReachesDone(t *testing.T) {
	ticks := BreakTicks(2, 1)
	step := ProgressStep(ticks)
	p := 0.0
	for i := 0; i < ticks; i++ {
		p += step
	}
	if !Broken(p) {
		t.Fatalf("progress %v after %d steps", p, ticks)
	}
	if Broken(p - step) {
		t.Fatalf("broke one step early")
	}
	if ProgressStep(Unbreakable) != 0 {
		t.Fatalf("unbreakable should not progress")
	}
}
