package brain

import "settlers.ai/internal/sim/world/kernel/model"

// noWork waits out the cooldown of any no_work_* status, then picks what
// to try next.
func (t *tick) noWork() {
	if t.b.kind == KindForester || t.b.kind == KindCrafter {
		t.hold("")
	}
	if t.mem.NoWorkUntil == nil {
		t.mem.NoWorkUntil = model.Ptr(t.now + uint64(t.Tuning.Worker.NoWorkCooldownTicks))
		return
	}
	if t.now < *t.mem.NoWorkUntil {
		return
	}
	t.mem.NoWorkUntil = nil

	switch t.b.kind {
	case KindWoodcutter:
		t.woodcutterRecover()
	case KindForester:
		t.startDepositing()
	case KindCrafter:
		t.setStatus(StatusRefreshCraftingRecipe)
	default:
		t.setStatus(StatusIdle)
	}
}

// woodcutterRecover either goes back to chopping, or first gets rid of what
// it carries. A woodcutter that wandered off heads home either way.
func (t *tick) woodcutterRecover() {
	if t.b.rng.IntN(2) == 0 {
		t.setStatus(StatusIdle)
	} else if t.carriesGatherable() {
		if _, reason := t.findDepositChest(); reason == "" {
			t.startDepositing()
		} else {
			t.setStatus(StatusPickingUpBlocks)
		}
	} else {
		t.setStatus(StatusPickingUpBlocks)
	}
	if t.a.BlockPos().DistSq(t.ws) > t.Tuning.Worker.HomeDistSq && !t.a.Moving() {
		t.a.WalkTo(t.ws, t.Tuning.Worker.WalkSpeed, t.Tuning.Worker.WalkCompletion)
	}
}

func (t *tick) carriesGatherable() bool {
	for _, k := range t.inv.Kinds() {
		if t.prof.Gathers(k) {
			return true
		}
	}
	return false
}
