package brain

import (
	"settlers.ai/internal/sim/world/kernel/model"
	"settlers.ai/internal/sim/world/logic/radius"
)

// keepPickingUpBlocks walks over dropped items the profession gathers. The
// world moves them into the inventory on contact; the brain only steers.
func (t *tick) keepPickingUpBlocks() {
	if t.mem.WalkTarget != nil && !t.reachedTarget() {
		return
	}
	if t.mem.JobStatus != StatusPickingUpBlocks {
		// reachedTarget gave up.
		return
	}
	wk := t.Tuning.Worker
	here := t.a.BlockPos()
	maxWs := wk.PickUpRadius * wk.PickUpRadius
	p, ok := radius.First(radius.Between(t.ws, here, wk.PickUpRadius, func(p model.Vec3i) bool {
		if dy := p.Y - here.Y; dy > wk.PickUpMaxDY || dy < -wk.PickUpMaxDY {
			return false
		}
		if p.DistSq(t.ws) > maxWs {
			return false
		}
		return t.wantsDropAt(p)
	}))
	if !ok {
		t.setStatus(StatusIdle)
		return
	}
	t.walkTo(p)
}

func (t *tick) wantsDropAt(p model.Vec3i) bool {
	for _, e := range t.w.ItemsAt(p) {
		if t.prof.Gathers(e.Item) && t.inv.CanAccept(e.Item) > 0 {
			return true
		}
	}
	return false
}
