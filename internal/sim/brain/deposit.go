package brain

import (
	"settlers.ai/internal/sim/world/kernel/model"
	"settlers.ai/internal/sim/world/logic/radius"
)

// findDepositChest returns the chest this agent stores into, claiming one
// near the workstation if needed. On failure it returns the no_work status
// to enter without setting it.
func (t *tick) findDepositChest() (model.Vec3i, string) {
	if p := t.mem.DepositChest; p != nil && t.w.Block(*p).Chest {
		// A carrier's destination belongs to another agent; it never claims it.
		if t.b.kind == KindCarrier || t.Reservations.Chests.Reserve(t.w.ID(), t.a.ID(), *p) {
			return *p, ""
		}
		t.mem.DepositChest = nil
	}
	if t.b.kind == KindCarrier {
		// The delivery is abandoned; whatever is carried goes with the next one.
		t.mem.DepositChest = nil
		t.mem.ItemToCarry = ""
		t.hold("")
		return model.Vec3i{}, StatusNoWorkNoChest
	}
	pos, ok := radius.First(radius.Around(t.ws, t.Tuning.Worker.DepositChestRadius, func(p model.Vec3i) bool {
		return t.w.Block(p).Chest && t.availableTo(t.Reservations.Chests, p)
	}))
	if !ok {
		return model.Vec3i{}, StatusNoWorkNoChest
	}
	if !t.reserve(t.Reservations.Chests, pos) {
		return model.Vec3i{}, StatusNoWorkChestReserved
	}
	t.mem.DepositChest = &pos
	return pos, ""
}

func (t *tick) depositChest() (model.Vec3i, bool) {
	p, reason := t.findDepositChest()
	if reason != "" {
		t.setStatus(reason)
		return model.Vec3i{}, false
	}
	return p, true
}

// startDepositing walks to the deposit chest.
func (t *tick) startDepositing() {
	p, ok := t.depositChest()
	if !ok {
		return
	}
	if !t.walkTo(p) {
		return
	}
	t.setStatus(StatusDepositItems)
}

// keepDepositing empties the inventory into the chest once the agent is
// there, then lets the profession take what it needs back out.
func (t *tick) keepDepositing() {
	if !t.reachedTarget() {
		return
	}
	p, ok := t.depositChest()
	if !ok {
		return
	}
	c := t.w.Container(p)
	if c == nil {
		t.setStatus(StatusNoWorkNoChest)
		return
	}
	t.w.SetContainerOpen(p, true)
	for i := range t.inv.Slots {
		s := t.inv.Take(i)
		if s.Empty() {
			continue
		}
		if left := c.Add(s.Item, s.Count); left > 0 {
			t.inv.Put(i, model.ItemStack{Item: s.Item, Count: left})
		}
	}
	t.takeFromChest(c)

	t.setStatus(StatusStopDepositItems)
	t.lookAt(p)
	t.pause(t.Tuning.Worker.DepositPauseMs)
}

// stopDepositing closes the chest; what comes next is up to the profession.
func (t *tick) stopDepositing() {
	if p := t.mem.DepositChest; p != nil {
		t.w.SetContainerOpen(*p, false)
	}
	switch t.b.kind {
	case KindForester:
		if !t.hasSapling() {
			t.setStatus(StatusNoWorkAfterDeposit)
			return
		}
		t.setStatus(StatusIdle)
	case KindCarrier:
		t.hold("")
		t.mem.ItemToCarry = ""
		t.mem.DepositChest = nil
		t.setStatus(StatusNoWorkAfterDeposit)
	case KindCrafter:
		t.craft()
	default:
		t.setStatus(StatusPickingUpBlocks)
	}
}

// takeFromChest picks the profession's supplies: the best tool, a sapling,
// or a recipe's ingredients. Carriers take nothing.
func (t *tick) takeFromChest(c *model.Container) {
	switch t.b.kind {
	case KindForester:
		for i, s := range c.Slots {
			if s.Empty() || !t.prof.Wants(s.Item) {
				continue
			}
			if t.inv.Add(s.Item, 1) > 0 {
				return
			}
			c.Put(i, model.ItemStack{Item: s.Item, Count: s.Count - 1})
			t.hold(s.Item)
			return
		}
	case KindCrafter:
		t.takeIngredients(c)
	case KindCarrier:
	default:
		t.takeBestTool(c)
	}
}

func (t *tick) takeBestTool(c *model.Container) {
	if t.prof.ToolTarget == "" {
		return
	}
	best, bestSpeed := -1, 1.0
	for i, s := range c.Slots {
		if s.Empty() {
			continue
		}
		if sp := t.w.ToolSpeed(s.Item, t.prof.ToolTarget); sp > bestSpeed {
			best, bestSpeed = i, sp
		}
	}
	if best < 0 {
		return
	}
	s := c.Take(best)
	if left := t.inv.Add(s.Item, s.Count); left > 0 {
		c.Put(best, model.ItemStack{Item: s.Item, Count: left})
	}
	if t.inv.Contains(s.Item) {
		t.hold(s.Item)
	}
}
