package brain

import "settlers.ai/internal/sim/reservations"

func (t *tick) carrier(status string) bool {
	switch status {
	case StatusIdle:
		t.findDelivery()
	case StatusWalkingToPickUp:
		if t.reachedTarget() {
			t.pickUpFromChest()
		}
	case StatusStopPickingUpItem:
		if t.mem.Target != nil {
			t.w.SetContainerOpen(*t.mem.Target, false)
		}
		t.releaseTarget()
		t.hold(t.mem.ItemToCarry)
		t.startDepositing()
	default:
		return false
	}
	return true
}

func (t *tick) forgetDelivery() {
	t.releaseTarget()
	t.mem.DepositChest = nil
	t.mem.ItemToCarry = ""
}

// findDelivery pairs a chest holding something its owner does not want with
// another chest whose owner wants it, nearest source first. The source chest
// is claimed in the target pool so two carriers never serve the same chest.
func (t *tick) findDelivery() {
	if !t.inv.Empty() && t.mem.DepositChest != nil {
		t.startDepositing()
		return
	}
	if age, ok := t.Reservations.SnapshotAge(t.now); (!ok || age > uint64(t.Tuning.DepositRefreshEveryTicks)) && t.Refresh != nil {
		t.Refresh()
	}
	chests := t.Reservations.NearestDepositChests(t.w.ID(), t.a.BlockPos())
	for _, from := range chests {
		item, to, ok := deliveryFrom(from, chests)
		if !ok {
			continue
		}
		if !t.reserve(t.Reservations.Targets, from.Pos) {
			continue
		}
		src, dst := from.Pos, to.Pos
		t.mem.Target = &src
		t.mem.DepositChest = &dst
		t.mem.ItemToCarry = item
		if t.walkTo(src) {
			t.setStatus(StatusWalkingToPickUp)
		} else {
			t.forgetDelivery()
		}
		return
	}
	t.forgetDelivery()
	t.setStatus(StatusNoWorkNoChest)
}

func deliveryFrom(from reservations.DepositChest, chests []reservations.DepositChest) (string, reservations.DepositChest, bool) {
	for _, to := range chests {
		if to.Pos == from.Pos {
			continue
		}
		for _, item := range from.Contained {
			if to.Wants(item) {
				return item, to, true
			}
		}
	}
	return "", reservations.DepositChest{}, false
}

func (t *tick) pickUpFromChest() {
	if t.mem.Target == nil {
		t.forgetDelivery()
		t.setStatus(StatusIdle)
		return
	}
	src := *t.mem.Target
	c := t.w.Container(src)
	item := t.mem.ItemToCarry
	if c == nil || item == "" || !c.Contains(item) || t.inv.CanAccept(item) == 0 {
		t.forgetDelivery()
		t.setStatus(StatusNoWorkItemGone)
		return
	}
	t.w.SetContainerOpen(src, true)
	t.inv.Add(item, 1)
	c.Remove(item, 1)
	t.lookAt(src)
	t.setStatus(StatusStopPickingUpItem)
	t.pause(t.Tuning.Worker.PickUpPauseMs)
}
