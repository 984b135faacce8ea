package brain

import (
	"settlers.ai/internal/sim/world/kernel/model"
	"settlers.ai/internal/sim/world/logic/mathx"
	"settlers.ai/internal/sim/world/logic/radius"
)

func (t *tick) forester(status string) bool {
	switch status {
	case StatusIdle:
		t.findPlantingSite()
	case StatusWalkingToPlant:
		if t.reachedTarget() {
			t.plant()
		}
	case StatusPlanting:
		if t.mem.Target != nil {
			t.lookAt(*t.mem.Target)
		}
		t.releaseTarget()
		t.setStatus(StatusIdle)
		t.pause(t.Tuning.Forester.PlantPauseMs)
	default:
		return false
	}
	return true
}

func (t *tick) sapling() (string, bool) {
	for _, k := range t.inv.Kinds() {
		if t.prof.Wants(k) {
			return k, true
		}
	}
	return "", false
}

func (t *tick) hasSapling() bool {
	_, ok := t.sapling()
	return ok
}

// plantingSite is dirt on the planting grid with free space above and no
// block entity next to the sapling spot.
func (t *tick) plantingSite(p model.Vec3i) bool {
	ft := t.Tuning.Forester
	if mathx.Mod(p.X, ft.Spacing) != 0 || mathx.Mod(p.Z, ft.Spacing) != 0 {
		return false
	}
	if !t.w.Block(p).Dirt {
		return false
	}
	spot := p.Up()
	if spot.DistSq(t.ws) > ft.WorkstationRadiusSq {
		return false
	}
	above := t.w.Block(spot)
	if !above.Replaceable || above.Sapling {
		return false
	}
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			if (dx != 0 || dz != 0) && t.w.Block(spot.Offset(dx, 0, dz)).BlockEntity {
				return false
			}
		}
	}
	return t.availableTo(t.Reservations.Targets, spot)
}

func (t *tick) findPlantingSite() {
	if !t.hasSapling() {
		t.startDepositing()
		return
	}
	for p := range radius.Between(t.a.BlockPos(), t.ws, t.Tuning.Forester.SearchRadius, t.plantingSite) {
		spot := p.Up()
		if !t.reserve(t.Reservations.Targets, spot) {
			continue
		}
		t.mem.Target = &spot
		if t.walkTo(spot) {
			t.setStatus(StatusWalkingToPlant)
		} else {
			t.releaseTarget()
		}
		return
	}
	t.setStatus(StatusNoWorkNoPlantingSite)
}

func (t *tick) plant() {
	if t.mem.Target == nil {
		t.setStatus(StatusIdle)
		return
	}
	spot := *t.mem.Target
	item, ok := t.sapling()
	if !ok {
		t.releaseTarget()
		t.setStatus(StatusNoWorkNoSapling)
		return
	}
	t.setStatus(StatusPlanting)
	if !t.w.Block(spot).Replaceable {
		return
	}
	if t.inv.Remove(item, 1) == 1 {
		t.w.SetBlock(spot, item)
	}
	t.hold("")
}
