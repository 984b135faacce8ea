package brain

import (
	"iter"

	"settlers.ai/internal/sim/world/feature/work/mining"
	"settlers.ai/internal/sim/world/kernel/model"
	"settlers.ai/internal/sim/world/logic/radius"
)

var neighbors6 = []model.Vec3i{
	{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
}

func (t *tick) woodcutter(status string) bool {
	switch status {
	case StatusIdle:
		t.findTree()
	case StatusWalkingToTarget:
		if t.reachedTarget() {
			if t.mem.Target == nil {
				t.setStatus(StatusIdle)
				return true
			}
			t.startBreaking(*t.mem.Target)
		}
	case StatusBreaking:
		t.keepBreaking()
	case StatusPillaring:
		t.keepPillaring()
	case StatusStoppingPillaring:
		t.stopPillaring()
	default:
		return false
	}
	return true
}

// choppable is a log, or a leaf touching a log.
func (t *tick) choppable(p model.Vec3i) bool {
	b := t.w.Block(p)
	if b.Log {
		return true
	}
	if !b.Leaf {
		return false
	}
	for _, d := range neighbors6 {
		if t.w.Block(p.Add(d)).Log {
			return true
		}
	}
	return false
}

// findTree claims the nearest log near the agent, or a leaf in the way of
// one, and walks next to it.
func (t *tick) findTree() {
	wc := t.Tuning.Woodcutter
	maxWs := wc.WorkstationRadius * wc.WorkstationRadius
	inRange := func(p model.Vec3i) bool {
		return p.DistSq(t.ws) <= maxWs && t.availableTo(t.Reservations.Targets, p)
	}
	center := t.a.BlockPos().Up()
	logs := radius.Around(center, wc.AgentRadius, func(p model.Vec3i) bool {
		return t.w.Block(p).Log && inRange(p)
	})
	leaves := radius.Around(center, wc.AgentRadius, func(p model.Vec3i) bool {
		return t.w.Block(p).Leaf && t.choppable(p) && inRange(p)
	})
	for _, seq := range []iter.Seq[model.Vec3i]{logs, leaves} {
		for p := range seq {
			stand, ok := t.approach(p)
			if !ok {
				continue
			}
			if !t.reserve(t.Reservations.Targets, p) {
				continue
			}
			t.mem.Target = &p
			t.mem.BreakProgress = nil
			if t.a.Pos().DistSq(p.Center()) <= wc.ReachDistance*wc.ReachDistance {
				t.startBreaking(p)
				return
			}
			if t.walkTo(stand) {
				t.setStatus(StatusWalkingToTarget)
			}
			return
		}
	}
	t.setStatus(StatusNoWorkNoLogs)
}

// approach is the tile next to p to walk to: the first free horizontal
// neighbor, dropped to the ground.
func (t *tick) approach(p model.Vec3i) (model.Vec3i, bool) {
	for _, d := range model.Horizontal {
		n := p.Add(d)
		if collides(t.w.Block(n)) {
			continue
		}
		for i := 0; i < 16 && !collides(t.w.Block(n.Down())); i++ {
			n = n.Down()
		}
		return n, true
	}
	return model.Vec3i{}, false
}

// startBreaking faces target and begins breaking it, or the first choppable
// block in the line of sight. A target high above the agent is reached by
// pillaring up; one that is just too far is given up.
func (t *tick) startBreaking(target model.Vec3i) {
	wc := t.Tuning.Woodcutter
	feet := t.a.BlockPos()
	if t.a.Pos().Dist(target.Center()) > wc.BreakReach {
		dx, dz := target.X-feet.X, target.Z-feet.Z
		if target.Y > feet.Y+wc.PillarMinHeight && dx*dx+dz*dz < wc.PillarHorizontalDistSq {
			t.mem.KeepPillaring = true
			t.setStatus(StatusPillaring)
			return
		}
		t.releaseTarget()
		t.setStatus(StatusNoWorkTooFar)
		return
	}
	t.lookAt(target)
	if hit, ok := t.raycast(target); ok && hit != target && t.reserve(t.Reservations.Targets, hit) {
		target = hit
		t.lookAt(target)
	}
	t.mem.Target = &target
	t.mem.BreakProgress = model.Ptr(0.0)
	t.setStatus(StatusBreaking)
}

// raycast walks from the eye toward target and returns the first choppable
// block it passes through.
func (t *tick) raycast(target model.Vec3i) (model.Vec3i, bool) {
	eye := t.a.EyePos()
	d := target.Center().Sub(eye)
	dist := d.Len()
	if dist == 0 {
		return model.Vec3i{}, false
	}
	step := t.Tuning.Woodcutter.RaycastStep
	dir := d.Scale(1 / dist)
	for s := step; s < dist; s += step {
		p := eye.Add(dir.Scale(s)).Block()
		if p == target {
			break
		}
		if t.w.Block(p).Choppable() {
			return p, true
		}
	}
	return model.Vec3i{}, false
}

func (t *tick) keepBreaking() {
	if t.mem.Target == nil {
		t.setStatus(StatusIdle)
		return
	}
	target := *t.mem.Target
	b := t.w.Block(target)
	if !b.Air() {
		if b.Hardness < 0 {
			t.releaseTarget()
			t.setStatus(StatusNoWorkUnbreakable)
			return
		}
		t.lookAt(target)
		progress := 0.0
		if t.mem.BreakProgress != nil {
			progress = *t.mem.BreakProgress
		}
		if !mining.Broken(progress) {
			ticks := mining.BreakTicks(b.Hardness, t.w.ToolSpeed(t.a.Held(), b.ID))
			t.mem.BreakProgress = model.Ptr(progress + mining.ProgressStep(ticks))
			return
		}
		t.w.BreakBlock(target)
	}
	t.releaseTarget()

	switch {
	case len(t.mem.PillarBlocks) > 0 && t.mem.KeepPillaring:
		t.setStatus(StatusPillaring)
	case len(t.mem.PillarBlocks) > 0:
		t.setStatus(StatusStoppingPillaring)
	case t.inv.Total() > t.Tuning.Woodcutter.DepositThreshold:
		t.startDepositing()
	default:
		t.setStatus(StatusIdle)
	}
}

// keepPillaring climbs by placing blocks under itself until a tree part is
// in reach, checking every few ticks.
func (t *tick) keepPillaring() {
	wc := t.Tuning.Woodcutter
	if t.now%uint64(wc.PillarCheckEveryTicks) != 0 {
		return
	}
	feet := t.a.BlockPos()
	if p, ok := radius.First(radius.Around(feet, wc.PillarScanRadius, func(p model.Vec3i) bool {
		if p.Y <= feet.Y {
			return false
		}
		b := t.w.Block(p)
		if !b.Log && !(b.Leaf && p.X == feet.X && p.Z == feet.Z) {
			return false
		}
		if t.a.Pos().Dist(p.Center()) > wc.BreakReach {
			return false
		}
		return t.availableTo(t.Reservations.Targets, p)
	})); ok && t.reserve(t.Reservations.Targets, p) {
		t.mem.Target = &p
		t.startBreaking(p)
		return
	}

	if !t.logsAbove(feet) {
		t.mem.KeepPillaring = false
		t.setStatus(StatusStoppingPillaring)
		return
	}
	if !t.w.Block(feet).Replaceable || !t.w.Block(feet.Up().Up()).Replaceable {
		t.mem.KeepPillaring = false
		t.setStatus(StatusStoppingPillaring)
		return
	}
	t.a.SetPosition(feet.Up().Bottom())
	if !t.w.SetBlock(feet, wc.PillarBlock) {
		t.a.SetPosition(feet.Bottom())
		t.mem.KeepPillaring = false
		t.setStatus(StatusStoppingPillaring)
		return
	}
	t.mem.PushPillar(feet)
}

func (t *tick) logsAbove(feet model.Vec3i) bool {
	wc := t.Tuning.Woodcutter
	for k := 0; k < wc.PillarLogScanHeight; k++ {
		c := feet.Up().Offset(0, k, 0)
		if _, ok := radius.First(radius.Around(c, wc.PillarLogScanRadius, func(p model.Vec3i) bool {
			return p.Y > feet.Y && t.w.Block(p).Log
		})); ok {
			return true
		}
	}
	return false
}

// stopPillaring breaks the pillar back down, newest block first.
func (t *tick) stopPillaring() {
	p, ok := t.mem.PopPillar()
	if !ok {
		t.a.SetAIEnabled(true)
		t.setStatus(StatusIdle)
		return
	}
	if !t.reserve(t.Reservations.Targets, p) {
		t.mem.PushPillar(p)
		return
	}
	t.a.SetPosition(p.Up().Bottom())
	t.mem.Target = &p
	t.mem.BreakProgress = model.Ptr(0.0)
	t.lookAt(p)
	t.setStatus(StatusBreaking)
}
