package brain

import (
	"settlers.ai/internal/sim/world/kernel/model"
	"settlers.ai/internal/sim/world/logic/radius"
)

func collides(b model.BlockState) bool { return b.Solid && !b.CollisionEmpty }

// walkable reports whether an agent fits with its feet in p: solid floor,
// room for feet and head.
func walkable(w World, p model.Vec3i) bool {
	return collides(w.Block(p.Down())) && !collides(w.Block(p)) && !collides(w.Block(p.Up()))
}

// walkTo starts walking toward pos, or toward the nearest walkable tile
// around it. It returns false, with the status set, when there is nowhere to
// stand near pos.
func (t *tick) walkTo(pos model.Vec3i) bool {
	dst := pos
	if !walkable(t.w, pos) {
		p, ok := radius.First(radius.Around(pos, t.Tuning.Worker.WalkableSearchRadius, func(p model.Vec3i) bool {
			return walkable(t.w, p)
		}))
		if !ok {
			t.log.Printf("[brain] %s: nowhere to stand near %s", t.a.ID(), pos)
			t.setStatus(StatusNoWorkNoWalkablePosition)
			return false
		}
		dst = p
	}
	t.a.WalkTo(dst, t.Tuning.Worker.WalkSpeed, t.Tuning.Worker.WalkCompletion)
	t.lookAt(dst)
	t.mem.WalkTarget = &dst
	t.mem.WalkFailures = 0
	return true
}

// reachedTarget is checked by walking_* states once per tick. It is true
// once, on arrival. While the agent stopped short it counts a failure and
// walks again, and after too many failures it gives up with no_work_path.
func (t *tick) reachedTarget() bool {
	if t.a.Moving() {
		return false
	}
	if t.mem.WalkTarget == nil {
		t.setStatus(StatusNoWorkTakingABreak)
		return false
	}
	target := *t.mem.WalkTarget
	wk := t.Tuning.Worker
	if t.a.Pos().DistSq(target.Center()) < wk.ArriveDistSq {
		t.mem.ForgetWalk()
		return true
	}
	if t.mem.WalkFailures >= wk.MaxWalkFailures {
		t.log.Printf("[brain] %s: failed to reach %s %d times, giving up", t.a.ID(), target, t.mem.WalkFailures)
		t.mem.ForgetWalk()
		t.releaseTarget()
		t.setStatus(StatusNoWorkPath)
		return false
	}
	if !t.a.OnGround() {
		return false
	}
	t.mem.WalkFailures++
	dst := target
	if !walkable(t.w, target) {
		if p, ok := radius.First(radius.Between(target, t.a.BlockPos(), wk.WalkableSearchRadius, func(p model.Vec3i) bool {
			return walkable(t.w, p)
		})); ok {
			dst = p
		}
	}
	t.a.WalkTo(dst, wk.WalkSpeed, wk.WalkCompletion)
	return false
}
