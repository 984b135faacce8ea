package world

import (
	"settlers.ai/internal/sim/world/kernel/model"
	"settlers.ai/internal/sim/world/logic/mathx"
	"settlers.ai/internal/sim/world/logic/movement"
)

// blocksMovement reports whether an agent collides with the block.
func blocksMovement(st model.BlockState) bool {
	return st.Solid && !st.CollisionEmpty
}

// Walkable reports whether an agent can stand with its feet in pos.
func (w *World) Walkable(pos model.Vec3i) bool {
	if !w.InBounds(pos) {
		return false
	}
	return blocksMovement(w.Block(pos.Down())) &&
		!blocksMovement(w.Block(pos)) &&
		!blocksMovement(w.Block(pos.Up()))
}

func (w *World) applyGravity(a *Agent) {
	if a.OnGround() {
		return
	}
	a.pos.Y = float64(a.BlockPos().Y - 1)
	if a.pos.Y < float64(w.cfg.MinY) {
		a.dead = true
		a.walk = nil
		w.log.Printf("[world %s] agent %s fell out of the world", w.cfg.ID, a.id)
	}
}

func (w *World) stand(from movement.Pos, x, z int) (movement.Pos, bool) {
	level := model.Vec3i{X: x, Y: from.Y, Z: z}
	if w.Walkable(level) {
		return movement.Pos{X: x, Y: from.Y, Z: z}, true
	}
	// Stepping up needs headroom above the current column.
	if up := level.Up(); w.Walkable(up) && !blocksMovement(w.Block(model.Vec3i{X: from.X, Y: from.Y + 2, Z: from.Z})) {
		return movement.Pos{X: x, Y: up.Y, Z: z}, true
	}
	if down := level.Down(); w.Walkable(down) && !blocksMovement(w.Block(level.Up())) {
		return movement.Pos{X: x, Y: down.Y, Z: z}, true
	}
	return movement.Pos{}, false
}

func (w *World) arrived(a *Agent) bool {
	p, t := a.BlockPos(), a.walk.target
	c := a.walk.completion
	return mathx.AbsInt(p.X-t.X) <= c && mathx.AbsInt(p.Z-t.Z) <= c && mathx.AbsInt(p.Y-t.Y) <= 1
}

// stepWalk moves a walking agent by whole blocks. Speed accumulates, so an
// agent at 0.6 blocks per tick steps on three ticks out of five.
func (w *World) stepWalk(a *Agent) {
	if a.walk == nil || a.aiDisabled || !a.OnGround() {
		return
	}
	if w.arrived(a) {
		a.walk = nil
		return
	}
	a.walk.progress += a.walk.speed
	for a.walk.progress >= 1 {
		a.walk.progress--
		cur := a.BlockPos()
		t := a.walk.target
		next, ok := movement.NextStep(
			movement.Pos{X: cur.X, Y: cur.Y, Z: cur.Z},
			movement.Pos{X: t.X, Y: t.Y, Z: t.Z},
			w.tun.World.DetourDepth,
			w.stand,
		)
		if !ok {
			a.walk = nil
			return
		}
		np := model.Vec3i{X: next.X, Y: next.Y, Z: next.Z}
		a.LookAt(np.Center())
		a.pos = np.Bottom()
		if w.arrived(a) {
			a.walk = nil
			return
		}
	}
}
