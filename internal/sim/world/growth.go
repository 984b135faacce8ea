package world

import (
	"settlers.ai/internal/sim/world/kernel/model"
	"settlers.ai/internal/sim/world/logic/mathx"
	"settlers.ai/internal/sim/world/terrain/gen"
)

// growSaplings gives every planted sapling a chance to become a tree. The
// roll depends on the seed, the tick and the position only.
func (w *World) growSaplings() {
	if len(w.saplings) == 0 {
		return
	}
	ps := make([]model.Vec3i, 0, len(w.saplings))
	for p := range w.saplings {
		ps = append(ps, p)
	}
	sortPositions(ps)
	for _, p := range ps {
		h := mathx.Hash3(w.cfg.Seed^int64(w.tick), p.X, p.Y, p.Z)
		if !mathx.Chance(h, w.tun.World.SaplingGrowPermille) {
			continue
		}
		w.growTree(p, 4+int((h>>16)%3))
	}
}

// growTree replaces the sapling at base with a trunk of height blocks and a
// canopy. Leaves only fill air. Nothing happens when the trunk is blocked.
func (w *World) growTree(base model.Vec3i, height int) bool {
	for dy := 1; dy < height; dy++ {
		p := base.Offset(0, dy, 0)
		if !w.InBounds(p) || !w.Block(p).Air() {
			return false
		}
	}
	for dy := 0; dy < height; dy++ {
		w.SetBlock(base.Offset(0, dy, 0), "OAK_LOG")
	}
	top := base.Offset(0, height-1, 0)
	for dy := -1; dy <= 1; dy++ {
		for dz := -2; dz <= 2; dz++ {
			for dx := -2; dx <= 2; dx++ {
				if !gen.Canopy(dx, dz, dy) {
					continue
				}
				p := top.Offset(dx, dy, dz)
				if w.InBounds(p) && w.Block(p).Air() {
					w.SetBlock(p, "OAK_LEAVES")
				}
			}
		}
	}
	return true
}
