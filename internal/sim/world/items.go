package world

import (
	"fmt"
	"sort"

	"settlers.ai/internal/sim/world/kernel/model"
)

// SpawnItem drops count units of item at pos.
func (w *World) SpawnItem(pos model.Vec3i, item string, count int) string {
	if item == "" || count <= 0 {
		return ""
	}
	w.nextItemID++
	e := &model.ItemEntity{
		EntityID:    fmt.Sprintf("IT%06d", w.nextItemID),
		Pos:         pos,
		Item:        item,
		Count:       count,
		CreatedTick: w.tick,
	}
	if d := w.tun.World.ItemDespawnTicks; d > 0 {
		e.ExpiresTick = w.tick + uint64(d)
	}
	w.items[pos] = append(w.items[pos], e)
	return e.EntityID
}

// ItemsAt returns copies of the item entities lying at pos.
func (w *World) ItemsAt(pos model.Vec3i) []model.ItemEntity {
	list := w.items[pos]
	if len(list) == 0 {
		return nil
	}
	out := make([]model.ItemEntity, 0, len(list))
	for _, e := range list {
		out = append(out, *e)
	}
	return out
}

// ItemCount is the number of item entities in the world.
func (w *World) ItemCount() int {
	n := 0
	for _, l := range w.items {
		n += len(l)
	}
	return n
}

// collectItems moves gatherable drops near the agent into its inventory.
func (w *World) collectItems(a *Agent) {
	r := w.tun.World.PickupRadius
	if r < 0 {
		return
	}
	base := a.BlockPos()
	for dy := -1; dy <= 1; dy++ {
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				p := base.Offset(dx, dy, dz)
				list := w.items[p]
				if len(list) == 0 {
					continue
				}
				kept := list[:0]
				for _, e := range list {
					if w.Gatherable(a.profession, e.Item) {
						e.Count = a.inv.Add(e.Item, e.Count)
					}
					if e.Count > 0 {
						kept = append(kept, e)
					}
				}
				if len(kept) == 0 {
					delete(w.items, p)
				} else {
					w.items[p] = kept
				}
			}
		}
	}
}

func (w *World) despawnItems() {
	for p, list := range w.items {
		kept := list[:0]
		for _, e := range list {
			if e.ExpiresTick != 0 && w.tick >= e.ExpiresTick {
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(w.items, p)
		} else {
			w.items[p] = kept
		}
	}
}

// settleItems drops item entities one block per tick until they rest on
// something solid.
func (w *World) settleItems() {
	if len(w.items) == 0 {
		return
	}
	ps := make([]model.Vec3i, 0, len(w.items))
	for p := range w.items {
		ps = append(ps, p)
	}
	// Lowest first so a falling stack never lands on one that has not moved yet.
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Y != ps[j].Y {
			return ps[i].Y < ps[j].Y
		}
		if ps[i].X != ps[j].X {
			return ps[i].X < ps[j].X
		}
		return ps[i].Z < ps[j].Z
	})
	for _, p := range ps {
		below := p.Down()
		if !w.InBounds(below) || blocksMovement(w.Block(below)) {
			continue
		}
		list := w.items[p]
		delete(w.items, p)
		for _, e := range list {
			e.Pos = below
		}
		w.items[below] = append(w.items[below], list...)
	}
}
