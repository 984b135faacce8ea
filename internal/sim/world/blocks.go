package world

import (
	"sort"

	"settlers.ai/internal/sim/world/kernel/model"
)

func (w *World) BlockID(pos model.Vec3i) string {
	return w.cats.Blocks.ID(w.chunks.GetBlock(pos.X, pos.Y, pos.Z))
}

func (w *World) Block(pos model.Vec3i) model.BlockState {
	return w.cats.Blocks.State(w.BlockID(pos))
}

func (w *World) InBounds(pos model.Vec3i) bool {
	return w.chunks.InBounds(pos.X, pos.Y, pos.Z)
}

// SetBlock replaces the block at pos. Chests gain an empty container; a chest
// replaced by something else spills its contents as item entities.
func (w *World) SetBlock(pos model.Vec3i, id string) bool {
	idx, ok := w.cats.Blocks.Index[id]
	if !ok {
		return false
	}
	old := w.Block(pos)
	if !w.chunks.SetBlock(pos.X, pos.Y, pos.Z, idx) {
		return false
	}
	now := w.cats.Blocks.State(id)

	if old.Chest && !now.Chest {
		if c := w.containers[pos]; c != nil {
			for _, s := range c.Slots {
				if !s.Empty() {
					w.SpawnItem(pos, s.Item, s.Count)
				}
			}
		}
		delete(w.containers, pos)
	}
	if now.Chest && w.containers[pos] == nil {
		w.containers[pos] = &model.Container{
			Type:      id,
			Pos:       pos,
			Inventory: model.NewInventory(w.tun.World.ChestSize, &w.cats.Items),
		}
	}
	if now.Sapling {
		w.saplings[pos] = true
	} else {
		delete(w.saplings, pos)
	}
	return true
}

// BreakBlock removes the block at pos and drops its item. Air and unbreakable
// blocks are left alone.
func (w *World) BreakBlock(pos model.Vec3i) bool {
	st := w.Block(pos)
	if st.Air() || st.Hardness < 0 {
		return false
	}
	def := w.cats.Blocks.Defs[st.ID]
	if !w.SetBlock(pos, "AIR") {
		return false
	}
	if def.DropsItem != "" {
		w.SpawnItem(pos, def.DropsItem, 1)
	}
	return true
}

// Container is the chest inventory at pos, or nil.
func (w *World) Container(pos model.Vec3i) *model.Container {
	c := w.containers[pos]
	if c == nil || !w.Block(pos).Chest {
		return nil
	}
	return c
}

// SetContainerOpen tracks how many agents use a chest. Nothing depends on
// it besides observers.
func (w *World) SetContainerOpen(pos model.Vec3i, open bool) {
	c := w.containers[pos]
	if c == nil {
		return
	}
	if open {
		c.Open++
	} else if c.Open > 0 {
		c.Open--
	}
}

// PlaceChest puts a chest at pos filled with items.
func (w *World) PlaceChest(pos model.Vec3i, items ...model.ItemStack) (*model.Container, bool) {
	if !w.SetBlock(pos, "CHEST") {
		return nil, false
	}
	c := w.containers[pos]
	for _, s := range items {
		c.Add(s.Item, s.Count)
	}
	return c, true
}

// ContainerPositions lists every chest position, sorted.
func (w *World) ContainerPositions() []model.Vec3i {
	out := make([]model.Vec3i, 0, len(w.containers))
	for p := range w.containers {
		out = append(out, p)
	}
	sortPositions(out)
	return out
}

// ItemFrame is the item displayed in a frame attached to pos.
func (w *World) ItemFrame(pos model.Vec3i) (string, bool) {
	item, ok := w.frames[pos]
	return item, ok
}

// SetItemFrame shows item in a frame at pos; an empty item removes the frame.
func (w *World) SetItemFrame(pos model.Vec3i, item string) {
	if item == "" {
		delete(w.frames, pos)
		return
	}
	w.frames[pos] = item
}

func sortPositions(ps []model.Vec3i) {
	sort.Slice(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
}
