package world

import (
	"fmt"
	"log"

	"settlers.ai/internal/persistence/snapshot"
	"settlers.ai/internal/sim/catalogs"
	"settlers.ai/internal/sim/tuning"
	"settlers.ai/internal/sim/world/kernel/model"
	"settlers.ai/internal/sim/world/terrain/store"
)

// ExportSnapshot captures the world at its current tick.
func (w *World) ExportSnapshot() snapshot.WorldV1 {
	out := snapshot.WorldV1{
		ID:               w.cfg.ID,
		Tick:             w.tick,
		Seed:             w.cfg.Seed,
		BoundaryR:        w.cfg.BoundaryR,
		MinY:             w.cfg.MinY,
		MaxY:             w.cfg.MaxY,
		GroundY:          w.cfg.GroundY,
		SpawnClearRadius: w.cfg.SpawnClearRadius,
		TreePermille:     w.cfg.TreePermille,
		Palette:          append([]string(nil), w.cats.Blocks.Palette...),
		Chunks:           w.chunks.ExportChunks(),
		NextItemID:       w.nextItemID,
	}
	for _, a := range w.Agents() {
		av := snapshot.AgentV1{
			ID:          a.id,
			Profession:  a.profession,
			Workstation: clonePtr(a.workstation),
			Pos:         a.pos,
			Yaw:         a.yaw,
			Pitch:       a.pitch,
			Inventory:   append([]model.ItemStack(nil), a.inv.Slots...),
			Held:        a.held,
			AIDisabled:  a.aiDisabled,
			Dead:        a.dead,
			Memory:      a.mem.Clone(),
		}
		if a.walk != nil {
			av.Walk = &snapshot.WalkV1{
				Target:     a.walk.target,
				Speed:      a.walk.speed,
				Completion: a.walk.completion,
				Progress:   a.walk.progress,
			}
		}
		out.Agents = append(out.Agents, av)
	}
	for _, p := range w.ContainerPositions() {
		c := w.containers[p]
		out.Containers = append(out.Containers, snapshot.ContainerV1{
			Type:  c.Type,
			Pos:   p,
			Slots: append([]model.ItemStack(nil), c.Slots...),
		})
	}
	var ps []model.Vec3i
	for p := range w.items {
		ps = append(ps, p)
	}
	sortPositions(ps)
	for _, p := range ps {
		for _, e := range w.items[p] {
			out.Items = append(out.Items, snapshot.ItemEntityV1{
				ID:          e.EntityID,
				Pos:         p,
				Item:        e.Item,
				Count:       e.Count,
				CreatedTick: e.CreatedTick,
				ExpiresTick: e.ExpiresTick,
			})
		}
	}
	ps = ps[:0]
	for p := range w.frames {
		ps = append(ps, p)
	}
	sortPositions(ps)
	for _, p := range ps {
		out.Frames = append(out.Frames, snapshot.FrameV1{Pos: p, Item: w.frames[p]})
	}
	for p := range w.saplings {
		out.Saplings = append(out.Saplings, p)
	}
	sortPositions(out.Saplings)
	return out
}

// ImportWorld rebuilds a world from a snapshot. Block ids are remapped from
// the snapshot palette to the current catalog; a block the catalog no longer
// knows is an error.
func ImportWorld(s snapshot.WorldV1, cats *catalogs.Catalogs, tun tuning.Tuning, logger *log.Logger) (*World, error) {
	cfg := Config{
		ID:               s.ID,
		Seed:             s.Seed,
		BoundaryR:        s.BoundaryR,
		MinY:             s.MinY,
		MaxY:             s.MaxY,
		GroundY:          s.GroundY,
		SpawnClearRadius: s.SpawnClearRadius,
		TreePermille:     s.TreePermille,
	}
	w, err := New(cfg, cats, tun, logger)
	if err != nil {
		return nil, err
	}
	remap := make([]uint16, len(s.Palette))
	for i, id := range s.Palette {
		idx, ok := cats.Blocks.Index[id]
		if !ok {
			return nil, fmt.Errorf("world %s: snapshot block %s missing from catalog", s.ID, id)
		}
		remap[i] = idx
	}
	chunks, err := store.ImportChunks(w.chunks.Gen, s.Chunks)
	if err != nil {
		return nil, fmt.Errorf("world %s: %w", s.ID, err)
	}
	for _, k := range chunks.LoadedChunkKeys() {
		ch := chunks.Chunks[k]
		for i, b := range ch.Blocks {
			if int(b) >= len(remap) {
				return nil, fmt.Errorf("world %s: chunk %d,%d,%d: block index %d outside palette", s.ID, k.CX, k.CY, k.CZ, b)
			}
			ch.Blocks[i] = remap[b]
		}
	}
	w.chunks = chunks
	w.tick = s.Tick
	w.nextItemID = s.NextItemID

	for _, c := range s.Containers {
		inv := model.NewInventory(tun.World.ChestSize, &cats.Items)
		copy(inv.Slots, c.Slots)
		w.containers[c.Pos] = &model.Container{Type: c.Type, Pos: c.Pos, Inventory: inv}
	}
	for _, it := range s.Items {
		w.items[it.Pos] = append(w.items[it.Pos], &model.ItemEntity{
			EntityID:    it.ID,
			Pos:         it.Pos,
			Item:        it.Item,
			Count:       it.Count,
			CreatedTick: it.CreatedTick,
			ExpiresTick: it.ExpiresTick,
		})
	}
	for _, f := range s.Frames {
		w.frames[f.Pos] = f.Item
	}
	for _, p := range s.Saplings {
		w.saplings[p] = true
	}
	for _, av := range s.Agents {
		a := &Agent{
			w:          w,
			id:         av.ID,
			profession: av.Profession,
			pos:        av.Pos,
			yaw:        av.Yaw,
			pitch:      av.Pitch,
			inv:        model.NewInventory(tun.Worker.InventorySize, &cats.Items),
			held:       av.Held,
			mem:        av.Memory,
			aiDisabled: av.AIDisabled,
			dead:       av.Dead,
		}
		a.SetWorkstation(av.Workstation)
		copy(a.inv.Slots, av.Inventory)
		if av.Walk != nil {
			a.walk = &walkTask{
				target:     av.Walk.Target,
				speed:      av.Walk.Speed,
				completion: av.Walk.Completion,
				progress:   av.Walk.Progress,
			}
		}
		w.agents[a.id] = a
	}
	return w, nil
}

func clonePtr(p *model.Vec3i) *model.Vec3i {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
