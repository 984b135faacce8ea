package driver

import (
	"fmt"

	"settlers.ai/internal/persistence/snapshot"
	"settlers.ai/internal/sim/brain"
	"settlers.ai/internal/sim/reservations"
	"settlers.ai/internal/sim/world"
)

// Export captures every world and the reservation pools between two steps.
func (d *Driver) Export() snapshot.SnapshotV1 {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{Version: snapshot.Version, Tick: d.tick},
	}
	for _, rt := range d.worlds {
		snap.Header.Worlds = append(snap.Header.Worlds, rt.w.ID())
		snap.Worlds = append(snap.Worlds, rt.w.ExportSnapshot())
	}
	for _, e := range d.res.Entries() {
		snap.Reservations = append(snap.Reservations, snapshot.ReservationV1{
			Pool:  e.Pool.String(),
			World: e.World,
			Pos:   e.Pos,
			Agent: e.Agent,
		})
	}
	return snap
}

// Restore replaces all worlds and reservations with the snapshot. Every
// worker then re-claims the target and deposit chest its memory names, so
// claims dropped by an older writer come back. Brain random sources restart.
func (d *Driver) Restore(snap snapshot.SnapshotV1) error {
	if snap.Header.Version != snapshot.Version {
		return fmt.Errorf("driver: snapshot version %d, want %d", snap.Header.Version, snapshot.Version)
	}
	worlds := make([]*world.World, 0, len(snap.Worlds))
	for _, ws := range snap.Worlds {
		if ws.Tick != snap.Header.Tick {
			return fmt.Errorf("driver: snapshot world %s at tick %d, header at %d", ws.ID, ws.Tick, snap.Header.Tick)
		}
		w, err := world.ImportWorld(ws, d.cats, d.tun, d.log)
		if err != nil {
			return fmt.Errorf("driver: %w", err)
		}
		worlds = append(worlds, w)
	}
	entries := make([]reservations.Entry, 0, len(snap.Reservations))
	for _, r := range snap.Reservations {
		pool, ok := reservations.ParsePoolID(r.Pool)
		if !ok {
			return fmt.Errorf("driver: snapshot reservation pool %q", r.Pool)
		}
		entries = append(entries, reservations.Entry{Pool: pool, World: r.World, Pos: r.Pos, Agent: r.Agent})
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.tick = snap.Header.Tick
	d.worlds = nil
	d.byID = map[string]*runtime{}
	d.transitions = map[string][]TransitionRecord{}
	d.conflicts = map[string][]ConflictRecord{}
	for _, w := range worlds {
		if err := d.addWorldLocked(w); err != nil {
			return err
		}
	}
	d.res.Restore(entries)
	for _, rt := range d.worlds {
		for _, a := range rt.w.Agents() {
			if a.Dead() {
				continue
			}
			mem := a.Memory()
			if mem.Target != nil && !d.res.Targets.Reserve(rt.w.ID(), a.ID(), *mem.Target) {
				d.log.Printf("[driver] %s/%s: target %s held by another agent after restore", rt.w.ID(), a.ID(), *mem.Target)
			}
			// A carrier's deposit chest belongs to the chest's owner.
			if mem.DepositChest != nil && a.Profession() != brain.KindCarrier.String() &&
				!d.res.Chests.Reserve(rt.w.ID(), a.ID(), *mem.DepositChest) {
				d.log.Printf("[driver] %s/%s: deposit chest %s held by another agent after restore", rt.w.ID(), a.ID(), *mem.DepositChest)
			}
		}
	}
	d.refreshLocked()
	return nil
}
