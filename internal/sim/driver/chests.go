package driver

import "settlers.ai/internal/sim/world/kernel/model"

// chestSource reads chests and owners for the deposit chest refresh.
type chestSource struct{ d *Driver }

func (s chestSource) Chest(worldID string, pos model.Vec3i) (*model.Container, bool) {
	rt := s.d.byID[worldID]
	if rt == nil {
		return nil, false
	}
	c := rt.w.Container(pos)
	return c, c != nil
}

// WantedBy is the agent's own wanted list when it keeps one (crafters do),
// else its profession's.
func (s chestSource) WantedBy(worldID, agentID string) []string {
	rt := s.d.byID[worldID]
	if rt == nil {
		return nil
	}
	a, ok := rt.w.Agent(agentID)
	if !ok {
		return nil
	}
	if w := a.Memory().WantedItems; w != nil {
		return w
	}
	return s.d.profs[a.Profession()].Wanted
}

// RefreshDepositChests rebuilds the deposit chest snapshot now.
func (d *Driver) RefreshDepositChests() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refreshLocked()
}

func (d *Driver) refreshLocked() {
	d.res.RefreshDepositChests(chestSource{d}, d.tick)
}
