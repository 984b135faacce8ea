package reservations

import (
	"sort"

	"settlers.ai/internal/sim/world/kernel/model"
)

// DepositChest is what the last refresh saw in one reserved deposit chest.
type DepositChest struct {
	World string
	Pos   model.Vec3i
	Owner string

	// Wanted are kinds the owner still accepts: everything it wants when the
	// chest has an empty slot, plus wanted kinds whose stack is not full.
	Wanted []string
	// Contained are kinds present in the chest that the owner cannot take
	// more of: unwanted kinds and wanted kinds that have no room left.
	Contained []string
	// WantedCount is the number of wanted units already in the chest.
	WantedCount int
}

func (d DepositChest) Wants(item string) bool { return containsSorted(d.Wanted, item) }
func (d DepositChest) Contains(item string) bool { return containsSorted(d.Contained, item) }

func containsSorted(s []string, v string) bool {
	i := sort.SearchStrings(s, v)
	return i < len(s) && s[i] == v
}

// ChestSource gives the refresh read access to chests and owners.
type ChestSource interface {
	// Chest returns the container at pos, or false if pos is not a chest.
	Chest(world string, pos model.Vec3i) (*model.Container, bool)
	// WantedBy lists the item kinds the agent wants.
	WantedBy(world, agent string) []string
}

// RefreshDepositChests rebuilds the deposit chest snapshot from every chest
// currently reserved by a live agent and swaps it in. Claims of dead owners
// and reserved positions that are no longer chests are released. The source
// is queried without the registry lock held.
func (r *Registry) RefreshDepositChests(src ChestSource, tick uint64) {
	r.mu.Lock()
	var claims []Entry
	for k, a := range r.pools[PoolChests].byPos {
		claims = append(claims, Entry{Pool: PoolChests, World: k.world, Pos: k.pos, Agent: a})
	}
	live := claims[:0]
	for _, e := range claims {
		if r.alive(e.World, e.Agent) {
			live = append(live, e)
			continue
		}
		r.releaseLocked(PoolChests, e.World, e.Pos)
	}
	claims = live
	r.mu.Unlock()
	sortEntries(claims)

	next := make([]DepositChest, 0, len(claims))
	var gone []Entry
	for _, e := range claims {
		c, ok := src.Chest(e.World, e.Pos)
		if !ok {
			gone = append(gone, e)
			continue
		}
		next = append(next, summarize(e, c, src.WantedBy(e.World, e.Agent)))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range gone {
		if owner, ok := r.pools[PoolChests].byPos[posKey{world: e.World, pos: e.Pos}]; ok && owner == e.Agent {
			r.releaseLocked(PoolChests, e.World, e.Pos)
		}
	}
	r.snapshot = next
	r.refreshedAt = tick
	r.refreshed = true
}

func summarize(e Entry, c *model.Container, wantedKinds []string) DepositChest {
	wants := make(map[string]bool, len(wantedKinds))
	for _, k := range wantedKinds {
		wants[k] = true
	}
	wanted := map[string]bool{}
	contained := map[string]bool{}
	count := 0
	for _, s := range c.Slots {
		if s.Empty() {
			for k := range wants {
				wanted[k] = true
			}
			continue
		}
		contained[s.Item] = true
		if wants[s.Item] {
			if s.Count < c.MaxStack(s.Item) {
				wanted[s.Item] = true
			}
			count += s.Count
		}
	}
	for k := range wanted {
		delete(contained, k)
	}
	return DepositChest{
		World:       e.World,
		Pos:         e.Pos,
		Owner:       e.Agent,
		Wanted:      sortedKeys(wanted),
		Contained:   sortedKeys(contained),
		WantedCount: count,
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DepositChests returns the current snapshot. The slice is a copy.
func (r *Registry) DepositChests() []DepositChest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]DepositChest(nil), r.snapshot...)
}

// NearestDepositChests returns the snapshot entries of one world ordered by
// distance to from.
func (r *Registry) NearestDepositChests(world string, from model.Vec3i) []DepositChest {
	r.mu.Lock()
	out := make([]DepositChest, 0, len(r.snapshot))
	for _, d := range r.snapshot {
		if d.World == world {
			out = append(out, d)
		}
	}
	r.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Pos.DistSq(from), out[j].Pos.DistSq(from)
		if di != dj {
			return di < dj
		}
		return lessPos(out[i].Pos, out[j].Pos)
	})
	return out
}

// SnapshotAge is how many ticks ago the snapshot was rebuilt; ok is false
// before the first refresh.
func (r *Registry) SnapshotAge(now uint64) (age uint64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.refreshed {
		return 0, false
	}
	if now < r.refreshedAt {
		return 0, true
	}
	return now - r.refreshedAt, true
}
