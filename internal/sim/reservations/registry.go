// Package reservations keeps track of which agent has claimed which block.
//
// There are two independent pools: target blocks (what an agent works on) and
// deposit chests (where it stores items). A position has at most one live
// owner per pool and an agent owns at most one position per pool. Claims by
// agents that are no longer alive are reclaimed lazily.
package reservations

import (
	"sort"
	"sync"

	"settlers.ai/internal/sim/world/kernel/model"
)

type PoolID int

const (
	PoolTargets PoolID = iota
	PoolChests
)

func (p PoolID) String() string {
	if p == PoolChests {
		return "chest"
	}
	return "target"
}

func ParsePoolID(s string) (PoolID, bool) {
	switch s {
	case "target":
		return PoolTargets, true
	case "chest":
		return PoolChests, true
	}
	return 0, false
}

// Liveness reports whether an agent of a world still exists.
type Liveness func(world, agent string) bool

type posKey struct {
	world string
	pos   model.Vec3i
}

type agentKey struct {
	world string
	agent string
}

type poolState struct {
	byPos   map[posKey]string
	byAgent map[agentKey]model.Vec3i
}

func newPoolState() poolState {
	return poolState{byPos: map[posKey]string{}, byAgent: map[agentKey]model.Vec3i{}}
}

// Registry is the shared reservation service. One mutex covers both pools
// and the deposit chest snapshot; critical sections are a few map operations.
type Registry struct {
	mu    sync.Mutex
	alive Liveness
	pools [2]poolState

	snapshot    []DepositChest
	refreshedAt uint64
	refreshed   bool

	Targets *Pool
	Chests  *Pool
}

func New(alive Liveness) *Registry {
	if alive == nil {
		alive = func(string, string) bool { return true }
	}
	r := &Registry{alive: alive, pools: [2]poolState{newPoolState(), newPoolState()}}
	r.Targets = &Pool{r: r, id: PoolTargets}
	r.Chests = &Pool{r: r, id: PoolChests}
	return r
}

// Pool is one of the two reservation pools.
type Pool struct {
	r  *Registry
	id PoolID
}

func (p *Pool) ID() PoolID { return p.id }

// IsAvailable is true when nobody owns pos or its owner is gone. A stale
// claim is purged as a side effect.
func (p *Pool) IsAvailable(world string, pos model.Vec3i) bool {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	return p.r.availableLocked(p.id, world, pos)
}

// Reserve binds pos to agent if it is available, releasing whatever else the
// agent held in this pool. Re-reserving a position the agent already owns
// succeeds.
func (p *Pool) Reserve(world, agent string, pos model.Vec3i) bool {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	ps := &p.r.pools[p.id]
	k := posKey{world: world, pos: pos}
	if owner, ok := ps.byPos[k]; ok && owner == agent {
		return true
	}
	if !p.r.availableLocked(p.id, world, pos) {
		return false
	}
	ak := agentKey{world: world, agent: agent}
	if prev, ok := ps.byAgent[ak]; ok {
		delete(ps.byPos, posKey{world: world, pos: prev})
	}
	ps.byPos[k] = agent
	ps.byAgent[ak] = pos
	return true
}

// Release clears pos unconditionally.
func (p *Pool) Release(world string, pos model.Vec3i) {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	p.r.releaseLocked(p.id, world, pos)
}

// Owned is the position this pool attributes to agent.
func (p *Pool) Owned(world, agent string) (model.Vec3i, bool) {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	pos, ok := p.r.pools[p.id].byAgent[agentKey{world: world, agent: agent}]
	return pos, ok
}

// Owner is the agent holding pos, stale or not.
func (p *Pool) Owner(world string, pos model.Vec3i) (string, bool) {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	a, ok := p.r.pools[p.id].byPos[posKey{world: world, pos: pos}]
	return a, ok
}

func (p *Pool) Len() int {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	return len(p.r.pools[p.id].byPos)
}

func (r *Registry) availableLocked(id PoolID, world string, pos model.Vec3i) bool {
	ps := &r.pools[id]
	k := posKey{world: world, pos: pos}
	owner, ok := ps.byPos[k]
	if !ok {
		return true
	}
	if r.alive(world, owner) {
		return false
	}
	r.releaseLocked(id, world, pos)
	return true
}

func (r *Registry) releaseLocked(id PoolID, world string, pos model.Vec3i) {
	ps := &r.pools[id]
	k := posKey{world: world, pos: pos}
	owner, ok := ps.byPos[k]
	if !ok {
		return
	}
	delete(ps.byPos, k)
	ak := agentKey{world: world, agent: owner}
	if cur, ok := ps.byAgent[ak]; ok && cur == pos {
		delete(ps.byAgent, ak)
	}
}

// Forget drops every claim of agent, e.g. when it is removed from the world.
func (r *Registry) Forget(world, agent string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.pools {
		if pos, ok := r.pools[id].byAgent[agentKey{world: world, agent: agent}]; ok {
			r.releaseLocked(PoolID(id), world, pos)
		}
	}
}

// Entry is one claim, used for snapshots and inspection.
type Entry struct {
	Pool  PoolID
	World string
	Pos   model.Vec3i
	Agent string
}

// Entries lists every claim in a stable order.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for id := range r.pools {
		for k, a := range r.pools[id].byPos {
			out = append(out, Entry{Pool: PoolID(id), World: k.world, Pos: k.pos, Agent: a})
		}
	}
	sortEntries(out)
	return out
}

// Restore replaces all claims. Later entries for the same agent or position
// in a pool win.
func (r *Registry) Restore(entries []Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools = [2]poolState{newPoolState(), newPoolState()}
	for _, e := range entries {
		ps := &r.pools[e.Pool]
		ak := agentKey{world: e.World, agent: e.Agent}
		if prev, ok := ps.byAgent[ak]; ok {
			delete(ps.byPos, posKey{world: e.World, pos: prev})
		}
		r.releaseLocked(e.Pool, e.World, e.Pos)
		ps.byPos[posKey{world: e.World, pos: e.Pos}] = e.Agent
		ps.byAgent[ak] = e.Pos
	}
	r.snapshot = nil
	r.refreshed = false
}

func sortEntries(es []Entry) {
	sort.Slice(es, func(i, j int) bool {
		a, b := es[i], es[j]
		if a.Pool != b.Pool {
			return a.Pool < b.Pool
		}
		if a.World != b.World {
			return a.World < b.World
		}
		return lessPos(a.Pos, b.Pos)
	})
}

func lessPos(a, b model.Vec3i) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}
