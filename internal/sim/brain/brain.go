// Package brain is the per-agent worker state machine.
//
// A brain keeps nothing between ticks except its random source: every bit of
// job state lives in the agent's model.Memory, so a snapshot of the world is a
// snapshot of every worker. Generic states (depositing, picking up drops,
// waiting out a no-work cooldown) are shared through one dispatch table; the
// profession variant handles the rest.
package brain

import (
	"hash/fnv"
	"io"
	"log"
	"math/rand/v2"
	"sort"
	"time"

	"settlers.ai/internal/sim/catalogs"
	"settlers.ai/internal/sim/reservations"
	"settlers.ai/internal/sim/tuning"
	"settlers.ai/internal/sim/world/kernel/model"
	"settlers.ai/internal/sim/world/logic/recipes"
)

// World is what a worker may see and touch of the world it lives in.
type World interface {
	ID() string
	Tick() uint64

	Block(pos model.Vec3i) model.BlockState
	BreakBlock(pos model.Vec3i) bool
	SetBlock(pos model.Vec3i, id string) bool

	ItemsAt(pos model.Vec3i) []model.ItemEntity
	Container(pos model.Vec3i) *model.Container
	SetContainerOpen(pos model.Vec3i, open bool)
	ItemFrame(pos model.Vec3i) (string, bool)

	ToolSpeed(item, block string) float64
	Alive(agentID string) bool
	CraftingRecipes(output string) []recipes.Definition
}

// Agent is the body a brain drives.
type Agent interface {
	ID() string
	Profession() string
	Workstation() (model.Vec3i, bool)

	Pos() model.Vec3f
	BlockPos() model.Vec3i
	EyePos() model.Vec3f
	OnGround() bool
	SetPosition(p model.Vec3f)

	Inventory() *model.Inventory
	Held() string
	SetHeld(item string)
	Memory() *model.Memory

	WalkTo(pos model.Vec3i, speed float64, completion int)
	Moving() bool
	StopWalking()
	LookAt(p model.Vec3f)

	AIEnabled() bool
	SetAIEnabled(on bool)
}

// Kind is the closed set of professions with a brain.
type Kind int

const (
	KindNone Kind = iota
	KindWoodcutter
	KindForester
	KindCarrier
	KindCrafter
)

func ParseKind(s string) (Kind, bool) {
	switch s {
	case "woodcutter":
		return KindWoodcutter, true
	case "forester":
		return KindForester, true
	case "carrier":
		return KindCarrier, true
	case "crafter":
		return KindCrafter, true
	}
	return KindNone, false
}

func (k Kind) String() string {
	switch k {
	case KindWoodcutter:
		return "woodcutter"
	case KindForester:
		return "forester"
	case KindCarrier:
		return "carrier"
	case KindCrafter:
		return "crafter"
	default:
		return "none"
	}
}

// Profession is the catalog data a brain needs, with tags expanded.
type Profession struct {
	ID         string
	Gatherable []string
	Wanted     []string
	ToolTarget string
}

func (p Profession) Gathers(item string) bool { return containsSorted(p.Gatherable, item) }
func (p Profession) Wants(item string) bool { return containsSorted(p.Wanted, item) }

// Professions expands every profession of the catalog.
func Professions(cats *catalogs.Catalogs) map[string]Profession {
	out := make(map[string]Profession, len(cats.Professions.ByID))
	for id, def := range cats.Professions.ByID {
		out[id] = Profession{
			ID:         id,
			Gatherable: cats.Items.Expand(def.Gatherable),
			Wanted:     cats.Items.Expand(def.Wanted),
			ToolTarget: def.ToolTarget,
		}
	}
	return out
}

// Transition is one job status change.
type Transition struct {
	World      string
	Tick       uint64
	Agent      string
	Profession string
	From       string
	To         string
}

// Conflict is a reservation attempt that lost to another agent.
type Conflict struct {
	World string
	Tick  uint64
	Agent string
	Pool  reservations.PoolID
	Pos   model.Vec3i
}

// Sink receives what brains do. The driver fans it out to metrics and logs.
type Sink interface {
	Transition(Transition)
	Conflict(Conflict)
}

// Env is everything a tick needs besides the agent. The driver builds one
// per world and reuses it for every agent of that world.
type Env struct {
	World        World
	Reservations *reservations.Registry
	Tuning       tuning.Tuning
	Professions  map[string]Profession

	// Refresh rebuilds the deposit chest snapshot on demand. Optional.
	Refresh func()
	Sink    Sink
	Log     *log.Logger
}

// Brain drives one agent.
type Brain struct {
	kind Kind
	rng  *rand.Rand
}

// New returns a brain whose random choices depend only on seed and agentID.
func New(kind Kind, seed uint64, agentID string) *Brain {
	h := fnv.New64a()
	h.Write([]byte(agentID))
	return &Brain{kind: kind, rng: rand.New(rand.NewPCG(seed, h.Sum64()))}
}

func (b *Brain) Kind() Kind { return b.kind }

// tick bundles the state of one Tick call.
type tick struct {
	*Env
	b    *Brain
	a    Agent
	w    World
	mem  *model.Memory
	inv  *model.Inventory
	prof Profession
	now  uint64
	ws   model.Vec3i
	log  *log.Logger
}

var discard = log.New(io.Discard, "", 0)

// Tick runs one decision step for a. It never blocks and never fails: every
// obstacle becomes a no_work state.
func (b *Brain) Tick(env *Env, a Agent) {
	start := time.Now()
	t := &tick{
		Env:  env,
		b:    b,
		a:    a,
		w:    env.World,
		mem:  a.Memory(),
		inv:  a.Inventory(),
		prof: env.Professions[a.Profession()],
		now:  env.World.Tick(),
		log:  env.Log,
	}
	if t.log == nil {
		t.log = discard
	}

	status := t.mem.JobStatus
	if !knownStatus(status) {
		if status != "" {
			t.log.Printf("[brain] %s: unknown job status %q, resetting to idle", a.ID(), status)
		}
		t.setStatus(StatusIdle)
		status = StatusIdle
	}

	if t.mem.Pausing(t.now) {
		a.SetAIEnabled(false)
		return
	}
	a.SetAIEnabled(!b.nonAI(status))

	ws, ok := a.Workstation()
	if !ok && b.kind != KindCarrier {
		if status != StatusNoWorkNoWorkstation {
			t.setStatus(StatusNoWorkNoWorkstation)
		}
		return
	}
	t.ws = ws

	if b.kind != KindCarrier {
		t.keepDepositChest()
	}
	t.keepHoldingItem()

	t.dispatch(status)

	if d := time.Since(start); d > time.Duration(t.Tuning.Worker.SlowTickMicros)*time.Microsecond {
		t.log.Printf("[brain] %s %s tick took %dus", a.ID(), status, d.Microseconds())
	}
}

func (t *tick) dispatch(status string) {
	if h, ok := generic[status]; ok {
		h(t)
		return
	}
	if IsNoWork(status) {
		t.noWork()
		return
	}
	var handled bool
	switch t.b.kind {
	case KindWoodcutter:
		handled = t.woodcutter(status)
	case KindForester:
		handled = t.forester(status)
	case KindCarrier:
		handled = t.carrier(status)
	case KindCrafter:
		handled = t.crafter(status)
	}
	if !handled {
		t.log.Printf("[brain] %s (%s): no handler for status %q", t.a.ID(), t.b.kind, status)
		t.setStatus(StatusNoWorkUnknownStatus)
	}
}

func (t *tick) setStatus(s string) {
	from := t.mem.JobStatus
	t.mem.JobStatus = s
	if from == s || t.Sink == nil {
		return
	}
	t.Sink.Transition(Transition{
		World:      t.w.ID(),
		Tick:       t.now,
		Agent:      t.a.ID(),
		Profession: t.a.Profession(),
		From:       from,
		To:         s,
	})
}

func (t *tick) pause(ms int) {
	t.mem.PauseUntil = model.Ptr(t.now + t.Tuning.PauseTicks(ms))
}

func (t *tick) reserve(pool *reservations.Pool, pos model.Vec3i) bool {
	if pool.Reserve(t.w.ID(), t.a.ID(), pos) {
		return true
	}
	if t.Sink != nil {
		t.Sink.Conflict(Conflict{World: t.w.ID(), Tick: t.now, Agent: t.a.ID(), Pool: pool.ID(), Pos: pos})
	}
	return false
}

// availableTo reports whether a position in pool is free or already ours.
func (t *tick) availableTo(pool *reservations.Pool, pos model.Vec3i) bool {
	if owner, ok := pool.Owner(t.w.ID(), pos); ok && owner == t.a.ID() {
		return true
	}
	return pool.IsAvailable(t.w.ID(), pos)
}

// releaseTarget drops the target reservation and forgets the target.
func (t *tick) releaseTarget() {
	if t.mem.Target != nil {
		if owner, ok := t.Reservations.Targets.Owner(t.w.ID(), *t.mem.Target); ok && owner == t.a.ID() {
			t.Reservations.Targets.Release(t.w.ID(), *t.mem.Target)
		}
	}
	t.mem.ForgetTarget()
}

// keepDepositChest re-claims the remembered deposit chest; a chest that
// somebody else holds now is forgotten.
func (t *tick) keepDepositChest() {
	p := t.mem.DepositChest
	if p == nil {
		return
	}
	if !t.Reservations.Chests.Reserve(t.w.ID(), t.a.ID(), *p) {
		t.log.Printf("[brain] %s: deposit chest %s taken, forgetting it", t.a.ID(), *p)
		t.mem.DepositChest = nil
	}
}

// keepHoldingItem shows the remembered item in hand, or empties the hand
// when the item is gone from the inventory.
func (t *tick) keepHoldingItem() {
	item := t.mem.ItemInHand
	if item == "" {
		if t.a.Held() != "" {
			t.a.SetHeld("")
		}
		return
	}
	if t.inv.Contains(item) {
		t.a.SetHeld(item)
		return
	}
	t.a.SetHeld("")
	t.mem.ItemInHand = ""
}

func (t *tick) hold(item string) {
	t.mem.ItemInHand = item
	t.a.SetHeld(item)
}

func (t *tick) lookAt(p model.Vec3i) { t.a.LookAt(p.Center()) }

func containsSorted(s []string, v string) bool {
	i := sort.SearchStrings(s, v)
	return i < len(s) && s[i] == v
}
