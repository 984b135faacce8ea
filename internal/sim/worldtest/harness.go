// Package worldtest builds small flat worlds driven by a real tick driver, so
// tests outside the world package can set up a scene and watch workers act.
package worldtest

import (
	"os"
	"path/filepath"
	"testing"

	"settlers.ai/internal/sim/catalogs"
	"settlers.ai/internal/sim/driver"
	"settlers.ai/internal/sim/tuning"
	"settlers.ai/internal/sim/world"
	"settlers.ai/internal/sim/world/kernel/model"
)

// Harness drives one flat world: grass at y=0, dirt below, no trees.
// Agents stand at y=1.
type Harness struct {
	T    *testing.T
	Cats *catalogs.Catalogs
	Tun  tuning.Tuning
	D    *driver.Driver
	W    *world.World

	// Last holds the log entries of the most recent step.
	Last []driver.TickLogEntry
}

type Option func(*options)

type options struct {
	tun   tuning.Tuning
	cfg   world.Config
	steps driver.StepObserver
}

func WithTuning(fn func(*tuning.Tuning)) Option {
	return func(o *options) { fn(&o.tun) }
}

func WithWorldID(id string) Option {
	return func(o *options) { o.cfg.ID = id }
}

func WithStepObserver(s driver.StepObserver) Option {
	return func(o *options) { o.steps = s }
}

// FlatConfig is the world used by New.
func FlatConfig(id string) world.Config {
	return world.Config{ID: id, Seed: 1, BoundaryR: 64, MinY: -16, MaxY: 64, GroundY: 0}
}

func New(t *testing.T, opts ...Option) *Harness {
	t.Helper()
	o := options{tun: tuning.Defaults(), cfg: FlatConfig("test")}
	for _, fn := range opts {
		fn(&o)
	}
	cats := Catalogs(t)
	d, err := driver.New(driver.Options{Catalogs: cats, Tuning: o.tun, Steps: o.steps})
	if err != nil {
		t.Fatalf("driver.New: %v", err)
	}
	w, err := world.New(o.cfg, cats, o.tun, nil)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	if err := d.AddWorld(w); err != nil {
		t.Fatalf("AddWorld: %v", err)
	}
	return &Harness{T: t, Cats: cats, Tun: o.tun, D: d, W: w}
}

// Catalogs loads configs/ from the repository root, found by walking up from
// the test's working directory.
func Catalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load(ConfigsDir(t))
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	return cats
}

func ConfigsDir(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		p := filepath.Join(dir, "configs")
		if _, err := os.Stat(filepath.Join(p, "blocks.json")); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("configs/ not found above working directory")
		}
		dir = parent
	}
}

func (h *Harness) AddAgent(spec world.AgentSpec) *world.Agent {
	h.T.Helper()
	a, err := h.W.AddAgent(spec)
	if err != nil {
		h.T.Fatalf("AddAgent: %v", err)
	}
	return a
}

func (h *Harness) Agent(id string) *world.Agent {
	h.T.Helper()
	a, ok := h.W.Agent(id)
	if !ok {
		h.T.Fatalf("unknown agent %s", id)
	}
	return a
}

func (h *Harness) Memory(id string) *model.Memory { return h.Agent(id).Memory() }

func (h *Harness) Status(id string) string { return h.Memory(id).JobStatus }

func (h *Harness) SetBlock(pos model.Vec3i, id string) {
	h.T.Helper()
	if !h.W.SetBlock(pos, id) {
		h.T.Fatalf("SetBlock(%s, %s) failed", pos, id)
	}
}

func (h *Harness) Chest(pos model.Vec3i, items ...model.ItemStack) *model.Container {
	h.T.Helper()
	c, ok := h.W.PlaceChest(pos, items...)
	if !ok {
		h.T.Fatalf("PlaceChest(%s) failed", pos)
	}
	return c
}

// Step advances the driver n ticks.
func (h *Harness) Step(n int) {
	for i := 0; i < n; i++ {
		h.Last = h.D.Step()
	}
}

// BrainTicks steps until workers have run n more times.
func (h *Harness) BrainTicks(n int) {
	every := uint64(h.Tun.BrainEveryTicks)
	for n > 0 {
		h.Last = h.D.Step()
		if h.D.Tick()%every == 0 {
			n--
		}
	}
}

// StepUntil steps until cond holds, at most max ticks. It reports whether
// cond was reached.
func (h *Harness) StepUntil(max int, cond func() bool) bool {
	for i := 0; i < max; i++ {
		if cond() {
			return true
		}
		h.Last = h.D.Step()
	}
	return cond()
}

// TargetOwner reports who holds pos in the target pool.
func (h *Harness) TargetOwner(pos model.Vec3i) string {
	owner, _ := h.D.Reservations().Targets.Owner(h.W.ID(), pos)
	return owner
}

func (h *Harness) ChestOwner(pos model.Vec3i) string {
	owner, _ := h.D.Reservations().Chests.Owner(h.W.ID(), pos)
	return owner
}

func P(x, y, z int) model.Vec3i { return model.Vec3i{X: x, Y: y, Z: z} }

func Stack(item string, n int) model.ItemStack { return model.ItemStack{Item: item, Count: n} }
