// Package scenario loads the YAML description of a run: the worlds, what is
// placed in them before the first tick, and the workers.
package scenario

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"settlers.ai/internal/sim/catalogs"
	"settlers.ai/internal/sim/driver"
	"settlers.ai/internal/sim/tuning"
	"settlers.ai/internal/sim/world"
	"settlers.ai/internal/sim/world/kernel/model"
)

type Config struct {
	Name   string      `yaml:"name"`
	Worlds []WorldSpec `yaml:"worlds"`
}

type WorldSpec struct {
	ID               string `yaml:"id"`
	Seed             int64  `yaml:"seed"`
	BoundaryR        int    `yaml:"boundary_r"`
	MinY             int    `yaml:"min_y"`
	MaxY             int    `yaml:"max_y"`
	GroundY          int    `yaml:"ground_y"`
	SpawnClearRadius int    `yaml:"spawn_clear_radius"`
	TreePermille     int    `yaml:"tree_permille"`

	Blocks []BlockSpec `yaml:"blocks,omitempty"`
	Chests []ChestSpec `yaml:"chests,omitempty"`
	Frames []FrameSpec `yaml:"frames,omitempty"`
	Agents []AgentSpec `yaml:"agents,omitempty"`
}

type BlockSpec struct {
	Pos   [3]int `yaml:"pos"`
	Block string `yaml:"block"`
}

type ChestSpec struct {
	Pos   [3]int         `yaml:"pos"`
	Items map[string]int `yaml:"items,omitempty"`
}

type FrameSpec struct {
	Pos  [3]int `yaml:"pos"`
	Item string `yaml:"item"`
}

type AgentSpec struct {
	ID         string `yaml:"id"`
	Profession string `yaml:"profession"`
	Pos        [3]int `yaml:"pos"`
	// Workstation is placed as the profession's workstation block when the
	// position is free.
	Workstation *[3]int        `yaml:"workstation,omitempty"`
	Inventory   map[string]int `yaml:"inventory,omitempty"`
	Held        string         `yaml:"held,omitempty"`
	// DepositChest is claimed for the agent before the first tick.
	DepositChest *[3]int `yaml:"deposit_chest,omitempty"`
}

func Load(path string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) == "" {
		return cfg, fmt.Errorf("scenario: empty path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(b)
}

func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("scenario: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("scenario: %w", err)
	}
	return cfg, nil
}

// Normalize fills world bounds and gives agents without an id a stable one
// derived from the world and the agent's place in the list.
func (c *Config) Normalize() {
	for i := range c.Worlds {
		w := &c.Worlds[i]
		w.ID = strings.TrimSpace(w.ID)
		if w.BoundaryR <= 0 {
			w.BoundaryR = 64
		}
		if w.MaxY <= w.MinY {
			w.MinY, w.MaxY = -16, 96
		}
		for j := range w.Agents {
			a := &w.Agents[j]
			a.ID = strings.TrimSpace(a.ID)
			a.Profession = strings.ToLower(strings.TrimSpace(a.Profession))
			if a.ID == "" {
				a.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", w.ID, j))).String()
			}
		}
	}
}

func (c Config) Validate() error {
	if len(c.Worlds) == 0 {
		return fmt.Errorf("no worlds")
	}
	worlds := map[string]bool{}
	for _, w := range c.Worlds {
		if w.ID == "" {
			return fmt.Errorf("world without id")
		}
		if worlds[w.ID] {
			return fmt.Errorf("duplicate world id %q", w.ID)
		}
		worlds[w.ID] = true
		if w.GroundY < w.MinY || w.GroundY >= w.MaxY {
			return fmt.Errorf("world %s: ground_y %d outside [%d,%d)", w.ID, w.GroundY, w.MinY, w.MaxY)
		}
		if w.TreePermille < 0 || w.TreePermille > 1000 {
			return fmt.Errorf("world %s: tree_permille must be in [0,1000]", w.ID)
		}
		agents := map[string]bool{}
		for _, a := range w.Agents {
			if agents[a.ID] {
				return fmt.Errorf("world %s: duplicate agent id %q", w.ID, a.ID)
			}
			agents[a.ID] = true
			if a.Profession == "" {
				return fmt.Errorf("world %s: agent %s has no profession", w.ID, a.ID)
			}
			for item, n := range a.Inventory {
				if n <= 0 {
					return fmt.Errorf("world %s: agent %s: %s count %d", w.ID, a.ID, item, n)
				}
			}
		}
		for _, ch := range w.Chests {
			for item, n := range ch.Items {
				if n <= 0 {
					return fmt.Errorf("world %s: chest %v: %s count %d", w.ID, ch.Pos, item, n)
				}
			}
		}
	}
	return nil
}

func (w WorldSpec) Config() world.Config {
	return world.Config{
		ID:               w.ID,
		Seed:             w.Seed,
		BoundaryR:        w.BoundaryR,
		MinY:             w.MinY,
		MaxY:             w.MaxY,
		GroundY:          w.GroundY,
		SpawnClearRadius: w.SpawnClearRadius,
		TreePermille:     w.TreePermille,
	}
}

// Build creates every world of the scenario and registers it with d.
// Catalog references (blocks, items, professions) are checked here.
func (c Config) Build(d *driver.Driver, cats *catalogs.Catalogs, tun tuning.Tuning, logger *log.Logger) error {
	for _, ws := range c.Worlds {
		w, err := world.New(ws.Config(), cats, tun, logger)
		if err != nil {
			return err
		}
		if err := ws.populate(w, cats); err != nil {
			return fmt.Errorf("scenario: world %s: %w", ws.ID, err)
		}
		if err := d.AddWorld(w); err != nil {
			return err
		}
		for _, a := range ws.Agents {
			if a.DepositChest == nil {
				continue
			}
			p := vec(*a.DepositChest)
			if !d.Reservations().Chests.Reserve(ws.ID, a.ID, p) {
				return fmt.Errorf("scenario: world %s: deposit chest %s claimed twice", ws.ID, p)
			}
		}
	}
	d.RefreshDepositChests()
	return nil
}

func (ws WorldSpec) populate(w *world.World, cats *catalogs.Catalogs) error {
	for _, b := range ws.Blocks {
		if !w.SetBlock(vec(b.Pos), b.Block) {
			return fmt.Errorf("block %s at %v", b.Block, b.Pos)
		}
	}
	for _, ch := range ws.Chests {
		items, err := stacks(cats, ch.Items)
		if err != nil {
			return fmt.Errorf("chest %v: %w", ch.Pos, err)
		}
		if _, ok := w.PlaceChest(vec(ch.Pos), items...); !ok {
			return fmt.Errorf("chest at %v", ch.Pos)
		}
	}
	for _, f := range ws.Frames {
		if _, ok := cats.Items.Defs[f.Item]; !ok {
			return fmt.Errorf("frame %v: unknown item %s", f.Pos, f.Item)
		}
		w.SetItemFrame(vec(f.Pos), f.Item)
	}
	for _, a := range ws.Agents {
		prof, ok := cats.Profession(a.Profession)
		if !ok {
			return fmt.Errorf("agent %s: unknown profession %q", a.ID, a.Profession)
		}
		spec := world.AgentSpec{ID: a.ID, Profession: a.Profession, Pos: vec(a.Pos), Held: a.Held}
		if a.Workstation != nil {
			p := vec(*a.Workstation)
			spec.Workstation = &p
			if w.Block(p).Air() && prof.Workstation != "" && !w.SetBlock(p, prof.Workstation) {
				return fmt.Errorf("agent %s: workstation at %s", a.ID, p)
			}
		}
		items, err := stacks(cats, a.Inventory)
		if err != nil {
			return fmt.Errorf("agent %s: %w", a.ID, err)
		}
		spec.Inventory = items
		ag, err := w.AddAgent(spec)
		if err != nil {
			return err
		}
		if a.DepositChest != nil {
			p := vec(*a.DepositChest)
			ag.Memory().DepositChest = &p
		}
	}
	return nil
}

// stacks turns an item map into stacks in item order.
func stacks(cats *catalogs.Catalogs, items map[string]int) ([]model.ItemStack, error) {
	kinds := make([]string, 0, len(items))
	for k := range items {
		if _, ok := cats.Items.Defs[k]; !ok {
			return nil, fmt.Errorf("unknown item %s", k)
		}
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	out := make([]model.ItemStack, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, model.ItemStack{Item: k, Count: items[k]})
	}
	return out, nil
}

func vec(p [3]int) model.Vec3i { return model.Vec3i{X: p[0], Y: p[1], Z: p[2]} }
