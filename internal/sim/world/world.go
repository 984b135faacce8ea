// Package world is the host simulation the workers live in: a block grid,
// chests, dropped items, item frames and the agents themselves. It implements
// the world and agent access interfaces the worker brains consume.
//
// A World is not safe for concurrent use; the driver steps it from one
// goroutine.
package world

import (
	"fmt"
	"io"
	"log"
	"sort"

	"settlers.ai/internal/sim/catalogs"
	"settlers.ai/internal/sim/tuning"
	"settlers.ai/internal/sim/world/kernel/model"
	"settlers.ai/internal/sim/world/logic/recipes"
	"settlers.ai/internal/sim/world/terrain/store"
)

type Config struct {
	ID               string
	Seed             int64
	BoundaryR        int
	MinY             int
	MaxY             int
	GroundY          int
	SpawnClearRadius int
	TreePermille     int
}

func (c *Config) normalize() {
	if c.ID == "" {
		c.ID = "overworld"
	}
	if c.MaxY <= c.MinY {
		c.MinY, c.MaxY = -16, 96
	}
}

type World struct {
	cfg  Config
	cats *catalogs.Catalogs
	tun  tuning.Tuning
	log  *log.Logger

	tick   uint64
	chunks *store.ChunkStore

	agents     map[string]*Agent
	containers map[model.Vec3i]*model.Container
	items      map[model.Vec3i][]*model.ItemEntity
	frames     map[model.Vec3i]string
	saplings   map[model.Vec3i]bool
	nextItemID uint64

	gatherable map[string]map[string]bool // profession -> item kinds
}

func New(cfg Config, cats *catalogs.Catalogs, tun tuning.Tuning, logger *log.Logger) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("world %s: nil catalogs", cfg.ID)
	}
	cfg.normalize()
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	gen, err := worldGen(cfg, cats)
	if err != nil {
		return nil, err
	}
	w := &World{
		cfg:        cfg,
		cats:       cats,
		tun:        tun,
		log:        logger,
		chunks:     store.NewChunkStore(gen),
		agents:     map[string]*Agent{},
		containers: map[model.Vec3i]*model.Container{},
		items:      map[model.Vec3i][]*model.ItemEntity{},
		frames:     map[model.Vec3i]string{},
		saplings:   map[model.Vec3i]bool{},
		gatherable: map[string]map[string]bool{},
	}
	for id, p := range cats.Professions.ByID {
		set := map[string]bool{}
		for _, k := range cats.Items.Expand(p.Gatherable) {
			set[k] = true
		}
		w.gatherable[id] = set
	}
	return w, nil
}

func worldGen(cfg Config, cats *catalogs.Catalogs) (store.WorldGen, error) {
	idx := func(id string) (uint16, error) {
		v, ok := cats.Blocks.Index[id]
		if !ok {
			return 0, fmt.Errorf("world %s: block %s missing from catalog", cfg.ID, id)
		}
		return v, nil
	}
	gen := store.WorldGen{
		Seed:             cfg.Seed,
		BoundaryR:        cfg.BoundaryR,
		MinY:             cfg.MinY,
		MaxY:             cfg.MaxY,
		GroundY:          cfg.GroundY,
		SpawnClearRadius: cfg.SpawnClearRadius,
		TreePermille:     cfg.TreePermille,
	}
	var err error
	for _, b := range []struct {
		dst *uint16
		id  string
	}{
		{&gen.Air, "AIR"},
		{&gen.Stone, "STONE"},
		{&gen.Dirt, "DIRT"},
		{&gen.Grass, "GRASS_BLOCK"},
		{&gen.Log, "OAK_LOG"},
		{&gen.Leaves, "OAK_LEAVES"},
	} {
		if *b.dst, err = idx(b.id); err != nil {
			return gen, err
		}
	}
	return gen, nil
}

func (w *World) ID() string { return w.cfg.ID }
func (w *World) Tick() uint64 { return w.tick }
func (w *World) Config() Config { return w.cfg }
func (w *World) Catalogs() *catalogs.Catalogs { return w.cats }
func (w *World) Tuning() tuning.Tuning { return w.tun }

// Step advances the host simulation by one tick: gravity, walking, item
// pickup, falling items, despawn and sapling growth. Worker brains run after Step.
func (w *World) Step() {
	w.tick++
	for _, a := range w.Agents() {
		if a.dead {
			continue
		}
		w.applyGravity(a)
		w.stepWalk(a)
		w.collectItems(a)
	}
	w.settleItems()
	w.despawnItems()
	if every := w.tun.World.SaplingGrowEveryTicks; every > 0 && w.tick%uint64(every) == 0 {
		w.growSaplings()
	}
}

// Agents returns every agent sorted by id.
func (w *World) Agents() []*Agent {
	out := make([]*Agent, 0, len(w.agents))
	for _, a := range w.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (w *World) Agent(id string) (*Agent, bool) {
	a, ok := w.agents[id]
	return a, ok
}

// Alive reports whether the agent exists and has not died.
func (w *World) Alive(id string) bool {
	a, ok := w.agents[id]
	return ok && !a.dead
}

func (w *World) ToolSpeed(item, block string) float64 {
	return w.cats.ToolSpeed(item, block)
}

func (w *World) CraftingRecipes(output string) []recipes.Definition {
	return w.cats.CraftingRecipes(output)
}

// Gatherable reports whether agents of a profession pick up item.
func (w *World) Gatherable(profession, item string) bool {
	return w.gatherable[profession][item]
}
