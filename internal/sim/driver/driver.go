// Package driver advances every world of a run in lockstep and ticks the
// worker brains between world steps.
//
// All mutation happens on the goroutine calling Step (or Run). Readers such
// as the observer go through View, which takes the same lock.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"settlers.ai/internal/sim/brain"
	"settlers.ai/internal/sim/catalogs"
	"settlers.ai/internal/sim/reservations"
	"settlers.ai/internal/sim/tuning"
	"settlers.ai/internal/sim/world"
)

var ErrUnknownWorld = errors.New("unknown world")

// StepObserver is told how long each Step took. metrics.Metrics implements it.
type StepObserver interface {
	ObserveStep(d time.Duration, brains bool)
}

type Options struct {
	Catalogs *catalogs.Catalogs
	Tuning   tuning.Tuning
	Log      *log.Logger

	// Sink receives every transition and reservation conflict. Optional.
	Sink brain.Sink
	// Steps is told the duration of every Step. Optional.
	Steps StepObserver
}

type Driver struct {
	mu sync.Mutex

	cats  *catalogs.Catalogs
	tun   tuning.Tuning
	log   *log.Logger
	profs map[string]brain.Profession
	res   *reservations.Registry
	sink  brain.Sink
	steps StepObserver

	tick   uint64
	worlds []*runtime // sorted by id
	byID   map[string]*runtime

	// Per-tick records, reset by Step.
	transitions map[string][]TransitionRecord
	conflicts   map[string][]ConflictRecord
}

type runtime struct {
	w      *world.World
	env    *brain.Env
	brains map[string]*brain.Brain
}

func New(opts Options) (*Driver, error) {
	if opts.Catalogs == nil {
		return nil, fmt.Errorf("driver: nil catalogs")
	}
	if err := opts.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	logger := opts.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	d := &Driver{
		cats:        opts.Catalogs,
		tun:         opts.Tuning,
		log:         logger,
		profs:       brain.Professions(opts.Catalogs),
		sink:        opts.Sink,
		steps:       opts.Steps,
		byID:        map[string]*runtime{},
		transitions: map[string][]TransitionRecord{},
		conflicts:   map[string][]ConflictRecord{},
	}
	d.res = reservations.New(d.alive)
	return d, nil
}

func (d *Driver) alive(worldID, agentID string) bool {
	rt := d.byID[worldID]
	return rt != nil && rt.w.Alive(agentID)
}

// AddWorld registers a world. The driver owns it from now on.
func (d *Driver) AddWorld(w *world.World) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addWorldLocked(w)
}

func (d *Driver) addWorldLocked(w *world.World) error {
	if w == nil {
		return fmt.Errorf("driver: nil world")
	}
	if _, dup := d.byID[w.ID()]; dup {
		return fmt.Errorf("driver: duplicate world %s", w.ID())
	}
	// Worlds step in lockstep; the deposit chest snapshot age relies on it.
	if w.Tick() != d.tick {
		return fmt.Errorf("driver: world %s at tick %d, driver at %d", w.ID(), w.Tick(), d.tick)
	}
	rt := &runtime{w: w, brains: map[string]*brain.Brain{}}
	rt.env = &brain.Env{
		World:        w,
		Reservations: d.res,
		Tuning:       d.tun,
		Professions:  d.profs,
		Refresh:      d.refreshLocked,
		Sink:         recorder{d},
		Log:          d.log,
	}
	d.byID[w.ID()] = rt
	d.worlds = append(d.worlds, rt)
	sort.Slice(d.worlds, func(i, j int) bool { return d.worlds[i].w.ID() < d.worlds[j].w.ID() })
	return nil
}

// WorldIDs lists the registered worlds in stepping order.
func (d *Driver) WorldIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.worlds))
	for _, rt := range d.worlds {
		out = append(out, rt.w.ID())
	}
	return out
}

func (d *Driver) Reservations() *reservations.Registry { return d.res }
func (d *Driver) Tuning() tuning.Tuning { return d.tun }

func (d *Driver) Tick() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tick
}

// View runs fn with the driver locked, so fn sees a consistent state between
// two steps. fn must not call back into the driver.
func (d *Driver) View(worldID string, fn func(w *world.World)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rt := d.byID[worldID]
	if rt == nil {
		return fmt.Errorf("%w: %s", ErrUnknownWorld, worldID)
	}
	fn(rt.w)
	return nil
}

// RemoveAgent deletes an agent and releases everything it reserved.
func (d *Driver) RemoveAgent(worldID, agentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rt := d.byID[worldID]
	if rt == nil {
		return fmt.Errorf("%w: %s", ErrUnknownWorld, worldID)
	}
	rt.w.RemoveAgent(agentID)
	delete(rt.brains, agentID)
	d.res.Forget(worldID, agentID)
	return nil
}

// Step advances every world by one tick. On brain ticks every worker with a
// known profession runs once, worlds in id order and agents in id order.
func (d *Driver) Step() []TickLogEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	start := time.Now()

	d.tick++
	for _, rt := range d.worlds {
		rt.w.Step()
	}
	if d.tick%uint64(d.tun.DepositRefreshEveryTicks) == 0 {
		d.refreshLocked()
	}
	brains := d.tick%uint64(d.tun.BrainEveryTicks) == 0
	if brains {
		for _, rt := range d.worlds {
			d.tickBrains(rt)
		}
	}

	entries := make([]TickLogEntry, 0, len(d.worlds))
	for _, rt := range d.worlds {
		id := rt.w.ID()
		entries = append(entries, TickLogEntry{
			World:       id,
			Tick:        rt.w.Tick(),
			Agents:      len(rt.w.Agents()),
			Transitions: d.transitions[id],
			Conflicts:   d.conflicts[id],
			Digest:      rt.w.Digest(),
		})
		delete(d.transitions, id)
		delete(d.conflicts, id)
	}
	if d.steps != nil {
		d.steps.ObserveStep(time.Since(start), brains)
	}
	return entries
}

func (d *Driver) tickBrains(rt *runtime) {
	for _, a := range rt.w.Agents() {
		if a.Dead() || a.Profession() == "" {
			continue
		}
		b := rt.brains[a.ID()]
		if b == nil {
			kind, ok := brain.ParseKind(a.Profession())
			if !ok {
				continue
			}
			b = brain.New(kind, uint64(d.tun.Seed), rt.w.ID()+"/"+a.ID())
			rt.brains[a.ID()] = b
		}
		b.Tick(rt.env, a)
	}
}

// Run steps at the tuning's tick rate until ctx is done. onTick, when set,
// receives the log entries of every step; it runs on the stepping goroutine
// and should not block.
func (d *Driver) Run(ctx context.Context, onTick func([]TickLogEntry)) error {
	interval := time.Second / time.Duration(d.tun.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			entries := d.Step()
			if onTick != nil {
				onTick(entries)
			}
		}
	}
}

// recorder is the brain.Sink of every world: it keeps this tick's records
// for the log entry and forwards to the configured sink.
type recorder struct{ d *Driver }

func (r recorder) Transition(t brain.Transition) {
	r.d.transitions[t.World] = append(r.d.transitions[t.World], TransitionRecord{
		Agent:      t.Agent,
		Profession: t.Profession,
		From:       t.From,
		To:         t.To,
	})
	if r.d.sink != nil {
		r.d.sink.Transition(t)
	}
}

func (r recorder) Conflict(c brain.Conflict) {
	r.d.conflicts[c.World] = append(r.d.conflicts[c.World], ConflictRecord{
		Agent: c.Agent,
		Pool:  c.Pool.String(),
		Pos:   [3]int{c.Pos.X, c.Pos.Y, c.Pos.Z},
	})
	if r.d.sink != nil {
		r.d.sink.Conflict(c)
	}
}
