package world

import (
	"fmt"
	"math"

	"settlers.ai/internal/sim/world/kernel/model"
)

// Agent is a villager with an optional profession.
type Agent struct {
	w *World

	id          string
	profession  string
	workstation *model.Vec3i

	pos        model.Vec3f
	yaw, pitch float64

	inv  model.Inventory
	held string
	mem  model.Memory

	aiDisabled bool
	dead       bool
	walk       *walkTask
}

type walkTask struct {
	target     model.Vec3i
	speed      float64
	completion int
	progress   float64
}

type AgentSpec struct {
	ID          string
	Profession  string
	Pos         model.Vec3i
	Workstation *model.Vec3i
	Inventory   []model.ItemStack
	Held        string
}

// AddAgent places a new agent standing in block pos.
func (w *World) AddAgent(spec AgentSpec) (*Agent, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("world %s: agent without id", w.cfg.ID)
	}
	if _, dup := w.agents[spec.ID]; dup {
		return nil, fmt.Errorf("world %s: duplicate agent %s", w.cfg.ID, spec.ID)
	}
	if spec.Profession != "" {
		if _, ok := w.cats.Profession(spec.Profession); !ok {
			return nil, fmt.Errorf("world %s: agent %s: unknown profession %q", w.cfg.ID, spec.ID, spec.Profession)
		}
	}
	a := &Agent{
		w:          w,
		id:         spec.ID,
		profession: spec.Profession,
		pos:        spec.Pos.Bottom(),
		inv:        model.NewInventory(w.tun.Worker.InventorySize, &w.cats.Items),
		held:       spec.Held,
	}
	if spec.Workstation != nil {
		ws := *spec.Workstation
		a.workstation = &ws
	}
	for _, s := range spec.Inventory {
		a.inv.Add(s.Item, s.Count)
	}
	w.agents[a.id] = a
	return a, nil
}

// RemoveAgent deletes the agent. Its reservations become stale.
func (w *World) RemoveAgent(id string) {
	if a, ok := w.agents[id]; ok {
		a.dead = true
		delete(w.agents, id)
	}
}

// Kill marks the agent dead but keeps it around for inspection.
func (w *World) Kill(id string) {
	if a, ok := w.agents[id]; ok {
		a.dead = true
		a.walk = nil
	}
}

func (a *Agent) ID() string { return a.id }
func (a *Agent) Profession() string { return a.profession }
func (a *Agent) Dead() bool { return a.dead }

func (a *Agent) Workstation() (model.Vec3i, bool) {
	if a.workstation == nil {
		return model.Vec3i{}, false
	}
	return *a.workstation, true
}

func (a *Agent) SetWorkstation(pos *model.Vec3i) {
	if pos == nil {
		a.workstation = nil
		return
	}
	p := *pos
	a.workstation = &p
}

func (a *Agent) Pos() model.Vec3f { return a.pos }
func (a *Agent) BlockPos() model.Vec3i { return a.pos.Block() }
func (a *Agent) SetPosition(p model.Vec3f) {
	a.pos = p
	a.walk = nil
}

func (a *Agent) EyePos() model.Vec3f {
	return model.Vec3f{X: a.pos.X, Y: a.pos.Y + a.w.tun.Woodcutter.EyeHeight, Z: a.pos.Z}
}

// OnGround reports whether a solid block is right under the agent's feet.
func (a *Agent) OnGround() bool {
	return a.w.Block(a.BlockPos().Down()).Solid
}

func (a *Agent) Inventory() *model.Inventory { return &a.inv }
func (a *Agent) Memory() *model.Memory { return &a.mem }

func (a *Agent) Held() string { return a.held }

// SetHeld shows item in the agent's hand. The item stays in the inventory.
func (a *Agent) SetHeld(item string) { a.held = item }

func (a *Agent) AIEnabled() bool { return !a.aiDisabled }

// SetAIEnabled switches autonomous movement. Disabling it cancels the walk.
func (a *Agent) SetAIEnabled(on bool) {
	a.aiDisabled = !on
	if !on {
		a.walk = nil
	}
}

// WalkTo starts walking toward pos. The walk ends when the agent is within
// completion blocks horizontally and one block vertically, or when it gets
// stuck.
func (a *Agent) WalkTo(pos model.Vec3i, speed float64, completion int) {
	if completion < 0 {
		completion = 0
	}
	a.walk = &walkTask{target: pos, speed: speed, completion: completion}
}

func (a *Agent) Moving() bool { return a.walk != nil }

func (a *Agent) StopWalking() { a.walk = nil }

// WalkTarget is where the agent is walking to.
func (a *Agent) WalkTarget() (model.Vec3i, bool) {
	if a.walk == nil {
		return model.Vec3i{}, false
	}
	return a.walk.target, true
}

// LookAt turns the agent's head toward p.
func (a *Agent) LookAt(p model.Vec3f) {
	d := p.Sub(a.EyePos())
	horiz := math.Hypot(d.X, d.Z)
	a.yaw = math.Atan2(-d.X, d.Z) * 180 / math.Pi
	a.pitch = -math.Atan2(d.Y, horiz) * 180 / math.Pi
}

func (a *Agent) Look() (yaw, pitch float64) { return a.yaw, a.pitch }
