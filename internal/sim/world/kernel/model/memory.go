package model

import "settlers.ai/internal/sim/world/logic/recipes"

// Memory is everything a worker carries from one tick to the next.
// Optional values are pointers; forgetting a value sets it to nil.
type Memory struct {
	JobStatus string `json:"job_status,omitempty"`

	Target        *Vec3i   `json:"target,omitempty"`
	DepositChest  *Vec3i   `json:"deposit_chest,omitempty"`
	BreakProgress *float64 `json:"break_progress,omitempty"`

	NoWorkUntil *uint64 `json:"no_work_until,omitempty"`
	PauseUntil  *uint64 `json:"pause_until,omitempty"`

	// WalkTarget is the tile the current walking_* state walks to.
	WalkTarget   *Vec3i `json:"walk_target,omitempty"`
	WalkFailures int    `json:"walk_failures,omitempty"`

	// PillarBlocks is a stack of blocks placed while pillaring, newest last.
	PillarBlocks  []Vec3i `json:"pillar_blocks,omitempty"`
	KeepPillaring bool    `json:"keep_pillaring,omitempty"`

	ItemToCarry string `json:"item_to_carry,omitempty"`
	ItemInHand  string `json:"item_in_hand,omitempty"`

	// WantedItems overrides the profession's wanted kinds when non-nil.
	WantedItems    []string            `json:"wanted_items,omitempty"`
	Recipes        []recipes.Available `json:"recipes,omitempty"`
	SelectedRecipe *recipes.Available  `json:"selected_recipe,omitempty"`
}

func (m *Memory) ForgetTarget() {
	m.Target = nil
	m.BreakProgress = nil
}

func (m *Memory) ForgetWalk() {
	m.WalkTarget = nil
	m.WalkFailures = 0
}

func (m *Memory) PushPillar(p Vec3i) { m.PillarBlocks = append(m.PillarBlocks, p) }

func (m *Memory) PopPillar() (Vec3i, bool) {
	n := len(m.PillarBlocks)
	if n == 0 {
		return Vec3i{}, false
	}
	p := m.PillarBlocks[n-1]
	m.PillarBlocks = m.PillarBlocks[:n-1]
	if len(m.PillarBlocks) == 0 {
		m.PillarBlocks = nil
	}
	return p, true
}

// Pausing reports whether an action pause is still running at tick now.
func (m *Memory) Pausing(now uint64) bool {
	if m.PauseUntil == nil {
		return false
	}
	if now >= *m.PauseUntil {
		m.PauseUntil = nil
		return false
	}
	return true
}

func Ptr[T any](v T) *T { return &v }

// Clone deep-copies the memory so a snapshot does not alias live state.
func (m Memory) Clone() Memory {
	c := m
	clonePos := func(p *Vec3i) *Vec3i {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	c.Target = clonePos(m.Target)
	c.DepositChest = clonePos(m.DepositChest)
	c.WalkTarget = clonePos(m.WalkTarget)
	if m.BreakProgress != nil {
		c.BreakProgress = Ptr(*m.BreakProgress)
	}
	if m.NoWorkUntil != nil {
		c.NoWorkUntil = Ptr(*m.NoWorkUntil)
	}
	if m.PauseUntil != nil {
		c.PauseUntil = Ptr(*m.PauseUntil)
	}
	c.PillarBlocks = append([]Vec3i(nil), m.PillarBlocks...)
	c.WantedItems = append([]string(nil), m.WantedItems...)
	c.Recipes = append([]recipes.Available(nil), m.Recipes...)
	if m.SelectedRecipe != nil {
		r := *m.SelectedRecipe
		c.SelectedRecipe = &r
	}
	return c
}
