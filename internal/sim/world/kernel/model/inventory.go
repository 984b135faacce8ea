package model

import "sort"

const DefaultMaxStack = 64

type ItemStack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

func (s ItemStack) Empty() bool { return s.Item == "" || s.Count <= 0 }

// StackLimits resolves the maximum stack size of an item kind.
type StackLimits interface {
	MaxStack(item string) int
}

// Inventory is a fixed number of slots. Agents and chests both use it.
type Inventory struct {
	Slots []ItemStack `json:"slots"`

	limits StackLimits
}

func NewInventory(size int, limits StackLimits) Inventory {
	if size < 0 {
		size = 0
	}
	return Inventory{Slots: make([]ItemStack, size), limits: limits}
}

// SetLimits is needed after decoding, since limits are not serialized.
func (inv *Inventory) SetLimits(l StackLimits) { inv.limits = l }

func (inv *Inventory) MaxStack(item string) int {
	if inv.limits == nil {
		return DefaultMaxStack
	}
	if n := inv.limits.MaxStack(item); n > 0 {
		return n
	}
	return DefaultMaxStack
}

func (inv *Inventory) Size() int { return len(inv.Slots) }

func (inv *Inventory) Empty() bool {
	for _, s := range inv.Slots {
		if !s.Empty() {
			return false
		}
	}
	return true
}

// Total is the number of item units held.
func (inv *Inventory) Total() int {
	n := 0
	for _, s := range inv.Slots {
		if !s.Empty() {
			n += s.Count
		}
	}
	return n
}

func (inv *Inventory) Count(item string) int {
	n := 0
	for _, s := range inv.Slots {
		if !s.Empty() && s.Item == item {
			n += s.Count
		}
	}
	return n
}

func (inv *Inventory) Contains(item string) bool { return inv.Count(item) > 0 }

// HasEmptySlot reports whether at least one slot is free.
func (inv *Inventory) HasEmptySlot() bool {
	for _, s := range inv.Slots {
		if s.Empty() {
			return true
		}
	}
	return false
}

// Add merges into existing stacks of the same kind first, then fills empty
// slots. It returns the number of units that did not fit.
func (inv *Inventory) Add(item string, n int) int {
	if item == "" || n <= 0 {
		return 0
	}
	max := inv.MaxStack(item)
	for i := range inv.Slots {
		if n == 0 {
			return 0
		}
		s := &inv.Slots[i]
		if s.Empty() || s.Item != item || s.Count >= max {
			continue
		}
		move := min(max-s.Count, n)
		s.Count += move
		n -= move
	}
	for i := range inv.Slots {
		if n == 0 {
			return 0
		}
		s := &inv.Slots[i]
		if !s.Empty() {
			continue
		}
		move := min(max, n)
		*s = ItemStack{Item: item, Count: move}
		n -= move
	}
	return n
}

// CanAccept reports how many units of item would fit.
func (inv *Inventory) CanAccept(item string) int {
	max := inv.MaxStack(item)
	n := 0
	for _, s := range inv.Slots {
		switch {
		case s.Empty():
			n += max
		case s.Item == item && s.Count < max:
			n += max - s.Count
		}
	}
	return n
}

// Remove takes up to n units of item and returns how many were removed.
func (inv *Inventory) Remove(item string, n int) int {
	removed := 0
	for i := range inv.Slots {
		if removed == n {
			break
		}
		s := &inv.Slots[i]
		if s.Empty() || s.Item != item {
			continue
		}
		take := min(s.Count, n-removed)
		s.Count -= take
		removed += take
		if s.Count == 0 {
			*s = ItemStack{}
		}
	}
	return removed
}

// Take empties slot i and returns what it held.
func (inv *Inventory) Take(i int) ItemStack {
	if i < 0 || i >= len(inv.Slots) {
		return ItemStack{}
	}
	s := inv.Slots[i]
	inv.Slots[i] = ItemStack{}
	if s.Empty() {
		return ItemStack{}
	}
	return s
}

// Put overwrites slot i.
func (inv *Inventory) Put(i int, s ItemStack) {
	if i < 0 || i >= len(inv.Slots) {
		return
	}
	if s.Empty() {
		s = ItemStack{}
	}
	inv.Slots[i] = s
}

func (inv *Inventory) Clear() {
	for i := range inv.Slots {
		inv.Slots[i] = ItemStack{}
	}
}

// Counts is the inventory as a multiset.
func (inv *Inventory) Counts() map[string]int {
	out := map[string]int{}
	for _, s := range inv.Slots {
		if !s.Empty() {
			out[s.Item] += s.Count
		}
	}
	return out
}

// Kinds lists the distinct item kinds held, sorted.
func (inv *Inventory) Kinds() []string {
	counts := inv.Counts()
	out := make([]string, 0, len(counts))
	for k := range counts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone copies the slots. Limits are shared.
func (inv *Inventory) Clone() Inventory {
	return Inventory{Slots: append([]ItemStack(nil), inv.Slots...), limits: inv.limits}
}
