package reservations

import (
	"testing"

	"settlers.ai/internal/sim/world/kernel/model"
)

type fakeSource struct {
	chests map[model.Vec3i]*model.Container
	wanted map[string][]string
}

func (f fakeSource) Chest(_ string, pos model.Vec3i) (*model.Container, bool) {
	c, ok := f.chests[pos]
	return c, ok
}

func (f fakeSource) WantedBy(_, agent string) []string { return f.wanted[agent] }

type limits map[string]int

func (l limits) MaxStack(item string) int { return l[item] }

func chest(pos model.Vec3i, slots ...model.ItemStack) *model.Container {
	inv := model.NewInventory(len(slots), limits{"OAK_LOG": 64, "WOODEN_AXE": 1, "OAK_SAPLING": 64})
	copy(inv.Slots, slots)
	return &model.Container{Type: "CHEST", Pos: pos, Inventory: inv}
}

func TestRefreshDepositChests(t *testing.T) {
	cutterChest := model.Vec3i{X: 10}
	crafterChest := model.Vec3i{X: 20}
	removed := model.Vec3i{X: 30}
	src := fakeSource{
		chests: map[model.Vec3i]*model.Container{
			cutterChest:  chest(cutterChest, model.ItemStack{Item: "OAK_LOG", Count: 12}, model.ItemStack{Item: "WOODEN_AXE", Count: 1}),
			crafterChest: chest(crafterChest, model.ItemStack{Item: "OAK_LOG", Count: 3}, model.ItemStack{}),
		},
		wanted: map[string][]string{
			"cutter":  {"WOODEN_AXE"},
			"crafter": {"OAK_LOG", "OAK_SAPLING"},
		},
	}
	r := New(nil)
	r.Chests.Reserve(w, "cutter", cutterChest)
	r.Chests.Reserve(w, "crafter", crafterChest)
	r.Chests.Reserve(w, "ghost", removed)

	if _, ok := r.SnapshotAge(5); ok {
		t.Fatalf("no snapshot before first refresh")
	}
	r.RefreshDepositChests(src, 5)

	snap := r.DepositChests()
	if len(snap) != 2 {
		t.Fatalf("snapshot=%+v", snap)
	}
	if !r.Chests.IsAvailable(w, removed) {
		t.Fatalf("non-chest reservation should be released")
	}

	var cutter, crafter DepositChest
	for _, d := range snap {
		switch d.Owner {
		case "cutter":
			cutter = d
		case "crafter":
			crafter = d
		}
	}
	// Full chest with a full axe stack: nothing wanted, logs and the axe
	// have no room left, so both can be carried away.
	if len(cutter.Wanted) != 0 || !cutter.Contains("OAK_LOG") || !cutter.Contains("WOODEN_AXE") {
		t.Fatalf("cutter=%+v", cutter)
	}
	if cutter.WantedCount != 1 {
		t.Fatalf("cutter wanted count=%d", cutter.WantedCount)
	}
	// Empty slot: wants everything the crafter wants.
	if !crafter.Wants("OAK_LOG") || !crafter.Wants("OAK_SAPLING") || len(crafter.Contained) != 0 {
		t.Fatalf("crafter=%+v", crafter)
	}
	if crafter.WantedCount != 3 {
		t.Fatalf("crafter wanted count=%d", crafter.WantedCount)
	}

	if age, ok := r.SnapshotAge(25); !ok || age != 20 {
		t.Fatalf("age=%d ok=%v", age, ok)
	}

	near := r.NearestDepositChests(w, model.Vec3i{X: 19})
	if len(near) != 2 || near[0].Pos != crafterChest {
		t.Fatalf("nearest=%+v", near)
	}
	if len(r.NearestDepositChests("nether", model.Vec3i{})) != 0 {
		t.Fatalf("other worlds must not leak")
	}
}

func TestRefreshDepositChests_PartialWantedStackNotContained(t *testing.T) {
	pos := model.Vec3i{X: 1}
	src := fakeSource{
		chests: map[model.Vec3i]*model.Container{
			pos: chest(pos, model.ItemStack{Item: "OAK_LOG", Count: 64}, model.ItemStack{Item: "OAK_LOG", Count: 5}),
		},
		wanted: map[string][]string{"crafter": {"OAK_LOG"}},
	}
	r := New(nil)
	r.Chests.Reserve(w, "crafter", pos)
	r.RefreshDepositChests(src, 1)

	snap := r.DepositChests()
	if len(snap) != 1 || !snap[0].Wants("OAK_LOG") || snap[0].Contains("OAK_LOG") {
		t.Fatalf("snapshot=%+v", snap)
	}
	if snap[0].WantedCount != 69 {
		t.Fatalf("wanted count=%d", snap[0].WantedCount)
	}
}

func TestRefreshDepositChests_SkipsDeadOwners(t *testing.T) {
	alivePos := model.Vec3i{X: 1}
	deadPos := model.Vec3i{X: 2}
	src := fakeSource{
		chests: map[model.Vec3i]*model.Container{
			alivePos: chest(alivePos, model.ItemStack{}),
			deadPos:  chest(deadPos, model.ItemStack{}),
		},
		wanted: map[string][]string{"live": {"OAK_LOG"}, "dead": {"OAK_LOG"}},
	}
	live := liveSet{"live": true, "dead": true}
	r := New(live.alive)
	r.Chests.Reserve(w, "live", alivePos)
	r.Chests.Reserve(w, "dead", deadPos)

	live["dead"] = false
	r.RefreshDepositChests(src, 1)

	snap := r.DepositChests()
	if len(snap) != 1 || snap[0].Owner != "live" {
		t.Fatalf("snapshot=%+v", snap)
	}
	if _, ok := r.Chests.Owner(w, deadPos); ok {
		t.Fatalf("dead owner's chest claim should be purged")
	}
	if _, ok := r.Chests.Owned(w, "dead"); ok {
		t.Fatalf("dead owner should own nothing")
	}
}
