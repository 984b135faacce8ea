package world

import (
	"testing"

	"settlers.ai/internal/sim/catalogs"
	"settlers.ai/internal/sim/tuning"
	"settlers.ai/internal/sim/world/kernel/model"
)

func newFlat(t *testing.T, mut func(*tuning.Tuning)) *World {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	tun := tuning.Defaults()
	if mut != nil {
		mut(&tun)
	}
	w, err := New(Config{ID: "w", Seed: 1, BoundaryR: 32, MinY: -8, MaxY: 32, GroundY: 0}, cats, tun, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func pos(x, y, z int) model.Vec3i { return model.Vec3i{X: x, Y: y, Z: z} }

func TestWalkTo_ReachesTarget(t *testing.T) {
	w := newFlat(t, nil)
	a, err := w.AddAgent(AgentSpec{ID: "a", Pos: pos(0, 1, 0)})
	if err != nil {
		t.Fatalf("AddAgent: %v", err)
	}
	a.WalkTo(pos(6, 1, 0), 1, 0)
	for i := 0; i < 20 && a.Moving(); i++ {
		w.Step()
	}
	if a.Moving() || a.BlockPos() != pos(6, 1, 0) {
		t.Fatalf("agent at %s moving=%v", a.BlockPos(), a.Moving())
	}
}

func TestWalkTo_StepsUpAndAroundWall(t *testing.T) {
	w := newFlat(t, nil)
	a, _ := w.AddAgent(AgentSpec{ID: "a", Pos: pos(0, 1, 0)})
	for z := -1; z <= 1; z++ {
		w.SetBlock(pos(3, 1, z), "STONE")
		w.SetBlock(pos(3, 2, z), "STONE")
	}
	w.SetBlock(pos(5, 1, 0), "DIRT")
	a.WalkTo(pos(5, 2, 0), 1, 0)
	for i := 0; i < 40 && a.Moving(); i++ {
		w.Step()
	}
	if a.BlockPos() != pos(5, 2, 0) {
		t.Fatalf("agent at %s", a.BlockPos())
	}
}

func TestWalk_SpeedAccumulates(t *testing.T) {
	w := newFlat(t, nil)
	a, _ := w.AddAgent(AgentSpec{ID: "a", Pos: pos(0, 1, 0)})
	a.WalkTo(pos(20, 1, 0), 0.5, 0)
	for i := 0; i < 5; i++ {
		w.Step()
	}
	if got := a.BlockPos().X; got != 2 {
		t.Fatalf("x after 5 ticks at 0.5 = %d, want 2", got)
	}
	a.SetAIEnabled(false)
	w.Step()
	if a.Moving() || a.BlockPos().X != 2 {
		t.Fatalf("disabled agent still walking")
	}
}

func TestGravity_FallsAndDies(t *testing.T) {
	w := newFlat(t, nil)
	a, _ := w.AddAgent(AgentSpec{ID: "a", Pos: pos(0, 5, 0)})
	for i := 0; i < 4; i++ {
		w.Step()
	}
	if !a.OnGround() || a.BlockPos().Y != 1 {
		t.Fatalf("agent at %s", a.BlockPos())
	}

	for y := -8; y <= 0; y++ {
		w.SetBlock(pos(10, y, 10), "AIR")
	}
	b, _ := w.AddAgent(AgentSpec{ID: "b", Pos: pos(10, 1, 10)})
	for i := 0; i < 12; i++ {
		w.Step()
	}
	if !b.Dead() || w.Alive("b") {
		t.Fatalf("agent over the hole survived at %s", b.BlockPos())
	}
}

func TestItems_SettleAndPickUp(t *testing.T) {
	w := newFlat(t, nil)
	w.SpawnItem(pos(4, 4, 0), "OAK_LOG", 2)
	w.SpawnItem(pos(4, 4, 0), "COBBLESTONE", 1)
	for i := 0; i < 3; i++ {
		w.Step()
	}
	if got := w.ItemsAt(pos(4, 1, 0)); len(got) != 2 {
		t.Fatalf("items at rest = %+v", got)
	}

	a, _ := w.AddAgent(AgentSpec{ID: "wc", Profession: "woodcutter", Pos: pos(3, 1, 0)})
	w.Step()
	if a.Inventory().Count("OAK_LOG") != 2 {
		t.Fatalf("logs picked up = %d", a.Inventory().Count("OAK_LOG"))
	}
	left := w.ItemsAt(pos(4, 1, 0))
	if len(left) != 1 || left[0].Item != "COBBLESTONE" {
		t.Fatalf("left behind = %+v", left)
	}
}

func TestItems_Despawn(t *testing.T) {
	w := newFlat(t, func(tun *tuning.Tuning) { tun.World.ItemDespawnTicks = 5 })
	w.SpawnItem(pos(0, 1, 0), "STICK", 1)
	for i := 0; i < 4; i++ {
		w.Step()
	}
	if w.ItemCount() != 1 {
		t.Fatalf("item gone early")
	}
	w.Step()
	if w.ItemCount() != 0 {
		t.Fatalf("item not despawned")
	}
}

func TestChest_BreakSpillsContents(t *testing.T) {
	w := newFlat(t, nil)
	c, ok := w.PlaceChest(pos(2, 1, 2), model.ItemStack{Item: "OAK_LOG", Count: 5})
	if !ok || c.Count("OAK_LOG") != 5 {
		t.Fatalf("PlaceChest = %v %v", c, ok)
	}
	if !w.BreakBlock(pos(2, 1, 2)) {
		t.Fatalf("BreakBlock failed")
	}
	if w.Container(pos(2, 1, 2)) != nil {
		t.Fatalf("container survived")
	}
	var logs int
	for _, e := range w.ItemsAt(pos(2, 1, 2)) {
		if e.Item == "OAK_LOG" {
			logs += e.Count
		}
	}
	if logs != 5 {
		t.Fatalf("spilled logs = %d", logs)
	}
}

func TestSaplings_Grow(t *testing.T) {
	w := newFlat(t, func(tun *tuning.Tuning) {
		tun.World.SaplingGrowEveryTicks = 1
		tun.World.SaplingGrowPermille = 1000
	})
	w.SetBlock(pos(0, 1, 0), "OAK_SAPLING")
	w.Step()
	if got := w.BlockID(pos(0, 1, 0)); got != "OAK_LOG" {
		t.Fatalf("base = %s", got)
	}
	if got := w.BlockID(pos(0, 4, 0)); got != "OAK_LOG" && got != "OAK_LEAVES" {
		t.Fatalf("trunk top = %s", got)
	}

	// A blocked sapling stays.
	w.SetBlock(pos(8, 1, 8), "OAK_SAPLING")
	w.SetBlock(pos(8, 2, 8), "STONE")
	w.Step()
	if got := w.BlockID(pos(8, 1, 8)); got != "OAK_SAPLING" {
		t.Fatalf("blocked sapling = %s", got)
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	w := newFlat(t, nil)
	ws := pos(0, 1, -3)
	w.SetBlock(ws, "WOODCUTTER_STATION")
	w.PlaceChest(pos(2, 1, 0), model.ItemStack{Item: "STONE_AXE", Count: 1})
	w.SetItemFrame(pos(0, 2, -3), "STICK")
	w.SetBlock(pos(-3, 1, 3), "OAK_SAPLING")
	w.SpawnItem(pos(5, 1, 5), "APPLE", 2)
	a, _ := w.AddAgent(AgentSpec{
		ID:          "wc",
		Profession:  "woodcutter",
		Pos:         pos(1, 1, 1),
		Workstation: &ws,
		Inventory:   []model.ItemStack{{Item: "OAK_LOG", Count: 7}},
		Held:        "OAK_LOG",
	})
	a.Memory().JobStatus = "breaking"
	a.Memory().Target = &model.Vec3i{X: 4, Y: 1, Z: 0}
	a.Memory().BreakProgress = model.Ptr(2.5)
	a.WalkTo(pos(9, 1, 9), 0.6, 1)
	w.Step()
	w.Step()

	w2, err := ImportWorld(w.ExportSnapshot(), w.cats, w.tun, nil)
	if err != nil {
		t.Fatalf("ImportWorld: %v", err)
	}
	if w.Digest() != w2.Digest() {
		t.Fatalf("digest changed across export/import")
	}
	for i := 0; i < 30; i++ {
		w.Step()
		w2.Step()
		if w.Digest() != w2.Digest() {
			t.Fatalf("tick %d: imported world diverged", w.Tick())
		}
	}
	if f, ok := w2.ItemFrame(pos(0, 2, -3)); !ok || f != "STICK" {
		t.Fatalf("frame = %q %v", f, ok)
	}
}

func TestDigest_SeesMemory(t *testing.T) {
	w := newFlat(t, nil)
	a, _ := w.AddAgent(AgentSpec{ID: "a", Profession: "carrier", Pos: pos(0, 1, 0)})
	before := w.Digest()
	a.Memory().ItemToCarry = "OAK_LOG"
	if w.Digest() == before {
		t.Fatalf("digest ignores memory")
	}
}

func TestAddAgent_Rejects(t *testing.T) {
	w := newFlat(t, nil)
	if _, err := w.AddAgent(AgentSpec{Pos: pos(0, 1, 0)}); err == nil {
		t.Fatalf("agent without id accepted")
	}
	if _, err := w.AddAgent(AgentSpec{ID: "a", Profession: "wizard"}); err == nil {
		t.Fatalf("unknown profession accepted")
	}
	w.AddAgent(AgentSpec{ID: "b"})
	if _, err := w.AddAgent(AgentSpec{ID: "b"}); err == nil {
		t.Fatalf("duplicate accepted")
	}
}
