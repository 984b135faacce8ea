package brain_test

import (
	"testing"

	"settlers.ai/internal/sim/brain"
	"settlers.ai/internal/sim/world"
	"settlers.ai/internal/sim/world/kernel/model"
	"settlers.ai/internal/sim/worldtest"
)

func TestForester_PlantsOnLattice(t *testing.T) {
	h := worldtest.New(t)
	ws := worldtest.P(-6, 1, -6)
	h.SetBlock(ws, "FORESTER_STATION")
	h.AddAgent(world.AgentSpec{
		ID:          "fo",
		Profession:  "forester",
		Pos:         worldtest.P(0, 1, 0),
		Workstation: &ws,
		Inventory:   []model.ItemStack{worldtest.Stack("OAK_SAPLING", 2)},
	})
	spot := worldtest.P(0, 1, 0)

	h.BrainTicks(1)
	if got := h.Status("fo"); got != brain.StatusWalkingToPlant {
		t.Fatalf("status = %q, want walking_to_plant", got)
	}
	if owner := h.TargetOwner(spot); owner != "fo" {
		t.Fatalf("spot reserved by %q", owner)
	}
	h.BrainTicks(1)
	if got := h.Status("fo"); got != brain.StatusPlanting {
		t.Fatalf("status = %q, want planting", got)
	}
	if got := h.W.BlockID(spot); got != "OAK_SAPLING" {
		t.Fatalf("spot = %s", got)
	}
	if n := h.Agent("fo").Inventory().Count("OAK_SAPLING"); n != 1 {
		t.Fatalf("saplings left = %d", n)
	}
	h.BrainTicks(1)
	if owner := h.TargetOwner(spot); owner != "" {
		t.Fatalf("spot still reserved by %q", owner)
	}
	if got := h.Status("fo"); got != brain.StatusIdle {
		t.Fatalf("status = %q, want idle", got)
	}

	// The next sapling goes to another lattice point, never next to the first.
	ok := h.StepUntil(400, func() bool { return h.Agent("fo").Inventory().Count("OAK_SAPLING") == 0 })
	if !ok {
		t.Fatalf("second sapling not planted, status %q", h.Status("fo"))
	}
	for x := -9; x <= 9; x++ {
		for z := -9; z <= 9; z++ {
			if h.W.BlockID(worldtest.P(x, 1, z)) != "OAK_SAPLING" {
				continue
			}
			if x%3 != 0 || z%3 != 0 {
				t.Fatalf("sapling off the lattice at %d,%d", x, z)
			}
		}
	}
}

func TestForester_WithoutSaplingsGoesToChest(t *testing.T) {
	h := worldtest.New(t)
	ws := worldtest.P(0, 1, -3)
	chestPos := worldtest.P(3, 1, -3)
	h.SetBlock(ws, "FORESTER_STATION")
	chest := h.Chest(chestPos, worldtest.Stack("OAK_SAPLING", 5))
	h.AddAgent(world.AgentSpec{ID: "fo", Profession: "forester", Pos: worldtest.P(0, 1, 0), Workstation: &ws})

	h.BrainTicks(1)
	if got := h.Status("fo"); got != brain.StatusDepositItems {
		t.Fatalf("status = %q, want deposit_items", got)
	}
	ok := h.StepUntil(200, func() bool { return h.Agent("fo").Inventory().Count("OAK_SAPLING") == 1 })
	if !ok {
		t.Fatalf("no sapling taken, status %q", h.Status("fo"))
	}
	if chest.Count("OAK_SAPLING") != 4 {
		t.Fatalf("chest saplings = %d", chest.Count("OAK_SAPLING"))
	}
	if h.Agent("fo").Held() != "OAK_SAPLING" {
		t.Fatalf("held = %q", h.Agent("fo").Held())
	}
}

// carrierScene has a woodcutter chest holding logs and a crafter chest that
// wants them, both claimed by their owners.
func carrierScene(t *testing.T) (h *worldtest.Harness, from, to model.Vec3i) {
	h = worldtest.New(t)
	from, to = worldtest.P(4, 1, 0), worldtest.P(4, 1, 8)
	h.Chest(from, worldtest.Stack("OAK_LOG", 5))
	h.Chest(to)
	h.AddAgent(world.AgentSpec{ID: "wc", Profession: "woodcutter", Pos: worldtest.P(10, 1, 0)})
	cr := h.AddAgent(world.AgentSpec{ID: "cr", Profession: "crafter", Pos: worldtest.P(10, 1, 8)})
	cr.Memory().WantedItems = []string{"OAK_LOG"}
	res := h.D.Reservations()
	if !res.Chests.Reserve(h.W.ID(), "wc", from) || !res.Chests.Reserve(h.W.ID(), "cr", to) {
		t.Fatalf("chest reservations failed")
	}
	h.D.RefreshDepositChests()
	return h, from, to
}

func TestCarrier_ContentionOnSourceChest(t *testing.T) {
	h, from, _ := carrierScene(t)
	h.AddAgent(world.AgentSpec{ID: "c1", Profession: "carrier", Pos: worldtest.P(0, 1, 3)})
	h.AddAgent(world.AgentSpec{ID: "c2", Profession: "carrier", Pos: worldtest.P(0, 1, 4)})

	h.BrainTicks(1)
	if got := h.Status("c1"); got != brain.StatusWalkingToPickUp {
		t.Fatalf("c1 status = %q", got)
	}
	if got := h.Status("c2"); got != brain.StatusNoWorkNoChest {
		t.Fatalf("c2 status = %q", got)
	}
	if owner := h.TargetOwner(from); owner != "c1" {
		t.Fatalf("source claimed by %q", owner)
	}
	if mem := h.Memory("c1"); mem.ItemToCarry != "OAK_LOG" {
		t.Fatalf("c1 carries %q", mem.ItemToCarry)
	}
	var conflicts int
	for _, e := range h.Last {
		for _, c := range e.Conflicts {
			if c.Agent == "c2" && c.Pool == "target" {
				conflicts++
			}
		}
	}
	if conflicts != 1 {
		t.Fatalf("conflicts recorded = %d, entries %+v", conflicts, h.Last)
	}
}

func TestCarrier_DeliversOneUnit(t *testing.T) {
	h, from, to := carrierScene(t)
	h.AddAgent(world.AgentSpec{ID: "c1", Profession: "carrier", Pos: worldtest.P(0, 1, 3)})
	src, dst := h.W.Container(from), h.W.Container(to)

	ok := h.StepUntil(800, func() bool { return dst.Count("OAK_LOG") == 1 })
	if !ok {
		t.Fatalf("nothing delivered, status %q", h.Status("c1"))
	}
	if src.Count("OAK_LOG") != 4 {
		t.Fatalf("source logs = %d", src.Count("OAK_LOG"))
	}
	if owner := h.ChestOwner(to); owner != "cr" {
		t.Fatalf("destination chest now owned by %q", owner)
	}
	if !h.StepUntil(200, func() bool { return h.Status("c1") == brain.StatusNoWorkAfterDeposit }) {
		t.Fatalf("carrier did not finish, status %q", h.Status("c1"))
	}
	mem := h.Memory("c1")
	if mem.ItemToCarry != "" || mem.DepositChest != nil || h.Agent("c1").Held() != "" {
		t.Fatalf("carrier memory not cleared: %+v held=%q", mem, h.Agent("c1").Held())
	}
}

func TestCarrier_DestinationChestRemoved(t *testing.T) {
	h, _, to := carrierScene(t)
	h.AddAgent(world.AgentSpec{ID: "c1", Profession: "carrier", Pos: worldtest.P(0, 1, 3)})
	inv := h.Agent("c1").Inventory()

	if !h.StepUntil(800, func() bool { return inv.Count("OAK_LOG") == 1 }) {
		t.Fatalf("carrier never picked up, status %q", h.Status("c1"))
	}
	h.SetBlock(to, "AIR")

	if !h.StepUntil(800, func() bool { return h.Status("c1") == brain.StatusNoWorkNoChest }) {
		t.Fatalf("carrier did not give up, status %q", h.Status("c1"))
	}
	mem := h.Memory("c1")
	if mem.DepositChest != nil || mem.ItemToCarry != "" || h.Agent("c1").Held() != "" {
		t.Fatalf("delivery not abandoned: %+v held=%q", mem, h.Agent("c1").Held())
	}
	if inv.Count("OAK_LOG") != 1 {
		t.Fatalf("carried log lost: %d", inv.Count("OAK_LOG"))
	}

	// After the cooldown it searches again instead of retrying the old chest.
	h.BrainTicks(h.Tun.Worker.NoWorkCooldownTicks/h.Tun.BrainEveryTicks + 2)
	if mem := h.Memory("c1"); mem.DepositChest != nil {
		t.Fatalf("carrier went back to the removed chest: %+v", mem)
	}
}

func TestCarrier_IgnoresDeadOwnersChest(t *testing.T) {
	h, from, to := carrierScene(t)
	h.W.Kill("cr")
	h.D.RefreshDepositChests()
	h.AddAgent(world.AgentSpec{ID: "c1", Profession: "carrier", Pos: worldtest.P(0, 1, 3)})

	h.BrainTicks(1)
	if got := h.Status("c1"); got != brain.StatusNoWorkNoChest {
		t.Fatalf("status = %q", got)
	}
	if owner := h.TargetOwner(from); owner != "" {
		t.Fatalf("source claimed by %q", owner)
	}
	if owner := h.ChestOwner(to); owner != "" {
		t.Fatalf("dead crafter still owns its chest: %q", owner)
	}
}

func TestCrafter_CraftsFromChest(t *testing.T) {
	h := worldtest.New(t)
	ws := worldtest.P(0, 1, -2)
	chestPos := worldtest.P(2, 1, 0)
	h.SetBlock(ws, "CRAFTING_TABLE")
	chest := h.Chest(chestPos, worldtest.Stack("OAK_LOG", 3))
	h.AddAgent(world.AgentSpec{ID: "cr", Profession: "crafter", Pos: worldtest.P(0, 1, 0), Workstation: &ws})

	h.BrainTicks(2)
	mem := h.Memory("cr")
	if len(mem.Recipes) != 1 || mem.Recipes[0].Result != "OAK_PLANKS" {
		t.Fatalf("recipes = %+v", mem.Recipes)
	}
	if len(mem.WantedItems) != 2 || mem.WantedItems[0] != "BIRCH_LOG" || mem.WantedItems[1] != "OAK_LOG" {
		t.Fatalf("wanted = %v", mem.WantedItems)
	}

	ok := h.StepUntil(1000, func() bool { return chest.Count("OAK_PLANKS") >= 4 })
	if !ok {
		t.Fatalf("no planks, status %q inv %+v", h.Status("cr"), h.Agent("cr").Inventory().Slots)
	}
	if got := chest.Count("OAK_LOG") + h.Agent("cr").Inventory().Count("OAK_LOG"); got != 2 {
		t.Fatalf("logs left = %d", got)
	}
}

func TestCrafter_ItemFrameSelectsOutput(t *testing.T) {
	h := worldtest.New(t)
	ws := worldtest.P(0, 1, -2)
	h.SetBlock(ws, "CRAFTING_TABLE")
	h.W.SetItemFrame(ws.Up(), "STICK")
	h.Chest(worldtest.P(2, 1, 0))
	h.AddAgent(world.AgentSpec{ID: "cr", Profession: "crafter", Pos: worldtest.P(0, 1, 0), Workstation: &ws})

	h.BrainTicks(2)
	mem := h.Memory("cr")
	if len(mem.Recipes) != 1 || mem.Recipes[0].Result != "STICK" {
		t.Fatalf("recipes = %+v", mem.Recipes)
	}
	if len(mem.WantedItems) != 1 || mem.WantedItems[0] != "OAK_PLANKS" {
		t.Fatalf("wanted = %v", mem.WantedItems)
	}
}

func TestUnknownStatusResetsToIdle(t *testing.T) {
	h := worldtest.New(t)
	h.AddAgent(world.AgentSpec{ID: "c1", Profession: "carrier", Pos: worldtest.P(0, 1, 0)})
	h.Memory("c1").JobStatus = "dancing"

	h.BrainTicks(1)
	var sawReset bool
	for _, e := range h.Last {
		for _, tr := range e.Transitions {
			if tr.Agent == "c1" && tr.From == "dancing" && tr.To == brain.StatusIdle {
				sawReset = true
			}
		}
	}
	if !sawReset {
		t.Fatalf("no reset transition in %+v", h.Last)
	}
	if got := h.Status("c1"); got != brain.StatusNoWorkNoChest {
		t.Fatalf("status = %q", got)
	}
}

func TestStatusOfAnotherProfession(t *testing.T) {
	h := worldtest.New(t)
	h.AddAgent(world.AgentSpec{ID: "c1", Profession: "carrier", Pos: worldtest.P(0, 1, 0)})
	h.Memory("c1").JobStatus = brain.StatusBreaking

	h.BrainTicks(1)
	if got := h.Status("c1"); got != brain.StatusNoWorkUnknownStatus {
		t.Fatalf("status = %q", got)
	}
}

func TestNoWorkstation(t *testing.T) {
	h := worldtest.New(t)
	h.AddAgent(world.AgentSpec{ID: "fo", Profession: "forester", Pos: worldtest.P(0, 1, 0)})

	h.BrainTicks(3)
	if got := h.Status("fo"); got != brain.StatusNoWorkNoWorkstation {
		t.Fatalf("status = %q", got)
	}
}

func TestPauseDisablesAI(t *testing.T) {
	h := worldtest.New(t)
	ws := worldtest.P(0, 1, -3)
	a := h.AddAgent(world.AgentSpec{ID: "wc", Profession: "woodcutter", Pos: worldtest.P(0, 1, 0), Workstation: &ws})
	a.Memory().PauseUntil = model.Ptr(uint64(40))

	h.BrainTicks(5)
	if a.AIEnabled() || h.Status("wc") != brain.StatusIdle {
		t.Fatalf("paused agent acted: ai=%v status=%q", a.AIEnabled(), h.Status("wc"))
	}
	h.Step(40)
	if a.Memory().PauseUntil != nil {
		t.Fatalf("pause not cleared")
	}
	if h.Status("wc") != brain.StatusNoWorkNoLogs {
		t.Fatalf("status = %q", h.Status("wc"))
	}
}

func TestNoWorkCooldown(t *testing.T) {
	h := worldtest.New(t)
	h.AddAgent(world.AgentSpec{ID: "c1", Profession: "carrier", Pos: worldtest.P(0, 1, 0)})

	h.BrainTicks(2)
	mem := h.Memory("c1")
	if mem.JobStatus != brain.StatusNoWorkNoChest || mem.NoWorkUntil == nil {
		t.Fatalf("memory = %+v", mem)
	}
	until := *mem.NoWorkUntil
	if want := h.D.Tick() + uint64(h.Tun.Worker.NoWorkCooldownTicks); until != want {
		t.Fatalf("no work until %d, want %d", until, want)
	}
	h.Step(int(until - h.D.Tick() - 2))
	if h.Status("c1") != brain.StatusNoWorkNoChest {
		t.Fatalf("cooldown ended early: %q", h.Status("c1"))
	}
	// The expiry tick resets to idle; the next tick searches and fails again.
	h.Step(2)
	if h.Status("c1") != brain.StatusIdle {
		t.Fatalf("status after cooldown = %q", h.Status("c1"))
	}
}
