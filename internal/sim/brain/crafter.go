package brain

import (
	"sort"

	"settlers.ai/internal/sim/world/kernel/model"
	"settlers.ai/internal/sim/world/logic/recipes"
)

func (t *tick) crafter(status string) bool {
	switch status {
	case StatusIdle:
		t.setStatus(StatusRefreshCraftingRecipe)
	case StatusRefreshCraftingRecipe:
		t.refreshRecipes()
	case StatusCrafting:
		t.startDepositing()
	default:
		return false
	}
	return true
}

// refreshRecipes reads the wanted output off the item frame above the
// workstation and recomputes which ingredients to ask carriers for.
func (t *tick) refreshRecipes() {
	output, ok := t.w.ItemFrame(t.ws.Up())
	if !ok || output == "" {
		output = t.Tuning.Crafter.DefaultOutput
	}
	defs := t.w.CraftingRecipes(output)
	if len(defs) == 0 {
		t.mem.Recipes = nil
		t.mem.WantedItems = nil
		t.setStatus(StatusNoWorkNoRecipe)
		return
	}
	t.mem.Recipes = make([]recipes.Available, 0, len(defs))
	for _, d := range defs {
		t.mem.Recipes = append(t.mem.Recipes, recipes.NewAvailable(d))
	}
	t.mem.WantedItems = t.wantedIngredients()
	t.startDepositing()
}

// wantedIngredients is every ingredient of every recipe, minus the kinds the
// deposit chest already has plenty of. When the chest is saturated with all
// of them the full list is kept.
func (t *tick) wantedIngredients() []string {
	all := map[string]bool{}
	for _, r := range t.mem.Recipes {
		for _, k := range r.WantedItems() {
			all[k] = true
		}
	}
	var stock map[string]int
	if p := t.mem.DepositChest; p != nil {
		if c := t.w.Container(*p); c != nil {
			stock = c.Counts()
		}
	}
	var wanted, full []string
	for k := range all {
		full = append(full, k)
		if stock[k] < t.Tuning.Crafter.Saturation {
			wanted = append(wanted, k)
		}
	}
	if len(wanted) == 0 {
		wanted = full
	}
	sort.Strings(wanted)
	return wanted
}

// takeIngredients selects the first recipe the chest can satisfy and moves
// its ingredients into the inventory.
func (t *tick) takeIngredients(c *model.Container) {
	t.mem.SelectedRecipe = nil
	stock := c.Counts()
	for _, r := range t.mem.Recipes {
		used, ok := r.Match(stock)
		if !ok {
			continue
		}
		sel := r
		t.mem.SelectedRecipe = &sel
		counts := recipes.Counts(used)
		for _, item := range sortedKinds(counts) {
			moved := c.Remove(item, counts[item])
			if left := t.inv.Add(item, moved); left > 0 {
				c.Add(item, left)
			}
		}
		return
	}
}

// craft turns the ingredients in the inventory into the selected recipe's
// result and pauses for the crafting time.
func (t *tick) craft() {
	if t.inv.Empty() {
		t.setStatus(StatusNoWorkAfterDeposit)
		return
	}
	r := t.mem.SelectedRecipe
	if r == nil {
		t.setStatus(StatusNoWorkNoRecipe)
		return
	}
	used, ok := r.Match(t.inv.Counts())
	if !ok {
		t.setStatus(StatusNoWorkMissingIngredients)
		return
	}
	for item, n := range recipes.Counts(used) {
		t.inv.Remove(item, n)
	}
	if left := t.inv.Add(r.Result, r.ResultCount); left > 0 {
		t.log.Printf("[brain] %s: no room for %d %s, lost", t.a.ID(), left, r.Result)
	}
	t.hold(r.Result)
	t.setStatus(StatusCrafting)
	t.pause(t.Tuning.Crafter.CraftPauseMs)
}

func sortedKinds(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
