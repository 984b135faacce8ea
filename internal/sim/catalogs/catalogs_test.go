package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func configsDir() string { return filepath.Join("..", "..", "..", "configs") }

func TestLoad_Configs(t *testing.T) {
	c, err := Load(configsDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Blocks.Palette[0] != "AIR" || c.Blocks.Index["AIR"] != 0 {
		t.Fatalf("AIR must be palette id 0")
	}
	if c.Blocks.PaletteDigest == "" || c.Items.DefsDigest == "" || c.Recipes.Digest == "" || c.Professions.Digest == "" {
		t.Fatalf("missing digests")
	}
	if _, ok := c.Profession("woodcutter"); !ok {
		t.Fatalf("missing woodcutter")
	}

	st := c.Blocks.State("OAK_LOG")
	if !st.Log || !st.Solid || st.CollisionEmpty || st.Hardness != 2 {
		t.Fatalf("OAK_LOG state = %+v", st)
	}
	sap := c.Blocks.State("OAK_SAPLING")
	if !sap.Sapling || sap.Solid || !sap.CollisionEmpty {
		t.Fatalf("OAK_SAPLING state = %+v", sap)
	}
	if got := c.Blocks.State("NOPE"); !got.Air() {
		t.Fatalf("unknown block should classify as air: %+v", got)
	}
}

func TestExpandAndToolSpeed(t *testing.T) {
	c, err := Load(configsDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	axes := c.Items.Expand([]string{"#axes", "STICK", "UNKNOWN"})
	want := []string{"IRON_AXE", "STICK", "STONE_AXE", "WOODEN_AXE"}
	if len(axes) != len(want) {
		t.Fatalf("expand = %v", axes)
	}
	for i := range want {
		if axes[i] != want[i] {
			t.Fatalf("expand = %v want %v", axes, want)
		}
	}
	if got := c.ToolSpeed("IRON_AXE", "OAK_LOG"); got != 6 {
		t.Fatalf("iron axe on log = %v", got)
	}
	if got := c.ToolSpeed("WOODEN_PICKAXE", "OAK_LOG"); got != 1 {
		t.Fatalf("pickaxe on log = %v", got)
	}
	if got := c.Items.MaxStack("IRON_AXE"); got != 1 {
		t.Fatalf("axe max stack = %d", got)
	}
	if got := c.Items.MaxStack("OAK_LOG"); got != 64 {
		t.Fatalf("log max stack = %d", got)
	}
}

func TestCraftingRecipes_Groups(t *testing.T) {
	c, err := Load(configsDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defs := c.CraftingRecipes("WOODEN_AXE")
	if len(defs) != 1 {
		t.Fatalf("defs = %+v", defs)
	}
	if len(defs[0].Groups) != 5 {
		t.Fatalf("3 planks + 2 sticks should be 5 groups, got %d", len(defs[0].Groups))
	}
	planks := c.CraftingRecipes("OAK_PLANKS")
	if len(planks) != 1 || planks[0].ResultCount != 4 || len(planks[0].Groups[0]) != 2 {
		t.Fatalf("planks = %+v", planks)
	}
	if len(c.CraftingRecipes("APPLE")) != 0 {
		t.Fatalf("no recipe makes apples")
	}
}

func TestLoad_RejectsSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"items.json", "recipes.json", "professions.json"} {
		raw, err := os.ReadFile(filepath.Join(configsDir(), name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	bad := `[{"id":"AIR","solid":false,"hardness":0,"colour":"red"}]`
	if err := os.WriteFile(filepath.Join(dir, "blocks.json"), []byte(bad), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected schema error")
	}
}
