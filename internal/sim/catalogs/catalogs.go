package catalogs

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"settlers.ai/internal/sim/world/feature/work/mining"
	"settlers.ai/internal/sim/world/kernel/model"
	"settlers.ai/internal/sim/world/logic/recipes"
)

//go:embed schemas/*.json
var schemaFS embed.FS

type Catalogs struct {
	Blocks      BlockCatalog
	Items       ItemCatalog
	Recipes     RecipeCatalog
	Professions ProfessionCatalog
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string
}

type BlockDef struct {
	ID          string   `json:"id"`
	Solid       bool     `json:"solid"`
	Collides    *bool    `json:"collides,omitempty"`
	Replaceable bool     `json:"replaceable,omitempty"`
	Hardness    float64  `json:"hardness"`
	ToolFamily  string   `json:"tool_family,omitempty"`
	DropsItem   string   `json:"drops_item,omitempty"`
	BlockEntity bool     `json:"block_entity,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (d BlockDef) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"` // "BLOCK","TOOL","MATERIAL","FOOD"
	PlaceAs    string   `json:"place_as,omitempty"`
	MaxStack   int      `json:"max_stack,omitempty"`
	ToolFamily string   `json:"tool_family,omitempty"`
	ToolSpeed  float64  `json:"tool_speed,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

func (d ItemDef) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type RecipeCatalog struct {
	ByID   map[string]RecipeDef
	Digest string
}

type RecipeDef struct {
	RecipeID string      `json:"recipe_id"`
	Station  string      `json:"station"`
	Inputs   []ItemCount `json:"inputs"`
	Outputs  []ItemCount `json:"outputs"`
}

// ItemCount names an item kind, or a tag when prefixed with '#'.
type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type ProfessionCatalog struct {
	ByID   map[string]ProfessionDef
	Digest string
}

type ProfessionDef struct {
	ID          string   `json:"id"`
	Workstation string   `json:"workstation,omitempty"`
	Gatherable  []string `json:"gatherable,omitempty"`
	Wanted      []string `json:"wanted,omitempty"`
	ToolTarget  string   `json:"tool_target,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadBlocks(filepath.Join(configDir, "blocks.json"), &c.Blocks); err != nil {
		return nil, err
	}
	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadRecipes(filepath.Join(configDir, "recipes.json"), &c.Recipes); err != nil {
		return nil, err
	}
	if err := loadProfessions(filepath.Join(configDir, "professions.json"), &c.Professions); err != nil {
		return nil, err
	}
	if err := c.crossCheck(); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// readValidated reads a catalog file and validates it against its embedded schema.
func readValidated(path, schemaName string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	schemaRaw, err := schemaFS.ReadFile("schemas/" + schemaName)
	if err != nil {
		return nil, err
	}
	schema, err := jsonschema.CompileString(schemaName, string(schemaRaw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", schemaName, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return raw, nil
}

func loadBlocks(path string, out *BlockCatalog) error {
	raw, err := readValidated(path, "blocks.schema.json")
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("blocks.json: duplicate id %s", d.ID)
		}
		out.Defs[d.ID] = d
	}

	// AIR is always palette id 0 so fresh chunks are empty.
	if _, ok := out.Defs["AIR"]; !ok {
		return fmt.Errorf("blocks.json: missing AIR")
	}
	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		if id != "AIR" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	ids = append([]string{"AIR"}, ids...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := readValidated(path, "items.schema.json")
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("items.json: duplicate id %s", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadRecipes(path string, out *RecipeCatalog) error {
	raw, err := readValidated(path, "recipes.schema.json")
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []RecipeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	out.ByID = map[string]RecipeDef{}
	for _, r := range defs {
		if r.RecipeID == "" {
			return fmt.Errorf("recipes.json: empty recipe_id")
		}
		out.ByID[r.RecipeID] = r
	}
	return nil
}

func loadProfessions(path string, out *ProfessionCatalog) error {
	raw, err := readValidated(path, "professions.schema.json")
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ProfessionDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("professions.json: %w", err)
	}
	out.ByID = map[string]ProfessionDef{}
	for _, p := range defs {
		out.ByID[p.ID] = p
	}
	return nil
}

// crossCheck makes sure every reference between catalogs resolves.
func (c *Catalogs) crossCheck() error {
	for _, b := range c.Blocks.Defs {
		if b.DropsItem != "" {
			if _, ok := c.Items.Defs[b.DropsItem]; !ok {
				return fmt.Errorf("blocks.json: %s drops unknown item %s", b.ID, b.DropsItem)
			}
		}
	}
	for _, it := range c.Items.Defs {
		if it.PlaceAs != "" {
			if _, ok := c.Blocks.Defs[it.PlaceAs]; !ok {
				return fmt.Errorf("items.json: %s places unknown block %s", it.ID, it.PlaceAs)
			}
		}
	}
	for _, r := range c.Recipes.ByID {
		for _, in := range append(append([]ItemCount(nil), r.Inputs...), r.Outputs...) {
			if len(c.Items.Expand([]string{in.Item})) == 0 {
				return fmt.Errorf("recipes.json: %s references unknown item %s", r.RecipeID, in.Item)
			}
		}
	}
	for _, p := range c.Professions.ByID {
		if p.Workstation != "" {
			if _, ok := c.Blocks.Defs[p.Workstation]; !ok {
				return fmt.Errorf("professions.json: %s workstation %s unknown", p.ID, p.Workstation)
			}
		}
		if p.ToolTarget != "" {
			if _, ok := c.Blocks.Defs[p.ToolTarget]; !ok {
				return fmt.Errorf("professions.json: %s tool target %s unknown", p.ID, p.ToolTarget)
			}
		}
	}
	return nil
}

// State classifies a block id. Unknown ids classify as air.
func (b *BlockCatalog) State(id string) model.BlockState {
	d, ok := b.Defs[id]
	if !ok {
		d = b.Defs["AIR"]
		id = "AIR"
	}
	collides := d.Solid
	if d.Collides != nil {
		collides = *d.Collides
	}
	return model.BlockState{
		ID:             id,
		Solid:          d.Solid,
		Replaceable:    d.Replaceable,
		CollisionEmpty: !collides,
		Hardness:       d.Hardness,
		Log:            d.HasTag("logs"),
		Leaf:           d.HasTag("leaves"),
		Dirt:           d.HasTag("dirt"),
		Sapling:        d.HasTag("saplings"),
		Chest:          d.HasTag("chests"),
		BlockEntity:    d.BlockEntity,
	}
}

func (b *BlockCatalog) ID(index uint16) string {
	if int(index) >= len(b.Palette) {
		return "AIR"
	}
	return b.Palette[index]
}

// MaxStack implements model.StackLimits.
func (it *ItemCatalog) MaxStack(item string) int {
	if d, ok := it.Defs[item]; ok && d.MaxStack > 0 {
		return d.MaxStack
	}
	return model.DefaultMaxStack
}

// Expand resolves item references: "#tag" becomes every item carrying the tag,
// plain ids stay as they are when known. The result is sorted and unique.
func (it *ItemCatalog) Expand(refs []string) []string {
	set := map[string]bool{}
	for _, ref := range refs {
		if tag, ok := strings.CutPrefix(ref, "#"); ok {
			for id, d := range it.Defs {
				if d.HasTag(tag) {
					set[id] = true
				}
			}
			continue
		}
		if _, ok := it.Defs[ref]; ok {
			set[ref] = true
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (it *ItemCatalog) HasTag(item, tag string) bool {
	d, ok := it.Defs[item]
	return ok && d.HasTag(tag)
}

// ToolSpeed is the mining speed of item against block.
func (c *Catalogs) ToolSpeed(item, block string) float64 {
	it, ok := c.Items.Defs[item]
	if !ok {
		return 1
	}
	b, ok := c.Blocks.Defs[block]
	if !ok {
		return 1
	}
	return mining.ToolSpeed(mining.ParseToolFamily(it.ToolFamily), it.ToolSpeed, mining.ParseToolFamily(b.ToolFamily))
}

// CraftingRecipes lists every recipe producing output, tags expanded into
// ingredient groups. An input with count n becomes n groups. Sorted by id.
func (c *Catalogs) CraftingRecipes(output string) []recipes.Definition {
	var ids []string
	for id, r := range c.Recipes.ByID {
		if len(r.Outputs) > 0 && r.Outputs[0].Item == output {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]recipes.Definition, 0, len(ids))
	for _, id := range ids {
		r := c.Recipes.ByID[id]
		def := recipes.Definition{ID: id, Result: output, ResultCount: r.Outputs[0].Count}
		for _, in := range r.Inputs {
			group := c.Items.Expand([]string{in.Item})
			for i := 0; i < in.Count; i++ {
				def.Groups = append(def.Groups, group)
			}
		}
		out = append(out, def)
	}
	return out
}

// Profession returns the definition for id, or false for unknown professions.
func (c *Catalogs) Profession(id string) (ProfessionDef, bool) {
	p, ok := c.Professions.ByID[id]
	return p, ok
}
