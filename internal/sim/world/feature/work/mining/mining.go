package mining

import (
	"math"
	"strings"
)

type ToolFamily int

const (
	ToolFamilyNone ToolFamily = iota
	ToolFamilyPickaxe
	ToolFamilyAxe
	ToolFamilyShovel
)

// BreakDone is the progress value at which a block breaks.
const BreakDone = 10.0

// Unbreakable is returned by BreakTicks for blocks with negative hardness.
const Unbreakable = math.MaxInt

func ParseToolFamily(s string) ToolFamily {
	switch strings.ToLower(s) {
	case "pickaxe":
		return ToolFamilyPickaxe
	case "axe":
		return ToolFamilyAxe
	case "shovel":
		return ToolFamilyShovel
	default:
		return ToolFamilyNone
	}
}

func (f ToolFamily) String() string {
	switch f {
	case ToolFamilyPickaxe:
		return "pickaxe"
	case ToolFamilyAxe:
		return "axe"
	case ToolFamilyShovel:
		return "shovel"
	default:
		return "none"
	}
}

// ToolSpeed is the mining speed multiplier of a tool against a block. A tool
// only helps against blocks of its own family.
func ToolSpeed(tool ToolFamily, toolSpeed float64, block ToolFamily) float64 {
	if tool == ToolFamilyNone || tool != block || toolSpeed <= 1 {
		return 1
	}
	return toolSpeed
}

// BreakTicks is round(hardness*30/speed), never below 1. Speeds at or below 1
// count as bare hands.
func BreakTicks(hardness, speed float64) int {
	if hardness < 0 {
		return Unbreakable
	}
	if speed <= 1 {
		speed = 1
	}
	ticks := int(math.Round(hardness * 30 / speed))
	if ticks < 1 {
		return 1
	}
	return ticks
}

// ProgressStep is how much break progress one tick adds.
func ProgressStep(ticks int) float64 {
	if ticks <= 0 || ticks == Unbreakable {
		return 0
	}
	return BreakDone / float64(ticks)
}

// Broken tolerates float accumulation just below BreakDone.
func Broken(progress float64) bool {
	return progress+1e-9 >= BreakDone
}
