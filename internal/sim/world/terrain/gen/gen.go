package gen

import "settlers.ai/internal/sim/world/logic/mathx"

// TreeGrid is the lattice trees grow on; one candidate per cell keeps
// canopies from overlapping.
const TreeGrid = 5

func WithinSpawnClear(x, z, radius int) bool {
	if radius <= 0 {
		return false
	}
	r := int64(radius)
	dx := int64(x)
	dz := int64(z)
	return dx*dx+dz*dz <= r*r
}

// TreeAt reports whether a generated tree trunk stands on column (x, z) and
// how tall it is.
func TreeAt(seed int64, x, z, permille, spawnClear int) (height int, ok bool) {
	if permille <= 0 {
		return 0, false
	}
	if mathx.Mod(x, TreeGrid) != 2 || mathx.Mod(z, TreeGrid) != 2 {
		return 0, false
	}
	if WithinSpawnClear(x, z, spawnClear) {
		return 0, false
	}
	h := mathx.Hash2(seed+201, x, z)
	if !mathx.Chance(h, permille) {
		return 0, false
	}
	return 4 + int((h>>12)%3), true
}

// Canopy reports whether (dx, dy) relative to the trunk top is a leaf spot.
// The trunk column itself is never a leaf.
func Canopy(dx, dz, dyFromTop int) bool {
	if dx == 0 && dz == 0 && dyFromTop <= 0 {
		return false
	}
	switch dyFromTop {
	case -1, 0:
		return mathx.AbsInt(dx) <= 2 && mathx.AbsInt(dz) <= 2 && !(mathx.AbsInt(dx) == 2 && mathx.AbsInt(dz) == 2)
	case 1:
		return mathx.AbsInt(dx) <= 1 && mathx.AbsInt(dz) <= 1
	default:
		return false
	}
}
