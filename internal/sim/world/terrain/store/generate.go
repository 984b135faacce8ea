package store

import genpkg "settlers.ai/internal/sim/world/terrain/gen"

func (s *ChunkStore) GenerateChunk(ch *Chunk) {
	for y := 0; y < ChunkSize; y++ {
		for z := 0; z < ChunkSize; z++ {
			for x := 0; x < ChunkSize; x++ {
				wx := ch.CX*ChunkSize + x
				wy := ch.CY*ChunkSize + y
				wz := ch.CZ*ChunkSize + z
				ch.Blocks[ch.index(x, y, z)] = s.generated(wx, wy, wz)
			}
		}
	}
}

func (s *ChunkStore) generated(x, y, z int) uint16 {
	g := s.Gen
	switch {
	case !s.InBounds(x, y, z):
		return g.Air
	case y < g.GroundY-3:
		return g.Stone
	case y < g.GroundY:
		return g.Dirt
	case y == g.GroundY:
		return g.Grass
	}

	if h, ok := genpkg.TreeAt(g.Seed, x, z, g.TreePermille, g.SpawnClearRadius); ok && y <= g.GroundY+h {
		return g.Log
	}
	// Trees sit on a lattice, so only the nearest lattice column can reach here.
	for dz := -2; dz <= 2; dz++ {
		for dx := -2; dx <= 2; dx++ {
			h, ok := genpkg.TreeAt(g.Seed, x+dx, z+dz, g.TreePermille, g.SpawnClearRadius)
			if !ok {
				continue
			}
			top := g.GroundY + h
			if genpkg.Canopy(-dx, -dz, y-top) {
				return g.Leaves
			}
		}
	}
	return g.Air
}
