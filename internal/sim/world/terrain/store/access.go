package store

import (
	"sort"

	"settlers.ai/internal/sim/world/logic/mathx"
)

func (s *ChunkStore) InBounds(x, y, z int) bool {
	if y < s.Gen.MinY || y > s.Gen.MaxY {
		return false
	}
	if s.Gen.BoundaryR > 0 {
		if x < -s.Gen.BoundaryR || x > s.Gen.BoundaryR || z < -s.Gen.BoundaryR || z > s.Gen.BoundaryR {
			return false
		}
	}
	return true
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

// GetBlock returns Air outside the world bounds.
func (s *ChunkStore) GetBlock(x, y, z int) uint16 {
	if !s.InBounds(x, y, z) {
		return s.Gen.Air
	}
	ch := s.GetOrGenChunk(mathx.FloorDiv(x, ChunkSize), mathx.FloorDiv(y, ChunkSize), mathx.FloorDiv(z, ChunkSize))
	return ch.Get(mathx.Mod(x, ChunkSize), mathx.Mod(y, ChunkSize), mathx.Mod(z, ChunkSize))
}

// SetBlock reports false outside the world bounds.
func (s *ChunkStore) SetBlock(x, y, z int, b uint16) bool {
	if !s.InBounds(x, y, z) {
		return false
	}
	ch := s.GetOrGenChunk(mathx.FloorDiv(x, ChunkSize), mathx.FloorDiv(y, ChunkSize), mathx.FloorDiv(z, ChunkSize))
	ch.Set(mathx.Mod(x, ChunkSize), mathx.Mod(y, ChunkSize), mathx.Mod(z, ChunkSize), b)
	return true
}

func (s *ChunkStore) GetOrGenChunk(cx, cy, cz int) *Chunk {
	k := ChunkKey{CX: cx, CY: cy, CZ: cz}
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	ch := &Chunk{
		CX:     cx,
		CY:     cy,
		CZ:     cz,
		Blocks: make([]uint16, ChunkSize*ChunkSize*ChunkSize),
	}
	s.GenerateChunk(ch)
	ch.dirty = true
	s.Chunks[k] = ch
	return ch
}
