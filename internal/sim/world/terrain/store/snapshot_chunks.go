package store

import (
	"fmt"

	"settlers.ai/internal/persistence/snapshot"
	"settlers.ai/internal/sim/encoding"
)

// ExportChunks converts loaded chunks into run-length encoded snapshot chunks.
func (s *ChunkStore) ExportChunks() []snapshot.ChunkV1 {
	keys := s.LoadedChunkKeys()
	out := make([]snapshot.ChunkV1, 0, len(keys))
	for _, k := range keys {
		ch := s.Chunks[k]
		out = append(out, snapshot.ChunkV1{
			CX:   k.CX,
			CY:   k.CY,
			CZ:   k.CZ,
			Runs: encoding.EncodeRuns(ch.Blocks),
		})
	}
	return out
}

// ImportChunks rebuilds a chunk store from snapshot chunks. Chunks missing
// from the snapshot are regenerated on demand.
func ImportChunks(gen WorldGen, chunks []snapshot.ChunkV1) (*ChunkStore, error) {
	store := NewChunkStore(gen)
	for _, ch := range chunks {
		blocks, err := encoding.DecodeRuns(ch.Runs, ChunkSize*ChunkSize*ChunkSize)
		if err != nil {
			return nil, fmt.Errorf("snapshot chunk %d,%d,%d: %w", ch.CX, ch.CY, ch.CZ, err)
		}
		c := &Chunk{CX: ch.CX, CY: ch.CY, CZ: ch.CZ, Blocks: blocks}
		_ = c.Digest()
		store.Chunks[ChunkKey{CX: ch.CX, CY: ch.CY, CZ: ch.CZ}] = c
	}
	return store, nil
}
