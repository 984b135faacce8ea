package store

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

const ChunkSize = 16

type ChunkKey struct {
	CX int
	CY int
	CZ int
}

type Chunk struct {
	CX, CY, CZ int
	Blocks     []uint16 // len = 16*16*16

	dirty bool
	hash  [32]byte
}

func (c *Chunk) index(x, y, z int) int {
	return x + z*ChunkSize + y*ChunkSize*ChunkSize
}

func (c *Chunk) Get(x, y, z int) uint16 {
	return c.Blocks[c.index(x, y, z)]
}

func (c *Chunk) Set(x, y, z int, b uint16) {
	i := c.index(x, y, z)
	if c.Blocks[i] == b {
		return
	}
	c.Blocks[i] = b
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		buf := make([]byte, 2*len(c.Blocks))
		for i, v := range c.Blocks {
			binary.LittleEndian.PutUint16(buf[2*i:], v)
		}
		c.hash = blake3.Sum256(buf)
		c.dirty = false
	}
	return c.hash
}

type WorldGen struct {
	Seed      int64
	BoundaryR int // blocks
	MinY      int
	MaxY      int
	GroundY   int // top ground layer

	SpawnClearRadius int
	TreePermille     int

	Air    uint16
	Stone  uint16
	Dirt   uint16
	Grass  uint16
	Log    uint16
	Leaves uint16
}

type ChunkStore struct {
	Gen    WorldGen
	Chunks map[ChunkKey]*Chunk
}

func NewChunkStore(gen WorldGen) *ChunkStore {
	return &ChunkStore{
		Gen:    gen,
		Chunks: map[ChunkKey]*Chunk{},
	}
}
