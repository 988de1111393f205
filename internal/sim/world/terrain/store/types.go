package store

import (
	"crypto/sha256"
	"fmt"
)

const (
	ChunkSize     = 16
	SubChunkCount = 16
	Height        = ChunkSize * SubChunkCount

	Air   uint8 = 0
	Dirt  uint8 = 1
	Grass uint8 = 2

	MaxLight uint8 = 15
	// UnloadedLight is the packed value reported outside loaded chunks:
	// open sky, no block light.
	UnloadedLight uint8 = MaxLight << 4
)

type ChunkKey struct {
	CX int
	CZ int
}

func (k ChunkKey) String() string { return fmt.Sprintf("(%d,%d)", k.CX, k.CZ) }

// Add offsets the key by whole chunks.
func (k ChunkKey) Add(dx, dz int) ChunkKey { return ChunkKey{CX: k.CX + dx, CZ: k.CZ + dz} }

// LocalPos addresses a cell inside one chunk.
type LocalPos struct {
	X, Y, Z int
}

func (p LocalPos) Valid() bool {
	return p.X >= 0 && p.X < ChunkSize && p.Z >= 0 && p.Z < ChunkSize && p.Y >= 0 && p.Y < Height
}

// BlockPos is an integer world position.
type BlockPos struct {
	X, Y, Z int
}

func (p BlockPos) Add(d [3]int) BlockPos {
	return BlockPos{X: p.X + d[0], Y: p.Y + d[1], Z: p.Z + d[2]}
}

type SubChunk struct {
	Blocks [ChunkSize][ChunkSize][ChunkSize]uint8
	Sky    [ChunkSize][ChunkSize][ChunkSize]uint8
	Glow   [ChunkSize][ChunkSize][ChunkSize]uint8
}

type Chunk struct {
	CX, CZ int
	Subs   [SubChunkCount]SubChunk

	dirty bool
	hash  [32]byte
}

func NewChunk(k ChunkKey) *Chunk {
	return &Chunk{CX: k.CX, CZ: k.CZ, dirty: true}
}

func (c *Chunk) Key() ChunkKey { return ChunkKey{CX: c.CX, CZ: c.CZ} }

// Dirty reports whether blocks or light changed since the last digest.
func (c *Chunk) Dirty() bool { return c.dirty }

// Digest hashes blocks and packed light in y, z, x order.
func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var row [ChunkSize * 2]byte
		for i := range c.Subs {
			s := &c.Subs[i]
			for y := 0; y < ChunkSize; y++ {
				for z := 0; z < ChunkSize; z++ {
					for x := 0; x < ChunkSize; x++ {
						row[x*2] = s.Blocks[y][z][x]
						row[x*2+1] = s.Sky[y][z][x]<<4 | s.Glow[y][z][x]
					}
					h.Write(row[:])
				}
			}
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}
