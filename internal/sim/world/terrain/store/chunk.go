package store

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelcore.dev/internal/sim/world/logic/mathx"
)

// subIndex splits a local y into subchunk index and offset.
func subIndex(y int) (int, int) { return y >> 4, y & 15 }

func (c *Chunk) ContainsLocal(p LocalPos) bool { return p.Valid() }

// ContainsPosition reports whether the world position falls in this chunk.
func (c *Chunk) ContainsPosition(pos mgl32.Vec3) bool {
	x, y, z := mathx.Floor32(pos[0]), mathx.Floor32(pos[1]), mathx.Floor32(pos[2])
	if y < 0 || y >= Height {
		return false
	}
	return mathx.FloorDiv(x, ChunkSize) == c.CX && mathx.FloorDiv(z, ChunkSize) == c.CZ
}

func (c *Chunk) GetBlock(p LocalPos) (uint8, bool) {
	if !p.Valid() {
		return Air, false
	}
	return c.GetBlockUnchecked(p)
}

// GetBlockUnchecked skips the bounds check; callers guarantee p is valid.
func (c *Chunk) GetBlockUnchecked(p LocalPos) (uint8, bool) {
	i, y := subIndex(p.Y)
	id := c.Subs[i].Blocks[y][p.Z][p.X]
	return id, id != Air
}

// HasBlockAt reports whether a non-air block occupies the world position.
func (c *Chunk) HasBlockAt(pos mgl32.Vec3) bool {
	if !c.ContainsPosition(pos) {
		return false
	}
	_, ok := c.GetBlockUnchecked(c.ToLocal(pos))
	return ok
}

// SetBlock writes id at a world position inside this chunk. It returns false
// when the position belongs elsewhere.
func (c *Chunk) SetBlock(pos mgl32.Vec3, id uint8) bool {
	if !c.ContainsPosition(pos) {
		return false
	}
	c.SetBlockUnchecked(pos, id)
	return true
}

func (c *Chunk) SetBlockUnchecked(pos mgl32.Vec3, id uint8) {
	c.SetLocal(c.ToLocal(pos), id)
}

func (c *Chunk) SetLocal(p LocalPos, id uint8) {
	i, y := subIndex(p.Y)
	b := &c.Subs[i].Blocks[y][p.Z][p.X]
	if *b == id {
		return
	}
	*b = id
	c.dirty = true
}

// GetLight returns the sky or block channel at p; out-of-range reads are dark.
func (c *Chunk) GetLight(p LocalPos, sky bool) uint8 {
	if !p.Valid() {
		return 0
	}
	i, y := subIndex(p.Y)
	if sky {
		return c.Subs[i].Sky[y][p.Z][p.X]
	}
	return c.Subs[i].Glow[y][p.Z][p.X]
}

// SetLight replaces one channel, clamping to [0,15].
func (c *Chunk) SetLight(p LocalPos, sky bool, v uint8) {
	if !p.Valid() {
		return
	}
	if v > MaxLight {
		v = MaxLight
	}
	i, y := subIndex(p.Y)
	l := &c.Subs[i].Glow[y][p.Z][p.X]
	if sky {
		l = &c.Subs[i].Sky[y][p.Z][p.X]
	}
	if *l == v {
		return
	}
	*l = v
	c.dirty = true
}

// PackedLight is sky<<4 | block, the renderer-facing representation.
func (c *Chunk) PackedLight(p LocalPos) uint8 {
	return c.GetLight(p, true)<<4 | c.GetLight(p, false)
}

func (c *Chunk) ToLocal(pos mgl32.Vec3) LocalPos {
	return LocalPos{
		X: mathx.Mod(mathx.Floor32(pos[0]), ChunkSize),
		Y: mathx.Floor32(pos[1]),
		Z: mathx.Mod(mathx.Floor32(pos[2]), ChunkSize),
	}
}

func (c *Chunk) ToWorld(p LocalPos) BlockPos {
	return BlockPos{X: c.CX*ChunkSize + p.X, Y: p.Y, Z: c.CZ*ChunkSize + p.Z}
}

// LocalOf converts an integer world position, ignoring chunk ownership.
func LocalOf(p BlockPos) LocalPos {
	return LocalPos{X: mathx.Mod(p.X, ChunkSize), Y: p.Y, Z: mathx.Mod(p.Z, ChunkSize)}
}

func KeyOfBlock(p BlockPos) ChunkKey {
	return ChunkKey{CX: mathx.FloorDiv(p.X, ChunkSize), CZ: mathx.FloorDiv(p.Z, ChunkSize)}
}

func BlockPosOf(pos mgl32.Vec3) BlockPos {
	return BlockPos{X: mathx.Floor32(pos[0]), Y: mathx.Floor32(pos[1]), Z: mathx.Floor32(pos[2])}
}

// AffectedKeys lists the chunks whose meshes read the cell at p in chunk k:
// k itself plus the horizontal neighbour across any boundary p touches.
func AffectedKeys(k ChunkKey, p LocalPos) []ChunkKey {
	out := []ChunkKey{k}
	switch p.X {
	case 0:
		out = append(out, k.Add(-1, 0))
	case ChunkSize - 1:
		out = append(out, k.Add(1, 0))
	}
	switch p.Z {
	case 0:
		out = append(out, k.Add(0, -1))
	case ChunkSize - 1:
		out = append(out, k.Add(0, 1))
	}
	return out
}
