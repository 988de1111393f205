package store

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkManager owns every resident chunk, keyed by chunk grid coordinate.
type ChunkManager struct {
	Chunks map[ChunkKey]*Chunk
}

func NewChunkManager() *ChunkManager {
	return &ChunkManager{Chunks: map[ChunkKey]*Chunk{}}
}

// NewRange allocates empty chunks for every key in [xmin,xmax) x [zmin,zmax).
func NewRange(xmin, xmax, zmin, zmax int) *ChunkManager {
	m := NewChunkManager()
	for cx := xmin; cx < xmax; cx++ {
		for cz := zmin; cz < zmax; cz++ {
			m.Insert(NewChunk(ChunkKey{CX: cx, CZ: cz}))
		}
	}
	return m
}

// Insert replaces any chunk already stored under the same key.
func (m *ChunkManager) Insert(ch *Chunk) {
	m.Chunks[ch.Key()] = ch
}

func (m *ChunkManager) GetChunk(k ChunkKey) (*Chunk, bool) {
	ch, ok := m.Chunks[k]
	return ch, ok
}

func (m *ChunkManager) Len() int { return len(m.Chunks) }

// KeyOf maps a world position to the owning chunk's grid coordinate.
func (m *ChunkManager) KeyOf(pos mgl32.Vec3) ChunkKey {
	return KeyOfBlock(BlockPosOf(pos))
}

func (m *ChunkManager) ContainsChunk(pos mgl32.Vec3) bool {
	_, ok := m.Chunks[m.KeyOf(pos)]
	return ok
}

func (m *ChunkManager) GetBlock(pos mgl32.Vec3) (uint8, bool) {
	p := BlockPosOf(pos)
	return m.BlockAt(p.X, p.Y, p.Z)
}

// BlockAt is GetBlock on integer coordinates.
func (m *ChunkManager) BlockAt(x, y, z int) (uint8, bool) {
	p := BlockPos{X: x, Y: y, Z: z}
	ch, ok := m.Chunks[KeyOfBlock(p)]
	if !ok {
		return Air, false
	}
	return ch.GetBlock(LocalOf(p))
}

func (m *ChunkManager) ContainsBlock(pos mgl32.Vec3) bool {
	_, ok := m.GetBlock(pos)
	return ok
}

// SetBlock writes id at a world position; false if no chunk owns it or y is
// outside the world.
func (m *ChunkManager) SetBlock(pos mgl32.Vec3, id uint8) bool {
	ch, ok := m.Chunks[m.KeyOf(pos)]
	if !ok {
		return false
	}
	return ch.SetBlock(pos, id)
}

// GetLight returns packed sky|block light; positions outside loaded chunks
// or the world's height read as UnloadedLight.
func (m *ChunkManager) GetLight(pos mgl32.Vec3) uint8 {
	return m.LightAt(BlockPosOf(pos))
}

func (m *ChunkManager) LightAt(p BlockPos) uint8 {
	ch, ok := m.Chunks[KeyOfBlock(p)]
	lp := LocalOf(p)
	if !ok || !lp.Valid() {
		return UnloadedLight
	}
	return ch.PackedLight(lp)
}

func (m *ChunkManager) SkyLightAt(p BlockPos) uint8 {
	return m.LightAt(p) >> 4
}

// BlockLightAt reads fully lit outside loaded chunks so world edges do not
// render dark.
func (m *ChunkManager) BlockLightAt(p BlockPos) uint8 {
	ch, ok := m.Chunks[KeyOfBlock(p)]
	lp := LocalOf(p)
	if !ok || !lp.Valid() {
		return MaxLight
	}
	return ch.GetLight(lp, false)
}

// All returns every chunk in unspecified order.
func (m *ChunkManager) All() []*Chunk {
	out := make([]*Chunk, 0, len(m.Chunks))
	for _, ch := range m.Chunks {
		out = append(out, ch)
	}
	return out
}

func (m *ChunkManager) Keys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(m.Chunks))
	for k := range m.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

// Bounds returns the inclusive min/max chunk keys; ok is false when empty.
func (m *ChunkManager) Bounds() (lo, hi ChunkKey, ok bool) {
	first := true
	for k := range m.Chunks {
		if first {
			lo, hi, first = k, k, false
			continue
		}
		lo.CX, lo.CZ = min(lo.CX, k.CX), min(lo.CZ, k.CZ)
		hi.CX, hi.CZ = max(hi.CX, k.CX), max(hi.CZ, k.CZ)
	}
	return lo, hi, !first
}

// SurfaceSize is the loaded extent in blocks along X and Z.
func (m *ChunkManager) SurfaceSize() (int, int) {
	lo, hi, ok := m.Bounds()
	if !ok {
		return 0, 0
	}
	return (hi.CX - lo.CX + 1) * ChunkSize, (hi.CZ - lo.CZ + 1) * ChunkSize
}
