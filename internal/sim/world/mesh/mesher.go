// Package mesh turns chunks into per-direction quad buckets with baked
// ambient occlusion and light.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/kernel/model"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

// DefaultAOTable is ordered darkest first.
var DefaultAOTable = [4]float32{0.1, 0.25, 0.5, 1.0}

// Registry is the model lookup the mesher needs. catalogs.Registry
// satisfies it.
type Registry interface {
	Get(id uint8) (*model.Block, bool)
	IsOpaque(id uint8) bool
	Occludes(id uint8, element int, f face.Face, neighbour uint8) bool
}

// VertexAO maps the three corner samples to a table entry: both sides solid
// is darkest regardless of the diagonal, otherwise each solid sample steps
// one level down from the brightest.
func VertexAO(table [4]float32, side1, side2, corner bool) float32 {
	if side1 && side2 {
		return table[0]
	}
	n := 0
	for _, s := range [3]bool{side1, side2, corner} {
		if s {
			n++
		}
	}
	return table[3-n]
}

type Mesher struct {
	Chunks *store.ChunkManager
	Blocks Registry
	AO     [4]float32
}

func New(chunks *store.ChunkManager, blocks Registry) *Mesher {
	return &Mesher{Chunks: chunks, Blocks: blocks, AO: DefaultAOTable}
}

// blockAt reads through ch when p lies inside it and through the manager
// otherwise.
func (m *Mesher) blockAt(ch *store.Chunk, p store.BlockPos) (uint8, bool) {
	if store.KeyOfBlock(p) == ch.Key() {
		return ch.GetBlock(store.LocalOf(p))
	}
	return m.Chunks.BlockAt(p.X, p.Y, p.Z)
}

func (m *Mesher) solid(ch *store.Chunk, p store.BlockPos) bool {
	id, ok := m.blockAt(ch, p)
	return ok && m.Blocks.IsOpaque(id)
}

// culledBy reports whether the neighbour in direction c shows a full opaque
// face back toward us.
func (m *Mesher) culledBy(ch *store.Chunk, p store.BlockPos, c face.Face) bool {
	id, ok := m.blockAt(ch, p.Add(c.Normal()))
	if !ok {
		return false
	}
	nb, ok := m.Blocks.Get(id)
	return ok && nb.FaceOpaque(c.Opposite())
}

// packedLight is the light the face looks into. Outside the loaded world it
// is store.UnloadedLight: open sky, no block light.
func (m *Mesher) packedLight(ch *store.Chunk, p store.BlockPos) uint8 {
	if store.KeyOfBlock(p) == ch.Key() {
		if lp := store.LocalOf(p); lp.Valid() {
			return ch.PackedLight(lp)
		}
	}
	return m.Chunks.LightAt(p)
}

// ChunkMesh builds the buckets for one chunk. It reads neighbour chunks for
// culling, AO and light but never writes.
func (m *Mesher) ChunkMesh(ch *store.Chunk) *Buckets {
	out := &Buckets{Key: ch.Key()}
	for y := 0; y < store.Height; y++ {
		for z := 0; z < store.ChunkSize; z++ {
			for x := 0; x < store.ChunkSize; x++ {
				lp := store.LocalPos{X: x, Y: y, Z: z}
				id, ok := ch.GetBlockUnchecked(lp)
				if !ok {
					continue
				}
				b, ok := m.Blocks.Get(id)
				if !ok {
					continue
				}
				m.block(out, ch, ch.ToWorld(lp), id, b)
			}
		}
	}
	return out
}

func (m *Mesher) block(out *Buckets, ch *store.Chunk, wp store.BlockPos, id uint8, b *model.Block) {
	for ei := range b.Elements {
		e := &b.Elements[ei]
		for _, f := range face.All {
			ef := e.Faces[f]
			if ef == nil {
				continue
			}
			np := wp.Add(f.Normal())
			if nid, ok := m.blockAt(ch, np); ok && m.Blocks.Occludes(id, ei, f, nid) {
				continue
			}
			if ef.CullFace != nil && m.culledBy(ch, wp, *ef.CullFace) {
				continue
			}
			out.add(m.quad(ch, wp, np, b, e, ef, f))
		}
	}
}

func (m *Mesher) quad(ch *store.Chunk, wp, np store.BlockPos, b *model.Block, e *model.Element, ef *model.ElementFace, f face.Face) Voxel {
	v := Voxel{
		Block:  wp,
		Chunk:  ch.Key(),
		Face:   f,
		Opaque: ef.Opaque,
		Light:  m.packedLight(ch, np),
		Tint:   mgl32.Vec3{1, 1, 1},
	}
	if ef.Tint {
		v.Tint = mgl32.Vec3{
			float32(b.TintColor[0]) / 255,
			float32(b.TintColor[1]) / 255,
			float32(b.TintColor[2]) / 255,
		}
	}

	origin := mgl32.Vec3{float32(wp.X), float32(wp.Y), float32(wp.Z)}
	corners := f.Corners()
	uvs := f.UVs()
	for i := 0; i < 4; i++ {
		v.Positions[i] = e.Transform(face.Vertices[corners[i]]).Add(origin)
		v.UVs[i] = ef.UV.Map(uvs[i])
		v.Corners[i] = uint8(corners[i])
		v.AO[i] = 1
		if b.AmbientOcclusion {
			nb := f.CornerNeighbours(i)
			v.AO[i] = VertexAO(m.AO,
				m.solid(ch, wp.Add(nb[0])),
				m.solid(ch, wp.Add(nb[1])),
				m.solid(ch, wp.Add(nb[2])))
		}
	}
	v.flip()
	return v
}

// WorldMesh meshes every loaded chunk in key order.
func (m *Mesher) WorldMesh() []*Buckets {
	keys := m.Chunks.Keys()
	out := make([]*Buckets, 0, len(keys))
	for _, k := range keys {
		ch, _ := m.Chunks.GetChunk(k)
		out = append(out, m.ChunkMesh(ch))
	}
	return out
}
