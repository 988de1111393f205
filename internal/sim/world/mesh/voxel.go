package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

// Voxel is one emitted quad before triangulation.
type Voxel struct {
	Positions [4]mgl32.Vec3
	UVs       [4]mgl32.Vec2
	AO        [4]float32
	// Corners holds the unit-cube vertex index each position came from.
	Corners [4]uint8

	Block  store.BlockPos
	Chunk  store.ChunkKey
	Face   face.Face
	Opaque bool
	// Light is the packed sky<<4|block light of the cell the face looks into.
	Light uint8
	Tint  mgl32.Vec3
}

// Vertex is a triangulated corner ready for a renderer.
type Vertex struct {
	Position mgl32.Vec3
	UV       mgl32.Vec2
	Color    mgl32.Vec4
	Light    uint8
	Corner   uint8
	Face     face.Face
}

// rotate shifts every per-corner array left by one, so corner 1 becomes 0.
func (v *Voxel) rotate() {
	v.Positions = [4]mgl32.Vec3{v.Positions[1], v.Positions[2], v.Positions[3], v.Positions[0]}
	v.UVs = [4]mgl32.Vec2{v.UVs[1], v.UVs[2], v.UVs[3], v.UVs[0]}
	v.AO = [4]float32{v.AO[1], v.AO[2], v.AO[3], v.AO[0]}
	v.Corners = [4]uint8{v.Corners[1], v.Corners[2], v.Corners[3], v.Corners[0]}
}

// flip picks the triangulation diagonal that joins the brighter corners.
func (v *Voxel) flip() bool {
	if v.AO[1]+v.AO[2] > v.AO[0]+v.AO[3] {
		v.rotate()
		return true
	}
	return false
}

// LightFactor scales colour by the brighter of the two light channels.
func (v *Voxel) LightFactor() float32 {
	level := max(v.Light>>4, v.Light&0x0f)
	return float32(level+1) / 16
}

// Color is the final colour of corner i.
func (v *Voxel) Color(i int) mgl32.Vec4 {
	k := v.Face.Shade() * v.AO[i] * v.LightFactor()
	return mgl32.Vec4{v.Tint[0] * k, v.Tint[1] * k, v.Tint[2] * k, 1}
}

// Vertices triangulates the quad with face.Indices.
func (v *Voxel) Vertices() [6]Vertex {
	var out [6]Vertex
	for n, i := range face.Indices {
		out[n] = Vertex{
			Position: v.Positions[i],
			UV:       v.UVs[i],
			Color:    v.Color(i),
			Light:    v.Light,
			Corner:   v.Corners[i],
			Face:     v.Face,
		}
	}
	return out
}

// Bucket holds one face direction's quads split by blending class.
type Bucket struct {
	Opaque      []Voxel
	Translucent []Voxel
}

// Buckets is a chunk mesh: one Bucket per face direction, indexed by face.
type Buckets struct {
	Key   store.ChunkKey
	Faces [6]Bucket
}

func (b *Buckets) add(v Voxel) {
	bk := &b.Faces[v.Face]
	if v.Opaque {
		bk.Opaque = append(bk.Opaque, v)
	} else {
		bk.Translucent = append(bk.Translucent, v)
	}
}

func (b *Buckets) Bucket(f face.Face) *Bucket { return &b.Faces[f] }

// Quads counts every emitted quad.
func (b *Buckets) Quads() int {
	n := 0
	for i := range b.Faces {
		n += len(b.Faces[i].Opaque) + len(b.Faces[i].Translucent)
	}
	return n
}

// Vertices triangulates one direction's opaque or translucent list.
func (b *Buckets) Vertices(f face.Face, opaque bool) []Vertex {
	src := b.Faces[f].Translucent
	if opaque {
		src = b.Faces[f].Opaque
	}
	out := make([]Vertex, 0, len(src)*len(face.Indices))
	for i := range src {
		vs := src[i].Vertices()
		out = append(out, vs[:]...)
	}
	return out
}
