package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelcore.dev/internal/sim/world/kernel/face"
)

// Cuboid is an axis-aligned box in unit-block space.
type Cuboid struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

var UnitCube = Cuboid{Max: mgl32.Vec3{1, 1, 1}}

func (c Cuboid) Size() mgl32.Vec3 { return c.Max.Sub(c.Min) }

func (c Cuboid) IsUnit() bool {
	const eps = 1e-6
	for k := 0; k < 3; k++ {
		if c.Min[k] > eps || c.Max[k] < 1-eps {
			return false
		}
	}
	return true
}

// Union grows c to cover o.
func (c Cuboid) Union(o Cuboid) Cuboid {
	for k := 0; k < 3; k++ {
		c.Min[k] = min(c.Min[k], o.Min[k])
		c.Max[k] = max(c.Max[k], o.Max[k])
	}
	return c
}

// Flush reports whether the cuboid face f lies on the block boundary.
func (c Cuboid) Flush(f face.Face) bool {
	const eps = 1e-6
	k := int(f.Axis())
	if f.Positive() {
		return c.Max[k] >= 1-eps
	}
	return c.Min[k] <= eps
}

// Footprint is the rectangle the cuboid covers on the plane of f, expressed
// on the two tangent axes.
func (c Cuboid) Footprint(f face.Face) [4]float32 {
	k := int(f.Axis())
	t1, t2 := (k+1)%3, (k+2)%3
	return [4]float32{c.Min[t1], c.Min[t2], c.Max[t1], c.Max[t2]}
}

// UVRect is a texture rectangle in normalized atlas space.
type UVRect struct {
	Offset mgl32.Vec2
	Scale  mgl32.Vec2
}

var FullUV = UVRect{Scale: mgl32.Vec2{1, 1}}

// Map moves a unit-square UV into the rectangle.
func (r UVRect) Map(uv mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{r.Offset[0] + uv[0]*r.Scale[0], r.Offset[1] + uv[1]*r.Scale[1]}
}

// Sub narrows r to the sub-rectangle s given in r's own unit space.
func (r UVRect) Sub(s UVRect) UVRect {
	return UVRect{
		Offset: r.Map(s.Offset),
		Scale:  mgl32.Vec2{r.Scale[0] * s.Scale[0], r.Scale[1] * s.Scale[1]},
	}
}

type ElementFace struct {
	Texture string
	UV      UVRect
	// CullFace, when set, hides the face whenever a block is present in
	// that direction.
	CullFace *face.Face
	Tint     bool
	Opaque   bool
}

type Rotation struct {
	Origin mgl32.Vec3
	Axis   face.Axis
	Angle  float32 // degrees
}

// Matrix rotates about Origin.
func (r Rotation) Matrix() mgl32.Mat4 {
	rad := mgl32.DegToRad(r.Angle)
	var rot mgl32.Mat4
	switch r.Axis {
	case face.AxisX:
		rot = mgl32.HomogRotate3DX(rad)
	case face.AxisY:
		rot = mgl32.HomogRotate3DY(rad)
	default:
		rot = mgl32.HomogRotate3DZ(rad)
	}
	return mgl32.Translate3D(r.Origin[0], r.Origin[1], r.Origin[2]).
		Mul4(rot).
		Mul4(mgl32.Translate3D(-r.Origin[0], -r.Origin[1], -r.Origin[2]))
}

type Element struct {
	Cube     Cuboid
	Rotation *Rotation
	Faces    [6]*ElementFace
}

func (e *Element) Face(f face.Face) *ElementFace { return e.Faces[f] }

// Transform maps a unit-cube corner into block space.
func (e *Element) Transform(v mgl32.Vec3) mgl32.Vec3 {
	size := e.Cube.Size()
	p := e.Cube.Min.Add(mgl32.Vec3{v[0] * size[0], v[1] * size[1], v[2] * size[2]})
	if e.Rotation != nil && e.Rotation.Angle != 0 {
		p = e.Rotation.Matrix().Mul4x1(p.Vec4(1)).Vec3()
	}
	return p
}

// Occlusion is a 256-bit set of block ids.
type Occlusion [4]uint64

func (o *Occlusion) Add(id uint8)      { o[id>>6] |= 1 << (id & 63) }
func (o *Occlusion) Has(id uint8) bool { return o[id>>6]&(1<<(id&63)) != 0 }
func (o *Occlusion) Empty() bool       { return *o == Occlusion{} }

type Block struct {
	Name             string
	Bounds           Cuboid
	Elements         []Element
	AmbientOcclusion bool
	// TintColor is RGB applied to faces whose Tint flag is set.
	TintColor [3]uint8

	opaque     bool
	opaqueFace [6]bool
	// occludedBy[e][f] is filled at bake time: neighbour ids that hide
	// face f of element e.
	occludedBy [][6]Occlusion
}

// NewBlock derives bounds and opacity from the element list.
func NewBlock(name string, elements []Element) *Block {
	b := &Block{
		Name:             name,
		Elements:         elements,
		AmbientOcclusion: true,
		TintColor:        [3]uint8{0x91, 0xBD, 0x59},
	}
	b.refresh()
	return b
}

func (b *Block) refresh() {
	b.opaque = false
	b.opaqueFace = [6]bool{}
	for i, e := range b.Elements {
		if i == 0 {
			b.Bounds = e.Cube
		} else {
			b.Bounds = b.Bounds.Union(e.Cube)
		}
		if e.Cube.IsUnit() && e.Rotation == nil {
			b.opaque = true
		}
		for _, f := range face.All {
			ef := e.Faces[f]
			if ef == nil || !ef.Opaque || !e.Cube.Flush(f) || e.Rotation != nil {
				continue
			}
			fp := e.Cube.Footprint(f)
			if fp[0] <= 1e-6 && fp[1] <= 1e-6 && fp[2] >= 1-1e-6 && fp[3] >= 1-1e-6 {
				b.opaqueFace[f] = true
			}
		}
	}
	if len(b.Elements) == 0 {
		b.Bounds = UnitCube
	}
}

// IsOpaque reports whether an element spans the full unit cube.
func (b *Block) IsOpaque() bool { return b.opaque }

// FaceOpaque reports whether the block presents a full opaque face toward f.
func (b *Block) FaceOpaque(f face.Face) bool { return b.opaque || b.opaqueFace[f] }

// OccludedBy returns the baked set of neighbour ids that hide the face.
func (b *Block) OccludedBy(element int, f face.Face) *Occlusion {
	if element < 0 || element >= len(b.occludedBy) {
		return nil
	}
	return &b.occludedBy[element][f]
}

// SetOcclusion replaces the baked occlusion tables.
func (b *Block) SetOcclusion(occ [][6]Occlusion) { b.occludedBy = occ }
