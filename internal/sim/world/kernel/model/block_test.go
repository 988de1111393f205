package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore.dev/internal/sim/world/kernel/face"
)

func fullFaces(opaque bool) [6]*ElementFace {
	var out [6]*ElementFace
	for _, f := range face.All {
		out[f] = &ElementFace{Texture: "stone", UV: FullUV, Opaque: opaque}
	}
	return out
}

func TestBlockOpacity(t *testing.T) {
	cube := NewBlock("stone", []Element{{Cube: UnitCube, Faces: fullFaces(true)}})
	if !cube.IsOpaque() {
		t.Fatalf("unit cube should be opaque")
	}
	slab := NewBlock("slab", []Element{{Cube: Cuboid{Max: mgl32.Vec3{1, 0.5, 1}}, Faces: fullFaces(true)}})
	if slab.IsOpaque() {
		t.Fatalf("slab should not be opaque")
	}
	if !slab.FaceOpaque(face.Bottom) {
		t.Fatalf("slab bottom face should be a full opaque face")
	}
	if slab.FaceOpaque(face.Top) || slab.FaceOpaque(face.Left) {
		t.Fatalf("slab top/side faces must not count as full")
	}
	if slab.Bounds.Max[1] != 0.5 {
		t.Fatalf("unexpected slab bounds %v", slab.Bounds)
	}
}

func TestEmptyBlockHasUnitBounds(t *testing.T) {
	b := NewBlock("marker", nil)
	if b.Bounds != UnitCube || b.IsOpaque() {
		t.Fatalf("unexpected empty model: %+v", b)
	}
}

func TestElementTransformScalesAndRotates(t *testing.T) {
	e := Element{Cube: Cuboid{Min: mgl32.Vec3{0.25, 0, 0.25}, Max: mgl32.Vec3{0.75, 0.5, 0.75}}}
	if got := e.Transform(mgl32.Vec3{1, 1, 1}); !got.ApproxEqual(mgl32.Vec3{0.75, 0.5, 0.75}) {
		t.Fatalf("scaled corner: %v", got)
	}
	e.Rotation = &Rotation{Origin: mgl32.Vec3{0.5, 0.5, 0.5}, Axis: face.AxisY, Angle: 90}
	got := e.Transform(mgl32.Vec3{1, 0, 1})
	// (0.75,0,0.75) rotated 90 degrees about the block centre's Y axis.
	if !got.ApproxEqualThreshold(mgl32.Vec3{0.75, 0, 0.25}, 1e-5) {
		t.Fatalf("rotated corner: %v", got)
	}
}

func TestUVRectSub(t *testing.T) {
	atlas := UVRect{Offset: mgl32.Vec2{0.5, 0.25}, Scale: mgl32.Vec2{0.25, 0.25}}
	sub := atlas.Sub(UVRect{Offset: mgl32.Vec2{0.5, 0}, Scale: mgl32.Vec2{0.5, 1}})
	if !sub.Offset.ApproxEqual(mgl32.Vec2{0.625, 0.25}) || !sub.Scale.ApproxEqual(mgl32.Vec2{0.125, 0.25}) {
		t.Fatalf("unexpected sub rect %+v", sub)
	}
	if got := atlas.Map(mgl32.Vec2{1, 1}); !got.ApproxEqual(mgl32.Vec2{0.75, 0.5}) {
		t.Fatalf("unexpected map %v", got)
	}
}

func TestOcclusionSet(t *testing.T) {
	var o Occlusion
	if !o.Empty() {
		t.Fatalf("fresh set should be empty")
	}
	o.Add(1)
	o.Add(200)
	if !o.Has(1) || !o.Has(200) || o.Has(2) || o.Has(0) {
		t.Fatalf("unexpected membership: %v", o)
	}
}
