// Package physics resolves axis-aligned boxes against the block grid.
package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelcore.dev/internal/sim/world/kernel/face"
)

type AABB struct {
	Min, Max mgl32.Vec3
}

// UnitCell is the collision box of the block cell at integer (x,y,z).
func UnitCell(x, y, z int) AABB {
	lo := mgl32.Vec3{float32(x), float32(y), float32(z)}
	return AABB{Min: lo, Max: lo.Add(mgl32.Vec3{1, 1, 1})}
}

// Feet builds a body box hanging below pos: pos is the top-centre.
func Feet(pos mgl32.Vec3, halfWidth, height float32) AABB {
	return AABB{
		Min: pos.Sub(mgl32.Vec3{halfWidth, height, halfWidth}),
		Max: pos.Add(mgl32.Vec3{halfWidth, 0, halfWidth}),
	}
}

func (b AABB) Offset(d mgl32.Vec3) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// overlaps is the open-interval test on a single axis.
func (b AABB) overlaps(o AABB, axis face.Axis) bool {
	return b.Min[axis] < o.Max[axis] && b.Max[axis] > o.Min[axis]
}

// IntersectsAxis reports overlap on the two axes other than axis. It is the
// precondition for clipping movement along axis.
func (b AABB) IntersectsAxis(o AABB, axis face.Axis) bool {
	return b.overlaps(o, (axis+1)%3) && b.overlaps(o, (axis+2)%3)
}

func (b AABB) Intersects(o AABB) bool {
	return b.overlaps(o, face.AxisX) && b.overlaps(o, face.AxisY) && b.overlaps(o, face.AxisZ)
}

// ClipAxis shortens delta along axis so b stops at o's near face. Boxes that
// do not share the other two axes, or that are already past o, are not
// clipped.
func (b AABB) ClipAxis(o AABB, delta float32, axis face.Axis) float32 {
	if !b.IntersectsAxis(o, axis) {
		return delta
	}
	if delta > 0 && b.Max[axis] <= o.Min[axis] {
		if gap := o.Min[axis] - b.Max[axis]; delta > gap {
			delta = gap
		}
	}
	if delta < 0 && b.Min[axis] >= o.Max[axis] {
		if gap := o.Max[axis] - b.Min[axis]; delta < gap {
			delta = gap
		}
	}
	return delta
}
