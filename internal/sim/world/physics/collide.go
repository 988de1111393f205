package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/logic/mathx"
)

// Blocks answers occupancy for integer cells. store.ChunkManager satisfies it.
type Blocks interface {
	BlockAt(x, y, z int) (uint8, bool)
}

// cells calls fn for every occupied cell in the floor(min)..ceil(max) range of
// box until fn returns false.
func cells(q Blocks, box AABB, fn func(x, y, z int) bool) {
	x0, y0, z0 := mathx.Floor32(box.Min[0]), mathx.Floor32(box.Min[1]), mathx.Floor32(box.Min[2])
	x1, y1, z1 := mathx.Ceil32(box.Max[0]), mathx.Ceil32(box.Max[1]), mathx.Ceil32(box.Max[2])
	for y := y0; y < y1; y++ {
		for z := z0; z < z1; z++ {
			for x := x0; x < x1; x++ {
				if _, ok := q.BlockAt(x, y, z); !ok {
					continue
				}
				if !fn(x, y, z) {
					return
				}
			}
		}
	}
}

// Collides reports whether box overlaps the unit cube of any occupied cell.
func Collides(q Blocks, box AABB) bool {
	hit := false
	cells(q, box, func(x, y, z int) bool {
		hit = box.Intersects(UnitCell(x, y, z))
		return !hit
	})
	return hit
}

// Colliders records, per side of box, one occupied cell overlapping it.
type Colliders [6]*mgl32.Vec3

func (c Colliders) Any() bool {
	for _, p := range c {
		if p != nil {
			return true
		}
	}
	return false
}

func (c Colliders) On(f face.Face) (mgl32.Vec3, bool) {
	if c[f] == nil {
		return mgl32.Vec3{}, false
	}
	return *c[f], true
}

// FindColliders classifies each overlapping cell by the axis of shallowest
// penetration and the side of box it lies on.
func FindColliders(q Blocks, box AABB) Colliders {
	var out Colliders
	center := box.Center()
	cells(q, box, func(x, y, z int) bool {
		cell := UnitCell(x, y, z)
		if !box.Intersects(cell) {
			return true
		}
		best, depth := face.AxisX, float32(0)
		for a := face.AxisX; a <= face.AxisZ; a++ {
			d := min(box.Max[a]-cell.Min[a], cell.Max[a]-box.Min[a])
			if a == face.AxisX || d < depth {
				best, depth = a, d
			}
		}
		f := face.FromAxis(best, cell.Center()[best] > center[best])
		p := cell.Min
		out[f] = &p
		return true
	})
	return out
}
