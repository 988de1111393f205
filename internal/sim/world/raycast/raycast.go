// Package raycast walks a ray through the block grid and refines hits
// against each block's bounding cuboid.
package raycast

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/kernel/model"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

// MaxSteps bounds the number of cell crossings per cast.
const MaxSteps = 200

type HitType uint8

const (
	None HitType = iota
	Block
)

func (t HitType) String() string {
	if t == Block {
		return "block"
	}
	return "none"
}

// Result describes a hit block, or with Type None the last empty cell the
// ray crossed into.
type Result struct {
	Type  HitType
	Block store.BlockPos
	Face  face.Face
	Hit   mgl64.Vec3
}

type Blocks interface {
	BlockAt(x, y, z int) (uint8, bool)
}

type Shapes interface {
	Bounds(id uint8) (model.Cuboid, bool)
}

// Source is what a cast reads: occupancy plus per-id bounds.
type Source interface {
	Blocks
	Shapes
}

// Grid joins a block source with a shape source.
type Grid struct {
	Blocks
	Shapes
}

func hasNaN(v mgl64.Vec3) bool {
	return math.IsNaN(v[0]) || math.IsNaN(v[1]) || math.IsNaN(v[2])
}

func floor(v float64) int { return int(math.Floor(v)) }

// hit tests the segment against the block at p, if one is present.
func hit(src Source, p store.BlockPos, from, to mgl64.Vec3) (Result, bool, bool) {
	id, ok := src.BlockAt(p.X, p.Y, p.Z)
	if !ok {
		return Result{}, false, false
	}
	box, ok := src.Bounds(id)
	if !ok {
		box = model.UnitCube
	}
	off := mgl64.Vec3{float64(p.X), float64(p.Y), float64(p.Z)}
	lo := mgl64.Vec3{float64(box.Min[0]), float64(box.Min[1]), float64(box.Min[2])}
	hi := mgl64.Vec3{float64(box.Max[0]), float64(box.Max[1]), float64(box.Max[2])}
	v, f, ok := Intercept(lo, hi, from.Sub(off), to.Sub(off))
	if !ok {
		return Result{}, true, false
	}
	return Result{Type: Block, Block: p, Face: f, Hit: v.Add(off)}, true, true
}

// Cast walks from origin toward target one cell boundary at a time. The
// first occupied cell whose bounds the segment intersects is returned. When
// the ray reaches target or runs out of steps it reports no hit, unless
// includeLastEmpty is set, in which case the last empty cell entered is
// returned with Type None.
func Cast(src Source, origin, target mgl64.Vec3, includeLastEmpty bool) (Result, bool) {
	if hasNaN(origin) || hasNaN(target) {
		return Result{}, false
	}
	ex, ey, ez := floor(target[0]), floor(target[1]), floor(target[2])
	cur := store.BlockPos{X: floor(origin[0]), Y: floor(origin[1]), Z: floor(origin[2])}

	if r, _, ok := hit(src, cur, origin, target); ok {
		return r, true
	}

	var last Result
	haveLast := false
	pos := origin
	for step := 0; step <= MaxSteps; step++ {
		if hasNaN(pos) {
			return Result{}, false
		}
		if cur.X == ex && cur.Y == ey && cur.Z == ez {
			break
		}

		nx, ny, nz := 999.0, 999.0, 999.0
		mx, my, mz := true, true, true
		switch {
		case ex > cur.X:
			nx = float64(cur.X) + 1
		case ex < cur.X:
			nx = float64(cur.X)
		default:
			mx = false
		}
		switch {
		case ey > cur.Y:
			ny = float64(cur.Y) + 1
		case ey < cur.Y:
			ny = float64(cur.Y)
		default:
			my = false
		}
		switch {
		case ez > cur.Z:
			nz = float64(cur.Z) + 1
		case ez < cur.Z:
			nz = float64(cur.Z)
		default:
			mz = false
		}

		d := target.Sub(pos)
		tx, ty, tz := 999.0, 999.0, 999.0
		if mx {
			tx = (nx - pos[0]) / d[0]
		}
		if my {
			ty = (ny - pos[1]) / d[1]
		}
		if mz {
			tz = (nz - pos[2]) / d[2]
		}
		// -0 would win every comparison below without moving.
		if tx == 0 && math.Signbit(tx) {
			tx = -1e-4
		}
		if ty == 0 && math.Signbit(ty) {
			ty = -1e-4
		}
		if tz == 0 && math.Signbit(tz) {
			tz = -1e-4
		}

		var entered face.Face
		switch {
		case tx < ty && tx < tz:
			entered = face.Left
			if ex < cur.X {
				entered = face.Right
			}
			pos = mgl64.Vec3{nx, pos[1] + d[1]*tx, pos[2] + d[2]*tx}
		case ty < tz:
			entered = face.Bottom
			if ey < cur.Y {
				entered = face.Top
			}
			pos = mgl64.Vec3{pos[0] + d[0]*ty, ny, pos[2] + d[2]*ty}
		default:
			entered = face.Back
			if ez < cur.Z {
				entered = face.Front
			}
			pos = mgl64.Vec3{pos[0] + d[0]*tz, pos[1] + d[1]*tz, nz}
		}

		// A cell entered through its max face lies below the boundary.
		cur = store.BlockPos{X: floor(pos[0]), Y: floor(pos[1]), Z: floor(pos[2])}
		switch entered {
		case face.Right:
			cur.X--
		case face.Top:
			cur.Y--
		case face.Front:
			cur.Z--
		}

		r, present, ok := hit(src, cur, pos, target)
		if ok {
			return r, true
		}
		if !present {
			last = Result{Type: None, Block: cur, Face: entered, Hit: pos}
			haveLast = true
		}
	}
	if includeLastEmpty && haveLast {
		return last, true
	}
	return Result{}, false
}

// CastDir casts reach units along dir. A zero direction never hits.
func CastDir(src Source, origin, dir mgl64.Vec3, reach float64, includeLastEmpty bool) (Result, bool) {
	if dir.Len() == 0 || reach <= 0 {
		return Result{}, false
	}
	return Cast(src, origin, origin.Add(dir.Normalize().Mul(reach)), includeLastEmpty)
}

// Intercept clips segment a->b against the box [lo,hi] and returns the
// crossing point nearest a together with the box face it lies on.
func Intercept(lo, hi, a, b mgl64.Vec3) (mgl64.Vec3, face.Face, bool) {
	type cand struct {
		axis  int
		value float64
		f     face.Face
	}
	cands := [6]cand{
		{0, lo[0], face.Left},
		{0, hi[0], face.Right},
		{1, lo[1], face.Bottom},
		{1, hi[1], face.Top},
		{2, lo[2], face.Back},
		{2, hi[2], face.Front},
	}

	var best mgl64.Vec3
	var bestFace face.Face
	bestDist := math.Inf(1)
	for _, c := range cands {
		v, ok := onPlane(a, b, c.axis, c.value)
		if !ok || !within(v, lo, hi, c.axis) {
			continue
		}
		if dist := v.Sub(a).LenSqr(); dist < bestDist {
			best, bestFace, bestDist = v, c.f, dist
		}
	}
	if math.IsInf(bestDist, 1) {
		return mgl64.Vec3{}, 0, false
	}
	return best, bestFace, true
}

// onPlane returns the point of a->b where component axis equals value.
func onPlane(a, b mgl64.Vec3, axis int, value float64) (mgl64.Vec3, bool) {
	d := b[axis] - a[axis]
	if d*d < 1e-7 {
		return mgl64.Vec3{}, false
	}
	t := (value - a[axis]) / d
	if t < 0 || t > 1 {
		return mgl64.Vec3{}, false
	}
	return a.Add(b.Sub(a).Mul(t)), true
}

// within checks the two components other than skip against the box.
func within(v, lo, hi mgl64.Vec3, skip int) bool {
	for i := 0; i < 3; i++ {
		if i == skip {
			continue
		}
		if v[i] < lo[i] || v[i] > hi[i] {
			return false
		}
	}
	return true
}
