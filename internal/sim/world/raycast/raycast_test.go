package raycast

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/kernel/model"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

const (
	stone uint8 = 1
	slab  uint8 = 2
)

type world struct {
	cells  map[store.BlockPos]uint8
	shapes map[uint8]model.Cuboid
}

func newWorld() *world {
	return &world{
		cells: map[store.BlockPos]uint8{},
		shapes: map[uint8]model.Cuboid{
			stone: model.UnitCube,
			slab:  {Max: mgl32.Vec3{1, 0.5, 1}},
		},
	}
}

func (w *world) put(x, y, z int, id uint8) { w.cells[store.BlockPos{X: x, Y: y, Z: z}] = id }

func (w *world) BlockAt(x, y, z int) (uint8, bool) {
	id, ok := w.cells[store.BlockPos{X: x, Y: y, Z: z}]
	return id, ok
}

func (w *world) Bounds(id uint8) (model.Cuboid, bool) {
	c, ok := w.shapes[id]
	return c, ok
}

func TestCastStraightDownHitsTop(t *testing.T) {
	w := newWorld()
	w.put(0, 5, 0, stone)

	r, ok := CastDir(w, mgl64.Vec3{0.5, 10.5, 0.5}, mgl64.Vec3{0, -1, 0}, 20, false)
	require.True(t, ok)
	assert.Equal(t, Block, r.Type)
	assert.Equal(t, store.BlockPos{X: 0, Y: 5, Z: 0}, r.Block)
	assert.Equal(t, face.Top, r.Face)
	assert.InDelta(t, 6.0, r.Hit[1], 1e-9)
	assert.InDelta(t, 0.5, r.Hit[0], 1e-9)
}

func TestCastRejectsNaN(t *testing.T) {
	w := newWorld()
	w.put(0, 0, 0, stone)
	_, ok := Cast(w, mgl64.Vec3{math.NaN(), 0, 0}, mgl64.Vec3{0, 0, 0}, true)
	assert.False(t, ok)
	_, ok = Cast(w, mgl64.Vec3{5, 5, 5}, mgl64.Vec3{0, math.NaN(), 0}, true)
	assert.False(t, ok)
}

func TestCastMissAndLastEmpty(t *testing.T) {
	w := newWorld()
	origin, target := mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{3.5, 0.5, 0.5}

	_, ok := Cast(w, origin, target, false)
	assert.False(t, ok)

	r, ok := Cast(w, origin, target, true)
	require.True(t, ok)
	assert.Equal(t, None, r.Type)
	assert.Equal(t, store.BlockPos{X: 3, Y: 0, Z: 0}, r.Block)
	assert.Equal(t, face.Left, r.Face)
	assert.InDelta(t, 3.0, r.Hit[0], 1e-9)
}

func TestCastNegativeAxes(t *testing.T) {
	w := newWorld()
	w.put(-3, 0, 0, stone)
	w.put(0, 0, -4, stone)

	r, ok := Cast(w, mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{-5.5, 0.5, 0.5}, false)
	require.True(t, ok)
	assert.Equal(t, store.BlockPos{X: -3}, r.Block)
	assert.Equal(t, face.Right, r.Face)
	assert.InDelta(t, -2.0, r.Hit[0], 1e-9)

	r, ok = Cast(w, mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0.5, 0.5, -8.5}, false)
	require.True(t, ok)
	assert.Equal(t, store.BlockPos{Z: -4}, r.Block)
	assert.Equal(t, face.Front, r.Face)
	assert.InDelta(t, -3.0, r.Hit[2], 1e-9)
}

func TestCastPositiveZEntersBack(t *testing.T) {
	w := newWorld()
	w.put(0, 0, 2, stone)
	r, ok := Cast(w, mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0.5, 0.5, 6}, false)
	require.True(t, ok)
	assert.Equal(t, face.Back, r.Face)
	assert.InDelta(t, 2.0, r.Hit[2], 1e-9)
}

func TestCastUsesModelBounds(t *testing.T) {
	w := newWorld()
	w.put(2, 0, 0, slab)

	_, ok := Cast(w, mgl64.Vec3{0.5, 0.75, 0.5}, mgl64.Vec3{5.5, 0.75, 0.5}, false)
	assert.False(t, ok, "ray passes over the slab")

	r, ok := Cast(w, mgl64.Vec3{0.5, 0.25, 0.5}, mgl64.Vec3{5.5, 0.25, 0.5}, false)
	require.True(t, ok)
	assert.Equal(t, face.Left, r.Face)
	assert.InDelta(t, 2.0, r.Hit[0], 1e-9)

	r, ok = Cast(w, mgl64.Vec3{2.5, 3.5, 0.5}, mgl64.Vec3{2.5, -1.5, 0.5}, false)
	require.True(t, ok)
	assert.Equal(t, face.Top, r.Face)
	assert.InDelta(t, 0.5, r.Hit[1], 1e-9, "hit the slab top, not the cell boundary")
}

func TestCastUnknownShapeIsUnitCube(t *testing.T) {
	w := newWorld()
	w.put(0, 3, 0, 99)
	r, ok := Cast(w, mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0.5, 8.5, 0.5}, false)
	require.True(t, ok)
	assert.Equal(t, face.Bottom, r.Face)
	assert.InDelta(t, 3.0, r.Hit[1], 1e-9)
}

func TestCastFromInsideBlock(t *testing.T) {
	w := newWorld()
	w.put(0, 0, 0, stone)
	r, ok := Cast(w, mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0.5, 5.5, 0.5}, false)
	require.True(t, ok)
	assert.Equal(t, store.BlockPos{}, r.Block)
	assert.Equal(t, face.Top, r.Face)
}

func TestCastDiagonal(t *testing.T) {
	w := newWorld()
	w.put(2, 2, 0, stone)
	r, ok := CastDir(w, mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{1, 1, 0}, 10, false)
	require.True(t, ok)
	assert.Equal(t, store.BlockPos{X: 2, Y: 2}, r.Block)
	assert.Contains(t, []face.Face{face.Left, face.Bottom}, r.Face)
}

func TestCastStepBound(t *testing.T) {
	w := newWorld()
	w.put(300, 0, 0, stone)
	_, ok := Cast(w, mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{400.5, 0.5, 0.5}, false)
	assert.False(t, ok, "block lies past the step budget")
}

func TestCastDirDegenerate(t *testing.T) {
	w := newWorld()
	_, ok := CastDir(w, mgl64.Vec3{}, mgl64.Vec3{}, 5, true)
	assert.False(t, ok)
	_, ok = CastDir(w, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, 0, true)
	assert.False(t, ok)
}

func TestIntercept(t *testing.T) {
	lo, hi := mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}

	v, f, ok := Intercept(lo, hi, mgl64.Vec3{-1, 0.5, 0.5}, mgl64.Vec3{2, 0.5, 0.5})
	require.True(t, ok)
	assert.Equal(t, face.Left, f)
	assert.InDelta(t, 0.0, v[0], 1e-9)

	_, f, ok = Intercept(lo, hi, mgl64.Vec3{0.5, 0.5, 3}, mgl64.Vec3{0.5, 0.5, -3})
	require.True(t, ok)
	assert.Equal(t, face.Front, f)

	_, _, ok = Intercept(lo, hi, mgl64.Vec3{-1, 2, 0.5}, mgl64.Vec3{2, 2, 0.5})
	assert.False(t, ok, "passes above")

	_, _, ok = Intercept(lo, hi, mgl64.Vec3{-3, 0.5, 0.5}, mgl64.Vec3{-2, 0.5, 0.5})
	assert.False(t, ok, "segment ends before the box")
}

func TestGridJoinsSources(t *testing.T) {
	w := newWorld()
	w.put(0, 1, 0, slab)
	g := Grid{Blocks: w, Shapes: w}
	r, ok := Cast(g, mgl64.Vec3{0.5, 4.5, 0.5}, mgl64.Vec3{0.5, 0.2, 0.5}, false)
	require.True(t, ok)
	assert.InDelta(t, 1.5, r.Hit[1], 1e-9)
}
