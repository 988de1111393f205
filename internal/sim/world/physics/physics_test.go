package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

type grid map[[3]int]uint8

func (g grid) BlockAt(x, y, z int) (uint8, bool) {
	id, ok := g[[3]int{x, y, z}]
	return id, ok && id != 0
}

func flatWorld(t *testing.T, top int) *store.ChunkManager {
	t.Helper()
	m := store.NewRange(-1, 1, -1, 1)
	for _, ch := range m.All() {
		for y := 0; y < top; y++ {
			for z := 0; z < store.ChunkSize; z++ {
				for x := 0; x < store.ChunkSize; x++ {
					ch.SetLocal(store.LocalPos{X: x, Y: y, Z: z}, store.Dirt)
				}
			}
		}
	}
	return m
}

func box(x0, y0, z0, x1, y1, z1 float32) AABB {
	return AABB{Min: mgl32.Vec3{x0, y0, z0}, Max: mgl32.Vec3{x1, y1, z1}}
}

func TestIntersectsAxisIsOpen(t *testing.T) {
	a := box(0, 0, 0, 1, 1, 1)
	assert.True(t, a.IntersectsAxis(box(5, 0.5, 0.5, 6, 1.5, 1.5), face.AxisX))
	assert.False(t, a.IntersectsAxis(box(5, 1, 0.5, 6, 2, 1.5), face.AxisX), "touching on y")
	assert.False(t, a.Intersects(box(1, 0, 0, 2, 1, 1)), "shared face")
	assert.True(t, a.Intersects(box(0.99, 0, 0, 2, 1, 1)))
}

func TestClipAxis(t *testing.T) {
	a := box(0, 0, 0, 1, 1, 1)
	wall := box(1.5, 0, 0, 2.5, 1, 1)

	assert.InDelta(t, 0.5, a.ClipAxis(wall, 2, face.AxisX), 1e-6)
	assert.InDelta(t, 0.3, a.ClipAxis(wall, 0.3, face.AxisX), 1e-6)
	assert.InDelta(t, -2, a.ClipAxis(wall, -2, face.AxisX), 1e-6, "moving away")

	behind := box(-3, 0, 0, -1, 1, 1)
	assert.InDelta(t, -1, a.ClipAxis(behind, -4, face.AxisX), 1e-6)

	above := box(1.5, 1, 0, 2.5, 2, 1)
	assert.InDelta(t, 2, a.ClipAxis(above, 2, face.AxisX), 1e-6, "no overlap on y")
}

func TestCollisionContainment(t *testing.T) {
	g := grid{{0, 0, 0}: store.Dirt, {2, 0, 0}: store.Dirt}

	assert.True(t, Collides(g, box(0.2, 0.2, 0.2, 0.8, 0.8, 0.8)))
	assert.True(t, Collides(g, box(0, 0, 0, 1, 1, 1)))
	assert.False(t, Collides(g, box(1, 0, 0, 2, 1, 1)), "gap cell touching both neighbours")
	assert.False(t, Collides(g, box(1.1, 0.1, 0.1, 1.9, 0.9, 0.9)))
	assert.True(t, Collides(g, box(1.1, 0.1, 0.1, 2.01, 0.9, 0.9)))
	assert.False(t, Collides(grid{}, box(-5, -5, -5, 5, 5, 5)))
}

func TestFindCollidersClassifiesSides(t *testing.T) {
	m := flatWorld(t, 8)
	// Feet sunk slightly into the ground.
	c := FindColliders(m, Feet(mgl32.Vec3{0.5, 9.9, 0.5}, 0.3, 2))
	_, ok := c.On(face.Bottom)
	assert.True(t, ok)
	_, ok = c.On(face.Left)
	assert.False(t, ok)

	g := grid{{3, 5, 0}: store.Dirt}
	c = FindColliders(g, box(2.1, 5.1, 0.1, 3.2, 5.9, 0.9))
	p, ok := c.On(face.Right)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{3, 5, 0}, p)
	assert.True(t, c.Any())
}

func TestMoveAndCollideLandsOnGround(t *testing.T) {
	m := flatWorld(t, 8)
	b := &Body{Position: mgl32.Vec3{0.5, 12, 0.5}, Velocity: mgl32.Vec3{0, -10, 0}, HalfWidth: 0.3, Height: 2}

	moved := MoveAndCollide(m, b, mgl32.Vec3{0, -5, 0})
	assert.Less(t, moved[1], float32(0))
	assert.Greater(t, moved[1], float32(-4))
	assert.True(t, b.OnGround)
	assert.Zero(t, b.Velocity[1])
	assert.GreaterOrEqual(t, b.Box().Min[1], float32(8))
	assert.False(t, Collides(m, b.Box()))
}

func TestStepSettlesOnGround(t *testing.T) {
	m := flatWorld(t, 8)
	b := &Body{Position: mgl32.Vec3{3.5, 14, -2.5}, HalfWidth: 0.3, Height: 1.8, Gravity: 14.7, JumpVelocity: 5}
	for i := 0; i < 300; i++ {
		b.Step(m, 1.0/60, false)
	}
	assert.True(t, b.OnGround)
	assert.InDelta(t, 8, b.Box().Min[1], 0.01)
	assert.False(t, Collides(m, b.Box()))
}

func TestStepJumpLeavesGround(t *testing.T) {
	m := flatWorld(t, 8)
	b := &Body{Position: mgl32.Vec3{0.5, 10, 0.5}, HalfWidth: 0.3, Height: 2, Gravity: 14.7, JumpVelocity: 5, OnGround: true}
	before := b.Position[1]
	b.Step(m, 1.0/60, true)
	assert.False(t, b.OnGround)
	assert.Greater(t, b.Position[1], before)
	assert.InDelta(t, 5, b.Velocity[1], 1e-4)
}

func TestStepWalksOffLedge(t *testing.T) {
	g := grid{{0, 7, 0}: store.Dirt}
	b := &Body{Position: mgl32.Vec3{0.5, 10, 0.5}, HalfWidth: 0.3, Height: 2, Gravity: 14.7, OnGround: true}
	b.Step(g, 1.0/60, false)
	assert.True(t, b.OnGround)

	delete(g, [3]int{0, 7, 0})
	b.Step(g, 1.0/60, false)
	assert.False(t, b.OnGround)
	assert.Less(t, b.Position[1], float32(10))
}

func TestWallStopsHorizontalMove(t *testing.T) {
	m := flatWorld(t, 8)
	for y := 8; y < 12; y++ {
		m.SetBlock(mgl32.Vec3{3, float32(y), 0}, store.Dirt)
	}
	b := &Body{Position: mgl32.Vec3{1.5, 10, 0.5}, Velocity: mgl32.Vec3{6, 0, 0}, HalfWidth: 0.3, Height: 2, OnGround: true}
	MoveAndCollide(m, b, mgl32.Vec3{1.5, 0, 0})

	assert.LessOrEqual(t, b.Box().Max[0], float32(3))
	assert.Greater(t, b.Position[0], float32(1.5))
	assert.Zero(t, b.Velocity[0])
	assert.True(t, b.OnGround, "horizontal moves keep ground contact")
}
