package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelcore.dev/internal/sim/world/kernel/face"
)

// MinStep is the smallest sub-step tried when a move is blocked.
const MinStep = 0.001

// Body is a player-shaped box hanging below Position.
type Body struct {
	Position  mgl32.Vec3
	Velocity  mgl32.Vec3
	HalfWidth float32
	Height    float32
	OnGround  bool

	Gravity      float32
	JumpVelocity float32
}

func (b *Body) Box() AABB { return Feet(b.Position, b.HalfWidth, b.Height) }

func (b *Body) boxAt(pos mgl32.Vec3) AABB { return Feet(pos, b.HalfWidth, b.Height) }

// moveOrder resolves vertical motion first so landing is settled before
// sliding along walls.
var moveOrder = [3]face.Axis{face.AxisY, face.AxisX, face.AxisZ}

// MoveAndCollide applies delta one axis at a time. A blocked axis is retried
// with halving steps down to MinStep; the largest free step is kept and the
// velocity on that axis is zeroed. It returns the movement actually applied.
func MoveAndCollide(q Blocks, b *Body, delta mgl32.Vec3) mgl32.Vec3 {
	var moved mgl32.Vec3
	for _, axis := range moveOrder {
		d := delta[axis]
		if d == 0 {
			continue
		}
		test := b.Position
		test[axis] += d
		if !Collides(q, b.boxAt(test)) {
			b.Position = test
			moved[axis] = d
			if axis == face.AxisY {
				b.OnGround = false
			}
			continue
		}

		if axis == face.AxisY && d < 0 {
			b.OnGround = true
		}
		dir := float32(1)
		if d < 0 {
			dir = -1
		}
		for step := abs32(d) / 2; step > MinStep; step /= 2 {
			test[axis] = b.Position[axis] + dir*step
			if !Collides(q, b.boxAt(test)) {
				b.Position = test
				moved[axis] = dir * step
				break
			}
		}
		b.Velocity[axis] = 0
	}
	return moved
}

// Step integrates one physics tick: gravity while airborne, an optional jump
// from the ground, then a collision-resolved move.
func (b *Body) Step(q Blocks, dt float32, jump bool) mgl32.Vec3 {
	if b.OnGround && !Collides(q, b.Box().Offset(mgl32.Vec3{0, -2 * MinStep, 0})) {
		b.OnGround = false
	}
	if !b.OnGround {
		b.Velocity[1] -= b.Gravity * dt
	} else if b.Velocity[1] < 0 {
		b.Velocity[1] = 0
	}
	if jump && b.OnGround {
		b.Velocity[1] = b.JumpVelocity
	}
	return MoveAndCollide(q, b, b.Velocity.Mul(dt))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
