// Package face holds the six block face directions and the static unit-cube
// tables the mesher and light engine index into.
package face

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type Face uint8

const (
	Top Face = iota
	Bottom
	Left
	Right
	Front
	Back
)

// All lists faces in declaration order.
var All = [6]Face{Top, Bottom, Left, Right, Front, Back}

type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", uint8(a))
}

func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

var names = [6]string{"top", "bottom", "left", "right", "front", "back"}

func (f Face) String() string {
	if int(f) < len(names) {
		return names[f]
	}
	return fmt.Sprintf("face(%d)", uint8(f))
}

func (f Face) Valid() bool { return f <= Back }

func Parse(s string) (Face, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return Face(i), nil
		}
	}
	// Minecraft-style aliases.
	switch s {
	case "up":
		return Top, nil
	case "down":
		return Bottom, nil
	case "west":
		return Left, nil
	case "east":
		return Right, nil
	case "south":
		return Front, nil
	case "north":
		return Back, nil
	}
	return 0, fmt.Errorf("unknown face %q", s)
}

func (f Face) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid face %d", uint8(f))
	}
	return []byte(names[f]), nil
}

func (f *Face) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

var normals = [6][3]int{
	Top:    {0, 1, 0},
	Bottom: {0, -1, 0},
	Left:   {-1, 0, 0},
	Right:  {1, 0, 0},
	Front:  {0, 0, 1},
	Back:   {0, 0, -1},
}

// Normal is the integer offset to the neighbouring cell across this face.
func (f Face) Normal() [3]int { return normals[f] }

func (f Face) NormalVec() mgl32.Vec3 {
	n := normals[f]
	return mgl32.Vec3{float32(n[0]), float32(n[1]), float32(n[2])}
}

func (f Face) Opposite() Face {
	switch f {
	case Top:
		return Bottom
	case Bottom:
		return Top
	case Left:
		return Right
	case Right:
		return Left
	case Front:
		return Back
	default:
		return Front
	}
}

func (f Face) Axis() Axis {
	switch f {
	case Left, Right:
		return AxisX
	case Top, Bottom:
		return AxisY
	default:
		return AxisZ
	}
}

// Positive reports whether the normal points along +axis.
func (f Face) Positive() bool {
	return f == Top || f == Right || f == Front
}

// FromAxis returns the face whose normal is +axis or -axis.
func FromAxis(a Axis, positive bool) Face {
	switch a {
	case AxisX:
		if positive {
			return Right
		}
		return Left
	case AxisY:
		if positive {
			return Top
		}
		return Bottom
	default:
		if positive {
			return Front
		}
		return Back
	}
}

// Index is the renderer's normal-table slot: Left, Right, Bottom, Top, Front, Back.
func (f Face) Index() int {
	switch f {
	case Left:
		return 0
	case Right:
		return 1
	case Bottom:
		return 2
	case Top:
		return 3
	case Front:
		return 4
	default:
		return 5
	}
}

// Shade is the fixed directional brightness applied on top of AO and light.
func (f Face) Shade() float32 {
	switch f {
	case Top:
		return 1.0
	case Bottom:
		return 0.5
	case Left, Right:
		return 0.6
	default:
		return 0.8
	}
}
