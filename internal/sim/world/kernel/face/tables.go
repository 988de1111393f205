package face

import "github.com/go-gl/mathgl/mgl32"

// Vertices is the unit cube corner table every face selects from.
var Vertices = [8]mgl32.Vec3{
	{0, 0, 1},
	{1, 0, 1},
	{0, 1, 1},
	{1, 1, 1},
	{0, 0, 0},
	{1, 0, 0},
	{0, 1, 0},
	{1, 1, 0},
}

var corners = [6][4]int{
	Top:    {2, 6, 7, 3},
	Bottom: {1, 5, 4, 0},
	Left:   {4, 6, 2, 0},
	Right:  {1, 3, 7, 5},
	Front:  {1, 3, 2, 0},
	Back:   {5, 7, 6, 4},
}

var uvs = [6][4]mgl32.Vec2{
	Top:    {{0, 0}, {1, 0}, {1, 1}, {0, 1}},
	Bottom: {{0, 1}, {1, 1}, {1, 0}, {0, 0}},
	Left:   {{0, 1}, {0, 0}, {1, 0}, {1, 1}},
	Right:  {{0, 1}, {0, 0}, {1, 0}, {1, 1}},
	Front:  {{0, 1}, {0, 0}, {1, 0}, {1, 1}},
	Back:   {{0, 1}, {0, 0}, {1, 0}, {1, 1}},
}

// Corners returns indices into Vertices in winding order.
func (f Face) Corners() [4]int { return corners[f] }

func (f Face) Vertices() [4]mgl32.Vec3 {
	c := corners[f]
	return [4]mgl32.Vec3{Vertices[c[0]], Vertices[c[1]], Vertices[c[2]], Vertices[c[3]]}
}

func (f Face) UVs() [4]mgl32.Vec2 { return uvs[f] }

// Indices triangulates a quad as two triangles.
var Indices = [6]int{0, 1, 2, 2, 3, 0}

// CornerNeighbours returns, for corner i of the face, the offsets of the two
// edge-adjacent cells and the diagonal cell in the layer beyond the face.
// Order is side1, side2, corner.
func (f Face) CornerNeighbours(i int) [3][3]int {
	v := Vertices[corners[f][i]]
	n := normals[f]
	axis := int(f.Axis())

	var d [3]int
	for k := 0; k < 3; k++ {
		if v[k] > 0 {
			d[k] = 1
		} else {
			d[k] = -1
		}
	}
	t1, t2 := (axis+1)%3, (axis+2)%3

	side1, side2, corner := n, n, n
	side1[t1] += d[t1]
	side2[t2] += d[t2]
	corner[t1] += d[t1]
	corner[t2] += d[t2]
	return [3][3]int{side1, side2, corner}
}
