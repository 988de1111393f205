package face

import (
	"encoding/json"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCornerTablesExact(t *testing.T) {
	want := map[Face][4]int{
		Top:    {2, 6, 7, 3},
		Bottom: {1, 5, 4, 0},
		Left:   {4, 6, 2, 0},
		Right:  {1, 3, 7, 5},
		Front:  {1, 3, 2, 0},
		Back:   {5, 7, 6, 4},
	}
	for f, c := range want {
		if got := f.Corners(); got != c {
			t.Fatalf("%s corners: got %v want %v", f, got, c)
		}
	}
	if Vertices[3] != (mgl32.Vec3{1, 1, 1}) || Vertices[4] != (mgl32.Vec3{0, 0, 0}) {
		t.Fatalf("unexpected unit cube table: %v", Vertices)
	}
}

func TestFaceVerticesLieOnFacePlane(t *testing.T) {
	for _, f := range All {
		n := f.Normal()
		axis := int(f.Axis())
		want := float32(0)
		if n[axis] > 0 {
			want = 1
		}
		for _, v := range f.Vertices() {
			if v[axis] != want {
				t.Fatalf("%s vertex %v not on plane %s=%v", f, v, f.Axis(), want)
			}
		}
	}
}

func TestUVTables(t *testing.T) {
	if got := Top.UVs(); got != [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
		t.Fatalf("top uvs: %v", got)
	}
	if got := Bottom.UVs(); got != [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}} {
		t.Fatalf("bottom uvs: %v", got)
	}
	side := [4]mgl32.Vec2{{0, 1}, {0, 0}, {1, 0}, {1, 1}}
	for _, f := range []Face{Left, Right, Front, Back} {
		if f.UVs() != side {
			t.Fatalf("%s uvs: %v", f, f.UVs())
		}
	}
}

func TestNormalsAndOpposites(t *testing.T) {
	for _, f := range All {
		o := f.Opposite()
		if o.Opposite() != f {
			t.Fatalf("opposite of opposite %s = %s", f, o.Opposite())
		}
		n, on := f.Normal(), o.Normal()
		for k := 0; k < 3; k++ {
			if n[k] != -on[k] {
				t.Fatalf("%s and %s normals are not opposed", f, o)
			}
		}
		if FromAxis(f.Axis(), f.Positive()) != f {
			t.Fatalf("FromAxis round trip failed for %s", f)
		}
	}
	if Right.NormalVec() != (mgl32.Vec3{1, 0, 0}) || Back.NormalVec() != (mgl32.Vec3{0, 0, -1}) {
		t.Fatalf("unexpected normal vectors")
	}
}

func TestNormalIndexOrder(t *testing.T) {
	order := []Face{Left, Right, Bottom, Top, Front, Back}
	for i, f := range order {
		if f.Index() != i {
			t.Fatalf("%s index %d want %d", f, f.Index(), i)
		}
	}
}

func TestCornerNeighboursTopFace(t *testing.T) {
	// Top corner 2 of the top face is vertex 7 = (1,1,0).
	got := Top.CornerNeighbours(2)
	want := [3][3]int{{0, 1, -1}, {1, 1, 0}, {1, 1, -1}}
	if got != want {
		t.Fatalf("top corner neighbours: got %v want %v", got, want)
	}
}

func TestCornerNeighboursStayBeyondFace(t *testing.T) {
	for _, f := range All {
		n := f.Normal()
		axis := int(f.Axis())
		for i := 0; i < 4; i++ {
			for _, off := range f.CornerNeighbours(i) {
				if off[axis] != n[axis] {
					t.Fatalf("%s corner %d offset %v leaves the face layer", f, i, off)
				}
			}
		}
	}
}

func TestFaceJSON(t *testing.T) {
	var m map[Face]int
	if err := json.Unmarshal([]byte(`{"top":1,"north":2}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m[Top] != 1 || m[Back] != 2 {
		t.Fatalf("unexpected decode: %v", m)
	}
	b, err := json.Marshal(Front)
	if err != nil || string(b) != `"front"` {
		t.Fatalf("marshal: %s %v", b, err)
	}
	if _, err := Parse("sideways"); err == nil {
		t.Fatalf("expected parse error")
	}
}
