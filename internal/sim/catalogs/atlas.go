package catalogs

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore.dev/internal/sim/world/kernel/model"
)

// Atlas resolves texture names to rectangles in normalized atlas space.
type Atlas interface {
	UV(name string) (model.UVRect, bool)
}

// GridAtlas places each texture in its own cell of a square grid, in
// name order. It stands in for a packed atlas when no renderer supplies one.
type GridAtlas struct {
	Names []string
	Cols  int
	cells map[string]model.UVRect
}

func NewGridAtlas(names []string) *GridAtlas {
	uniq := map[string]bool{}
	for _, n := range names {
		uniq[n] = true
	}
	sorted := make([]string, 0, len(uniq))
	for n := range uniq {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	cols := int(math.Ceil(math.Sqrt(float64(len(sorted)))))
	if cols == 0 {
		cols = 1
	}
	a := &GridAtlas{Names: sorted, Cols: cols, cells: make(map[string]model.UVRect, len(sorted))}
	step := 1 / float32(cols)
	for i, n := range sorted {
		a.cells[n] = model.UVRect{
			Offset: mgl32.Vec2{float32(i%cols) * step, float32(i/cols) * step},
			Scale:  mgl32.Vec2{step, step},
		}
	}
	return a
}

func (a *GridAtlas) UV(name string) (model.UVRect, bool) {
	r, ok := a.cells[name]
	return r, ok
}
