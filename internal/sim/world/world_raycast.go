package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"voxelcore.dev/internal/sim/world/raycast"
)

func (w *World) grid() raycast.Grid {
	return raycast.Grid{Blocks: w.chunks, Shapes: w.blocks}
}

// Raycast casts Reach units from origin along dir against loaded blocks.
func (w *World) Raycast(origin, dir mgl64.Vec3, includeLastEmpty bool) (raycast.Result, bool) {
	return raycast.CastDir(w.grid(), origin, dir, w.cfg.Reach, includeLastEmpty)
}

// RaycastTo casts the segment origin->target.
func (w *World) RaycastTo(origin, target mgl64.Vec3, includeLastEmpty bool) (raycast.Result, bool) {
	return raycast.Cast(w.grid(), origin, target, includeLastEmpty)
}
