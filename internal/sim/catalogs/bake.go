package catalogs

import (
	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/kernel/model"
)

// Bake precomputes, for every element face of every model, the set of
// neighbour ids that fully hide it. A neighbour hides a face when it is
// opaque, or when it has an opaque face pointing back that lies on the shared
// boundary and covers the same rectangle. Only boundary faces can be hidden.
func (r *Registry) Bake() {
	for id := 1; id < len(r.models); id++ {
		b := r.models[id]
		if b == nil {
			continue
		}
		occ := make([][6]model.Occlusion, len(b.Elements))
		for ei := range b.Elements {
			e := &b.Elements[ei]
			for _, f := range face.All {
				if e.Faces[f] == nil || e.Rotation != nil || !e.Cube.Flush(f) {
					continue
				}
				fp := e.Cube.Footprint(f)
				for nid := 1; nid < len(r.models); nid++ {
					if r.hides(r.models[nid], f, fp) {
						occ[ei][f].Add(uint8(nid))
					}
				}
			}
		}
		b.SetOcclusion(occ)
	}
	r.baked = true
}

func (r *Registry) hides(n *model.Block, f face.Face, fp [4]float32) bool {
	if n == nil {
		return false
	}
	if n.IsOpaque() {
		return true
	}
	back := f.Opposite()
	for i := range n.Elements {
		e := &n.Elements[i]
		ef := e.Faces[back]
		if ef == nil || !ef.Opaque || e.Rotation != nil || !e.Cube.Flush(back) {
			continue
		}
		if covers(e.Cube.Footprint(back), fp) {
			return true
		}
	}
	return false
}

func covers(outer, inner [4]float32) bool {
	const eps = 1e-6
	return outer[0] <= inner[0]+eps && outer[1] <= inner[1]+eps &&
		outer[2] >= inner[2]-eps && outer[3] >= inner[3]-eps
}

// Occludes reports whether neighbour id hides face f of the given element.
// Falls back to a direct geometric check when the registry was not baked.
func (r *Registry) Occludes(id uint8, element int, f face.Face, neighbour uint8) bool {
	if neighbour == 0 {
		return false
	}
	b := r.models[id]
	if b == nil {
		return false
	}
	if r.baked {
		if occ := b.OccludedBy(element, f); occ != nil {
			return occ.Has(neighbour)
		}
		return false
	}
	if element < 0 || element >= len(b.Elements) {
		return false
	}
	e := &b.Elements[element]
	if e.Rotation != nil || !e.Cube.Flush(f) {
		return false
	}
	return r.hides(r.models[neighbour], f, e.Cube.Footprint(f))
}
