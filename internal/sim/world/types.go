package world

import (
	"voxelcore.dev/internal/sim/world/mesh"
	"voxelcore.dev/internal/sim/world/raycast"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

// EditEntry is one applied block change.
type EditEntry struct {
	Tick uint64 `json:"tick"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Z    int    `json:"z"`
	Old  uint8  `json:"old"`
	New  uint8  `json:"new"`
}

func (e EditEntry) Pos() store.BlockPos { return store.BlockPos{X: e.X, Y: e.Y, Z: e.Z} }

type EditLogger interface {
	WriteEdit(entry EditEntry) error
}

// MeshUpdate carries a rebuilt chunk mesh to subscribers. Mesh is never
// mutated after it is sent.
type MeshUpdate struct {
	Tick  uint64
	Chunk store.ChunkKey
	Mesh  *mesh.Buckets
}

// EditResult is the outcome of a queued SetBlock.
type EditResult struct {
	Tick    uint64
	Old     uint8
	Applied bool
	// Affected lists the chunks queued for rebuild by this edit.
	Affected []store.ChunkKey
}

type RaycastResult struct {
	Result raycast.Result
	Hit    bool
}
