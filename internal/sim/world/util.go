package world

import (
	"sort"

	"voxelcore.dev/internal/sim/world/terrain/store"
)

func sortChunkKeys(keys []store.ChunkKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
}
