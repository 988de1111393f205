package world

import (
	"voxelcore.dev/internal/sim/world/mesh"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

// ComputeChunkMesh builds a fresh mesh for one loaded chunk. It does not
// touch the cache or the dirty set.
func (w *World) ComputeChunkMesh(k store.ChunkKey) (*mesh.Buckets, bool) {
	ch, ok := w.chunks.GetChunk(k)
	if !ok {
		return nil, false
	}
	return w.mesher.ChunkMesh(ch), true
}

// ComputeWorldMesh rebuilds every loaded chunk in key order and replaces the
// cache. The dirty set is cleared.
func (w *World) ComputeWorldMesh() []*mesh.Buckets {
	out := w.mesher.WorldMesh()
	clear(w.meshes)
	for _, b := range out {
		w.meshes[b.Key] = b
	}
	clear(w.dirty)
	w.prom.observeMesh(len(out), w.totalQuads())
	return out
}

// RebuildDirty re-meshes every dirty chunk in key order, refreshes the cache
// and clears the dirty set.
func (w *World) RebuildDirty() []*mesh.Buckets {
	if len(w.dirty) == 0 {
		return nil
	}
	keys := w.DirtyChunks()
	out := make([]*mesh.Buckets, 0, len(keys))
	for _, k := range keys {
		b, ok := w.ComputeChunkMesh(k)
		if !ok {
			continue
		}
		w.meshes[k] = b
		out = append(out, b)
	}
	clear(w.dirty)
	w.prom.observeMesh(len(out), w.totalQuads())
	return out
}

// CachedMeshes returns the last built mesh of every chunk, in key order.
// Chunks never meshed are skipped.
func (w *World) CachedMeshes() []*mesh.Buckets {
	keys := make([]store.ChunkKey, 0, len(w.meshes))
	for k := range w.meshes {
		keys = append(keys, k)
	}
	sortChunkKeys(keys)
	out := make([]*mesh.Buckets, 0, len(keys))
	for _, k := range keys {
		out = append(out, w.meshes[k])
	}
	return out
}

func (w *World) totalQuads() int {
	n := 0
	for _, b := range w.meshes {
		n += b.Quads()
	}
	return n
}
