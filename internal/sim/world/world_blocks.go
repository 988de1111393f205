package world

import (
	"voxelcore.dev/internal/sim/world/terrain/store"
)

// GetBlock returns the id at p; ok is false for air and for cells outside
// the loaded world.
func (w *World) GetBlock(p store.BlockPos) (uint8, bool) {
	return w.chunks.BlockAt(p.X, p.Y, p.Z)
}

func (w *World) ContainsBlock(p store.BlockPos) bool {
	_, ok := w.GetBlock(p)
	return ok
}

// GetLight returns packed sky<<4|block light, store.UnloadedLight outside
// the loaded world.
func (w *World) GetLight(p store.BlockPos) uint8 {
	return w.chunks.LightAt(p)
}

// AffectedChunks lists the loaded chunks whose mesh depends on the block at
// p: its own chunk, plus the neighbour across any chunk boundary the block
// sits on.
func (w *World) AffectedChunks(p store.BlockPos) []store.ChunkKey {
	lp := store.LocalOf(p)
	if !lp.Valid() {
		return nil
	}
	var out []store.ChunkKey
	for _, k := range store.AffectedKeys(store.KeyOfBlock(p), lp) {
		if _, ok := w.chunks.GetChunk(k); ok {
			out = append(out, k)
		}
	}
	return out
}

// SetBlock writes id at p, repairs light around the edit and queues the
// affected chunks for rebuild. ok is false when p is outside the loaded
// world. Writing the id already present is a no-op.
func (w *World) SetBlock(p store.BlockPos, id uint8) (old uint8, ok bool) {
	k := store.KeyOfBlock(p)
	ch, ok := w.chunks.GetChunk(k)
	if !ok {
		return store.Air, false
	}
	lp := store.LocalOf(p)
	if !lp.Valid() {
		return store.Air, false
	}
	old, _ = ch.GetBlockUnchecked(lp)
	if old == id {
		return old, true
	}

	ch.SetLocal(lp, id)
	w.markDirty(w.AffectedChunks(p)...)

	if w.cfg.LightEnabled {
		// Light must settle before the mesher reads it.
		w.light.ResetTouched()
		w.light.Remove(p)
		w.light.Refill(p)
		w.markDirty(w.light.Touched()...)
		w.prom.observeLight(w.light.Visited())
	}

	w.recordEdit(EditEntry{Tick: w.tick.Load(), X: p.X, Y: p.Y, Z: p.Z, Old: old, New: id})
	return old, true
}

func (w *World) recordEdit(e EditEntry) {
	w.prom.observeEdit()
	if w.editLogger == nil {
		return
	}
	if err := w.editLogger.WriteEdit(e); err != nil {
		w.logger.Printf("world %s: edit log: %v", w.cfg.ID, err)
	}
}
