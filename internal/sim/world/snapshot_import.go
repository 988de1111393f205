package world

import (
	"fmt"

	"voxelcore.dev/internal/persistence/snapshot"
	"voxelcore.dev/internal/sim/world/light"
	"voxelcore.dev/internal/sim/world/mesh"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

// ImportSnapshot replaces the chunk set with the snapshot's and sets the
// tick to the one after it. Chunks stored without light are relit when
// lighting is enabled.
//
// This must be called only when the world is stopped or from the world loop goroutine.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("%w: %d", snapshot.ErrVersion, s.Header.Version)
	}
	if s.PaletteDigest != "" && w.blocks.PaletteDigest != "" && s.PaletteDigest != w.blocks.PaletteDigest {
		return fmt.Errorf("snapshot palette digest mismatch: snapshot=%s catalogs=%s", s.PaletteDigest, w.blocks.PaletteDigest)
	}
	chunks, err := store.ImportChunks(s.Chunks)
	if err != nil {
		return err
	}
	if chunks.Len() == 0 {
		return fmt.Errorf("snapshot has no chunks")
	}

	unlit := false
	for _, rec := range s.Chunks {
		if len(rec.Light) == 0 {
			unlit = true
			break
		}
	}

	w.chunks = chunks
	w.light = light.NewEngine(chunks, w.blocks)
	ao := w.mesher.AO
	w.mesher = mesh.New(chunks, w.blocks)
	w.mesher.AO = ao
	if lo, hi, ok := chunks.Bounds(); ok {
		w.cfg.ChunkRange = [4]int{lo.CX, hi.CX + 1, lo.CZ, hi.CZ + 1}
	}
	if s.Seed != 0 {
		w.cfg.Seed = s.Seed
	}
	clear(w.dirty)
	clear(w.meshes)
	w.markAllDirty()
	w.tick.Store(s.Header.Tick + 1)

	if unlit && w.cfg.LightEnabled {
		w.Relight()
	}
	return nil
}
