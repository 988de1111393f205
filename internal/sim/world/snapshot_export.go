package world

import (
	"voxelcore.dev/internal/persistence/snapshot"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

// ExportSnapshot captures blocks and light of every loaded chunk.
func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	return snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Tick:    nowTick,
		},
		Seed:          w.cfg.Seed,
		TickRate:      w.cfg.TickRateHz,
		NoiseKind:     w.cfg.Noise.Kind,
		ChunkRange:    w.cfg.ChunkRange,
		PaletteDigest: w.blocks.PaletteDigest,
		Chunks:        store.ExportChunks(w.chunks, w.chunks.Keys()),
	}
}
