package store

import (
	"fmt"

	snapv1 "voxelcore.dev/internal/persistence/snapshot"
)

const cellsPerChunk = ChunkSize * ChunkSize * Height

// ExportChunks flattens chunks into snapshot records in y, z, x order.
func ExportChunks(m *ChunkManager, keys []ChunkKey) []snapv1.ChunkV1 {
	out := make([]snapv1.ChunkV1, 0, len(keys))
	for _, k := range keys {
		ch := m.Chunks[k]
		if ch == nil {
			continue
		}
		blocks := make([]byte, 0, cellsPerChunk)
		light := make([]byte, 0, cellsPerChunk)
		for i := range ch.Subs {
			s := &ch.Subs[i]
			for y := 0; y < ChunkSize; y++ {
				for z := 0; z < ChunkSize; z++ {
					blocks = append(blocks, s.Blocks[y][z][:]...)
					for x := 0; x < ChunkSize; x++ {
						light = append(light, s.Sky[y][z][x]<<4|s.Glow[y][z][x])
					}
				}
			}
		}
		out = append(out, snapv1.ChunkV1{
			CX:     k.CX,
			CZ:     k.CZ,
			Height: Height,
			Blocks: blocks,
			Light:  light,
		})
	}
	return out
}

// ImportChunks rebuilds a chunk manager from snapshot records.
func ImportChunks(chunks []snapv1.ChunkV1) (*ChunkManager, error) {
	m := NewChunkManager()
	for _, rec := range chunks {
		if rec.Height != Height {
			return nil, fmt.Errorf("snapshot chunk height mismatch: got %d want %d", rec.Height, Height)
		}
		if len(rec.Blocks) != cellsPerChunk {
			return nil, fmt.Errorf("snapshot chunk blocks length mismatch: got %d want %d", len(rec.Blocks), cellsPerChunk)
		}
		if len(rec.Light) != 0 && len(rec.Light) != cellsPerChunk {
			return nil, fmt.Errorf("snapshot chunk light length mismatch: got %d want %d", len(rec.Light), cellsPerChunk)
		}
		k := ChunkKey{CX: rec.CX, CZ: rec.CZ}
		if _, dup := m.Chunks[k]; dup {
			return nil, fmt.Errorf("snapshot chunk %s duplicated", k)
		}
		ch := NewChunk(k)
		i := 0
		for y := 0; y < Height; y++ {
			for z := 0; z < ChunkSize; z++ {
				for x := 0; x < ChunkSize; x++ {
					p := LocalPos{X: x, Y: y, Z: z}
					ch.SetLocal(p, rec.Blocks[i])
					if len(rec.Light) != 0 {
						ch.SetLight(p, true, rec.Light[i]>>4)
						ch.SetLight(p, false, rec.Light[i]&0x0f)
					}
					i++
				}
			}
		}
		_ = ch.Digest()
		m.Insert(ch)
	}
	return m, nil
}
