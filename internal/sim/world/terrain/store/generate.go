package store

import (
	"log"
	"time"

	genpkg "voxelcore.dev/internal/sim/world/terrain/gen"
)

// GenerateSurface fills the chunk from a density field. A solid cell whose
// upper neighbour is empty, or that sits at the ceiling, becomes grass; other
// solid cells are dirt.
func (c *Chunk) GenerateSurface(field genpkg.Field) {
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			wx := c.CX*ChunkSize + x
			wz := c.CZ*ChunkSize + z

			above := false
			for y := Height - 1; y >= 0; y-- {
				solid := field.Density(wx, y, wz) > 0
				switch {
				case !solid:
					c.SetLocal(LocalPos{X: x, Y: y, Z: z}, Air)
				case y == Height-1 || !above:
					c.SetLocal(LocalPos{X: x, Y: y, Z: z}, Grass)
				default:
					c.SetLocal(LocalPos{X: x, Y: y, Z: z}, Dirt)
				}
				above = solid
			}
		}
	}
}

// GenerateSurface fills every resident chunk.
func (m *ChunkManager) GenerateSurface(field genpkg.Field, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	for _, k := range m.Keys() {
		start := time.Now()
		m.Chunks[k].GenerateSurface(field)
		logger.Printf("generated chunk %s in %s", k, time.Since(start).Round(time.Microsecond))
	}
}
