package world

import (
	"voxelcore.dev/internal/sim/tuning"
	"voxelcore.dev/internal/sim/world/terrain/gen"
)

type WorldConfig struct {
	ID         string
	TickRateHz int
	Seed       int64

	// ChunkRange is xmin, xmax, zmin, zmax in chunk units; max is exclusive.
	ChunkRange [4]int
	Noise      gen.Options

	// LightEnabled turns off both the initial flood and per-edit relighting.
	// Meshes then bake whatever light the chunks already hold.
	LightEnabled bool
	AOTable      [4]float32
	Reach        float64

	// Operational parameters.
	SnapshotEveryTicks int
	InboxSize          int
	SubscriberBuffer   int
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "world_1"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.ChunkRange == ([4]int{}) {
		c.ChunkRange = [4]int{-4, 4, -4, 4}
	}
	if c.AOTable == ([4]float32{}) {
		c.AOTable = [4]float32{0.1, 0.25, 0.5, 1.0}
	}
	if c.Reach <= 0 {
		c.Reach = 5
	}
	if c.InboxSize <= 0 {
		c.InboxSize = 1024
	}
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = 64
	}
	if c.Noise.Seed == 0 {
		c.Noise.Seed = c.Seed
	}
}

// ConfigFromTuning maps tuning.yaml onto a world config.
func ConfigFromTuning(id string, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:         id,
		TickRateHz: t.TickRateHz,
		Seed:       t.Seed,
		ChunkRange: t.ChunkRange,
		Noise: gen.Options{
			Kind:         t.Noise.Kind,
			Seed:         t.Seed,
			Octaves:      t.Noise.Octaves,
			Alpha:        t.Noise.Alpha,
			Beta:         t.Noise.Beta,
			VerticalBias: t.Noise.VerticalBias,
			FlatHeight:   t.Noise.FlatHeight,
		},
		LightEnabled:       t.Light.Enabled,
		AOTable:            t.Mesh.AOTable,
		Reach:              t.Raycast.Reach,
		SnapshotEveryTicks: t.SnapshotEveryTicks,
	}
}
