package world

import (
	"io"
	"log"
	"testing"

	"voxelcore.dev/internal/sim/catalogs"
	"voxelcore.dev/internal/sim/world/terrain/gen"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

// newFlatWorld builds a generated world whose cells are solid up to and
// including y=7, so ground tops sit on the y=8 plane.
func newFlatWorld(t *testing.T, chunkRange [4]int, lit bool) *World {
	t.Helper()
	return newFlatWorldWith(t, catalogs.Builtin(), chunkRange, lit)
}

func newFlatWorldWith(t *testing.T, blocks *catalogs.Registry, chunkRange [4]int, lit bool) *World {
	t.Helper()
	w, err := New(WorldConfig{
		ID:           "test",
		TickRateHz:   200,
		ChunkRange:   chunkRange,
		Noise:        gen.Options{Kind: "flat", FlatHeight: 7},
		LightEnabled: lit,
		Reach:        32,
	}, blocks, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	if err := w.Generate(); err != nil {
		t.Fatalf("generate: %v", err)
	}
	return w
}

const lampID uint8 = 3

// lampRegistry is the builtin palette plus an opaque cube emitting level 15.
func lampRegistry() *catalogs.Registry {
	r := catalogs.Builtin()
	atlas := catalogs.NewGridAtlas([]string{"block/lamp"})
	tex := "block/lamp"
	_ = r.Register(lampID, catalogs.CubeBlock("lamp", atlas, [6]string{tex, tex, tex, tex, tex, tex}, false))
	r.SetEmission(lampID, 15)
	r.Bake()
	return r
}

func at(x, y, z int) store.BlockPos { return store.BlockPos{X: x, Y: y, Z: z} }

type memEditLog struct{ entries []EditEntry }

func (l *memEditLog) WriteEdit(e EditEntry) error {
	l.entries = append(l.entries, e)
	return nil
}
