package world

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"voxelcore.dev/internal/persistence/snapshot"
	"voxelcore.dev/internal/sim/catalogs"
	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/raycast"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

func TestNewRejectsEmptyRange(t *testing.T) {
	if _, err := New(WorldConfig{ChunkRange: [4]int{2, 2, 0, 1}}, catalogs.Builtin(), nil); err == nil {
		t.Fatalf("expected error for empty chunk range")
	}
	if _, err := New(WorldConfig{}, nil, nil); err == nil {
		t.Fatalf("expected error for nil registry")
	}
}

func TestFlatWorldMeshesOneTopQuadPerColumn(t *testing.T) {
	w := newFlatWorld(t, [4]int{0, 2, 0, 2}, true)
	meshes := w.ComputeWorldMesh()
	if len(meshes) != 4 {
		t.Fatalf("meshes: got %d want 4", len(meshes))
	}
	for _, b := range meshes {
		top := b.Faces[face.Top]
		if len(top.Opaque) != store.ChunkSize*store.ChunkSize {
			t.Fatalf("chunk %s: top quads %d", b.Key, len(top.Opaque))
		}
		for _, v := range top.Opaque {
			if v.Positions[0][1] != 8 {
				t.Fatalf("chunk %s: top quad at y=%v", b.Key, v.Positions[0][1])
			}
			if v.Light>>4 != store.MaxLight {
				t.Fatalf("chunk %s: open ground not sky lit: %#x", b.Key, v.Light)
			}
		}
		for _, f := range []face.Face{face.Bottom, face.Left, face.Right, face.Front, face.Back} {
			for _, v := range b.Faces[f].Opaque {
				p := v.Block
				edge := p.Y == 0 || p.X == 0 || p.Z == 0 || p.X == 31 || p.Z == 31
				if !edge {
					t.Fatalf("chunk %s: enclosed %s face at %+v", b.Key, f, p)
				}
			}
		}
	}
	if len(w.DirtyChunks()) != 0 {
		t.Fatalf("dirty after full mesh: %v", w.DirtyChunks())
	}
}

func TestEditOnChunkBoundaryDirtiesNeighbour(t *testing.T) {
	w := newFlatWorld(t, [4]int{0, 2, 0, 1}, false)
	w.ComputeWorldMesh()

	left, right := store.ChunkKey{CX: 0}, store.ChunkKey{CX: 1}

	if _, ok := w.SetBlock(at(16, 7, 5), store.Air); !ok {
		t.Fatalf("boundary edit rejected")
	}
	if !w.IsDirty(left) || !w.IsDirty(right) {
		t.Fatalf("boundary edit: dirty=%v", w.DirtyChunks())
	}

	w.RebuildDirty()
	if _, ok := w.SetBlock(at(21, 7, 5), store.Air); !ok {
		t.Fatalf("interior edit rejected")
	}
	if w.IsDirty(left) {
		t.Fatalf("interior edit dirtied the neighbour: %v", w.DirtyChunks())
	}
	if !w.IsDirty(right) {
		t.Fatalf("interior edit did not dirty its own chunk")
	}
}

func TestAffectedChunksSkipsUnloaded(t *testing.T) {
	w := newFlatWorld(t, [4]int{0, 2, 0, 1}, false)
	got := w.AffectedChunks(at(16, 3, 0))
	want := []store.ChunkKey{{CX: 1}, {CX: 0}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("affected: got %v want %v", got, want)
	}
	if got := w.AffectedChunks(at(16, 300, 0)); got != nil {
		t.Fatalf("out of height: %v", got)
	}
}

func TestSetBlockOutsideWorld(t *testing.T) {
	w := newFlatWorld(t, [4]int{0, 1, 0, 1}, false)
	if _, ok := w.SetBlock(at(40, 3, 3), store.Dirt); ok {
		t.Fatalf("edit in unloaded chunk accepted")
	}
	if _, ok := w.SetBlock(at(3, store.Height, 3), store.Dirt); ok {
		t.Fatalf("edit above the ceiling accepted")
	}
	w.ComputeWorldMesh()
	old, ok := w.SetBlock(at(3, 7, 3), store.Grass)
	if !ok || old != store.Grass {
		t.Fatalf("noop edit: old=%d ok=%v", old, ok)
	}
	if len(w.DirtyChunks()) != 0 {
		t.Fatalf("noop edit dirtied %v", w.DirtyChunks())
	}
}

func TestEditRepairsLight(t *testing.T) {
	w := newFlatWorld(t, [4]int{0, 2, 0, 2}, true)
	roof, under := at(8, 9, 8), at(8, 8, 8)

	if l := w.GetLight(roof); l>>4 != store.MaxLight {
		t.Fatalf("open cell light %#x", l)
	}
	w.SetBlock(roof, store.Dirt)
	if l := w.GetLight(roof); l != 0 {
		t.Fatalf("solid cell light %#x", l)
	}
	// Shadowed, but lit from the open cells beside it.
	if l := w.GetLight(under) >> 4; l != store.MaxLight-1 {
		t.Fatalf("shadowed light %d want 14", l)
	}
	w.SetBlock(roof, store.Air)
	if l := w.GetLight(under) >> 4; l != store.MaxLight {
		t.Fatalf("light after uncovering %d", l)
	}

	incremental := map[store.ChunkKey][32]byte{}
	for _, ch := range w.Chunks().All() {
		incremental[ch.Key()] = ch.Digest()
	}
	w.Relight()
	for _, ch := range w.Chunks().All() {
		if ch.Digest() != incremental[ch.Key()] {
			t.Fatalf("chunk %s differs from full relight", ch.Key())
		}
	}
}

func TestEmitterEditDirtiesChunksItLights(t *testing.T) {
	w := newFlatWorldWith(t, lampRegistry(), [4]int{0, 2, 0, 1}, true)
	w.ComputeWorldMesh()

	// Strictly interior, but its light crosses into the neighbour.
	lamp := at(21, 9, 5)
	w.SetBlock(lamp, lampID)
	if l := w.GetLight(lamp) & 0x0f; l != store.MaxLight {
		t.Fatalf("lamp block light %d", l)
	}
	if l := w.GetLight(at(15, 9, 5)) & 0x0f; l != 9 {
		t.Fatalf("block light across boundary %d want 9", l)
	}
	if !w.IsDirty(store.ChunkKey{CX: 0}) {
		t.Fatalf("light change across the boundary did not dirty the neighbour")
	}

	w.RebuildDirty()
	w.SetBlock(lamp, store.Air)
	if l := w.GetLight(at(15, 9, 5)) & 0x0f; l != 0 {
		t.Fatalf("block light left behind: %d", l)
	}
	if !w.IsDirty(store.ChunkKey{CX: 0}) {
		t.Fatalf("darkening did not dirty the neighbour")
	}
}

func TestEditLoggerAndCollectors(t *testing.T) {
	w := newFlatWorld(t, [4]int{0, 1, 0, 1}, true)
	logs := &memEditLog{}
	w.SetEditLogger(logs)
	reg := prometheus.NewRegistry()
	c := NewCollectors(reg, "test")
	w.SetCollectors(c)

	w.SetTick(42)
	w.SetBlock(at(2, 8, 2), store.Dirt)
	w.SetBlock(at(2, 8, 2), store.Dirt)
	w.SetBlock(at(2, 8, 2), store.Air)

	if len(logs.entries) != 2 {
		t.Fatalf("edit entries %d", len(logs.entries))
	}
	e := logs.entries[0]
	if e.Tick != 42 || e.Pos() != at(2, 8, 2) || e.Old != store.Air || e.New != store.Dirt {
		t.Fatalf("entry %+v", e)
	}
	if got := testutil.ToFloat64(c.Edits); got != 2 {
		t.Fatalf("edits counter %v", got)
	}
	if testutil.ToFloat64(c.LightNodes) == 0 {
		t.Fatalf("light nodes not counted")
	}
	w.StepOnce(nil)
	if got := testutil.ToFloat64(c.MeshRebuilds); got != 1 {
		t.Fatalf("mesh rebuilds %v", got)
	}
	if m := w.Metrics(); m.Tick != 43 || m.LoadedChunks != 1 || m.DirtyChunks != 0 || m.Quads == 0 {
		t.Fatalf("metrics %+v", m)
	}
}

func TestRaycastThroughWorld(t *testing.T) {
	w := newFlatWorld(t, [4]int{0, 1, 0, 1}, false)
	r, ok := w.Raycast(mgl64.Vec3{8.5, 20.5, 8.5}, mgl64.Vec3{0, -1, 0}, false)
	if !ok || r.Type != raycast.Block {
		t.Fatalf("no hit")
	}
	if r.Block != at(8, 7, 8) || r.Face != face.Top || r.Hit[1] != 8 {
		t.Fatalf("hit %+v", r)
	}

	r, ok = w.RaycastTo(mgl64.Vec3{8.5, 20.5, 8.5}, mgl64.Vec3{8.5, 12.5, 8.5}, true)
	if !ok || r.Type != raycast.None || r.Block != at(8, 12, 8) {
		t.Fatalf("last empty %+v ok=%v", r, ok)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	w := newFlatWorld(t, [4]int{-1, 1, 0, 1}, true)
	w.SetBlock(at(-3, 8, 4), store.Dirt)
	w.SetTick(99)

	path := filepath.Join(t.TempDir(), "99.snap.zst")
	if err := snapshot.WriteSnapshot(path, w.ExportSnapshot(99)); err != nil {
		t.Fatalf("write: %v", err)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	w2, err := New(WorldConfig{ID: "test", ChunkRange: [4]int{0, 1, 0, 1}, LightEnabled: true}, catalogs.Builtin(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := w2.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if w2.CurrentTick() != 100 {
		t.Fatalf("tick after import %d", w2.CurrentTick())
	}
	if w2.Config().ChunkRange != ([4]int{-1, 1, 0, 1}) {
		t.Fatalf("range after import %v", w2.Config().ChunkRange)
	}
	for _, ch := range w.Chunks().All() {
		other, ok := w2.Chunks().GetChunk(ch.Key())
		if !ok || other.Digest() != ch.Digest() {
			t.Fatalf("chunk %s differs after import", ch.Key())
		}
	}
	if id, ok := w2.GetBlock(at(-3, 8, 4)); !ok || id != store.Dirt {
		t.Fatalf("edited block lost: %d %v", id, ok)
	}
	if len(w2.DirtyChunks()) != 2 {
		t.Fatalf("imported chunks must be queued for meshing")
	}
}

func TestImportRejectsForeignPalette(t *testing.T) {
	w := newFlatWorld(t, [4]int{0, 1, 0, 1}, false)
	snap := w.ExportSnapshot(1)
	snap.PaletteDigest = "deadbeef"
	if err := w.ImportSnapshot(snap); err == nil {
		t.Fatalf("expected palette mismatch")
	}
}
