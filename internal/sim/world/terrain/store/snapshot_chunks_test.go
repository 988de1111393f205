package store

import (
	"testing"

	snapv1 "voxelcore.dev/internal/persistence/snapshot"
)

func TestExportAndImportChunksRoundTrip(t *testing.T) {
	m := NewChunkManager()
	ch := NewChunk(ChunkKey{CX: 1, CZ: -2})
	ch.SetLocal(LocalPos{X: 0, Y: 0, Z: 0}, 3)
	ch.SetLocal(LocalPos{X: 1, Y: 200, Z: 15}, 9)
	ch.SetLight(LocalPos{X: 1, Y: 201, Z: 15}, true, 14)
	ch.SetLight(LocalPos{X: 1, Y: 201, Z: 15}, false, 6)
	m.Insert(ch)

	exported := ExportChunks(m, m.Keys())
	if len(exported) != 1 {
		t.Fatalf("expected 1 exported chunk, got %d", len(exported))
	}
	if exported[0].Blocks[0] != 3 {
		t.Fatalf("unexpected first block %d", exported[0].Blocks[0])
	}

	imported, err := ImportChunks(exported)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	got, ok := imported.GetChunk(ChunkKey{CX: 1, CZ: -2})
	if !ok {
		t.Fatalf("missing imported chunk")
	}
	if got.Digest() != ch.Digest() {
		t.Fatalf("digest mismatch after round trip")
	}
	if got.PackedLight(LocalPos{X: 1, Y: 201, Z: 15}) != 14<<4|6 {
		t.Fatalf("light lost in round trip")
	}
}

func TestImportChunksRejectsInvalidShape(t *testing.T) {
	_, err := ImportChunks([]snapv1.ChunkV1{{
		CX:     0,
		CZ:     0,
		Height: 2,
		Blocks: make([]byte, 16*16*2),
	}})
	if err == nil {
		t.Fatalf("expected error for invalid chunk shape")
	}
	_, err = ImportChunks([]snapv1.ChunkV1{{Height: Height, Blocks: make([]byte, 10)}})
	if err == nil {
		t.Fatalf("expected error for short block array")
	}
}
