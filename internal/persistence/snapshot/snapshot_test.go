package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestWriteReadSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshots", "12.snap.zst")

	in := SnapshotV1{
		Header:     Header{WorldID: "w", Tick: 12},
		Seed:       77,
		TickRate:   20,
		NoiseKind:  "perlin",
		ChunkRange: [4]int{-1, 1, -1, 1},
		Chunks: []ChunkV1{{
			CX: -1, CZ: 0, Height: 256,
			Blocks: []byte{1, 2, 0, 2},
			Light:  []byte{0xf0, 0x0f},
		}},
	}
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if h.Version != Version || h.Tick != 12 || h.WorldID != "w" {
		t.Fatalf("unexpected header %+v", h)
	}

	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Seed != 77 || out.ChunkRange != in.ChunkRange || len(out.Chunks) != 1 {
		t.Fatalf("unexpected snapshot %+v", out)
	}
	if string(out.Chunks[0].Blocks) != string(in.Chunks[0].Blocks) || out.Chunks[0].Light[0] != 0xf0 {
		t.Fatalf("chunk payload mismatch")
	}
}

func TestReadSnapshotRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap.zst")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc, _ := zstd.NewWriter(f)
	_, _ = enc.Write([]byte(`{"version":99,"world_id":"w","tick":0}` + "\n"))
	_ = enc.Close()
	_ = f.Close()

	if _, err := ReadSnapshot(path); !errors.Is(err, ErrVersion) {
		t.Fatalf("expected ErrVersion, got %v", err)
	}
}
