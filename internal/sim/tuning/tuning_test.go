package tuning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := "seed: 99\nnoise:\n  kind: simplex\n  octaves: 3\nchunk_range: [0, 2, 0, 3]\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tu.Seed != 99 || tu.Noise.Kind != "simplex" || tu.Noise.Octaves != 3 {
		t.Fatalf("unexpected tuning %+v", tu)
	}
	if tu.TickRateHz != 20 || tu.Mesh.AOTable[3] != 1.0 {
		t.Fatalf("defaults not kept: %+v", tu)
	}
	if tu.ChunkRange != [4]int{0, 2, 0, 3} {
		t.Fatalf("chunk range: %v", tu.ChunkRange)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("noise:\n  kind: voronoi\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "noise.kind") {
		t.Fatalf("expected noise.kind error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
