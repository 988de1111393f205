package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"voxelcore.dev/internal/persistence/snapshot"
	"voxelcore.dev/internal/sim/catalogs"
	"voxelcore.dev/internal/sim/world"
	"voxelcore.dev/internal/sim/world/terrain/gen"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

func testConfig() world.WorldConfig {
	return world.WorldConfig{
		ID:           "world_1",
		ChunkRange:   [4]int{0, 1, 0, 1},
		Noise:        gen.Options{Kind: "flat", FlatHeight: 7},
		LightEnabled: true,
	}
}

func TestBuildWorldGeneratesThenResumes(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	blocks := catalogs.Builtin()

	w, err := buildWorld(testConfig(), blocks, "", logger)
	if err != nil {
		t.Fatalf("fresh: %v", err)
	}
	if id, ok := w.GetBlock(store.BlockPos{X: 3, Y: 7, Z: 3}); !ok || id != store.Grass {
		t.Fatalf("fresh world surface: %d %v", id, ok)
	}
	w.SetBlock(store.BlockPos{X: 3, Y: 8, Z: 3}, store.Dirt)

	worldDir := t.TempDir()
	writeSnapshot(worldDir, w.ExportSnapshot(41), nil, logger)
	path := latestSnapshot(worldDir)
	if filepath.Base(path) != "41.snap.zst" {
		t.Fatalf("latest snapshot %q", path)
	}

	w2, err := buildWorld(testConfig(), blocks, path, logger)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if w2.CurrentTick() != 42 {
		t.Fatalf("resumed tick %d", w2.CurrentTick())
	}
	if id, ok := w2.GetBlock(store.BlockPos{X: 3, Y: 8, Z: 3}); !ok || id != store.Dirt {
		t.Fatalf("edit lost on resume: %d %v", id, ok)
	}

	other := testConfig()
	other.ID = "world_2"
	if _, err := buildWorld(other, blocks, path, logger); err == nil {
		t.Fatalf("expected world id mismatch")
	}
}

func TestLatestSnapshotPicksHighestTick(t *testing.T) {
	worldDir := t.TempDir()
	dir := filepath.Join(worldDir, "snapshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"9.snap.zst", "120.snap.zst", "13.snap.zst", "junk.snap.zst", "200.snap.zst.tmp"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if got := filepath.Base(latestSnapshot(worldDir)); got != "120.snap.zst" {
		t.Fatalf("latest %q", got)
	}
	if got := latestSnapshot(t.TempDir()); got != "" {
		t.Fatalf("empty dir: %q", got)
	}
}

func TestMuxServesHealthMetricsAndState(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	w, err := buildWorld(testConfig(), catalogs.Builtin(), "", logger)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	reg := prometheus.NewRegistry()
	w.SetCollectors(world.NewCollectors(reg, "world_1"))
	w.SetBlock(store.BlockPos{X: 1, Y: 8, Z: 1}, store.Dirt)
	w.StepOnce(nil)

	srv := httptest.NewServer(newMux(w, reg, logger, false))
	defer srv.Close()

	get := func(path string) string {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("get %s: status %d", path, resp.StatusCode)
		}
		b, _ := io.ReadAll(resp.Body)
		return string(b)
	}

	if body := get("/healthz"); body != "ok" {
		t.Fatalf("healthz %q", body)
	}
	metrics := get("/metrics")
	if !strings.Contains(metrics, `voxel_block_edits_total{world="world_1"} 1`) {
		t.Fatalf("edit counter missing from metrics:\n%s", metrics)
	}

	var state struct {
		WorldID string             `json:"world_id"`
		Tick    uint64             `json:"tick"`
		Metrics world.WorldMetrics `json:"metrics"`
	}
	if err := json.Unmarshal([]byte(get("/admin/v1/state")), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.WorldID != "world_1" || state.Tick != 1 || state.Metrics.LoadedChunks != 1 {
		t.Fatalf("state %+v", state)
	}

	resp, err := http.Get(srv.URL + "/admin/v1/snapshot")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("snapshot GET status %d", resp.StatusCode)
	}
}

func TestWriteSnapshotIsReadable(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	w, err := buildWorld(testConfig(), catalogs.Builtin(), "", logger)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	dir := t.TempDir()
	writeSnapshot(dir, w.ExportSnapshot(5), nil, logger)
	snap, err := snapshot.ReadSnapshot(filepath.Join(dir, "snapshots", "5.snap.zst"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if snap.Header.WorldID != "world_1" || len(snap.Chunks) != 1 {
		t.Fatalf("snapshot %+v", snap.Header)
	}
}
