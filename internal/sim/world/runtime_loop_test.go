package world

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"voxelcore.dev/internal/persistence/snapshot"
	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

func startWorld(t *testing.T, w *World) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("run: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Errorf("world loop did not stop")
		}
	})
	return ctx
}

func TestRunStreamsMeshesAfterEdits(t *testing.T) {
	w := newFlatWorld(t, [4]int{0, 2, 0, 1}, true)
	ctx := startWorld(t, w)

	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	sub, err := w.Subscribe(rctx, "s1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(sub.Initial) != 2 {
		t.Fatalf("initial meshes %d", len(sub.Initial))
	}
	if sub.Initial[0].Key != (store.ChunkKey{CX: 0}) || sub.Initial[1].Key != (store.ChunkKey{CX: 1}) {
		t.Fatalf("initial meshes out of key order")
	}

	res, err := w.RequestSetBlock(rctx, at(16, 7, 3), store.Air)
	if err != nil {
		t.Fatalf("set block: %v", err)
	}
	if !res.Applied || res.Old != store.Grass || len(res.Affected) != 2 {
		t.Fatalf("edit result %+v", res)
	}

	got := map[store.ChunkKey]bool{}
	for len(got) < 2 {
		select {
		case u, ok := <-sub.Updates:
			if !ok {
				t.Fatalf("updates closed")
			}
			if u.Tick != res.Tick {
				t.Fatalf("update tick %d want %d", u.Tick, res.Tick)
			}
			got[u.Chunk] = true
		case <-rctx.Done():
			t.Fatalf("timed out waiting for updates, got %v", got)
		}
	}

	// The dug cell is gone from the rebuilt mesh: the ray now lands one lower.
	rc, err := w.RequestRaycast(rctx, mgl64.Vec3{16.5, 20.5, 3.5}, mgl64.Vec3{0, -1, 0}, false)
	if err != nil {
		t.Fatalf("raycast: %v", err)
	}
	if !rc.Hit || rc.Result.Block != at(16, 6, 3) || rc.Result.Face != face.Top {
		t.Fatalf("raycast %+v", rc)
	}

	w.Unsubscribe("s1")
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.Updates:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("updates channel not closed after unsubscribe")
		}
	}
}

func TestRequestSnapshotUsesSink(t *testing.T) {
	w := newFlatWorld(t, [4]int{0, 1, 0, 1}, false)
	sink := make(chan snapshot.SnapshotV1, 1)
	w.SetSnapshotSink(sink)
	ctx := startWorld(t, w)

	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	tick, err := w.RequestSnapshot(rctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	select {
	case snap := <-sink:
		if snap.Header.Tick != tick || snap.Header.WorldID != "test" || len(snap.Chunks) != 1 {
			t.Fatalf("snapshot header %+v chunks=%d", snap.Header, len(snap.Chunks))
		}
	case <-rctx.Done():
		t.Fatalf("no snapshot delivered")
	}
}

func TestRequestsFailAfterCancel(t *testing.T) {
	w := newFlatWorld(t, [4]int{0, 1, 0, 1}, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The buffered request may be accepted, but no reply ever comes.
	if _, err := w.RequestRaycast(ctx, mgl64.Vec3{}, mgl64.Vec3{0, -1, 0}, false); err == nil {
		t.Fatalf("expected context error without a running loop")
	}
}
