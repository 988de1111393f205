package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "voxelcore.dev/internal/persistence/log"
	"voxelcore.dev/internal/persistence/snapshot"
	"voxelcore.dev/internal/sim/catalogs"
	"voxelcore.dev/internal/sim/world"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to base .snap.zst")
		editsDir   = flag.String("edits", "", "dir containing edits-*.jsonl.zst (optional)")
		targetPath = flag.String("target", "", "later snapshot to verify against (optional)")
		configDir  = flag.String("configs", "./configs", "config directory")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional; defaults to target tick)")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot v%d world=%s tick=%d seed=%d noise=%s chunks=%d range=%v\n",
		snap.Header.Version, snap.Header.WorldID, snap.Header.Tick, snap.Seed, snap.NoiseKind,
		len(snap.Chunks), snap.ChunkRange)

	if *editsDir == "" {
		return
	}

	blocks, err := catalogs.Load(*configDir, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	w, err := importWorld(snap, blocks)
	if err != nil {
		fmt.Fprintln(os.Stderr, "world:", err)
		os.Exit(1)
	}

	var target *world.World
	end := *toTick
	if *targetPath != "" {
		tsnap, err := snapshot.ReadSnapshot(*targetPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read target:", err)
			os.Exit(1)
		}
		if target, err = importWorld(tsnap, blocks); err != nil {
			fmt.Fprintln(os.Stderr, "target world:", err)
			os.Exit(1)
		}
		if end == 0 {
			end = tsnap.Header.Tick
		}
	}

	files, err := listEditFiles(*editsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list edits:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no edit files found in", *editsDir)
		os.Exit(1)
	}

	var entries []world.EditEntry
	for _, path := range files {
		es, err := persistlog.ReadEdits(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read edits:", err)
			os.Exit(1)
		}
		entries = append(entries, es...)
	}

	st, err := replay(w, entries, snap.Header.Tick, end)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: ticks=%d edits=%d (from snapshot tick=%d)\n", st.Ticks, st.Edits, snap.Header.Tick)

	if target != nil {
		if diff := diffChunks(w, target); len(diff) > 0 {
			fmt.Fprintf(os.Stderr, "digest mismatch in %d chunks: %v\n", len(diff), diff)
			os.Exit(1)
		}
		fmt.Println("target snapshot matches")
	}
}

func importWorld(snap snapshot.SnapshotV1, blocks *catalogs.Registry) (*world.World, error) {
	w, err := world.New(world.WorldConfig{
		ID:           snap.Header.WorldID,
		TickRateHz:   snap.TickRate,
		Seed:         snap.Seed,
		ChunkRange:   snap.ChunkRange,
		LightEnabled: true,
	}, blocks, nil)
	if err != nil {
		return nil, err
	}
	if err := w.ImportSnapshot(snap); err != nil {
		return nil, err
	}
	return w, nil
}

func listEditFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "edits-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

type replayStats struct {
	Ticks int
	Edits int
}

// replay reapplies entries with afterTick < tick <= toTick (toTick 0 means
// no bound), one StepOnce per logged tick. Each entry's old block must match
// the world, or the log and snapshot have diverged.
func replay(w *world.World, entries []world.EditEntry, afterTick, toTick uint64) (replayStats, error) {
	var st replayStats
	var batch []world.EditRequest
	var batchTick uint64

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.SetTick(batchTick)
		w.StepOnce(batch)
		st.Ticks++
		batch = batch[:0]
	}

	for _, e := range entries {
		if e.Tick <= afterTick {
			continue
		}
		if toTick != 0 && e.Tick > toTick {
			break
		}
		if e.Tick != batchTick {
			flush()
			batchTick = e.Tick
		}
		// Earlier edits of the same tick are still queued.
		cur := currentBlock(w, e.Pos(), batch)
		if cur != e.Old {
			return st, fmt.Errorf("tick %d: block at %v is %d, log says %d", e.Tick, e.Pos(), cur, e.Old)
		}
		batch = append(batch, world.EditRequest{Pos: e.Pos(), ID: e.New})
		st.Edits++
	}
	flush()
	return st, nil
}

func currentBlock(w *world.World, p store.BlockPos, pending []world.EditRequest) uint8 {
	for i := len(pending) - 1; i >= 0; i-- {
		if pending[i].Pos == p {
			return pending[i].ID
		}
	}
	id, _ := w.GetBlock(p)
	return id
}

// diffChunks lists chunks whose digests differ, including chunks loaded in
// only one of the worlds.
func diffChunks(a, b *world.World) []store.ChunkKey {
	var out []store.ChunkKey
	for _, ch := range a.Chunks().All() {
		other, ok := b.Chunks().GetChunk(ch.Key())
		if !ok || other.Digest() != ch.Digest() {
			out = append(out, ch.Key())
		}
	}
	for _, ch := range b.Chunks().All() {
		if _, ok := a.Chunks().GetChunk(ch.Key()); !ok {
			out = append(out, ch.Key())
		}
	}
	return out
}
