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
	"voxelcore.dev/internal/sim/world"
)

func rollbackCmd(args []string) {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	configDir := fs.String("configs", "./configs", "config directory")
	worldID := fs.String("world", "", "world id")
	snapPath := fs.String("snapshot", "", "snapshot path to rollback from (optional; defaults to latest)")
	aabb := fs.String("aabb", "", "AABB filter: x1,y1,z1:x2,y2,z2 (required)")
	sinceTick := fs.Uint64("since_tick", 0, "rollback changes since tick (inclusive)")
	toTick := fs.Uint64("to_tick", 0, "rollback changes up to tick (inclusive, optional; defaults to snapshot tick)")
	outPath := fs.String("out", "", "output snapshot path (optional)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	if strings.TrimSpace(*aabb) == "" {
		fmt.Fprintln(os.Stderr, "missing -aabb")
		os.Exit(2)
	}
	min, max, err := parseAABB(*aabb)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -aabb:", err)
		os.Exit(2)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	snapshotToLoad, err := resolveSnapshot(*dataDir, *worldID, *snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(snapshotToLoad)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	endTick := *toTick
	if endTick == 0 || endTick > snap.Header.Tick {
		endTick = snap.Header.Tick
	}

	recs, err := readEdits(worldDir, *sinceTick, endTick, min, max)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read edits:", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Println("no matching edits; nothing to rollback")
		return
	}

	w, err := loadWorld(*configDir, snap)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load world:", err)
		os.Exit(1)
	}
	applied, skipped := applyRollback(w, recs)
	out := w.ExportSnapshot(snap.Header.Tick)

	if strings.TrimSpace(*outPath) == "" {
		*outPath = filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.rollback.snap.zst", snap.Header.Tick))
	}
	if err := snapshot.WriteSnapshot(*outPath, out); err != nil {
		fmt.Fprintln(os.Stderr, "write snapshot:", err)
		os.Exit(1)
	}

	fmt.Printf("rollback ok: snapshot=%s tick=%d aabb=%s since=%d to=%d entries=%d applied=%d skipped=%d out=%s\n",
		filepath.Base(snapshotToLoad), snap.Header.Tick, *aabb, *sinceTick, endTick, len(recs), applied, skipped, *outPath)
}

type editRec struct {
	Seq   uint64
	Entry world.EditEntry
}

// readEdits collects matching edits from every hourly edit log, newest
// first, which is the order they must be undone in.
func readEdits(worldDir string, sinceTick, toTick uint64, min, max [3]int) ([]editRec, error) {
	dir := filepath.Join(worldDir, "edits")
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

	out := make([]editRec, 0, 1024)
	var seq uint64
	for _, name := range names {
		entries, err := persistlog.ReadEdits(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			seq++
			if e.Tick < sinceTick || e.Tick > toTick {
				continue
			}
			if !withinAABB([3]int{e.X, e.Y, e.Z}, min, max) {
				continue
			}
			out = append(out, editRec{Seq: seq, Entry: e})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Entry.Tick != out[j].Entry.Tick {
			return out[i].Entry.Tick > out[j].Entry.Tick
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

// applyRollback restores each edit's previous block. Edits outside the
// loaded chunks are skipped.
func applyRollback(w *world.World, recs []editRec) (applied, skipped int) {
	for _, r := range recs {
		if _, ok := w.SetBlock(r.Entry.Pos(), r.Entry.Old); !ok {
			skipped++
			continue
		}
		applied++
	}
	return applied, skipped
}
