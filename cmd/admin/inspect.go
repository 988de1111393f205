package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl64"

	"voxelcore.dev/internal/persistence/snapshot"
	"voxelcore.dev/internal/sim/catalogs"
	"voxelcore.dev/internal/sim/world/raycast"
)

type snapshotSummary struct {
	WorldID       string         `json:"world_id"`
	Tick          uint64         `json:"tick"`
	Seed          int64          `json:"seed"`
	NoiseKind     string         `json:"noise_kind"`
	ChunkRange    [4]int         `json:"chunk_range"`
	Chunks        int            `json:"chunks"`
	LitChunks     int            `json:"lit_chunks"`
	PaletteDigest string         `json:"palette_digest"`
	FileSize      string         `json:"file_size,omitempty"`
	Blocks        map[string]int `json:"blocks"`
}

// summarize counts non-air cells per block. Names come from palette when
// it covers the id.
func summarize(snap snapshot.SnapshotV1, palette []string) snapshotSummary {
	s := snapshotSummary{
		WorldID:       snap.Header.WorldID,
		Tick:          snap.Header.Tick,
		Seed:          snap.Seed,
		NoiseKind:     snap.NoiseKind,
		ChunkRange:    snap.ChunkRange,
		Chunks:        len(snap.Chunks),
		PaletteDigest: snap.PaletteDigest,
		Blocks:        map[string]int{},
	}
	var counts [256]int
	for _, ch := range snap.Chunks {
		if len(ch.Light) > 0 {
			s.LitChunks++
		}
		for _, id := range ch.Blocks {
			counts[id]++
		}
	}
	for id := 1; id < len(counts); id++ {
		if counts[id] == 0 {
			continue
		}
		name := fmt.Sprintf("#%d", id)
		if id < len(palette) && palette[id] != "" {
			name = palette[id]
		}
		s.Blocks[name] = counts[id]
	}
	return s
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	configDir := fs.String("configs", "./configs", "config directory (for block names)")
	worldID := fs.String("world", "", "world id")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	_ = fs.Parse(args)

	path, err := resolveSnapshot(*dataDir, *worldID, *snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	var palette []string
	if blocks, err := catalogs.Load(*configDir, nil); err == nil {
		if blocks.PaletteDigest != snap.PaletteDigest {
			fmt.Fprintln(os.Stderr, "warning: snapshot palette differs from configs; names may be wrong")
		}
		palette = blocks.Palette
	}

	s := summarize(snap, palette)
	if fi, err := os.Stat(path); err == nil {
		s.FileSize = humanize.Bytes(uint64(fi.Size()))
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(s)

	names := make([]string, 0, len(s.Blocks))
	for n := range s.Blocks {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(os.Stderr, "%-12s %s\n", n, humanize.Comma(int64(s.Blocks[n])))
	}
}

func raycastCmd(args []string) {
	fs := flag.NewFlagSet("raycast", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	configDir := fs.String("configs", "./configs", "config directory")
	worldID := fs.String("world", "", "world id")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	from := fs.String("from", "", "ray origin x,y,z (required)")
	dir := fs.String("dir", "0,-1,0", "ray direction x,y,z")
	reach := fs.Float64("reach", 64, "max distance")
	lastEmpty := fs.Bool("last_empty", false, "report the last empty cell when nothing is hit")
	_ = fs.Parse(args)

	origin, err := parseVec3f(*from)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -from:", err)
		os.Exit(2)
	}
	d, err := parseVec3f(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -dir:", err)
		os.Exit(2)
	}
	path, err := resolveSnapshot(*dataDir, *worldID, *snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	w, err := loadWorld(*configDir, snap)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load world:", err)
		os.Exit(1)
	}

	g := raycast.Grid{Blocks: w.Chunks(), Shapes: w.Blocks()}
	res, ok := raycast.CastDir(g, mgl64.Vec3(origin), mgl64.Vec3(d), *reach, *lastEmpty)
	if !ok {
		fmt.Println("no hit")
		return
	}
	name := "AIR"
	if id, present := w.GetBlock(res.Block); present {
		name = w.Blocks().Name(id)
	}
	fmt.Printf("%s block=(%d,%d,%d) name=%s face=%s point=(%.3f,%.3f,%.3f)\n",
		res.Type, res.Block.X, res.Block.Y, res.Block.Z, name, res.Face, res.Hit[0], res.Hit[1], res.Hit[2])
}
