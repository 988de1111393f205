package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voxelcore.dev/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	since := fs.Uint64("since", 0, "edits: first tick (inclusive)")
	at := fs.String("at", "", "edits: history of one cell x,y,z")
	limit := fs.Int("limit", 100, "result limit")
	_ = fs.Parse(args)

	q := "edits"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	db, err := indexdb.OpenReader(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	switch q {
	case "edits":
		if strings.TrimSpace(*at) != "" {
			p, err := parseVec3(*at)
			if err != nil {
				fmt.Fprintln(os.Stderr, "bad -at:", err)
				os.Exit(2)
			}
			rows, err := indexdb.EditsAt(ctx, db, p[0], p[1], p[2])
			if err != nil {
				fmt.Fprintln(os.Stderr, "query:", err)
				os.Exit(1)
			}
			for _, e := range rows {
				_ = enc.Encode(e)
			}
			return
		}
		rows, err := indexdb.EditsSince(ctx, db, *since, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, e := range rows {
			_ = enc.Encode(e)
		}
	case "snapshots":
		id := strings.TrimSpace(*worldID)
		if id == "" {
			fmt.Fprintln(os.Stderr, "snapshots needs -world")
			os.Exit(2)
		}
		rec, ok, err := indexdb.LatestSnapshot(ctx, db, id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "no snapshots found")
			os.Exit(2)
		}
		_ = enc.Encode(rec)
	default:
		fmt.Fprintf(os.Stderr, "unknown query %q (edits|snapshots)\n", q)
		os.Exit(2)
	}
}
