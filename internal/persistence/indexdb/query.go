package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"voxelcore.dev/internal/sim/world"
)

// OpenReader opens an existing index for queries. It may be used while a
// server holds the same file through OpenSQLite.
func OpenReader(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EditsSince lists edits with tick >= since in apply order. limit <= 0
// means no limit.
func EditsSince(ctx context.Context, db *sql.DB, since uint64, limit int) ([]world.EditEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx,
		`SELECT tick,x,y,z,from_block,to_block FROM edits WHERE tick>=? ORDER BY tick,seq LIMIT ?`,
		int64(since), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEdits(rows)
}

// EditsAt is the change history of one cell, oldest first.
func EditsAt(ctx context.Context, db *sql.DB, x, y, z int) ([]world.EditEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT tick,x,y,z,from_block,to_block FROM edits WHERE x=? AND z=? AND y=? ORDER BY tick,seq`,
		x, z, y)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEdits(rows)
}

func scanEdits(rows *sql.Rows) ([]world.EditEntry, error) {
	var out []world.EditEntry
	for rows.Next() {
		var (
			e        world.EditEntry
			tick     int64
			from, to int64
		)
		if err := rows.Scan(&tick, &e.X, &e.Y, &e.Z, &from, &to); err != nil {
			return nil, err
		}
		e.Tick = uint64(tick)
		e.Old, e.New = uint8(from), uint8(to)
		out = append(out, e)
	}
	return out, rows.Err()
}

type SnapshotRecord struct {
	Tick          uint64 `json:"tick"`
	WorldID       string `json:"world_id"`
	Path          string `json:"path"`
	Seed          int64  `json:"seed"`
	NoiseKind     string `json:"noise_kind"`
	Chunks        int    `json:"chunks"`
	PaletteDigest string `json:"palette_digest"`
	RecordedAt    string `json:"recorded_at"`
}

// LatestSnapshot returns the highest-tick snapshot recorded for worldID.
// ok is false when there is none.
func LatestSnapshot(ctx context.Context, db *sql.DB, worldID string) (rec SnapshotRecord, ok bool, err error) {
	var tick int64
	err = db.QueryRowContext(ctx,
		`SELECT tick,world_id,path,seed,noise_kind,chunks,palette_digest,recorded_at
		 FROM snapshots WHERE world_id=? ORDER BY tick DESC LIMIT 1`, worldID,
	).Scan(&tick, &rec.WorldID, &rec.Path, &rec.Seed, &rec.NoiseKind, &rec.Chunks, &rec.PaletteDigest, &rec.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRecord{}, false, nil
	}
	if err != nil {
		return SnapshotRecord{}, false, fmt.Errorf("latest snapshot: %w", err)
	}
	rec.Tick = uint64(tick)
	return rec, true, nil
}
