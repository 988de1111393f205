package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voxelcore.dev/internal/persistence/indexdb"
	"voxelcore.dev/internal/persistence/snapshot"
	"voxelcore.dev/internal/sim/catalogs"
	"voxelcore.dev/internal/sim/tuning"
	"voxelcore.dev/internal/sim/world"
)

type runtimeIndex interface {
	world.EditLogger
	Close() error
	UpsertCatalogs(configDir string, blocks *catalogs.Registry, tune tuning.Tuning) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
}

// openRuntimeIndex returns nil, nil when indexing is switched off.
func openRuntimeIndex(worldDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("VC_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(indexPath(worldDir))
	default:
		return nil, fmt.Errorf("unsupported VC_INDEX_BACKEND: %s", backend)
	}
}

func indexPath(worldDir string) string {
	return filepath.Join(worldDir, "index", "world.sqlite")
}
