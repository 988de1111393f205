package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	persistlog "voxelcore.dev/internal/persistence/log"
	"voxelcore.dev/internal/persistence/snapshot"
	"voxelcore.dev/internal/sim/catalogs"
	"voxelcore.dev/internal/sim/tuning"
	"voxelcore.dev/internal/sim/world"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite edit/snapshot index")

		snapPath = flag.String("snapshot", "", "path to snapshot to load (optional)")
		resume   = flag.Bool("resume", true, "load latest snapshot from data dir if present (when -snapshot is empty)")

		allowRemote = flag.Bool("observer_remote", false, "accept observer connections from non-loopback addresses")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}

	blocks, err := catalogs.Load(*configDir, nil)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

	idx, err := openRuntimeIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, blocks, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *resume {
		snapshotToLoad = latestSnapshot(worldDir)
	}
	w, err := buildWorld(world.ConfigFromTuning(*worldID, tune), blocks, snapshotToLoad, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	w.SetCollectors(world.NewCollectors(reg, *worldID))

	editLog := persistlog.NewEditLogger(worldDir)
	defer editLog.Close()
	if idx != nil {
		w.SetEditLogger(persistlog.MultiEditLogger{editLog, idx})
	} else {
		w.SetEditLogger(editLog)
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				// Drain whatever the loop queued before stopping.
				for {
					select {
					case snap := <-snapCh:
						writeSnapshot(worldDir, snap, idx, logger)
					default:
						return
					}
				}
			case snap := <-snapCh:
				writeSnapshot(worldDir, snap, idx, logger)
			}
		}
	}()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("world stopped: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newMux(w, reg, logger, *allowRemote),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	// The loop has stopped, so the world is safe to read here.
	<-runDone
	<-writerDone
	tick := w.CurrentTick()
	if tick > 0 {
		tick--
	}
	final := w.ExportSnapshot(tick)
	writeSnapshot(worldDir, final, idx, logger)
}

// buildWorld resumes from snapshotPath when set, otherwise generates fresh
// terrain and lights it.
func buildWorld(cfg world.WorldConfig, blocks *catalogs.Registry, snapshotPath string, logger *log.Logger) (*world.World, error) {
	w, err := world.New(cfg, blocks, logger)
	if err != nil {
		return nil, err
	}
	if snapshotPath == "" {
		if err := w.Generate(); err != nil {
			return nil, err
		}
		return w, nil
	}
	snap, err := snapshot.ReadSnapshot(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if snap.Header.WorldID != "" && snap.Header.WorldID != cfg.ID {
		return nil, fmt.Errorf("snapshot world id mismatch: flag=%s snap=%s", cfg.ID, snap.Header.WorldID)
	}
	if err := w.ImportSnapshot(snap); err != nil {
		return nil, fmt.Errorf("import snapshot: %w", err)
	}
	logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotPath), w.CurrentTick())
	return w, nil
}

func writeSnapshot(worldDir string, snap snapshot.SnapshotV1, idx runtimeIndex, logger *log.Logger) {
	path := filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Tick))
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		logger.Printf("snapshot write: %v", err)
		return
	}
	size := "?"
	if fi, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	logger.Printf("snapshot tick=%d chunks=%d size=%s", snap.Header.Tick, len(snap.Chunks), size)
	if idx != nil {
		idx.RecordSnapshot(path, snap)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".snap.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}
