package world

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"voxelcore.dev/internal/persistence/snapshot"
	"voxelcore.dev/internal/sim/catalogs"
	"voxelcore.dev/internal/sim/world/light"
	"voxelcore.dev/internal/sim/world/mesh"
	"voxelcore.dev/internal/sim/world/terrain/gen"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

// World owns the chunk manager together with the light engine and mesher
// that read it. Methods are not safe for concurrent use; Run serializes
// requests from other goroutines onto the loop goroutine.
type World struct {
	cfg    WorldConfig
	logger *log.Logger

	blocks *catalogs.Registry
	chunks *store.ChunkManager
	light  *light.Engine
	mesher *mesh.Mesher

	// dirty holds chunks whose mesh is stale; meshes caches the last build.
	dirty  map[store.ChunkKey]struct{}
	meshes map[store.ChunkKey]*mesh.Buckets

	tick    atomic.Uint64
	metrics atomic.Value
	prom    *Collectors

	edits       chan editReq
	casts       chan raycastReq
	subscribe   chan subscribeReq
	unsubscribe chan string
	snapReq     chan snapshotReq
	stop        chan struct{}
	stopOnce    sync.Once

	subscribers  map[string]*subscriber
	snapshotSink chan<- snapshot.SnapshotV1
	editLogger   EditLogger
}

func New(cfg WorldConfig, blocks *catalogs.Registry, logger *log.Logger) (*World, error) {
	if blocks == nil {
		return nil, errors.New("world: nil block registry")
	}
	cfg.applyDefaults()
	r := cfg.ChunkRange
	if r[0] >= r[1] || r[2] >= r[3] {
		return nil, fmt.Errorf("world: empty chunk range %v", r)
	}
	if logger == nil {
		logger = log.Default()
	}
	if !blocks.Baked() {
		blocks.Bake()
	}

	chunks := store.NewRange(r[0], r[1], r[2], r[3])
	w := &World{
		cfg:         cfg,
		logger:      logger,
		blocks:      blocks,
		chunks:      chunks,
		light:       light.NewEngine(chunks, blocks),
		mesher:      mesh.New(chunks, blocks),
		dirty:       map[store.ChunkKey]struct{}{},
		meshes:      map[store.ChunkKey]*mesh.Buckets{},
		edits:       make(chan editReq, cfg.InboxSize),
		casts:       make(chan raycastReq, cfg.InboxSize),
		subscribe:   make(chan subscribeReq, 16),
		unsubscribe: make(chan string, 16),
		snapReq:     make(chan snapshotReq, 4),
		stop:        make(chan struct{}),
		subscribers: map[string]*subscriber{},
	}
	w.mesher.AO = cfg.AOTable
	w.markAllDirty()
	return w, nil
}

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) Config() WorldConfig         { return w.cfg }
func (w *World) Chunks() *store.ChunkManager { return w.chunks }
func (w *World) Blocks() *catalogs.Registry  { return w.blocks }
func (w *World) CurrentTick() uint64         { return w.tick.Load() }
func (w *World) SetEditLogger(l EditLogger)  { w.editLogger = l }
func (w *World) SetCollectors(c *Collectors) { w.prom = c }
func (w *World) Logger() *log.Logger         { return w.logger }
func (w *World) SetTick(t uint64)            { w.tick.Store(t) }

func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

// Generate fills every chunk from the configured density field, then lights
// the world when lighting is enabled.
func (w *World) Generate() error {
	field, err := gen.New(w.cfg.Noise)
	if err != nil {
		return fmt.Errorf("world %s: %w", w.cfg.ID, err)
	}
	start := time.Now()
	w.chunks.GenerateSurface(field, w.logger)
	w.logger.Printf("world %s: generated %d chunks (%s) in %s",
		w.cfg.ID, w.chunks.Len(), w.cfg.Noise.Kind, time.Since(start).Round(time.Millisecond))
	w.markAllDirty()
	if w.cfg.LightEnabled {
		w.Relight()
	}
	return nil
}

// Relight recomputes sky and block light for every loaded chunk. Every
// chunk is queued for a mesh rebuild afterwards.
func (w *World) Relight() {
	start := time.Now()
	w.light.ResetTouched()
	w.light.Relight()
	nodes := w.light.Visited()
	w.markAllDirty()
	w.prom.observeLight(nodes)
	w.logger.Printf("world %s: relit %d chunks, %d nodes in %s",
		w.cfg.ID, w.chunks.Len(), nodes, time.Since(start).Round(time.Millisecond))
}

func (w *World) markAllDirty() {
	for _, k := range w.chunks.Keys() {
		w.dirty[k] = struct{}{}
	}
}

func (w *World) markDirty(keys ...store.ChunkKey) {
	for _, k := range keys {
		if _, ok := w.chunks.GetChunk(k); ok {
			w.dirty[k] = struct{}{}
		}
	}
}

// DirtyChunks lists chunks awaiting a mesh rebuild, sorted by key.
func (w *World) DirtyChunks() []store.ChunkKey {
	keys := make([]store.ChunkKey, 0, len(w.dirty))
	for k := range w.dirty {
		keys = append(keys, k)
	}
	sortChunkKeys(keys)
	return keys
}

func (w *World) IsDirty(k store.ChunkKey) bool {
	_, ok := w.dirty[k]
	return ok
}
