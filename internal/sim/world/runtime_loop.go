package world

import (
	"context"
	"time"

	"voxelcore.dev/internal/sim/world/mesh"
)

type subscriber struct {
	id  string
	out chan MeshUpdate
}

// Run owns the world until ctx ends or Stop is called. Edits queue up and
// apply at the next tick, followed by light repair and a rebuild of every
// dirty chunk, so meshes always see settled light. Raycasts and subscription
// changes are answered immediately.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer w.closeSubscribers()
	defer w.Stop()

	var pendingEdits []editReq
	var pendingSnapshots []snapshotReq

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.edits:
			pendingEdits = append(pendingEdits, req)
		case req := <-w.casts:
			w.handleRaycast(req)
		case req := <-w.subscribe:
			w.handleSubscribe(req)
		case id := <-w.unsubscribe:
			w.handleUnsubscribe(id)
		case req := <-w.snapReq:
			pendingSnapshots = append(pendingSnapshots, req)
		case <-ticker.C:
			w.step(pendingEdits)
			w.handleSnapshotRequests(pendingSnapshots)
			pendingEdits = pendingEdits[:0]
			pendingSnapshots = pendingSnapshots[:0]
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// StepOnce applies edits and advances one tick the same way Run does. It
// must not be called while Run is active.
func (w *World) StepOnce(edits []EditRequest) []EditResult {
	reqs := make([]editReq, len(edits))
	for i, e := range edits {
		reqs[i] = editReq{EditRequest: e}
	}
	return w.step(reqs)
}

func (w *World) step(edits []editReq) []EditResult {
	start := time.Now()
	tick := w.tick.Load()

	results := make([]EditResult, len(edits))
	for i, req := range edits {
		old, ok := w.SetBlock(req.Pos, req.ID)
		res := EditResult{Tick: tick, Old: old, Applied: ok}
		if ok {
			res.Affected = w.AffectedChunks(req.Pos)
		}
		results[i] = res
		if req.Resp != nil {
			select {
			case req.Resp <- res:
			default:
			}
		}
	}

	if rebuilt := w.RebuildDirty(); len(rebuilt) > 0 {
		w.broadcast(tick, rebuilt)
	}

	if every := uint64(w.cfg.SnapshotEveryTicks); every > 0 && tick > 0 && tick%every == 0 {
		w.enqueueSnapshot(tick)
	}

	w.tick.Add(1)
	w.publishMetrics(time.Since(start))
	return results
}

func (w *World) broadcast(tick uint64, meshes []*mesh.Buckets) {
	for _, b := range meshes {
		u := MeshUpdate{Tick: tick, Chunk: b.Key, Mesh: b}
		for _, s := range w.subscribers {
			if !sendLatest(s.out, u) {
				w.prom.observeDrop()
			}
		}
	}
}

// sendLatest delivers u without blocking. A full channel loses its oldest
// update; the return value is false when anything was dropped.
func sendLatest(ch chan MeshUpdate, u MeshUpdate) bool {
	select {
	case ch <- u:
		return true
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- u:
	default:
	}
	return false
}

func (w *World) handleRaycast(req raycastReq) {
	var res RaycastResult
	if req.Target != nil {
		res.Result, res.Hit = w.RaycastTo(req.Origin, *req.Target, req.IncludeLastEmpty)
	} else {
		res.Result, res.Hit = w.Raycast(req.Origin, req.Dir, req.IncludeLastEmpty)
	}
	select {
	case req.Resp <- res:
	default:
		// Client timed out; don't block the sim loop.
	}
}

func (w *World) handleSubscribe(req subscribeReq) {
	if req.SessionID == "" {
		return
	}
	// Existing subscribers must not miss chunks rebuilt for the newcomer.
	if rebuilt := w.RebuildDirty(); len(rebuilt) > 0 {
		w.broadcast(w.tick.Load(), rebuilt)
	}
	if old, ok := w.subscribers[req.SessionID]; ok {
		close(old.out)
	}
	s := &subscriber{id: req.SessionID, out: make(chan MeshUpdate, w.cfg.SubscriberBuffer)}
	w.subscribers[req.SessionID] = s

	resp := SubscribeResult{
		Tick:    w.tick.Load(),
		Updates: s.out,
		Initial: w.CachedMeshes(),
	}
	select {
	case req.Resp <- resp:
	default:
		delete(w.subscribers, req.SessionID)
		close(s.out)
	}
}

func (w *World) handleUnsubscribe(id string) {
	s, ok := w.subscribers[id]
	if !ok {
		return
	}
	delete(w.subscribers, id)
	close(s.out)
}

func (w *World) closeSubscribers() {
	for id, s := range w.subscribers {
		close(s.out)
		delete(w.subscribers, id)
	}
}
