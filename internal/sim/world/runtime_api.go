package world

import (
	"context"
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"voxelcore.dev/internal/sim/world/mesh"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

type EditRequest struct {
	Pos store.BlockPos
	ID  uint8
}

type editReq struct {
	EditRequest
	Resp chan EditResult
}

type raycastReq struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
	// Target, when set, replaces Dir and the configured reach.
	Target           *mgl64.Vec3
	IncludeLastEmpty bool
	Resp             chan RaycastResult
}

type subscribeReq struct {
	SessionID string
	Resp      chan SubscribeResult
}

// SubscribeResult hands a new subscriber the current meshes plus a channel
// of every later rebuild. The channel closes on Unsubscribe or when the
// world stops.
type SubscribeResult struct {
	Tick    uint64
	Updates <-chan MeshUpdate
	Initial []*mesh.Buckets
}

type snapshotReq struct {
	Resp chan snapshotResp
}

type snapshotResp struct {
	Tick uint64
	Err  string
}

var ErrNotRunning = errors.New("world: request channel not available")

// RequestSetBlock queues an edit for the next tick and waits for its result.
// It is safe to call from other goroutines.
func (w *World) RequestSetBlock(ctx context.Context, pos store.BlockPos, id uint8) (EditResult, error) {
	if w == nil || w.edits == nil {
		return EditResult{}, ErrNotRunning
	}
	resp := make(chan EditResult, 1)
	select {
	case w.edits <- editReq{EditRequest: EditRequest{Pos: pos, ID: id}, Resp: resp}:
	case <-ctx.Done():
		return EditResult{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r, nil
	case <-ctx.Done():
		return EditResult{}, ctx.Err()
	}
}

// RequestRaycast casts along dir with the configured reach on the loop
// goroutine.
func (w *World) RequestRaycast(ctx context.Context, origin, dir mgl64.Vec3, includeLastEmpty bool) (RaycastResult, error) {
	return w.requestRaycast(ctx, raycastReq{Origin: origin, Dir: dir, IncludeLastEmpty: includeLastEmpty})
}

func (w *World) RequestRaycastTo(ctx context.Context, origin, target mgl64.Vec3, includeLastEmpty bool) (RaycastResult, error) {
	return w.requestRaycast(ctx, raycastReq{Origin: origin, Target: &target, IncludeLastEmpty: includeLastEmpty})
}

func (w *World) requestRaycast(ctx context.Context, req raycastReq) (RaycastResult, error) {
	if w == nil || w.casts == nil {
		return RaycastResult{}, ErrNotRunning
	}
	req.Resp = make(chan RaycastResult, 1)
	select {
	case w.casts <- req:
	case <-ctx.Done():
		return RaycastResult{}, ctx.Err()
	}
	select {
	case r := <-req.Resp:
		return r, nil
	case <-ctx.Done():
		return RaycastResult{}, ctx.Err()
	}
}

// Subscribe registers sessionID for mesh updates. Subscribing an id twice
// replaces the earlier subscription and closes its channel.
func (w *World) Subscribe(ctx context.Context, sessionID string) (SubscribeResult, error) {
	if w == nil || w.subscribe == nil {
		return SubscribeResult{}, ErrNotRunning
	}
	if sessionID == "" {
		return SubscribeResult{}, errors.New("world: empty session id")
	}
	resp := make(chan SubscribeResult, 1)
	select {
	case w.subscribe <- subscribeReq{SessionID: sessionID, Resp: resp}:
	case <-ctx.Done():
		return SubscribeResult{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r, nil
	case <-ctx.Done():
		return SubscribeResult{}, ctx.Err()
	}
}

// Unsubscribe never blocks the caller for long: if the loop is gone the
// request is dropped.
func (w *World) Unsubscribe(sessionID string) {
	if w == nil || w.unsubscribe == nil {
		return
	}
	select {
	case w.unsubscribe <- sessionID:
	case <-w.stop:
	}
}

// RequestSnapshot asks the world loop goroutine to enqueue a snapshot.
// It is safe to call from other goroutines (e.g. HTTP handlers).
func (w *World) RequestSnapshot(ctx context.Context) (tick uint64, err error) {
	if w == nil || w.snapReq == nil {
		return 0, errors.New("snapshot not available")
	}
	resp := make(chan snapshotResp, 1)
	select {
	case w.snapReq <- snapshotReq{Resp: resp}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case r := <-resp:
		if r.Err != "" {
			return r.Tick, errors.New(r.Err)
		}
		return r.Tick, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (w *World) handleSnapshotRequests(reqs []snapshotReq) {
	if len(reqs) == 0 {
		return
	}
	// The tick just stepped is the one captured.
	tick := w.tick.Load() - 1
	res := snapshotResp{Tick: tick}
	switch {
	case w.snapshotSink == nil:
		res.Err = "snapshot sink not configured"
	case !w.enqueueSnapshot(tick):
		res.Err = "snapshot queue full"
	}
	for _, r := range reqs {
		select {
		case r.Resp <- res:
		default:
			// Client timed out; don't block the sim loop.
		}
	}
}

func (w *World) enqueueSnapshot(tick uint64) bool {
	if w.snapshotSink == nil {
		return false
	}
	snap := w.ExportSnapshot(tick)
	select {
	case w.snapshotSink <- snap:
		return true
	default:
		w.logger.Printf("world %s: snapshot queue full, skipped tick %d", w.cfg.ID, tick)
		return false
	}
}
