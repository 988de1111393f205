package observer

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voxelcore.dev/internal/observerproto"
	"voxelcore.dev/internal/sim/world"
	"voxelcore.dev/internal/sim/world/terrain/store"
)

type Server struct {
	world *world.World
	log   *log.Logger

	// AllowRemote disables the loopback-only guard.
	AllowRemote bool

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 256 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) allowed(r *http.Request) bool {
	return s.AllowRemote || isLoopbackRemote(r.RemoteAddr)
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		cfg := s.world.Config()
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			WorldID:         cfg.ID,
			Tick:            s.world.CurrentTick(),
			WorldParams: observerproto.WorldParams{
				TickRateHz: cfg.TickRateHz,
				ChunkSize:  [3]int{store.ChunkSize, store.ChunkSize, store.Height},
				Height:     store.Height,
				Seed:       cfg.Seed,
				NoiseKind:  cfg.Noise.Kind,
				ChunkRange: cfg.ChunkRange,
				AOTable:    cfg.AOTable,
				Reach:      cfg.Reach,
			},
			BlockPalette: s.world.Blocks().Palette,
			MeshEncoding: observerproto.MeshEncoding,
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

// window is what the forwarder needs to (re)start streaming.
type window struct {
	sub observerproto.SubscribeMsg
	res world.SubscribeResult
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		if sub.Type != observerproto.TypeSubscribe || sub.ProtocolVersion != observerproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}
		normalizeSubscribe(&sub)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sid := uuid.NewString()
		res, err := s.subscribe(ctx, sid)
		if err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
			return
		}
		defer s.world.Unsubscribe(sid)
		if s.log != nil {
			s.log.Printf("observer %s connected from %s", sid, r.RemoteAddr)
		}

		out := make(chan []byte, 256)
		windows := make(chan window, 1)
		windows <- window{sub: sub, res: res}

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						cancel()
						return
					}
				}
			}
		}()
		go s.forward(ctx, windows, out)

		// Reader loop: SUBSCRIBE moves the window, the rest are requests.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if !s.handleMessage(ctx, sid, msg, out, windows) {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		if s.log != nil {
			s.log.Printf("observer %s disconnected", sid)
		}
	}
}

func (s *Server) subscribe(ctx context.Context, sid string) (world.SubscribeResult, error) {
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.world.Subscribe(sctx, sid)
}

// handleMessage returns false when the connection should close.
func (s *Server) handleMessage(ctx context.Context, sid string, msg []byte, out chan<- []byte, windows chan<- window) bool {
	var env observerproto.Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return send(ctx, out, observerproto.NewError("", "BAD_REQUEST", "invalid json"))
	}
	if env.ProtocolVersion != observerproto.Version {
		return send(ctx, out, observerproto.NewError("", "BAD_VERSION", "unsupported protocol_version "+env.ProtocolVersion))
	}

	switch env.Type {
	case observerproto.TypeSubscribe:
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			return send(ctx, out, observerproto.NewError("", "BAD_REQUEST", err.Error()))
		}
		normalizeSubscribe(&sub)
		// Resubscribing replaces the stream and yields a fresh initial set.
		res, err := s.subscribe(ctx, sid)
		if err != nil {
			return false
		}
		select {
		case windows <- window{sub: sub, res: res}:
		case <-ctx.Done():
			return false
		}
		return true

	case observerproto.TypeSetBlock:
		var m observerproto.SetBlockMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return send(ctx, out, observerproto.NewError("", "BAD_REQUEST", err.Error()))
		}
		return send(ctx, out, s.setBlock(ctx, m))

	case observerproto.TypeRaycast:
		var m observerproto.RaycastMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			return send(ctx, out, observerproto.NewError("", "BAD_REQUEST", err.Error()))
		}
		return send(ctx, out, s.raycast(ctx, m))

	default:
		return send(ctx, out, observerproto.NewError("", "BAD_REQUEST", "unknown type "+env.Type))
	}
}

func (s *Server) setBlock(ctx context.Context, m observerproto.SetBlockMsg) any {
	blocks := s.world.Blocks()
	id, ok := blocks.Index[m.Block]
	if !ok {
		return observerproto.NewError(m.ReqID, "BAD_BLOCK", "unknown block "+m.Block)
	}
	rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := s.world.RequestSetBlock(rctx, store.BlockPos{X: m.Pos[0], Y: m.Pos[1], Z: m.Pos[2]}, id)
	if err != nil {
		return observerproto.NewError(m.ReqID, "UNAVAILABLE", err.Error())
	}
	resp := observerproto.EditResultMsg{
		Type:            observerproto.TypeEditResult,
		ProtocolVersion: observerproto.Version,
		ReqID:           m.ReqID,
		Tick:            res.Tick,
		Applied:         res.Applied,
		Old:             blocks.Name(res.Old),
	}
	for _, k := range res.Affected {
		resp.Affected = append(resp.Affected, [2]int{k.CX, k.CZ})
	}
	return resp
}

func (s *Server) raycast(ctx context.Context, m observerproto.RaycastMsg) any {
	rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	origin := mgl64.Vec3(m.Origin)
	var (
		res world.RaycastResult
		err error
	)
	if m.Target != nil {
		res, err = s.world.RequestRaycastTo(rctx, origin, mgl64.Vec3(*m.Target), m.IncludeLastEmpty)
	} else {
		res, err = s.world.RequestRaycast(rctx, origin, mgl64.Vec3(m.Dir), m.IncludeLastEmpty)
	}
	if err != nil {
		return observerproto.NewError(m.ReqID, "UNAVAILABLE", err.Error())
	}
	return observerproto.EncodeRaycast(m.ReqID, res)
}

// forward streams the initial meshes of each new window followed by every
// rebuild inside it.
func (s *Server) forward(ctx context.Context, windows <-chan window, out chan<- []byte) {
	var (
		updates <-chan world.MeshUpdate
		sub     observerproto.SubscribeMsg
	)
	for {
		select {
		case <-ctx.Done():
			return
		case w := <-windows:
			sub, updates = w.sub, w.res.Updates
			sent := 0
			for _, b := range w.res.Initial {
				if sent >= sub.MaxChunks {
					break
				}
				if !sub.Contains(b.Key.CX, b.Key.CZ) {
					continue
				}
				if !send(ctx, out, observerproto.EncodeChunkMesh(w.res.Tick, b)) {
					return
				}
				sent++
			}
		case u, ok := <-updates:
			if !ok {
				// Replaced by a resubscribe, or the world stopped.
				updates = nil
				continue
			}
			if !sub.Contains(u.Chunk.CX, u.Chunk.CZ) {
				continue
			}
			if !send(ctx, out, observerproto.EncodeChunkMesh(u.Tick, u.Mesh)) {
				return
			}
		}
	}
}

func send(ctx context.Context, out chan<- []byte, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	select {
	case out <- b:
		return true
	case <-ctx.Done():
		return false
	}
}

func normalizeSubscribe(sub *observerproto.SubscribeMsg) {
	if sub.ChunkRadius <= 0 {
		sub.ChunkRadius = 6
	}
	if sub.ChunkRadius > 32 {
		sub.ChunkRadius = 32
	}
	if sub.MaxChunks <= 0 {
		sub.MaxChunks = 1024
	}
	if sub.MaxChunks > 16384 {
		sub.MaxChunks = 16384
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
