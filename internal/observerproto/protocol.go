package observerproto

import (
	"encoding/base64"

	"voxelcore.dev/internal/sim/world"
	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/mesh"
	"voxelcore.dev/internal/sim/world/raycast"
)

// Version is the observer protocol version.
const Version = "1.0"

// MeshEncoding names the vertex layout of CHUNK_MESH payloads: base64 of
// little-endian 28-byte vertices (position 3xf32, uv 2xf32, rgba 4xu8,
// light u8, flags u8, 2 pad), six per quad.
const MeshEncoding = "VTX28_LE"

const (
	TypeSubscribe     = "SUBSCRIBE"
	TypeChunkMesh     = "CHUNK_MESH"
	TypeSetBlock      = "SET_BLOCK"
	TypeEditResult    = "EDIT_RESULT"
	TypeRaycast       = "RAYCAST"
	TypeRaycastResult = "RAYCAST_RESULT"
	TypeError         = "ERROR"
)

// Envelope is decoded first to route a client message by Type.
type Envelope struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// Client -> Server. First message on the observer WS connection, and can be
// re-sent to move the window of streamed chunks.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Center is a chunk key (cx, cz); ChunkRadius is a Chebyshev distance.
	Center      [2]int `json:"center"`
	ChunkRadius int    `json:"chunk_radius"`
	MaxChunks   int    `json:"max_chunks"`
}

// Contains reports whether chunk (cx, cz) lies inside the window.
func (s SubscribeMsg) Contains(cx, cz int) bool {
	dx, dz := cx-s.Center[0], cz-s.Center[1]
	return max(dx, -dx) <= s.ChunkRadius && max(dz, -dz) <= s.ChunkRadius
}

// HTTP response for GET /v1/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	BlockPalette    []string    `json:"block_palette"`
	MeshEncoding    string      `json:"mesh_encoding"`
}

type WorldParams struct {
	TickRateHz int        `json:"tick_rate_hz"`
	ChunkSize  [3]int     `json:"chunk_size"`
	Height     int        `json:"height"`
	Seed       int64      `json:"seed"`
	NoiseKind  string     `json:"noise_kind"`
	ChunkRange [4]int     `json:"chunk_range"`
	AOTable    [4]float32 `json:"ao_table"`
	Reach      float64    `json:"reach"`
}

// Server -> Client. One rebuilt chunk mesh.
type ChunkMeshMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Tick            uint64     `json:"tick"`
	CX              int        `json:"cx"`
	CZ              int        `json:"cz"`
	Encoding        string     `json:"encoding"`
	Faces           []FaceMesh `json:"faces"`
}

// FaceMesh is one direction's buckets. Empty directions are omitted.
type FaceMesh struct {
	Face             face.Face `json:"face"`
	OpaqueQuads      int       `json:"opaque_quads"`
	TranslucentQuads int       `json:"translucent_quads"`
	Opaque           string    `json:"opaque,omitempty"`
	Translucent      string    `json:"translucent,omitempty"`
}

// EncodeChunkMesh packs b for the wire.
func EncodeChunkMesh(tick uint64, b *mesh.Buckets) ChunkMeshMsg {
	msg := ChunkMeshMsg{
		Type:            TypeChunkMesh,
		ProtocolVersion: Version,
		Tick:            tick,
		CX:              b.Key.CX,
		CZ:              b.Key.CZ,
		Encoding:        MeshEncoding,
		Faces:           []FaceMesh{},
	}
	for _, f := range face.All {
		bk := b.Faces[f]
		if len(bk.Opaque) == 0 && len(bk.Translucent) == 0 {
			continue
		}
		fm := FaceMesh{Face: f, OpaqueQuads: len(bk.Opaque), TranslucentQuads: len(bk.Translucent)}
		if fm.OpaqueQuads > 0 {
			fm.Opaque = base64.StdEncoding.EncodeToString(mesh.PackVertices(b.Vertices(f, true)))
		}
		if fm.TranslucentQuads > 0 {
			fm.Translucent = base64.StdEncoding.EncodeToString(mesh.PackVertices(b.Vertices(f, false)))
		}
		msg.Faces = append(msg.Faces, fm)
	}
	return msg
}

// Client -> Server. Block is a palette name.
type SetBlockMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	Pos             [3]int `json:"pos"`
	Block           string `json:"block"`
}

// Server -> Client. Answer to SET_BLOCK.
type EditResultMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ReqID           string   `json:"req_id"`
	Tick            uint64   `json:"tick"`
	Applied         bool     `json:"applied"`
	Old             string   `json:"old"`
	Affected        [][2]int `json:"affected,omitempty"`
}

// Client -> Server. Target, when set, takes precedence over Dir and the
// server's reach.
type RaycastMsg struct {
	Type             string      `json:"type"`
	ProtocolVersion  string      `json:"protocol_version"`
	ReqID            string      `json:"req_id"`
	Origin           [3]float64  `json:"origin"`
	Dir              [3]float64  `json:"dir"`
	Target           *[3]float64 `json:"target,omitempty"`
	IncludeLastEmpty bool        `json:"include_last_empty,omitempty"`
}

// Server -> Client. Kind is "block" or "none"; with "none" and Hit true,
// Block is the last empty cell crossed.
type RaycastResultMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ReqID           string     `json:"req_id"`
	Hit             bool       `json:"hit"`
	Kind            string     `json:"kind,omitempty"`
	Block           [3]int     `json:"block"`
	Face            *face.Face `json:"face,omitempty"`
	Point           [3]float64 `json:"point"`
}

func EncodeRaycast(reqID string, r world.RaycastResult) RaycastResultMsg {
	msg := RaycastResultMsg{
		Type:            TypeRaycastResult,
		ProtocolVersion: Version,
		ReqID:           reqID,
		Hit:             r.Hit,
	}
	if !r.Hit {
		return msg
	}
	res := r.Result
	msg.Kind = res.Type.String()
	msg.Block = [3]int{res.Block.X, res.Block.Y, res.Block.Z}
	msg.Point = [3]float64{res.Hit[0], res.Hit[1], res.Hit[2]}
	if res.Type == raycast.Block {
		f := res.Face
		msg.Face = &f
	}
	return msg
}

// Server -> Client.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(reqID, code, message string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, ReqID: reqID, Code: code, Message: message}
}
