package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/kernel/model"
)

var (
	ErrUnknownModel   = errors.New("unknown block model")
	ErrUnknownTexture = errors.New("unknown texture")
)

// Registry maps block ids to model geometry. Id 0 is air and never has a model.
type Registry struct {
	models   [256]*model.Block
	emission [256]uint8

	Palette       []string
	Index         map[string]uint8
	PaletteDigest string
	DefsDigest    string

	baked bool
}

func NewRegistry() *Registry {
	return &Registry{Index: map[string]uint8{}}
}

// Register stores geometry for id and invalidates baked occlusion.
func (r *Registry) Register(id uint8, b *model.Block) error {
	if id == 0 {
		return fmt.Errorf("block id 0 is reserved for air")
	}
	if b == nil {
		return fmt.Errorf("block %d: nil model", id)
	}
	r.models[id] = b
	r.baked = false
	return nil
}

func (r *Registry) Get(id uint8) (*model.Block, bool) {
	b := r.models[id]
	return b, b != nil
}

func (r *Registry) IsOpaque(id uint8) bool {
	b := r.models[id]
	return b != nil && b.IsOpaque()
}

// Bounds is the model's bounding cuboid, used for ray intercepts.
func (r *Registry) Bounds(id uint8) (model.Cuboid, bool) {
	b := r.models[id]
	if b == nil {
		return model.Cuboid{}, false
	}
	return b.Bounds, true
}

// TransmitsLight reports whether light can enter block id through its face f.
func (r *Registry) TransmitsLight(id uint8, f face.Face) bool {
	b := r.models[id]
	if b == nil {
		return true
	}
	return !b.FaceOpaque(f)
}

// Emission is the block-light level a block of this id emits.
func (r *Registry) Emission(id uint8) uint8 { return r.emission[id] }

// SetEmission overrides the emitted light level, clamped to 15.
func (r *Registry) SetEmission(id uint8, level uint8) {
	r.emission[id] = min(level, 15)
}

// Name returns the palette name for id, or "" if unnamed.
func (r *Registry) Name(id uint8) string {
	if int(id) < len(r.Palette) {
		return r.Palette[id]
	}
	return ""
}

func (r *Registry) Baked() bool { return r.baked }

type blockDef struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model,omitempty"`
	Light uint8  `json:"light,omitempty"`
}

// Load reads blocks.json and the models directory under configDir, resolves
// textures through atlas and bakes cull tables. A nil atlas builds a
// GridAtlas over every referenced texture.
func Load(configDir string, atlas Atlas) (*Registry, error) {
	defs, raw, err := loadBlockDefs(filepath.Join(configDir, "blocks.json"))
	if err != nil {
		return nil, err
	}

	r := NewRegistry()
	r.DefsDigest = sha256Hex(raw)

	maxID := 0
	for _, d := range defs {
		maxID = max(maxID, d.ID)
	}
	r.Palette = make([]string, maxID+1)
	for _, d := range defs {
		r.Palette[d.ID] = d.Name
		r.Index[d.Name] = uint8(d.ID)
		r.emission[d.ID] = d.Light
	}
	palJSON, _ := json.Marshal(r.Palette)
	r.PaletteDigest = sha256Hex(palJSON)

	ml, err := newModelLoader(filepath.Join(configDir, "models"))
	if err != nil {
		return nil, err
	}
	resolved := make(map[uint8]*resolvedModel, len(defs))
	for _, d := range defs {
		if d.Model == "" {
			continue
		}
		rm, err := ml.resolve(d.Model)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", d.Name, err)
		}
		resolved[uint8(d.ID)] = rm
	}

	if atlas == nil {
		var names []string
		for _, rm := range resolved {
			names = append(names, rm.textureNames()...)
		}
		atlas = NewGridAtlas(names)
	}

	for id, rm := range resolved {
		b, err := rm.build(r.Palette[id], atlas)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", r.Palette[id], err)
		}
		if err := r.Register(id, b); err != nil {
			return nil, err
		}
	}
	r.Bake()
	return r, nil
}

func loadBlockDefs(path string) ([]blockDef, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if err := validateJSON(blocksSchema, raw); err != nil {
		return nil, nil, fmt.Errorf("blocks.json: %w", err)
	}
	var defs []blockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, nil, fmt.Errorf("blocks.json: %w", err)
	}

	seenID := map[int]string{}
	seenName := map[string]bool{}
	hasAir := false
	for _, d := range defs {
		if prev, ok := seenID[d.ID]; ok {
			return nil, nil, fmt.Errorf("blocks.json: id %d used by %s and %s", d.ID, prev, d.Name)
		}
		if seenName[d.Name] {
			return nil, nil, fmt.Errorf("blocks.json: duplicate name %s", d.Name)
		}
		seenID[d.ID] = d.Name
		seenName[d.Name] = true
		if d.ID == 0 {
			if d.Name != "AIR" || d.Model != "" {
				return nil, nil, fmt.Errorf("blocks.json: id 0 must be AIR without a model")
			}
			hasAir = true
		}
	}
	if !hasAir {
		return nil, nil, fmt.Errorf("blocks.json: missing AIR")
	}
	return defs, raw, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
