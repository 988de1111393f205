package catalogs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/kernel/model"
)

type rawModel struct {
	Parent           string            `json:"parent,omitempty"`
	AmbientOcclusion *bool             `json:"ambient_occlusion,omitempty"`
	TintColor        string            `json:"tint_color,omitempty"`
	Textures         map[string]string `json:"textures,omitempty"`
	Elements         []rawElement      `json:"elements,omitempty"`
}

type rawElement struct {
	From     [3]float32          `json:"from"`
	To       [3]float32          `json:"to"`
	Rotation *rawRotation        `json:"rotation,omitempty"`
	Faces    map[string]*rawFace `json:"faces"`
}

type rawRotation struct {
	Origin [3]float32 `json:"origin"`
	Axis   string     `json:"axis"`
	Angle  float32    `json:"angle"`
}

type rawFace struct {
	Texture  string      `json:"texture"`
	UV       *[4]float32 `json:"uv,omitempty"`
	CullFace string      `json:"cull_face,omitempty"`
	Tint     bool        `json:"tint,omitempty"`
	Opaque   *bool       `json:"opaque,omitempty"`
}

// resolvedModel is a model with its parent chain folded in.
type resolvedModel struct {
	name     string
	ao       bool
	tint     [3]uint8
	textures map[string]string
	elements []rawElement
}

type modelLoader struct {
	dir   string
	cache map[string]*resolvedModel
}

func newModelLoader(dir string) (*modelLoader, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", dir)
	}
	return &modelLoader{dir: dir, cache: map[string]*resolvedModel{}}, nil
}

func (l *modelLoader) read(name string) (rawModel, error) {
	var m rawModel
	raw, err := os.ReadFile(filepath.Join(l.dir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return m, fmt.Errorf("%w: %s", ErrUnknownModel, name)
		}
		return m, err
	}
	if err := validateJSON(modelSchema, raw); err != nil {
		return m, fmt.Errorf("model %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("model %s: %w", name, err)
	}
	return m, nil
}

func (l *modelLoader) resolve(name string) (*resolvedModel, error) {
	return l.resolveChain(name, map[string]bool{})
}

func (l *modelLoader) resolveChain(name string, visiting map[string]bool) (*resolvedModel, error) {
	if rm, ok := l.cache[name]; ok {
		return rm, nil
	}
	if visiting[name] {
		return nil, fmt.Errorf("model %s: parent cycle", name)
	}
	visiting[name] = true

	m, err := l.read(name)
	if err != nil {
		return nil, err
	}

	rm := &resolvedModel{
		name:     name,
		ao:       true,
		tint:     [3]uint8{0x91, 0xBD, 0x59},
		textures: map[string]string{},
	}
	if m.Parent != "" {
		parent, err := l.resolveChain(m.Parent, visiting)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
		rm.ao = parent.ao
		rm.tint = parent.tint
		for k, v := range parent.textures {
			rm.textures[k] = v
		}
		rm.elements = parent.elements
	}
	if m.AmbientOcclusion != nil {
		rm.ao = *m.AmbientOcclusion
	}
	if m.TintColor != "" {
		c, err := parseHexColor(m.TintColor)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
		rm.tint = c
	}
	for k, v := range m.Textures {
		rm.textures[k] = v
	}
	if len(m.Elements) > 0 {
		rm.elements = m.Elements
	}

	l.cache[name] = rm
	return rm, nil
}

// texture follows #variable references until a concrete name is found.
func (rm *resolvedModel) texture(ref string) (string, error) {
	seen := map[string]bool{}
	for strings.HasPrefix(ref, "#") {
		key := strings.TrimPrefix(ref, "#")
		if seen[key] {
			return "", fmt.Errorf("model %s: texture variable cycle at #%s", rm.name, key)
		}
		seen[key] = true
		next, ok := rm.textures[key]
		if !ok {
			return "", fmt.Errorf("model %s: undefined texture variable #%s", rm.name, key)
		}
		ref = next
	}
	return ref, nil
}

func (rm *resolvedModel) textureNames() []string {
	var out []string
	for _, e := range rm.elements {
		for _, f := range e.Faces {
			if n, err := rm.texture(f.Texture); err == nil {
				out = append(out, n)
			}
		}
	}
	return out
}

func (rm *resolvedModel) build(name string, atlas Atlas) (*model.Block, error) {
	elements := make([]model.Element, 0, len(rm.elements))
	for i, re := range rm.elements {
		e := model.Element{
			Cube: model.Cuboid{
				Min: mgl32.Vec3{re.From[0] / 16, re.From[1] / 16, re.From[2] / 16},
				Max: mgl32.Vec3{re.To[0] / 16, re.To[1] / 16, re.To[2] / 16},
			},
		}
		for k := 0; k < 3; k++ {
			if e.Cube.Min[k] > e.Cube.Max[k] {
				return nil, fmt.Errorf("element %d: from > to on axis %d", i, k)
			}
		}
		if re.Rotation != nil {
			axis, err := face.ParseAxis(re.Rotation.Axis)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			o := re.Rotation.Origin
			e.Rotation = &model.Rotation{
				Origin: mgl32.Vec3{o[0] / 16, o[1] / 16, o[2] / 16},
				Axis:   axis,
				Angle:  re.Rotation.Angle,
			}
		}

		// "all" first so explicit faces override it.
		keys := make([]string, 0, len(re.Faces))
		for k := range re.Faces {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(a, b int) bool {
			if keys[a] == "all" || keys[b] == "all" {
				return keys[a] == "all" && keys[b] != "all"
			}
			return keys[a] < keys[b]
		})
		for _, key := range keys {
			rf := re.Faces[key]
			targets := face.All[:]
			if key != "all" {
				f, err := face.Parse(key)
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
				targets = []face.Face{f}
			}
			for _, f := range targets {
				ef, err := rm.buildFace(f, rf, atlas)
				if err != nil {
					return nil, fmt.Errorf("element %d %s: %w", i, f, err)
				}
				e.Faces[f] = ef
			}
		}
		elements = append(elements, e)
	}

	b := model.NewBlock(name, elements)
	b.AmbientOcclusion = rm.ao
	b.TintColor = rm.tint
	return b, nil
}

func (rm *resolvedModel) buildFace(f face.Face, rf *rawFace, atlas Atlas) (*model.ElementFace, error) {
	tex, err := rm.texture(rf.Texture)
	if err != nil {
		return nil, err
	}
	rect, ok := atlas.UV(tex)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTexture, tex)
	}
	if rf.UV != nil {
		uv := *rf.UV
		rect = rect.Sub(model.UVRect{
			Offset: mgl32.Vec2{uv[0] / 16, uv[1] / 16},
			Scale:  mgl32.Vec2{(uv[2] - uv[0]) / 16, (uv[3] - uv[1]) / 16},
		})
	}
	ef := &model.ElementFace{
		Texture: tex,
		UV:      rect,
		Tint:    rf.Tint,
		Opaque:  rf.Opaque == nil || *rf.Opaque,
	}
	switch rf.CullFace {
	case "":
	case "self":
		cf := f
		ef.CullFace = &cf
	default:
		cf, err := face.Parse(rf.CullFace)
		if err != nil {
			return nil, err
		}
		ef.CullFace = &cf
	}
	return ef, nil
}

func parseHexColor(s string) ([3]uint8, error) {
	var c [3]uint8
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil || len(s) != 7 {
		return c, fmt.Errorf("bad color %q", s)
	}
	c[0], c[1], c[2] = uint8(v>>16), uint8(v>>8), uint8(v)
	return c, nil
}
