package catalogs

import (
	"encoding/json"

	"voxelcore.dev/internal/sim/world/kernel/face"
	"voxelcore.dev/internal/sim/world/kernel/model"
)

// Builtin returns a baked registry with AIR, DIRT (1) and GRASS (2) as plain
// cubes, for tools and tests that run without a config directory.
func Builtin() *Registry {
	atlas := NewGridAtlas([]string{"block/dirt", "block/grass_top", "block/grass_side"})
	r := NewRegistry()
	r.Palette = []string{"AIR", "DIRT", "GRASS"}
	for i, n := range r.Palette {
		r.Index[n] = uint8(i)
	}
	palJSON, _ := json.Marshal(r.Palette)
	r.PaletteDigest = sha256Hex(palJSON)

	_ = r.Register(1, CubeBlock("dirt", atlas, [6]string{
		"block/dirt", "block/dirt", "block/dirt", "block/dirt", "block/dirt", "block/dirt",
	}, false))
	_ = r.Register(2, CubeBlock("grass_block", atlas, [6]string{
		face.Top:    "block/grass_top",
		face.Bottom: "block/dirt",
		face.Left:   "block/grass_side",
		face.Right:  "block/grass_side",
		face.Front:  "block/grass_side",
		face.Back:   "block/grass_side",
	}, true))
	r.Bake()
	return r
}

// CubeBlock builds a full opaque cube that culls against any neighbour.
// tintTop marks the top face for tinting.
func CubeBlock(name string, atlas Atlas, textures [6]string, tintTop bool) *model.Block {
	e := model.Element{Cube: model.UnitCube}
	for _, f := range face.All {
		uv, ok := atlas.UV(textures[f])
		if !ok {
			uv = model.FullUV
		}
		cf := f
		e.Faces[f] = &model.ElementFace{
			Texture:  textures[f],
			UV:       uv,
			CullFace: &cf,
			Tint:     tintTop && f == face.Top,
			Opaque:   true,
		}
	}
	return model.NewBlock(name, []model.Element{e})
}
