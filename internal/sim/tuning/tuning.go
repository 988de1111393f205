package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	Seed       int64 `yaml:"seed"`
	TickRateHz int   `yaml:"tick_rate_hz"`
	PhysicsHz  int   `yaml:"physics_hz"`

	// ChunkRange is xmin, xmax, zmin, zmax in chunk units; max is exclusive.
	ChunkRange [4]int `yaml:"chunk_range"`

	Noise   Noise   `yaml:"noise"`
	Light   Light   `yaml:"light"`
	Mesh    Mesh    `yaml:"mesh"`
	Player  Player  `yaml:"player"`
	Raycast Raycast `yaml:"raycast"`

	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
}

type Noise struct {
	Kind         string  `yaml:"kind"`
	Octaves      int     `yaml:"octaves"`
	Alpha        float64 `yaml:"alpha"`
	Beta         float64 `yaml:"beta"`
	VerticalBias float64 `yaml:"vertical_bias"`
	FlatHeight   int     `yaml:"flat_height"`
}

type Light struct {
	Enabled bool `yaml:"enabled"`
}

type Mesh struct {
	AOTable [4]float32 `yaml:"ao_table"`
}

type Player struct {
	HalfWidth    float32 `yaml:"half_width"`
	Height       float32 `yaml:"height"`
	Gravity      float32 `yaml:"gravity"`
	JumpVelocity float32 `yaml:"jump_velocity"`
}

type Raycast struct {
	Reach float64 `yaml:"reach"`
}

func Defaults() Tuning {
	return Tuning{
		Seed:       1337,
		TickRateHz: 20,
		PhysicsHz:  60,
		ChunkRange: [4]int{-4, 4, -4, 4},
		Noise: Noise{
			Kind:    "perlin",
			Octaves: 6,
			Alpha:   2,
			Beta:    2,
		},
		Light: Light{Enabled: true},
		Mesh:  Mesh{AOTable: [4]float32{0.1, 0.25, 0.5, 1.0}},
		Player: Player{
			HalfWidth:    0.5,
			Height:       2,
			Gravity:      9.81 * 1.5,
			JumpVelocity: 5,
		},
		Raycast:            Raycast{Reach: 5},
		SnapshotEveryTicks: 6000,
	}
}

// Load reads path over Defaults, so omitted keys keep their default values.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 || t.TickRateHz > 1000 {
		return fmt.Errorf("tick_rate_hz out of range: %d", t.TickRateHz)
	}
	if t.PhysicsHz <= 0 || t.PhysicsHz > 1000 {
		return fmt.Errorf("physics_hz out of range: %d", t.PhysicsHz)
	}
	r := t.ChunkRange
	if r[0] >= r[1] || r[2] >= r[3] {
		return fmt.Errorf("chunk_range is empty: %v", r)
	}
	if (r[1]-r[0])*(r[3]-r[2]) > 64*64 {
		return fmt.Errorf("chunk_range too large: %v", r)
	}
	switch t.Noise.Kind {
	case "perlin", "simplex", "flat":
	default:
		return fmt.Errorf("noise.kind must be perlin, simplex or flat: %q", t.Noise.Kind)
	}
	for i, v := range t.Mesh.AOTable {
		if v < 0 || v > 1 {
			return fmt.Errorf("mesh.ao_table[%d] out of [0,1]: %v", i, v)
		}
		if i > 0 && v < t.Mesh.AOTable[i-1] {
			return fmt.Errorf("mesh.ao_table must be ascending: %v", t.Mesh.AOTable)
		}
	}
	if t.Player.HalfWidth <= 0 || t.Player.Height <= 0 {
		return fmt.Errorf("player box must be positive: %+v", t.Player)
	}
	if t.Raycast.Reach <= 0 {
		return fmt.Errorf("raycast.reach must be positive: %v", t.Raycast.Reach)
	}
	return nil
}
