// Package gen provides coherent density fields for surface generation.
// A cell is solid wherever its field value is positive.
package gen

import (
	"fmt"
	"strings"

	perlin "github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Field samples density at a world cell.
type Field interface {
	Density(wx, y, wz int) float64
}

// Scale normalizes world cells before noise lookup: x and z per chunk width,
// y per world height.
type Scale struct {
	Horizontal float64
	Vertical   float64
}

var DefaultScale = Scale{Horizontal: 16, Vertical: 256}

type Options struct {
	Kind    string // "perlin", "simplex" or "flat"
	Seed    int64
	Octaves int
	// Alpha divides amplitude per octave; Beta multiplies frequency.
	Alpha float64
	Beta  float64
	// VerticalBias pulls density down with height; 0 leaves the raw noise.
	VerticalBias float64
	FlatHeight   int
	Scale        Scale
}

func (o *Options) applyDefaults() {
	if o.Kind == "" {
		o.Kind = "perlin"
	}
	if o.Octaves <= 0 {
		o.Octaves = 6
	}
	if o.Alpha == 0 {
		o.Alpha = 2
	}
	if o.Beta == 0 {
		o.Beta = 2
	}
	if o.Scale.Horizontal == 0 {
		o.Scale.Horizontal = DefaultScale.Horizontal
	}
	if o.Scale.Vertical == 0 {
		o.Scale.Vertical = DefaultScale.Vertical
	}
}

func New(opts Options) (Field, error) {
	opts.applyDefaults()
	switch strings.ToLower(opts.Kind) {
	case "perlin":
		return &Perlin{
			noise: perlin.NewPerlin(opts.Alpha, opts.Beta, int32(opts.Octaves), opts.Seed),
			scale: opts.Scale,
			bias:  opts.VerticalBias,
		}, nil
	case "simplex":
		return &Simplex{
			noise:   opensimplex.New(opts.Seed),
			octaves: opts.Octaves,
			alpha:   opts.Alpha,
			beta:    opts.Beta,
			scale:   opts.Scale,
			bias:    opts.VerticalBias,
		}, nil
	case "flat":
		return Flat{Height: opts.FlatHeight}, nil
	}
	return nil, fmt.Errorf("unknown noise kind %q", opts.Kind)
}

// Perlin is fractal Perlin noise.
type Perlin struct {
	noise *perlin.Perlin
	scale Scale
	bias  float64
}

func (p *Perlin) Density(wx, y, wz int) float64 {
	yn := float64(y) / p.scale.Vertical
	v := p.noise.Noise3D(float64(wx)/p.scale.Horizontal, yn, float64(wz)/p.scale.Horizontal)
	return v - p.bias*(yn-0.5)
}

// Simplex sums octaves of OpenSimplex noise.
type Simplex struct {
	noise   opensimplex.Noise
	octaves int
	alpha   float64
	beta    float64
	scale   Scale
	bias    float64
}

func (s *Simplex) Density(wx, y, wz int) float64 {
	x := float64(wx) / s.scale.Horizontal
	yn := float64(y) / s.scale.Vertical
	z := float64(wz) / s.scale.Horizontal

	var sum float64
	amp, freq := 1.0, 1.0
	for i := 0; i < s.octaves; i++ {
		sum += s.noise.Eval3(x*freq, yn*freq, z*freq) * amp
		amp /= s.alpha
		freq *= s.beta
	}
	return sum - s.bias*(yn-0.5)
}

// Flat is solid up to and including Height.
type Flat struct {
	Height int
}

func (f Flat) Density(_, y, _ int) float64 {
	return float64(f.Height-y) + 0.5
}
