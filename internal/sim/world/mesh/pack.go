package mesh

import (
	"encoding/binary"
	"math"
)

// VertexSize is the byte length of one packed vertex:
// position 3xf32, uv 2xf32, rgba 4xu8, light u8, flags u8, 2 bytes padding.
const VertexSize = 28

// Flags packs the cube corner index into bits 0-2 and the face's normal
// table index into bits 3-5.
func (v Vertex) Flags() uint8 {
	return v.Corner&0x07 | uint8(v.Face.Index()&0x07)<<3
}

func unorm8(f float32) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 255
	}
	return uint8(math.Round(float64(f) * 255))
}

// PackVertices encodes vertices little-endian for upload.
func PackVertices(vs []Vertex) []byte {
	out := make([]byte, len(vs)*VertexSize)
	for i, v := range vs {
		b := out[i*VertexSize : (i+1)*VertexSize]
		binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v.Position[0]))
		binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v.Position[1]))
		binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v.Position[2]))
		binary.LittleEndian.PutUint32(b[12:], math.Float32bits(v.UV[0]))
		binary.LittleEndian.PutUint32(b[16:], math.Float32bits(v.UV[1]))
		for c := 0; c < 4; c++ {
			b[20+c] = unorm8(v.Color[c])
		}
		b[24] = v.Light
		b[25] = v.Flags()
	}
	return out
}
