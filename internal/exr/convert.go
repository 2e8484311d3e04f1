package exr

import (
	"encoding/binary"
	"math"
)

// convertPlane re-encodes a planar sample buffer from one pixel type to
// another. Matching the behavior of OpenEXR channel reads, conversion
// goes through float32; uint results are clamped to [0, MaxUint32].
func convertPlane(src []byte, from, to PixelType) []byte {
	samples := len(src) / from.Size()
	dst := make([]byte, samples*to.Size())

	for i := 0; i < samples; i++ {
		var v float32
		switch from {
		case PixelHalf:
			v = halfToFloat32(binary.LittleEndian.Uint16(src[i*2:]))
		case PixelFloat:
			v = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		case PixelUint:
			v = float32(binary.LittleEndian.Uint32(src[i*4:]))
		}

		switch to {
		case PixelHalf:
			binary.LittleEndian.PutUint16(dst[i*2:], float32ToHalf(v))
		case PixelFloat:
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
		case PixelUint:
			binary.LittleEndian.PutUint32(dst[i*4:], clampUint32(v))
		}
	}
	return dst
}

func clampUint32(v float32) uint32 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= float32(math.MaxUint32) {
		return math.MaxUint32
	}
	return uint32(v)
}
