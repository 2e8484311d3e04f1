package exr

import "math"

// halfToFloat32 expands a 16-bit half-precision value to float32,
// handling denormals, infinities and NaN.
func halfToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := int32(h>>10) & 0x1F
	mant := int32(h & 0x03FF)

	if exp == 0 {
		if mant == 0 {
			return math.Float32frombits(sign << 31)
		}
		for mant&0x0400 == 0 {
			mant <<= 1
			exp--
		}
		exp++
		mant &= 0x03FF
	} else if exp == 31 {
		if mant == 0 {
			return math.Float32frombits((sign << 31) | 0x7F800000)
		}
		return math.Float32frombits((sign << 31) | 0x7F800000 | (uint32(mant) << 13))
	}

	exp = exp + (127 - 15)
	mant <<= 13
	bits := (sign << 31) | (uint32(exp) << 23) | uint32(mant)
	return math.Float32frombits(bits)
}

// float32ToHalf compresses a float32 to a 16-bit half-precision value
// with round-to-nearest, clamping overflow to infinity.
func float32ToHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xFF) - 127 + 15
	mant := bits & 0x7FFFFF

	// Inf and NaN keep the all-ones exponent. A NaN must keep a
	// non-zero mantissa after truncation.
	if (bits>>23)&0xFF == 0xFF {
		if mant != 0 {
			m := uint16(mant >> 13)
			if m == 0 {
				m = 1
			}
			return sign | 0x7C00 | m
		}
		return sign | 0x7C00
	}

	if exp >= 31 {
		return sign | 0x7C00
	}

	if exp <= 0 {
		// Too small even for a denormal.
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint32(14 - exp)
		half := uint16(mant >> shift)
		if (mant>>(shift-1))&1 != 0 {
			half++
		}
		return sign | half
	}

	half := sign | uint16(exp<<10) | uint16(mant>>13)
	if mant&0x1000 != 0 {
		half++
	}
	return half
}
