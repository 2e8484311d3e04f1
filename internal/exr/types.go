package exr

import "fmt"

// PixelType identifies the storage type of one channel's samples,
// using the numeric values from the OpenEXR file format.
type PixelType int32

const (
	// PixelUint is a 32-bit unsigned integer sample.
	PixelUint PixelType = 0

	// PixelHalf is a 16-bit IEEE 754 half-precision float sample.
	PixelHalf PixelType = 1

	// PixelFloat is a 32-bit IEEE 754 single-precision float sample.
	PixelFloat PixelType = 2
)

// Size returns the number of bytes one sample occupies.
func (p PixelType) Size() int {
	if p == PixelHalf {
		return 2
	}
	return 4
}

// String returns the OpenEXR name of the pixel type.
func (p PixelType) String() string {
	switch p {
	case PixelUint:
		return "uint"
	case PixelHalf:
		return "half"
	case PixelFloat:
		return "float"
	default:
		return fmt.Sprintf("pixeltype(%d)", int32(p))
	}
}

func (p PixelType) valid() bool {
	return p == PixelUint || p == PixelHalf || p == PixelFloat
}

// Compression identifiers from the OpenEXR file format. Only the
// schemes the codec implements are listed.
const (
	CompressionNone byte = 0
	CompressionZips byte = 2
	CompressionZip  byte = 3
)

// Channel is one entry of a file's channel list.
type Channel struct {
	// Name is the raw channel label as declared in the header.
	Name string

	// Type is the sample storage type.
	Type PixelType

	// PLinear is the perceptual-linearity hint carried by the format.
	PLinear bool

	// XSampling and YSampling are the subsampling factors. The codec
	// only accepts 1/1.
	XSampling int32
	YSampling int32
}

// Attribute is one header attribute, preserved exactly as stored in the
// file: name, type name and raw payload bytes. Keeping attributes opaque
// lets a derived output header carry forward metadata the codec does not
// interpret.
type Attribute struct {
	Name  string
	Type  string
	Value []byte
}

// Header describes a scanline EXR file: its dimensions, compression,
// channel list, and the complete ordered attribute set as read from the
// file. Structural attributes (channels, dataWindow, displayWindow,
// lineOrder, compression) are regenerated on write, so a derived header
// only needs Width, Height, Compression, Channels and whatever extra
// Attributes should be carried forward.
type Header struct {
	Width  int
	Height int

	// Compression is the block compression scheme.
	Compression byte

	// Channels is the channel list in file order. Valid files store it
	// alphabetically; the writer enforces that ordering.
	Channels []Channel

	// DataWindow is the source data window (xMin, yMin, xMax, yMax).
	DataWindow [4]int32

	// Attributes holds every attribute in file order, including the
	// structural ones.
	Attributes []Attribute
}

// Attribute returns the named attribute, or nil if absent.
func (h *Header) Attribute(name string) *Attribute {
	for i := range h.Attributes {
		if h.Attributes[i].Name == name {
			return &h.Attributes[i]
		}
	}
	return nil
}

// Channel returns the channel with the given name, or nil if absent.
func (h *Header) Channel(name string) *Channel {
	for i := range h.Channels {
		if h.Channels[i].Name == name {
			return &h.Channels[i]
		}
	}
	return nil
}

// blockLines returns the number of scanlines per compressed block for
// the header's compression scheme.
func (h *Header) blockLines() int {
	if h.Compression == CompressionZip {
		return 16
	}
	return 1
}
