package exr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
)

// structuralAttrs are regenerated from the Header fields on every write
// and never carried forward from Header.Attributes.
var structuralAttrs = map[string]bool{
	"channels":      true,
	"compression":   true,
	"dataWindow":    true,
	"displayWindow": true,
	"lineOrder":     true,
}

// WriteFile serializes a scanline EXR to path. planes maps each channel
// name in hdr.Channels to its planar sample buffer (Width*Height samples
// of the channel's pixel type, scanline order).
func WriteFile(path string, hdr *Header, planes map[string][]byte) error {
	data, err := Encode(hdr, planes)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Encode serializes a scanline EXR file to memory.
func Encode(hdr *Header, planes map[string][]byte) ([]byte, error) {
	if hdr.Width <= 0 || hdr.Height <= 0 {
		return nil, errors.New("invalid EXR dimensions")
	}
	if len(hdr.Channels) == 0 {
		return nil, errors.New("EXR header has no channels")
	}
	if hdr.Compression != CompressionNone && hdr.Compression != CompressionZips && hdr.Compression != CompressionZip {
		return nil, fmt.Errorf("unsupported OpenEXR compression %d", hdr.Compression)
	}

	// The channel list must be stored alphabetically; scanline data
	// follows the stored order.
	channels := make([]Channel, len(hdr.Channels))
	copy(channels, hdr.Channels)
	sort.Slice(channels, func(i, j int) bool { return channels[i].Name < channels[j].Name })

	for _, ch := range channels {
		if !ch.Type.valid() {
			return nil, fmt.Errorf("channel %q has invalid pixel type", ch.Name)
		}
		want := hdr.Width * hdr.Height * ch.Type.Size()
		if len(planes[ch.Name]) != want {
			return nil, fmt.Errorf("channel %q buffer is %d bytes, want %d", ch.Name, len(planes[ch.Name]), want)
		}
	}

	var buf bytes.Buffer
	writeU32(&buf, exrMagic)
	writeU32(&buf, 2) // version: single-part scanline

	writeAttribute(&buf, "channels", "chlist", channelListPayload(channels))
	writeAttribute(&buf, "compression", "compression", []byte{hdr.Compression})
	window := box2iPayload(0, 0, int32(hdr.Width-1), int32(hdr.Height-1))
	writeAttribute(&buf, "dataWindow", "box2i", window)
	writeAttribute(&buf, "displayWindow", "box2i", window)
	writeAttribute(&buf, "lineOrder", "lineOrder", []byte{0})

	carried := map[string]bool{}
	for _, attr := range hdr.Attributes {
		if structuralAttrs[attr.Name] {
			continue
		}
		writeAttribute(&buf, attr.Name, attr.Type, attr.Value)
		carried[attr.Name] = true
	}

	// Required attributes the source may not have supplied.
	if !carried["pixelAspectRatio"] {
		writeAttribute(&buf, "pixelAspectRatio", "float", f32Payload(1))
	}
	if !carried["screenWindowCenter"] {
		writeAttribute(&buf, "screenWindowCenter", "v2f", append(f32Payload(0), f32Payload(0)...))
	}
	if !carried["screenWindowWidth"] {
		writeAttribute(&buf, "screenWindowWidth", "float", f32Payload(1))
	}
	buf.WriteByte(0) // end of header

	blockLines := hdr.blockLines()
	blockCount := (hdr.Height + blockLines - 1) / blockLines

	blocks := make([][]byte, blockCount)
	for b := 0; b < blockCount; b++ {
		startY := b * blockLines
		lines := blockLines
		if startY+lines > hdr.Height {
			lines = hdr.Height - startY
		}
		raw := interleaveBlock(hdr, channels, planes, startY, lines)
		packed, err := compressBlock(hdr.Compression, raw)
		if err != nil {
			return nil, err
		}
		blocks[b] = packed
	}

	offset := uint64(buf.Len()) + uint64(8*blockCount)
	for b := 0; b < blockCount; b++ {
		writeU64(&buf, offset)
		offset += uint64(8 + len(blocks[b]))
	}
	for b := 0; b < blockCount; b++ {
		writeU32(&buf, uint32(int32(b*blockLines)))
		writeU32(&buf, uint32(len(blocks[b])))
		buf.Write(blocks[b])
	}

	return buf.Bytes(), nil
}

// interleaveBlock assembles one uncompressed block: for each scanline,
// every channel's line back to back in channel-list order.
func interleaveBlock(hdr *Header, channels []Channel, planes map[string][]byte, startY, lines int) []byte {
	out := make([]byte, 0, blockBytes(hdr.Width, lines, channels))
	for row := 0; row < lines; row++ {
		y := startY + row
		for _, ch := range channels {
			lineBytes := hdr.Width * ch.Type.Size()
			out = append(out, planes[ch.Name][y*lineBytes:(y+1)*lineBytes]...)
		}
	}
	return out
}

func channelListPayload(channels []Channel) []byte {
	var buf bytes.Buffer
	for _, ch := range channels {
		buf.WriteString(ch.Name)
		buf.WriteByte(0)
		writeU32(&buf, uint32(int32(ch.Type)))
		if ch.PLinear {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		buf.Write([]byte{0, 0, 0}) // reserved
		writeU32(&buf, 1)          // xSampling
		writeU32(&buf, 1)          // ySampling
	}
	buf.WriteByte(0)
	return buf.Bytes()
}

func writeAttribute(buf *bytes.Buffer, name, typ string, payload []byte) {
	buf.WriteString(name)
	buf.WriteByte(0)
	buf.WriteString(typ)
	buf.WriteByte(0)
	writeU32(buf, uint32(len(payload)))
	buf.Write(payload)
}

func box2iPayload(xMin, yMin, xMax, yMax int32) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint32(out[0:4], uint32(xMin))
	binary.LittleEndian.PutUint32(out[4:8], uint32(yMin))
	binary.LittleEndian.PutUint32(out[8:12], uint32(xMax))
	binary.LittleEndian.PutUint32(out[12:16], uint32(yMax))
	return out
}

func f32Payload(v float32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, math.Float32bits(v))
	return out
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
