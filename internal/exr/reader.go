package exr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const exrMagic = 20000630

const (
	versionTiled     = 0x00000200
	versionDeep      = 0x00000400
	versionMultipart = 0x00000800
)

// ErrNotEXR is returned when a file does not start with the OpenEXR
// magic number.
var ErrNotEXR = errors.New("not an OpenEXR file")

// File is an open EXR file. The entire file is held in memory; channel
// data is decoded lazily, once, on the first ReadChannel call.
type File struct {
	r       *bytes.Reader
	hdr     *Header
	offsets []uint64

	// planes caches decoded planar buffers per channel, in each
	// channel's declared pixel type.
	planes map[string][]byte
}

// OpenFile reads the file at path and parses its header and block
// offset table. No pixel data is decoded until ReadChannel is called.
func OpenFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ReadHeader parses only the header of the file at path.
func ReadHeader(path string) (*Header, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	return f.Header(), nil
}

// Decode parses an in-memory EXR file.
func Decode(data []byte) (*File, error) {
	r := bytes.NewReader(data)
	magic, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if magic != exrMagic {
		return nil, ErrNotEXR
	}
	version, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if version&versionTiled != 0 {
		return nil, errors.New("tiled OpenEXR not supported")
	}
	if version&versionMultipart != 0 {
		return nil, errors.New("multipart OpenEXR not supported")
	}
	if version&versionDeep != 0 {
		return nil, errors.New("deep OpenEXR not supported")
	}

	hdr := &Header{Compression: CompressionNone}
	var hasDataWindow bool

	for {
		name, err := readNullString(r)
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}
		typ, err := readNullString(r)
		if err != nil {
			return nil, err
		}
		size, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if size < 0 || int64(size) > int64(r.Len()) {
			return nil, errors.New("invalid EXR attribute size")
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
		hdr.Attributes = append(hdr.Attributes, Attribute{Name: name, Type: typ, Value: payload})

		switch name {
		case "channels":
			if typ != "chlist" {
				return nil, errors.New("unexpected channels attribute type")
			}
			ch, err := parseChannelList(payload)
			if err != nil {
				return nil, err
			}
			hdr.Channels = ch
		case "dataWindow":
			if typ != "box2i" {
				return nil, errors.New("unexpected dataWindow attribute type")
			}
			if len(payload) != 16 {
				return nil, errors.New("invalid dataWindow payload")
			}
			for i := 0; i < 4; i++ {
				hdr.DataWindow[i] = int32(binary.LittleEndian.Uint32(payload[i*4 : i*4+4]))
			}
			hasDataWindow = true
		case "compression":
			if typ != "compression" || len(payload) < 1 {
				return nil, errors.New("invalid compression attribute")
			}
			hdr.Compression = payload[0]
		case "tiles":
			return nil, errors.New("tiled OpenEXR not supported")
		}
	}

	if len(hdr.Channels) == 0 {
		return nil, errors.New("OpenEXR missing channels")
	}
	if !hasDataWindow {
		return nil, errors.New("OpenEXR missing dataWindow")
	}
	for _, ch := range hdr.Channels {
		if ch.XSampling != 1 || ch.YSampling != 1 {
			return nil, errors.New("OpenEXR subsampled channels are not supported")
		}
	}
	if hdr.Compression != CompressionNone && hdr.Compression != CompressionZips && hdr.Compression != CompressionZip {
		return nil, fmt.Errorf("unsupported OpenEXR compression %d", hdr.Compression)
	}

	hdr.Width = int(hdr.DataWindow[2]-hdr.DataWindow[0]) + 1
	hdr.Height = int(hdr.DataWindow[3]-hdr.DataWindow[1]) + 1
	if hdr.Width <= 0 || hdr.Height <= 0 {
		return nil, errors.New("invalid OpenEXR dimensions")
	}

	blockCount := (hdr.Height + hdr.blockLines() - 1) / hdr.blockLines()
	offsets := make([]uint64, blockCount)
	for i := range offsets {
		v, err := readU64(r)
		if err != nil {
			return nil, err
		}
		offsets[i] = v
	}

	return &File{r: r, hdr: hdr, offsets: offsets}, nil
}

// Header returns the parsed header. The returned value is shared with
// the File and must not be modified.
func (f *File) Header() *Header {
	return f.hdr
}

// ReadChannel returns the planar pixel buffer for one channel, converted
// to the requested pixel type. The buffer holds Width*Height samples in
// scanline order. When the requested type matches the declared type the
// cached buffer is returned directly and must not be modified.
func (f *File) ReadChannel(label string, as PixelType) ([]byte, error) {
	if !as.valid() {
		return nil, fmt.Errorf("invalid pixel type %d", int32(as))
	}
	ch := f.hdr.Channel(label)
	if ch == nil {
		return nil, fmt.Errorf("no channel %q in file", label)
	}
	if f.planes == nil {
		if err := f.decodeAll(); err != nil {
			return nil, err
		}
	}
	plane := f.planes[label]
	if ch.Type == as {
		return plane, nil
	}
	return convertPlane(plane, ch.Type, as), nil
}

// decodeAll walks the block offset table, decompresses every block and
// slices the interleaved scanlines into one planar buffer per channel.
func (f *File) decodeAll() error {
	hdr := f.hdr
	planes := make(map[string][]byte, len(hdr.Channels))
	for _, ch := range hdr.Channels {
		planes[ch.Name] = make([]byte, hdr.Width*hdr.Height*ch.Type.Size())
	}

	blockLines := hdr.blockLines()
	baseY := int(hdr.DataWindow[1])

	for _, offset := range f.offsets {
		if offset == 0 {
			continue
		}
		if _, err := f.r.Seek(int64(offset), io.SeekStart); err != nil {
			return err
		}
		y, err := readI32(f.r)
		if err != nil {
			return err
		}
		dataSize, err := readI32(f.r)
		if err != nil {
			return err
		}
		if dataSize < 0 {
			return errors.New("invalid OpenEXR block size")
		}
		raw := make([]byte, dataSize)
		if _, err := io.ReadFull(f.r, raw); err != nil {
			return err
		}

		startY := int(y) - baseY
		if startY < 0 || startY >= hdr.Height {
			return errors.New("OpenEXR scanline out of bounds")
		}
		lines := blockLines
		if startY+lines > hdr.Height {
			lines = hdr.Height - startY
		}

		expected := blockBytes(hdr.Width, lines, hdr.Channels)
		unpacked, err := decompressBlock(hdr.Compression, raw, expected)
		if err != nil {
			return err
		}

		if err := sliceBlock(planes, hdr, startY, lines, unpacked); err != nil {
			return err
		}
	}

	f.planes = planes
	return nil
}

// sliceBlock copies one decompressed block into the per-channel planes.
// Within a block, each scanline stores every channel's line back to back
// in channel-list order.
func sliceBlock(planes map[string][]byte, hdr *Header, startY, lines int, data []byte) error {
	offset := 0
	for row := 0; row < lines; row++ {
		y := startY + row
		for _, ch := range hdr.Channels {
			lineBytes := hdr.Width * ch.Type.Size()
			if offset+lineBytes > len(data) {
				return errors.New("OpenEXR block truncated")
			}
			dst := planes[ch.Name][y*lineBytes:]
			copy(dst[:lineBytes], data[offset:offset+lineBytes])
			offset += lineBytes
		}
	}
	return nil
}

// blockBytes returns the uncompressed byte size of a block covering the
// given number of scanlines.
func blockBytes(width, lines int, channels []Channel) int {
	total := 0
	for _, ch := range channels {
		total += width * lines * ch.Type.Size()
	}
	return total
}

func parseChannelList(data []byte) ([]Channel, error) {
	r := bytes.NewReader(data)
	var channels []Channel
	for {
		name, err := readNullString(r)
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}
		pixelType, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if !PixelType(pixelType).valid() {
			return nil, fmt.Errorf("unsupported OpenEXR pixel type %d", pixelType)
		}
		pLinear, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if _, err := r.Seek(3, io.SeekCurrent); err != nil {
			return nil, err
		}
		xSampling, err := readI32(r)
		if err != nil {
			return nil, err
		}
		ySampling, err := readI32(r)
		if err != nil {
			return nil, err
		}
		channels = append(channels, Channel{
			Name:      name,
			Type:      PixelType(pixelType),
			PLinear:   pLinear != 0,
			XSampling: xSampling,
			YSampling: ySampling,
		})
	}
	return channels, nil
}

func readNullString(r *bytes.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readI32(r *bytes.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}
