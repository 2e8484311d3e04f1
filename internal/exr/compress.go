package exr

import (
	"bytes"
	"compress/zlib"
	"errors"
	"io"
)

// decompressBlock undoes the block compression. ZIP and ZIPS payloads
// are zlib streams over byte-shuffled, delta-predicted data; when the
// stored payload already has the expected raw size the block was stored
// uncompressed (the format keeps the raw bytes whenever deflate would
// grow them).
func decompressBlock(compression byte, data []byte, expected int) ([]byte, error) {
	switch compression {
	case CompressionNone:
		if expected > 0 && len(data) != expected {
			return nil, errors.New("unexpected OpenEXR block size")
		}
		return data, nil
	case CompressionZips, CompressionZip:
		if expected > 0 && len(data) == expected {
			return data, nil
		}
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		uncompressed, err := io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
		if expected > 0 && len(uncompressed) != expected {
			return nil, errors.New("unexpected OpenEXR decompressed size")
		}
		if len(uncompressed)%2 != 0 {
			return nil, errors.New("invalid OpenEXR ZIP payload size")
		}
		undoPredictor(uncompressed)
		return unshuffleBytes(uncompressed), nil
	default:
		return nil, errors.New("unsupported OpenEXR compression")
	}
}

// compressBlock is the inverse of decompressBlock. For ZIP/ZIPS it
// shuffles, applies the delta predictor and deflates; the raw bytes are
// kept when deflate does not shrink them.
func compressBlock(compression byte, data []byte) ([]byte, error) {
	switch compression {
	case CompressionNone:
		return data, nil
	case CompressionZips, CompressionZip:
		if len(data)%2 != 0 {
			return nil, errors.New("invalid OpenEXR ZIP block size")
		}
		shuffled := shuffleBytes(data)
		applyPredictor(shuffled)

		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(shuffled); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		if buf.Len() >= len(data) {
			return data, nil
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.New("unsupported OpenEXR compression")
	}
}

// undoPredictor reverses the delta encoding applied before deflate.
func undoPredictor(data []byte) {
	for i := 1; i < len(data); i++ {
		data[i] = byte(int(data[i]) + int(data[i-1]) - 128)
	}
}

// applyPredictor delta-encodes the buffer in place. Must run back to
// front so each delta is computed against the original previous byte.
func applyPredictor(data []byte) {
	for i := len(data) - 1; i >= 1; i-- {
		data[i] = byte(int(data[i]) - int(data[i-1]) + 128)
	}
}

// unshuffleBytes reassembles a buffer split into two interleaved halves.
func unshuffleBytes(data []byte) []byte {
	n := len(data) / 2
	out := make([]byte, len(data))
	for i := 0; i < n; i++ {
		out[2*i] = data[i]
		out[2*i+1] = data[i+n]
	}
	return out
}

// shuffleBytes splits a buffer into even and odd byte halves, improving
// deflate's run detection on 16-bit sample data.
func shuffleBytes(data []byte) []byte {
	n := len(data) / 2
	out := make([]byte, len(data))
	for i := 0; i < n; i++ {
		out[i] = data[2*i]
		out[i+n] = data[2*i+1]
	}
	return out
}
