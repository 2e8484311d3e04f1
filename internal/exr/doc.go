// Package exr reads and writes single-part scanline OpenEXR files.
//
// The package covers exactly what the splitter needs from the container
// format: parsing a file's header with every attribute preserved as raw
// bytes, reading per-channel planar pixel buffers with on-demand pixel
// type conversion, and writing a new scanline file from a header plus a
// set of named channel buffers.
//
// Supported compression schemes are NONE, ZIPS (one scanline per block)
// and ZIP (16 scanlines per block). Tiled, deep and multi-part files are
// rejected, as are subsampled channels.
package exr
