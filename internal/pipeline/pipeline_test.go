package pipeline

import (
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/exrsplit/internal/config"
	"github.com/shinji-kodama/exrsplit/internal/exr"
	"github.com/shinji-kodama/exrsplit/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// floatPlane packs float samples little-endian.
func floatPlane(values []float32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func ramp(n int, scale float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i%53) * scale
	}
	return out
}

// writeFrame writes a synthetic render frame with color, depth and a
// normal AOV, all float channels, plus one custom attribute and one
// attribute from the exclusion list.
func writeFrame(t *testing.T, path string, w, h int, seed float32) {
	t.Helper()

	labels := []string{"R", "G", "B", "A", "Z", "normal.X", "normal.Y", "normal.Z"}
	planes := make(map[string][]byte, len(labels))
	channels := make([]exr.Channel, 0, len(labels))
	for i, label := range labels {
		channels = append(channels, exr.Channel{Name: label, Type: exr.PixelFloat, XSampling: 1, YSampling: 1})
		planes[label] = floatPlane(ramp(w*h, seed+float32(i)))
	}

	hdr := &exr.Header{
		Width: w, Height: h, Compression: exr.CompressionZip,
		Channels: channels,
		Attributes: []exr.Attribute{
			{Name: "owner", Type: "string", Value: []byte("unit test")},
			{Name: "worldToNDC", Type: "m44f", Value: make([]byte, 64)},
		},
	}
	require.NoError(t, exr.WriteFile(path, hdr, planes))
}

// TestDiscover checks the non-recursive, case-insensitive listing.
func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, filepath.Join(dir, "b_0002.exr"), 2, 2, 0)
	writeFrame(t, filepath.Join(dir, "a_0001.EXR"), 2, 2, 0)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "C"), 0o755))
	writeFrame(t, filepath.Join(dir, "C", "nested.exr"), 2, 2, 0)

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a_0001.EXR"),
		filepath.Join(dir, "b_0002.exr"),
	}, files)
}

// TestSeparator_EndToEnd splits a two-frame sequence and verifies the
// per-channel outputs: locations, channel lists, pixel data and
// attribute filtering.
func TestSeparator_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	const w, h = 5, 4
	writeFrame(t, filepath.Join(dir, "beauty_0001.exr"), w, h, 1)
	writeFrame(t, filepath.Join(dir, "beauty_0002.exr"), w, h, 2)

	sep, err := New(dir, config.Settings{Jobs: 2}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "Z", "normal"}, sep.Catalog().Names())

	summary := sep.Run(context.Background())
	assert.Equal(t, 2, summary.Files)
	assert.Equal(t, 6, summary.Written, "2 files x 3 channels")
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.False(t, summary.Interrupted)
	assert.Greater(t, summary.ElapsedSeconds, 0.0)

	// Color output: four slots, stored alphabetically in the file.
	colorPath := filepath.Join(dir, "C", "beauty.C_0001.exr")
	colorFile, err := exr.OpenFile(colorPath)
	require.NoError(t, err)
	var names []string
	for _, ch := range colorFile.Header().Channels {
		names = append(names, ch.Name)
	}
	assert.Equal(t, []string{"A", "B", "G", "R"}, names)

	// Slot R of the color output carries the source R data.
	got, err := colorFile.ReadChannel("R", exr.PixelFloat)
	require.NoError(t, err)
	assert.Equal(t, floatPlane(ramp(w*h, 1)), got)

	// Depth output: the single label lands in slot R.
	depthPath := filepath.Join(dir, "Z", "beauty.Z_0002.exr")
	depthFile, err := exr.OpenFile(depthPath)
	require.NoError(t, err)
	require.Len(t, depthFile.Header().Channels, 1)
	assert.Equal(t, "R", depthFile.Header().Channels[0].Name)
	got, err = depthFile.ReadChannel("R", exr.PixelFloat)
	require.NoError(t, err)
	assert.Equal(t, floatPlane(ramp(w*h, 2+4)), got, "Z is the fifth source channel")

	// AOV output exists under its own name.
	normalPath := filepath.Join(dir, "normal", "beauty.normal_0001.exr")
	normalFile, err := exr.OpenFile(normalPath)
	require.NoError(t, err)
	require.Len(t, normalFile.Header().Channels, 3)

	// Attribute filtering: custom metadata carried, session leftovers dropped.
	assert.NotNil(t, colorFile.Header().Attribute("owner"))
	assert.Nil(t, colorFile.Header().Attribute("worldToNDC"))
}

// TestSeparator_UnitIsolation corrupts one frame and verifies the
// other frame's units still produce output.
func TestSeparator_UnitIsolation(t *testing.T) {
	dir := t.TempDir()
	const w, h = 3, 3
	writeFrame(t, filepath.Join(dir, "frame_0001.exr"), w, h, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_0002.exr"), []byte("not an exr at all"), 0o644))

	sep, err := New(dir, config.Settings{Jobs: 3}, testLogger())
	require.NoError(t, err)

	summary := sep.Run(context.Background())
	assert.Equal(t, 3, summary.Written, "all channels of the good frame")
	assert.Equal(t, 3, summary.Failed, "all channels of the bad frame")

	assert.FileExists(t, filepath.Join(dir, "C", "frame.C_0001.exr"))
	assert.FileExists(t, filepath.Join(dir, "Z", "frame.Z_0001.exr"))
	assert.NoFileExists(t, filepath.Join(dir, "C", "frame.C_0002.exr"))
}

// TestSeparator_UnknownChannel: a work unit naming a channel outside
// the catalog is a skip, not a crash and not a file.
func TestSeparator_UnknownChannel(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, filepath.Join(dir, "frame_0001.exr"), 2, 2, 1)

	sep, err := New(dir, config.Settings{}, testLogger())
	require.NoError(t, err)

	res := sep.processUnit(WorkItem{File: filepath.Join(dir, "frame_0001.exr"), Channel: "ghost"})
	assert.True(t, res.skipped)
	assert.NoError(t, res.err)
	assert.NoDirExists(t, filepath.Join(dir, "ghost"))
}

// TestSeparator_SkipExisting: a second pass over already split output
// writes nothing.
func TestSeparator_SkipExisting(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, filepath.Join(dir, "frame_0001.exr"), 2, 2, 1)

	settings := config.Settings{SkipExisting: true, Jobs: 1}
	sep, err := New(dir, settings, testLogger())
	require.NoError(t, err)
	first := sep.Run(context.Background())
	assert.Equal(t, 3, first.Written)

	sep, err = New(dir, settings, testLogger())
	require.NoError(t, err)
	second := sep.Run(context.Background())
	assert.Equal(t, 0, second.Written)
	assert.Equal(t, 3, second.Skipped)
}

// TestNew_Errors covers the startup failure modes.
func TestNew_Errors(t *testing.T) {
	empty := t.TempDir()
	_, err := New(empty, config.Settings{}, testLogger())
	requireExitCode(t, err, model.ExitNoInputFiles)

	_, err = New(filepath.Join(empty, "missing"), config.Settings{}, testLogger())
	requireExitCode(t, err, model.ExitInvalidFolder)

	bad := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bad, "junk.exr"), []byte("junk"), 0o644))
	_, err = New(bad, config.Settings{}, testLogger())
	requireExitCode(t, err, model.ExitBadHeader)
}

func requireExitCode(t *testing.T, err error, code model.ExitCode) {
	t.Helper()
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, code, cliErr.Code)
}
