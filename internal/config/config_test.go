package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/exrsplit/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoad_NoFile: an empty folder yields the defaults without error.
func TestLoad_NoFile(t *testing.T) {
	settings, err := Load(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), settings)
}

// TestLoad_JSONC parses a commented settings file found by probing.
func TestLoad_JSONC(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "exrsplit.jsonc", `{
		// render farm nodes have 16 cores but share disks
		"jobs": 4,
		"stripAttributes": ["nuke/node_hash"], // per-app noise
		"skipExisting": true,
	}`)

	settings, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, 4, settings.Jobs)
	assert.Equal(t, []string{"nuke/node_hash"}, settings.StripAttributes)
	assert.True(t, settings.SkipExisting)
}

// TestLoad_YAML parses a YAML settings file given explicitly.
func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", "jobs: 2\nstripAttributes:\n  - comments\n")

	settings, err := Load(dir, path)
	require.NoError(t, err)
	assert.Equal(t, 2, settings.Jobs)
	assert.Equal(t, []string{"comments"}, settings.StripAttributes)
	assert.False(t, settings.SkipExisting)
}

// TestLoad_ProbeOrder: JSONC wins over YAML when both are present.
func TestLoad_ProbeOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "exrsplit.jsonc", `{"jobs": 3}`)
	writeFile(t, dir, "exrsplit.yaml", "jobs: 9\n")

	settings, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, 3, settings.Jobs)
}

// TestLoad_Errors covers unreadable, malformed and invalid files, all
// of which carry the configuration exit code.
func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir, filepath.Join(dir, "missing.jsonc"))
	requireExitCode(t, err, model.ExitInvalidConfig)

	bad := writeFile(t, dir, "bad.jsonc", `{"jobs": `)
	_, err = Load(dir, bad)
	requireExitCode(t, err, model.ExitInvalidConfig)

	negative := writeFile(t, dir, "negative.yaml", "jobs: -1\n")
	_, err = Load(dir, negative)
	requireExitCode(t, err, model.ExitInvalidConfig)
}

func requireExitCode(t *testing.T, err error, code model.ExitCode) {
	t.Helper()
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, code, cliErr.Code)
}
