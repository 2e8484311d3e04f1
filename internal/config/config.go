// Package config loads the optional exrsplit settings file.
//
// A settings file can sit beside the frames being split, named
// exrsplit.jsonc, exrsplit.json, exrsplit.yaml or exrsplit.yml, or be
// given explicitly on the command line. JSONC files are comment-stripped
// with github.com/tidwall/jsonc before parsing with the standard
// encoding/json library; YAML files are parsed with gopkg.in/yaml.v3.
// A missing file simply yields the defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/exrsplit/internal/model"
)

// candidateNames are probed in order inside the target folder when no
// explicit settings path is given.
var candidateNames = []string{
	"exrsplit.jsonc",
	"exrsplit.json",
	"exrsplit.yaml",
	"exrsplit.yml",
}

// Settings holds the tunable behavior of a separation run. The zero
// value of every field means "use the default".
type Settings struct {
	// Jobs is the worker count. Zero selects one worker per CPU.
	Jobs int `json:"jobs,omitempty" yaml:"jobs,omitempty"`

	// StripAttributes lists additional header attributes to drop from
	// output files, on top of the built-in exclusion list.
	StripAttributes []string `json:"stripAttributes,omitempty" yaml:"stripAttributes,omitempty"`

	// SkipExisting skips work units whose output file already exists,
	// making re-runs over a partially split folder cheap.
	SkipExisting bool `json:"skipExisting,omitempty" yaml:"skipExisting,omitempty"`
}

// Default returns the settings used when no file and no flags are given.
func Default() Settings {
	return Settings{}
}

// Validate checks field ranges.
func (s *Settings) Validate() error {
	if s.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", s.Jobs)
	}
	for _, attr := range s.StripAttributes {
		if strings.TrimSpace(attr) == "" {
			return fmt.Errorf("stripAttributes must not contain empty names")
		}
	}
	return nil
}

// Load resolves and parses the settings for a run. explicitPath, when
// non-empty, must exist; otherwise the folder is probed for the
// candidate names and absence of all of them is not an error.
func Load(folder, explicitPath string) (Settings, error) {
	settings := Default()

	path := explicitPath
	if path == "" {
		path = probe(folder)
		if path == "" {
			return settings, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, model.WrapCLIError(model.ExitInvalidConfig, "cannot read settings file", err)
	}

	if err := unmarshal(path, data, &settings); err != nil {
		return settings, model.WrapCLIError(model.ExitInvalidConfig, fmt.Sprintf("invalid settings file %s", path), err)
	}
	if err := settings.Validate(); err != nil {
		return settings, model.WrapCLIError(model.ExitInvalidConfig, fmt.Sprintf("invalid settings in %s", path), err)
	}
	return settings, nil
}

// probe returns the first candidate settings file present in folder,
// or empty string when none exists.
func probe(folder string) string {
	for _, name := range candidateNames {
		path := filepath.Join(folder, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// unmarshal picks the parser from the file extension. Anything that is
// not YAML is treated as JSONC, which is a superset of plain JSON.
func unmarshal(path string, data []byte, settings *Settings) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, settings)
	default:
		return json.Unmarshal(jsonc.ToJSON(data), settings)
	}
}
