package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// exrExtension filters directory entries; matching is case-insensitive.
const exrExtension = ".exr"

// Discover lists the EXR files directly inside folder, sorted
// lexicographically for a deterministic processing order. The listing
// is intentionally non-recursive: output subfolders from earlier runs
// live inside the input folder and must not be re-read.
func Discover(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), exrExtension) {
			files = append(files, filepath.Join(folder, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
