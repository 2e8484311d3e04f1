package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shinji-kodama/exrsplit/internal/channel"
	"github.com/shinji-kodama/exrsplit/internal/exr"
	"github.com/shinji-kodama/exrsplit/internal/naming"
)

// excludedAttrs are the header attributes never copied into output
// files: windows and line order are regenerated canonically by the
// writer, and the rest are renderer-session leftovers (timings, world
// transforms, channel ordering hints) that do not describe the pixels.
var excludedAttrs = map[string]bool{
	"dataWindow":    true,
	"displayWindow": true,
	"lineOrder":     true,
	"order":         true,
	"renderTime":    true,
	"renderMemory":  true,
	"worldToCamera": true,
	"worldToNDC":    true,
}

// processUnit extracts one logical channel from one source file into
// <folder>/<channel>/<transformed name>. A channel name missing from
// the catalog is a logged skip, not an error.
func (s *Separator) processUnit(item WorkItem) unitResult {
	group, ok := s.catalog[item.Channel]
	if !ok {
		s.log.Error("no such channel in catalog",
			"channel", item.Channel, "known", s.catalog.Names())
		return unitResult{item: item, skipped: true}
	}

	targetDir := filepath.Join(s.folder, item.Channel)
	targetName := naming.Transform(filepath.Base(item.File), item.Channel)
	targetPath := filepath.Join(targetDir, targetName)

	if s.settings.SkipExisting {
		if _, err := os.Stat(targetPath); err == nil {
			s.log.Debug("output exists, skipping", "path", targetPath)
			return unitResult{item: item, skipped: true}
		}
	}

	s.log.Debug("separating channel", "source", item.File, "channel", item.Channel)

	src, err := exr.OpenFile(item.File)
	if err != nil {
		return unitResult{item: item, err: err}
	}

	planes, err := extractPlanes(src, group)
	if err != nil {
		return unitResult{item: item, err: err}
	}

	out := deriveHeader(src.Header(), group, s.settings.StripAttributes)

	s.log.Debug("make folder", "path", targetDir)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return unitResult{item: item, err: err}
	}

	s.log.Debug("write file", "path", targetPath)
	if err := exr.WriteFile(targetPath, out, planes); err != nil {
		return unitResult{item: item, err: fmt.Errorf("writing %s: %w", targetPath, err)}
	}

	s.log.Info("saved exr", "path", targetPath)
	return unitResult{item: item, wrote: true}
}

// extractPlanes reads the group's raw labels from the source file and
// keys them by target slot, converting each to the group pixel type.
func extractPlanes(src *exr.File, group *channel.Group) (map[string][]byte, error) {
	planes := make(map[string][]byte, len(group.Labels))
	for i, slot := range group.TargetSlots() {
		label := group.LabelForSlot(i)
		buf, err := src.ReadChannel(label, group.Type)
		if err != nil {
			return nil, fmt.Errorf("reading channel %q: %w", label, err)
		}
		planes[slot] = buf
	}
	return planes, nil
}

// deriveHeader builds the output header for one group: the source
// dimensions and compression, the group's target slots as the channel
// list, and every source attribute that is neither excluded nor listed
// in extraStrip carried forward untouched.
func deriveHeader(src *exr.Header, group *channel.Group, extraStrip []string) *exr.Header {
	out := &exr.Header{
		Width:       src.Width,
		Height:      src.Height,
		Compression: src.Compression,
	}

	for _, slot := range group.TargetSlots() {
		out.Channels = append(out.Channels, exr.Channel{
			Name:      slot,
			Type:      group.Type,
			XSampling: 1,
			YSampling: 1,
		})
	}

	strip := make(map[string]bool, len(extraStrip))
	for _, name := range extraStrip {
		strip[name] = true
	}
	for _, attr := range src.Attributes {
		if attr.Name == "channels" || excludedAttrs[attr.Name] || strip[attr.Name] {
			continue
		}
		out.Attributes = append(out.Attributes, attr)
	}
	return out
}
