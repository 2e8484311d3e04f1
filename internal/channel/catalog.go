package channel

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shinji-kodama/exrsplit/internal/exr"
)

// Catalog maps logical channel names to their validated groups. It is
// built once from the first file of a sequence and shared read-only by
// every worker afterwards.
type Catalog map[string]*Group

// Classify returns the logical group name for a raw label: "C" for the
// standard color labels, "Z" for the depth label, the prefix before the
// first dot for AOV labels. The second return is false when the label
// fits no convention.
func Classify(label string) (string, bool) {
	switch label {
	case "R", "G", "B", "A":
		return ColorName, true
	case "Z":
		return DepthName, true
	}
	if i := strings.IndexByte(label, '.'); i > 0 {
		return label[:i], true
	}
	return "", false
}

// BuildCatalog scans a header's channel list and assembles the catalog.
//
// Classification anomalies are never fatal: unrecognized labels are
// skipped with a warning, a pixel type differing from the group's
// first-seen type is warned about and ignored, duplicate labels are
// warned about but kept, and groups with an invalid label count are
// discarded with a warning. The one hard error is a classified label
// whose suffix defines no slot index, since no canonical order exists
// for it.
//
// The catalog may legitimately come out empty; the caller decides what
// an empty catalog means for the run.
func BuildCatalog(channels []exr.Channel, logger *slog.Logger) (Catalog, error) {
	catalog := make(Catalog)

	for _, ch := range channels {
		name, ok := Classify(ch.Name)
		if !ok {
			logger.Warn("unrecognized channel", "label", ch.Name)
			continue
		}

		group, exists := catalog[name]
		if !exists {
			group = NewGroup(name, ch.Type)
			catalog[name] = group
		}

		if ch.Type != group.Type {
			logger.Warn("channel type mismatch, keeping first type",
				"group", group.String(), "label", ch.Name, "type", ch.Type.String())
		}
		if group.HasLabel(ch.Name) {
			logger.Warn("duplicate channel label", "group", name, "label", ch.Name)
		}
		if err := group.AddLabel(ch.Name); err != nil {
			return nil, fmt.Errorf("channel %q: %w", ch.Name, err)
		}
	}

	for name, group := range catalog {
		if !group.IsValid() {
			logger.Warn("discarding group with invalid label count",
				"group", name, "labels", strings.Join(group.Labels, " "))
			delete(catalog, name)
		}
	}

	return catalog, nil
}

// Names returns the catalog's group names in sorted order, for a
// deterministic processing sequence.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
