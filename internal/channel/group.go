package channel

import (
	"fmt"
	"strings"

	"github.com/shinji-kodama/exrsplit/internal/exr"
)

// Reserved logical group names.
const (
	// ColorName is the group name for the standard R/G/B/A labels.
	ColorName = "C"

	// DepthName is the group name for the standard Z label.
	DepthName = "Z"
)

// targetSlots are the canonical output channel names. A group maps its
// labels onto a prefix of this list.
var targetSlots = [4]string{"R", "G", "B", "A"}

// Group is one logical channel: a named set of raw labels sharing a
// pixel type. Groups are assembled during catalog construction and
// read-only afterwards.
type Group struct {
	// Name is the logical identifier: "C", "Z", or an AOV name.
	Name string

	// Type is the pixel type recorded from the first label seen.
	Type exr.PixelType

	// Labels holds the raw labels in canonical slot order.
	Labels []string
}

// NewGroup creates an empty group recording the pixel type of the first
// label encountered for its name.
func NewGroup(name string, typ exr.PixelType) *Group {
	return &Group{Name: name, Type: typ}
}

// AddLabel appends a raw label and re-sorts the label list into
// canonical order. A label whose suffix defines no slot index is
// rejected with an UnknownSuffixError and leaves the group unchanged.
func (g *Group) AddLabel(label string) error {
	if _, err := slotKey(label); err != nil {
		return err
	}
	g.Labels = append(g.Labels, label)
	return sortLabels(g.Labels)
}

// HasLabel reports whether the raw label is already in the group.
func (g *Group) HasLabel(label string) bool {
	for _, l := range g.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// IsDepth reports whether this is the depth group.
func (g *Group) IsDepth() bool {
	return g.Name == DepthName
}

// IsColor reports whether this is the color group.
func (g *Group) IsColor() bool {
	return g.Name == ColorName
}

// TargetSlots returns the output channel names the group's labels map
// onto: the first len(Labels) entries of R, G, B, A.
func (g *Group) TargetSlots() []string {
	n := len(g.Labels)
	if n > len(targetSlots) {
		n = len(targetSlots)
	}
	return targetSlots[:n:n]
}

// IsValid reports whether the group's label count makes it writable:
// exactly one label for depth, three or four (RGB or RGBA) otherwise.
func (g *Group) IsValid() bool {
	count := len(g.Labels)
	if g.IsDepth() {
		return count == 1
	}
	return count == 3 || count == 4
}

// LabelForSlot returns the raw label whose pixel data fills target slot
// i. Depth groups broadcast their single label to every slot; other
// groups map slots positionally.
func (g *Group) LabelForSlot(i int) string {
	if g.IsDepth() {
		return g.Labels[0]
	}
	return g.Labels[i]
}

func (g *Group) String() string {
	return fmt.Sprintf("group [%s] type %s labels [%s]", g.Name, g.Type, strings.Join(g.Labels, " "))
}
