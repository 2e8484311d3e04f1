package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/exrsplit/internal/exr"
)

func mustAdd(t *testing.T, g *Group, labels ...string) {
	t.Helper()
	for _, label := range labels {
		require.NoError(t, g.AddLabel(label))
	}
}

// TestGroup_TargetSlots verifies the slot list is always a prefix of
// R,G,B,A matching the label count.
func TestGroup_TargetSlots(t *testing.T) {
	rgb := NewGroup(ColorName, exr.PixelHalf)
	mustAdd(t, rgb, "B", "R", "G")
	assert.Equal(t, []string{"R", "G", "B"}, rgb.TargetSlots())
	assert.Equal(t, []string{"R", "G", "B"}, rgb.Labels, "labels sorted canonically")

	rgba := NewGroup(ColorName, exr.PixelHalf)
	mustAdd(t, rgba, "A", "B", "G", "R")
	assert.Equal(t, []string{"R", "G", "B", "A"}, rgba.TargetSlots())

	depth := NewGroup(DepthName, exr.PixelFloat)
	mustAdd(t, depth, "Z")
	assert.Equal(t, []string{"R"}, depth.TargetSlots())
	assert.Len(t, depth.TargetSlots(), len(depth.Labels))
}

// TestGroup_IsValid covers the label-count rules for depth and
// non-depth groups.
func TestGroup_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		group  string
		labels []string
		valid  bool
	}{
		{"color rgb", ColorName, []string{"R", "G", "B"}, true},
		{"color rgba", ColorName, []string{"R", "G", "B", "A"}, true},
		{"color two labels", ColorName, []string{"R", "G"}, false},
		{"color five labels", "aov", []string{"aov.r", "aov.g", "aov.b", "aov.a", "aov.x"}, false},
		{"color single", ColorName, []string{"R"}, false},
		{"depth single", DepthName, []string{"Z"}, true},
		{"depth two labels", DepthName, []string{"Z", "depth.z"}, false},
		{"aov triple", "normal", []string{"normal.X", "normal.Y", "normal.Z"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGroup(tt.group, exr.PixelHalf)
			mustAdd(t, g, tt.labels...)
			assert.Equal(t, tt.valid, g.IsValid())
		})
	}
}

// TestGroup_LabelForSlot checks positional mapping for color/AOV groups
// and index-0 broadcast for depth.
func TestGroup_LabelForSlot(t *testing.T) {
	color := NewGroup(ColorName, exr.PixelHalf)
	mustAdd(t, color, "G", "B", "A", "R")
	for i, want := range []string{"R", "G", "B", "A"} {
		assert.Equal(t, want, color.LabelForSlot(i))
	}

	depth := NewGroup(DepthName, exr.PixelFloat)
	mustAdd(t, depth, "Z")
	for i := range depth.TargetSlots() {
		assert.Equal(t, "Z", depth.LabelForSlot(i), "depth always maps to label 0")
	}
}

// TestGroup_AddLabel_UnknownSuffix verifies an undefined suffix is
// rejected without mutating the group.
func TestGroup_AddLabel_UnknownSuffix(t *testing.T) {
	g := NewGroup("crypto", exr.PixelFloat)
	mustAdd(t, g, "crypto.r")

	err := g.AddLabel("crypto.matte00")
	var suffixErr *UnknownSuffixError
	require.ErrorAs(t, err, &suffixErr)
	assert.Equal(t, []string{"crypto.r"}, g.Labels)
}
