package styles

import (
	"imgsort/pkg/types"

	"github.com/charmbracelet/lipgloss"
)

// Glyphs used in the thumbnail strip, one per load state.
const (
	GlyphNotLoaded = "·"
	GlyphLoading   = "○"
	GlyphLoaded    = "●"
	GlyphFailed    = "✗"
)

var (
	NotLoaded = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	Loading = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#E5C07B"))

	Loaded = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#73F59F"))

	Failed = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF5F5F")).
		Bold(true)

	// Cursor marks the current entry in the strip.
	Cursor = lipgloss.NewStyle().
		Underline(true).
		Bold(true)

	// FailedPlaceholder replaces the image of an entry that could not be decoded.
	FailedPlaceholder = Theme.Placeholder.
				BorderForeground(lipgloss.Color("#FF5F5F")).
				Foreground(lipgloss.Color("#FF5F5F"))
)

// tagColors follows the default tag names: red, green, yellow, blue,
// purple, orange, gray, cyan.
var tagColors = [types.TagCount]lipgloss.Color{
	"#FF5F5F", "#73F59F", "#E5C07B", "#61AFEF", "#C678DD", "#FFA94D", "#999999", "#56B6C2",
}

// State returns the glyph and style for a load state.
func State(s types.LoadState) (string, lipgloss.Style) {
	switch s {
	case types.Loading:
		return GlyphLoading, Loading
	case types.Loaded:
		return GlyphLoaded, Loaded
	case types.Failed:
		return GlyphFailed, Failed
	default:
		return GlyphNotLoaded, NotLoaded
	}
}

// Tag returns the style used to print a tag label.
func Tag(t types.Tag) lipgloss.Style {
	if !t.Valid() {
		return NotLoaded
	}
	return lipgloss.NewStyle().Foreground(tagColors[t-1]).Bold(true)
}
