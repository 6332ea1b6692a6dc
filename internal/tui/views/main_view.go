package views

import (
	"fmt"
	"strings"

	"imgsort/internal/session"
	"imgsort/internal/tui/styles"
	"imgsort/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Layout is the space available to the viewer, in terminal cells.
type Layout struct {
	Width  int
	Height int
}

const (
	defaultCols = 60
	defaultRows = 20
	// rows taken by title, strip, status and help
	chromeRows = 9
)

// previewBox returns the cells available to the current image.
func (l Layout) previewBox() (int, int) {
	cols, rows := defaultCols, defaultRows
	if l.Width > 0 {
		cols = max(l.Width-6, 10)
	}
	if l.Height > 0 {
		rows = max(l.Height-chromeRows, 4)
	}
	return cols, rows
}

// RenderMainView draws one frame: the current image or its placeholder,
// the thumbnail strip, then the status and help lines.
func RenderMainView(f session.Frame, dir, status, help string, l Layout) string {
	var sb strings.Builder

	sb.WriteString(styles.Theme.Title.Render("imgsort " + dir))
	sb.WriteString("\n")

	if f.Current == nil {
		sb.WriteString(styles.Theme.Unselected.Render("No images to show."))
		sb.WriteString("\n\n")
	} else {
		sb.WriteString(RenderHeader(*f.Current))
		sb.WriteString("\n")
		sb.WriteString(RenderCurrent(*f.Current, l))
		sb.WriteString("\n\n")
		sb.WriteString(RenderStrip(f.Thumbnails, f.Current.Index))
		sb.WriteString("\n")
	}

	if status != "" {
		sb.WriteString(status)
		sb.WriteString("\n")
	}
	if help != "" {
		sb.WriteString(help)
	}

	return styles.Theme.App.Render(sb.String())
}

// RenderHeader describes the current entry on one line.
func RenderHeader(v session.View) string {
	_, stateStyle := styles.State(v.State)
	parts := []string{
		styles.Theme.Selected.Render(v.Name),
		stateStyle.Render(v.State.String()),
	}
	if !v.Dim.IsZero() {
		parts = append(parts, v.Dim.String())
	}
	if v.Size > 0 {
		parts = append(parts, humanize.Bytes(uint64(v.Size)))
	}
	if v.Tag.Valid() {
		parts = append(parts, styles.Tag(v.Tag).Render("#"+v.TagName))
	}
	return strings.Join(parts, "  ")
}

// RenderCurrent draws the image of the current entry or, while it has
// none, a placeholder box with the proportions the image will have.
func RenderCurrent(v session.View, l Layout) string {
	cols, rows := l.previewBox()
	if v.Image != nil {
		return RenderImage(v.Image, cols, rows)
	}

	size := v.PlaceholderSize.Fit(types.Dim{Width: cols, Height: rows * 2})
	w, h := max(size.Width, 16), max(size.Height/2, 3)

	if v.Placeholder == session.PlaceholderFailed {
		text := styles.GlyphFailed + " failed"
		if v.Reason != "" {
			text += "\n" + v.Reason
		}
		return styles.FailedPlaceholder.Width(w).Height(h).Render(text)
	}
	return styles.Theme.Placeholder.Width(w).Height(h).Render("loading " + v.PlaceholderSize.String())
}

// RenderStrip draws one state glyph per thumbnail. The current entry is
// underlined and tagged entries are colored by tag.
func RenderStrip(thumbs []session.View, current int) string {
	if len(thumbs) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, v := range thumbs {
		glyph, style := styles.State(v.State)
		if v.Tag.Valid() && v.State != types.Failed {
			style = styles.Tag(v.Tag)
		}
		if v.Index == current {
			style = style.Inherit(styles.Cursor)
		}
		sb.WriteString(style.Render(glyph))
	}

	first, last := thumbs[0].Index+1, thumbs[len(thumbs)-1].Index+1
	return lipgloss.JoinHorizontal(lipgloss.Top, sb.String(), styles.Theme.Unselected.Render(fmt.Sprintf("  %d-%d", first, last)))
}
