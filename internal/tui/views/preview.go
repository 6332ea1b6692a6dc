package views

import (
	"fmt"
	"image"
	"strings"

	"imgsort/internal/decode"
	"imgsort/pkg/types"

	"github.com/charmbracelet/lipgloss"
)

// RenderImage draws img with half-block characters so that each cell
// carries two pixels. The image is scaled to fit cols x rows cells.
func RenderImage(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	scaled := decode.Scale(img, types.Dim{Width: cols, Height: rows * 2}, false)
	b := scaled.Bounds()

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			cell := lipgloss.NewStyle().Foreground(hexColor(scaled, x, y))
			if y+1 < b.Max.Y {
				cell = cell.Background(hexColor(scaled, x, y+1))
			}
			sb.WriteString(cell.Render("▀"))
		}
		if y+2 < b.Max.Y {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func hexColor(img image.Image, x, y int) lipgloss.Color {
	r, g, b, _ := img.At(x, y).RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}
