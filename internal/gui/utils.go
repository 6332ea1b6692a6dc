package gui

import (
	"fmt"
	"image/color"

	"imgsort/internal/session"
	"imgsort/pkg/types"

	"fyne.io/fyne/v2"
)

var (
	bgColor      = color.NRGBA{R: 16, G: 16, B: 16, A: 255}
	accentColor  = color.NRGBA{R: 255, G: 165, B: 0, A: 255}
	loadingColor = color.NRGBA{R: 48, G: 48, B: 48, A: 255}
	failedColor  = color.NRGBA{R: 120, G: 24, B: 24, A: 255}
	textColor    = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
)

// placeholderColor returns the fill drawn in place of a missing image.
func placeholderColor(p session.Placeholder) color.Color {
	if p == session.PlaceholderFailed {
		return failedColor
	}
	return loadingColor
}

// placeholderText is the caption drawn on a placeholder.
func placeholderText(v session.View) string {
	if v.Placeholder == session.PlaceholderFailed {
		if v.Reason == "" {
			return "failed"
		}
		return "failed: " + v.Reason
	}
	return "loading"
}

func toSize(d types.Dim) fyne.Size {
	return fyne.NewSize(float32(d.Width), float32(d.Height))
}

func moveSummary(results []types.OrganizeResult) string {
	if len(results) == 0 {
		return "Nothing tagged"
	}
	moved := 0
	for _, r := range results {
		if r.Moved {
			moved++
		}
	}
	return fmt.Sprintf("Moved %d of %d images", moved, len(results))
}
