package session

import (
	"image"

	"imgsort/pkg/types"
)

// Placeholder tells the UI what to draw when no image is available.
type Placeholder int

const (
	// PlaceholderNone means View.Image is set.
	PlaceholderNone Placeholder = iota
	// PlaceholderLoading is drawn while the image is queued or decoding.
	PlaceholderLoading
	// PlaceholderFailed is drawn for entries that could not be decoded.
	PlaceholderFailed
)

func (p Placeholder) String() string {
	switch p {
	case PlaceholderLoading:
		return "loading"
	case PlaceholderFailed:
		return "failed"
	default:
		return "none"
	}
}

// View is what the UI needs to draw one entry.
type View struct {
	Index   int
	Path    string
	Name    string
	Size    int64
	State   types.LoadState
	Reason  string
	Tag     types.Tag
	TagName string
	Dim     types.Dim // source dimensions, zero until first decoded

	Image           image.Image // full image for the current entry, thumbnail otherwise
	Placeholder     Placeholder
	PlaceholderSize types.Dim // size the image will occupy once loaded
}

// Frame is a read-only snapshot of everything on screen.
type Frame struct {
	Current    *View // nil when the catalog is empty
	Thumbnails []View
	Len        int
	Loading    int // decodes in flight
	Status     string
}
