package views

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"imgsort/internal/session"
	"imgsort/pkg/types"

	"github.com/stretchr/testify/assert"
)

func TestRenderCurrentPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		view     session.View
		contains []string
		excludes []string
	}{
		{
			name: "loading",
			view: session.View{
				Name:            "a.jpg",
				State:           types.Loading,
				Placeholder:     session.PlaceholderLoading,
				PlaceholderSize: types.Dim{Width: 64, Height: 48},
			},
			contains: []string{"loading 64x48"},
			excludes: []string{"failed"},
		},
		{
			name: "failed",
			view: session.View{
				Name:            "b.png",
				State:           types.Failed,
				Reason:          "corrupt image",
				Placeholder:     session.PlaceholderFailed,
				PlaceholderSize: types.Dim{Width: 64, Height: 48},
			},
			contains: []string{"✗ failed", "corrupt image"},
			excludes: []string{"loading"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := RenderCurrent(tt.view, Layout{Width: 80, Height: 40})
			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, output, s)
			}
		})
	}
}

func TestRenderHeader(t *testing.T) {
	v := session.View{
		Name:    "c.bmp",
		Size:    2048,
		State:   types.Loaded,
		Dim:     types.Dim{Width: 20, Height: 40},
		Tag:     types.Tag1,
		TagName: "Red",
	}
	output := RenderHeader(v)
	for _, s := range []string{"c.bmp", "loaded", "20x40", "2.0 kB", "#Red"} {
		assert.Contains(t, output, s)
	}
}

func TestRenderStrip(t *testing.T) {
	thumbs := []session.View{
		{Index: 3, State: types.Loaded},
		{Index: 4, State: types.Failed},
		{Index: 5, State: types.Loading},
		{Index: 6, State: types.NotLoaded},
	}
	output := RenderStrip(thumbs, 4)
	assert.Contains(t, output, "●✗○·")
	assert.Contains(t, output, "4-7")

	assert.Empty(t, RenderStrip(nil, 0))
}

func TestRenderImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.Black)

	output := RenderImage(img, 4, 2)
	lines := strings.Split(output, "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, 8, strings.Count(output, "▀"))

	assert.Empty(t, RenderImage(nil, 4, 2))
	assert.Empty(t, RenderImage(img, 0, 2))
}

func TestRenderMainView(t *testing.T) {
	empty := RenderMainView(session.Frame{}, "/photos", "No images in /photos", "q quit", Layout{})
	assert.Contains(t, empty, "No images to show")
	assert.Contains(t, empty, "No images in /photos")
	assert.Contains(t, empty, "q quit")

	current := session.View{
		Index:           0,
		Name:            "a.jpg",
		State:           types.NotLoaded,
		Placeholder:     session.PlaceholderLoading,
		PlaceholderSize: types.Dim{Width: 160, Height: 120},
	}
	f := session.Frame{Current: &current, Thumbnails: []session.View{current}, Len: 1, Status: "1/1 a.jpg"}
	output := RenderMainView(f, "/photos", f.Status, "", Layout{Width: 100, Height: 40})
	assert.Contains(t, output, "imgsort /photos")
	assert.Contains(t, output, "a.jpg")
	assert.Contains(t, output, "1-1")
}
