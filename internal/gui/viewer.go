//go:build !nogui
// +build !nogui

package gui

import (
	"sync"

	"imgsort/internal/config"
	"imgsort/internal/session"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// viewer draws a session.Frame: the current image or its placeholder,
// a strip of thumbnails and the status line.
type viewer struct {
	cfg *config.Config
	mu  sync.Mutex // update runs from the refresh loop and from key handlers

	image       *canvas.Image
	placeholder *canvas.Rectangle
	caption     *canvas.Text
	strip       *fyne.Container
	status      *widget.Label
}

func newViewer(cfg *config.Config) *viewer {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.Hide()

	caption := canvas.NewText("", textColor)
	caption.Alignment = fyne.TextAlignCenter

	return &viewer{
		cfg:         cfg,
		image:       img,
		placeholder: canvas.NewRectangle(loadingColor),
		caption:     caption,
		strip:       container.NewHBox(),
		status:      widget.NewLabel(""),
	}
}

func (v *viewer) content() fyne.CanvasObject {
	// Center keeps the placeholder at its min size instead of stretching it
	main := container.NewStack(
		canvas.NewRectangle(bgColor),
		v.image,
		container.NewCenter(container.NewStack(v.placeholder, v.caption)),
	)
	bottom := container.NewVBox(container.NewHScroll(v.strip), v.status)
	return container.NewBorder(nil, bottom, nil, nil, main)
}

func (v *viewer) update(f session.Frame) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.status.SetText(f.Status)
	v.updateCurrent(f.Current)
	v.updateStrip(f)
}

func (v *viewer) updateCurrent(cur *session.View) {
	switch {
	case cur == nil:
		v.image.Hide()
		v.placeholder.SetMinSize(toSize(v.cfg.Preload.Thumbnail))
		v.placeholder.FillColor = loadingColor
		v.caption.Text = "No images"
		v.placeholder.Show()
		v.caption.Show()
	case cur.Image != nil:
		v.image.Image = cur.Image
		v.image.Show()
		v.placeholder.Hide()
		v.caption.Hide()
	default:
		v.image.Hide()
		v.image.Image = nil
		v.placeholder.SetMinSize(toSize(cur.PlaceholderSize))
		v.placeholder.FillColor = placeholderColor(cur.Placeholder)
		v.caption.Text = placeholderText(*cur)
		v.placeholder.Show()
		v.caption.Show()
	}
	v.image.Refresh()
	v.placeholder.Refresh()
	v.caption.Refresh()
}

func (v *viewer) updateStrip(f session.Frame) {
	current := -1
	if f.Current != nil {
		current = f.Current.Index
	}

	box := toSize(v.cfg.Preload.Thumbnail)
	cells := make([]fyne.CanvasObject, 0, len(f.Thumbnails))
	for _, t := range f.Thumbnails {
		cells = append(cells, thumbnailCell(t, box, t.Index == current))
	}
	v.strip.Objects = cells
	v.strip.Refresh()
}

// thumbnailCell is a fixed-size cell holding a thumbnail or a colored
// placeholder. The current entry gets an accent border.
func thumbnailCell(t session.View, box fyne.Size, current bool) fyne.CanvasObject {
	frame := canvas.NewRectangle(bgColor)
	frame.SetMinSize(box)
	if current {
		frame.StrokeColor = accentColor
		frame.StrokeWidth = 2
	}

	var body fyne.CanvasObject
	if t.Image != nil {
		img := canvas.NewImageFromImage(t.Image)
		img.FillMode = canvas.ImageFillContain
		img.SetMinSize(box)
		body = img
	} else {
		rect := canvas.NewRectangle(placeholderColor(t.Placeholder))
		rect.SetMinSize(toSize(t.PlaceholderSize))
		body = container.NewCenter(rect)
	}
	return container.NewStack(frame, body)
}
