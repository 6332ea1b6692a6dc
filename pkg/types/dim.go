package types

import "fmt"

// Dim is a width/height pair in pixels.
type Dim struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// IsZero reports whether either side is unset.
func (d Dim) IsZero() bool {
	return d.Width <= 0 || d.Height <= 0
}

func (d Dim) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Fit scales d down to fit inside box keeping the aspect ratio. It never
// upscales and never returns a zero side for a non-zero input.
func (d Dim) Fit(box Dim) Dim {
	if d.IsZero() {
		return box
	}
	if box.IsZero() || (d.Width <= box.Width && d.Height <= box.Height) {
		return d
	}

	// Compare aspect ratios with integer math: d.W/d.H > box.W/box.H
	if d.Width*box.Height > box.Width*d.Height {
		h := d.Height * box.Width / d.Width
		return Dim{Width: box.Width, Height: max(h, 1)}
	}
	w := d.Width * box.Height / d.Height
	return Dim{Width: max(w, 1), Height: box.Height}
}
