package decode

import (
	"image"

	"golang.org/x/image/draw"

	"imgsort/pkg/types"
)

// Scale fits img into box keeping the aspect ratio. Images already inside
// the box are returned as is. quality selects a smoother kernel.
func Scale(img image.Image, box types.Dim, quality bool) image.Image {
	b := img.Bounds()
	src := types.Dim{Width: b.Dx(), Height: b.Dy()}
	dst := src.Fit(box)
	if dst == src {
		return img
	}

	out := image.NewRGBA(image.Rect(0, 0, dst.Width, dst.Height))
	var scaler draw.Scaler = draw.ApproxBiLinear
	if quality {
		scaler = draw.BiLinear
	}
	scaler.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}

// Orient applies an EXIF orientation (2..8) so the result is upright.
func Orient(img image.Image, orientation int) image.Image {
	if orientation < 2 || orientation > 8 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	ow, oh := w, h
	if orientation >= 5 {
		ow, oh = h, w
	}
	out := image.NewRGBA(image.Rect(0, 0, ow, oh))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch orientation {
			case 2: // mirror horizontal
				dx, dy = w-1-x, y
			case 3: // rotate 180
				dx, dy = w-1-x, h-1-y
			case 4: // mirror vertical
				dx, dy = x, h-1-y
			case 5: // transpose
				dx, dy = y, x
			case 6: // rotate 90 clockwise
				dx, dy = h-1-y, x
			case 7: // transverse
				dx, dy = h-1-y, w-1-x
			case 8: // rotate 90 counter-clockwise
				dx, dy = y, w-1-x
			}
			out.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
