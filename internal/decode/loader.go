// Package decode turns image files into the scaled buffers held by the
// cache.
package decode

import (
	"bytes"
	"context"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"imgsort/internal/analysis"
	"imgsort/internal/cache"
	serr "imgsort/internal/errors"
	"imgsort/internal/log"
	"imgsort/pkg/types"
)

// Options sets the boxes decoded images are scaled down to.
type Options struct {
	ScaleDown types.Dim
	Thumbnail types.Dim
	MaxPixels int // images declaring more pixels in their header are rejected
}

// DefaultOptions matches the configuration defaults.
func DefaultOptions() Options {
	return Options{
		ScaleDown: types.Dim{Width: 1920, Height: 1080},
		Thumbnail: types.Dim{Width: 160, Height: 120},
		MaxPixels: 100_000_000,
	}
}

// FormatDecoder decodes one image format.
type FormatDecoder interface {
	// CanDecode reports whether the decoder handles the sniffed mime type.
	CanDecode(mime string) bool
	Decode(r io.Reader) (image.Image, error)
}

type decoderFunc struct {
	mime   string
	decode func(io.Reader) (image.Image, error)
}

func (d decoderFunc) CanDecode(mime string) bool              { return d.mime == mime }
func (d decoderFunc) Decode(r io.Reader) (image.Image, error) { return d.decode(r) }

// exifFormats carry an orientation tag worth reading.
var exifFormats = map[string]bool{
	"image/jpeg": true,
	"image/tiff": true,
}

// Loader decodes images from disk.
type Loader struct {
	opts     Options
	decoders []FormatDecoder
}

// NewLoader creates a Loader with decoders for jpeg, png, gif, bmp, tiff
// and webp.
func NewLoader(opts Options) *Loader {
	if opts.ScaleDown.IsZero() {
		opts.ScaleDown = DefaultOptions().ScaleDown
	}
	if opts.Thumbnail.IsZero() {
		opts.Thumbnail = DefaultOptions().Thumbnail
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultOptions().MaxPixels
	}
	l := &Loader{opts: opts}
	l.Register(decoderFunc{"image/jpeg", jpeg.Decode})
	l.Register(decoderFunc{"image/png", png.Decode})
	l.Register(decoderFunc{"image/gif", gif.Decode})
	l.Register(decoderFunc{"image/bmp", bmp.Decode})
	l.Register(decoderFunc{"image/tiff", tiff.Decode})
	l.Register(decoderFunc{"image/webp", webp.Decode})
	return l
}

// Register adds a decoder. Later registrations are tried last.
func (l *Loader) Register(d FormatDecoder) {
	l.decoders = append(l.decoders, d)
}

// Options returns the scaling boxes.
func (l *Loader) Options() Options {
	return l.opts
}

func (l *Loader) decoderFor(mime string) FormatDecoder {
	for _, d := range l.decoders {
		if d.CanDecode(mime) {
			return d
		}
	}
	return nil
}

// Load reads and decodes path. LoadFull produces the display image and the
// thumbnail from one decode; LoadThumbnail produces only the thumbnail.
// ctx is checked once, right before decoding starts. Once decoding has
// started it runs to completion.
func (l *Loader) Load(ctx context.Context, path string, kind types.LoadKind) (*cache.Buffers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serr.NewFileError("file not found", path, serr.FileNotFound, err)
		}
		return nil, serr.NewIOError(path, err)
	}

	mime := mimetype.Detect(data).String()
	// Parameters such as "; charset=" never appear on image types
	mime, _, _ = strings.Cut(mime, ";")
	dec := l.decoderFor(mime)
	if dec == nil {
		return nil, serr.NewDecodeError(path, "unsupported format", nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The header alone is enough to refuse images that would not fit in memory
	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil && int64(hdr.Width)*int64(hdr.Height) > int64(l.opts.MaxPixels) {
		return nil, serr.NewDecodeError(path, "image too large", nil)
	}

	img, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, serr.NewDecodeError(path, "corrupt image", err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, serr.NewDecodeError(path, "empty image", nil)
	}

	if exifFormats[mime] {
		if o := analysis.Orientation(data); o > 1 {
			img = Orient(img, o)
		}
	}

	dim := types.Dim{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	buf := &cache.Buffers{Dim: dim}

	src := img
	if kind == types.LoadFull {
		buf.Full = Scale(img, l.opts.ScaleDown, true)
		src = buf.Full
	}
	buf.Thumb = Scale(src, l.opts.Thumbnail, false)

	log.LogWithFields(log.F("path", path), log.F("kind", kind.String()), log.F("size", dim.String())).Debug("Image decoded")
	return buf, nil
}
