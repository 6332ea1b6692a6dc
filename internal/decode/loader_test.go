package decode

import (
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	serr "imgsort/internal/errors"
	"imgsort/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	return img
}

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	img := gradient(w, h)
	switch filepath.Ext(path) {
	case ".png":
		require.NoError(t, png.Encode(f, img))
	case ".jpg":
		require.NoError(t, jpeg.Encode(f, img, nil))
	case ".bmp":
		require.NoError(t, bmp.Encode(f, img))
	default:
		t.Fatalf("no encoder for %s", path)
	}
}

func testLoader() *Loader {
	return NewLoader(Options{
		ScaleDown: types.Dim{Width: 100, Height: 100},
		Thumbnail: types.Dim{Width: 40, Height: 30},
	})
}

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()

	for _, name := range []string{"a.jpg", "b.png", "c.bmp"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			writeImage(t, path, 400, 200)

			buf, err := l.Load(context.Background(), path, types.LoadFull)
			require.NoError(t, err)
			assert.Equal(t, types.Dim{Width: 400, Height: 200}, buf.Dim)
			require.NotNil(t, buf.Full)
			require.NotNil(t, buf.Thumb)
			assert.Equal(t, image.Rect(0, 0, 100, 50), buf.Full.Bounds())
			assert.Equal(t, image.Rect(0, 0, 40, 20), buf.Thumb.Bounds())
		})
	}
}

func TestLoadThumbnailOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writeImage(t, path, 80, 160)

	buf, err := testLoader().Load(context.Background(), path, types.LoadThumbnail)
	require.NoError(t, err)
	assert.Nil(t, buf.Full)
	require.NotNil(t, buf.Thumb)
	assert.Equal(t, image.Rect(0, 0, 15, 30), buf.Thumb.Bounds())
	assert.Equal(t, types.Dim{Width: 80, Height: 160}, buf.Dim)
}

func TestLoadSmallImageNotUpscaled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.png")
	writeImage(t, path, 10, 5)

	buf, err := testLoader().Load(context.Background(), path, types.LoadFull)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 5), buf.Full.Bounds())
	assert.Equal(t, image.Rect(0, 0, 10, 5), buf.Thumb.Bounds())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	l := testLoader()
	ctx := context.Background()

	t.Run("corrupt image", func(t *testing.T) {
		path := filepath.Join(dir, "b.png")
		data := append([]byte("\x89PNG\r\n\x1a\n"), []byte("definitely not chunks")...)
		require.NoError(t, os.WriteFile(path, data, 0644))

		buf, err := l.Load(ctx, path, types.LoadFull)
		assert.Nil(t, buf)
		require.Error(t, err)
		assert.True(t, serr.IsDecodeError(err))

		var fe *serr.FileError
		require.True(t, serr.As(err, &fe))
		assert.Equal(t, path, fe.Path())
		assert.Contains(t, fe.Reason(), "corrupt image")
	})

	t.Run("unsupported format", func(t *testing.T) {
		path := filepath.Join(dir, "notes.jpg")
		require.NoError(t, os.WriteFile(path, []byte("plain text pretending"), 0644))

		_, err := l.Load(ctx, path, types.LoadFull)
		require.Error(t, err)
		assert.True(t, serr.IsDecodeError(err))
		assert.Contains(t, err.Error(), "unsupported format")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := l.Load(ctx, filepath.Join(dir, "gone.jpg"), types.LoadFull)
		require.Error(t, err)
		assert.True(t, serr.IsIOError(err))
		assert.False(t, serr.IsDecodeError(err))
	})

	t.Run("huge declared size", func(t *testing.T) {
		path := filepath.Join(dir, "huge.png")
		require.NoError(t, os.WriteFile(path, pngHeader(200000, 200000), 0644))

		for _, kind := range []types.LoadKind{types.LoadFull, types.LoadThumbnail} {
			buf, err := l.Load(ctx, path, kind)
			assert.Nil(t, buf)
			require.Error(t, err)
			assert.True(t, serr.IsDecodeError(err))

			var fe *serr.FileError
			require.True(t, serr.As(err, &fe))
			assert.Equal(t, "image too large", fe.Reason())
		}
	})
}

// pngHeader returns a png with a valid IHDR declaring w x h and an empty
// IDAT, so it costs almost nothing on disk.
func pngHeader(w, h uint32) []byte {
	chunk := func(typ string, data []byte) []byte {
		out := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
		out = append(out, typ...)
		out = append(out, data...)
		return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(append([]byte(typ), data...)))
	}
	ihdr := binary.BigEndian.AppendUint32(nil, w)
	ihdr = binary.BigEndian.AppendUint32(ihdr, h)
	ihdr = append(ihdr, 8, 6, 0, 0, 0)

	out := []byte("\x89PNG\r\n\x1a\n")
	out = append(out, chunk("IHDR", ihdr)...)
	out = append(out, chunk("IDAT", nil)...)
	return append(out, chunk("IEND", nil)...)
}

func TestLoadPixelLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writeImage(t, path, 20, 20)

	opts := DefaultOptions()
	opts.MaxPixels = 400
	buf, err := NewLoader(opts).Load(context.Background(), path, types.LoadFull)
	require.NoError(t, err)
	assert.Equal(t, types.Dim{Width: 20, Height: 20}, buf.Dim)

	opts.MaxPixels = 399
	_, err = NewLoader(opts).Load(context.Background(), path, types.LoadFull)
	require.Error(t, err)
	assert.True(t, serr.IsDecodeError(err))
	assert.Contains(t, err.Error(), "image too large")

	assert.Equal(t, DefaultOptions().MaxPixels, NewLoader(Options{}).Options().MaxPixels)
}

func TestLoadCancelledBeforeDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writeImage(t, path, 20, 20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf, err := testLoader().Load(ctx, path, types.LoadFull)
	assert.Nil(t, buf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLoaderDefaults(t *testing.T) {
	l := NewLoader(Options{})
	assert.Equal(t, DefaultOptions(), l.Options())
}

func TestOrient(t *testing.T) {
	// 3x2 with a marker in the top-left pixel
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	red := color.RGBA{R: 255, A: 255}
	src.Set(0, 0, red)

	tests := []struct {
		orientation int
		size        image.Rectangle
		marker      image.Point
	}{
		{1, image.Rect(0, 0, 3, 2), image.Pt(0, 0)},
		{2, image.Rect(0, 0, 3, 2), image.Pt(2, 0)},
		{3, image.Rect(0, 0, 3, 2), image.Pt(2, 1)},
		{4, image.Rect(0, 0, 3, 2), image.Pt(0, 1)},
		{5, image.Rect(0, 0, 2, 3), image.Pt(0, 0)},
		{6, image.Rect(0, 0, 2, 3), image.Pt(1, 0)},
		{7, image.Rect(0, 0, 2, 3), image.Pt(1, 2)},
		{8, image.Rect(0, 0, 2, 3), image.Pt(0, 2)},
	}
	for _, tt := range tests {
		out := Orient(src, tt.orientation)
		assert.Equal(t, tt.size, out.Bounds(), "orientation %d", tt.orientation)
		assert.Equal(t, red, color.RGBAModel.Convert(out.At(tt.marker.X, tt.marker.Y)), "orientation %d", tt.orientation)
	}
}

func TestScale(t *testing.T) {
	img := gradient(300, 100)

	out := Scale(img, types.Dim{Width: 60, Height: 60}, false)
	assert.Equal(t, image.Rect(0, 0, 60, 20), out.Bounds())

	same := Scale(img, types.Dim{Width: 1000, Height: 1000}, true)
	assert.Same(t, img, same.(*image.RGBA))
}
