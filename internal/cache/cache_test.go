package cache

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"sync"
	"testing"

	"imgsort/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// indexer maps "p<i>" paths to i.
func indexer(n int) func(string) (int, bool) {
	return func(path string) (int, bool) {
		var i int
		if _, err := fmt.Sscanf(path, "p%d", &i); err != nil || i >= n {
			return 0, false
		}
		return i, true
	}
}

func TestGetPut(t *testing.T) {
	c := New()
	_, ok := c.Get("missing")
	assert.False(t, ok)

	full := solid(4, 4, color.White)
	thumb := solid(2, 2, color.White)
	c.Put("p0", full, thumb, types.Dim{Width: 8, Height: 8})

	b, ok := c.Get("p0")
	require.True(t, ok)
	assert.True(t, b.HasFull())
	assert.True(t, b.HasThumb())
	assert.Equal(t, types.Dim{Width: 8, Height: 8}, b.Dim)

	// Nothing to publish
	c.Put("p1", nil, nil, types.Dim{})
	_, ok = c.Get("p1")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	var nilBuf *Buffers
	assert.False(t, nilBuf.HasFull())
}

func TestPutThumbKeepsFull(t *testing.T) {
	c := New()
	full := solid(4, 4, color.White)
	c.Put("p0", full, nil, types.Dim{Width: 4, Height: 4})

	thumb := solid(1, 1, color.Black)
	c.PutThumb("p0", thumb, types.Dim{Width: 99, Height: 99})

	b, ok := c.Get("p0")
	require.True(t, ok)
	assert.Same(t, full, b.Full)
	assert.Same(t, thumb, b.Thumb)
	assert.Equal(t, types.Dim{Width: 4, Height: 4}, b.Dim)

	c.PutThumb("p1", thumb, types.Dim{Width: 2, Height: 2})
	b, ok = c.Get("p1")
	require.True(t, ok)
	assert.False(t, b.HasFull())
	assert.True(t, b.HasThumb())
}

func TestEvictOutsideWindow(t *testing.T) {
	c := New()
	const n = 20
	for i := 0; i < n; i++ {
		c.Put(fmt.Sprintf("p%d", i), solid(2, 2, color.White), solid(1, 1, color.White), types.Dim{Width: 2, Height: 2})
	}
	c.Put("stale", solid(2, 2, color.White), nil, types.Dim{})

	evicted := c.EvictOutsideWindow(10, 2, 4, indexer(n))
	sort.Strings(evicted)

	// Full images kept for 8..12, thumbnails for 6..14
	full, thumbs := c.Stats()
	assert.Equal(t, 5, full)
	assert.Equal(t, 9, thumbs)
	assert.Len(t, evicted, n-5+1)
	assert.Contains(t, evicted, "stale")
	assert.NotContains(t, evicted, "p10")

	b, ok := c.Get("p10")
	require.True(t, ok)
	assert.True(t, b.HasFull())

	b, ok = c.Get("p13")
	require.True(t, ok)
	assert.False(t, b.HasFull())
	assert.True(t, b.HasThumb())

	_, ok = c.Get("p15")
	assert.False(t, ok)
	_, ok = c.Get("p0")
	assert.False(t, ok)
}

func TestEvictionBound(t *testing.T) {
	c := New()
	const n, radius, thumbRadius = 50, 3, 6
	for cursor := 0; cursor < n; cursor += 7 {
		for i := 0; i < n; i++ {
			c.Put(fmt.Sprintf("p%d", i), solid(1, 1, color.White), solid(1, 1, color.White), types.Dim{Width: 1, Height: 1})
		}
		c.EvictOutsideWindow(cursor, radius, thumbRadius, indexer(n))
		full, thumbs := c.Stats()
		assert.LessOrEqual(t, full, 2*radius+1)
		assert.LessOrEqual(t, thumbs, 2*thumbRadius+1)
	}
}

func TestClear(t *testing.T) {
	c := New()
	c.Put("p0", solid(1, 1, color.White), nil, types.Dim{})
	c.Put("p1", solid(1, 1, color.White), nil, types.Dim{})
	c.Remove("p0")
	assert.Equal(t, 1, c.Len())
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

// Readers at the cursor must always see a whole image while eviction and
// writers run.
func TestConcurrentEvictionAtCursor(t *testing.T) {
	c := New()
	const n, cursor = 30, 15
	want := solid(8, 8, color.RGBA{R: 200, A: 255})
	c.Put("p15", want, solid(2, 2, color.White), types.Dim{Width: 8, Height: 8})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				p := fmt.Sprintf("p%d", (i*7+w)%n)
				if p == "p15" {
					continue
				}
				c.Put(p, solid(2, 2, color.White), solid(1, 1, color.White), types.Dim{Width: 2, Height: 2})
			}
		}(w)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				c.EvictOutsideWindow(cursor, 2, 4, indexer(n))
			}
		}
	}()

	for i := 0; i < 2000; i++ {
		b, ok := c.Get("p15")
		require.True(t, ok)
		require.NotNil(t, b.Full)
		require.NotNil(t, b.Thumb)
		require.Equal(t, image.Rect(0, 0, 8, 8), b.Full.Bounds())
		r, _, _, _ := b.Full.At(7, 7).RGBA()
		require.Equal(t, uint32(200)*0x101, r)
	}
	close(stop)
	wg.Wait()
}
