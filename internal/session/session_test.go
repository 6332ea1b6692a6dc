package session

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/bmp"

	"imgsort/internal/config"
	serr "imgsort/internal/errors"
	"imgsort/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	switch filepath.Ext(path) {
	case ".jpg":
		require.NoError(t, jpeg.Encode(f, img, nil))
	case ".png":
		require.NoError(t, png.Encode(f, img))
	case ".bmp":
		require.NoError(t, bmp.Encode(f, img))
	}
}

func writeCorrupt(t *testing.T, path string) {
	t.Helper()
	data := append([]byte("\x89PNG\r\n\x1a\n"), []byte("garbage that is not a chunk")...)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.Catalog.Watch = false
	cfg.Preload.DebounceMillis = 0
	cfg.Preload.ScaleDown = types.Dim{Width: 64, Height: 48}
	cfg.Preload.Thumbnail = types.Dim{Width: 16, Height: 12}
	return cfg
}

// scenarioDir holds a.jpg, a corrupt b.png and c.bmp.
func scenarioDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.jpg"), 40, 30)
	writeCorrupt(t, filepath.Join(dir, "b.png"))
	writeImage(t, filepath.Join(dir, "c.bmp"), 20, 40)
	return dir
}

func openSession(t *testing.T, dir string, cfg *config.Config) *Session {
	t.Helper()
	s, err := Open(context.Background(), dir, cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func settle(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestCorruptFileScenario(t *testing.T) {
	s := openSession(t, scenarioDir(t), testConfig())
	settle(t, s)

	require.Equal(t, 3, s.Len())
	entries := s.Entries()
	assert.Equal(t, types.Loaded, entries[0].State)
	assert.Equal(t, types.Failed, entries[1].State)
	assert.Contains(t, entries[1].Reason, "corrupt image")
	assert.Equal(t, types.Loaded, entries[2].State)
	assert.Equal(t, types.Dim{Width: 20, Height: 40}, entries[2].Dim)

	f := s.Frame()
	require.NotNil(t, f.Current)
	assert.Equal(t, 0, f.Current.Index)
	assert.Equal(t, PlaceholderNone, f.Current.Placeholder)
	require.NotNil(t, f.Current.Image)
	assert.Equal(t, image.Rect(0, 0, 40, 30), f.Current.Image.Bounds())
	require.Len(t, f.Thumbnails, 3)
	assert.Equal(t, PlaceholderFailed, f.Thumbnails[1].Placeholder)
	assert.Equal(t, types.Dim{Width: 16, Height: 12}, f.Thumbnails[1].PlaceholderSize)
	assert.Equal(t, image.Rect(0, 0, 6, 12), f.Thumbnails[2].Image.Bounds())

	require.NoError(t, s.MoveTo(1))
	f = s.Frame()
	require.NotNil(t, f.Current)
	assert.Equal(t, "b.png", f.Current.Name)
	assert.Equal(t, PlaceholderFailed, f.Current.Placeholder)
	assert.Nil(t, f.Current.Image)
	assert.Equal(t, types.Dim{Width: 64, Height: 48}, f.Current.PlaceholderSize)
	assert.Contains(t, f.Status, "2/3 b.png")
	assert.Contains(t, f.Status, "failed: corrupt image")

	// Failed stays failed while navigating, until retried
	s.Next()
	s.Prev()
	settle(t, s)
	assert.Equal(t, types.Failed, s.Entries()[1].State)

	require.NoError(t, s.Retry())
	settle(t, s)
	assert.Equal(t, types.Failed, s.Entries()[1].State)
}

func TestEmptyDirectory(t *testing.T) {
	s := openSession(t, t.TempDir(), testConfig())
	settle(t, s)

	assert.Equal(t, 0, s.Len())
	f := s.Frame()
	assert.Nil(t, f.Current)
	assert.Empty(t, f.Thumbnails)
	assert.Contains(t, f.Status, "No images")

	_, moved := s.Next()
	assert.False(t, moved)
	assert.True(t, serr.IsIndexError(s.MoveTo(0)))
	assert.True(t, serr.IsIndexError(s.Tag(types.Tag1)))
	assert.True(t, serr.IsIndexError(s.Retry()))
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing"), testConfig())
	require.Error(t, err)
	assert.True(t, serr.IsIOError(err))

	cfg := testConfig()
	cfg.Preload.Workers = 0
	_, err = Open(context.Background(), t.TempDir(), cfg)
	require.Error(t, err)
	assert.True(t, serr.IsInvalidConfig(err))
}

func TestPlaceholderUsesKnownDimensions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png"} {
		writeImage(t, filepath.Join(dir, name), 200, 100)
	}
	cfg := testConfig()
	cfg.Preload.Radius = 0
	cfg.Preload.ThumbnailRadius = 1
	s := openSession(t, dir, cfg)
	settle(t, s)

	// b.png only has a thumbnail, so its full view is a placeholder with
	// the size the image will have once loaded
	cat, sched, _ := s.state()
	v := s.view(cat, sched.Cache(), 1, true)
	assert.Equal(t, PlaceholderLoading, v.Placeholder)
	assert.Equal(t, types.Dim{Width: 200, Height: 100}, v.Dim)
	assert.Equal(t, types.Dim{Width: 64, Height: 32}, v.PlaceholderSize)

	tv := s.view(cat, sched.Cache(), 1, false)
	assert.Equal(t, PlaceholderNone, tv.Placeholder)
	assert.NotNil(t, tv.Image)
}

func TestTagAndMove(t *testing.T) {
	dir := scenarioDir(t)
	s := openSession(t, dir, testConfig())
	settle(t, s)

	require.NoError(t, s.Tag(types.Tag1))
	i, _ := s.Index()
	assert.Equal(t, 1, i, "tagging advances")
	assert.Error(t, s.Tag(types.NoTag))

	f := s.Frame()
	assert.Equal(t, "Red", f.Thumbnails[0].TagName)
	assert.Equal(t, map[types.Tag]int{types.Tag1: 1}, s.TagCounts())

	s.Next()
	require.NoError(t, s.Tag(types.Tag2))
	require.NoError(t, s.Untag())
	assert.Equal(t, map[types.Tag]int{types.Tag1: 1}, s.TagCounts())

	require.NoError(t, s.MoveTo(1))
	results, err := s.MoveAllTagged()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Moved)
	assert.FileExists(t, filepath.Join(dir, "Red", "a.jpg"))

	// The catalog was rescanned and the cursor followed b.png
	assert.Equal(t, 2, s.Len())
	i, _ = s.Index()
	assert.Equal(t, 0, i)
	assert.Equal(t, "b.png", s.Frame().Current.Name)
	assert.Empty(t, s.TagCounts())

	results, err = s.MoveTagged(types.Tag3)
	assert.NoError(t, err)
	assert.Empty(t, results)
	_, err = s.MoveTagged(types.NoTag)
	assert.Error(t, err)
}

func TestRescanKeepsPositionAndTags(t *testing.T) {
	dir := scenarioDir(t)
	s := openSession(t, dir, testConfig())
	settle(t, s)

	require.NoError(t, s.MoveTo(2))
	require.NoError(t, s.Tag(types.Tag4))

	writeImage(t, filepath.Join(dir, "0first.png"), 8, 8)
	require.NoError(t, s.Rescan())
	settle(t, s)

	assert.Equal(t, 4, s.Len())
	f := s.Frame()
	require.NotNil(t, f.Current)
	assert.Equal(t, "c.bmp", f.Current.Name)
	assert.Equal(t, types.Tag4, f.Current.Tag)
	assert.Equal(t, types.Loaded, f.Current.State)

	// Removing the current file clamps the cursor
	require.NoError(t, os.Remove(filepath.Join(dir, "c.bmp")))
	require.NoError(t, s.Rescan())
	i, ok := s.Index()
	assert.True(t, ok)
	assert.Equal(t, 2, i)
}

func TestStaleCursorAfterRescanKeepsNewCache(t *testing.T) {
	dir := scenarioDir(t)
	s := openSession(t, dir, testConfig())
	settle(t, s)
	_, _, oldCursor := s.state()

	writeImage(t, filepath.Join(dir, "0first.png"), 8, 8)
	require.NoError(t, s.Rescan())
	settle(t, s)

	// A key press that raced the swap still lands on the old cursor
	oldCursor.Next()
	oldCursor.Last()

	f := s.Frame()
	require.NotEmpty(t, f.Thumbnails)
	first := f.Thumbnails[0]
	assert.Equal(t, "0first.png", first.Name)
	assert.Equal(t, types.Loaded, first.State)
	assert.NotNil(t, first.Image)

	_, sched, _ := s.state()
	b, ok := sched.Cache().Get(filepath.Join(dir, "0first.png"))
	require.True(t, ok)
	assert.True(t, b.HasFull())
}

func TestWatcherTriggersRescan(t *testing.T) {
	dir := scenarioDir(t)
	cfg := testConfig()
	cfg.Catalog.Watch = true
	s := openSession(t, dir, cfg)
	settle(t, s)

	time.Sleep(50 * time.Millisecond)
	writeImage(t, filepath.Join(dir, "d.png"), 8, 8)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	assert.Eventually(t, func() bool { return s.Len() == 4 }, 5*time.Second, 20*time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := Open(context.Background(), scenarioDir(t), testConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	s.Close()
	s.Close()
	assert.NoError(t, s.Rescan())
}
