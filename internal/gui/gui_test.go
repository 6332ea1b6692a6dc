//go:build !nogui
// +build !nogui

package gui

import (
	"image"
	"testing"

	"imgsort/internal/config"
	"imgsort/internal/session"
	"imgsort/pkg/types"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	frame session.Frame
	calls []string
	tag   types.Tag
}

func (f *fakeSource) Frame() session.Frame { return f.frame }
func (f *fakeSource) Dir() string          { return "/photos" }
func (f *fakeSource) Next() (int, bool)    { f.calls = append(f.calls, "next"); return 0, true }
func (f *fakeSource) Prev() (int, bool)    { f.calls = append(f.calls, "prev"); return 0, true }
func (f *fakeSource) First() (int, bool)   { f.calls = append(f.calls, "first"); return 0, true }
func (f *fakeSource) Last() (int, bool)    { f.calls = append(f.calls, "last"); return 0, true }
func (f *fakeSource) Untag() error         { f.calls = append(f.calls, "untag"); return nil }
func (f *fakeSource) Retry() error         { f.calls = append(f.calls, "retry"); return nil }
func (f *fakeSource) Rescan() error        { return nil }

func (f *fakeSource) Tag(tag types.Tag) error {
	f.calls = append(f.calls, "tag")
	f.tag = tag
	return nil
}

func (f *fakeSource) MoveAllTagged() ([]types.OrganizeResult, error) { return nil, nil }

func failedFrame() session.Frame {
	cur := session.View{
		Index:           1,
		Name:            "b.png",
		State:           types.Failed,
		Reason:          "corrupt image",
		Placeholder:     session.PlaceholderFailed,
		PlaceholderSize: types.Dim{Width: 64, Height: 48},
	}
	loaded := session.View{
		Index: 0,
		Name:  "a.jpg",
		State: types.Loaded,
		Image: image.NewRGBA(image.Rect(0, 0, 16, 12)),
	}
	thumb := cur
	thumb.PlaceholderSize = types.Dim{Width: 16, Height: 12}
	return session.Frame{Current: &cur, Thumbnails: []session.View{loaded, thumb}, Len: 2, Status: "2/2 b.png"}
}

func TestViewerFailedPlaceholder(t *testing.T) {
	test.NewApp()
	v := newViewer(config.New())
	v.update(failedFrame())

	assert.False(t, v.image.Visible())
	assert.True(t, v.placeholder.Visible())
	assert.Equal(t, fyne.NewSize(64, 48), v.placeholder.MinSize())
	assert.Equal(t, failedColor, v.placeholder.FillColor)
	assert.Equal(t, "failed: corrupt image", v.caption.Text)
	assert.Equal(t, "2/2 b.png", v.status.Text)
	assert.Len(t, v.strip.Objects, 2)
}

func TestViewerLoadingAndLoaded(t *testing.T) {
	test.NewApp()
	v := newViewer(config.New())

	cur := session.View{
		Placeholder:     session.PlaceholderLoading,
		PlaceholderSize: types.Dim{Width: 160, Height: 90},
	}
	v.update(session.Frame{Current: &cur, Len: 1})
	assert.Equal(t, loadingColor, v.placeholder.FillColor)
	assert.Equal(t, fyne.NewSize(160, 90), v.placeholder.MinSize())
	assert.Equal(t, "loading", v.caption.Text)

	img := image.NewRGBA(image.Rect(0, 0, 160, 90))
	cur = session.View{State: types.Loaded, Image: img}
	v.update(session.Frame{Current: &cur, Len: 1})
	assert.True(t, v.image.Visible())
	assert.Equal(t, image.Image(img), v.image.Image)
	assert.False(t, v.placeholder.Visible())
}

func TestViewerEmpty(t *testing.T) {
	test.NewApp()
	v := newViewer(config.New())
	v.update(session.Frame{Status: "No images in /photos"})

	assert.Equal(t, "No images", v.caption.Text)
	assert.Empty(t, v.strip.Objects)
}

func TestAppKeys(t *testing.T) {
	src := &fakeSource{frame: failedFrame()}
	a := newApp(test.NewApp(), src, config.New())
	defer a.Close()

	w := a.GetMainWindow()
	require.NotNil(t, w.Content())

	a.handleKey(&fyne.KeyEvent{Name: fyne.KeyRight})
	a.handleKey(&fyne.KeyEvent{Name: fyne.KeyLeft})
	a.handleKey(&fyne.KeyEvent{Name: fyne.KeyEnd})
	a.handleKey(&fyne.KeyEvent{Name: fyne.KeyH}) // letters come through runes
	a.handleRune('g')
	a.handleRune('o')
	a.handleRune('0')
	a.handleRune('r')
	a.handleRune('z')

	assert.Equal(t, []string{"next", "prev", "last", "first", "tag", "untag", "retry"}, src.calls)
	assert.Equal(t, types.Tag2, src.tag)
}

func TestMoveSummary(t *testing.T) {
	assert.Equal(t, "Nothing tagged", moveSummary(nil))
	assert.Equal(t, "Moved 1 of 2 images", moveSummary([]types.OrganizeResult{{Moved: true}, {}}))
}
