// Package session ties the catalog, cache, loader, scheduler and cursor
// together for one directory.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"imgsort/internal/cache"
	"imgsort/internal/catalog"
	"imgsort/internal/config"
	"imgsort/internal/decode"
	serr "imgsort/internal/errors"
	"imgsort/internal/log"
	"imgsort/internal/navigation"
	"imgsort/internal/organize"
	"imgsort/internal/prefetch"
	"imgsort/internal/watch"
	"imgsort/pkg/types"
)

// Session is one open directory. Navigation and Frame are safe to call
// from the UI goroutine while workers load in the background.
type Session struct {
	id        string
	cfg       *config.Config
	dir       string
	matcher   *catalog.GlobMatcher
	loader    *decode.Loader
	organizer organize.Organizer
	logger    log.Logging

	ctx    context.Context
	cancel context.CancelFunc

	rescanMu sync.Mutex // serializes Rescan
	mu       sync.RWMutex
	catalog  *catalog.Catalog
	sched    *prefetch.Scheduler
	cursor   *navigation.Cursor
	closed   bool

	watcher *watch.Watcher
	wg      sync.WaitGroup
}

// Open scans dir and starts loading around index 0. Only an unreadable
// directory is an error; an empty one yields an empty session.
func Open(ctx context.Context, dir string, cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	matcher, err := catalog.NewGlobMatcher(cfg.Catalog.Patterns...)
	if err != nil {
		return nil, serr.NewConfigError("invalid pattern", "catalog.patterns", serr.InvalidConfig, err)
	}

	id := uuid.New().String()
	logger := log.LogWithFields(log.F("session", id), log.F("directory", dir))

	cat, err := catalog.Scan(dir, matcher)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:      id,
		cfg:     cfg,
		dir:     dir,
		matcher: matcher,
		loader: decode.NewLoader(decode.Options{
			ScaleDown: cfg.Preload.ScaleDown,
			Thumbnail: cfg.Preload.Thumbnail,
			MaxPixels: cfg.Preload.MaxPixels,
		}),
		organizer: organize.CurrentOrganizerFactory(cfg),
		logger:    logger,
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	sched, cursor := s.build(cat)
	s.catalog, s.sched, s.cursor = cat, sched, cursor
	if cat.Len() > 0 {
		_ = cursor.MoveTo(0)
	}

	if cfg.Catalog.Watch {
		s.startWatcher()
	}

	logger.With(log.F("images", cat.Len())).Info("Session opened")
	return s, nil
}

// build creates the loading pipeline for cat. Every catalog gets its own
// cache so a stale cursor can only evict buffers of its own catalog.
func (s *Session) build(cat *catalog.Catalog) (*prefetch.Scheduler, *navigation.Cursor) {
	sched := prefetch.New(cat, cache.New(), s.loader, prefetch.Options{
		Radius:          s.cfg.Preload.Radius,
		ThumbnailRadius: s.cfg.Preload.ThumbnailRadius,
		Workers:         s.cfg.Preload.Workers,
		Debounce:        time.Duration(s.cfg.Preload.DebounceMillis) * time.Millisecond,
	})
	sched.Start(s.ctx)
	return sched, navigation.New(cat.Len(), sched)
}

func (s *Session) startWatcher() {
	w, err := watch.New(s.dir, s.matcher, watch.DefaultDebounce)
	if err != nil {
		s.logger.With(log.F("error", err.Error())).Warn("Directory watching disabled")
		return
	}
	if err := w.Start(); err != nil {
		s.logger.With(log.F("error", err.Error())).Warn("Directory watching disabled")
		return
	}
	s.watcher = w

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for batch := range w.Events() {
			s.logger.With(log.F("changes", len(batch))).Info("Directory changed, rescanning")
			if err := s.Rescan(); err != nil {
				log.LogWithError(err).Warn("Rescan failed")
			}
		}
	}()
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// Dir returns the session directory.
func (s *Session) Dir() string {
	return s.dir
}

// Config returns the configuration the session was opened with.
func (s *Session) Config() *config.Config {
	return s.cfg
}

func (s *Session) state() (*catalog.Catalog, *prefetch.Scheduler, *navigation.Cursor) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog, s.sched, s.cursor
}

// Len returns the number of images.
func (s *Session) Len() int {
	cat, _, _ := s.state()
	return cat.Len()
}

// Index returns the cursor position, or false when there are no images.
func (s *Session) Index() (int, bool) {
	_, _, cursor := s.state()
	return cursor.Index()
}

// Entries returns snapshots of every catalog entry.
func (s *Session) Entries() []catalog.Entry {
	cat, _, _ := s.state()
	return cat.Entries()
}

// MoveTo jumps to index i.
func (s *Session) MoveTo(i int) error {
	_, _, cursor := s.state()
	return cursor.MoveTo(i)
}

// Next moves forward one image, stopping at the last.
func (s *Session) Next() (int, bool) {
	_, _, cursor := s.state()
	return cursor.Next()
}

// Prev moves back one image, stopping at the first.
func (s *Session) Prev() (int, bool) {
	_, _, cursor := s.state()
	return cursor.Prev()
}

// First moves to the first image.
func (s *Session) First() (int, bool) {
	_, _, cursor := s.state()
	return cursor.First()
}

// Last moves to the last image.
func (s *Session) Last() (int, bool) {
	_, _, cursor := s.state()
	return cursor.Last()
}

// Retry reloads the current image if it failed.
func (s *Session) Retry() error {
	_, sched, cursor := s.state()
	i, ok := cursor.Index()
	if !ok {
		return serr.ErrEmptyCatalog
	}
	return sched.Retry(i)
}

// Wait blocks until the window around the cursor has finished loading.
func (s *Session) Wait(ctx context.Context) error {
	_, sched, _ := s.state()
	return sched.Wait(ctx)
}

// Tag tags the current image and advances to the next one.
func (s *Session) Tag(tag types.Tag) error {
	if !tag.Valid() {
		return serr.NewConfigError("unknown tag", "tags", serr.InvalidOperation, fmt.Errorf("%d", tag))
	}
	cat, _, cursor := s.state()
	i, ok := cursor.Index()
	if !ok {
		return serr.ErrEmptyCatalog
	}
	if err := cat.SetTag(i, tag); err != nil {
		return err
	}
	cursor.Next()
	return nil
}

// Untag clears the tag of the current image.
func (s *Session) Untag() error {
	cat, _, cursor := s.state()
	i, ok := cursor.Index()
	if !ok {
		return serr.ErrEmptyCatalog
	}
	return cat.SetTag(i, types.NoTag)
}

// TagCounts returns how many images carry each tag.
func (s *Session) TagCounts() map[types.Tag]int {
	cat, _, _ := s.state()
	return cat.TagCounts()
}

// MoveTagged moves every image tagged with tag into the subfolder named
// after the tag, then rescans.
func (s *Session) MoveTagged(tag types.Tag) ([]types.OrganizeResult, error) {
	name := s.cfg.TagName(tag)
	if name == "" {
		return nil, serr.NewConfigError("unknown tag", "tags.names", serr.InvalidOperation, fmt.Errorf("%d", tag))
	}

	cat, _, _ := s.state()
	var files []string
	for _, e := range cat.Tagged(tag) {
		files = append(files, e.Path)
	}
	if len(files) == 0 {
		return nil, nil
	}

	results, err := s.organizer.OrganizeTagged(files, filepath.Join(s.dir, name))
	s.logger.With(log.F("tag", name), log.F("files", len(files))).Info("Moved tagged images")

	if !s.cfg.Settings.DryRun {
		if rerr := s.Rescan(); rerr != nil && err == nil {
			err = rerr
		}
	}
	return results, err
}

// MoveAllTagged runs MoveTagged for every tag in use.
func (s *Session) MoveAllTagged() ([]types.OrganizeResult, error) {
	var all []types.OrganizeResult
	var firstErr error
	for _, tag := range types.AllTags() {
		results, err := s.MoveTagged(tag)
		all = append(all, results...)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return all, firstErr
}

// Rescan rereads the directory. The cache is dropped, tags are kept for
// files that still exist and the cursor stays on the same file when
// possible.
func (s *Session) Rescan() error {
	s.rescanMu.Lock()
	defer s.rescanMu.Unlock()

	oldCat, oldSched, oldCursor := s.state()
	if s.isClosed() {
		return nil
	}

	cat, err := catalog.Scan(s.dir, s.matcher)
	if err != nil {
		return err
	}
	cat.CopyTags(oldCat)

	index := 0
	if i, ok := oldCursor.Index(); ok {
		if j, found := cat.IndexOf(oldCat.Path(i)); found {
			index = j
		} else {
			index = min(i, cat.Len()-1)
		}
	}

	oldSched.Close()
	oldSched.Cache().Clear()

	sched, cursor := s.build(cat)
	s.mu.Lock()
	s.catalog, s.sched, s.cursor = cat, sched, cursor
	s.mu.Unlock()

	if cat.Len() > 0 {
		_ = cursor.MoveTo(max(index, 0))
	}

	s.logger.With(log.F("images", cat.Len())).Debug("Rescanned directory")
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close stops watching and loading and drops the cache.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.wg.Wait()

	s.rescanMu.Lock()
	_, sched, _ := s.state()
	s.cancel()
	sched.Close()
	sched.Cache().Clear()
	s.rescanMu.Unlock()

	s.logger.Debug("Session closed")
}

// Frame snapshots the current image, the thumbnail strip and the status
// line. It never waits for a load.
func (s *Session) Frame() Frame {
	cat, sched, cursor := s.state()

	f := Frame{Len: cat.Len()}
	idx, ok := cursor.Index()
	if !ok {
		f.Status = fmt.Sprintf("No images in %s", s.dir)
		return f
	}

	current := s.view(cat, sched.Cache(), idx, true)
	f.Current = &current

	t := s.cfg.Preload.ThumbnailRadius
	for i := max(idx-t, 0); i <= min(idx+t, cat.Len()-1); i++ {
		f.Thumbnails = append(f.Thumbnails, s.view(cat, sched.Cache(), i, false))
	}

	f.Loading = sched.InFlight()
	f.Status = s.status(cat, f.Loading, current)
	return f
}

func (s *Session) view(cat *catalog.Catalog, cc *cache.Cache, i int, full bool) View {
	e, _ := cat.Get(i)
	v := View{
		Index:   i,
		Path:    e.Path,
		Name:    e.Name(),
		Size:    e.Size,
		State:   e.State,
		Reason:  e.Reason,
		Tag:     e.Tag,
		TagName: s.cfg.TagName(e.Tag),
		Dim:     e.Dim,
	}

	box := s.cfg.Preload.Thumbnail
	if full {
		box = s.cfg.Preload.ScaleDown
	}

	b, cached := cc.Get(e.Path)
	if cached && v.Dim.IsZero() {
		v.Dim = b.Dim
	}
	switch {
	case full && b.HasFull():
		v.Image = b.Full
	case !full && b.HasThumb():
		v.Image = b.Thumb
	case e.State == types.Failed:
		v.Placeholder = PlaceholderFailed
	default:
		v.Placeholder = PlaceholderLoading
	}
	if v.Placeholder != PlaceholderNone {
		// Fit returns the box itself while the dimensions are unknown
		v.PlaceholderSize = v.Dim.Fit(box)
	}
	return v
}

func (s *Session) status(cat *catalog.Catalog, loading int, current View) string {
	parts := []string{fmt.Sprintf("%d/%d %s", current.Index+1, cat.Len(), current.Name)}
	if current.TagName != "" {
		parts = append(parts, "["+current.TagName+"]")
	}
	if current.State == types.Failed {
		parts = append(parts, "failed: "+current.Reason)
	}
	parts = append(parts, cat.Counts().String())
	if loading > 0 {
		parts = append(parts, fmt.Sprintf("Loading %d images...", loading))
	}
	return strings.Join(parts, " | ")
}
