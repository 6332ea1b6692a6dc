// Package prefetch decodes the images around the navigation cursor on a
// bounded pool of workers.
package prefetch

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"imgsort/internal/cache"
	"imgsort/internal/catalog"
	serr "imgsort/internal/errors"
	"imgsort/internal/log"
	"imgsort/pkg/types"
)

// Loader decodes one image. *decode.Loader implements it.
type Loader interface {
	Load(ctx context.Context, path string, kind types.LoadKind) (*cache.Buffers, error)
}

// Options configures a Scheduler.
type Options struct {
	Radius          int           // full images on each side of the cursor
	ThumbnailRadius int           // thumbnails on each side of the cursor
	Workers         int           // decode goroutines
	Debounce        time.Duration // cursor moves within this window are coalesced
}

// DefaultOptions matches the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Radius:          5,
		ThumbnailRadius: 10,
		Workers:         4,
		Debounce:        15 * time.Millisecond,
	}
}

// Scheduler keeps the window around the cursor loaded. A single dispatcher
// goroutine owns the priority queue and hands items to the workers over an
// unbuffered channel, so items leave the queue strictly in priority order.
type Scheduler struct {
	catalog *catalog.Catalog
	cache   *cache.Cache
	loader  Loader
	opts    Options
	logger  log.Logging

	cursor    atomic.Int64
	requested atomic.Uint64 // bumped on every SetPriorityIndex or Retry
	wake      chan struct{}
	work      chan *item
	group     singleflight.Group // keyed by path
	shared    atomic.Int64

	mu       sync.Mutex
	applied  uint64 // value of requested behind the current queue
	pending  map[itemKey]struct{}
	cancels  map[itemKey]context.CancelFunc
	inFlight int

	// dispatched is called by the dispatcher for every item handed to a
	// worker, in hand-off order.
	dispatched func(index int, kind types.LoadKind)

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool
}

// New creates a Scheduler. Call Start to launch the workers.
func New(c *catalog.Catalog, cc *cache.Cache, loader Loader, opts Options) *Scheduler {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Radius < 0 {
		opts.Radius = 0
	}
	if opts.ThumbnailRadius < opts.Radius {
		opts.ThumbnailRadius = opts.Radius
	}
	return &Scheduler{
		catalog: c,
		cache:   cc,
		loader:  loader,
		opts:    opts,
		logger:  log.LogWithFields(log.F("component", "prefetch")),
		wake:    make(chan struct{}, 1),
		work:    make(chan *item),
		pending: make(map[itemKey]struct{}),
		cancels: make(map[itemKey]context.CancelFunc),
	}
}

// Options returns the effective options.
func (s *Scheduler) Options() Options {
	return s.opts
}

// Start launches the dispatcher and the workers. They stop when ctx is
// done or Close is called.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.dispatch(ctx)
	}()

	for w := 0; w < s.opts.Workers; w++ {
		s.wg.Add(1)
		go func(id int) {
			defer s.wg.Done()
			s.worker(ctx, id)
		}(w)
	}
	s.logger.With(log.F("workers", s.opts.Workers), log.F("images", s.catalog.Len())).Debug("Scheduler started")
}

// Close stops the scheduler and waits for running decodes to finish.
func (s *Scheduler) Close() {
	if !s.started.Load() {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// SetPriorityIndex moves the center of the load window to i. It never
// blocks; when called faster than the dispatcher runs, only the latest
// index is used.
func (s *Scheduler) SetPriorityIndex(i int) {
	s.cursor.Store(int64(i))
	s.requestRebuild()
}

// PriorityIndex returns the latest index passed to SetPriorityIndex.
func (s *Scheduler) PriorityIndex() int {
	return int(s.cursor.Load())
}

func (s *Scheduler) requestRebuild() {
	s.requested.Add(1)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Retry makes a Failed entry loadable again. It is a no-op for entries in
// any other state.
func (s *Scheduler) Retry(i int) error {
	if !s.catalog.InRange(i) {
		return serr.NewIndexError(i, s.catalog.Len())
	}
	if s.catalog.ResetFailed(i) {
		s.logger.With(log.F("index", i)).Info("Retrying failed image")
		s.requestRebuild()
	}
	return nil
}

// EvictOutsideWindow drops cached buffers outside the window around cursor
// and returns evicted entries to NotLoaded.
func (s *Scheduler) EvictOutsideWindow(cursor int) {
	evicted := s.cache.EvictOutsideWindow(cursor, s.opts.Radius, s.opts.ThumbnailRadius, s.catalog.IndexOf)
	for _, path := range evicted {
		if i, ok := s.catalog.IndexOf(path); ok {
			s.catalog.MarkNotLoaded(i)
		}
	}
	if len(evicted) > 0 {
		s.logger.With(log.F("cursor", cursor), log.F("evicted", len(evicted))).Debug("Evicted images outside window")
	}
}

// Cache returns the cache the scheduler fills.
func (s *Scheduler) Cache() *cache.Cache {
	return s.cache
}

// InFlight returns the number of decodes currently running.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Pending returns the number of queued and running items.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Settled reports whether the latest request has been queued and every
// queued item has finished.
func (s *Scheduler) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied == s.requested.Load() && len(s.pending) == 0
}

// Wait blocks until Settled or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for !s.Settled() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// inWindow reports whether it still belongs to the window around the
// latest cursor.
func (s *Scheduler) inWindow(it *item) bool {
	d := distance(it.index, s.PriorityIndex())
	if it.kind == types.LoadFull {
		return d <= s.opts.Radius
	}
	return d <= s.opts.ThumbnailRadius
}

func (s *Scheduler) dispatch(ctx context.Context) {
	var q queue
	for {
		var out chan *item
		var next *item
		if len(q) > 0 {
			out = s.work
			next = q[0]
		}

		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			if !s.debounce(ctx) {
				return
			}
			q = s.rebuild(q)
		case out <- next:
			heap.Pop(&q)
			if s.dispatched != nil {
				s.dispatched(next.index, next.kind)
			}
		}
	}
}

// debounce swallows further wake-ups for the configured interval.
func (s *Scheduler) debounce(ctx context.Context) bool {
	if s.opts.Debounce <= 0 {
		return true
	}
	timer := time.NewTimer(s.opts.Debounce)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-s.wake:
		case <-timer.C:
			return true
		}
	}
}

// rebuild replaces the queue with the items the current window still
// needs, in priority order, and cancels running items that fell out of it.
func (s *Scheduler) rebuild(q queue) queue {
	requested := s.requested.Load()
	cursor := s.PriorityIndex()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.applied = requested
	for _, it := range q {
		delete(s.pending, it.key())
	}
	q = q[:0]

	for key, cancel := range s.cancels {
		if !s.inWindow(&item{index: key.index, kind: key.kind}) {
			cancel()
		}
	}

	if !s.catalog.InRange(cursor) {
		return q
	}

	for d := 0; d <= s.opts.ThumbnailRadius; d++ {
		kind := types.LoadFull
		if d > s.opts.Radius {
			kind = types.LoadThumbnail
		}
		for _, i := range []int{cursor + d, cursor - d} {
			if (d == 0 && i != cursor) || !s.catalog.InRange(i) {
				continue
			}
			it := &item{index: i, path: s.catalog.Path(i), kind: kind, dist: d, forward: i >= cursor}
			if _, busy := s.pending[it.key()]; busy || !s.needs(it) {
				continue
			}
			s.pending[it.key()] = struct{}{}
			heap.Push(&q, it)
		}
	}
	return q
}

// needs reports whether it would produce something not already loaded.
func (s *Scheduler) needs(it *item) bool {
	if s.catalog.State(it.index) != types.NotLoaded {
		return false
	}
	if it.kind == types.LoadThumbnail {
		b, ok := s.cache.Get(it.path)
		return !ok || !b.HasThumb()
	}
	return true
}

func (s *Scheduler) worker(ctx context.Context, id int) {
	logger := s.logger.With(log.F("worker", id))
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-s.work:
			s.process(ctx, logger, it)
		}
	}
}

func (s *Scheduler) process(ctx context.Context, logger log.Logging, it *item) {
	key := it.key()

	s.mu.Lock()
	if !s.inWindow(it) {
		delete(s.pending, key)
		s.mu.Unlock()
		logger.With(log.F("item", it.String())).Debug("Skipping item outside window")
		return
	}
	itemCtx, cancel := context.WithCancel(ctx)
	s.cancels[key] = cancel
	s.inFlight++
	s.mu.Unlock()

	abandoned := false
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.cancels, key)
		delete(s.pending, key)
		s.inFlight--
		s.mu.Unlock()
		// The cursor may have come back while the item was being abandoned
		if abandoned && s.inWindow(it) {
			s.requestRebuild()
		}
	}()

	if it.kind == types.LoadFull && !s.catalog.MarkLoading(it.index) {
		return
	}

	start := time.Now()
	buf, shared, err := s.load(itemCtx, it)

	if err != nil {
		if isAbort(err) {
			if it.kind == types.LoadFull {
				s.catalog.MarkNotLoaded(it.index)
			}
			abandoned = true
			logger.With(log.F("item", it.String())).Debug("Load abandoned")
			return
		}
		s.fail(it, reasonOf(err))
		log.LogWithError(err).With(log.F("index", it.index)).Warn("Image failed to load")
		return
	}

	if buf == nil {
		s.fail(it, "no image data")
		return
	}

	if it.kind == types.LoadFull {
		s.cache.Put(it.path, buf.Full, buf.Thumb, buf.Dim)
		s.catalog.MarkLoaded(it.index, buf.Dim)
	} else {
		s.cache.PutThumb(it.path, buf.Thumb, buf.Dim)
		s.catalog.SetDim(it.index, buf.Dim)
	}

	logger.With(
		log.F("item", it.String()),
		log.F("elapsed", time.Since(start).String()),
		log.F("shared", shared),
	).Debug("Image loaded")
}

// decoded is what a shared decode hands to every caller that joined it.
type decoded struct {
	buf  *cache.Buffers
	kind types.LoadKind
}

// load decodes it, joining a decode of the same file that is already in
// flight. A full item that joined a thumbnail decode, or a decode that was
// abandoned by its owner, decodes the file again on its own.
func (s *Scheduler) load(ctx context.Context, it *item) (*cache.Buffers, bool, error) {
	v, err, shared := s.group.Do(it.path, func() (interface{}, error) {
		buf, err := s.loader.Load(ctx, it.path, it.kind)
		return &decoded{buf: buf, kind: it.kind}, err
	})
	if !shared {
		return v.(*decoded).buf, false, err
	}
	s.shared.Add(1)

	d := v.(*decoded)
	if it.kind == types.LoadFull && (isAbort(err) || (err == nil && d.kind != types.LoadFull)) {
		if err := ctx.Err(); err != nil {
			return nil, true, err
		}
		buf, err := s.loader.Load(ctx, it.path, types.LoadFull)
		return buf, true, err
	}
	return d.buf, true, err
}

// fail records a load failure. A thumbnail failure never overrides a full
// load that claimed the entry in the meantime.
func (s *Scheduler) fail(it *item, reason string) {
	if it.kind == types.LoadFull {
		s.catalog.MarkFailed(it.index, reason)
		return
	}
	s.catalog.FailUnclaimed(it.index, reason)
}

// Shared returns how many loads were served by a decode another item
// had already started.
func (s *Scheduler) Shared() int64 {
	return s.shared.Load()
}

func isAbort(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func reasonOf(err error) string {
	var fe *serr.FileError
	if serr.As(err, &fe) {
		return fe.Reason()
	}
	return err.Error()
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
