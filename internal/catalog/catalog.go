// Package catalog holds the ordered list of image files in a directory and
// the load state of each one.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	serr "imgsort/internal/errors"
	"imgsort/internal/log"
	"imgsort/pkg/types"
)

// Entry is a point-in-time copy of one catalog entry.
type Entry struct {
	Index   int
	Path    string
	Size    int64
	ModTime time.Time
	State   types.LoadState
	Reason  string // set when State is Failed
	Dim     types.Dim
	Tag     types.Tag
}

// Name returns the base name of the entry's file.
func (e Entry) Name() string {
	return filepath.Base(e.Path)
}

type entry struct {
	mu      sync.Mutex
	path    string
	size    int64
	modTime time.Time
	state   types.LoadState
	reason  string
	dim     types.Dim
	tag     types.Tag
}

func (e *entry) snapshot(i int) Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Entry{
		Index:   i,
		Path:    e.path,
		Size:    e.size,
		ModTime: e.modTime,
		State:   e.state,
		Reason:  e.reason,
		Dim:     e.dim,
		Tag:     e.tag,
	}
}

// Catalog is the ordered set of images found by Scan. Its order and paths
// never change; only per-entry state and tags do, each under the entry's
// own lock.
type Catalog struct {
	dir     string
	entries []*entry
	index   map[string]int
}

// Scan lists the image files directly inside dir. An empty directory is a
// valid, empty catalog. Only an unreadable directory is an error.
func Scan(dir string, m Matcher) (*Catalog, error) {
	logger := log.LogWithFields(log.F("directory", dir))

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serr.NewFileError("directory not found", dir, serr.FileNotFound, err)
		}
		return nil, serr.NewIOError(dir, err)
	}

	c := &Catalog{
		dir:   dir,
		index: make(map[string]int, len(dirEntries)),
	}

	// os.ReadDir returns entries sorted by name
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || (m != nil && !m.Match(name)) {
			continue
		}

		path := filepath.Clean(filepath.Join(dir, name))
		if _, dup := c.index[path]; dup {
			continue
		}

		info, err := de.Info()
		if err == nil && de.Type()&os.ModeSymlink != 0 {
			info, err = os.Stat(path)
		}
		if err != nil {
			logger.With(log.F("file", name), log.F("error", err.Error())).Warn("Skipping unreadable entry")
			continue
		}
		if info.IsDir() {
			continue
		}

		c.index[path] = len(c.entries)
		c.entries = append(c.entries, &entry{
			path:    path,
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}

	logger.With(log.F("images", len(c.entries))).Debug("Directory scanned")
	return c, nil
}

// Dir returns the scanned directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// InRange reports whether i is a valid index.
func (c *Catalog) InRange(i int) bool {
	return i >= 0 && i < len(c.entries)
}

// Get returns a snapshot of entry i.
func (c *Catalog) Get(i int) (Entry, error) {
	if !c.InRange(i) {
		return Entry{}, serr.NewIndexError(i, len(c.entries))
	}
	return c.entries[i].snapshot(i), nil
}

// Path returns the path of entry i, or "" when i is out of range.
func (c *Catalog) Path(i int) string {
	if !c.InRange(i) {
		return ""
	}
	return c.entries[i].path
}

// IndexOf returns the position of path in the catalog.
func (c *Catalog) IndexOf(path string) (int, bool) {
	i, ok := c.index[filepath.Clean(path)]
	return i, ok
}

// Paths returns all paths in catalog order.
func (c *Catalog) Paths() []string {
	paths := make([]string, len(c.entries))
	for i, e := range c.entries {
		paths[i] = e.path
	}
	return paths
}

// Entries returns snapshots of all entries.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.snapshot(i)
	}
	return out
}

// State returns the load state of entry i. Out of range indices report
// NotLoaded.
func (c *Catalog) State(i int) types.LoadState {
	if !c.InRange(i) {
		return types.NotLoaded
	}
	e := c.entries[i]
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// transition moves entry i to state to if its current state is one of from.
func (c *Catalog) transition(i int, to types.LoadState, update func(*entry), from ...types.LoadState) bool {
	if !c.InRange(i) {
		return false
	}
	e := c.entries[i]
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range from {
		if e.state == s {
			e.state = to
			if update != nil {
				update(e)
			}
			return true
		}
	}
	return false
}

// MarkLoading claims a NotLoaded entry for loading. It returns false when
// the entry is in any other state.
func (c *Catalog) MarkLoading(i int) bool {
	return c.transition(i, types.Loading, nil, types.NotLoaded)
}

// MarkLoaded records a finished load.
func (c *Catalog) MarkLoaded(i int, dim types.Dim) bool {
	return c.transition(i, types.Loaded, func(e *entry) {
		e.dim = dim
		e.reason = ""
	}, types.Loading)
}

// MarkFailed records a failed load of a claimed entry.
func (c *Catalog) MarkFailed(i int, reason string) bool {
	return c.transition(i, types.Failed, func(e *entry) {
		e.reason = reason
	}, types.Loading)
}

// FailUnclaimed records a failed thumbnail load. An entry a full load has
// already claimed is left to that load.
func (c *Catalog) FailUnclaimed(i int, reason string) bool {
	return c.transition(i, types.Failed, func(e *entry) {
		e.reason = reason
	}, types.NotLoaded)
}

// MarkNotLoaded returns an abandoned or evicted entry to NotLoaded.
// Failed entries are left alone.
func (c *Catalog) MarkNotLoaded(i int) bool {
	return c.transition(i, types.NotLoaded, nil, types.Loading, types.Loaded)
}

// ResetFailed makes a Failed entry loadable again.
func (c *Catalog) ResetFailed(i int) bool {
	return c.transition(i, types.NotLoaded, func(e *entry) {
		e.reason = ""
	}, types.Failed)
}

// SetDim records the image dimensions of entry i without changing its
// state.
func (c *Catalog) SetDim(i int, dim types.Dim) {
	if !c.InRange(i) {
		return
	}
	e := c.entries[i]
	e.mu.Lock()
	e.dim = dim
	e.mu.Unlock()
}

// SetTag tags entry i. types.NoTag clears the tag.
func (c *Catalog) SetTag(i int, tag types.Tag) error {
	if !c.InRange(i) {
		return serr.NewIndexError(i, len(c.entries))
	}
	if tag != types.NoTag && !tag.Valid() {
		return serr.NewFileError(fmt.Sprintf("invalid tag %d", tag), c.entries[i].path, serr.InvalidOperation, nil)
	}
	e := c.entries[i]
	e.mu.Lock()
	e.tag = tag
	e.mu.Unlock()
	return nil
}

// Counts tallies entries per load state.
type Counts struct {
	NotLoaded int
	Loading   int
	Loaded    int
	Failed    int
}

func (c Counts) String() string {
	return fmt.Sprintf("%d loaded, %d loading, %d failed", c.Loaded, c.Loading, c.Failed)
}

// Counts returns the number of entries in each load state.
func (c *Catalog) Counts() Counts {
	var counts Counts
	for i := range c.entries {
		switch c.State(i) {
		case types.NotLoaded:
			counts.NotLoaded++
		case types.Loading:
			counts.Loading++
		case types.Loaded:
			counts.Loaded++
		case types.Failed:
			counts.Failed++
		}
	}
	return counts
}

// TagCounts returns how many entries carry each tag.
func (c *Catalog) TagCounts() map[types.Tag]int {
	counts := make(map[types.Tag]int)
	for i, e := range c.entries {
		if s := e.snapshot(i); s.Tag != types.NoTag {
			counts[s.Tag]++
		}
	}
	return counts
}

// Tagged returns snapshots of the entries tagged with tag, in order.
func (c *Catalog) Tagged(tag types.Tag) []Entry {
	var out []Entry
	for i, e := range c.entries {
		if s := e.snapshot(i); s.Tag == tag {
			out = append(out, s)
		}
	}
	return out
}

// CopyTags carries tags over from another catalog for paths present in both.
func (c *Catalog) CopyTags(from *Catalog) {
	if from == nil {
		return
	}
	for i, e := range from.entries {
		s := e.snapshot(i)
		if s.Tag == types.NoTag {
			continue
		}
		if j, ok := c.IndexOf(s.Path); ok {
			_ = c.SetTag(j, s.Tag)
		}
	}
}
