package types

// LoadState is the load status of one catalog entry. Every scanned entry
// is always in exactly one of these states; there is no "out of range"
// value.
type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case NotLoaded:
		return "not loaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "invalid"
	}
}

// Valid reports whether s is one of the four defined states.
func (s LoadState) Valid() bool {
	return s >= NotLoaded && s <= Failed
}

// LoadKind selects which buffers a work item produces.
type LoadKind int

const (
	// LoadFull decodes the image once and produces both the scaled-down
	// full buffer and the thumbnail.
	LoadFull LoadKind = iota
	// LoadThumbnail produces only the thumbnail.
	LoadThumbnail
)

func (k LoadKind) String() string {
	if k == LoadThumbnail {
		return "thumbnail"
	}
	return "full"
}
