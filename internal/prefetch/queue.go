package prefetch

import (
	"fmt"

	"imgsort/pkg/types"
)

// item is one unit of work: decode index in the given kind.
type item struct {
	index   int
	path    string
	kind    types.LoadKind
	dist    int  // distance from the cursor when queued
	forward bool // index >= cursor
}

type itemKey struct {
	index int
	kind  types.LoadKind
}

func (it *item) key() itemKey {
	return itemKey{index: it.index, kind: it.kind}
}

func (it *item) String() string {
	return fmt.Sprintf("%d/%s", it.index, it.kind)
}

// queue is a container/heap ordered by priority: nearest to the cursor
// first, forward before backward, full images before thumbnails.
type queue []*item

func (q queue) Len() int { return len(q) }

func (q queue) Less(a, b int) bool {
	x, y := q[a], q[b]
	if x.dist != y.dist {
		return x.dist < y.dist
	}
	if x.forward != y.forward {
		return x.forward
	}
	if x.kind != y.kind {
		return x.kind == types.LoadFull
	}
	return x.index < y.index
}

func (q queue) Swap(a, b int) { q[a], q[b] = q[b], q[a] }

func (q *queue) Push(x any) { *q = append(*q, x.(*item)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}
