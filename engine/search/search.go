// Package search implements a generic A* shortest-path search over graphs
// whose outgoing edges are enumerated lazily, one node at a time.
package search

import (
	"errors"
	"log/slog"

	"github.com/emirpasic/gods/queues/priorityqueue"
)

// ErrNoPath is returned when the open list is exhausted before any node
// satisfying the target test is reached.
var ErrNoPath = errors.New("search: no path found")

// Edge is one weighted, labeled transition between two nodes.
type Edge[N, L any] struct {
	Source N
	Target N
	Cost   float64
	Label  L
}

// Graph enumerates the outgoing edges of a node. Implementations may compute
// edges lazily on first access.
type Graph[N, L any] interface {
	OutgoingEdges(n N) []Edge[N, L]
}

// Heuristic estimates the remaining cost from node to target. It must never
// be negative.
type Heuristic[N any] func(node, target N) float64

// TargetTest reports whether node satisfies target.
type TargetTest[N any] func(node, target N) bool

// Comparer deduplicates nodes in the closed set. Equal nodes must hash equal.
type Comparer[N any] interface {
	Hash(n N) uint64
	Equal(a, b N) bool
}

// Path is a sequence of edges leading from Source, with its total cost.
type Path[N, L any] struct {
	Source N
	Edges  []Edge[N, L]
	Cost   float64
}

// Len returns the number of edges in the path.
func (p Path[N, L]) Len() int {
	return len(p.Edges)
}

// Last returns the destination of the final edge. Calling Last on an empty
// path is a programming error and panics.
func (p Path[N, L]) Last() N {
	if len(p.Edges) == 0 {
		panic("search: Last called on an empty path")
	}
	return p.Edges[len(p.Edges)-1].Target
}

// Labels returns the edge labels in path order.
func (p Path[N, L]) Labels() []L {
	out := make([]L, len(p.Edges))
	for i, e := range p.Edges {
		out[i] = e.Label
	}
	return out
}

// Stats describes the work done by one search.
type Stats struct {
	Expanded  int // nodes whose outgoing edges were enumerated
	Generated int // partial paths pushed onto the open list
	Pruned    int // partial paths dropped by the depth bound
}

type settings struct {
	maxDepth int
	logger   *slog.Logger
}

// Option configures a Pathfinder.
type Option func(*settings)

// WithMaxDepth bounds the number of edges in any explored path. Paths that
// already hold n edges are tested against the target but never extended.
// Zero or negative means unbounded.
func WithMaxDepth(n int) Option {
	return func(s *settings) { s.maxDepth = n }
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// Pathfinder runs A* searches with a fixed heuristic and settings.
// A Pathfinder holds no per-search state and may be shared.
type Pathfinder[N, L any] struct {
	heuristic Heuristic[N]
	settings
}

// New creates a Pathfinder. A nil heuristic means the zero heuristic, which
// degrades A* to uniform-cost search.
func New[N, L any](h Heuristic[N], opts ...Option) *Pathfinder[N, L] {
	if h == nil {
		h = func(N, N) float64 { return 0 }
	}
	s := settings{logger: slog.Default()}
	for _, o := range opts {
		o(&s)
	}
	return &Pathfinder[N, L]{heuristic: h, settings: s}
}

// MaxDepth returns the configured depth bound; zero means unbounded.
func (pf *Pathfinder[N, L]) MaxDepth() int {
	return pf.maxDepth
}

// FindPath returns a minimum-cost path from source to a node satisfying
// isTarget, or ErrNoPath. The result is optimal when the heuristic is
// admissible and consistent. Without a depth bound closed nodes are never
// reopened; with one, a node is reopened only when reached in fewer edges.
func (pf *Pathfinder[N, L]) FindPath(g Graph[N, L], source, target N, isTarget TargetTest[N], nodes Comparer[N]) (Path[N, L], error) {
	p, _, err := pf.Search(g, source, target, isTarget, nodes)
	return p, err
}

// partial is a path under construction, stored as a parent-linked chain so
// that extending a path is O(1).
type partial[N, L any] struct {
	parent   *partial[N, L]
	edge     Edge[N, L]
	node     N
	cost     float64
	estimate float64
	depth    int
	seq      uint64
}

func (p *partial[N, L]) path(source N) Path[N, L] {
	edges := make([]Edge[N, L], p.depth)
	for cur := p; cur.parent != nil; cur = cur.parent {
		edges[cur.depth-1] = cur.edge
	}
	return Path[N, L]{Source: source, Edges: edges, Cost: p.cost}
}

// byEstimate orders partial paths by estimated total cost, then by insertion
// order so that equal estimates pop FIFO.
func byEstimate[N, L any](a, b interface{}) int {
	pa, pb := a.(*partial[N, L]), b.(*partial[N, L])
	switch {
	case pa.estimate < pb.estimate:
		return -1
	case pa.estimate > pb.estimate:
		return 1
	case pa.seq < pb.seq:
		return -1
	case pa.seq > pb.seq:
		return 1
	}
	return 0
}

// closedSet is a hash-bucketed set of expanded nodes, each with the depth
// it was expanded at.
type closedSet[N any] struct {
	cmp     Comparer[N]
	buckets map[uint64][]closedEntry[N]
}

type closedEntry[N any] struct {
	node  N
	depth int
}

// depth returns the depth n was expanded at, if it was.
func (c *closedSet[N]) depth(n N) (int, bool) {
	for _, e := range c.buckets[c.cmp.Hash(n)] {
		if c.cmp.Equal(e.node, n) {
			return e.depth, true
		}
	}
	return 0, false
}

func (c *closedSet[N]) add(n N, depth int) {
	h := c.cmp.Hash(n)
	bucket := c.buckets[h]
	for i := range bucket {
		if c.cmp.Equal(bucket[i].node, n) {
			bucket[i].depth = depth
			return
		}
	}
	c.buckets[h] = append(bucket, closedEntry[N]{node: n, depth: depth})
}

// skip reports whether a partial path ending at n with the given depth is
// dominated by an earlier expansion of n. Under a depth bound a node is
// expanded again when a path reaches it with fewer edges, since only the
// shallower path may have room left to reach the target.
func (pf *Pathfinder[N, L]) skip(closed *closedSet[N], n N, depth int) bool {
	d, ok := closed.depth(n)
	if !ok {
		return false
	}
	return pf.maxDepth <= 0 || d <= depth
}

// Search is FindPath that also reports search statistics, including on
// failure.
func (pf *Pathfinder[N, L]) Search(g Graph[N, L], source, target N, isTarget TargetTest[N], nodes Comparer[N]) (Path[N, L], Stats, error) {
	var stats Stats
	var seq uint64

	open := priorityqueue.NewWith(byEstimate[N, L])
	closed := &closedSet[N]{cmp: nodes, buckets: map[uint64][]closedEntry[N]{}}

	open.Enqueue(&partial[N, L]{node: source, estimate: pf.heuristic(source, target)})

	for !open.Empty() {
		v, _ := open.Dequeue()
		cur := v.(*partial[N, L])

		if pf.skip(closed, cur.node, cur.depth) {
			continue
		}
		if isTarget(cur.node, target) {
			pf.logger.Debug("search: path found",
				"cost", cur.cost, "length", cur.depth,
				"expanded", stats.Expanded, "generated", stats.Generated)
			return cur.path(source), stats, nil
		}
		if pf.maxDepth > 0 && cur.depth >= pf.maxDepth {
			stats.Pruned++
			continue
		}

		closed.add(cur.node, cur.depth)
		stats.Expanded++

		for _, e := range g.OutgoingEdges(cur.node) {
			seq++
			cost := cur.cost + e.Cost
			open.Enqueue(&partial[N, L]{
				parent:   cur,
				edge:     e,
				node:     e.Target,
				cost:     cost,
				estimate: cost + pf.heuristic(e.Target, target),
				depth:    cur.depth + 1,
				seq:      seq,
			})
			stats.Generated++
		}
	}

	pf.logger.Debug("search: open list exhausted",
		"expanded", stats.Expanded, "pruned", stats.Pruned, "max_depth", pf.maxDepth)
	return Path[N, L]{Source: source}, stats, ErrNoPath
}
