package diskann

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// cachedNode is an immutable, fully-decoded snapshot of one node: its
// neighbor list and (if the artifact has an exact-score feature) its
// vector. Once built it is never mutated, so it's safe to share across
// goroutines without locking.
type cachedNode struct {
	neighbors []int
	vector    []float32
}

// cacheNodeID is a bare node identity for the viewGraph adapter below, in
// the same minimal style as the *node type internal/batch/batch.go
// defines to drive its own gonum graph.
type cacheNodeID int64

func (n cacheNodeID) ID() int64 { return int64(n) }

// viewGraph adapts a View's on-disk adjacency to gonum's graph.Graph
// interface, resolving each node's out-edges through GetNeighbors on
// demand instead of materializing the whole graph in memory, so
// gonum.org/v1/gonum/graph/traverse can drive GraphCache's bounded BFS
// frontier expansion directly against the View. err records the first
// read failure encountered during traversal, surfaced by NewGraphCache
// once the walk finishes.
type viewGraph struct {
	v   *View
	err error
}

func (g *viewGraph) Node(id int64) graph.Node {
	if id < 0 || id >= int64(g.v.Size()) {
		return nil
	}
	return cacheNodeID(id)
}

func (g *viewGraph) Nodes() graph.Nodes {
	nodes := make([]graph.Node, g.v.Size())
	for i := range nodes {
		nodes[i] = cacheNodeID(i)
	}
	return iterator.NewOrderedNodes(nodes)
}

func (g *viewGraph) From(id int64) graph.Nodes {
	neighbors, err := g.v.GetNeighbors(int(id))
	if err != nil {
		if g.err == nil {
			g.err = err
		}
		return iterator.NewOrderedNodes(nil)
	}
	nodes := make([]graph.Node, len(neighbors))
	for i, nbr := range neighbors {
		nodes[i] = cacheNodeID(nbr)
	}
	return iterator.NewOrderedNodes(nodes)
}

func (g *viewGraph) HasEdgeBetween(xid, yid int64) bool {
	neighbors, err := g.v.GetNeighbors(int(xid))
	if err != nil {
		if g.err == nil {
			g.err = err
		}
		return false
	}
	for _, nbr := range neighbors {
		if int64(nbr) == yid {
			return true
		}
	}
	return false
}

func (g *viewGraph) Edge(uid, vid int64) graph.Edge {
	if !g.HasEdgeBetween(uid, vid) {
		return nil
	}
	return simple.Edge{F: cacheNodeID(uid), T: cacheNodeID(vid)}
}

// GraphCache pins a bounded set of hot nodes (reached by breadth-first
// search from the entry node) in memory over a View, answering queries
// for pinned nodes without touching the underlying reader. Misses fall
// through to the wrapped View. Eviction is out of scope: once pinned, an
// entry is never dropped.
type GraphCache struct {
	view   *View
	pinned map[int]*cachedNode
}

// NewGraphCache builds a cache over view, pinning up to maxPinned nodes
// reachable from entryNode by breadth-first search.
func NewGraphCache(view *View, entryNode, maxPinned int) (*GraphCache, error) {
	c := &GraphCache{
		view:   view,
		pinned: make(map[int]*cachedNode),
	}
	if view.Size() == 0 || maxPinned <= 0 {
		return c, nil
	}

	order := []int{entryNode}
	bf := traverse.BreadthFirst{
		Visit: func(u, v graph.Node) {
			if len(order) >= maxPinned {
				return
			}
			order = append(order, int(v.ID()))
		},
	}
	adapter := &viewGraph{v: view}
	bf.Walk(adapter, cacheNodeID(entryNode), func(graph.Node, int) bool {
		return len(order) >= maxPinned
	})
	if adapter.err != nil {
		return nil, adapter.err
	}

	for _, id := range order {
		node, err := c.load(id)
		if err != nil {
			return nil, err
		}
		c.pinned[id] = node
	}
	return c, nil
}

func (c *GraphCache) load(id int) (*cachedNode, error) {
	neighbors, err := c.view.GetNeighbors(id)
	if err != nil {
		return nil, err
	}
	node := &cachedNode{neighbors: neighbors}
	if c.view.hasFeature(FeatureInlineVectors) || c.view.hasFeature(FeatureLVQ) {
		vec, err := c.view.GetVector(id)
		if err != nil {
			return nil, err
		}
		node.vector = vec
	}
	return node, nil
}

// GetNeighbors returns id's neighbor list, served from the pinned
// snapshot if present, otherwise falling through to the View.
func (c *GraphCache) GetNeighbors(id int) ([]int, error) {
	if node, ok := c.pinned[id]; ok {
		return node.neighbors, nil
	}
	return c.view.GetNeighbors(id)
}

// GetVector returns id's vector, served from the pinned snapshot if
// present, otherwise falling through to the View.
func (c *GraphCache) GetVector(id int) ([]float32, error) {
	if node, ok := c.pinned[id]; ok && node.vector != nil {
		return node.vector, nil
	}
	return c.view.GetVector(id)
}

// Pinned reports whether id is currently pinned in memory.
func (c *GraphCache) Pinned(id int) bool {
	_, ok := c.pinned[id]
	return ok
}
