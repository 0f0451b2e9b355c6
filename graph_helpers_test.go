package diskann

import "math"

// memGraph is an in-memory Graph (and optionally LVQSource/PQSource)
// fixture for tests: a dense array of nodes indexed by id, with a
// tombstone set and per-node neighbor lists in the same id space.
type memGraph struct {
	vectors     [][]float32
	neighbors   [][]int
	tombstones  map[int]bool
	dim         int
	globalMean  []float32
	globalScale float32
	lvqBias     []float32
	lvqScale    []float32
	lvqCodes    [][]byte
	subspaces   int
	codebook    []float32
	pqCodes     map[[2]int][]byte
}

func newMemGraph(vectors [][]float32, neighbors [][]int) *memGraph {
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	return &memGraph{
		vectors:    vectors,
		neighbors:  neighbors,
		tombstones: make(map[int]bool),
		dim:        dim,
	}
}

func (g *memGraph) IDUpperBound() int { return len(g.vectors) }

func (g *memGraph) Tombstoned(id int) bool { return g.tombstones[id] }

func (g *memGraph) Neighbors(id int) []int { return g.neighbors[id] }

func (g *memGraph) VectorDim() int { return g.dim }

func (g *memGraph) Vector(id int) []float32 { return g.vectors[id] }

func (g *memGraph) LVQGlobalMean() []float32 { return g.globalMean }

func (g *memGraph) LVQGlobalScale() float32 { return g.globalScale }

func (g *memGraph) LVQNodeBias(id int) float32 { return g.lvqBias[id] }

func (g *memGraph) LVQNodeScale(id int) float32 { return g.lvqScale[id] }

func (g *memGraph) LVQNodeCodes(id int) []byte { return g.lvqCodes[id] }

func (g *memGraph) PQSubspaces() int { return g.subspaces }

func (g *memGraph) PQCodebook() []float32 { return g.codebook }

func (g *memGraph) PQNeighborCode(ownerID, neighborID int) []byte {
	return g.pqCodes[[2]int{ownerID, neighborID}]
}

// circularUnitVectors returns n 2-D unit vectors evenly spaced around the
// circle, matching scenario 1's "circular unit vectors" fixture.
func circularUnitVectors(n int) [][]float32 {
	out := make([][]float32, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		out[i] = []float32{float32(math.Cos(theta)), float32(math.Sin(theta))}
	}
	return out
}

// fullyConnected returns, for n nodes, each node's neighbor list containing
// every other node.
func fullyConnected(n int) [][]int {
	out := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				out[i] = append(out[i], j)
			}
		}
	}
	return out
}
