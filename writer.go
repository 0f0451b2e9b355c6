package diskann

import (
	"io"
	"os"
)

// preparedNode is the fully-validated, ready-to-encode form of one output
// record, computed once by Builder.Build so that Writer.Write is a pure
// serialization loop that cannot itself fail on a precondition.
type preparedNode struct {
	origID        int
	origNeighbors []int // original id space, same order as newNeighbors
	newNeighbors  []int // dense ordinals, what's written to the file
}

// Builder assembles a Writer from a source graph, a requested feature
// set, and write-time configuration. Build validates every precondition
// up front; nothing is written until Write is called on its result.
type Builder struct {
	graph     Graph
	requested map[FeatureID]bool
	mapping   OrdinalMapping
	maxDegree int
	maxDegSet bool
	entryOrig int
	entrySet  bool
}

// NewBuilder starts a Builder over graph. The caller chains With/...
// methods and finishes with Build.
func NewBuilder(graph Graph) *Builder {
	return &Builder{graph: graph, requested: make(map[FeatureID]bool)}
}

// With requests that id be included in the artifact's feature set.
func (b *Builder) With(id FeatureID) *Builder {
	b.requested[id] = true
	return b
}

// WithMapping supplies an explicit ordinal mapping instead of the default
// sequential renumbering.
func (b *Builder) WithMapping(m OrdinalMapping) *Builder {
	b.mapping = m
	return b
}

// WithMaxDegree sets M, the fixed per-record neighbor slot count.
func (b *Builder) WithMaxDegree(m int) *Builder {
	b.maxDegree = m
	b.maxDegSet = true
	return b
}

// WithEntryNode sets the entry point by its id in the source graph's id
// space; Build resolves it to the corresponding ordinal.
func (b *Builder) WithEntryNode(origID int) *Builder {
	b.entryOrig = origID
	b.entrySet = true
	return b
}

// Build validates every write-time precondition and returns a Writer
// ready to be used exactly once. No bytes are produced by Build itself.
func (b *Builder) Build() (*Writer, error) {
	if !b.maxDegSet {
		return nil, &PreconditionViolation{Msg: "max degree not configured"}
	}
	if b.maxDegree < 0 {
		return nil, &PreconditionViolation{Msg: "max degree must be non-negative"}
	}

	mapping := b.mapping
	if mapping == nil {
		mapping = SequentialRenumbering(b.graph)
	}
	if err := validateMapping(mapping, b.graph); err != nil {
		return nil, err
	}

	if b.requested[FeatureFusedADC] && !b.requested[FeatureInlineVectors] && !b.requested[FeatureLVQ] {
		return nil, &PreconditionViolation{Msg: "FUSED_ADC requires an exact-score feature (INLINE_VECTORS or LVQ)"}
	}

	n := len(mapping)
	d := 0
	if b.requested[FeatureInlineVectors] || b.requested[FeatureLVQ] {
		d = b.graph.VectorDim()
	}

	entryOrd := 0
	if n > 0 {
		if b.entrySet {
			ord, ok := mapping[b.entryOrig]
			if !ok {
				return nil, &PreconditionViolation{Msg: "entry node is not present in the ordinal mapping"}
			}
			entryOrd = ord
		}
		if entryOrd < 0 || entryOrd >= n {
			return nil, &PreconditionViolation{Msg: "entry node ordinal out of range [0,N)"}
		}
	}

	features, err := b.buildFeatureCodecs(d)
	if err != nil {
		return nil, err
	}

	inverted := invert(mapping)
	prepared := make([]preparedNode, n)
	for k, origID := range inverted {
		neighbors := b.graph.Neighbors(origID)
		for _, nb := range neighbors {
			if nb < 0 || nb >= b.graph.IDUpperBound() {
				return nil, &PreconditionViolation{Msg: "neighbor id out of range in source graph"}
			}
		}
		origFiltered, renumbered := renumberNeighbors(mapping, neighbors)
		if len(renumbered) > b.maxDegree {
			return nil, &PreconditionViolation{Msg: "node has more neighbors than max degree"}
		}
		if b.requested[FeatureInlineVectors] && len(b.graph.Vector(origID)) != d {
			return nil, &PreconditionViolation{Msg: "vector length does not match declared dimension"}
		}
		if src, ok := b.graph.(LVQSource); ok && b.requested[FeatureLVQ] && len(src.LVQNodeCodes(origID)) != d {
			return nil, &PreconditionViolation{Msg: "LVQ code length does not match declared dimension"}
		}
		if src, ok := b.graph.(PQSource); ok && b.requested[FeatureFusedADC] {
			for _, nb := range origFiltered {
				if len(src.PQNeighborCode(origID, nb)) != src.PQSubspaces() {
					return nil, &PreconditionViolation{Msg: "PQ neighbor code length does not match subspace count"}
				}
			}
		}
		prepared[k] = preparedNode{origID: origID, origNeighbors: origFiltered, newNeighbors: renumbered}
	}

	common := CommonHeader{
		Version:        CurrentVersion,
		N:              n,
		D:              d,
		EntryNode:      entryOrd,
		MaxDegree:      b.maxDegree,
		FeatureBitmask: serializeFeatureSet(b.requested),
	}

	return &Writer{
		graph:    b.graph,
		common:   common,
		features: features,
		prepared: prepared,
	}, nil
}

func (b *Builder) buildFeatureCodecs(d int) ([]featureCodec, error) {
	ids := orderedPresentFeatures(serializeFeatureSet(b.requested))
	out := make([]featureCodec, 0, len(ids))
	for _, id := range ids {
		switch id {
		case FeatureInlineVectors:
			out = append(out, &inlineVectorsFeature{d: d})
		case FeatureLVQ:
			src, ok := b.graph.(LVQSource)
			if !ok {
				return nil, &PreconditionViolation{Msg: "graph does not implement LVQSource"}
			}
			out = append(out, &lvqFeature{d: d, globalMean: src.LVQGlobalMean(), globalScale: src.LVQGlobalScale()})
		case FeatureFusedADC:
			src, ok := b.graph.(PQSource)
			if !ok {
				return nil, &PreconditionViolation{Msg: "graph does not implement PQSource"}
			}
			s := src.PQSubspaces()
			if s <= 0 || d%s != 0 {
				return nil, &PreconditionViolation{Msg: "PQ subspace count does not divide dimension"}
			}
			out = append(out, &fusedADCFeature{d: d, s: s, m: b.maxDegree, codebook: src.PQCodebook()})
		}
	}
	return out, nil
}

// Create builds an artifact from graph with the given feature set and
// mapping (nil selects sequential renumbering) and writes it to path,
// chaining Builder.Build and Writer.Write against a freshly created file.
func Create(path string, graph Graph, features []FeatureID, maxDegree int, mapping OrdinalMapping) error {
	b := NewBuilder(graph).WithMaxDegree(maxDegree)
	for _, f := range features {
		b = b.With(f)
	}
	if mapping != nil {
		b = b.WithMapping(mapping)
	}
	w, err := b.Build()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return &IoError{Cause: err}
	}
	defer f.Close()
	return w.Write(f)
}

// Writer emits a single sealed artifact from its prepared, validated
// state. It is single-use: calling Write twice on the same Writer fails.
type Writer struct {
	graph    Graph
	common   CommonHeader
	features []featureCodec
	prepared []preparedNode
	written  bool
}

// Write serializes the artifact to out. It performs no seeks and can
// target any io.Writer, including a pure streaming sink. Calling Write a
// second time returns a PreconditionViolation without touching out.
func (w *Writer) Write(out io.Writer) error {
	if w.written {
		return &PreconditionViolation{Msg: "writer already used"}
	}
	w.written = true

	cw := newCodecWriter(out)
	if err := writeHeaderBytes(cw, w.common, w.features); err != nil {
		return err
	}

	m := w.common.MaxDegree
	for k, node := range w.prepared {
		if err := cw.WriteI32(int32(k)); err != nil {
			return err
		}
		for _, f := range w.features {
			ctx := nodeWriteContext{origID: node.origID, origNeighbors: node.origNeighbors, maxDegree: m}
			if err := f.WriteInline(cw, w.graph, ctx); err != nil {
				return err
			}
		}
		if err := cw.WriteI32(int32(len(node.newNeighbors))); err != nil {
			return err
		}
		ids := make([]int32, len(node.newNeighbors))
		for i, id := range node.newNeighbors {
			ids[i] = int32(id)
		}
		if err := cw.WriteI32Array(ids); err != nil {
			return err
		}
		pad := make([]int32, m-len(node.newNeighbors))
		for i := range pad {
			pad[i] = -1
		}
		if err := cw.WriteI32Array(pad); err != nil {
			return err
		}
	}
	return nil
}
