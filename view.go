package diskann

import (
	"fmt"
	"io"
	"os"
)

// ReaderFactory produces an independent reader cursor over an artifact's
// bytes, plus a Closer releasing whatever resource backs it (an open file
// descriptor, typically). Multiple factory calls must yield cursors that
// share the same immutable backing bytes without sharing file-pointer
// state, so that each View (and each Duplicate) owns an independent
// cursor safely usable from its own goroutine.
type ReaderFactory func() (io.ReaderAt, io.Closer, error)

// View is a single-threaded, random-access cursor over one artifact. It
// is not safe for concurrent use; obtain one View per goroutine via
// Duplicate.
type View struct {
	factory    ReaderFactory
	baseOffset int64

	h      *header
	r      *codecReader
	closer io.Closer
	closed bool

	neighborScratch []int32
}

// OpenArtifact opens an artifact via factory, parsing its Header starting
// at baseOffset (normally 0).
func OpenArtifact(factory ReaderFactory, baseOffset int64) (*View, error) {
	ra, closer, err := factory()
	if err != nil {
		return nil, &IoError{Cause: err}
	}
	r := newCodecReader(ra, baseOffset)
	h, err := parseHeader(r, baseOffset)
	if err != nil {
		closer.Close()
		return nil, err
	}
	return &View{
		factory:         factory,
		baseOffset:      baseOffset,
		h:               h,
		r:               r,
		closer:          closer,
		neighborScratch: make([]int32, h.common.MaxDegree),
	}, nil
}

// Open opens the artifact at path on the local filesystem, returning a
// ready-to-use View. Each call to Duplicate on the result reopens path
// independently.
func Open(path string) (*View, error) {
	factory := func() (io.ReaderAt, io.Closer, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	}
	return OpenArtifact(factory, 0)
}

// Duplicate returns an independent View over the same artifact, sharing
// no cursor or scratch state with its parent. Safe to call concurrently
// with operations on the parent.
func (v *View) Duplicate() (*View, error) {
	ra, closer, err := v.factory()
	if err != nil {
		return nil, &IoError{Cause: err}
	}
	return &View{
		factory:         v.factory,
		baseOffset:      v.baseOffset,
		h:               v.h,
		r:               newCodecReader(ra, v.baseOffset),
		closer:          closer,
		neighborScratch: make([]int32, v.h.common.MaxDegree),
	}, nil
}

// Close releases the underlying reader. Double-close is a no-op.
func (v *View) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	return v.closer.Close()
}

func (v *View) Size() int      { return v.h.common.N }
func (v *View) EntryNode() int { return v.h.common.EntryNode }
func (v *View) MaxDegree() int { return v.h.common.MaxDegree }
func (v *View) Dimension() int { return v.h.common.D }
func (v *View) Version() int   { return int(v.h.common.Version) }

func (v *View) hasFeature(id FeatureID) bool {
	return v.h.featureByID(id) != nil
}

func (v *View) neighborsOffsetFor(k int64) int64 {
	return v.h.baseOffset + k*v.h.recordSize + 4 + int64(v.h.featureInlineTot)
}

// GetNeighbors returns node k's live neighbor ordinals, in on-disk order.
func (v *View) GetNeighbors(k int) ([]int, error) {
	if k < 0 || k >= v.h.common.N {
		return nil, &FormatError{Msg: "node ordinal out of range"}
	}
	v.r.Seek(v.neighborsOffsetFor(int64(k)))
	count, err := v.r.ReadI32()
	if err != nil {
		return nil, err
	}
	if count < 0 || int(count) > v.h.common.MaxDegree {
		return nil, &FormatError{Msg: fmt.Sprintf("neighborCount %d exceeds maxDegree %d", count, v.h.common.MaxDegree)}
	}
	buf := v.neighborScratch[:count]
	if err := v.r.ReadI32Into(buf); err != nil {
		return nil, err
	}
	out := make([]int, count)
	for i, id := range buf {
		if id < 0 || int(id) >= v.h.common.N {
			return nil, &FormatError{Msg: "neighbor id out of range"}
		}
		out[i] = int(id)
	}
	return out, nil
}

// recordBaseOffset returns the offset of the leading sanity i32 of record k.
func (v *View) recordBaseOffset(k int64) int64 {
	return v.h.baseOffset + k*v.h.recordSize
}

// featureOffsetFor returns the byte offset of id's inline block within
// record k, or -1 if id is not present in this artifact.
func (v *View) featureOffsetFor(k int64, id FeatureID) int64 {
	offset := v.recordBaseOffset(k) + 4
	for _, f := range v.h.features {
		if f.ID() == id {
			return offset
		}
		offset += int64(f.InlineSize())
	}
	return -1
}

// GetVector returns node k's vector, decoded from whichever exact-score
// feature is present (INLINE_VECTORS preferred, then LVQ's dequantized
// approximation).
func (v *View) GetVector(k int) ([]float32, error) {
	if k < 0 || k >= v.h.common.N {
		return nil, &FormatError{Msg: "node ordinal out of range"}
	}
	if inline := v.h.featureByID(FeatureInlineVectors); inline != nil {
		v.r.Seek(v.featureOffsetFor(int64(k), FeatureInlineVectors))
		return inline.(*inlineVectorsFeature).readVector(v.r)
	}
	if lvq := v.h.featureByID(FeatureLVQ); lvq != nil {
		v.r.Seek(v.featureOffsetFor(int64(k), FeatureLVQ))
		return lvq.(*lvqFeature).readVector(v.r)
	}
	return nil, &Unsupported{Op: "GetVector"}
}

// RerankerFor returns a closure computing the exact similarity score
// between query and node k, for repeated use against many candidates.
func (v *View) RerankerFor(query []float32, sim Similarity) (func(k int) (float32, error), error) {
	if !v.hasFeature(FeatureInlineVectors) && !v.hasFeature(FeatureLVQ) {
		return nil, &Unsupported{Op: "RerankerFor"}
	}
	return func(k int) (float32, error) {
		vec, err := v.GetVector(k)
		if err != nil {
			return 0, err
		}
		return score(sim, query, vec), nil
	}, nil
}

// ApproximateScoreFunctionFor returns a closure that, given a node id,
// reads that node's FUSED_ADC neighbor code block once and returns a
// score per neighbor (parallel to GetNeighbors(id)'s order), computed via
// a query-dependent per-subspace lookup table built once up front.
func (v *View) ApproximateScoreFunctionFor(query []float32, sim Similarity) (func(id int) ([]float32, error), error) {
	codec := v.h.featureByID(FeatureFusedADC)
	if codec == nil {
		return nil, &Unsupported{Op: "ApproximateScoreFunctionFor"}
	}
	adc := codec.(*fusedADCFeature)
	lut := adc.queryLookupTable(query)

	return func(id int) ([]float32, error) {
		if id < 0 || id >= v.h.common.N {
			return nil, &FormatError{Msg: "node ordinal out of range"}
		}
		neighbors, err := v.GetNeighbors(id)
		if err != nil {
			return nil, err
		}
		v.r.Seek(v.featureOffsetFor(int64(id), FeatureFusedADC))
		codes, err := adc.neighborCodes(v.r)
		if err != nil {
			return nil, err
		}
		// codes is padded out to MaxDegree; truncate to the live neighbor
		// count so the result stays parallel to GetNeighbors(id).
		scores := make([]float32, len(neighbors))
		for i := range neighbors {
			// Lower asymmetric distance means more similar regardless of sim,
			// so negate to match the higher-is-better convention of score().
			scores[i] = -adc.asymmetricDistance(lut, codes[i])
		}
		return scores, nil
	}, nil
}
