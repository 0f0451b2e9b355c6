package diskann

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// pqClustersPerSubspace is fixed by the format: every subspace's codebook
// has exactly this many centroids, so a code byte always fits one octet.
const pqClustersPerSubspace = 32

// fusedADCFeature stores a product-quantization codebook in the header
// and, inline in each record, the PQ code of every neighbor in that
// node's adjacency list — laid out subspace-major (all neighbors' codes
// for subspace 0, then subspace 1, ...) so an asymmetric distance
// computation over one subspace reads contiguous bytes.
type fusedADCFeature struct {
	d        int
	s        int
	m        int
	codebook []float32
}

func (f *fusedADCFeature) ID() FeatureID { return FeatureFusedADC }

func (f *fusedADCFeature) InlineSize() int { return f.m * f.s }

func (f *fusedADCFeature) WriteHeader(w *codecWriter) error {
	if err := w.WriteI32(int32(f.s)); err != nil {
		return err
	}
	return w.WriteF32Array(f.codebook)
}

func (f *fusedADCFeature) LoadHeader(r *codecReader) error {
	s, err := r.ReadI32()
	if err != nil {
		return err
	}
	if s <= 0 || f.d%int(s) != 0 {
		return &FormatError{Msg: fmt.Sprintf("FUSED_ADC subspace count %d does not divide dimension %d", s, f.d)}
	}
	f.s = int(s)
	subDim := f.d / f.s
	codebook, err := r.ReadF32Array(f.s * pqClustersPerSubspace * subDim)
	if err != nil {
		return err
	}
	f.codebook = codebook
	return nil
}

func (f *fusedADCFeature) WriteInline(w *codecWriter, g Graph, ctx nodeWriteContext) error {
	src, ok := g.(PQSource)
	if !ok {
		return &PreconditionViolation{Msg: "graph does not implement PQSource"}
	}
	codes := make([][]byte, len(ctx.origNeighbors))
	for i, nbr := range ctx.origNeighbors {
		code := src.PQNeighborCode(ctx.origID, nbr)
		if len(code) != f.s {
			return &PreconditionViolation{Msg: "PQ neighbor code length does not match subspace count"}
		}
		codes[i] = code
	}
	buf := make([]byte, f.m*f.s)
	for subspace := 0; subspace < f.s; subspace++ {
		base := subspace * f.m
		for i := range codes {
			buf[base+i] = codes[i][subspace]
		}
	}
	return w.WriteBytes(buf)
}

// neighborCodes decodes the record's per-neighbor PQ codes, subspace-major,
// returning one S-byte code slice per padded neighbor slot (index i
// corresponds to the i'th entry of the record's neighbor list).
func (f *fusedADCFeature) neighborCodes(r *codecReader) ([][]byte, error) {
	buf, err := r.ReadBytes(f.m * f.s)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, f.m)
	for i := range out {
		out[i] = make([]byte, f.s)
		for subspace := 0; subspace < f.s; subspace++ {
			out[i][subspace] = buf[subspace*f.m+i]
		}
	}
	return out, nil
}

// asymmetricDistance computes the approximate squared distance between a
// query already split into per-subspace distance-to-centroid tables and
// one neighbor's packed code.
func (f *fusedADCFeature) asymmetricDistance(lut [][]float32, code []byte) float32 {
	var sum float32
	for subspace, table := range lut {
		sum += table[code[subspace]]
	}
	return sum
}

// queryLookupTable precomputes, for each subspace, the squared distance
// from query's subspace slice to every centroid in that subspace's
// codebook, so asymmetricDistance reduces to S table lookups and adds.
// This runs once per query (S*32 centroids), not per scored neighbor, so
// the float64 conversion floats.Distance requires costs nothing on the
// per-candidate hot path.
func (f *fusedADCFeature) queryLookupTable(query []float32) [][]float32 {
	subDim := f.d / f.s
	qs64 := make([]float64, subDim)
	centroid64 := make([]float64, subDim)
	lut := make([][]float32, f.s)
	for subspace := 0; subspace < f.s; subspace++ {
		qs := query[subspace*subDim : (subspace+1)*subDim]
		for i, v := range qs {
			qs64[i] = float64(v)
		}
		table := make([]float32, pqClustersPerSubspace)
		base := subspace * pqClustersPerSubspace * subDim
		for c := 0; c < pqClustersPerSubspace; c++ {
			centroid := f.codebook[base+c*subDim : base+(c+1)*subDim]
			for i, v := range centroid {
				centroid64[i] = float64(v)
			}
			// floats.Distance(..., 2) is the Euclidean (L2) norm; squaring
			// it recovers the sum-of-squared-differences asymmetricDistance
			// actually sums across subspaces.
			d := floats.Distance(qs64, centroid64, 2)
			table[c] = float32(d * d)
		}
		lut[subspace] = table
	}
	return lut
}
