package diskann

import "fmt"

// FeatureID identifies a per-node payload kind. Its numeric value is the
// bit position the feature occupies in the on-disk feature bitmask, so
// these constants may never be renumbered without breaking every existing
// artifact.
type FeatureID int

const (
	FeatureInlineVectors FeatureID = 0
	FeatureFusedADC      FeatureID = 1
	FeatureLVQ           FeatureID = 2
)

func (f FeatureID) String() string {
	switch f {
	case FeatureInlineVectors:
		return "INLINE_VECTORS"
	case FeatureFusedADC:
		return "FUSED_ADC"
	case FeatureLVQ:
		return "LVQ"
	default:
		return "UNKNOWN_FEATURE"
	}
}

// allFeatureIDsAscending is the single source of truth for on-disk byte
// order: features are laid out, in both the header and each record's
// inline block, in ascending bitshift order.
var allFeatureIDsAscending = []FeatureID{
	FeatureInlineVectors,
	FeatureFusedADC,
	FeatureLVQ,
}

func serializeFeatureSet(present map[FeatureID]bool) uint32 {
	var mask uint32
	for id := range present {
		if present[id] {
			mask |= 1 << uint(id)
		}
	}
	return mask
}

func deserializeFeatureSet(mask uint32) map[FeatureID]bool {
	out := make(map[FeatureID]bool, len(allFeatureIDsAscending))
	for _, id := range allFeatureIDsAscending {
		if mask&(1<<uint(id)) != 0 {
			out[id] = true
		}
	}
	return out
}

// orderedPresentFeatures returns the ids set in mask, in the fixed
// ascending-bitshift order that governs on-disk layout.
func orderedPresentFeatures(mask uint32) []FeatureID {
	var out []FeatureID
	for _, id := range allFeatureIDsAscending {
		if mask&(1<<uint(id)) != 0 {
			out = append(out, id)
		}
	}
	return out
}

// nodeWriteContext carries the per-node information a featureCodec needs
// while emitting a record's inline bytes. origID and origNeighbors are
// both in the source graph's id space; origNeighbors is already filtered
// to ids that survive the ordinal mapping and ordered to match the
// neighbor list the Writer is about to emit for this node.
type nodeWriteContext struct {
	origID        int
	origNeighbors []int
	maxDegree     int
}

// featureCodec is the per-feature plugin contract: one header block
// (written once, directly after CommonHeader) and one inline block per
// record (written once per node, at a fixed offset within the record).
type featureCodec interface {
	ID() FeatureID

	// InlineSize is the fixed number of bytes this feature contributes to
	// every record, constant across the whole artifact.
	InlineSize() int

	// WriteHeader emits this feature's header block (codebooks, global
	// mean/scale, or nothing for INLINE_VECTORS).
	WriteHeader(w *codecWriter) error

	// LoadHeader parses this feature's header block from r, whose cursor
	// is already positioned at the block's start.
	LoadHeader(r *codecReader) error

	// WriteInline emits this feature's fixed-size inline contribution for
	// one node, using g to fetch the node's data.
	WriteInline(w *codecWriter, g Graph, ctx nodeWriteContext) error
}

// featureCodecFor constructs the zero-value codec for id, ready to have
// LoadHeader called on it, or returns a FormatError if id is unknown. d is
// the artifact's vector dimension; maxDegree is needed up front by
// FUSED_ADC to size its inline block (its subspace count is learned from
// the header itself).
func featureCodecFor(id FeatureID, d, maxDegree int) (featureCodec, error) {
	switch id {
	case FeatureInlineVectors:
		return &inlineVectorsFeature{d: d}, nil
	case FeatureLVQ:
		return &lvqFeature{d: d}, nil
	case FeatureFusedADC:
		return &fusedADCFeature{d: d, m: maxDegree}, nil
	default:
		return nil, &FormatError{Msg: fmt.Sprintf("unknown feature id %d in bitmask", int(id))}
	}
}
