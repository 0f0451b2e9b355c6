package diskann

import "fmt"

// MagicV1 is the four-byte magic value that opens every version-1
// artifact. Its absence at the expected offset signals a version-0
// artifact instead of a format error.
const MagicV1 uint32 = 0x44414e4e // "DANN"

// CurrentVersion is the version this package always writes.
const CurrentVersion uint32 = 1

// CommonHeader is the file-global metadata block common to every
// artifact, independent of which features are enabled.
type CommonHeader struct {
	Version        uint32
	N              int
	D              int
	EntryNode      int
	MaxDegree      int
	FeatureBitmask uint32
}

// header is the fully parsed file header: CommonHeader plus the ordered,
// loaded feature codecs and the byte layout derived from them.
type header struct {
	common   CommonHeader
	features []featureCodec // ordered ascending-bitshift

	headerSize       int64
	featureInlineTot int
	recordSize       int64
	baseOffset       int64 // offset of record 0, i.e. baseOffset + headerSize
}

func (h *header) featureByID(id FeatureID) featureCodec {
	for _, f := range h.features {
		if f.ID() == id {
			return f
		}
	}
	return nil
}

// parseHeader reads a Header starting at offset baseOffset, performing the
// version-0 magic-probe: if the first u32 isn't MagicV1, the cursor is
// re-seeked to baseOffset and the bytes are reinterpreted as a version-0
// header (no magic/version fields, implied feature set {INLINE_VECTORS}).
func parseHeader(r *codecReader, baseOffset int64) (*header, error) {
	r.Seek(baseOffset)
	probe, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	h := &header{}
	if probe == MagicV1 {
		version, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if version > CurrentVersion {
			return nil, &FormatError{Msg: fmt.Sprintf("unsupported version %d", version)}
		}
		h.common.Version = version
		if err := readCommonFields(r, h); err != nil {
			return nil, err
		}
		if err := loadFeatures(r, h, deserializeFeatureSet(h.common.FeatureBitmask)); err != nil {
			return nil, err
		}
	} else {
		r.Seek(baseOffset)
		h.common.Version = 0
		if err := readCommonFields(r, h); err != nil {
			return nil, err
		}
		h.common.FeatureBitmask = serializeFeatureSet(map[FeatureID]bool{FeatureInlineVectors: true})
		if err := loadFeatures(r, h, map[FeatureID]bool{FeatureInlineVectors: true}); err != nil {
			return nil, err
		}
	}

	if h.common.N > 0 {
		if h.common.EntryNode < 0 || h.common.EntryNode >= h.common.N {
			return nil, &FormatError{Msg: "entryNode out of range [0,N)"}
		}
	}

	h.headerSize = r.Position() - baseOffset
	h.baseOffset = baseOffset + h.headerSize
	h.recordSize = int64(4+h.featureInlineTot+4) + 4*int64(h.common.MaxDegree)
	return h, nil
}

func readCommonFields(r *codecReader, h *header) error {
	n, err := r.ReadI32()
	if err != nil {
		return err
	}
	d, err := r.ReadI32()
	if err != nil {
		return err
	}
	entry, err := r.ReadI32()
	if err != nil {
		return err
	}
	m, err := r.ReadI32()
	if err != nil {
		return err
	}
	bitmask, err := r.ReadU32()
	if err != nil {
		return err
	}
	if n < 0 || d < 0 || m < 0 {
		return &FormatError{Msg: "negative N, D or M in header"}
	}
	h.common.N = int(n)
	h.common.D = int(d)
	h.common.EntryNode = int(entry)
	h.common.MaxDegree = int(m)
	h.common.FeatureBitmask = bitmask
	return nil
}

func loadFeatures(r *codecReader, h *header, present map[FeatureID]bool) error {
	if present[FeatureFusedADC] && !present[FeatureInlineVectors] && !present[FeatureLVQ] {
		return &FormatError{Msg: "FUSED_ADC present without an exact-score feature"}
	}
	ids := orderedPresentFeatures(serializeFeatureSet(present))
	for _, id := range ids {
		codec, err := featureCodecFor(id, h.common.D, h.common.MaxDegree)
		if err != nil {
			return err
		}
		if err := codec.LoadHeader(r); err != nil {
			return err
		}
		h.features = append(h.features, codec)
		h.featureInlineTot += codec.InlineSize()
	}
	return nil
}

// writeHeaderBytes emits the current-version Header for the given
// configuration: N/D/entryNode/M, the ordered feature codecs (already
// populated with whatever state WriteHeader needs), and the derived
// bitmask.
func writeHeaderBytes(w *codecWriter, common CommonHeader, features []featureCodec) error {
	if err := w.WriteU32(MagicV1); err != nil {
		return err
	}
	if err := w.WriteU32(CurrentVersion); err != nil {
		return err
	}
	if err := w.WriteI32(int32(common.N)); err != nil {
		return err
	}
	if err := w.WriteI32(int32(common.D)); err != nil {
		return err
	}
	if err := w.WriteI32(int32(common.EntryNode)); err != nil {
		return err
	}
	if err := w.WriteI32(int32(common.MaxDegree)); err != nil {
		return err
	}
	if err := w.WriteU32(common.FeatureBitmask); err != nil {
		return err
	}
	for _, f := range features {
		if err := f.WriteHeader(w); err != nil {
			return err
		}
	}
	return nil
}
