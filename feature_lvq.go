package diskann

// lvqAlignment is the on-disk padding boundary for packed LVQ codes: the
// writer always emits a multiple of this many code bytes per record, even
// when D isn't itself a multiple of it.
const lvqAlignment = 64

// lvqCodesLen returns the number of code bytes a record reserves for a
// d-dimensional LVQ-quantized vector, rounded up to lvqAlignment.
func lvqCodesLen(d int) int {
	return ((d + lvqAlignment - 1) / lvqAlignment) * lvqAlignment
}

// lvqFeature implements locally-adaptive scalar quantization: a single
// global mean/scale pair in the header, and a per-node bias + scale +
// packed 8-bit code vector inline in each record. A node's approximate
// value along dimension i reconstructs as
// globalMean[i] + nodeBias + nodeScale*code[i].
type lvqFeature struct {
	d           int
	globalMean  []float32
	globalScale float32
}

func (f *lvqFeature) ID() FeatureID { return FeatureLVQ }

func (f *lvqFeature) InlineSize() int { return 4 + 4 + lvqCodesLen(f.d) }

func (f *lvqFeature) WriteHeader(w *codecWriter) error {
	if err := w.WriteF32Array(f.globalMean); err != nil {
		return err
	}
	return w.WriteF32(f.globalScale)
}

func (f *lvqFeature) LoadHeader(r *codecReader) error {
	mean, err := r.ReadF32Array(f.d)
	if err != nil {
		return err
	}
	scale, err := r.ReadF32()
	if err != nil {
		return err
	}
	f.globalMean = mean
	f.globalScale = scale
	return nil
}

func (f *lvqFeature) WriteInline(w *codecWriter, g Graph, ctx nodeWriteContext) error {
	src, ok := g.(LVQSource)
	if !ok {
		return &PreconditionViolation{Msg: "graph does not implement LVQSource"}
	}
	if err := w.WriteF32(src.LVQNodeBias(ctx.origID)); err != nil {
		return err
	}
	if err := w.WriteF32(src.LVQNodeScale(ctx.origID)); err != nil {
		return err
	}
	codes := src.LVQNodeCodes(ctx.origID)
	if len(codes) != f.d {
		return &PreconditionViolation{Msg: "LVQ code length does not match declared dimension"}
	}
	padded := make([]byte, lvqCodesLen(f.d))
	copy(padded, codes)
	return w.WriteBytes(padded)
}

// readVector decodes the dequantized approximation of the node's vector at
// r's current position, advancing r past the inline block.
func (f *lvqFeature) readVector(r *codecReader) ([]float32, error) {
	bias, err := r.ReadF32()
	if err != nil {
		return nil, err
	}
	scale, err := r.ReadF32()
	if err != nil {
		return nil, err
	}
	codes, err := r.ReadBytes(lvqCodesLen(f.d))
	if err != nil {
		return nil, err
	}
	out := make([]float32, f.d)
	for i := 0; i < f.d; i++ {
		out[i] = f.globalMean[i] + bias + scale*float32(codes[i])
	}
	return out, nil
}
