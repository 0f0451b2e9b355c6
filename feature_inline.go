package diskann

// inlineVectorsFeature stores the raw D-dimensional float32 vector for
// every node directly in its record. It carries no header block: D is
// already known from CommonHeader by the time this codec is used.
type inlineVectorsFeature struct {
	d int
}

func (f *inlineVectorsFeature) ID() FeatureID { return FeatureInlineVectors }

func (f *inlineVectorsFeature) InlineSize() int { return 4 * f.d }

func (f *inlineVectorsFeature) WriteHeader(w *codecWriter) error { return nil }

func (f *inlineVectorsFeature) LoadHeader(r *codecReader) error { return nil }

func (f *inlineVectorsFeature) WriteInline(w *codecWriter, g Graph, ctx nodeWriteContext) error {
	v := g.Vector(ctx.origID)
	if len(v) != f.d {
		return &PreconditionViolation{Msg: "vector length does not match declared dimension"}
	}
	return w.WriteF32Array(v)
}

// readVector decodes the inline vector stored at r's current position,
// advancing r past it.
func (f *inlineVectorsFeature) readVector(r *codecReader) ([]float32, error) {
	return r.ReadF32Array(f.d)
}
