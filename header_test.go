package diskann

import (
	"bytes"
	"testing"
)

func TestParseHeaderRoundTripsAllFeatures(t *testing.T) {
	t.Parallel()

	const d = 16
	const s = 4
	const m = 2
	g := newMemGraph(
		[][]float32{make([]float32, d), make([]float32, d)},
		[][]int{{1}, {0}},
	)
	g.globalMean = make([]float32, d)
	g.globalScale = 2
	g.lvqBias = make([]float32, 2)
	g.lvqScale = make([]float32, 2)
	g.lvqCodes = [][]byte{make([]byte, d), make([]byte, d)}
	g.subspaces = s
	g.codebook = make([]float32, s*32*(d/s))
	g.pqCodes = map[[2]int][]byte{
		{0, 1}: make([]byte, s),
		{1, 0}: make([]byte, s),
	}

	w, err := NewBuilder(g).
		With(FeatureInlineVectors).
		With(FeatureLVQ).
		With(FeatureFusedADC).
		WithMaxDegree(m).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := w.Write(&buf); err != nil {
		t.Fatal(err)
	}

	r := newCodecReader(bytes.NewReader(buf.Bytes()), 0)
	h, err := parseHeader(r, 0)
	if err != nil {
		t.Fatal(err)
	}
	if h.common.N != 2 || h.common.D != d || h.common.MaxDegree != m {
		t.Fatalf("common header = %+v", h.common)
	}
	if len(h.features) != 3 {
		t.Fatalf("len(features) = %d, want 3", len(h.features))
	}
	wantOrder := []FeatureID{FeatureInlineVectors, FeatureFusedADC, FeatureLVQ}
	for i, f := range h.features {
		if f.ID() != wantOrder[i] {
			t.Fatalf("features[%d] = %v, want %v", i, f.ID(), wantOrder[i])
		}
	}
}

func TestParseHeaderRejectsUnsupportedVersion(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cw := newCodecWriter(&buf)
	if err := cw.WriteU32(MagicV1); err != nil {
		t.Fatal(err)
	}
	if err := cw.WriteU32(CurrentVersion + 1); err != nil {
		t.Fatal(err)
	}

	r := newCodecReader(bytes.NewReader(buf.Bytes()), 0)
	_, err := parseHeader(r, 0)
	if _, ok := err.(*FormatError); !ok {
		t.Fatalf("err = %T, want *FormatError", err)
	}
}

func TestParseHeaderRejectsFusedADCWithoutExactScoreFeature(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cw := newCodecWriter(&buf)
	mustWrite(t, cw.WriteU32(MagicV1))
	mustWrite(t, cw.WriteU32(CurrentVersion))
	mustWrite(t, cw.WriteI32(0)) // N
	mustWrite(t, cw.WriteI32(4)) // D
	mustWrite(t, cw.WriteI32(0)) // entryNode
	mustWrite(t, cw.WriteI32(0)) // M
	mustWrite(t, cw.WriteU32(serializeFeatureSet(map[FeatureID]bool{FeatureFusedADC: true})))

	r := newCodecReader(bytes.NewReader(buf.Bytes()), 0)
	_, err := parseHeader(r, 0)
	if _, ok := err.(*FormatError); !ok {
		t.Fatalf("err = %T, want *FormatError", err)
	}
}
