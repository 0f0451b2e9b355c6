package diskann

import (
	"bytes"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := newCodecWriter(&buf)
	if err := w.WriteI32(-7); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteU32(42); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteF32(3.5); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteI32Array([]int32{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteF32Array([]float32{1.5, -2.5}); err != nil {
		t.Fatal(err)
	}

	r := newCodecReader(bytes.NewReader(buf.Bytes()), 0)
	gotI32, err := r.ReadI32()
	if err != nil {
		t.Fatal(err)
	}
	if gotI32 != -7 {
		t.Fatalf("ReadI32 = %d, want -7", gotI32)
	}
	gotU32, err := r.ReadU32()
	if err != nil {
		t.Fatal(err)
	}
	if gotU32 != 42 {
		t.Fatalf("ReadU32 = %d, want 42", gotU32)
	}
	gotF32, err := r.ReadF32()
	if err != nil {
		t.Fatal(err)
	}
	if gotF32 != 3.5 {
		t.Fatalf("ReadF32 = %v, want 3.5", gotF32)
	}
	gotArr, err := r.ReadI32Array(3)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int32{1, 2, 3} {
		if gotArr[i] != want {
			t.Fatalf("ReadI32Array[%d] = %d, want %d", i, gotArr[i], want)
		}
	}
	gotFArr, err := r.ReadF32Array(2)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []float32{1.5, -2.5} {
		if gotFArr[i] != want {
			t.Fatalf("ReadF32Array[%d] = %v, want %v", i, gotFArr[i], want)
		}
	}
}

func TestCodecReaderDuplicateIsIndependent(t *testing.T) {
	t.Parallel()

	data := []byte{0, 0, 0, 1, 0, 0, 0, 2}
	r := newCodecReader(bytes.NewReader(data), 0)
	if _, err := r.ReadI32(); err != nil {
		t.Fatal(err)
	}

	dup := r.Duplicate()
	dup.Seek(0)

	got, err := r.ReadI32()
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Fatalf("parent after duplicate = %d, want 2 (duplicate's Seek must not affect parent)", got)
	}

	gotDup, err := dup.ReadI32()
	if err != nil {
		t.Fatal(err)
	}
	if gotDup != 1 {
		t.Fatalf("duplicate = %d, want 1", gotDup)
	}
}

func TestCodecBigEndianByteOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := newCodecWriter(&buf)
	if err := w.WriteU32(0x01020304); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x01, 0x02, 0x03, 0x04}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("bytes = %x, want %x", buf.Bytes(), want)
	}
}
