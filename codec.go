package diskann

import (
	"encoding/binary"
	"io"
	"math"

	"golang.org/x/xerrors"
)

// codecReader is a forward- and random-access cursor over an immutable
// byte image. It never buffers beyond the single read it is asked to
// perform, so many codecReaders can share one io.ReaderAt concurrently as
// long as each owns its own pos.
type codecReader struct {
	r   io.ReaderAt
	pos int64
}

func newCodecReader(r io.ReaderAt, pos int64) *codecReader {
	return &codecReader{r: r, pos: pos}
}

// Duplicate returns an independent cursor over the same backing bytes,
// positioned wherever the caller leaves it. The returned reader shares no
// mutable state with its parent.
func (c *codecReader) Duplicate() *codecReader {
	return &codecReader{r: c.r, pos: c.pos}
}

func (c *codecReader) Position() int64 { return c.pos }

func (c *codecReader) Seek(offset int64) { c.pos = offset }

func (c *codecReader) read(buf []byte) error {
	n, err := c.r.ReadAt(buf, c.pos)
	c.pos += int64(n)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return &FormatError{Msg: "truncated stream", Cause: err}
		}
		return &IoError{Cause: err}
	}
	return nil
}

func (c *codecReader) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := c.read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *codecReader) ReadU32() (uint32, error) {
	var buf [4]byte
	if err := c.read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func (c *codecReader) ReadI32() (int32, error) {
	u, err := c.ReadU32()
	return int32(u), err
}

func (c *codecReader) ReadF32() (float32, error) {
	u, err := c.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

// ReadI32Into fills buf (already sized to the desired count) from the
// stream, letting callers reuse a preallocated scratch buffer instead of
// allocating one per call.
func (c *codecReader) ReadI32Into(buf []int32) error {
	raw := make([]byte, 4*len(buf))
	if err := c.read(raw); err != nil {
		return err
	}
	for i := range buf {
		buf[i] = int32(binary.BigEndian.Uint32(raw[4*i : 4*i+4]))
	}
	return nil
}

func (c *codecReader) ReadI32Array(n int) ([]int32, error) {
	out := make([]int32, n)
	buf := make([]byte, 4*n)
	if err := c.read(buf); err != nil {
		return nil, err
	}
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(buf[4*i : 4*i+4]))
	}
	return out, nil
}

func (c *codecReader) ReadF32Array(n int) ([]float32, error) {
	out := make([]float32, n)
	buf := make([]byte, 4*n)
	if err := c.read(buf); err != nil {
		return nil, err
	}
	for i := range out {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(buf[4*i : 4*i+4]))
	}
	return out, nil
}

// codecWriter is a write-forward-only cursor: it never seeks, matching the
// Writer's single-pass discipline (spec invariant: Write never seeks).
type codecWriter struct {
	w   io.Writer
	pos int64
}

func newCodecWriter(w io.Writer) *codecWriter {
	return &codecWriter{w: w}
}

func (c *codecWriter) Position() int64 { return c.pos }

func (c *codecWriter) write(buf []byte) error {
	n, err := c.w.Write(buf)
	c.pos += int64(n)
	if err != nil {
		return &IoError{Cause: xerrors.Errorf("write at %d: %w", c.pos, err)}
	}
	return nil
}

func (c *codecWriter) WriteBytes(buf []byte) error { return c.write(buf) }

func (c *codecWriter) WriteU32(v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return c.write(buf[:])
}

func (c *codecWriter) WriteI32(v int32) error { return c.WriteU32(uint32(v)) }

func (c *codecWriter) WriteF32(v float32) error { return c.WriteU32(math.Float32bits(v)) }

func (c *codecWriter) WriteI32Array(vs []int32) error {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint32(buf[4*i:4*i+4], uint32(v))
	}
	return c.write(buf)
}

func (c *codecWriter) WriteF32Array(vs []float32) error {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint32(buf[4*i:4*i+4], math.Float32bits(v))
	}
	return c.write(buf)
}
