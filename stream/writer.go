// Package stream implements the little-endian byte stream used for
// persisting acceleration structures.
//
// Writer and Reader keep the first error they encounter; every subsequent
// call becomes a no-op so callers can emit a whole record and check Err once.
package stream

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// Writer encodes scalars, strings and sequences to an underlying io.Writer.
type Writer struct {
	w   *bufio.Writer
	buf [8]byte
	n   int64
	err error
}

// NewWriter wraps w with a buffered stream writer. Flush must be called once
// the last value has been written.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Err returns the first error encountered by the writer.
func (w *Writer) Err() error {
	return w.err
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int64 {
	return w.n
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err == nil {
		w.err = w.w.Flush()
	}
	return w.err
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	var n int
	n, w.err = w.w.Write(p)
	w.n += int64(n)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
		return
	}
	w.WriteUint8(0)
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf[0] = v
	w.write(w.buf[:1])
}

func (w *Writer) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

func (w *Writer) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	w.write(w.buf[:8])
}

func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteString writes the string bytes followed by a NUL terminator.
func (w *Writer) WriteString(s string) {
	for i := 0; i < len(s); i++ {
		w.WriteUint8(s[i])
	}
	w.WriteUint8(0)
}

// WriteUint64s writes a uint64 element count followed by the elements.
func (w *Writer) WriteUint64s(values []uint64) {
	w.WriteUint64(uint64(len(values)))
	for _, v := range values {
		w.WriteUint64(v)
	}
}
