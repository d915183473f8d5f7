package stream

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

var (
	// ErrStringTooLong is returned when a NUL terminated string exceeds the
	// caller supplied limit.
	ErrStringTooLong = errors.New("stream: string exceeds maximum length")
)

// Reader decodes values written by Writer.
type Reader struct {
	r   *bufio.Reader
	buf [8]byte
	n   int64
	err error
}

// NewReader wraps r with a buffered stream reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Err returns the first error encountered by the reader. A stream that ends
// in the middle of a value reports io.ErrUnexpectedEOF; io.EOF is only
// reported when the stream ended exactly on a value boundary.
func (r *Reader) Err() error {
	return r.err
}

// Len returns the number of bytes consumed so far.
func (r *Reader) Len() int64 {
	return r.n
}

// AtEOF reports whether the underlying stream has no more data. It does not
// consume any bytes.
func (r *Reader) AtEOF() bool {
	if r.err != nil {
		return false
	}
	_, err := r.r.Peek(1)
	return err == io.EOF
}

func (r *Reader) read(p []byte) bool {
	if r.err != nil {
		return false
	}
	n, err := io.ReadFull(r.r, p)
	r.n += int64(n)
	if err != nil {
		r.err = err
		return false
	}
	return true
}

func (r *Reader) ReadBool() bool {
	return r.ReadUint8() != 0
}

func (r *Reader) ReadUint8() uint8 {
	if !r.read(r.buf[:1]) {
		return 0
	}
	return r.buf[0]
}

func (r *Reader) ReadUint32() uint32 {
	if !r.read(r.buf[:4]) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.buf[:4])
}

func (r *Reader) ReadUint64() uint64 {
	if !r.read(r.buf[:8]) {
		return 0
	}
	return binary.LittleEndian.Uint64(r.buf[:8])
}

func (r *Reader) ReadFloat32() float32 {
	return math.Float32frombits(r.ReadUint32())
}

// ReadString reads a NUL terminated string of at most maxLen bytes
// (excluding the terminator).
func (r *Reader) ReadString(maxLen int) string {
	out := make([]byte, 0, 16)
	for r.err == nil {
		c := r.ReadUint8()
		if r.err != nil {
			break
		}
		if c == 0 {
			return string(out)
		}
		if len(out) == maxLen {
			r.err = ErrStringTooLong
			break
		}
		out = append(out, c)
	}
	if r.err == io.EOF {
		r.err = io.ErrUnexpectedEOF
	}
	return ""
}

// ReadUint64s reads a sequence written by Writer.WriteUint64s. The element
// buffer grows as data arrives so a corrupted count can not trigger a huge
// allocation up front.
func (r *Reader) ReadUint64s() []uint64 {
	count := r.ReadUint64()
	if r.err != nil {
		return nil
	}

	const maxPrealloc = 1 << 12
	capHint := count
	if capHint > maxPrealloc {
		capHint = maxPrealloc
	}
	out := make([]uint64, 0, capHint)
	for i := uint64(0); i < count; i++ {
		v := r.ReadUint64()
		if r.err != nil {
			if r.err == io.EOF {
				r.err = io.ErrUnexpectedEOF
			}
			return nil
		}
		out = append(out, v)
	}
	return out
}
