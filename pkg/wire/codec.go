// Package wire implements the canonical little-endian binary encoding the
// node uses both to derive content hashes and to serialize gossip messages.
// It mirrors bincode's default configuration byte-for-byte: fixed-width
// little-endian integers, u64-length-prefixed sequences, and u32 tagged-union
// discriminants, so every node in the fleet that follows this package agrees
// on the wire.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Writer accumulates a canonical bincode-compatible encoding.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Raw appends b verbatim — used for fixed-length byte arrays, which carry
// no length prefix in the canonical encoding.
func (w *Writer) Raw(b []byte) {
	w.buf.Write(b)
}

// U32 appends a little-endian uint32.
func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// U64 appends a little-endian uint64.
func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// U16 appends a little-endian uint16.
func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// U8 appends a single byte.
func (w *Writer) U8(v uint8) {
	w.buf.WriteByte(v)
}

// Len writes a sequence length prefix (a plain u64, per the canonical rules —
// bincode's default config, not a varint).
func (w *Writer) Len(n int) {
	w.U64(uint64(n))
}

// Reader consumes a canonical bincode-compatible encoding.
type Reader struct {
	r   *bytes.Reader
	err error
}

// NewReader wraps data for sequential decoding.
func NewReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data)}
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

// Remaining reports how many bytes are left unconsumed.
func (r *Reader) Remaining() int {
	return r.r.Len()
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Raw reads exactly n raw bytes.
func (r *Reader) Raw(n int) []byte {
	if r.err != nil {
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.fail(fmt.Errorf("wire: read %d raw bytes: %w", n, err))
		return nil
	}
	return b
}

// U8 reads a single byte.
func (r *Reader) U8() uint8 {
	b := r.Raw(1)
	if r.err != nil {
		return 0
	}
	return b[0]
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() uint16 {
	b := r.Raw(2)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() uint32 {
	b := r.Raw(4)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() uint64 {
	b := r.Raw(8)
	if r.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// MaxLen bounds the sequence lengths Len() will accept, guarding against a
// malicious or malformed length prefix driving an enormous allocation.
const MaxLen = 1 << 20

// Len reads a sequence length prefix and sanity-checks it against MaxLen and
// the bytes actually remaining.
func (r *Reader) Len() int {
	n := r.U64()
	if r.err != nil {
		return 0
	}
	if n > MaxLen {
		r.fail(fmt.Errorf("wire: sequence length %d exceeds max %d", n, MaxLen))
		return 0
	}
	if n > uint64(r.Remaining()) {
		r.fail(fmt.Errorf("wire: sequence length %d exceeds %d remaining bytes", n, r.Remaining()))
		return 0
	}
	return int(n)
}
