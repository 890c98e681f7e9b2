package packet

import (
	"encoding/binary"
	"math"
)

// Reader reads typed fields from a single packet payload.
// All multi-byte reads are little-endian. Reads past the end return zero
// values rather than erroring; a malformed payload yields defaults, and the
// handler decides whether the result is usable.
type Reader struct {
	data []byte
	off  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadU8 reads 1 unsigned byte.
func (r *Reader) ReadU8() byte {
	if r.off >= len(r.data) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadU16 reads 2 bytes as little-endian uint16.
func (r *Reader) ReadU16() uint16 {
	if r.off+2 > len(r.data) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadI32 reads 4 bytes as little-endian int32.
func (r *Reader) ReadI32() int32 {
	if r.off+4 > len(r.data) {
		return 0
	}
	v := int32(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

// ReadU32 reads 4 bytes as little-endian uint32.
func (r *Reader) ReadU32() uint32 {
	if r.off+4 > len(r.data) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

// ReadI64 reads 8 bytes as little-endian int64.
func (r *Reader) ReadI64() int64 {
	if r.off+8 > len(r.data) {
		return 0
	}
	v := int64(binary.LittleEndian.Uint64(r.data[r.off:]))
	r.off += 8
	return v
}

// ReadF32 reads 4 bytes as a little-endian IEEE 754 float.
func (r *Reader) ReadF32() float32 {
	return math.Float32frombits(r.ReadU32())
}

// ReadString reads a length-prefixed UTF-8 string: a 0x0b marker byte
// followed by a ULEB128 byte length, or a single 0x00 for the empty string.
func (r *Reader) ReadString() string {
	marker := r.ReadU8()
	if marker != 0x0b {
		return ""
	}
	n := r.readULEB128()
	if n == 0 || r.off+n > len(r.data) {
		return ""
	}
	s := string(r.data[r.off : r.off+n])
	r.off += n
	return s
}

// ReadI32List reads a uint16 count followed by that many int32 values.
func (r *Reader) ReadI32List() []int32 {
	n := int(r.ReadU16())
	if n == 0 {
		return nil
	}
	out := make([]int32, 0, n)
	for i := 0; i < n && r.off+4 <= len(r.data); i++ {
		out = append(out, r.ReadI32())
	}
	return out
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	if r.off+n > len(r.data) {
		remaining := r.data[r.off:]
		r.off = len(r.data)
		return remaining
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) readULEB128() int {
	result := 0
	shift := 0
	for r.off < len(r.data) {
		b := r.data[r.off]
		r.off++
		result |= int(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return result
}
