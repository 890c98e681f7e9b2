package packet

import (
	"encoding/binary"
	"math"
)

// Writer builds a single packet payload. All multi-byte writes are
// little-endian. Finish() wraps the payload in the 7-byte frame header.
type Writer struct {
	typ Type
	buf []byte
}

func NewWriter(typ Type) *Writer {
	return &Writer{typ: typ, buf: make([]byte, 0, 32)}
}

// WriteU8 writes 1 byte.
func (w *Writer) WriteU8(v byte) {
	w.buf = append(w.buf, v)
}

// WriteU16 writes 2 bytes little-endian.
func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteI32 writes 4 bytes little-endian.
func (w *Writer) WriteI32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteU32 writes 4 bytes little-endian unsigned.
func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteI64 writes 8 bytes little-endian.
func (w *Writer) WriteI64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteF32 writes a 4-byte IEEE 754 float little-endian.
func (w *Writer) WriteF32(v float32) {
	w.WriteU32(math.Float32bits(v))
}

// WriteString writes a 0x0b marker, a ULEB128 byte length, and the UTF-8
// bytes. The empty string is a single 0x00.
func (w *Writer) WriteString(s string) {
	if len(s) == 0 {
		w.buf = append(w.buf, 0)
		return
	}
	w.buf = append(w.buf, 0x0b)
	w.writeULEB128(len(s))
	w.buf = append(w.buf, s...)
}

// WriteI32List writes a uint16 count followed by the values.
func (w *Writer) WriteI32List(vals []int32) {
	w.WriteU16(uint16(len(vals)))
	for _, v := range vals {
		w.WriteI32(v)
	}
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Finish returns the framed packet: type, reserved byte, payload length,
// payload.
func (w *Writer) Finish() []byte {
	out := make([]byte, 0, headerSize+len(w.buf))
	var hdr [headerSize]byte
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(w.typ))
	hdr[2] = 0
	binary.LittleEndian.PutUint32(hdr[3:7], uint32(len(w.buf)))
	out = append(out, hdr[:]...)
	out = append(out, w.buf...)
	return out
}

// Len returns the current payload length.
func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) writeULEB128(n int) {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		w.buf = append(w.buf, b)
		if n == 0 {
			return
		}
	}
}
