package packet

import (
	"encoding/binary"
	"fmt"
)

// Frame header: [2B LE type][1B reserved][4B LE payload length].
const headerSize = 7

// maxPayload rejects absurd length fields before allocating.
const maxPayload = 1 << 20

// Packet is one decoded inbound unit: a type and its raw payload.
type Packet struct {
	Type    Type
	Payload []byte
}

// Decode splits an inbound buffer into its ordered packet sequence.
// A truncated trailing frame aborts the decode; packets already split are
// returned along with the error so the caller can still process them.
func Decode(buf []byte) ([]Packet, error) {
	var out []Packet
	off := 0
	for off+headerSize <= len(buf) {
		typ := Type(binary.LittleEndian.Uint16(buf[off:]))
		size := int(binary.LittleEndian.Uint32(buf[off+3:]))
		if size < 0 || size > maxPayload {
			return out, fmt.Errorf("packet %d: payload length %d out of range", typ, size)
		}
		off += headerSize
		if off+size > len(buf) {
			return out, fmt.Errorf("packet %d: truncated payload (%d of %d bytes)", typ, len(buf)-off, size)
		}
		payload := make([]byte, size)
		copy(payload, buf[off:off+size])
		out = append(out, Packet{Type: typ, Payload: payload})
		off += size
	}
	if off != len(buf) {
		return out, fmt.Errorf("trailing %d bytes after last frame", len(buf)-off)
	}
	return out, nil
}

// Empty returns a framed packet with no payload.
func Empty(typ Type) []byte {
	return NewWriter(typ).Finish()
}

// Notification builds a server notification packet.
func Notification(text string) []byte {
	w := NewWriter(ServerNotification)
	w.WriteString(text)
	return w.Finish()
}

// LoginReply builds the login response packet (user id or failure code).
func LoginReply(code int32) []byte {
	w := NewWriter(ServerLoginReply)
	w.WriteI32(code)
	return w.Finish()
}
