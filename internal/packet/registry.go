package packet

import (
	"fmt"

	"go.uber.org/zap"
)

// HandlerFunc is the callback signature for packet handlers.
// The session pointer is passed as an opaque interface to avoid import cycles.
type HandlerFunc func(sess any, r *Reader)

// Registry maps packet types to handlers.
type Registry struct {
	handlers map[Type]HandlerFunc
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[Type]HandlerFunc),
		log:      log,
	}
}

// Register maps a packet type to a handler.
func (reg *Registry) Register(typ Type, fn HandlerFunc) {
	reg.handlers[typ] = fn
}

// Dispatch finds the handler for the packet's type and calls it with a reader
// over the payload. Unknown types are logged and dropped; the rest of the
// bundle still gets processed.
func (reg *Registry) Dispatch(sess any, p Packet) error {
	fn, ok := reg.handlers[p.Type]
	if !ok {
		reg.log.Debug("unhandled packet type",
			zap.Uint16("type", uint16(p.Type)),
			zap.Int("size", len(p.Payload)),
		)
		return nil
	}

	r := NewReader(p.Payload)
	return reg.safeCall(fn, sess, r, p.Type)
}

// safeCall executes a handler with panic recovery so a single bad payload
// cannot take down the request goroutine.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader, typ Type) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.Uint16("type", uint16(typ)),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for packet type %d: %v", typ, rec)
		}
	}()
	fn(sess, r)
	return nil
}
