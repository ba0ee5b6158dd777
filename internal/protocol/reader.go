package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/emberfall/server/internal/geom"
	"github.com/google/uuid"
)

var ErrShortMessage = errors.New("message truncated")

// Reader reads fields from a message payload. Byte 0 is always the opcode.
// Reads past the end return zero values and latch ErrShortMessage.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data, off: 1}
}

func (r *Reader) Opcode() Opcode {
	if len(r.data) == 0 {
		return 0
	}
	return Opcode(r.data[0])
}

func (r *Reader) Err() error { return r.err }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortMessage, n, r.off, len(r.data))
		r.off = len(r.data)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Bool() bool { return r.U8() != 0 }

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) F32() float32 { return math.Float32frombits(r.U32()) }
func (r *Reader) F64() float64 { return math.Float64frombits(r.U64()) }

// Str reads a u16 length followed by that many UTF-8 bytes.
func (r *Reader) Str() string {
	n := int(r.U16())
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

func (r *Reader) Vec3() geom.Vec3 {
	return geom.Vec3{X: r.F32(), Y: r.F32(), Z: r.F32()}
}

func (r *Reader) UUID() uuid.UUID {
	var id uuid.UUID
	copy(id[:], r.take(16))
	return id
}
