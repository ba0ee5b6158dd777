package protocol

import (
	"encoding/binary"
	"math"

	"github.com/emberfall/server/internal/geom"
	"github.com/google/uuid"
)

// Writer builds a message payload. All multi-byte writes are little-endian.
type Writer struct {
	buf []byte
}

func NewWriter(op Opcode) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.U8(uint8(op))
	return w
}

func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
		return
	}
	w.U8(0)
}

func (w *Writer) U16(v uint16)  { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *Writer) U32(v uint32)  { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *Writer) U64(v uint64)  { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }
func (w *Writer) F64(v float64) { w.U64(math.Float64bits(v)) }

// Str writes a u16 length prefix and the raw UTF-8 bytes. Strings longer
// than 65535 bytes are truncated.
func (w *Writer) Str(s string) {
	if len(s) > math.MaxUint16 {
		s = s[:math.MaxUint16]
	}
	w.U16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *Writer) Vec3(v geom.Vec3) {
	w.F32(v.X)
	w.F32(v.Y)
	w.F32(v.Z)
}

func (w *Writer) UUID(id uuid.UUID) {
	w.buf = append(w.buf, id[:]...)
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Len() int { return len(w.buf) }
