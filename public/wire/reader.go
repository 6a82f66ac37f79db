package wire

import "fmt"

// reader walks a byte slice field by field, offering both the 32-bit and
// 64-bit varint reads the format requires (the 64-bit form exists purely so
// a skip can consume a varint field whose value doesn't fit in 32 bits
// without losing its place in the stream).
type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) done() bool {
	return r.pos >= len(r.buf)
}

// readTag reads the field-number/wire-type pair that precedes every field.
func (r *reader) readTag() (fieldNumber uint32, wireType uint8, err error) {
	v, err := r.readVarint64()
	if err != nil {
		return 0, 0, err
	}
	return uint32(v >> 3), uint8(v & 0x7), nil
}

// readVarint64 reads a base-128 varint up to 64 bits wide. A varint longer
// than ten bytes is malformed.
func (r *reader) readVarint64() (uint64, error) {
	var result uint64
	var shift uint
	start := r.pos
	for {
		if r.pos >= len(r.buf) {
			return 0, fmt.Errorf("truncated varint at offset %d", start)
		}
		if r.pos-start >= maxVarintLen {
			return 0, fmt.Errorf("varint at offset %d exceeds %d bytes", start, maxVarintLen)
		}
		b := r.buf[r.pos]
		r.pos++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// readVarint32 reads a varint and truncates it to 32 bits, the common case
// for field values that are declared uint32/int32/bool on the wire.
func (r *reader) readVarint32() (uint32, error) {
	v, err := r.readVarint64()
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func (r *reader) readFixed32() (uint32, error) {
	if len(r.buf)-r.pos < 4 {
		return 0, fmt.Errorf("truncated fixed32 at offset %d", r.pos)
	}
	v := uint32(r.buf[r.pos]) | uint32(r.buf[r.pos+1])<<8 | uint32(r.buf[r.pos+2])<<16 | uint32(r.buf[r.pos+3])<<24
	r.pos += 4
	return v, nil
}

func (r *reader) readFixed64() (uint64, error) {
	if len(r.buf)-r.pos < 8 {
		return 0, fmt.Errorf("truncated fixed64 at offset %d", r.pos)
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(r.buf[r.pos+i]) << (8 * i)
	}
	r.pos += 8
	return v, nil
}

// readBytes reads a varint length followed by that many bytes.
func (r *reader) readBytes() ([]byte, error) {
	n, err := r.readVarint64()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(r.buf)-r.pos) {
		return nil, fmt.Errorf("length-delimited field at offset %d claims %d bytes, only %d remain", r.pos, n, len(r.buf)-r.pos)
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

// skipField discards a field's value using only its wire type, as required
// for forward-compatible parsing of unknown field numbers.
func (r *reader) skipField(wireType uint8) error {
	switch wireType {
	case WireVarint:
		_, err := r.readVarint64()
		return err
	case WireFixed64:
		_, err := r.readFixed64()
		return err
	case WireLengthDelim:
		_, err := r.readBytes()
		return err
	case WireFixed32:
		_, err := r.readFixed32()
		return err
	default:
		return fmt.Errorf("unknown wire type %d", wireType)
	}
}
