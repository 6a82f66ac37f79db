package wire

// writer accumulates an encoded message. Fields are only written when the
// caller asks for them; the encode functions in this package skip default
// values themselves to keep output minimal, as the schemas require.
type writer struct {
	buf []byte
}

func (w *writer) Bytes() []byte {
	if w.buf == nil {
		return []byte{}
	}
	return w.buf
}

func (w *writer) varintField(fieldNumber uint32, v uint64) {
	w.buf = appendVarint(w.buf, tag(fieldNumber, WireVarint))
	w.buf = appendVarint(w.buf, v)
}

func (w *writer) boolField(fieldNumber uint32, v bool) {
	if !v {
		return
	}
	w.varintField(fieldNumber, 1)
}

func (w *writer) uint32Field(fieldNumber uint32, v uint32) {
	if v == 0 {
		return
	}
	w.varintField(fieldNumber, uint64(v))
}

func (w *writer) int32Field(fieldNumber uint32, v int32) {
	if v == 0 {
		return
	}
	w.varintField(fieldNumber, signedVarint(int64(v)))
}

func (w *writer) fixed32Field(fieldNumber uint32, v uint32) {
	w.buf = appendVarint(w.buf, tag(fieldNumber, WireFixed32))
	w.buf = appendFixed32(w.buf, v)
}

func (w *writer) bytesField(fieldNumber uint32, v []byte) {
	if len(v) == 0 {
		return
	}
	w.buf = appendVarint(w.buf, tag(fieldNumber, WireLengthDelim))
	w.buf = appendVarint(w.buf, uint64(len(v)))
	w.buf = append(w.buf, v...)
}

func (w *writer) stringField(fieldNumber uint32, v string) {
	if v == "" {
		return
	}
	w.bytesField(fieldNumber, []byte(v))
}

// embeddedField writes another encoded message as a length-delimited field.
func (w *writer) embeddedField(fieldNumber uint32, encoded []byte) {
	if len(encoded) == 0 {
		return
	}
	w.bytesField(fieldNumber, encoded)
}
