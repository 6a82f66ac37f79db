package wire

const (
	envelopeFieldPacket    = 1
	envelopeFieldChannelID = 2
	envelopeFieldGatewayID = 3
)

// maxShortStringLen is the wire limit for ServiceEnvelope's string fields.
// A producer that exceeds it still has its bytes consumed correctly (so the
// stream stays aligned); the value itself is discarded.
const maxShortStringLen = 64

// ServiceEnvelope is the broker-side wrapper pairing a radio packet with the
// channel and gateway it arrived on.
type ServiceEnvelope struct {
	Packet    MeshPacket
	ChannelID string
	GatewayID string
}

// EncodeServiceEnvelope serialises e.
func EncodeServiceEnvelope(e ServiceEnvelope) []byte {
	w := &writer{}
	w.embeddedField(envelopeFieldPacket, EncodeMeshPacket(e.Packet))
	w.stringField(envelopeFieldChannelID, e.ChannelID)
	w.stringField(envelopeFieldGatewayID, e.GatewayID)
	return w.Bytes()
}

// DecodeServiceEnvelope parses b. String fields longer than 64 bytes are
// consumed from the stream but stored as empty, so later fields stay
// aligned.
func DecodeServiceEnvelope(b []byte, opts DecodeOptions) (ServiceEnvelope, *DecodeError) {
	var e ServiceEnvelope
	r := newReader(b)
	for !r.done() {
		fieldNumber, wireType, err := r.readTag()
		if err != nil {
			return failEnvelope(e, opts, newDecodeError(0, "reading tag: %v", err))
		}
		switch wireType {
		case WireVarint:
			if _, err := r.readVarint64(); err != nil {
				return failEnvelope(e, opts, newDecodeError(fieldNumber, "reading varint: %v", err))
			}
		case WireLengthDelim:
			v, err := r.readBytes()
			if err != nil {
				return failEnvelope(e, opts, newDecodeError(fieldNumber, "reading bytes: %v", err))
			}
			switch fieldNumber {
			case envelopeFieldPacket:
				packet, derr := DecodeMeshPacket(v, opts)
				if derr != nil {
					return failEnvelope(e, opts, newDecodeError(fieldNumber, "decoding packet: %v", derr))
				}
				e.Packet = packet
			case envelopeFieldChannelID:
				if len(v) <= maxShortStringLen {
					e.ChannelID = string(v)
				}
			case envelopeFieldGatewayID:
				if len(v) <= maxShortStringLen {
					e.GatewayID = string(v)
				}
			}
		case WireFixed32:
			if _, err := r.readFixed32(); err != nil {
				return failEnvelope(e, opts, newDecodeError(fieldNumber, "reading fixed32: %v", err))
			}
		case WireFixed64:
			if _, err := r.readFixed64(); err != nil {
				return failEnvelope(e, opts, newDecodeError(fieldNumber, "reading fixed64: %v", err))
			}
		default:
			return failEnvelope(e, opts, newDecodeError(fieldNumber, "unknown wire type %d", wireType))
		}
	}
	return e, nil
}

func failEnvelope(partial ServiceEnvelope, opts DecodeOptions, derr *DecodeError) (ServiceEnvelope, *DecodeError) {
	if opts.Strict {
		return ServiceEnvelope{}, derr
	}
	return partial, derr
}
