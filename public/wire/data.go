package wire

// PortNum tags the typed sub-payload carried inside a Data message.
type PortNum uint32

// Port numbers the codec recognises for typed sub-payload decoding. Any
// other value is a legitimate PortNum; the payload just isn't decoded
// further than the raw bytes.
const (
	PortNumUnknown      PortNum = 0
	PortNumTextMessage  PortNum = 1
	PortNumPosition     PortNum = 3
	PortNumNodeInfo     PortNum = 4
	PortNumRouting      PortNum = 5
	PortNumAdmin        PortNum = 6
	PortNumTelemetry    PortNum = 67
	PortNumTraceroute   PortNum = 70
	PortNumNeighborInfo PortNum = 71
	PortNumMapReport    PortNum = 73
	PortNumMax          PortNum = 511
)

var portNames = map[PortNum]string{
	PortNumUnknown:      "UNKNOWN",
	PortNumTextMessage:  "TEXT_MESSAGE",
	PortNumPosition:     "POSITION",
	PortNumNodeInfo:     "NODEINFO",
	PortNumRouting:      "ROUTING",
	PortNumAdmin:        "ADMIN",
	PortNumTelemetry:    "TELEMETRY",
	PortNumTraceroute:   "TRACEROUTE",
	PortNumNeighborInfo: "NEIGHBORINFO",
	PortNumMapReport:    "MAP_REPORT",
}

// Name returns the port's enumerator name without the _APP suffix, falling
// back to a numeric form for ports outside the recognised set.
func (p PortNum) Name() string {
	if name, ok := portNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// Data field numbers, per the Meshtastic Data message.
const (
	dataFieldPortNum      = 1
	dataFieldPayload      = 2
	dataFieldWantResponse = 3
	dataFieldBitfield     = 12
)

// Data is the typed payload carried inside a MeshPacket, either directly
// (when sent in the clear) or after decryption.
type Data struct {
	Portnum      PortNum
	Payload      []byte
	WantResponse bool
	Bitfield     uint32
}

// EncodeData serialises d on the tag/length/varint wire format.
func EncodeData(d Data) []byte {
	w := &writer{}
	w.uint32Field(dataFieldPortNum, uint32(d.Portnum))
	w.bytesField(dataFieldPayload, d.Payload)
	w.boolField(dataFieldWantResponse, d.WantResponse)
	w.uint32Field(dataFieldBitfield, d.Bitfield)
	return w.Bytes()
}

// DecodeData parses b into a Data value. Unknown fields are skipped using
// their wire type alone. A malformed field stops parsing and returns the
// partially built value alongside the error.
func DecodeData(b []byte) (Data, *DecodeError) {
	var d Data
	r := newReader(b)
	for !r.done() {
		fieldNumber, wireType, err := r.readTag()
		if err != nil {
			return d, newDecodeError(0, "reading tag: %v", err)
		}
		switch wireType {
		case WireVarint:
			v, err := r.readVarint64()
			if err != nil {
				return d, newDecodeError(fieldNumber, "reading varint: %v", err)
			}
			switch fieldNumber {
			case dataFieldPortNum:
				d.Portnum = PortNum(v)
			case dataFieldWantResponse:
				d.WantResponse = v != 0
			case dataFieldBitfield:
				d.Bitfield = uint32(v)
			}
		case WireLengthDelim:
			v, err := r.readBytes()
			if err != nil {
				return d, newDecodeError(fieldNumber, "reading bytes: %v", err)
			}
			if fieldNumber == dataFieldPayload {
				d.Payload = v
			}
		case WireFixed32:
			if _, err := r.readFixed32(); err != nil {
				return d, newDecodeError(fieldNumber, "reading fixed32: %v", err)
			}
		case WireFixed64:
			if _, err := r.readFixed64(); err != nil {
				return d, newDecodeError(fieldNumber, "reading fixed64: %v", err)
			}
		default:
			return d, newDecodeError(fieldNumber, "unknown wire type %d", wireType)
		}
	}
	return d, nil
}
