package wire

// Typed sub-payloads for the fixed set of port numbers the core decodes.
// Any other port is left as opaque bytes with its numeric tag; that case
// lives in the trial/classify packages, not here.

// Position is the decoded payload of a POSITION_APP Data message.
type Position struct {
	LatitudeI  int32
	LongitudeI int32
	Altitude   int32
	Time       uint32
	Latitude   float64
	Longitude  float64
}

const (
	positionFieldLatitudeI  = 1
	positionFieldLongitudeI = 2
	positionFieldAltitude   = 3
	positionFieldTime       = 4
)

// DecodePosition parses a POSITION_APP payload. latitude_i/longitude_i are
// degrees * 1e7; Latitude/Longitude are the divided-down decimal form.
func DecodePosition(b []byte) (Position, *DecodeError) {
	var p Position
	r := newReader(b)
	for !r.done() {
		fieldNumber, wireType, err := r.readTag()
		if err != nil {
			return p, newDecodeError(0, "reading tag: %v", err)
		}
		switch wireType {
		case WireVarint:
			v, err := r.readVarint64()
			if err != nil {
				return p, newDecodeError(fieldNumber, "reading varint: %v", err)
			}
			switch fieldNumber {
			case positionFieldAltitude:
				p.Altitude = asInt32(v)
			case positionFieldTime:
				p.Time = uint32(v)
			}
		case WireFixed32:
			v, err := r.readFixed32()
			if err != nil {
				return p, newDecodeError(fieldNumber, "reading fixed32: %v", err)
			}
			switch fieldNumber {
			case positionFieldLatitudeI:
				p.LatitudeI = int32(v)
			case positionFieldLongitudeI:
				p.LongitudeI = int32(v)
			}
		case WireLengthDelim:
			if _, err := r.readBytes(); err != nil {
				return p, newDecodeError(fieldNumber, "reading bytes: %v", err)
			}
		case WireFixed64:
			if _, err := r.readFixed64(); err != nil {
				return p, newDecodeError(fieldNumber, "reading fixed64: %v", err)
			}
		default:
			return p, newDecodeError(fieldNumber, "unknown wire type %d", wireType)
		}
	}
	p.Latitude = float64(p.LatitudeI) / 1e7
	p.Longitude = float64(p.LongitudeI) / 1e7
	return p, nil
}

// EncodePosition serialises a Position the same way DecodePosition expects
// to read it back.
func EncodePosition(p Position) []byte {
	w := &writer{}
	w.fixed32Field(positionFieldLatitudeI, uint32(p.LatitudeI))
	w.fixed32Field(positionFieldLongitudeI, uint32(p.LongitudeI))
	w.int32Field(positionFieldAltitude, p.Altitude)
	w.uint32Field(positionFieldTime, p.Time)
	return w.Bytes()
}

// User is the decoded payload of a NODEINFO_APP Data message.
type User struct {
	ID        string
	LongName  string
	ShortName string
	MacAddr   []byte
	HwModel   uint32
}

const (
	userFieldID        = 1
	userFieldLongName  = 2
	userFieldShortName = 3
	userFieldMacAddr   = 4
	userFieldHwModel   = 5
)

func DecodeUser(b []byte) (User, *DecodeError) {
	var u User
	r := newReader(b)
	for !r.done() {
		fieldNumber, wireType, err := r.readTag()
		if err != nil {
			return u, newDecodeError(0, "reading tag: %v", err)
		}
		switch wireType {
		case WireVarint:
			v, err := r.readVarint64()
			if err != nil {
				return u, newDecodeError(fieldNumber, "reading varint: %v", err)
			}
			if fieldNumber == userFieldHwModel {
				u.HwModel = uint32(v)
			}
		case WireLengthDelim:
			v, err := r.readBytes()
			if err != nil {
				return u, newDecodeError(fieldNumber, "reading bytes: %v", err)
			}
			switch fieldNumber {
			case userFieldID:
				u.ID = string(v)
			case userFieldLongName:
				u.LongName = string(v)
			case userFieldShortName:
				u.ShortName = string(v)
			case userFieldMacAddr:
				u.MacAddr = v
			}
		case WireFixed32:
			if _, err := r.readFixed32(); err != nil {
				return u, newDecodeError(fieldNumber, "reading fixed32: %v", err)
			}
		case WireFixed64:
			if _, err := r.readFixed64(); err != nil {
				return u, newDecodeError(fieldNumber, "reading fixed64: %v", err)
			}
		default:
			return u, newDecodeError(fieldNumber, "unknown wire type %d", wireType)
		}
	}
	return u, nil
}

func EncodeUser(u User) []byte {
	w := &writer{}
	w.stringField(userFieldID, u.ID)
	w.stringField(userFieldLongName, u.LongName)
	w.stringField(userFieldShortName, u.ShortName)
	w.bytesField(userFieldMacAddr, u.MacAddr)
	w.uint32Field(userFieldHwModel, u.HwModel)
	return w.Bytes()
}

// RouteDiscovery is the shared shape carried by both ROUTING_APP's
// route_request/route_reply variants and TRACEROUTE_APP's payload.
type RouteDiscovery struct {
	Route      []uint32
	SnrTowards []float32
	RouteBack  []uint32
	SnrBack    []float32
}

const (
	routeFieldRoute      = 1
	routeFieldSnrTowards = 2
	routeFieldRouteBack  = 3
	routeFieldSnrBack    = 4
)

// DecodeTraceroute parses a TRACEROUTE_APP payload, which is a bare
// RouteDiscovery.
func DecodeTraceroute(b []byte) (RouteDiscovery, *DecodeError) {
	return decodeRouteDiscovery(b)
}

func EncodeTraceroute(rd RouteDiscovery) []byte {
	return encodeRouteDiscovery(rd)
}

// Routing is the decoded payload of a ROUTING_APP Data message.
type Routing struct {
	ErrorReason  *uint32
	RouteRequest *RouteDiscovery
	RouteReply   *RouteDiscovery
}

const (
	routingFieldErrorReason  = 1
	routingFieldRouteRequest = 2
	routingFieldRouteReply   = 3
)

func DecodeRouting(b []byte) (Routing, *DecodeError) {
	var out Routing
	r := newReader(b)
	for !r.done() {
		fieldNumber, wireType, err := r.readTag()
		if err != nil {
			return out, newDecodeError(0, "reading tag: %v", err)
		}
		switch wireType {
		case WireVarint:
			v, err := r.readVarint64()
			if err != nil {
				return out, newDecodeError(fieldNumber, "reading varint: %v", err)
			}
			if fieldNumber == routingFieldErrorReason {
				reason := uint32(v)
				out.ErrorReason = &reason
			}
		case WireLengthDelim:
			v, err := r.readBytes()
			if err != nil {
				return out, newDecodeError(fieldNumber, "reading bytes: %v", err)
			}
			switch fieldNumber {
			case routingFieldRouteRequest:
				rd, derr := decodeRouteDiscovery(v)
				if derr != nil {
					return out, newDecodeError(fieldNumber, "decoding route_request: %v", derr)
				}
				out.RouteRequest = &rd
			case routingFieldRouteReply:
				rd, derr := decodeRouteDiscovery(v)
				if derr != nil {
					return out, newDecodeError(fieldNumber, "decoding route_reply: %v", derr)
				}
				out.RouteReply = &rd
			}
		case WireFixed32:
			if _, err := r.readFixed32(); err != nil {
				return out, newDecodeError(fieldNumber, "reading fixed32: %v", err)
			}
		case WireFixed64:
			if _, err := r.readFixed64(); err != nil {
				return out, newDecodeError(fieldNumber, "reading fixed64: %v", err)
			}
		default:
			return out, newDecodeError(fieldNumber, "unknown wire type %d", wireType)
		}
	}
	return out, nil
}

func EncodeRouting(rt Routing) []byte {
	w := &writer{}
	if rt.ErrorReason != nil {
		w.varintField(routingFieldErrorReason, uint64(*rt.ErrorReason))
	}
	if rt.RouteRequest != nil {
		w.embeddedField(routingFieldRouteRequest, encodeRouteDiscovery(*rt.RouteRequest))
	}
	if rt.RouteReply != nil {
		w.embeddedField(routingFieldRouteReply, encodeRouteDiscovery(*rt.RouteReply))
	}
	return w.Bytes()
}

func decodeRouteDiscovery(b []byte) (RouteDiscovery, *DecodeError) {
	var rd RouteDiscovery
	r := newReader(b)
	for !r.done() {
		fieldNumber, wireType, err := r.readTag()
		if err != nil {
			return rd, newDecodeError(0, "reading tag: %v", err)
		}
		switch wireType {
		case WireVarint:
			v, err := r.readVarint64()
			if err != nil {
				return rd, newDecodeError(fieldNumber, "reading varint: %v", err)
			}
			if fieldNumber == routeFieldRoute {
				rd.Route = append(rd.Route, uint32(v))
			}
		case WireLengthDelim:
			v, err := r.readBytes()
			if err != nil {
				return rd, newDecodeError(fieldNumber, "reading bytes: %v", err)
			}
			switch fieldNumber {
			case routeFieldRoute:
				vals, perr := decodePackedVarints(v)
				if perr != nil {
					return rd, newDecodeError(fieldNumber, "decoding packed route: %v", perr)
				}
				for _, x := range vals {
					rd.Route = append(rd.Route, uint32(x))
				}
			case routeFieldSnrTowards:
				rd.SnrTowards = decodeQuarterDbArray(v)
			case routeFieldRouteBack:
				vals, perr := decodePackedVarints(v)
				if perr != nil {
					return rd, newDecodeError(fieldNumber, "decoding packed route_back: %v", perr)
				}
				for _, x := range vals {
					rd.RouteBack = append(rd.RouteBack, uint32(x))
				}
			case routeFieldSnrBack:
				rd.SnrBack = decodeQuarterDbArray(v)
			}
		case WireFixed32:
			if _, err := r.readFixed32(); err != nil {
				return rd, newDecodeError(fieldNumber, "reading fixed32: %v", err)
			}
		case WireFixed64:
			if _, err := r.readFixed64(); err != nil {
				return rd, newDecodeError(fieldNumber, "reading fixed64: %v", err)
			}
		default:
			return rd, newDecodeError(fieldNumber, "unknown wire type %d", wireType)
		}
	}
	return rd, nil
}

func encodeRouteDiscovery(rd RouteDiscovery) []byte {
	w := &writer{}
	for _, hop := range rd.Route {
		w.varintField(routeFieldRoute, uint64(hop))
	}
	w.bytesField(routeFieldSnrTowards, encodeQuarterDbArray(rd.SnrTowards))
	for _, hop := range rd.RouteBack {
		w.varintField(routeFieldRouteBack, uint64(hop))
	}
	w.bytesField(routeFieldSnrBack, encodeQuarterDbArray(rd.SnrBack))
	return w.Bytes()
}

// decodePackedVarints reads a length-delimited blob as a back-to-back
// sequence of varints, consuming the whole buffer.
func decodePackedVarints(b []byte) ([]uint64, error) {
	r := newReader(b)
	var out []uint64
	for !r.done() {
		v, err := r.readVarint64()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// decodeQuarterDbArray accepts the repeated signed-8-bit SNR array in either
// of the two forms real gateways emit it in: a packed sequence of
// sign-extended varints, or one raw signed byte per entry. Quarter-dB units
// are divided by 4 into the returned float, with sign preserved.
func decodeQuarterDbArray(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	if vals, err := decodePackedVarints(b); err == nil && allPlainVarintSignedBytes(vals) {
		out := make([]float32, len(vals))
		for i, v := range vals {
			out[i] = float32(int8(asInt32(v))) / 4
		}
		return out
	}
	out := make([]float32, len(b))
	for i, raw := range b {
		out[i] = float32(int8(raw)) / 4
	}
	return out
}

// allPlainVarintSignedBytes reports whether every decoded value is a value
// signedVarint could actually have produced for a signed byte: a plain
// (non-zigzag) varint sign-extends its value through int64 before encoding,
// so a genuine entry always round-trips through int8->int64->uint64
// unchanged. A run of raw unpacked bytes that happens to parse without
// error as packed varints almost never has this property, since parsing
// coalesces several unrelated bytes into one out-of-range value.
func allPlainVarintSignedBytes(vals []uint64) bool {
	for _, v := range vals {
		if v != uint64(int64(int8(int32(v)))) {
			return false
		}
	}
	return true
}

// encodeQuarterDbArray writes one raw signed byte per entry, the compact
// unpacked form.
func encodeQuarterDbArray(vals []float32) []byte {
	if len(vals) == 0 {
		return nil
	}
	out := make([]byte, len(vals))
	for i, v := range vals {
		out[i] = byte(int8(v * 4))
	}
	return out
}

// DeviceMetrics is the telemetry sub-message this codec tracks; other
// telemetry variants (environment, power, …) are left undecoded.
type DeviceMetrics struct {
	BatteryLevel       uint32
	Voltage            float32
	ChannelUtilization float32
	AirUtilTx          float32
	UptimeSeconds      uint32
}

// Telemetry is the decoded payload of a TELEMETRY_APP Data message.
type Telemetry struct {
	Time          uint32
	DeviceMetrics *DeviceMetrics
}

const (
	telemetryFieldTime          = 1
	telemetryFieldDeviceMetrics = 2

	deviceMetricsFieldBatteryLevel       = 1
	deviceMetricsFieldVoltage            = 2
	deviceMetricsFieldChannelUtilization = 3
	deviceMetricsFieldAirUtilTx          = 4
	deviceMetricsFieldUptimeSeconds      = 5
)

func DecodeTelemetry(b []byte) (Telemetry, *DecodeError) {
	var t Telemetry
	r := newReader(b)
	for !r.done() {
		fieldNumber, wireType, err := r.readTag()
		if err != nil {
			return t, newDecodeError(0, "reading tag: %v", err)
		}
		switch wireType {
		case WireVarint:
			v, err := r.readVarint64()
			if err != nil {
				return t, newDecodeError(fieldNumber, "reading varint: %v", err)
			}
			if fieldNumber == telemetryFieldTime {
				t.Time = uint32(v)
			}
		case WireLengthDelim:
			v, err := r.readBytes()
			if err != nil {
				return t, newDecodeError(fieldNumber, "reading bytes: %v", err)
			}
			if fieldNumber == telemetryFieldDeviceMetrics {
				dm, derr := decodeDeviceMetrics(v)
				if derr != nil {
					return t, newDecodeError(fieldNumber, "decoding device_metrics: %v", derr)
				}
				t.DeviceMetrics = &dm
			}
		case WireFixed32:
			if _, err := r.readFixed32(); err != nil {
				return t, newDecodeError(fieldNumber, "reading fixed32: %v", err)
			}
		case WireFixed64:
			if _, err := r.readFixed64(); err != nil {
				return t, newDecodeError(fieldNumber, "reading fixed64: %v", err)
			}
		default:
			return t, newDecodeError(fieldNumber, "unknown wire type %d", wireType)
		}
	}
	return t, nil
}

func EncodeTelemetry(t Telemetry) []byte {
	w := &writer{}
	w.uint32Field(telemetryFieldTime, t.Time)
	if t.DeviceMetrics != nil {
		w.embeddedField(telemetryFieldDeviceMetrics, encodeDeviceMetrics(*t.DeviceMetrics))
	}
	return w.Bytes()
}

func decodeDeviceMetrics(b []byte) (DeviceMetrics, *DecodeError) {
	var dm DeviceMetrics
	r := newReader(b)
	for !r.done() {
		fieldNumber, wireType, err := r.readTag()
		if err != nil {
			return dm, newDecodeError(0, "reading tag: %v", err)
		}
		switch wireType {
		case WireVarint:
			v, err := r.readVarint64()
			if err != nil {
				return dm, newDecodeError(fieldNumber, "reading varint: %v", err)
			}
			switch fieldNumber {
			case deviceMetricsFieldBatteryLevel:
				dm.BatteryLevel = uint32(v)
			case deviceMetricsFieldUptimeSeconds:
				dm.UptimeSeconds = uint32(v)
			}
		case WireFixed32:
			v, err := r.readFixed32()
			if err != nil {
				return dm, newDecodeError(fieldNumber, "reading fixed32: %v", err)
			}
			switch fieldNumber {
			case deviceMetricsFieldVoltage:
				dm.Voltage = float32frombits(v)
			case deviceMetricsFieldChannelUtilization:
				dm.ChannelUtilization = float32frombits(v)
			case deviceMetricsFieldAirUtilTx:
				dm.AirUtilTx = float32frombits(v)
			}
		case WireLengthDelim:
			if _, err := r.readBytes(); err != nil {
				return dm, newDecodeError(fieldNumber, "reading bytes: %v", err)
			}
		case WireFixed64:
			if _, err := r.readFixed64(); err != nil {
				return dm, newDecodeError(fieldNumber, "reading fixed64: %v", err)
			}
		default:
			return dm, newDecodeError(fieldNumber, "unknown wire type %d", wireType)
		}
	}
	return dm, nil
}

func encodeDeviceMetrics(dm DeviceMetrics) []byte {
	w := &writer{}
	w.uint32Field(deviceMetricsFieldBatteryLevel, dm.BatteryLevel)
	if dm.Voltage != 0 {
		w.fixed32Field(deviceMetricsFieldVoltage, float32bits(dm.Voltage))
	}
	if dm.ChannelUtilization != 0 {
		w.fixed32Field(deviceMetricsFieldChannelUtilization, float32bits(dm.ChannelUtilization))
	}
	if dm.AirUtilTx != 0 {
		w.fixed32Field(deviceMetricsFieldAirUtilTx, float32bits(dm.AirUtilTx))
	}
	w.uint32Field(deviceMetricsFieldUptimeSeconds, dm.UptimeSeconds)
	return w.Bytes()
}

// Neighbor is one entry in a NEIGHBORINFO_APP payload.
type Neighbor struct {
	NodeID uint32
	Snr    float32
}

// NeighborInfo is the decoded payload of a NEIGHBORINFO_APP Data message.
type NeighborInfo struct {
	NodeID                    uint32
	LastSentByID              uint32
	NodeBroadcastIntervalSecs uint32
	Neighbors                 []Neighbor
}

const (
	neighborInfoFieldNodeID                    = 1
	neighborInfoFieldLastSentByID              = 2
	neighborInfoFieldNodeBroadcastIntervalSecs = 3
	neighborInfoFieldNeighbors                 = 4

	neighborFieldNodeID = 1
	neighborFieldSnr    = 2
)

func DecodeNeighborInfo(b []byte) (NeighborInfo, *DecodeError) {
	var n NeighborInfo
	r := newReader(b)
	for !r.done() {
		fieldNumber, wireType, err := r.readTag()
		if err != nil {
			return n, newDecodeError(0, "reading tag: %v", err)
		}
		switch wireType {
		case WireVarint:
			v, err := r.readVarint64()
			if err != nil {
				return n, newDecodeError(fieldNumber, "reading varint: %v", err)
			}
			switch fieldNumber {
			case neighborInfoFieldNodeID:
				n.NodeID = uint32(v)
			case neighborInfoFieldLastSentByID:
				n.LastSentByID = uint32(v)
			case neighborInfoFieldNodeBroadcastIntervalSecs:
				n.NodeBroadcastIntervalSecs = uint32(v)
			}
		case WireLengthDelim:
			v, err := r.readBytes()
			if err != nil {
				return n, newDecodeError(fieldNumber, "reading bytes: %v", err)
			}
			if fieldNumber == neighborInfoFieldNeighbors {
				nb, derr := decodeNeighbor(v)
				if derr != nil {
					return n, newDecodeError(fieldNumber, "decoding neighbor: %v", derr)
				}
				n.Neighbors = append(n.Neighbors, nb)
			}
		case WireFixed32:
			if _, err := r.readFixed32(); err != nil {
				return n, newDecodeError(fieldNumber, "reading fixed32: %v", err)
			}
		case WireFixed64:
			if _, err := r.readFixed64(); err != nil {
				return n, newDecodeError(fieldNumber, "reading fixed64: %v", err)
			}
		default:
			return n, newDecodeError(fieldNumber, "unknown wire type %d", wireType)
		}
	}
	return n, nil
}

func EncodeNeighborInfo(n NeighborInfo) []byte {
	w := &writer{}
	w.uint32Field(neighborInfoFieldNodeID, n.NodeID)
	w.uint32Field(neighborInfoFieldLastSentByID, n.LastSentByID)
	w.uint32Field(neighborInfoFieldNodeBroadcastIntervalSecs, n.NodeBroadcastIntervalSecs)
	for _, nb := range n.Neighbors {
		w.embeddedField(neighborInfoFieldNeighbors, encodeNeighbor(nb))
	}
	return w.Bytes()
}

func decodeNeighbor(b []byte) (Neighbor, *DecodeError) {
	var nb Neighbor
	r := newReader(b)
	for !r.done() {
		fieldNumber, wireType, err := r.readTag()
		if err != nil {
			return nb, newDecodeError(0, "reading tag: %v", err)
		}
		switch wireType {
		case WireVarint:
			v, err := r.readVarint64()
			if err != nil {
				return nb, newDecodeError(fieldNumber, "reading varint: %v", err)
			}
			if fieldNumber == neighborFieldNodeID {
				nb.NodeID = uint32(v)
			}
		case WireFixed32:
			v, err := r.readFixed32()
			if err != nil {
				return nb, newDecodeError(fieldNumber, "reading fixed32: %v", err)
			}
			if fieldNumber == neighborFieldSnr {
				nb.Snr = float32frombits(v)
			}
		case WireLengthDelim:
			if _, err := r.readBytes(); err != nil {
				return nb, newDecodeError(fieldNumber, "reading bytes: %v", err)
			}
		case WireFixed64:
			if _, err := r.readFixed64(); err != nil {
				return nb, newDecodeError(fieldNumber, "reading fixed64: %v", err)
			}
		default:
			return nb, newDecodeError(fieldNumber, "unknown wire type %d", wireType)
		}
	}
	return nb, nil
}

func encodeNeighbor(nb Neighbor) []byte {
	w := &writer{}
	w.uint32Field(neighborFieldNodeID, nb.NodeID)
	if nb.Snr != 0 {
		w.fixed32Field(neighborFieldSnr, float32bits(nb.Snr))
	}
	return w.Bytes()
}

// MapReport is the decoded payload of a MAP_REPORT_APP Data message.
type MapReport struct {
	LongName            string
	ShortName           string
	Role                uint32
	HwModel             uint32
	FirmwareVersion     string
	Region              uint32
	ModemPreset         uint32
	HasDefaultChannel   bool
	LatitudeI           int32
	LongitudeI          int32
	Altitude            int32
	PositionPrecision   uint32
	NumOnlineLocalNodes uint32
}

const (
	mapReportFieldLongName            = 1
	mapReportFieldShortName           = 2
	mapReportFieldRole                = 3
	mapReportFieldHwModel             = 4
	mapReportFieldFirmwareVersion     = 5
	mapReportFieldRegion              = 6
	mapReportFieldModemPreset         = 7
	mapReportFieldHasDefaultChannel   = 8
	mapReportFieldLatitudeI           = 9
	mapReportFieldLongitudeI          = 10
	mapReportFieldAltitude            = 11
	mapReportFieldPositionPrecision   = 12
	mapReportFieldNumOnlineLocalNodes = 13
)

func DecodeMapReport(b []byte) (MapReport, *DecodeError) {
	var m MapReport
	r := newReader(b)
	for !r.done() {
		fieldNumber, wireType, err := r.readTag()
		if err != nil {
			return m, newDecodeError(0, "reading tag: %v", err)
		}
		switch wireType {
		case WireVarint:
			v, err := r.readVarint64()
			if err != nil {
				return m, newDecodeError(fieldNumber, "reading varint: %v", err)
			}
			switch fieldNumber {
			case mapReportFieldRole:
				m.Role = uint32(v)
			case mapReportFieldHwModel:
				m.HwModel = uint32(v)
			case mapReportFieldRegion:
				m.Region = uint32(v)
			case mapReportFieldModemPreset:
				m.ModemPreset = uint32(v)
			case mapReportFieldHasDefaultChannel:
				m.HasDefaultChannel = v != 0
			case mapReportFieldAltitude:
				m.Altitude = asInt32(v)
			case mapReportFieldPositionPrecision:
				m.PositionPrecision = uint32(v)
			case mapReportFieldNumOnlineLocalNodes:
				m.NumOnlineLocalNodes = uint32(v)
			}
		case WireLengthDelim:
			v, err := r.readBytes()
			if err != nil {
				return m, newDecodeError(fieldNumber, "reading bytes: %v", err)
			}
			switch fieldNumber {
			case mapReportFieldLongName:
				m.LongName = string(v)
			case mapReportFieldShortName:
				m.ShortName = string(v)
			case mapReportFieldFirmwareVersion:
				m.FirmwareVersion = string(v)
			}
		case WireFixed32:
			v, err := r.readFixed32()
			if err != nil {
				return m, newDecodeError(fieldNumber, "reading fixed32: %v", err)
			}
			switch fieldNumber {
			case mapReportFieldLatitudeI:
				m.LatitudeI = int32(v)
			case mapReportFieldLongitudeI:
				m.LongitudeI = int32(v)
			}
		case WireFixed64:
			if _, err := r.readFixed64(); err != nil {
				return m, newDecodeError(fieldNumber, "reading fixed64: %v", err)
			}
		default:
			return m, newDecodeError(fieldNumber, "unknown wire type %d", wireType)
		}
	}
	return m, nil
}

func EncodeMapReport(m MapReport) []byte {
	w := &writer{}
	w.stringField(mapReportFieldLongName, m.LongName)
	w.stringField(mapReportFieldShortName, m.ShortName)
	w.uint32Field(mapReportFieldRole, m.Role)
	w.uint32Field(mapReportFieldHwModel, m.HwModel)
	w.stringField(mapReportFieldFirmwareVersion, m.FirmwareVersion)
	w.uint32Field(mapReportFieldRegion, m.Region)
	w.uint32Field(mapReportFieldModemPreset, m.ModemPreset)
	w.boolField(mapReportFieldHasDefaultChannel, m.HasDefaultChannel)
	w.fixed32Field(mapReportFieldLatitudeI, uint32(m.LatitudeI))
	w.fixed32Field(mapReportFieldLongitudeI, uint32(m.LongitudeI))
	w.int32Field(mapReportFieldAltitude, m.Altitude)
	w.uint32Field(mapReportFieldPositionPrecision, m.PositionPrecision)
	w.uint32Field(mapReportFieldNumOnlineLocalNodes, m.NumOnlineLocalNodes)
	return w.Bytes()
}

// AdminMessage wraps an ADMIN_APP payload. The real admin schema is a large
// oneof of device-management requests this bridge never issues or services;
// recognising the port and keeping the raw bytes around is enough for a
// bridge that only forwards and never administers a node.
type AdminMessage struct {
	Raw []byte
}

func DecodeAdminMessage(b []byte) (AdminMessage, *DecodeError) {
	return AdminMessage{Raw: b}, nil
}

func EncodeAdminMessage(a AdminMessage) []byte {
	return a.Raw
}
