package bridge

// These are the outbound JSON shapes the bridge writes to browser sockets,
// per the wire contract in the external-interfaces notes. Field names are
// part of that contract and must not be renamed independently of it.

type statusView struct {
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
}

type subscriptionsView struct {
	Type   string   `json:"type"`
	Topics []string `json:"topics"`
}

type subscribedView struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

type unsubscribedView struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

type publishedView struct {
	Type     string `json:"type"`
	Mode     string `json:"mode"`
	Topic    string `json:"topic"`
	PacketID uint32 `json:"packetId,omitempty"`
	From     string `json:"from"`
	To       string `json:"to"`
	Text     string `json:"text"`
}

type errorView struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type messageView struct {
	Type             string  `json:"type"`
	Topic            string  `json:"topic"`
	ChannelID        string  `json:"channelId"`
	GatewayID        string  `json:"gatewayId"`
	From             string  `json:"from"`
	To               string  `json:"to"`
	PacketID         uint32  `json:"packetId,omitempty"`
	HopLimit         uint32  `json:"hopLimit,omitempty"`
	HopStart         uint32  `json:"hopStart,omitempty"`
	RxTime           uint32  `json:"rxTime,omitempty"`
	RxSnr            *float32 `json:"rxSnr,omitempty"`
	RxRssi           *int32   `json:"rxRssi,omitempty"`
	ViaMqtt          bool    `json:"viaMqtt,omitempty"`
	Portnum          uint32  `json:"portnum"`
	PortName         string  `json:"portName"`
	Text             string  `json:"text,omitempty"`
	Payload          string  `json:"payload,omitempty"`
	DecryptionStatus string  `json:"decryptionStatus"`
	DecodeError      string  `json:"decodeError,omitempty"`
	Timestamp        string  `json:"timestamp"`
}

type rawMessageView struct {
	Type        string      `json:"type"`
	Topic       string      `json:"topic"`
	Payload     string      `json:"payload"`
	PayloadHex  string      `json:"payloadHex"`
	Size        int         `json:"size"`
	ContentType string      `json:"contentType"`
	TopicPath   string      `json:"topicPath"`
	PreviewText string      `json:"previewText,omitempty"`
	DecodeError string      `json:"decodeError,omitempty"`
	JSON        interface{} `json:"json,omitempty"`
	PacketMeta  interface{} `json:"packetMeta,omitempty"`
	Timestamp   string      `json:"timestamp"`
}
