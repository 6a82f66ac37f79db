// Package bridge wires the wire codec, key engine, classifier, and trial
// engine together: one broker connection in, many browser WebSocket
// connections out, with a shared subscription set and learned-key cache.
package bridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/rabarar/mqtt-meshtastic-bridge/public/broker"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/classify"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/config"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/keys"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/nodeid"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/topic"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/trial"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/wire"
)

var logger = log.With("component", "bridge")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// corruptionMarker is the three-byte UTF-8 replacement-character sequence
// that marks a broker payload as irrecoverably mangled in transit.
var corruptionMarker = []byte{0xEF, 0xBF, 0xBD}

// Bridge owns the broker connection, the browser connection set, the
// subscription set, and the learned-key cache, and routes messages between
// them. Grounded on the one-connection-many-connections fan-out shape in
// emulated.Radio, adapted to browsers-over-WebSocket instead of a
// TCP client-API listener.
type Bridge struct {
	cfg config.Config
	brk broker.Broker

	subs *SubscriptionSet
	keys *KeyCache

	defaultTopic string

	connectedMu sync.RWMutex
	connected   bool

	connsMu sync.Mutex
	conns   map[*conn]struct{}
}

// New builds a Bridge from cfg and an already-constructed broker
// connection. Call Run to connect.
func New(cfg config.Config, brk broker.Broker) *Bridge {
	path := strings.TrimPrefix(cfg.DefaultPath, "2/")
	b := &Bridge{
		cfg:          cfg,
		brk:          brk,
		subs:         NewSubscriptionSet(),
		keys:         NewKeyCache(cfg.ChannelKeys),
		defaultTopic: topic.Build(cfg.Root, cfg.Region, path, cfg.DefaultChannel, cfg.GatewayID),
		conns:        map[*conn]struct{}{},
	}
	return b
}

// Run connects to the broker and blocks until ctx is cancelled or the
// initial connection attempt fails.
func (b *Bridge) Run(ctx context.Context) error {
	b.brk.OnReconnect(b.handleBrokerConnect)
	b.brk.OnDisconnect(b.handleBrokerDisconnect)
	return b.brk.Connect(ctx)
}

// Close disconnects the broker and every browser connection.
func (b *Bridge) Close() {
	b.brk.Close()
	b.connsMu.Lock()
	conns := make([]*conn, 0, len(b.conns))
	for c := range b.conns {
		conns = append(conns, c)
	}
	b.conns = map[*conn]struct{}{}
	b.connsMu.Unlock()
	for _, c := range conns {
		c.close()
	}
}

// Snapshot is a read-only view of the bridge's state, used by tests and by
// status reporting.
type Snapshot struct {
	BrokerConnected  bool
	ConnectedClients int
	Subscriptions    []string
}

func (b *Bridge) Snapshot() Snapshot {
	b.connsMu.Lock()
	n := len(b.conns)
	b.connsMu.Unlock()
	return Snapshot{
		BrokerConnected:  b.isConnected(),
		ConnectedClients: n,
		Subscriptions:    b.subs.List(),
	}
}

func (b *Bridge) isConnected() bool {
	b.connectedMu.RLock()
	defer b.connectedMu.RUnlock()
	return b.connected
}

func (b *Bridge) setConnected(v bool) {
	b.connectedMu.Lock()
	b.connected = v
	b.connectedMu.Unlock()
}

// handleBrokerConnect fires on every (re)connection: seed the default
// subscription on first connect, then re-issue every subscription in the
// set, exactly as a reconnect must replay subscriber state the broker
// itself doesn't remember.
func (b *Bridge) handleBrokerConnect() {
	b.setConnected(true)
	if b.subs.SeedOnce(b.defaultTopic) {
		logger.Info("seeded default subscription", "topic", b.defaultTopic)
	}
	for _, t := range b.subs.List() {
		if err := b.brk.Subscribe(t, 0, b.handleBrokerMessage); err != nil {
			logger.Error("failed to subscribe", "topic", t, "err", err)
		}
	}
	b.broadcast(statusView{Type: "status", Connected: true})
}

func (b *Bridge) handleBrokerDisconnect(err error) {
	b.setConnected(false)
	logger.Warn("broker disconnected", "err", err)
	b.broadcast(statusView{Type: "status", Connected: false})
}

// handleBrokerMessage is the single entry point for every inbound broker
// message, regardless of which subscription delivered it.
func (b *Bridge) handleBrokerMessage(msg broker.Message) {
	if containsCorruptionMarker(msg.Payload) {
		logger.Warn("dropping corrupted payload", "topic", msg.Topic)
		return
	}
	parsed := topic.Parse(msg.Topic)
	c := classify.Classify(parsed.Path, msg.Payload)
	b.broadcast(b.buildView(msg.Topic, parsed, msg.Payload, c))
}

func containsCorruptionMarker(raw []byte) bool {
	return bytes.Contains(raw, corruptionMarker)
}

func (b *Bridge) buildView(topicStr string, parsed topic.Parsed, raw []byte, c classify.Classification) interface{} {
	switch c.Kind {
	case classify.KindMeshtasticJSON:
		return b.buildJSONMessageView(topicStr, parsed, c)
	case classify.KindMeshtasticBinary, classify.KindMeshtasticBinaryHeaderOnly:
		return b.buildBinaryMessageView(topicStr, parsed, c)
	default:
		return buildRawMessageView(topicStr, parsed, raw, c)
	}
}

// jsonDownlink is the shape carried on the "json" topic path, both inbound
// and outbound.
type jsonDownlink struct {
	From    uint32 `json:"from"`
	To      uint32 `json:"to"`
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

func (b *Bridge) buildJSONMessageView(topicStr string, parsed topic.Parsed, c classify.Classification) messageView {
	view := messageView{
		Type:             "message",
		Topic:            topicStr,
		ChannelID:        parsed.Channel,
		GatewayID:        parsed.Gateway,
		DecryptionStatus: "json",
		Timestamp:        now(),
	}
	raw, err := json.Marshal(c.JSON)
	if err != nil {
		view.DecodeError = err.Error()
		return view
	}
	var d jsonDownlink
	if err := json.Unmarshal(raw, &d); err != nil {
		view.DecodeError = err.Error()
		return view
	}
	view.From = nodeid.Format(d.From)
	view.To = nodeid.Format(d.To)
	if d.Type == "sendtext" {
		view.Text = d.Payload
	}
	return view
}

func (b *Bridge) buildBinaryMessageView(topicStr string, parsed topic.Parsed, c classify.Classification) messageView {
	env := c.Envelope
	pkt := env.Packet
	view := messageView{
		Type:      "message",
		Topic:     topicStr,
		ChannelID: env.ChannelID,
		GatewayID: env.GatewayID,
		From:      nodeid.Format(pkt.From),
		To:        nodeid.Format(pkt.To),
		PacketID:  pkt.ID,
		HopLimit:  pkt.HopLimit,
		HopStart:  pkt.HopStart,
		RxTime:    pkt.RxTime,
		RxSnr:     pkt.RxSnr,
		RxRssi:    pkt.RxRssi,
		ViaMqtt:   pkt.ViaMqtt,
		Timestamp: now(),
	}

	if c.Kind == classify.KindMeshtasticBinaryHeaderOnly {
		view.DecryptionStatus = "none"
		view.PortName = wire.PortNumUnknown.Name()
		view.DecodeError = c.DecodeError
		return view
	}

	if pkt.Decoded != nil {
		view.DecryptionStatus = "success"
		view.Portnum = uint32(pkt.Decoded.Portnum)
		view.PortName = pkt.Decoded.Portnum.Name()
		setPayload(&view, pkt.Decoded.Portnum, pkt.Decoded.Payload)
		return view
	}

	res := trial.Try(pkt, parsed.Channel, b.keys)
	view.Portnum = uint32(res.Portnum)
	view.PortName = res.Portnum.Name()
	view.DecryptionStatus = string(res.Status)
	view.DecodeError = c.DecodeError
	if res.Status != trial.StatusFailed {
		if res.Portnum == wire.PortNumTextMessage {
			view.Text = res.DecodedText
		} else {
			view.Payload = base64.StdEncoding.EncodeToString(res.Payload)
		}
	}
	return view
}

func setPayload(view *messageView, portnum wire.PortNum, payload []byte) {
	if portnum == wire.PortNumTextMessage {
		view.Text = string(payload)
		return
	}
	view.Payload = base64.StdEncoding.EncodeToString(payload)
}

func buildRawMessageView(topicStr string, parsed topic.Parsed, raw []byte, c classify.Classification) rawMessageView {
	hexPrefix := hex.EncodeToString(raw)
	if len(hexPrefix) > 100 {
		hexPrefix = hexPrefix[:100]
	}
	return rawMessageView{
		Type:        "raw_message",
		Topic:       topicStr,
		Payload:     base64.StdEncoding.EncodeToString(raw),
		PayloadHex:  hexPrefix,
		Size:        len(raw),
		ContentType: string(c.Kind),
		TopicPath:   parsed.Path,
		PreviewText: c.PreviewText,
		DecodeError: c.DecodeError,
		JSON:        c.JSON,
		PacketMeta:  c.PacketMeta,
		Timestamp:   now(),
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ServeWS upgrades r into a browser WebSocket connection and runs its
// reader/writer pumps until the socket closes.
func (b *Bridge) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "err", err)
		return
	}
	c := newConn(ws)
	b.addConn(c)
	defer c.close()
	defer b.removeConn(c)

	c.enqueue(statusView{Type: "status", Connected: b.isConnected()})
	c.enqueue(b.subscriptionsView())

	eg, _ := errgroup.WithContext(r.Context())
	eg.Go(c.writePump)
	eg.Go(func() error {
		return c.readPump(func(raw []byte) { b.handleCommand(c, raw) })
	})
	if err := eg.Wait(); err != nil {
		logger.Debug("browser connection closed", "err", err)
	}
}

func (b *Bridge) addConn(c *conn) {
	b.connsMu.Lock()
	defer b.connsMu.Unlock()
	b.conns[c] = struct{}{}
}

func (b *Bridge) removeConn(c *conn) {
	b.connsMu.Lock()
	defer b.connsMu.Unlock()
	delete(b.conns, c)
}

// broadcast takes a snapshot of open sockets, releases the lock, and
// enqueues view on each: the lock is never held during a write.
func (b *Bridge) broadcast(view interface{}) {
	b.connsMu.Lock()
	snapshot := make([]*conn, 0, len(b.conns))
	for c := range b.conns {
		snapshot = append(snapshot, c)
	}
	b.connsMu.Unlock()
	for _, c := range snapshot {
		c.enqueue(view)
	}
}

func (b *Bridge) subscriptionsView() subscriptionsView {
	return subscriptionsView{Type: "subscriptions", Topics: b.subs.List()}
}

// commandEnvelope is the minimal shape every inbound browser command has in
// common: enough to dispatch.
type commandEnvelope struct {
	Type string `json:"type"`
}

func (b *Bridge) handleCommand(c *conn, raw []byte) {
	var env commandEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.enqueue(errorView{Type: "error", Message: fmt.Sprintf("bad command: %v", err)})
		return
	}
	switch env.Type {
	case "publish":
		b.handlePublish(c, raw)
	case "subscribe":
		b.handleSubscribe(c, raw)
	case "unsubscribe":
		b.handleUnsubscribe(c, raw)
	case "get_subscriptions":
		c.enqueue(b.subscriptionsView())
	default:
		c.enqueue(errorView{Type: "error", Message: fmt.Sprintf("unrecognised command %q", env.Type)})
	}
}

type publishCommand struct {
	Root      string  `json:"root"`
	Region    string  `json:"region"`
	Path      string  `json:"path"`
	Channel   string  `json:"channel"`
	GatewayID string  `json:"gatewayId"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Text      string  `json:"text"`
	Key       *string `json:"key"`
}

func (b *Bridge) handlePublish(c *conn, raw []byte) {
	var cmd publishCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.enqueue(errorView{Type: "error", Message: fmt.Sprintf("bad publish command: %v", err)})
		return
	}
	if cmd.To == "" || cmd.Channel == "" {
		c.enqueue(errorView{Type: "error", Message: "publish requires to and channel"})
		return
	}

	root := orDefault(cmd.Root, b.cfg.Root)
	region := orDefault(cmd.Region, b.cfg.Region)
	gatewayID := orDefault(cmd.GatewayID, b.cfg.GatewayID)
	path := strings.TrimPrefix(cmd.Path, "2/")
	if path == "" {
		path = b.cfg.DefaultPath
	}
	topicStr := topic.Build(root, region, path, cmd.Channel, gatewayID)

	toID, err := nodeid.Parse(cmd.To)
	if err != nil {
		c.enqueue(errorView{Type: "error", Message: fmt.Sprintf("bad to: %v", err)})
		return
	}
	fromStr := cmd.From
	if fromStr == "" {
		fromStr = gatewayID
	}
	fromID, err := nodeid.Parse(fromStr)
	if err != nil {
		c.enqueue(errorView{Type: "error", Message: fmt.Sprintf("bad from: %v", err)})
		return
	}

	if path == "json" {
		payload := jsonDownlink{From: fromID, To: toID, Type: "sendtext", Payload: cmd.Text}
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			c.enqueue(errorView{Type: "error", Message: err.Error()})
			return
		}
		if err := b.brk.Publish(topicStr, 0, false, payloadBytes); err != nil {
			c.enqueue(errorView{Type: "error", Message: err.Error()})
			return
		}
		c.enqueue(publishedView{
			Type: "published", Mode: "json", Topic: topicStr,
			From: nodeid.Format(fromID), To: nodeid.Format(toID), Text: cmd.Text,
		})
		return
	}

	effectiveKey := b.cfg.DefaultKey
	if cmd.Key != nil {
		effectiveKey = *cmd.Key
	} else if effectiveKey == "" {
		effectiveKey = keys.DefaultKeyBase64
	}

	packetID := keys.GeneratePacketId()
	data := wire.Data{Portnum: wire.PortNumTextMessage, Payload: []byte(cmd.Text)}

	pkt := wire.MeshPacket{From: fromID, To: toID, ID: packetID, ViaMqtt: true}
	if hash, err := keys.GenerateChannelHash(cmd.Channel, effectiveKey); err == nil {
		pkt.ChannelHint = hash
	}

	if effectiveKey == "" {
		pkt.Decoded = &data
	} else {
		encrypted, err := keys.Encrypt(wire.EncodeData(data), effectiveKey, packetID, fromID)
		if err != nil {
			c.enqueue(errorView{Type: "error", Message: err.Error()})
			return
		}
		pkt.Encrypted = encrypted
	}

	envelope := wire.ServiceEnvelope{Packet: pkt, ChannelID: cmd.Channel, GatewayID: gatewayID}
	if err := b.brk.Publish(topicStr, 0, false, wire.EncodeServiceEnvelope(envelope)); err != nil {
		c.enqueue(errorView{Type: "error", Message: err.Error()})
		return
	}
	if cmd.Key != nil && *cmd.Key != "" {
		b.keys.Learn(cmd.Channel, *cmd.Key)
	}

	c.enqueue(publishedView{
		Type: "published", Mode: "protobuf", Topic: topicStr, PacketID: packetID,
		From: nodeid.Format(fromID), To: nodeid.Format(toID), Text: cmd.Text,
	})
}

type subscribeCommand struct {
	Topic   string  `json:"topic"`
	Channel string  `json:"channel"`
	Key     *string `json:"key"`
}

func (b *Bridge) handleSubscribe(c *conn, raw []byte) {
	var cmd subscribeCommand
	if err := json.Unmarshal(raw, &cmd); err != nil || cmd.Topic == "" {
		c.enqueue(errorView{Type: "error", Message: "subscribe requires topic"})
		return
	}
	if err := b.brk.Subscribe(cmd.Topic, 0, b.handleBrokerMessage); err != nil {
		c.enqueue(errorView{Type: "error", Message: err.Error()})
		return
	}
	b.subs.Add(cmd.Topic)
	if cmd.Channel != "" && cmd.Key != nil {
		b.keys.Learn(cmd.Channel, *cmd.Key)
	}
	c.enqueue(subscribedView{Type: "subscribed", Topic: cmd.Topic})
	b.broadcast(b.subscriptionsView())
}

type unsubscribeCommand struct {
	Topic string `json:"topic"`
}

func (b *Bridge) handleUnsubscribe(c *conn, raw []byte) {
	var cmd unsubscribeCommand
	if err := json.Unmarshal(raw, &cmd); err != nil || cmd.Topic == "" {
		c.enqueue(errorView{Type: "error", Message: "unsubscribe requires topic"})
		return
	}
	if err := b.brk.Unsubscribe(cmd.Topic); err != nil {
		c.enqueue(errorView{Type: "error", Message: err.Error()})
		return
	}
	b.subs.Remove(cmd.Topic)
	c.enqueue(unsubscribedView{Type: "unsubscribed", Topic: cmd.Topic})
	b.broadcast(b.subscriptionsView())
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
