package bridge

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabarar/mqtt-meshtastic-bridge/public/broker"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/classify"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/config"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/keys"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/topic"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/wire"
)

type fakeBroker struct {
	published    []fakePublish
	subscribed   []string
	unsubscribed []string
	handlers     map[string]broker.Handler
}

type fakePublish struct {
	topic   string
	payload []byte
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: map[string]broker.Handler{}}
}

func (f *fakeBroker) Connect(ctx context.Context) error { return nil }

func (f *fakeBroker) Publish(topic string, qos byte, retain bool, payload []byte) error {
	f.published = append(f.published, fakePublish{topic: topic, payload: payload})
	return nil
}

func (f *fakeBroker) Subscribe(topicFilter string, qos byte, handler broker.Handler) error {
	f.subscribed = append(f.subscribed, topicFilter)
	f.handlers[topicFilter] = handler
	return nil
}

func (f *fakeBroker) Unsubscribe(topicFilter string) error {
	f.unsubscribed = append(f.unsubscribed, topicFilter)
	return nil
}

func (f *fakeBroker) OnReconnect(func())       {}
func (f *fakeBroker) OnDisconnect(func(error)) {}
func (f *fakeBroker) Close()                   {}

func testConfig() config.Config {
	return config.Config{
		BrokerURL: "tcp://broker.example:1883", Username: "u", Password: "p",
		Region: "EU_868", Root: "msh", DefaultPath: "e", DefaultChannel: "LongFast",
		GatewayID: "!00000001", ChannelKeys: map[string]string{},
	}
}

func drain(t *testing.T, c *conn) interface{} {
	t.Helper()
	select {
	case raw := <-c.send:
		var v map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &v))
		return v
	default:
		t.Fatal("expected a queued message, found none")
		return nil
	}
}

func TestNewComputesDefaultTopic(t *testing.T) {
	b := New(testConfig(), newFakeBroker())
	assert.Equal(t, "msh/EU_868/2/e/LongFast/!00000001", b.defaultTopic)
}

func TestHandlePublishJSONPath(t *testing.T) {
	fb := newFakeBroker()
	b := New(testConfig(), fb)
	c := newConn(nil)

	cmd := map[string]string{
		"type": "publish", "path": "2/json", "channel": "LongFast",
		"to": "!d844b556", "text": "hello there",
	}
	raw, _ := json.Marshal(cmd)
	b.handleCommand(c, raw)

	require.Len(t, fb.published, 1)
	assert.Equal(t, "msh/EU_868/2/json/LongFast/!00000001", fb.published[0].topic)

	view := drain(t, c)
	assert.Equal(t, "published", view["type"])
	assert.Equal(t, "json", view["mode"])
}

func TestHandlePublishBinaryPathEncrypted(t *testing.T) {
	fb := newFakeBroker()
	b := New(testConfig(), fb)
	c := newConn(nil)

	cmd := map[string]string{
		"type": "publish", "path": "e", "channel": "LongFast",
		"to": "!d844b556", "text": "hello mesh",
	}
	raw, _ := json.Marshal(cmd)
	b.handleCommand(c, raw)

	require.Len(t, fb.published, 1)
	env, derr := wire.DecodeServiceEnvelope(fb.published[0].payload, wire.DecodeOptions{})
	require.Nil(t, derr)
	assert.NotEmpty(t, env.Packet.Encrypted)
	assert.Nil(t, env.Packet.Decoded)

	view := drain(t, c)
	assert.Equal(t, "protobuf", view["mode"])
}

func TestHandlePublishMissingRequiredFields(t *testing.T) {
	b := New(testConfig(), newFakeBroker())
	c := newConn(nil)

	raw, _ := json.Marshal(map[string]string{"type": "publish"})
	b.handleCommand(c, raw)

	view := drain(t, c)
	assert.Equal(t, "error", view["type"])
}

func TestHandleSubscribeAndUnsubscribe(t *testing.T) {
	fb := newFakeBroker()
	b := New(testConfig(), fb)
	c := newConn(nil)

	subRaw, _ := json.Marshal(map[string]string{"type": "subscribe", "topic": "msh/EU_868/2/e/Secret/!00000001"})
	b.handleCommand(c, subRaw)
	assert.Contains(t, fb.subscribed, "msh/EU_868/2/e/Secret/!00000001")
	assert.Equal(t, "subscribed", drain(t, c)["type"])
	assert.Equal(t, "subscriptions", drain(t, c)["type"])

	unsubRaw, _ := json.Marshal(map[string]string{"type": "unsubscribe", "topic": "msh/EU_868/2/e/Secret/!00000001"})
	b.handleCommand(c, unsubRaw)
	assert.Contains(t, fb.unsubscribed, "msh/EU_868/2/e/Secret/!00000001")
	assert.Equal(t, "unsubscribed", drain(t, c)["type"])
	assert.Equal(t, "subscriptions", drain(t, c)["type"])
}

func TestHandleCommandUnrecognised(t *testing.T) {
	b := New(testConfig(), newFakeBroker())
	c := newConn(nil)

	raw, _ := json.Marshal(map[string]string{"type": "frobnicate"})
	b.handleCommand(c, raw)
	view := drain(t, c)
	assert.Equal(t, "error", view["type"])
}

func TestBuildJSONMessageViewSendtext(t *testing.T) {
	b := New(testConfig(), newFakeBroker())
	var payload interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"from":3628381526,"to":1,"type":"sendtext","payload":"hi there"}`), &payload))
	c := classify.Classification{Kind: classify.KindMeshtasticJSON, JSON: payload}

	view := b.buildJSONMessageView("msh/EU_868/2/json/LongFast/!00000001", topic.Parsed{Channel: "LongFast", Gateway: "!00000001"}, c)
	assert.Equal(t, "hi there", view.Text)
	assert.Equal(t, "!d844b556", view.From)
	assert.Equal(t, "!00000001", view.To)
}

func TestBuildBinaryMessageViewHeaderOnly(t *testing.T) {
	b := New(testConfig(), newFakeBroker())
	env := wire.ServiceEnvelope{Packet: wire.MeshPacket{From: 1, To: 2, ID: 3}, ChannelID: "LongFast", GatewayID: "!00000001"}
	c := classify.Classification{Kind: classify.KindMeshtasticBinaryHeaderOnly, Envelope: &env}

	view := b.buildBinaryMessageView("t", topic.Parsed{Channel: "LongFast"}, c)
	assert.Equal(t, "none", view.DecryptionStatus)
}

func TestBuildBinaryMessageViewDecryptsViaTrial(t *testing.T) {
	b := New(testConfig(), newFakeBroker())
	data := wire.Data{Portnum: wire.PortNumTextMessage, Payload: []byte("via trial")}
	hash, err := keys.GenerateChannelHash("LongFast", keys.DefaultKeyBase64)
	require.NoError(t, err)
	ciphertext, err := keys.Encrypt(wire.EncodeData(data), keys.DefaultKeyBase64, 99, 1)
	require.NoError(t, err)
	env := wire.ServiceEnvelope{
		Packet:    wire.MeshPacket{From: 1, To: 2, ID: 99, ChannelHint: hash, Encrypted: ciphertext},
		ChannelID: "LongFast", GatewayID: "!00000001",
	}
	c := classify.Classification{Kind: classify.KindMeshtasticBinary, Envelope: &env}

	view := b.buildBinaryMessageView("t", topic.Parsed{Channel: "LongFast"}, c)
	assert.Equal(t, "success", view.DecryptionStatus)
	assert.Equal(t, "via trial", view.Text)
}

func TestBuildRawMessageViewTruncatesHex(t *testing.T) {
	raw := make([]byte, 80)
	for i := range raw {
		raw[i] = byte(i)
	}
	c := classify.Classification{Kind: classify.KindBinary}
	view := buildRawMessageView("t", topic.Parsed{Path: "x"}, raw, c)
	assert.LessOrEqual(t, len(view.PayloadHex), 100)
	assert.Equal(t, 80, view.Size)
}

func TestContainsCorruptionMarker(t *testing.T) {
	assert.True(t, containsCorruptionMarker([]byte{0xEF, 0xBF, 0xBD}))
	assert.False(t, containsCorruptionMarker([]byte("clean")))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "fallback", orDefault("", "fallback"))
	assert.Equal(t, "value", orDefault("value", "fallback"))
}
