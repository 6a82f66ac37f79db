package trial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabarar/mqtt-meshtastic-bridge/public/keys"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/wire"
)

type fakeCache struct {
	learned map[string]string
}

func (f fakeCache) Lookup(channel string) (string, bool) {
	v, ok := f.learned[channel]
	return v, ok
}

func (f fakeCache) All() map[string]string {
	return f.learned
}

func encryptedPacket(t *testing.T, channel, pskBase64 string, data wire.Data) wire.MeshPacket {
	t.Helper()
	const packetID, fromNode = 0xAABBCCDD, 0x11223344
	hint, err := keys.GenerateChannelHash(channel, pskBase64)
	require.NoError(t, err)
	ciphertext, err := keys.Encrypt(wire.EncodeData(data), pskBase64, packetID, fromNode)
	require.NoError(t, err)
	return wire.MeshPacket{
		From: fromNode, ID: packetID, ChannelHint: hint, Encrypted: ciphertext,
	}
}

func TestTrySucceedsWithDefaultKey(t *testing.T) {
	pkt := encryptedPacket(t, "LongFast", keys.DefaultKeyBase64, wire.Data{
		Portnum: wire.PortNumTextMessage, Payload: []byte("hello"),
	})
	got := Try(pkt, "LongFast", fakeCache{})
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, "LongFast", got.Channel)
	assert.Equal(t, "hello", got.DecodedText)
}

func TestTrySucceedsWithLearnedKey(t *testing.T) {
	const customKey = "MDEyMzQ1Njc4OWFiY2RlZg=="
	pkt := encryptedPacket(t, "Secret", customKey, wire.Data{
		Portnum: wire.PortNumPosition, Payload: []byte{0x01},
	})
	cache := fakeCache{learned: map[string]string{"Secret": customKey}}
	got := Try(pkt, "Secret", cache)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, wire.PortNumPosition, got.Portnum)
}

func TestTryFallsBackToPlaintext(t *testing.T) {
	data := wire.Data{Portnum: wire.PortNumTextMessage, Payload: []byte("cleartext")}
	pkt := wire.MeshPacket{From: 1, ID: 1, Encrypted: wire.EncodeData(data)}
	got := Try(pkt, "LongFast", fakeCache{})
	assert.Equal(t, StatusPlaintext, got.Status)
	assert.Equal(t, "cleartext", got.DecodedText)
}

func TestTryFailsOnGarbage(t *testing.T) {
	pkt := wire.MeshPacket{From: 1, ID: 1, Encrypted: []byte{0xFF, 0xFF, 0xFF, 0xFF}}
	got := Try(pkt, "LongFast", fakeCache{})
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, wire.PortNumUnknown, got.Portnum)
}

func TestTryChannelHintNarrowsCandidates(t *testing.T) {
	const wrongKey = "enp6enp6enp6enp6enp6eg=="
	pkt := encryptedPacket(t, "LongFast", keys.DefaultKeyBase64, wire.Data{
		Portnum: wire.PortNumTextMessage, Payload: []byte("hi"),
	})
	cache := fakeCache{learned: map[string]string{"Other": wrongKey}}
	got := Try(pkt, "LongFast", cache)
	assert.Equal(t, StatusSuccess, got.Status)
}

func TestTryAttributesUnencryptedChannelToItself(t *testing.T) {
	// An explicit empty key means "no encryption": the packet's Encrypted
	// bytes are really just an encoded Data left as-is (Encrypt itself still
	// rejects an empty key; this is what the bridge does when it skips
	// encryption for such a channel). The trial engine should attribute
	// this to the named channel with StatusSuccess, not fall through to
	// the no-channel plaintext fallback.
	data := wire.Data{Portnum: wire.PortNumTextMessage, Payload: []byte("unencrypted")}
	hint, err := keys.GenerateChannelHash("Open", "")
	require.NoError(t, err)
	pkt := wire.MeshPacket{From: 1, ID: 1, ChannelHint: hint, Encrypted: wire.EncodeData(data)}

	cache := fakeCache{learned: map[string]string{"Open": ""}}
	got := Try(pkt, "Open", cache)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, "Open", got.Channel)
	assert.Equal(t, "unencrypted", got.DecodedText)
}
