package keys

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandZeroByte(t *testing.T) {
	out, err := Expand("")
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = Expand(base64.StdEncoding.EncodeToString([]byte{0x00}))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestExpandSingleByte(t *testing.T) {
	out, err := Expand(DefaultKeyBase64)
	require.NoError(t, err)
	require.Len(t, out, 16)
	assert.Equal(t, DefaultKey[:15], out[:15])
	assert.Equal(t, byte(0x01), out[15])
}

func TestExpandVerbatimLengths(t *testing.T) {
	k16 := make([]byte, 16)
	k32 := make([]byte, 32)
	for i := range k16 {
		k16[i] = byte(i)
	}
	for i := range k32 {
		k32[i] = byte(i * 2)
	}
	out16, err := Expand(base64.StdEncoding.EncodeToString(k16))
	require.NoError(t, err)
	assert.Equal(t, k16, out16)

	out32, err := Expand(base64.StdEncoding.EncodeToString(k32))
	require.NoError(t, err)
	assert.Equal(t, k32, out32)
}

func TestExpandBadLength(t *testing.T) {
	_, err := Expand(base64.StdEncoding.EncodeToString(make([]byte, 5)))
	require.ErrorIs(t, err, ErrBadKeyLength)
}

func TestExpandBadBase64(t *testing.T) {
	_, err := Expand("not-valid-base64!!!")
	require.ErrorIs(t, err, ErrBadKeyFormat)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("hello mesh world")
	ciphertext, err := Encrypt(plaintext, DefaultKeyBase64, 0xAABBCCDD, 0x11223344)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := Decrypt(ciphertext, DefaultKeyBase64, 0xAABBCCDD, 0x11223344)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptNoKeyFails(t *testing.T) {
	_, err := Encrypt([]byte("x"), "", 1, 1)
	require.ErrorIs(t, err, ErrNoKey)
}

func TestDecryptNoKeyIsIdentity(t *testing.T) {
	ciphertext := []byte("already plaintext bytes")
	out, err := Decrypt(ciphertext, "", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, ciphertext, out)
}

func TestGenerateChannelHashCommutative(t *testing.T) {
	h1, err := GenerateChannelHash("LongFast", DefaultKeyBase64)
	require.NoError(t, err)
	h2, err := GenerateChannelHash("LongFast", DefaultKeyBase64)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestGeneratePacketIdVaries(t *testing.T) {
	a := GeneratePacketId()
	b := GeneratePacketId()
	// Extremely unlikely to collide; guards against an accidental constant.
	assert.NotEqual(t, a, b)
}
