// Package keys implements the pre-shared-key expansion rule, the
// channel-hint hash, and the AES-CTR cipher the bridge uses to encrypt and
// decrypt Data payloads.
package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
)

// DefaultKey is the fixed 16-byte base key that single-byte pre-shared keys
// expand against. As base64 this is "1PG7OiApB1nwvP+rz05pAQ==", commonly
// referenced by its shorthand "AQ==".
var DefaultKey = []byte{0xd4, 0xf1, 0xbb, 0x3a, 0x20, 0x29, 0x07, 0x59, 0xf0, 0xbc, 0xff, 0xab, 0xcf, 0x4e, 0x69, 0x01}

// DefaultKeyBase64 is the shorthand pre-shared key most Meshtastic channels
// ship with.
const DefaultKeyBase64 = "AQ=="

var (
	// ErrBadKeyFormat signals a pre-shared key that isn't valid base64.
	ErrBadKeyFormat = errors.New("keys: malformed base64 pre-shared key")
	// ErrBadKeyLength signals a decoded key of a length the expansion rule
	// doesn't recognise.
	ErrBadKeyLength = errors.New("keys: unsupported pre-shared key length")
	// ErrNoKey signals an attempt to encrypt with a key that expands to
	// "no encryption".
	ErrNoKey = errors.New("keys: no encryption key available")
)

// Expand turns a base64 pre-shared key into its real symmetric key bytes.
//
//   - 0 bytes, or the single byte 0x00: no encryption (empty result).
//   - a single byte b != 0x00: DefaultKey with its last byte replaced by b.
//   - 16 or 32 bytes: used verbatim.
//   - any other length: ErrBadKeyLength.
func Expand(pskBase64 string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(pskBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKeyFormat, err)
	}
	switch len(raw) {
	case 0:
		return nil, nil
	case 1:
		if raw[0] == 0x00 {
			return nil, nil
		}
		expanded := make([]byte, len(DefaultKey))
		copy(expanded, DefaultKey)
		expanded[len(expanded)-1] = raw[0]
		return expanded, nil
	case 16, 32:
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %d bytes", ErrBadKeyLength, len(raw))
	}
}

// xorBytes XORs every byte of p together into a single byte.
func xorBytes(p []byte) byte {
	var acc byte
	for _, b := range p {
		acc ^= b
	}
	return acc
}

// GenerateChannelHash computes the channel-hint advisory hash: the XOR of
// every byte of the channel name, XORed with the XOR of every byte of the
// expanded key. It is commutative in those two sums and collisions are
// expected; callers only ever use it to narrow candidates, never to prove
// identity.
func GenerateChannelHash(channelName string, pskBase64 string) (uint32, error) {
	expanded, err := Expand(pskBase64)
	if err != nil {
		return 0, err
	}
	h := xorBytes([]byte(channelName))
	h ^= xorBytes(expanded)
	return uint32(h), nil
}

// nonce lays out the 16-byte AES-CTR counter block: packet ID (LE32) at
// offset 0, four zero bytes, from-node (LE32) at offset 8, four zero bytes.
func nonce(packetID, fromNode uint32) []byte {
	n := make([]byte, aes.BlockSize)
	n[0] = byte(packetID)
	n[1] = byte(packetID >> 8)
	n[2] = byte(packetID >> 16)
	n[3] = byte(packetID >> 24)
	n[8] = byte(fromNode)
	n[9] = byte(fromNode >> 8)
	n[10] = byte(fromNode >> 16)
	n[11] = byte(fromNode >> 24)
	return n
}

// newStream builds the AES-CTR stream cipher for an expanded key. Key
// length selects the AES variant: 16 bytes for AES-128, 32 for AES-256.
func newStream(expandedKey []byte, packetID, fromNode uint32) (cipher.Stream, error) {
	block, err := aes.NewCipher(expandedKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewCTR(block, nonce(packetID, fromNode)), nil
}

// Encrypt encrypts plaintext under pskBase64 using the packet-derived
// nonce. A key that expands to zero bytes fails with ErrNoKey.
func Encrypt(plaintext []byte, pskBase64 string, packetID, fromNode uint32) ([]byte, error) {
	expanded, err := Expand(pskBase64)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 0 {
		return nil, ErrNoKey
	}
	stream, err := newStream(expanded, packetID, fromNode)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plaintext))
	stream.XORKeyStream(out, plaintext)
	return out, nil
}

// Decrypt reverses Encrypt. CTR mode is its own inverse and length
// preserving, so this never fails at the cipher layer. A wrong key just
// yields garbage bytes that the caller discovers by trying to decode them
// as Data; a key that expands to zero bytes means "no encryption" and
// Decrypt passes ciphertext through unchanged rather than failing, so the
// trial engine can attribute a plaintext channel's success to that channel
// instead of falling through to the no-channel plaintext fallback.
func Decrypt(ciphertext []byte, pskBase64 string, packetID, fromNode uint32) ([]byte, error) {
	expanded, err := Expand(pskBase64)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 0 {
		out := make([]byte, len(ciphertext))
		copy(out, ciphertext)
		return out, nil
	}
	stream, err := newStream(expanded, packetID, fromNode)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	stream.XORKeyStream(out, ciphertext)
	return out, nil
}
