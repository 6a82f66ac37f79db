// Package trial tries candidate pre-shared keys against an encrypted
// MeshPacket in a deterministic order until one decodes, or reports failure.
package trial

import (
	"github.com/rabarar/mqtt-meshtastic-bridge/public/keys"
	"github.com/rabarar/mqtt-meshtastic-bridge/public/wire"
)

// Status is the outcome tag of a trial Result.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusPlaintext Status = "plaintext"
	StatusFailed    Status = "failed"
)

// Result is what the trial engine hands back to the bridge for fan-out.
type Result struct {
	Status      Status
	Channel     string
	Portnum     wire.PortNum
	Payload     []byte
	DecodedText string
	// DecodedSubPayload is set when the payload's port decodes into a typed
	// sub-payload (Position, User, and so on); the bridge fills this in by
	// calling wire's per-port decoders, not this package.
	DecodedSubPayload interface{}
}

// KeyLookup is the read side of the learned-key cache the bridge owns:
// Lookup returns the key for name and whether one is known, All returns
// every (channel, key) pair currently cached.
type KeyLookup interface {
	Lookup(channel string) (pskBase64 string, ok bool)
	All() map[string]string
}

type candidate struct {
	channel string
	key     string
}

// Try runs the full trial procedure against an encrypted MeshPacket: build
// the candidate list, filter by channel-hint, attempt decrypt+decode in
// order, and fall back to a plaintext read of the encrypted bytes.
func Try(packet wire.MeshPacket, namedChannel string, cache KeyLookup) Result {
	candidates := buildCandidates(namedChannel, cache)
	candidates = filterByChannelHint(candidates, packet.ChannelHint)

	for _, c := range candidates {
		plaintext, err := keys.Decrypt(packet.Encrypted, c.key, packet.ID, packet.From)
		if err != nil {
			continue
		}
		data, derr := wire.DecodeData(plaintext)
		if derr != nil {
			continue
		}
		return successResult(c.channel, data)
	}

	if data, derr := wire.DecodeData(packet.Encrypted); derr == nil {
		if data.Portnum > wire.PortNumUnknown && data.Portnum <= wire.PortNumMax && len(data.Payload) > 0 {
			r := successResult(namedChannel, data)
			r.Status = StatusPlaintext
			return r
		}
	}

	return Result{Status: StatusFailed, Channel: namedChannel, Portnum: wire.PortNumUnknown}
}

func successResult(channel string, data wire.Data) Result {
	r := Result{
		Status:  StatusSuccess,
		Channel: channel,
		Portnum: data.Portnum,
		Payload: data.Payload,
	}
	if data.Portnum == wire.PortNumTextMessage {
		r.DecodedText = string(data.Payload)
	}
	return r
}

// buildCandidates assembles the ordered, de-duplicated candidate list:
//  1. the learned key for namedChannel, if any
//  2. the default key paired with namedChannel
//  3. every (channel, key) pair in the cache
//  4. the default (channel, key) pair as a last resort
func buildCandidates(namedChannel string, cache KeyLookup) []candidate {
	seen := make(map[candidate]bool)
	var list []candidate

	add := func(c candidate) {
		if seen[c] {
			return
		}
		seen[c] = true
		list = append(list, c)
	}

	if learned, ok := cache.Lookup(namedChannel); ok {
		add(candidate{channel: namedChannel, key: learned})
	}
	add(candidate{channel: namedChannel, key: keys.DefaultKeyBase64})
	for ch, key := range cache.All() {
		add(candidate{channel: ch, key: key})
	}
	add(candidate{channel: namedChannel, key: keys.DefaultKeyBase64})

	return list
}

// filterByChannelHint narrows candidates to those whose channel hash
// matches the packet's hint, when the hint is non-zero and at least one
// candidate matches. Otherwise every candidate is retained unfiltered.
func filterByChannelHint(candidates []candidate, hint uint32) []candidate {
	if hint == 0 {
		return candidates
	}
	var matched []candidate
	for _, c := range candidates {
		h, err := keys.GenerateChannelHash(c.channel, c.key)
		if err == nil && h == hint {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return candidates
	}
	return matched
}
