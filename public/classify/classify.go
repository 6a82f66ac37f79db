// Package classify decides what a raw payload is from its topic path and
// bytes, scoring confidence instead of failing outright.
package classify

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/rabarar/mqtt-meshtastic-bridge/public/wire"
)

// Kind is the tagged-variant discriminator for a Classification.
type Kind string

const (
	KindMeshtasticBinary           Kind = "meshtastic-binary"
	KindMeshtasticBinaryHeaderOnly Kind = "meshtastic-binary-header-only"
	KindMeshtasticJSON             Kind = "meshtastic-json"
	KindJSON                       Kind = "json"
	KindText                       Kind = "text"
	KindBinary                     Kind = "binary"
	KindBinaryCorrupted            Kind = "binary-corrupted"
)

// PacketMeta carries the packet-level fields worth previewing without
// forcing every caller to reach into Envelope.Packet.
type PacketMeta struct {
	From        uint32
	To          uint32
	ID          uint32
	ChannelHint uint32
	HopLimit    uint32
	HopStart    uint32
	WantAck     bool
	ViaMqtt     bool
	RxTime      uint32
}

// Classification is the tagged result of classifying one payload.
type Classification struct {
	Kind        Kind
	TopicPath   string
	PreviewText string
	DecodeError string
	Envelope    *wire.ServiceEnvelope
	PacketMeta  *PacketMeta
	JSON        interface{}
}

// binaryConfidenceThreshold is the score at or above which a payload on an
// "e"/"c" path is trusted as a Meshtastic binary envelope.
const binaryConfidenceThreshold = 6

// previewMaxLen is the truncation length for preview text.
const previewMaxLen = 140

// Classify inspects raw against the dispatch table in the format notes,
// keyed by topicPath (the middle segment of a canonical topic: "e", "c",
// "json", or anything else).
func Classify(topicPath string, raw []byte) Classification {
	switch topicPath {
	case "json":
		return classifyJSONPath(topicPath, raw)
	case "e", "c":
		return classifyBinaryPath(topicPath, raw)
	default:
		return classifyUnknownPath(topicPath, raw)
	}
}

func classifyJSONPath(topicPath string, raw []byte) Classification {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err == nil {
		return Classification{Kind: KindMeshtasticJSON, TopicPath: topicPath, JSON: v}
	}
	return classifyTextOrBinary(topicPath, raw, "")
}

func classifyUnknownPath(topicPath string, raw []byte) Classification {
	var v interface{}
	if looksLikeJSON(raw) {
		if err := json.Unmarshal(raw, &v); err == nil {
			c := Classification{Kind: KindJSON, TopicPath: topicPath, JSON: v}
			c.DecodeError = "unexpected topic path " + topicPath
			return c
		}
	}
	c := classifyTextOrBinary(topicPath, raw, "")
	c.DecodeError = appendNote(c.DecodeError, "unexpected topic path "+topicPath)
	return c
}

func looksLikeJSON(raw []byte) bool {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return false
	}
	return trimmed[0] == '{' || trimmed[0] == '['
}

// classifyBinaryPath probes raw as a ServiceEnvelope and scores its
// plausibility. Payloads that don't clear the threshold fall through to
// JSON/text/binary detection, exactly as non-"e"/"c" paths do.
func classifyBinaryPath(topicPath string, raw []byte) Classification {
	env, derr := wire.DecodeServiceEnvelope(raw, wire.DecodeOptions{})
	score, hadDecodeError := scoreEnvelope(env, derr)

	if score >= binaryConfidenceThreshold {
		kind := KindMeshtasticBinary
		if env.Packet.Encrypted == nil && env.Packet.Decoded == nil {
			kind = KindMeshtasticBinaryHeaderOnly
		}
		c := Classification{
			Kind:      kind,
			TopicPath: topicPath,
			Envelope:  &env,
			PacketMeta: &PacketMeta{
				From: env.Packet.From, To: env.Packet.To, ID: env.Packet.ID,
				ChannelHint: env.Packet.ChannelHint, HopLimit: env.Packet.HopLimit,
				HopStart: env.Packet.HopStart, WantAck: env.Packet.WantAck,
				ViaMqtt: env.Packet.ViaMqtt, RxTime: env.Packet.RxTime,
			},
		}
		if hadDecodeError {
			c.DecodeError = derr.Error()
		}
		return c
	}

	c := classifyTextOrBinary(topicPath, raw, "")
	if hadDecodeError {
		c.DecodeError = appendNote(c.DecodeError, derr.Error())
	}
	return c
}

// scoreEnvelope implements the binary confidence table from the format
// notes. It returns the score and whether a decode error was produced.
func scoreEnvelope(env wire.ServiceEnvelope, derr *wire.DecodeError) (int, bool) {
	score := 0

	// A zero-value packet (nothing at all decoded) is the only case we
	// treat as "no packet". MeshPacket carries slice/pointer fields, so
	// this is checked field-by-field rather than with == .
	if packetLooksPresent(env.Packet) {
		score += 2
	}
	if env.Packet.From > 0 {
		score += 2
	}
	if env.Packet.ID != 0 {
		score += 2
	}
	if env.Packet.RxTime != 0 {
		score += 1
	}
	if env.Packet.HopStart > 0 || env.Packet.HopLimit > 0 || env.Packet.ViaMqtt {
		score += 1
	}
	if len(env.Packet.Encrypted) > 0 || env.Packet.Decoded != nil {
		score += 3
	}
	if env.ChannelID != "" || env.GatewayID != "" {
		score += 1
	}

	if derr == nil {
		score += 1
		return score, false
	}

	switch classifyDecodeErrorKind(derr) {
	case errKindTruncation:
		score -= 1
	case errKindUnknownWirePacket:
		score -= 1
	case errKindUnknownWireEnvelope:
		score -= 3
	default:
		score -= 2
	}
	return score, true
}

// packetLooksPresent reports whether p has any field set at all, i.e. isn't
// the zero value DecodeMeshPacket returns for a completely empty input.
func packetLooksPresent(p wire.MeshPacket) bool {
	return p.From != 0 || p.To != 0 || p.ID != 0 || p.ChannelHint != 0 ||
		p.HopLimit != 0 || p.HopStart != 0 || p.WantAck || p.ViaMqtt ||
		len(p.Encrypted) > 0 || p.Decoded != nil ||
		p.RxTime != 0 || p.RxSnr != nil || p.RxRssi != nil
}

type errKind int

const (
	errKindOther errKind = iota
	errKindTruncation
	errKindUnknownWireEnvelope
	errKindUnknownWirePacket
)

func classifyDecodeErrorKind(derr *wire.DecodeError) errKind {
	msg := derr.Error()
	switch {
	case strings.Contains(msg, "decoding packet:") && strings.Contains(msg, "unknown wire type"):
		return errKindUnknownWirePacket
	case strings.Contains(msg, "unknown wire type"):
		return errKindUnknownWireEnvelope
	case strings.Contains(msg, "truncated") || strings.Contains(msg, "exceeds") || strings.Contains(msg, "remain"):
		return errKindTruncation
	default:
		return errKindOther
	}
}

// classifyTextOrBinary applies the printable-ratio and replacement-sequence
// heuristics to decide between text, binary, and binary-corrupted.
func classifyTextOrBinary(topicPath string, raw []byte, note string) Classification {
	if replacementRatio(raw) >= 0.15 {
		return Classification{
			Kind:        KindBinaryCorrupted,
			TopicPath:   topicPath,
			DecodeError: appendNote(note, "gateway mangled binary as text"),
		}
	}
	if printableRatio(raw) >= 0.85 {
		return Classification{
			Kind:        KindText,
			TopicPath:   topicPath,
			PreviewText: preview(raw),
			DecodeError: note,
		}
	}
	return Classification{Kind: KindBinary, TopicPath: topicPath, DecodeError: note}
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	if note == "" {
		return existing
	}
	return existing + "; " + note
}

func printableRatio(raw []byte) float64 {
	if len(raw) == 0 {
		return 0
	}
	var printable int
	for _, b := range raw {
		if b == 0x09 || b == 0x0A || b == 0x0D || (b >= 0x20 && b <= 0x7E) {
			printable++
		}
	}
	return float64(printable) / float64(len(raw))
}

func replacementRatio(raw []byte) float64 {
	if len(raw) == 0 {
		return 0
	}
	count := strings.Count(string(raw), "\xEF\xBF\xBD")
	return float64(count*3) / float64(len(raw))
}

// preview trims whitespace, collapses interior whitespace runs, and
// truncates to 140 characters with an ellipsis.
func preview(raw []byte) string {
	fields := strings.Fields(string(raw))
	collapsed := strings.Join(fields, " ")
	if utf8.RuneCountInString(collapsed) <= previewMaxLen {
		return collapsed
	}
	runes := []rune(collapsed)
	return string(runes[:previewMaxLen]) + "…"
}
