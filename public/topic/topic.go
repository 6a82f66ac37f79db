// Package topic builds and parses the bridge's MQTT topic grammar.
package topic

import "strings"

// Parsed is the decomposed form of a topic string.
type Parsed struct {
	// RootAndRegion is every segment before the "2" marker, rejoined with
	// "/". For the common case this is "<root>/<region>".
	RootAndRegion string
	// Path is one of "e" (binary encrypted), "c" (binary control), "json",
	// or "unknown" when the topic wasn't in canonical form.
	Path    string
	Channel string
	Gateway string
}

// Build assembles the canonical topic string from its components.
func Build(root, region, path, channel, gateway string) string {
	return strings.Join([]string{root, region, "2", path, channel, gateway}, "/")
}

// Parse decomposes a topic string. For a canonical topic (one that contains
// a "2" segment followed by at least three more segments) it recovers
// {path, channel, gateway} exactly. For anything else it falls back to a
// best-effort heuristic: the last segment is the gateway, the second-to-last
// is the channel, and Path is reported as "unknown".
func Parse(t string) Parsed {
	segments := strings.Split(t, "/")

	for i, seg := range segments {
		if seg == "2" && len(segments)-i-1 >= 3 {
			return Parsed{
				RootAndRegion: strings.Join(segments[:i], "/"),
				Path:          segments[i+1],
				Channel:       segments[i+2],
				Gateway:       segments[i+3],
			}
		}
	}

	p := Parsed{Path: "unknown"}
	switch len(segments) {
	case 0:
	case 1:
		p.Gateway = segments[0]
	default:
		p.Gateway = segments[len(segments)-1]
		p.Channel = segments[len(segments)-2]
		p.RootAndRegion = strings.Join(segments[:len(segments)-2], "/")
	}
	return p
}
