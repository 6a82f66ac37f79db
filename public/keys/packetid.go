package keys

import "math/rand/v2"

// GeneratePacketId returns a fresh packet identifier, uniformly distributed
// over the full uint32 range.
func GeneratePacketId() uint32 {
	return rand.Uint32()
}
