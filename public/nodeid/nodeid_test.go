package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "^all", Format(Broadcast))
	assert.Equal(t, "!d844b556", Format(0xd844b556))
	assert.Equal(t, "!00000001", Format(1))
}

func TestParseForms(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"^all", Broadcast},
		{"!d844b556", 0xd844b556},
		{"0xd844b556", 0xd844b556},
		{"0Xd844b556", 0xd844b556},
		{"3628176214", 3628176214},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("!zzzzzzzz")
	require.Error(t, err)

	_, err = Parse("not-a-number")
	require.Error(t, err)
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, id := range []uint32{0, 1, 0xd844b556, Broadcast} {
		got, err := Parse(Format(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}
