package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tcp://mqtt.meshtastic.org:1883", cfg.BrokerURL)
	assert.Equal(t, "meshdev", cfg.Username)
	assert.Equal(t, "large4cats", cfg.Password)
	assert.Equal(t, "EU_868", cfg.Region)
	assert.Equal(t, "msh", cfg.Root)
	assert.Equal(t, "e", cfg.DefaultPath)
	assert.Equal(t, "LongFast", cfg.DefaultChannel)
	assert.Equal(t, "!00000001", cfg.GatewayID)
	assert.Empty(t, cfg.ChannelKeys)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MESHBRIDGE_BROKER_URL", "tcp://broker.example:1883")
	t.Setenv("MESHBRIDGE_REGION", "US")
	t.Setenv("MESHBRIDGE_DEFAULT_CHANNEL", "Admin")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tcp://broker.example:1883", cfg.BrokerURL)
	assert.Equal(t, "US", cfg.Region)
	assert.Equal(t, "Admin", cfg.DefaultChannel)
}

func TestLoadChannelKeys(t *testing.T) {
	t.Setenv("MESHBRIDGE_CHANNEL_KEYS", "LongFast=AQ==,Secret=cGFzc3dvcmQxMjM0NTY3OA==")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"LongFast": "AQ==",
		"Secret":   "cGFzc3dvcmQxMjM0NTY3OA==",
	}, cfg.ChannelKeys)
}

func TestLoadChannelKeysMalformed(t *testing.T) {
	t.Setenv("MESHBRIDGE_CHANNEL_KEYS", "justaname")

	_, err := Load()
	require.Error(t, err)
}

func TestParseChannelKeysIgnoresBlankEntries(t *testing.T) {
	out, err := parseChannelKeys("a=1, , b=2,")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, out)
}
