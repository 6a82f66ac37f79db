// Package config loads the bridge's startup configuration from environment
// variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config lists the bridge's tunable parameters.
type Config struct {
	BrokerURL      string
	Username       string
	Password       string
	Region         string
	Root           string
	DefaultPath    string
	DefaultChannel string
	DefaultKey     string
	GatewayID      string
	// ChannelKeys seeds the learned-key cache at startup: channel name to
	// base64 pre-shared key.
	ChannelKeys map[string]string
}

const (
	defaultBrokerURL      = "tcp://mqtt.meshtastic.org:1883"
	defaultUsername       = "meshdev"
	defaultPassword       = "large4cats"
	defaultRegion         = "EU_868"
	defaultRoot           = "msh"
	defaultPath           = "e"
	defaultChannel        = "LongFast"
	defaultGatewayID      = "!00000001"
)

// Load derives configuration values from environment variables, falling
// back to defaults.
func Load() (Config, error) {
	cfg := Config{
		BrokerURL:      defaultBrokerURL,
		Username:       defaultUsername,
		Password:       defaultPassword,
		Region:         defaultRegion,
		Root:           defaultRoot,
		DefaultPath:    defaultPath,
		DefaultChannel: defaultChannel,
		GatewayID:      defaultGatewayID,
		ChannelKeys:    map[string]string{},
	}

	if v := os.Getenv("MESHBRIDGE_BROKER_URL"); v != "" {
		cfg.BrokerURL = v
	}
	if v := os.Getenv("MESHBRIDGE_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("MESHBRIDGE_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("MESHBRIDGE_REGION"); v != "" {
		cfg.Region = v
	}
	if v := os.Getenv("MESHBRIDGE_ROOT"); v != "" {
		cfg.Root = v
	}
	if v := os.Getenv("MESHBRIDGE_DEFAULT_PATH"); v != "" {
		cfg.DefaultPath = v
	}
	if v := os.Getenv("MESHBRIDGE_DEFAULT_CHANNEL"); v != "" {
		cfg.DefaultChannel = v
	}
	if v := os.Getenv("MESHBRIDGE_DEFAULT_KEY"); v != "" {
		cfg.DefaultKey = v
	}
	if v := os.Getenv("MESHBRIDGE_GATEWAY_ID"); v != "" {
		cfg.GatewayID = v
	}
	if v := os.Getenv("MESHBRIDGE_CHANNEL_KEYS"); v != "" {
		parsed, err := parseChannelKeys(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MESHBRIDGE_CHANNEL_KEYS: %w", err)
		}
		cfg.ChannelKeys = parsed
	}

	return cfg, nil
}

// parseChannelKeys parses a "name=key,name=key" list.
func parseChannelKeys(v string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range strings.Split(v, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, key, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("malformed entry %q, want name=key", pair)
		}
		out[name] = key
	}
	return out, nil
}
