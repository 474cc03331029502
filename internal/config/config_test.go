package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "9700", cfg.Port)
	assert.Equal(t, "./data/sonos-mqtt.db", cfg.SQLiteDBPath)
	assert.Equal(t, []string{"tcp://localhost:1883"}, cfg.BrokerURLs)
	assert.Equal(t, "sonos-mqtt", cfg.ClientIDPrefix)
	assert.Equal(t, "sonos2mqtt/discovery/#", cfg.DiscoveryTopic)
	assert.Equal(t, 300, cfg.AvailabilityStaleSec)
	assert.Equal(t, "@every 1m", cfg.SweepSchedule)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("MQTT_BROKER_URLS", "tcp://broker1:1883, tcp://broker2:1883")
	t.Setenv("DISCOVERY_TOPIC", "homeassistant/+/config")
	t.Setenv("AVAILABILITY_STALE_SECONDS", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"tcp://broker1:1883", "tcp://broker2:1883"}, cfg.BrokerURLs)
	assert.Equal(t, "homeassistant/+/config", cfg.DiscoveryTopic)
	assert.Equal(t, 60, cfg.AvailabilityStaleSec)
}

func TestLoadConfigFileOverridesEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
broker_urls:
  - tcp://file-broker:1883
mqtt_username: bridge
sweep_schedule: "@every 30s"
`), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"tcp://file-broker:1883"}, cfg.BrokerURLs)
	assert.Equal(t, "bridge", cfg.MQTTUsername)
	assert.Equal(t, "@every 30s", cfg.SweepSchedule)
}

func TestLoadRejectsMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveStaleSeconds(t *testing.T) {
	t.Setenv("AVAILABILITY_STALE_SECONDS", "-1")
	_, err := Load()
	assert.Error(t, err)
}
