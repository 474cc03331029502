package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the base bridge configuration.
type Config struct {
	Host         string
	Port         string
	SQLiteDBPath string

	// MQTT broker settings
	BrokerURLs     []string
	ClientIDPrefix string
	MQTTUsername   string
	MQTTPassword   string

	// DiscoveryTopic is the wildcard topic speakers announce themselves on.
	DiscoveryTopic string

	// MediaResolverURL is the platform endpoint that resolves media-source
	// identifiers to playable URLs. Empty disables media-source playback.
	MediaResolverURL string

	// AvailabilityStaleSec is how long a player may go without telemetry
	// before the sweeper marks it unavailable.
	AvailabilityStaleSec int
	// SweepSchedule is a cron expression for the availability sweeper.
	SweepSchedule string
}

// fileConfig mirrors Config for the optional YAML override file.
type fileConfig struct {
	Host                 string   `yaml:"host"`
	Port                 string   `yaml:"port"`
	SQLiteDBPath         string   `yaml:"sqlite_db_path"`
	BrokerURLs           []string `yaml:"broker_urls"`
	ClientIDPrefix       string   `yaml:"client_id_prefix"`
	MQTTUsername         string   `yaml:"mqtt_username"`
	MQTTPassword         string   `yaml:"mqtt_password"`
	DiscoveryTopic       string   `yaml:"discovery_topic"`
	MediaResolverURL     string   `yaml:"media_resolver_url"`
	AvailabilityStaleSec int      `yaml:"availability_stale_seconds"`
	SweepSchedule        string   `yaml:"sweep_schedule"`
}

// Load reads configuration from environment variables with defaults.
// If CONFIG_FILE points at a YAML file, values present in it take
// precedence over the environment.
func Load() (Config, error) {
	cfg := Config{
		Host:                 envString("HOST", "0.0.0.0"),
		Port:                 envString("PORT", "9700"),
		SQLiteDBPath:         envString("SQLITE_DB_PATH", "./data/sonos-mqtt.db"),
		BrokerURLs:           envCSV("MQTT_BROKER_URLS"),
		ClientIDPrefix:       envString("MQTT_CLIENT_ID_PREFIX", "sonos-mqtt"),
		MQTTUsername:         envString("MQTT_USERNAME", ""),
		MQTTPassword:         envString("MQTT_PASSWORD", ""),
		DiscoveryTopic:       envString("DISCOVERY_TOPIC", "sonos2mqtt/discovery/#"),
		MediaResolverURL:     envString("MEDIA_RESOLVER_URL", ""),
		AvailabilityStaleSec: envInt("AVAILABILITY_STALE_SECONDS", 300),
		SweepSchedule:        envString("SWEEP_SCHEDULE", "@every 1m"),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if len(cfg.BrokerURLs) == 0 {
		cfg.BrokerURLs = []string{"tcp://localhost:1883"}
	}
	if cfg.AvailabilityStaleSec <= 0 {
		return Config{}, fmt.Errorf("AVAILABILITY_STALE_SECONDS must be positive")
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if fc.Host != "" {
		cfg.Host = fc.Host
	}
	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.SQLiteDBPath != "" {
		cfg.SQLiteDBPath = fc.SQLiteDBPath
	}
	if len(fc.BrokerURLs) > 0 {
		cfg.BrokerURLs = fc.BrokerURLs
	}
	if fc.ClientIDPrefix != "" {
		cfg.ClientIDPrefix = fc.ClientIDPrefix
	}
	if fc.MQTTUsername != "" {
		cfg.MQTTUsername = fc.MQTTUsername
	}
	if fc.MQTTPassword != "" {
		cfg.MQTTPassword = fc.MQTTPassword
	}
	if fc.DiscoveryTopic != "" {
		cfg.DiscoveryTopic = fc.DiscoveryTopic
	}
	if fc.MediaResolverURL != "" {
		cfg.MediaResolverURL = fc.MediaResolverURL
	}
	if fc.AvailabilityStaleSec > 0 {
		cfg.AvailabilityStaleSec = fc.AvailabilityStaleSec
	}
	if fc.SweepSchedule != "" {
		cfg.SweepSchedule = fc.SweepSchedule
	}
	return nil
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envCSV(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return []string{}
	}
	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}
