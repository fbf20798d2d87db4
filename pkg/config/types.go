package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent vellum configuration stored as config.toml
// in the .vellum/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Decoder   DecoderConfig   `toml:"decoder"`
	Citations CitationsConfig `toml:"citations"`
	Events    EventsConfig    `toml:"events"`
}

// DecoderConfig holds stream decoder settings.
type DecoderConfig struct {
	// Protocol selects the wire format: "marker" (agent mode) or "sse"
	// (chat mode).
	Protocol string `toml:"protocol,omitempty"`

	// DebounceMS is the render scheduler's debounce window in milliseconds.
	DebounceMS uint `toml:"debounce_ms,omitempty"`
}

// CitationsConfig holds citation store settings.
type CitationsConfig struct {
	// Driver selects the store backend: "inmemory" or "sqlite".
	Driver string `toml:"driver,omitempty"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `toml:"sqlite_path,omitempty"`

	// ReloadWorkers is the size of the async library reload pool.
	ReloadWorkers uint `toml:"reload_workers,omitempty"`
}

// EventsConfig holds outbound editor command stream settings.
type EventsConfig struct {
	// Publisher selects the command transport: "nop" or "kafka".
	Publisher string `toml:"publisher,omitempty"`

	// KafkaBrokers is a comma-separated broker list for the kafka publisher.
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`

	// KafkaTopic is the topic editor commands are published to.
	KafkaTopic string `toml:"kafka_topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"decoder.protocol": {
		get: func(c *Config) string { return c.Decoder.Protocol },
		set: func(c *Config, v string) error {
			if v != "marker" && v != "sse" {
				return fmt.Errorf("invalid value for decoder.protocol: %q (expected marker or sse)", v)
			}
			c.Decoder.Protocol = v
			return nil
		},
	},
	"decoder.debounce_ms": {
		get: func(c *Config) string {
			if c.Decoder.DebounceMS == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Decoder.DebounceMS), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for decoder.debounce_ms: %w", err)
			}
			c.Decoder.DebounceMS = uint(n)
			return nil
		},
	},
	"citations.driver": {
		get: func(c *Config) string { return c.Citations.Driver },
		set: func(c *Config, v string) error {
			if v != "inmemory" && v != "sqlite" {
				return fmt.Errorf("invalid value for citations.driver: %q (expected inmemory or sqlite)", v)
			}
			c.Citations.Driver = v
			return nil
		},
	},
	"citations.sqlite_path": {
		get: func(c *Config) string { return c.Citations.SQLitePath },
		set: func(c *Config, v string) error { c.Citations.SQLitePath = v; return nil },
	},
	"citations.reload_workers": {
		get: func(c *Config) string {
			if c.Citations.ReloadWorkers == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Citations.ReloadWorkers), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for citations.reload_workers: %w", err)
			}
			c.Citations.ReloadWorkers = uint(n)
			return nil
		},
	},
	"events.publisher": {
		get: func(c *Config) string { return c.Events.Publisher },
		set: func(c *Config, v string) error {
			if v != "nop" && v != "kafka" {
				return fmt.Errorf("invalid value for events.publisher: %q (expected nop or kafka)", v)
			}
			c.Events.Publisher = v
			return nil
		},
	},
	"events.kafka_brokers": {
		get: func(c *Config) string { return c.Events.KafkaBrokers },
		set: func(c *Config, v string) error { c.Events.KafkaBrokers = v; return nil },
	},
	"events.kafka_topic": {
		get: func(c *Config) string { return c.Events.KafkaTopic },
		set: func(c *Config, v string) error { c.Events.KafkaTopic = v; return nil },
	},
}
