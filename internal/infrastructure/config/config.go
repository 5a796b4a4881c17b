package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Bench Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Bench       BenchConfig        `yaml:"bench"`
	Database    DatabaseConfig     `yaml:"database"`
	MQTT        MQTTConfig         `yaml:"mqtt"`
	API         APIConfig          `yaml:"api"`
	InfluxDB    InfluxDBConfig     `yaml:"influxdb"`
	Logging     LoggingConfig      `yaml:"logging"`
	Instruments []InstrumentConfig `yaml:"instruments"`
}

// BenchConfig identifies the test bench this daemon runs on.
type BenchConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// InstrumentConfig describes one instrument attached to the bench.
type InstrumentConfig struct {
	// ID is the bench-unique instrument identifier, used in API paths,
	// MQTT topics and recorded readings.
	ID string `yaml:"id"`

	// Name is the human-readable display name.
	Name string `yaml:"name"`

	// Adapter selects and configures the transport.
	Adapter AdapterConfig `yaml:"adapter"`

	// SCPI enables the common SCPI property set. Default: true.
	SCPI *bool `yaml:"scpi,omitempty"`

	// QueryDelayMS is the pause between a query write and its read, in
	// milliseconds. Most LAN instruments need none.
	QueryDelayMS int `yaml:"query_delay_ms,omitempty"`

	// Poll configures periodic property sampling.
	Poll PollConfig `yaml:"poll"`
}

// AdapterConfig selects the transport for one instrument.
type AdapterConfig struct {
	// Kind is "tcp", "mqtt" or "fake".
	Kind string `yaml:"kind"`

	// Connection is the TCP/Unix connection URL (tcp kind).
	Connection string `yaml:"connection,omitempty"`

	// CommandTopic and ReplyTopic carry traffic for the mqtt kind. When
	// empty they default to the bench topic scheme for the instrument id.
	CommandTopic string `yaml:"command_topic,omitempty"`
	ReplyTopic   string `yaml:"reply_topic,omitempty"`

	// Timeouts in seconds. Zero picks the adapter defaults.
	ConnectTimeout int `yaml:"connect_timeout,omitempty"`
	ReadTimeout    int `yaml:"read_timeout,omitempty"`
	WriteTimeout   int `yaml:"write_timeout,omitempty"`

	// Terminators for the tcp kind. Defaults: "\n" both ways.
	WriteTerminator string `yaml:"write_terminator,omitempty"`
	ReadTerminator  string `yaml:"read_terminator,omitempty"`
}

// PollConfig configures periodic sampling of an instrument's properties.
type PollConfig struct {
	Enabled    bool     `yaml:"enabled"`
	IntervalMS int      `yaml:"interval_ms"`
	Properties []string `yaml:"properties"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: BENCHCORE_SECTION_KEY
// For example: BENCHCORE_DATABASE_PATH, BENCHCORE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Bench: BenchConfig{
			ID:       "bench-001",
			Name:     "Bench Core",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/benchcore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "benchcore",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: BENCHCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("BENCHCORE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("BENCHCORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("BENCHCORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("BENCHCORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("BENCHCORE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("BENCHCORE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Bench validation
	if c.Bench.ID == "" {
		errs = append(errs, "bench.id is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set BENCHCORE_INFLUXDB_TOKEN environment variable)")
		}
	}

	// Instrument validation
	seen := make(map[string]bool, len(c.Instruments))
	for i, inst := range c.Instruments {
		if inst.ID == "" {
			errs = append(errs, fmt.Sprintf("instruments[%d].id is required", i))
			continue
		}
		if seen[inst.ID] {
			errs = append(errs, fmt.Sprintf("instruments[%d].id %q is duplicated", i, inst.ID))
		}
		seen[inst.ID] = true

		switch inst.Adapter.Kind {
		case "tcp":
			if inst.Adapter.Connection == "" {
				errs = append(errs, fmt.Sprintf("instruments[%d].adapter.connection is required for tcp", i))
			}
		case "mqtt", "fake":
		default:
			errs = append(errs, fmt.Sprintf("instruments[%d].adapter.kind must be tcp, mqtt or fake", i))
		}

		if inst.Poll.Enabled {
			if inst.Poll.IntervalMS <= 0 {
				errs = append(errs, fmt.Sprintf("instruments[%d].poll.interval_ms must be positive", i))
			}
			if len(inst.Poll.Properties) == 0 {
				errs = append(errs, fmt.Sprintf("instruments[%d].poll.properties must not be empty", i))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// SCPIEnabled reports whether the common SCPI property set is enabled for
// this instrument. Unset means enabled.
func (ic *InstrumentConfig) SCPIEnabled() bool {
	return ic.SCPI == nil || *ic.SCPI
}

// QueryDelay returns the configured query delay as a Duration.
func (ic *InstrumentConfig) QueryDelay() time.Duration {
	return time.Duration(ic.QueryDelayMS) * time.Millisecond
}

// PollInterval returns the configured poll interval as a Duration.
func (ic *InstrumentConfig) PollInterval() time.Duration {
	return time.Duration(ic.Poll.IntervalMS) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
