// Package config loads otdecode configuration from YAML or TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the complete otdecode configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" toml:"log"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Backfill BackfillConfig `yaml:"backfill" toml:"backfill"`
	Output   OutputConfig   `yaml:"output" toml:"output"`
	MQTT     MQTTConfig     `yaml:"mqtt" toml:"mqtt"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // console, json
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`

	// RetentionDays is how long stored messages are kept. Zero keeps them
	// forever.
	RetentionDays int `yaml:"retention_days" toml:"retention_days"`
}

// RetentionCutoff returns the time before which messages are pruned, and
// false when retention is disabled.
func (d DatabaseConfig) RetentionCutoff(now time.Time) (time.Time, bool) {
	if d.RetentionDays <= 0 {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, -d.RetentionDays), true
}

// BackfillConfig tunes the backfill run.
type BackfillConfig struct {
	BatchSize int `yaml:"batch_size" toml:"batch_size"`
	Workers   int `yaml:"workers" toml:"workers"`

	// Checkpoint is a JSON file tracking the last processed message ID.
	// When set, a run without an explicit after-id resumes from it.
	Checkpoint string `yaml:"checkpoint" toml:"checkpoint"`
}

// OutputConfig lists additional record destinations.
type OutputConfig struct {
	RecordFile string `yaml:"record_file" toml:"record_file"`
	JSONL      string `yaml:"jsonl" toml:"jsonl"`
}

// MQTTConfig configures publishing records to a broker. Publishing is
// disabled while Broker is empty.
type MQTTConfig struct {
	Broker      string `yaml:"broker" toml:"broker"`
	ClientID    string `yaml:"client_id" toml:"client_id"`
	Username    string `yaml:"username" toml:"username"`
	Password    string `yaml:"password" toml:"password"`
	TopicPrefix string `yaml:"topic_prefix" toml:"topic_prefix"`
	QoS         int    `yaml:"qos" toml:"qos"`
	Retain      bool   `yaml:"retain" toml:"retain"`
	Timeout     string `yaml:"timeout" toml:"timeout"`
}

// Enabled reports whether a broker is configured.
func (m MQTTConfig) Enabled() bool {
	return strings.TrimSpace(m.Broker) != ""
}

// PublishTimeout returns the parsed timeout. Validate rejects bad values.
func (m MQTTConfig) PublishTimeout() time.Duration {
	d, err := time.ParseDuration(m.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Database: DatabaseConfig{
			Path: "thermostart.db",
		},
		Backfill: BackfillConfig{
			BatchSize: 500,
			Workers:   4,
		},
		MQTT: MQTTConfig{
			TopicPrefix: "thermostart",
			QoS:         0,
			Timeout:     "5s",
		},
	}
}

// Load reads the file at path on top of Default. The format is chosen by
// extension: .yaml/.yml or .toml. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("config load failed (%s): unsupported format", path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q: want debug, info, warn or error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "text", "json":
	default:
		return fmt.Errorf("log.format %q: want console or json", c.Log.Format)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.RetentionDays < 0 {
		return fmt.Errorf("database.retention_days must not be negative")
	}
	if c.Backfill.BatchSize < 1 {
		return fmt.Errorf("backfill.batch_size must be positive")
	}
	if c.Backfill.Workers < 1 {
		return fmt.Errorf("backfill.workers must be positive")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos %d: want 0, 1 or 2", c.MQTT.QoS)
	}
	if c.MQTT.Enabled() {
		d, err := time.ParseDuration(c.MQTT.Timeout)
		if err != nil {
			return fmt.Errorf("mqtt.timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("mqtt.timeout must be positive")
		}
	}
	return nil
}
