// Package config loads gofleet server configuration from defaults, an
// optional YAML file and GOFLEET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "GOFLEET_"

// Map storage backends.
const (
	MapBackendS3  = "s3"
	MapBackendDir = "dir"
)

// ServerConfig holds configuration for the gofleet server.
type ServerConfig struct {
	Addr      string `yaml:"addr"`       // Listen address (default ":8080")
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json
	DBPath    string `yaml:"db_path"`    // SQLite database path (default ~/.gofleet/gofleet.db, ":memory:" for testing)

	Scheduler SchedulerConfig `yaml:"scheduler"`
	Maps      MapsConfig      `yaml:"maps"`
	Robots    RobotsConfig    `yaml:"robots"`
	Events    EventsConfig    `yaml:"events"`
}

// SchedulerConfig configures the mission dispatch loop.
type SchedulerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// MapsConfig selects and configures the map image store.
type MapsConfig struct {
	Backend      string `yaml:"backend"` // "s3" or "dir"
	BucketPrefix string `yaml:"bucket_prefix"`
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"` // S3-compatible endpoint, empty for AWS
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	DirRoot      string `yaml:"dir_root"`
}

// RobotsConfig configures the robot dispatchers.
type RobotsConfig struct {
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	MQTTBroker     string        `yaml:"mqtt_broker"` // Empty disables the MQTT dispatcher
	MQTTClientID   string        `yaml:"mqtt_client_id"`
	MQTTUsername   string        `yaml:"mqtt_username"`
	MQTTPassword   string        `yaml:"mqtt_password"`
	MQTTTopic      string        `yaml:"mqtt_topic_prefix"`
	MQTTAckTimeout time.Duration `yaml:"mqtt_ack_timeout"`
}

// EventsConfig configures mission event publishing.
type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url"` // Empty disables events
	Exchange string `yaml:"exchange"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		Scheduler: SchedulerConfig{PollInterval: time.Second},
		Maps: MapsConfig{
			Backend: MapBackendDir,
			Region:  "us-east-1",
			DirRoot: "maps",
		},
		Robots: RobotsConfig{
			HTTPTimeout:    30 * time.Second,
			MQTTClientID:   "gofleet-scheduler",
			MQTTTopic:      "gofleet/robots",
			MQTTAckTimeout: 5 * time.Second,
		},
		Events: EventsConfig{Exchange: "gofleet.events"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// non-empty), then GOFLEET_* environment variables.
func Load(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadEnv loads .env files into the process environment without overriding
// variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadFile overlays the YAML file at path onto cfg.
func (c *ServerConfig) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays GOFLEET_* variables looked up through getenv.
func (c *ServerConfig) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		v := getenv(EnvPrefix + key)
		if v == "" {
			return
		}
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*dst = d
	}

	str("ADDR", &c.Addr)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("DB_PATH", &c.DBPath)

	dur("POLL_INTERVAL", &c.Scheduler.PollInterval)

	str("MAPS_BACKEND", &c.Maps.Backend)
	str("MAPS_BUCKET_PREFIX", &c.Maps.BucketPrefix)
	str("MAPS_REGION", &c.Maps.Region)
	str("MAPS_ENDPOINT", &c.Maps.Endpoint)
	str("MAPS_ACCESS_KEY", &c.Maps.AccessKey)
	str("MAPS_SECRET_KEY", &c.Maps.SecretKey)
	str("MAPS_DIR", &c.Maps.DirRoot)

	dur("ROBOT_HTTP_TIMEOUT", &c.Robots.HTTPTimeout)
	str("MQTT_BROKER", &c.Robots.MQTTBroker)
	str("MQTT_CLIENT_ID", &c.Robots.MQTTClientID)
	str("MQTT_USERNAME", &c.Robots.MQTTUsername)
	str("MQTT_PASSWORD", &c.Robots.MQTTPassword)
	str("MQTT_TOPIC_PREFIX", &c.Robots.MQTTTopic)
	dur("MQTT_ACK_TIMEOUT", &c.Robots.MQTTAckTimeout)

	str("AMQP_URL", &c.Events.AMQPURL)
	str("AMQP_EXCHANGE", &c.Events.Exchange)

	return errors.Join(errs...)
}

// parseDuration accepts Go duration strings and bare integers as seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Validate checks values that would otherwise fail late at startup.
func (c ServerConfig) Validate() error {
	var errs []error
	switch strings.ToLower(c.Maps.Backend) {
	case MapBackendS3, MapBackendDir:
	default:
		errs = append(errs, fmt.Errorf("maps.backend: unknown backend %q (want s3 or dir)", c.Maps.Backend))
	}
	if c.Scheduler.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.poll_interval: must be positive, got %s", c.Scheduler.PollInterval))
	}
	if c.Robots.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("robots.http_timeout: must not be negative"))
	}
	return errors.Join(errs...)
}
