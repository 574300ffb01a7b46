package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/site-environment/internal/alarm"
	"github.com/oshokin/site-environment/internal/domain/environment"
	"github.com/oshokin/site-environment/internal/logger"
	"github.com/oshokin/site-environment/internal/sensor"
)

// Config holds every setting of the simulator.
type Config struct {
	// ListenAddress is the HTTP API bind address.
	ListenAddress string `yaml:"listen_addr"`
	// DocumentFile is the path of the canonical JSON document.
	DocumentFile string `yaml:"document_file"`
	// TickInterval is the pause between simulation ticks.
	TickInterval time.Duration `yaml:"tick_interval"`
	// WriteTimeout bounds each document save.
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// ShutdownTimeout bounds the HTTP server drain on shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Report enables the console status block after each tick.
	Report bool `yaml:"report"`
	// SingleInstance refuses to start when another simulator runs on this host.
	SingleInstance bool `yaml:"single_instance"`
	// Thresholds are the inclusive alarm limits.
	Thresholds alarm.Thresholds `yaml:"thresholds"`
	// Channels are the cyclic reading tables.
	Channels Channels `yaml:"channels"`
	// Redis configures the optional Redis mirror.
	Redis Redis `yaml:"redis"`
	// MQTT configures the optional MQTT publisher.
	MQTT MQTT `yaml:"mqtt"`
	// Health configures the optional gRPC health endpoint.
	Health Health `yaml:"health"`
	// Discovery configures mDNS advertisement.
	Discovery Discovery `yaml:"discovery"`
}

// Channels holds one reading table per channel.
type Channels struct {
	// Temperature is the °C table.
	Temperature []float64 `yaml:"temperature,flow"`
	// HeartRate is the bpm table.
	HeartRate []float64 `yaml:"heart_rate,flow"`
}

// Tables converts the settings into sensor tables.
func (c Channels) Tables() sensor.Tables {
	return sensor.Tables{
		environment.ChannelTemperature: c.Temperature,
		environment.ChannelHeartRate:   c.HeartRate,
	}
}

// Redis configures the Redis mirror. An empty Addr disables it.
type Redis struct {
	// Addr is host:port of the Redis server.
	Addr string `yaml:"addr"`
	// Password is the optional AUTH password.
	Password string `yaml:"password,omitempty"`
	// DB is the logical database index.
	DB int `yaml:"db"`
	// Key stores the document.
	Key string `yaml:"key"`
	// TTL expires the key when the simulator stops refreshing it. Zero keeps it forever.
	TTL time.Duration `yaml:"ttl"`
}

// Enabled reports whether the mirror is configured.
func (r Redis) Enabled() bool {
	return r.Addr != ""
}

// MQTT configures the MQTT publisher. An empty Broker disables it.
type MQTT struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string `yaml:"broker"`
	// Topic receives the document.
	Topic string `yaml:"topic"`
	// ClientID is generated per run when empty.
	ClientID string `yaml:"client_id,omitempty"`
	// QoS is 0, 1 or 2.
	QoS byte `yaml:"qos"`
	// Retained keeps the last document on the broker.
	Retained bool `yaml:"retained"`
}

// Enabled reports whether the publisher is configured.
func (m MQTT) Enabled() bool {
	return m.Broker != ""
}

// Health configures the gRPC health endpoint. An empty ListenAddress disables it.
type Health struct {
	// ListenAddress is the gRPC bind address.
	ListenAddress string `yaml:"listen_addr"`
}

// Enabled reports whether the endpoint is configured.
func (h Health) Enabled() bool {
	return h.ListenAddress != ""
}

// Discovery configures mDNS advertisement of the HTTP API.
type Discovery struct {
	// Enabled turns advertisement on.
	Enabled bool `yaml:"enabled"`
	// Instance is derived from the hostname when empty.
	Instance string `yaml:"instance,omitempty"`
	// Domain is the mDNS domain.
	Domain string `yaml:"domain"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "site-environment.yaml"
	// DefaultListenAddress binds the HTTP API on every interface.
	DefaultListenAddress = "0.0.0.0:8080"
	// DefaultDocumentFilename is the canonical document path.
	DefaultDocumentFilename = "construction_site.json"
	// DefaultTickInterval is the pause between ticks.
	DefaultTickInterval = 3 * time.Second
	// DefaultWriteTimeout bounds each document save.
	DefaultWriteTimeout = 2 * time.Second
	// DefaultShutdownTimeout bounds the HTTP drain.
	DefaultShutdownTimeout = 5 * time.Second
	// DefaultLogLevel is the startup log level.
	DefaultLogLevel = "info"
	// DefaultRedisKey stores the mirrored document.
	DefaultRedisKey = "site-environment:document"
	// DefaultMQTTTopic receives the published document.
	DefaultMQTTTopic = "construction-site/environment"
	// DefaultDiscoveryDomain is the mDNS domain.
	DefaultDiscoveryDomain = "local."
	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	maxQoS = 2
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrInvalidDuration is returned for negative durations.
	ErrInvalidDuration = errors.New("duration must not be negative")
	// ErrInvalidLogLevel is returned for unknown log levels.
	ErrInvalidLogLevel = errors.New("unknown log level")
	// ErrInvalidQoS is returned for MQTT QoS above 2.
	ErrInvalidQoS = errors.New("mqtt qos must be 0, 1 or 2")
)

// Default returns the built-in settings.
func Default() *Config {
	tables := sensor.DefaultTables()

	return &Config{
		ListenAddress:   DefaultListenAddress,
		DocumentFile:    DefaultDocumentFilename,
		TickInterval:    DefaultTickInterval,
		WriteTimeout:    DefaultWriteTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		LogLevel:        DefaultLogLevel,
		Report:          true,
		Thresholds:      alarm.DefaultThresholds(),
		Channels: Channels{
			Temperature: tables[environment.ChannelTemperature],
			HeartRate:   tables[environment.ChannelHeartRate],
		},
		Redis: Redis{
			Key: DefaultRedisKey,
		},
		MQTT: MQTT{
			Topic:    DefaultMQTTTopic,
			QoS:      1,
			Retained: true,
		},
		Discovery: Discovery{
			Domain: DefaultDiscoveryDomain,
		},
	}
}

// Load reads configuration from the provided path and validates it.
// An empty path reads DefaultConfigFilename and falls back to Default when
// that file does not exist; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case !explicit && errors.Is(err, fs.ErrNotExist):
		// Keep defaults.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may carry the Redis password.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults for unset fields and rejects invalid ones.
//
//nolint:cyclop // Flat list of independent checks.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.DocumentFile == "" {
		cfg.DocumentFile = DefaultDocumentFilename
	}

	durations := []struct {
		name  string
		value *time.Duration
		def   time.Duration
	}{
		{name: "tick_interval", value: &cfg.TickInterval, def: DefaultTickInterval},
		{name: "write_timeout", value: &cfg.WriteTimeout, def: DefaultWriteTimeout},
		{name: "shutdown_timeout", value: &cfg.ShutdownTimeout, def: DefaultShutdownTimeout},
	}

	for _, d := range durations {
		switch {
		case *d.value < 0:
			return fmt.Errorf("%w: %s", ErrInvalidDuration, d.name)
		case *d.value == 0:
			*d.value = d.def
		}
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.LogLevel)
	}

	if err := cfg.Thresholds.Validate(); err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}

	if err := cfg.Channels.Tables().Validate(); err != nil {
		return fmt.Errorf("invalid channels: %w", err)
	}

	if err := validateRedis(&cfg.Redis); err != nil {
		return err
	}

	if err := validateMQTT(&cfg.MQTT); err != nil {
		return err
	}

	if cfg.Health.Enabled() {
		if _, err := net.ResolveTCPAddr("tcp", cfg.Health.ListenAddress); err != nil {
			return fmt.Errorf("invalid health listen address: %w", err)
		}
	}

	if cfg.Discovery.Domain == "" {
		cfg.Discovery.Domain = DefaultDiscoveryDomain
	}

	return nil
}

func validateRedis(r *Redis) error {
	if !r.Enabled() {
		return nil
	}

	if _, _, err := net.SplitHostPort(r.Addr); err != nil {
		return fmt.Errorf("invalid redis address: %w", err)
	}

	if r.TTL < 0 {
		return fmt.Errorf("%w: redis.ttl", ErrInvalidDuration)
	}

	if r.Key == "" {
		r.Key = DefaultRedisKey
	}

	return nil
}

func validateMQTT(m *MQTT) error {
	if !m.Enabled() {
		return nil
	}

	if _, err := url.ParseRequestURI(m.Broker); err != nil {
		return fmt.Errorf("invalid mqtt broker URI: %w", err)
	}

	if m.QoS > maxQoS {
		return ErrInvalidQoS
	}

	if m.Topic == "" {
		m.Topic = DefaultMQTTTopic
	}

	return nil
}
