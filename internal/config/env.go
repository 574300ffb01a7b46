package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFilename is read when no explicit .env path is given.
const DefaultEnvFilename = ".env"

// Environment variables that override file settings.
const (
	EnvListenAddress = "SITE_ENV_LISTEN_ADDR"
	EnvDocumentFile  = "SITE_ENV_DOCUMENT_FILE"
	EnvLogLevel      = "SITE_ENV_LOG_LEVEL"
	EnvRedisAddress  = "SITE_ENV_REDIS_ADDR"
	EnvMQTTBroker    = "SITE_ENV_MQTT_BROKER"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadEnvFile loads variables from path into the process environment without
// overriding variables that are already set. An empty path reads
// DefaultEnvFilename if it exists.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFilename
	}

	err := godotenv.Load(path)

	switch {
	case err == nil:
		return nil
	case !explicit && errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("load env file: %w", err)
	}
}

// ApplyEnv overrides cfg fields from SITE_ENV_* variables. A nil lookup uses
// os.LookupEnv. Call Validate afterwards.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	overrides := []struct {
		key    string
		target *string
	}{
		{key: EnvListenAddress, target: &cfg.ListenAddress},
		{key: EnvDocumentFile, target: &cfg.DocumentFile},
		{key: EnvLogLevel, target: &cfg.LogLevel},
		{key: EnvRedisAddress, target: &cfg.Redis.Addr},
		{key: EnvMQTTBroker, target: &cfg.MQTT.Broker},
	}

	for _, o := range overrides {
		if value, ok := lookup(o.key); ok && value != "" {
			*o.target = value
		}
	}
}
