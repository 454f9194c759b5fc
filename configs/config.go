package configs

import (
	"github.com/BurntSushi/toml"
	"github.com/jabolina/go-gossip/pkg/gossip/definition"
	"github.com/jabolina/go-gossip/pkg/gossip/types"
	"os"
	"time"
)

const (
	// Path to an optional TOML file with tuning values.
	EnvConfigPath = "GOSSIP_CONFIG"

	// Overrides the log level.
	EnvLogLevel = "GOSSIP_LOG_LEVEL"

	// Address to expose the metrics over HTTP.
	EnvMetricsAddress = "GOSSIP_METRICS_ADDR"
)

// Tuning values read from a file. The node identity never comes
// from here, it arrives with the init message. Zero values keep
// the defaults.
//
//	retry_interval_ms = 200
//	max_retry_interval_ms = 2000
//	tick_interval_ms = 50
//	correlation_ttl_ms = 60000
//	log_level = "DEBUG"
//	metrics_address = "127.0.0.1:9100"
type FileConfig struct {
	RetryIntervalMs    int    `toml:"retry_interval_ms"`
	MaxRetryIntervalMs int    `toml:"max_retry_interval_ms"`
	TickIntervalMs     int    `toml:"tick_interval_ms"`
	CorrelationTTLMs   int    `toml:"correlation_ttl_ms"`
	LogLevel           string `toml:"log_level"`
	MetricsAddress     string `toml:"metrics_address"`
}

// ReadConfig reads the TOML file at path.
func ReadConfig(path string) (*FileConfig, error) {
	c := &FileConfig{}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply copies the values that were set over the configuration.
func (f *FileConfig) Apply(c *types.Configuration) {
	if f.RetryIntervalMs > 0 {
		c.RetryInterval = time.Duration(f.RetryIntervalMs) * time.Millisecond
	}
	if f.MaxRetryIntervalMs > 0 {
		c.MaxRetryInterval = time.Duration(f.MaxRetryIntervalMs) * time.Millisecond
	}
	if f.TickIntervalMs > 0 {
		c.TickInterval = time.Duration(f.TickIntervalMs) * time.Millisecond
	}
	if f.CorrelationTTLMs > 0 {
		c.CorrelationTTL = time.Duration(f.CorrelationTTLMs) * time.Millisecond
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.MetricsAddress != "" {
		c.MetricsAddress = f.MetricsAddress
	}
}

// Load creates the configuration for the process: the defaults,
// then the file named by GOSSIP_CONFIG, then the remaining
// environment overrides. The logger is created for the final level.
func Load() (*types.Configuration, error) {
	c := definition.DefaultConfiguration()

	if path := os.Getenv(EnvConfigPath); path != "" {
		f, err := ReadConfig(path)
		if err != nil {
			return nil, err
		}
		f.Apply(c)
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
	if addr := os.Getenv(EnvMetricsAddress); addr != "" {
		c.MetricsAddress = addr
	}

	if err := types.ValidateConfiguration(c); err != nil {
		return nil, err
	}
	c.Logger = definition.NewDefaultLogger(c.LogLevel)
	return c, nil
}
