package relay

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultListen       = ":8080"
	defaultMaxFrame     = 1 << 20
	defaultWriteTimeout = 10 * time.Second
	defaultLogLevel     = "info"
)

// Config holds the relay server configuration.
type Config struct {
	// Listen is the TCP address the relay binds to.
	Listen string

	// MaxFrameBytes bounds the size of a single inbound frame.
	MaxFrameBytes uint32

	// WriteTimeout bounds each write to a client connection. A slow or
	// stalled client is disconnected rather than blocking broadcasts.
	WriteTimeout duration

	// LogLevel is a zerolog level name (trace, debug, info, warn, error).
	LogLevel string
}

// duration wraps time.Duration so TOML accepts "10s" style values.
type duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d duration) Std() time.Duration { return time.Duration(d) }

// FixupAndValidate applies defaults and sanity-checks the configuration.
func (c *Config) FixupAndValidate() error {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.MaxFrameBytes == 0 {
		c.MaxFrameBytes = defaultMaxFrame
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = duration(defaultWriteTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("config: WriteTimeout must be positive")
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	return nil
}

// LoadConfig parses a TOML config file and applies defaults. An empty path
// yields the default configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := new(Config)
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := toml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
