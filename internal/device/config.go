package device

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds controller connection parameters.
type Config struct {
	// Endpoint is the base address of the hardware controller, e.g. http://192.168.1.210.
	Endpoint string `toml:"endpoint"`
	// Timeout bounds a single command exchange.
	Timeout string `toml:"timeout"`
	// ProbeTimeout bounds the health-check reachability probe.
	ProbeTimeout string `toml:"probe_timeout"`
	// Serialize guards full analysis runs with a single-flight lock.
	// Disabling restores the unserialized behavior, where racing runs can
	// corrupt the weighing sequence.
	Serialize *bool `toml:"serialize"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Endpoint     string
	Timeout      string
	ProbeTimeout string
	Serialize    string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// ProbeTimeoutDuration returns ProbeTimeout as a time.Duration.
func (c *Config) ProbeTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ProbeTimeout)
	return d
}

// Serialized returns the Serialize flag, defaulting to true.
func (c *Config) Serialized() bool {
	return c.Serialize == nil || *c.Serialize
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.ProbeTimeout != "" {
		c.ProbeTimeout = overlay.ProbeTimeout
	}
	if overlay.Serialize != nil {
		c.Serialize = overlay.Serialize
	}
}

func (c *Config) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "15s"
	}
	if c.ProbeTimeout == "" {
		c.ProbeTimeout = "5s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Endpoint != "" {
		if v := os.Getenv(env.Endpoint); v != "" {
			c.Endpoint = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.ProbeTimeout != "" {
		if v := os.Getenv(env.ProbeTimeout); v != "" {
			c.ProbeTimeout = v
		}
	}
	if env.Serialize != "" {
		if v := os.Getenv(env.Serialize); v != "" {
			if serialize, err := strconv.ParseBool(v); err == nil {
				c.Serialize = &serialize
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint required")
	}
	if _, err := url.Parse(c.Endpoint); err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.ProbeTimeout); err != nil {
		return fmt.Errorf("invalid probe_timeout: %w", err)
	}
	return nil
}
