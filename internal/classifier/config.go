package classifier

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds scoring model parameters.
type Config struct {
	// Path locates the exported weights file loaded at startup.
	Path string `toml:"path"`
	// Threshold is the minimum arg-max probability required to accept a
	// label instead of reporting Uncertain.
	Threshold float64 `toml:"threshold"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Path      string
	Threshold string
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
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.Threshold != 0 {
		c.Threshold = overlay.Threshold
	}
}

func (c *Config) loadDefaults() {
	if c.Path == "" {
		c.Path = "models/soil_classifier.rgsm"
	}
	if c.Threshold == 0 {
		c.Threshold = 0.8
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Path != "" {
		if v := os.Getenv(env.Path); v != "" {
			c.Path = v
		}
	}
	if env.Threshold != "" {
		if v := os.Getenv(env.Threshold); v != "" {
			if threshold, err := strconv.ParseFloat(v, 64); err == nil {
				c.Threshold = threshold
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0")
	}
	return nil
}
