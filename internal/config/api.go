package config

import (
	"fmt"
	"os"

	"github.com/terrasense/regolith/pkg/formatting"
	"github.com/terrasense/regolith/pkg/middleware"
	"github.com/terrasense/regolith/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "REGOLITH_CORS_ENABLED",
	Origins:          "REGOLITH_CORS_ORIGINS",
	AllowedMethods:   "REGOLITH_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "REGOLITH_CORS_ALLOWED_HEADERS",
	AllowCredentials: "REGOLITH_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "REGOLITH_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "REGOLITH_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "REGOLITH_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, pagination, and body size settings.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize string                `toml:"max_body_size"`
	CORS        middleware.CORSConfig `toml:"cors"`
	Pagination  pagination.Config     `toml:"pagination"`
}

// MaxBodySizeBytes returns the request body cap as a byte count.
// Covers base64 image payloads on command and classification endpoints.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil {
		return 25 * 1024 * 1024 // 25MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "25MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("REGOLITH_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("REGOLITH_API_MAX_BODY_SIZE"); v != "" {
		c.MaxBodySize = v
	}
}
