package api

import (
	"github.com/terrasense/regolith/internal/config"
	"github.com/terrasense/regolith/internal/infrastructure"
	"github.com/terrasense/regolith/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle:  infra.Lifecycle,
			Logger:     infra.Logger.With("module", "api"),
			Database:   infra.Database,
			Storage:    infra.Storage,
			Device:     infra.Device,
			Classifier: infra.Classifier,
			Auth:       infra.Auth,
		},
		Pagination: cfg.API.Pagination,
	}
}
