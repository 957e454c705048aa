// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, device relay,
// classification, auth) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/terrasense/regolith/internal/auth"
	"github.com/terrasense/regolith/internal/classifier"
	"github.com/terrasense/regolith/internal/config"
	"github.com/terrasense/regolith/internal/device"
	"github.com/terrasense/regolith/pkg/database"
	"github.com/terrasense/regolith/pkg/lifecycle"
	"github.com/terrasense/regolith/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, database access, blob storage, the hardware relay, the
// classification engine, and token verification.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	Database   database.System
	Storage    storage.System
	Device     device.Client
	Classifier classifier.System
	Auth       auth.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle:  lc,
		Logger:     logger,
		Database:   db,
		Storage:    store,
		Device:     device.NewClient(&cfg.Device, logger),
		Classifier: classifier.New(&cfg.Model, logger),
		Auth:       auth.New(&cfg.Auth, logger),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// Database, storage, classifier, and auth hooks are registered for startup
// and shutdown coordination.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Classifier.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("classifier start failed: %w", err)
	}
	if err := i.Auth.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("auth start failed: %w", err)
	}
	return nil
}
