package api

import (
	"log/slog"
	"net/http"

	"github.com/terrasense/regolith/internal/classifier"
	"github.com/terrasense/regolith/internal/device"
	"github.com/terrasense/regolith/pkg/database"
	"github.com/terrasense/regolith/pkg/handlers"
	"github.com/terrasense/regolith/pkg/routes"
)

// healthHandler reports subsystem health without mutating any state.
type healthHandler struct {
	device     device.Client
	classifier classifier.System
	database   database.System
	logger     *slog.Logger
}

func newHealthHandler(runtime *Runtime) *healthHandler {
	return &healthHandler{
		device:     runtime.Device,
		classifier: runtime.Classifier,
		database:   runtime.Database,
		logger:     runtime.Logger.With("handler", "health"),
	}
}

func (h *healthHandler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/health",
		Routes: []routes.Route{
			{Method: http.MethodGet, Pattern: "", Handler: h.Health},
		},
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Model    string `json:"model"`
	Device   string `json:"device"`
	Database string `json:"database"`
}

// Health reports the model load status, controller reachability, and store
// connectivity. Probes are bounded; the endpoint always answers 200.
func (h *healthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Model:    h.classifier.Status(),
		Device:   "reachable",
		Database: "up",
	}

	if err := h.device.Probe(r.Context()); err != nil {
		resp.Device = "unreachable"
		resp.Status = "degraded"
	}

	if err := h.database.Ping(r.Context()); err != nil {
		resp.Database = "down"
		resp.Status = "degraded"
	}

	if resp.Model != classifier.LoadStatusLoaded {
		resp.Status = "degraded"
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}
