package classifier

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/terrasense/regolith/pkg/handlers"
	"github.com/terrasense/regolith/pkg/routes"
)

// Handler exposes classification operations over HTTP.
type Handler struct {
	system System
	logger *slog.Logger
}

func NewHandler(system System, logger *slog.Logger) *Handler {
	return &Handler{
		system: system,
		logger: logger,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/classify",
		Routes: []routes.Route{
			{Method: http.MethodPost, Pattern: "", Handler: h.Classify},
			{Method: http.MethodPost, Pattern: "/threshold", Handler: h.ClassifyThreshold},
			{Method: http.MethodGet, Pattern: "/info", Handler: h.Info},
		},
	}
}

type classifyRequest struct {
	Image     string   `json:"image"`
	Threshold *float64 `json:"threshold"`
}

// Classify scores a base64-encoded image with the configured default
// threshold.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	req, err := h.parse(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	h.classify(w, req, h.system.DefaultThreshold())
}

// ClassifyThreshold scores a base64-encoded image with a caller-supplied
// threshold.
func (h *Handler) ClassifyThreshold(w http.ResponseWriter, r *http.Request) {
	req, err := h.parse(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	threshold := h.system.DefaultThreshold()
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	h.classify(w, req, threshold)
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.system.Info()
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, info)
}

func (h *Handler) parse(r *http.Request) (*classifyRequest, error) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	if req.Image == "" {
		return nil, fmt.Errorf("image is required")
	}

	return &req, nil
}

func (h *Handler) classify(w http.ResponseWriter, req *classifyRequest, threshold float64) {
	image, err := DecodeImage(req.Image)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.system.Classify(image, threshold)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// DecodeImage decodes a base64 image payload, tolerating an optional
// data-URI prefix such as "data:image/jpeg;base64,".
func DecodeImage(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	return data, nil
}
