package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/terrasense/regolith/internal/analyses"
	"github.com/terrasense/regolith/internal/auth"
	"github.com/terrasense/regolith/internal/classifier"
	"github.com/terrasense/regolith/internal/device"
	"github.com/terrasense/regolith/pkg/handlers"
	"github.com/terrasense/regolith/pkg/routes"
)

// saveConfirmation is returned verbatim to the caller once a completed run
// has been committed.
const saveConfirmation = "Results saved to database!"

// commandHandler relays commands to the hardware controller and, for
// completed analysis runs, drives the authorization, evidence, and
// persistence stages.
type commandHandler struct {
	device   device.Client
	auth     auth.System
	analyses analyses.System
	logger   *slog.Logger
}

func newCommandHandler(runtime *Runtime, domain *Domain) *commandHandler {
	return &commandHandler{
		device:   runtime.Device,
		auth:     runtime.Auth,
		analyses: domain.Analyses,
		logger:   runtime.Logger.With("handler", "commands"),
	}
}

func (h *commandHandler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/command",
		Routes: []routes.Route{
			{Method: http.MethodGet, Pattern: "", Handler: h.Simple},
			{Method: http.MethodPost, Pattern: "", Handler: h.Run},
		},
	}
}

// runRequest is the body of a full analysis run. Field names follow the
// controller frontend's wire format.
type runRequest struct {
	Input         string  `json:"input"`
	ImageData     string  `json:"image_data"`
	ImageSoilType *string `json:"image_soil_type"`
	Location      *string `json:"location"`
}

// commandResponse is the wire form of an interpreted controller outcome.
// Message is always present, even when empty.
type commandResponse struct {
	Status        string   `json:"status"`
	Message       string   `json:"message"`
	Weight        *float64 `json:"weight,omitempty"`
	TotalWeight   *float64 `json:"total_weight,omitempty"`
	GravelWeight  *float64 `json:"gravel_weight,omitempty"`
	SandWeight    *float64 `json:"sand_weight,omitempty"`
	GravelPercent *float64 `json:"gravel_percent,omitempty"`
	SandPercent   *float64 `json:"sand_percent,omitempty"`
	FinesPercent  *float64 `json:"fines_percent,omitempty"`
	SoilType      string   `json:"soil_type,omitempty"`
	SaveStatus    string   `json:"save_status,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
}

// Simple relays a non-persisting command (start separation, read weight,
// reset) passed as the input query parameter.
func (h *commandHandler) Simple(w http.ResponseWriter, r *http.Request) {
	cmd, err := device.ParseCommand(r.URL.Query().Get("input"))
	if err != nil {
		handlers.RespondError(w, h.logger, device.MapHTTPStatus(err), err)
		return
	}

	if !cmd.Simple() {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, device.ErrInvalidCommand)
		return
	}

	out, err := h.relay(r, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, device.MapHTTPStatus(err), err)
		return
	}

	if out.Failed {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, errors.New(out.Message))
		return
	}

	handlers.RespondJSON(w, http.StatusOK, &commandResponse{
		Status:  string(out.Status),
		Message: out.Message,
		Weight:  out.Weight,
	})
}

// Run relays a full analysis command and commits the results when the
// controller completes the run.
func (h *commandHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	cmd, err := device.ParseCommand(req.Input)
	if err != nil {
		handlers.RespondError(w, h.logger, device.MapHTTPStatus(err), err)
		return
	}

	if cmd.Simple() {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, device.ErrInvalidCommand)
		return
	}

	out, err := h.relay(r, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, device.MapHTTPStatus(err), err)
		return
	}

	if out.Failed {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, errors.New(out.Message))
		return
	}

	resp := &commandResponse{
		Status:  string(out.Status),
		Message: out.Message,
		Weight:  out.Weight,
	}

	// Only a completed run reaches the authorization, evidence, and
	// persistence stages.
	if out.Results != nil {
		analysis, err := h.ingest(r, &req, out.Results)
		if err != nil {
			handlers.RespondError(w, h.logger, ingestStatus(err), err)
			return
		}

		results := out.Results
		resp.TotalWeight = &results.TotalWeight
		resp.GravelWeight = &results.GravelWeight
		resp.SandWeight = &results.SandWeight
		resp.GravelPercent = &results.GravelPercent
		resp.SandPercent = &results.SandPercent
		resp.FinesPercent = &results.FinesPercent
		resp.SoilType = results.SoilType
		resp.SaveStatus = saveConfirmation

		if analysis.ImageURL != analyses.NotProvided {
			resp.ImageURL = analysis.ImageURL
		}
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}

func (h *commandHandler) relay(r *http.Request, cmd device.Command) (*device.Outcome, error) {
	resp, err := h.device.Send(r.Context(), cmd)
	if err != nil {
		return nil, err
	}

	out := device.Interpret(resp)
	return &out, nil
}

// ingest runs the post-completion stages in order: authorization gate,
// optional evidence decode, capture and insert. The gate runs before any
// upload or write.
func (h *commandHandler) ingest(
	r *http.Request,
	req *runRequest,
	results *device.Measurements,
) (*analyses.Analysis, error) {
	principal, err := h.auth.Authenticate(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}

	var image []byte
	if req.ImageData != "" {
		image, err = classifier.DecodeImage(req.ImageData)
		if err != nil {
			return nil, err
		}
	}

	return h.analyses.Ingest(r.Context(), analyses.IngestCommand{
		Owner:             principal.ID,
		Location:          req.Location,
		Results:           *results,
		PredictedSoilType: req.ImageSoilType,
		Image:             image,
	})
}

func ingestStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrVerifierUnavailable):
		return auth.MapHTTPStatus(err)
	case errors.Is(err, classifier.ErrInvalidImage):
		return classifier.MapHTTPStatus(err)
	default:
		return analyses.MapHTTPStatus(err)
	}
}
