package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/terrasense/regolith/internal/analyses"
	"github.com/terrasense/regolith/internal/auth"
	"github.com/terrasense/regolith/internal/device"
	"github.com/terrasense/regolith/pkg/lifecycle"
	"github.com/terrasense/regolith/pkg/pagination"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubDevice struct {
	sendFn  func(ctx context.Context, cmd device.Command) (*device.Response, error)
	probeFn func(ctx context.Context) error
}

func (s *stubDevice) Send(ctx context.Context, cmd device.Command) (*device.Response, error) {
	return s.sendFn(ctx, cmd)
}

func (s *stubDevice) Probe(ctx context.Context) error {
	if s.probeFn == nil {
		return nil
	}
	return s.probeFn(ctx)
}

type stubAuth struct {
	authFn func(ctx context.Context, header string) (*auth.Principal, error)
	called bool
}

func (s *stubAuth) Start(lc *lifecycle.Coordinator) error { return nil }

func (s *stubAuth) Authenticate(ctx context.Context, header string) (*auth.Principal, error) {
	s.called = true
	return s.authFn(ctx, header)
}

type stubAnalyses struct {
	ingestFn func(ctx context.Context, cmd analyses.IngestCommand) (*analyses.Analysis, error)
	called   bool
	gotCmd   analyses.IngestCommand
}

func (s *stubAnalyses) Handler() *analyses.Handler { return nil }

func (s *stubAnalyses) Ingest(ctx context.Context, cmd analyses.IngestCommand) (*analyses.Analysis, error) {
	s.called = true
	s.gotCmd = cmd
	return s.ingestFn(ctx, cmd)
}

func (s *stubAnalyses) List(context.Context, pagination.PageRequest, analyses.Filters) (*pagination.PageResult[analyses.Analysis], error) {
	return nil, nil
}

func (s *stubAnalyses) Find(context.Context, uuid.UUID) (*analyses.Analysis, error) {
	return nil, nil
}

func commandMux(dev device.Client, authSys auth.System, analysesSys analyses.System) *http.ServeMux {
	h := &commandHandler{
		device:   dev,
		auth:     authSys,
		analyses: analysesSys,
		logger:   discardLogger(),
	}

	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func acceptAll() *stubAuth {
	return &stubAuth{
		authFn: func(_ context.Context, header string) (*auth.Principal, error) {
			if !strings.HasPrefix(header, "Bearer ") {
				return nil, auth.ErrUnauthenticated
			}
			return &auth.Principal{ID: "engineer-7"}, nil
		},
	}
}

func resultsResponse() *device.Response {
	return &device.Response{
		Status:  device.StatusResults,
		Message: "Analysis complete",
		Results: &device.Measurements{
			TotalWeight:   100,
			GravelWeight:  40,
			SandWeight:    35,
			GravelPercent: 40,
			SandPercent:   35,
			FinesPercent:  25,
			SoilType:      "Clay Sand",
		},
	}
}

func savedAnalysis(imageURL string) *analyses.Analysis {
	return &analyses.Analysis{
		ID:         uuid.New(),
		EngineerID: "engineer-7",
		SoilType:   "Clay Sand",
		ImageURL:   imageURL,
		Status:     analyses.StatusPending,
	}
}

func runBody(t *testing.T, fields map[string]any) *strings.Reader {
	t.Helper()
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return strings.NewReader(string(data))
}

func TestSimpleCommand(t *testing.T) {
	value := 12.5
	dev := &stubDevice{
		sendFn: func(_ context.Context, cmd device.Command) (*device.Response, error) {
			if cmd != device.RequestWeight {
				t.Errorf("cmd = %q, want W", cmd)
			}
			return &device.Response{Status: device.StatusReading, Value: &value}, nil
		},
	}

	mux := commandMux(dev, acceptAll(), &stubAnalyses{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/command?input=W", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "reading" {
		t.Errorf("status = %v, want reading", resp["status"])
	}
	if resp["weight"] != 12.5 {
		t.Errorf("weight = %v, want 12.5", resp["weight"])
	}
	if _, ok := resp["save_status"]; ok {
		t.Error("simple command response carries save_status")
	}
}

func TestSimpleCommandValidation(t *testing.T) {
	dev := &stubDevice{
		sendFn: func(context.Context, device.Command) (*device.Response, error) {
			t.Error("relay reached for invalid input")
			return nil, nil
		},
	}
	mux := commandMux(dev, acceptAll(), &stubAnalyses{})

	for _, input := range []string{"", "X", "3"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/command?input="+input, nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("input %q: status = %d, want 400", input, rec.Code)
		}
	}
}

func TestSimpleCommandRelayErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"timeout", device.ErrTimeout, http.StatusGatewayTimeout},
		{"unreachable", device.ErrUnreachable, http.StatusServiceUnavailable},
		{"protocol mismatch", device.ErrProtocolMismatch, http.StatusBadGateway},
		{"malformed payload", device.ErrMalformedPayload, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dev := &stubDevice{
				sendFn: func(context.Context, device.Command) (*device.Response, error) {
					return nil, tc.err
				},
			}
			mux := commandMux(dev, acceptAll(), &stubAnalyses{})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/command?input=W", nil)
			mux.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestRunRejectsSimpleCommands(t *testing.T) {
	dev := &stubDevice{
		sendFn: func(context.Context, device.Command) (*device.Response, error) {
			t.Error("relay reached for simple command on run endpoint")
			return nil, nil
		},
	}
	mux := commandMux(dev, acceptAll(), &stubAnalyses{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/command", runBody(t, map[string]any{"input": "W"}))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRunUnauthorizedBeforeIngest(t *testing.T) {
	dev := &stubDevice{
		sendFn: func(context.Context, device.Command) (*device.Response, error) {
			return resultsResponse(), nil
		},
	}
	authSys := &stubAuth{
		authFn: func(context.Context, string) (*auth.Principal, error) {
			return nil, auth.ErrUnauthenticated
		},
	}
	analysesSys := &stubAnalyses{
		ingestFn: func(context.Context, analyses.IngestCommand) (*analyses.Analysis, error) {
			return savedAnalysis(analyses.NotProvided), nil
		},
	}

	mux := commandMux(dev, authSys, analysesSys)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/command", runBody(t, map[string]any{"input": "3"}))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if analysesSys.called {
		t.Error("ingest ran for unauthenticated caller")
	}
}

func TestRunIngestsResults(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	imageURL := "https://blobs.example.com/soil-images/engineer-7/20260314_150926_deadbeef.jpg"

	dev := &stubDevice{
		sendFn: func(context.Context, device.Command) (*device.Response, error) {
			return resultsResponse(), nil
		},
	}
	analysesSys := &stubAnalyses{
		ingestFn: func(context.Context, analyses.IngestCommand) (*analyses.Analysis, error) {
			return savedAnalysis(imageURL), nil
		},
	}

	mux := commandMux(dev, acceptAll(), analysesSys)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/command", runBody(t, map[string]any{
		"input":           "3",
		"image_data":      base64.StdEncoding.EncodeToString(image),
		"image_soil_type": "Clay Sand",
		"location":        "Site A",
	}))
	req.Header.Set("Authorization", "Bearer token")
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if !analysesSys.called {
		t.Fatal("ingest never ran")
	}
	cmd := analysesSys.gotCmd
	if cmd.Owner != "engineer-7" {
		t.Errorf("owner = %q, want engineer-7", cmd.Owner)
	}
	if string(cmd.Image) != string(image) {
		t.Error("image bytes not decoded into ingest command")
	}
	if cmd.Location == nil || *cmd.Location != "Site A" {
		t.Errorf("location = %v, want Site A", cmd.Location)
	}
	if cmd.PredictedSoilType == nil || *cmd.PredictedSoilType != "Clay Sand" {
		t.Errorf("predicted soil type = %v", cmd.PredictedSoilType)
	}
	if cmd.Results.TotalWeight != 100 {
		t.Errorf("total weight = %v, want 100", cmd.Results.TotalWeight)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "results" {
		t.Errorf("status = %v, want results", resp["status"])
	}
	if resp["total_weight"] != 100.0 {
		t.Errorf("total_weight = %v, want 100", resp["total_weight"])
	}
	if resp["fines_percent"] != 25.0 {
		t.Errorf("fines_percent = %v, want 25", resp["fines_percent"])
	}
	if resp["soil_type"] != "Clay Sand" {
		t.Errorf("soil_type = %v, want Clay Sand", resp["soil_type"])
	}
	if resp["save_status"] != saveConfirmation {
		t.Errorf("save_status = %v, want %q", resp["save_status"], saveConfirmation)
	}
	if resp["image_url"] != imageURL {
		t.Errorf("image_url = %v, want %q", resp["image_url"], imageURL)
	}
}

func TestRunWithoutImage(t *testing.T) {
	dev := &stubDevice{
		sendFn: func(context.Context, device.Command) (*device.Response, error) {
			return resultsResponse(), nil
		},
	}
	analysesSys := &stubAnalyses{
		ingestFn: func(context.Context, analyses.IngestCommand) (*analyses.Analysis, error) {
			return savedAnalysis(analyses.NotProvided), nil
		},
	}

	mux := commandMux(dev, acceptAll(), analysesSys)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/command", runBody(t, map[string]any{"input": "3"}))
	req.Header.Set("Authorization", "Bearer token")
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if analysesSys.gotCmd.Image != nil {
		t.Error("ingest command carries image bytes without image_data")
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["save_status"] != saveConfirmation {
		t.Errorf("save_status = %v, want confirmation", resp["save_status"])
	}
	if _, ok := resp["image_url"]; ok {
		t.Error("image_url present when no evidence was captured")
	}
}

func TestRunIngestFailure(t *testing.T) {
	dev := &stubDevice{
		sendFn: func(context.Context, device.Command) (*device.Response, error) {
			return resultsResponse(), nil
		},
	}
	analysesSys := &stubAnalyses{
		ingestFn: func(context.Context, analyses.IngestCommand) (*analyses.Analysis, error) {
			return nil, analyses.ErrPersistence
		},
	}

	mux := commandMux(dev, acceptAll(), analysesSys)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/command", runBody(t, map[string]any{"input": "3"}))
	req.Header.Set("Authorization", "Bearer token")
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRunDeviceError(t *testing.T) {
	dev := &stubDevice{
		sendFn: func(context.Context, device.Command) (*device.Response, error) {
			return &device.Response{Status: device.StatusError, Message: "scale fault"}, nil
		},
	}
	analysesSys := &stubAnalyses{
		ingestFn: func(context.Context, analyses.IngestCommand) (*analyses.Analysis, error) {
			return savedAnalysis(analyses.NotProvided), nil
		},
	}

	mux := commandMux(dev, acceptAll(), analysesSys)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/command", runBody(t, map[string]any{"input": "3"}))
	req.Header.Set("Authorization", "Bearer token")
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "scale fault") {
		t.Errorf("body = %s, want device message", rec.Body.String())
	}
	if analysesSys.called {
		t.Error("ingest ran for failed run")
	}
}

func TestRunDeviceBusy(t *testing.T) {
	dev := &stubDevice{
		sendFn: func(context.Context, device.Command) (*device.Response, error) {
			return nil, device.ErrDeviceBusy
		},
	}

	mux := commandMux(dev, acceptAll(), &stubAnalyses{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/command", runBody(t, map[string]any{"input": "3"}))
	req.Header.Set("Authorization", "Bearer token")
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestRunNonPersistingOutcome(t *testing.T) {
	// A full run answered with a non-results status passes through
	// without touching the ingestion stages.
	dev := &stubDevice{
		sendFn: func(context.Context, device.Command) (*device.Response, error) {
			return &device.Response{Status: device.StatusReset, Message: "System reset"}, nil
		},
	}
	analysesSys := &stubAnalyses{}
	authSys := acceptAll()

	mux := commandMux(dev, authSys, analysesSys)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/command", runBody(t, map[string]any{"input": "3"}))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if authSys.called {
		t.Error("authorization gate ran without results")
	}
	if analysesSys.called {
		t.Error("ingest ran without results")
	}
}

func TestRunInvalidImagePayload(t *testing.T) {
	dev := &stubDevice{
		sendFn: func(context.Context, device.Command) (*device.Response, error) {
			return resultsResponse(), nil
		},
	}
	analysesSys := &stubAnalyses{
		ingestFn: func(context.Context, analyses.IngestCommand) (*analyses.Analysis, error) {
			return savedAnalysis(analyses.NotProvided), nil
		},
	}

	mux := commandMux(dev, acceptAll(), analysesSys)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/command", runBody(t, map[string]any{
		"input":      "3",
		"image_data": "!!!not base64!!!",
	}))
	req.Header.Set("Authorization", "Bearer token")
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if analysesSys.called {
		t.Error("ingest ran with undecodable image payload")
	}
}
