package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// Client exchanges commands with the hardware controller.
type Client interface {
	// Send issues a single command and returns the decoded controller
	// response. The exchange is bounded by the configured timeout; the
	// deadline is the relay's own, so an abandoned caller does not cancel
	// an in-flight device exchange.
	Send(ctx context.Context, cmd Command) (*Response, error)
	// Probe checks controller reachability for health reporting.
	Probe(ctx context.Context) error
}

type relay struct {
	endpoint     string
	timeout      time.Duration
	probeTimeout time.Duration
	http         *http.Client
	runs         *semaphore.Weighted
	logger       *slog.Logger
}

// NewClient creates a relay Client from the given configuration.
// When cfg.Serialize is set, concurrent full analysis runs are rejected
// with ErrDeviceBusy instead of racing for the single physical device.
func NewClient(cfg *Config, logger *slog.Logger) Client {
	r := &relay{
		endpoint:     strings.TrimSuffix(cfg.Endpoint, "/"),
		timeout:      cfg.TimeoutDuration(),
		probeTimeout: cfg.ProbeTimeoutDuration(),
		http:         &http.Client{},
		logger:       logger.With("system", "device"),
	}

	if cfg.Serialized() {
		r.runs = semaphore.NewWeighted(1)
	}

	return r
}

func (r *relay) Send(_ context.Context, cmd Command) (*Response, error) {
	if cmd == RunFullAnalysis && r.runs != nil {
		if !r.runs.TryAcquire(1) {
			return nil, ErrDeviceBusy
		}
		defer r.runs.Release(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	target := fmt.Sprintf("%s/command?input=%s", r.endpoint, url.QueryEscape(string(cmd)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &RelayError{Err: err}
	}

	r.logger.Info("sending command", "command", string(cmd))

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !isJSON(contentType) {
		// The body is never parsed or logged: it may be HTML or binary.
		r.logger.Error(
			"controller returned non-JSON response",
			"content_type", contentType,
			"status", resp.StatusCode,
		)
		return nil, ErrProtocolMismatch
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RelayError{Err: fmt.Errorf("controller status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	decoded, err := decodeResponse(body)
	if err != nil {
		return nil, err
	}

	r.logger.Info("received response", "command", string(cmd), "status", string(decoded.Status))
	return decoded, nil
}

func (r *relay) Probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return &RelayError{Err: err}
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RelayError{Err: fmt.Errorf("controller status %d", resp.StatusCode)}
	}
	return nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrUnreachable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrUnreachable
	}

	return &RelayError{Err: err}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}
