// Package classifier implements the soil classification domain: image
// preprocessing, the scoring model lifecycle, and confidence-thresholded
// label selection.
package classifier

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/terrasense/regolith/pkg/lifecycle"
)

// Load status values published for health reporting.
const (
	LoadStatusNotLoaded  = "model_not_loaded"
	LoadStatusLoaded     = "loaded"
	LoadStatusNotFound   = "file_not_found"
	LoadStatusLoadFailed = "model_loading_failed"
)

// Classification status tags.
const (
	StatusConfident = "confident"
	StatusUncertain = "uncertain"
)

// LabelUncertain is reported whenever confidence falls below the threshold,
// regardless of the arg-max label.
const LabelUncertain = "Uncertain"

// Result is a confidence-scored classification of a single image.
type Result struct {
	SoilType      string             `json:"soil_type"`
	Confidence    float64            `json:"confidence"`
	Status        string             `json:"status"`
	Probabilities map[string]float64 `json:"probabilities"`
	Threshold     float64            `json:"threshold"`
}

// Info describes the loaded scoring model for the info endpoint.
type Info struct {
	ModelType     string   `json:"model_type"`
	InputSize     int      `json:"input_size"`
	Threshold     float64  `json:"confidence_threshold"`
	Classes       []string `json:"classes"`
	Preprocessing string   `json:"preprocessing"`
	ModelFile     string   `json:"model_file"`
	Status        string   `json:"status"`
}

// System defines the public contract for classification operations.
type System interface {
	// Start registers the model load as a startup hook. The model is loaded
	// exactly once per process; the published load status is queryable
	// through Status for health checks.
	Start(lc *lifecycle.Coordinator) error
	Handler() *Handler

	// Classify scores an image against the label set with the given
	// threshold. Scoring errors are not retried.
	Classify(image []byte, threshold float64) (*Result, error)
	DefaultThreshold() float64
	Info() (*Info, error)
	Status() string
}

type system struct {
	cfg    *Config
	logger *slog.Logger

	mu     sync.RWMutex
	scorer Scorer
	status string
}

// New creates a classification system. The scoring model is not loaded
// until Start runs its startup hook.
func New(cfg *Config, logger *slog.Logger) System {
	return &system{
		cfg:    cfg,
		logger: logger.With("system", "classifier"),
		status: LoadStatusNotLoaded,
	}
}

// NewWithScorer creates a classification system around an already-loaded
// scorer, bypassing the file load.
func NewWithScorer(scorer Scorer, threshold float64, logger *slog.Logger) System {
	return &system{
		cfg:    &Config{Threshold: threshold},
		logger: logger.With("system", "classifier"),
		scorer: scorer,
		status: LoadStatusLoaded,
	}
}

func (s *system) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting classifier", "path", s.cfg.Path)

	lc.OnStartup(func() {
		s.load()
	})

	return nil
}

func (s *system) load() {
	scorer, err := LoadScorer(s.cfg.Path)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case err == nil:
		s.scorer = scorer
		s.status = LoadStatusLoaded
		s.logger.Info(
			"scoring model loaded",
			"input_size", scorer.InputSize(),
			"classes", scorer.Labels(),
			"threshold", s.cfg.Threshold,
		)
	case os.IsNotExist(err):
		s.status = LoadStatusNotFound
		s.logger.Error("scoring model file not found", "path", s.cfg.Path)
	default:
		s.status = LoadStatusLoadFailed
		s.logger.Error("scoring model load failed", "error", err)
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *system) DefaultThreshold() float64 {
	return s.cfg.Threshold
}

func (s *system) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *system) current() Scorer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scorer
}

func (s *system) Classify(image []byte, threshold float64) (*Result, error) {
	if threshold < 0 || threshold > 1 {
		return nil, ErrThresholdOutOfRange
	}

	scorer := s.current()
	if scorer == nil {
		return nil, ErrModelUnavailable
	}

	tensor, err := preprocess(image, scorer.InputSize())
	if err != nil {
		return nil, err
	}

	probs, err := scorer.Score(tensor)
	if err != nil {
		return nil, fmt.Errorf("score image: %w", err)
	}

	labels := scorer.Labels()
	if len(probs) != len(labels) || !sumsToOne(probs) {
		return nil, fmt.Errorf("scorer returned invalid probability vector")
	}

	// Strict comparison keeps the lowest index on ties.
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	confidence := float64(probs[best])
	result := &Result{
		SoilType:      labels[best],
		Confidence:    confidence,
		Status:        StatusConfident,
		Probabilities: make(map[string]float64, len(labels)),
		Threshold:     threshold,
	}

	if confidence < threshold {
		result.SoilType = LabelUncertain
		result.Status = StatusUncertain
	}

	for i, label := range labels {
		result.Probabilities[label] = float64(probs[i])
	}

	s.logger.Info(
		"image classified",
		"soil_type", result.SoilType,
		"confidence", result.Confidence,
		"status", result.Status,
	)

	return result, nil
}

func (s *system) Info() (*Info, error) {
	scorer := s.current()
	if scorer == nil {
		return nil, ErrModelUnavailable
	}

	return &Info{
		ModelType:     "linear softmax classifier",
		InputSize:     scorer.InputSize(),
		Threshold:     s.cfg.Threshold,
		Classes:       scorer.Labels(),
		Preprocessing: "resize, RGB, scale to [-1, 1]",
		ModelFile:     s.cfg.Path,
		Status:        s.Status(),
	}, nil
}
