// Package inference wraps the trained sequence classifier behind a narrow,
// swappable interface and turns windows of landmark frames into labeled,
// confidence-scored predictions.
package inference

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrModelUnavailable is returned when the engine is asked to serve predictions
// without a loaded classifier or gesture catalog.
var ErrModelUnavailable = errors.New("model unavailable")

// Result is a single prediction: the arg-max class with its probability.
type Result struct {
	Gesture    string  `json:"gesture"`
	GestureID  int     `json:"gesture_id"`
	Confidence float64 `json:"confidence"`
}

// Classifier defines the interface for sequence classifier implementations.
type Classifier interface {
	// Probabilities runs the classifier on a window of frames (oldest first)
	// and returns per-class probabilities.
	Probabilities(window [][]float64) ([]float64, error)

	// Device returns the compute device the classifier runs on (e.g. "cpu", "cuda").
	Device() string

	// Close releases any resources held by the classifier.
	Close() error
}

// Engine evaluates windows of frames using a shared classifier, gesture
// catalog, and optional normalization statistics. It is safe for concurrent
// use: classifier calls are serialized, since the underlying model runtime is
// not assumed safe for concurrent invocation.
type Engine struct {
	classifier Classifier
	catalog    *Catalog
	stats      *Stats
	log        *zap.Logger
	mu         sync.Mutex
}

// NewEngine creates an Engine from a classifier, catalog, and optional stats.
// Returns ErrModelUnavailable if the classifier or catalog is missing, so a
// half-loaded model can never serve predictions.
func NewEngine(classifier Classifier, catalog *Catalog, stats *Stats, log *zap.Logger) (*Engine, error) {
	if classifier == nil {
		return nil, fmt.Errorf("%w: no classifier", ErrModelUnavailable)
	}
	if catalog == nil || catalog.Len() == 0 {
		return nil, fmt.Errorf("%w: no gesture catalog", ErrModelUnavailable)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{
		classifier: classifier,
		catalog:    catalog,
		stats:      stats,
		log:        log,
	}, nil
}

// Evaluate normalizes the window, runs the classifier, and returns the arg-max
// class with its probability as confidence.
func (e *Engine) Evaluate(window [][]float64) (*Result, error) {
	input := window
	if e.stats != nil {
		input = e.stats.Normalize(window)
	}

	e.mu.Lock()
	probs, err := e.classifier.Probabilities(input)
	e.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("classify window: %w", err)
	}
	if len(probs) == 0 {
		return nil, fmt.Errorf("classify window: empty probability vector")
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	result := &Result{
		Gesture:    e.catalog.Label(best),
		GestureID:  best,
		Confidence: probs[best],
	}

	e.log.Debug("window evaluated",
		zap.String("gesture", result.Gesture),
		zap.Float64("confidence", result.Confidence))

	return result, nil
}

// Device returns the classifier's compute device.
func (e *Engine) Device() string {
	return e.classifier.Device()
}

// Catalog returns the engine's gesture catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Close releases the classifier.
func (e *Engine) Close() error {
	return e.classifier.Close()
}
