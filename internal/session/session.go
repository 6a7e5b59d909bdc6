package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/inference"
	"github.com/ayusman/mudra/internal/landmark"
)

// Phase is the lifecycle phase of a session's state machine.
type Phase string

const (
	// PhaseCollecting means the window is not yet full.
	PhaseCollecting Phase = "collecting"
	// PhaseReady means the window is full and eligible for evaluation.
	PhaseReady Phase = "ready"
	// PhaseCooldown means a recent prediction was emitted or blocked and the
	// window was partially drained.
	PhaseCooldown Phase = "cooldown"
)

// Evaluator turns a full window of frames into a prediction.
// *inference.Engine implements it; tests substitute fakes.
type Evaluator interface {
	Evaluate(window [][]float64) (*inference.Result, error)
}

// BufferStatus reports window fill progress to the client.
type BufferStatus struct {
	FramesCollected int  `json:"frames_collected"`
	FramesRequired  int  `json:"frames_required"`
	Ready           bool `json:"ready"`
}

// Outcome is the result of handling one frame: always a buffer status, plus a
// prediction when one was emitted.
type Outcome struct {
	Status     BufferStatus
	Prediction *inference.Result
}

// Machine is the per-session state machine. It validates incoming frames,
// maintains the sliding window, triggers inference when the window fills, and
// enforces the confidence gate and cooldown debounce. Frame handling is
// serialized by an internal mutex so a session's events are processed in
// arrival order even when dispatched from multiple goroutines.
type Machine struct {
	id        string
	window    *Window
	cooldown  *Cooldown
	engine    Evaluator
	threshold float64
	phase     Phase
	log       *zap.Logger
	mu        sync.Mutex
}

// MachineConfig holds the shared collaborators and tunables for a Machine.
type MachineConfig struct {
	// Engine evaluates full windows. Shared and read-only across sessions.
	Engine Evaluator
	// ConfidenceThreshold gates prediction emission.
	ConfidenceThreshold float64
	// Cooldown is the minimum time between emitted predictions.
	Cooldown time.Duration
	// Log receives session events; nil disables logging.
	Log *zap.Logger
}

// NewMachine creates a Machine with an empty window and an unset cooldown.
func NewMachine(id string, config MachineConfig) *Machine {
	log := config.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Machine{
		id:        id,
		window:    NewWindow(),
		cooldown:  NewCooldown(config.Cooldown),
		engine:    config.Engine,
		threshold: config.ConfidenceThreshold,
		phase:     PhaseCollecting,
		log:       log.With(zap.String("session_id", id)),
	}
}

// ID returns the session identifier.
func (m *Machine) ID() string {
	return m.id
}

// Phase returns the current lifecycle phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// BufferLen returns the number of buffered frames.
func (m *Machine) BufferLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window.Len()
}

// HandleFrame runs the transition algorithm for one incoming frame.
//
// A frame of the wrong length returns landmark.ErrMalformedFrame and leaves
// all session state untouched. A frame with fewer than two hands clears the
// window: partial-hand frames break the temporal continuity the model was
// trained on, so stale frames must not survive into the next window.
//
// When an accepted frame fills the window: a still-active cooldown drains
// CooldownDrain oldest frames without evaluating; otherwise the window is
// evaluated, and a result at or above the confidence threshold is emitted,
// records the cooldown, and drains PredictionDrain oldest frames. A result
// below the threshold leaves the window intact so the next frame can retry
// on a near-identical window without having consumed the cooldown.
func (m *Machine) HandleFrame(values []float64) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frame := landmark.Frame(values)
	if err := frame.Validate(); err != nil {
		return Outcome{}, err
	}

	if !frame.Complete() {
		if m.window.Len() > 0 {
			m.log.Debug("buffer cleared: incomplete hand presence",
				zap.Int("hands", frame.Hands()))
			m.window.Clear()
		}
		m.phase = PhaseCollecting
		return Outcome{Status: m.status()}, nil
	}

	m.window.Push(frame)

	if !m.window.Full() {
		m.phase = PhaseCollecting
		return Outcome{Status: m.status()}, nil
	}

	m.phase = PhaseReady
	outcome := Outcome{Status: m.status()}

	if m.cooldown.Active() {
		m.log.Debug("prediction cooldown active",
			zap.Duration("remaining", m.cooldown.Remaining()))
		m.window.DrainFront(CooldownDrain)
		m.phase = PhaseCooldown
		return outcome, nil
	}

	result, err := m.engine.Evaluate(m.window.Frames())
	if err != nil {
		// Treated as a no-result window: no emission, no cooldown, buffer
		// intact so the next frame retries.
		m.log.Error("inference failed", zap.Error(err))
		return outcome, nil
	}

	if result.Confidence < m.threshold {
		m.log.Debug("prediction below threshold",
			zap.String("gesture", result.Gesture),
			zap.Float64("confidence", result.Confidence))
		return outcome, nil
	}

	m.cooldown.Record()
	m.window.DrainFront(PredictionDrain)
	m.phase = PhaseCooldown
	outcome.Prediction = result

	m.log.Info("prediction emitted",
		zap.String("gesture", result.Gesture),
		zap.Float64("confidence", result.Confidence),
		zap.Int("frames_remaining", m.window.Len()))

	return outcome, nil
}

// status reports the current fill progress. Caller must hold m.mu.
func (m *Machine) status() BufferStatus {
	return BufferStatus{
		FramesCollected: m.window.Len(),
		FramesRequired:  FramesRequired,
		Ready:           m.window.Full(),
	}
}
