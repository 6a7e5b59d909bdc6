// Package session owns per-connection state for streaming gesture inference:
// the sliding frame window, the prediction cooldown, the state machine that
// decides when to run the classifier, and the registry of live sessions.
package session

import "github.com/ayusman/mudra/internal/landmark"

// Inference trigger constants. FramesRequired matches the sequence length the
// model was trained on; the drain counts are deliberately asymmetric so a
// cooldown-blocked window slides only slightly while an accepted prediction
// advances past most of the recognized gesture.
const (
	// FramesRequired is the number of frames in a full inference window.
	FramesRequired = 40
	// CooldownDrain is the number of oldest frames removed when a full window
	// is blocked by the cooldown.
	CooldownDrain = 10
	// PredictionDrain is the number of oldest frames removed after an emitted
	// prediction.
	PredictionDrain = 20
)

// Window is a fixed-capacity FIFO of validated frames, oldest first.
// It is not safe for concurrent use; the owning Machine serializes access.
type Window struct {
	frames []landmark.Frame
}

// NewWindow creates an empty Window with capacity FramesRequired.
func NewWindow() *Window {
	return &Window{
		frames: make([]landmark.Frame, 0, FramesRequired),
	}
}

// Push appends a frame. If the window is already full the oldest frame is
// evicted first, so the size never exceeds FramesRequired.
func (w *Window) Push(frame landmark.Frame) {
	if len(w.frames) >= FramesRequired {
		copy(w.frames, w.frames[1:])
		w.frames = w.frames[:FramesRequired-1]
	}
	w.frames = append(w.frames, frame)
}

// Len returns the number of buffered frames.
func (w *Window) Len() int {
	return len(w.frames)
}

// Full reports whether the window holds exactly FramesRequired frames.
func (w *Window) Full() bool {
	return len(w.frames) == FramesRequired
}

// DrainFront removes up to n oldest frames. Draining more frames than present
// empties the window and is otherwise a no-op.
func (w *Window) DrainFront(n int) {
	if n <= 0 {
		return
	}
	if n >= len(w.frames) {
		w.frames = w.frames[:0]
		return
	}
	copy(w.frames, w.frames[n:])
	w.frames = w.frames[:len(w.frames)-n]
}

// Clear empties the window.
func (w *Window) Clear() {
	w.frames = w.frames[:0]
}

// Frames returns a snapshot of the buffered frames, oldest first, in the
// shape the inference engine consumes.
func (w *Window) Frames() [][]float64 {
	snapshot := make([][]float64, len(w.frames))
	for i, frame := range w.frames {
		snapshot[i] = frame
	}
	return snapshot
}
