// Package landmark provides the hand-landmark frame type and validation for gesture recognition.
package landmark

import (
	"errors"
	"fmt"
)

// Frame layout constants following the MediaPipe two-hand convention:
// 21 landmarks per hand, 3 coordinates per landmark, first hand then second.
const (
	// HandFeatureSize is the number of values for a single hand (21 landmarks x 3 coordinates).
	HandFeatureSize = 63
	// FeatureSize is the total number of values in a frame (two hands).
	FeatureSize = 2 * HandFeatureSize
	// HandsRequired is the number of hands that must be present for a frame to be complete.
	HandsRequired = 2
)

// ErrMalformedFrame is returned when a frame does not have exactly FeatureSize values.
var ErrMalformedFrame = errors.New("malformed frame")

// Frame is one time-step's landmark feature vector: the first hand's
// HandFeatureSize values followed by the second hand's. An absent hand is
// encoded as all zeros in its half.
type Frame []float64

// Validate checks that the frame has exactly FeatureSize values.
func (f Frame) Validate() error {
	if len(f) != FeatureSize {
		return fmt.Errorf("%w: expected %d features, got %d", ErrMalformedFrame, FeatureSize, len(f))
	}
	return nil
}

// Hands returns the number of present hands in a validated frame.
// A hand is present if any value in its half of the vector is non-zero.
func (f Frame) Hands() int {
	count := 0
	if halfPresent(f[:HandFeatureSize]) {
		count++
	}
	if halfPresent(f[HandFeatureSize:]) {
		count++
	}
	return count
}

// Complete reports whether both hands are present in a validated frame.
func (f Frame) Complete() bool {
	return f.Hands() == HandsRequired
}

// halfPresent reports whether any value in a hand's slice is non-zero.
func halfPresent(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return true
		}
	}
	return false
}
