// Package testdata provides shared frame fixtures for tests.
package testdata

import "github.com/ayusman/mudra/internal/landmark"

// TwoHandFrame returns a valid frame with both hands present.
// The fill value lets tests tell frames apart for FIFO-order checks.
func TwoHandFrame(fill float64) landmark.Frame {
	if fill == 0 {
		fill = 0.5
	}
	frame := make(landmark.Frame, landmark.FeatureSize)
	for i := range frame {
		frame[i] = fill
	}
	return frame
}

// OneHandFrame returns a frame with only the first hand present;
// the second hand's half is all zeros.
func OneHandFrame(fill float64) landmark.Frame {
	if fill == 0 {
		fill = 0.5
	}
	frame := make(landmark.Frame, landmark.FeatureSize)
	for i := 0; i < landmark.HandFeatureSize; i++ {
		frame[i] = fill
	}
	return frame
}

// EmptyFrame returns a frame of the correct length with no hands present.
func EmptyFrame() landmark.Frame {
	return make(landmark.Frame, landmark.FeatureSize)
}

// ShortFrame returns a frame with the wrong number of values.
func ShortFrame(n int) landmark.Frame {
	frame := make(landmark.Frame, n)
	for i := range frame {
		frame[i] = 0.5
	}
	return frame
}
