package inference

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ayusman/mudra/internal/landmark"
)

// Stats holds per-feature normalization statistics produced by the training
// pipeline. Windows are normalized element-wise as (x - mean) / std before
// classification.
type Stats struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// LoadStats reads normalization statistics from a JSON file and validates
// their shape against the frame feature size.
func LoadStats(path string) (*Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read normalization stats: %w", err)
	}

	var s Stats
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse normalization stats: %w", err)
	}

	if len(s.Mean) != landmark.FeatureSize || len(s.Std) != landmark.FeatureSize {
		return nil, fmt.Errorf("normalization stats shape mismatch: mean=%d std=%d, want %d",
			len(s.Mean), len(s.Std), landmark.FeatureSize)
	}
	for i, v := range s.Std {
		if v == 0 {
			return nil, fmt.Errorf("normalization stats: zero std at feature %d", i)
		}
	}

	return &s, nil
}

// Normalize returns a normalized copy of the window. The input is not modified.
func (s *Stats) Normalize(window [][]float64) [][]float64 {
	normalized := make([][]float64, len(window))
	for i, frame := range window {
		row := make([]float64, len(frame))
		for j, v := range frame {
			row[j] = (v - s.Mean[j]) / s.Std[j]
		}
		normalized[i] = row
	}
	return normalized
}
