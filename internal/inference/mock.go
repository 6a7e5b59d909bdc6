package inference

// MockClassifier is a test implementation of the Classifier interface.
// It allows tests to control the probability output.
type MockClassifier struct {
	probs   []float64
	err     error
	windows [][][]float64
}

// NewMockClassifier creates a new MockClassifier instance.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// SetProbabilities sets the probabilities that will be returned by Probabilities.
func (m *MockClassifier) SetProbabilities(probs []float64) {
	m.probs = probs
}

// SetError sets the error that will be returned by Probabilities.
func (m *MockClassifier) SetError(err error) {
	m.err = err
}

// Probabilities returns the pre-configured probabilities or error, recording
// the window it was called with.
func (m *MockClassifier) Probabilities(window [][]float64) ([]float64, error) {
	m.windows = append(m.windows, window)
	if m.err != nil {
		return nil, m.err
	}
	return m.probs, nil
}

// Calls returns the windows Probabilities has been called with.
func (m *MockClassifier) Calls() [][][]float64 {
	return m.windows
}

// Device returns a fixed device name for the mock.
func (m *MockClassifier) Device() string {
	return "mock"
}

// Close is a no-op for the mock classifier.
func (m *MockClassifier) Close() error {
	return nil
}
