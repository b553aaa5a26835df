package detector

import (
	"sync"

	"github.com/ayusman/jajanken/internal/capture"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	obs   []Observation
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetObservations sets the observations returned by Detect.
func (m *MockDetector) SetObservations(obs ...Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = obs
}

// SetError sets the error returned by Detect. Plain errors are wrapped in an
// *InferenceError; nil clears it.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured observations or error.
func (m *MockDetector) Detect(frame *capture.Frame) ([]Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		if _, ok := m.err.(*InferenceError); ok {
			return nil, m.err
		}
		return nil, &InferenceError{Backend: "mock", Err: m.err}
	}
	return m.obs, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// hand builds an observation from fingertip locations given in detector space.
// Fingers not listed are reported as folded, with low confidence.
func hand(score float64, extended map[Label]Point) Observation {
	o := Observation{
		Points:     make(map[Label]RecognizedPoint, len(FingertipLabels)),
		Handedness: "Right",
		Score:      score,
	}
	for i, label := range FingertipLabels {
		if p, ok := extended[label]; ok {
			o.Points[label] = RecognizedPoint{Location: p, Confidence: score}
			continue
		}
		o.Points[label] = RecognizedPoint{
			Location:   Point{X: 0.45 + float64(i)*0.02, Y: 0.4},
			Confidence: 0.4,
		}
	}
	return o
}

// RockObservation returns a closed fist: no fingertip is confidently visible.
func RockObservation() Observation {
	return hand(0.95, nil)
}

// ScissorsObservation returns a hand with the index and middle fingers
// extended.
func ScissorsObservation() Observation {
	return hand(0.95, map[Label]Point{
		IndexTip:  {X: 0.42, Y: 0.72},
		MiddleTip: {X: 0.55, Y: 0.74},
	})
}

// PaperObservation returns an open hand with all five fingertips visible.
func PaperObservation() Observation {
	return hand(0.95, map[Label]Point{
		ThumbTip:  {X: 0.27, Y: 0.45},
		IndexTip:  {X: 0.38, Y: 0.70},
		MiddleTip: {X: 0.50, Y: 0.75},
		RingTip:   {X: 0.60, Y: 0.71},
		LittleTip: {X: 0.68, Y: 0.62},
	})
}
