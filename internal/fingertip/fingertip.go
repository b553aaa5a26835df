// Package fingertip turns detector observations into the fingertip set drawn
// over the preview.
package fingertip

import (
	"github.com/ayusman/jajanken/internal/capture"
	"github.com/ayusman/jajanken/internal/detector"
)

// Point is a normalized location in capture-device space, origin top-left.
type Point struct {
	X float64 `json:"x" cbor:"x"`
	Y float64 `json:"y" cbor:"y"`
}

// Set is the ordered fingertip points kept for one frame.
type Set []Point

// Flip converts between detector space and capture-device space by mirroring
// the vertical axis. It is its own inverse.
func Flip(p detector.Point) Point {
	return Point{X: p.X, Y: 1 - p.Y}
}

// Config holds the extraction thresholds.
type Config struct {
	// CandidateThreshold is the first gate; points at or below it are ignored.
	CandidateThreshold float64

	// AcceptThreshold is the second gate applied to the candidates.
	AcceptThreshold float64

	// MaxObservations caps how many hands are examined per frame.
	MaxObservations int
}

// DefaultConfig returns the thresholds 0.7 and 0.9 over at most 2 hands.
func DefaultConfig() Config {
	return Config{
		CandidateThreshold: 0.7,
		AcceptThreshold:    0.9,
		MaxObservations:    2,
	}
}

// Filter reduces observations to a fingertip set. Only the first
// MaxObservations are examined; each contributes at most one point per
// fingertip label, in label order. The result is never nil.
func Filter(obs []detector.Observation, cfg Config) Set {
	cands := candidates(obs, cfg)

	set := make(Set, 0, len(cands))
	for _, p := range cands {
		if p.Confidence > cfg.AcceptThreshold {
			set = append(set, Flip(p.Location))
		}
	}
	return set
}

// candidates is the first stage: fingertips above CandidateThreshold from the
// first MaxObservations hands.
func candidates(obs []detector.Observation, cfg Config) []detector.RecognizedPoint {
	if len(obs) > cfg.MaxObservations {
		obs = obs[:cfg.MaxObservations]
	}

	var out []detector.RecognizedPoint
	for _, o := range obs {
		for _, label := range detector.FingertipLabels {
			p, ok := o.Point(label)
			if !ok {
				continue
			}
			if p.Confidence > cfg.CandidateThreshold {
				out = append(out, p)
			}
		}
	}
	return out
}

// Result is the outcome of extracting one frame.
type Result struct {
	Points Set `json:"points" cbor:"points"`

	// Hands is how many observations were examined, so callers can tell an
	// empty hand from no hand.
	Hands int `json:"hands" cbor:"hands"`
}

// Extractor runs the detector on a frame and filters its output.
type Extractor struct {
	detector detector.Detector
	cfg      Config
}

// NewExtractor creates an extractor over d.
func NewExtractor(d detector.Detector, cfg Config) *Extractor {
	if cfg.MaxObservations <= 0 {
		cfg.MaxObservations = DefaultConfig().MaxObservations
	}
	return &Extractor{detector: d, cfg: cfg}
}

// Extract detects hands in frame and returns the filtered fingertips. No hand
// is not an error; it yields an empty set. Detector failures are returned
// unchanged.
func (e *Extractor) Extract(frame *capture.Frame) (Result, error) {
	obs, err := e.detector.Detect(frame)
	if err != nil {
		return Result{}, err
	}

	hands := len(obs)
	if hands > e.cfg.MaxObservations {
		hands = e.cfg.MaxObservations
	}
	return Result{Points: Filter(obs, e.cfg), Hands: hands}, nil
}
