package capture

import (
	"fmt"
	"strings"
	"time"

	"gocv.io/x/gocv"
)

// Orientation tells the detector which way is up in a captured image.
type Orientation int

const (
	OrientationUp Orientation = iota
	OrientationDown
	OrientationLeft
	OrientationRight
)

// String returns the config name of the orientation.
func (o Orientation) String() string {
	switch o {
	case OrientationDown:
		return "down"
	case OrientationLeft:
		return "left"
	case OrientationRight:
		return "right"
	default:
		return "up"
	}
}

// ParseOrientation parses "up", "down", "left" or "right".
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(s) {
	case "", "up":
		return OrientationUp, nil
	case "down":
		return OrientationDown, nil
	case "left":
		return OrientationLeft, nil
	case "right":
		return OrientationRight, nil
	}
	return OrientationUp, fmt.Errorf("unknown orientation %q", s)
}

// Frame is one captured image plus the metadata the detector needs.
// A Frame is consumed once and then closed.
type Frame struct {
	Mat         gocv.Mat
	Orientation Orientation
	Seq         uint64
	CapturedAt  time.Time
}

// Close releases the frame's pixel buffer.
func (f *Frame) Close() error {
	if f == nil {
		return nil
	}
	return f.Mat.Close()
}
