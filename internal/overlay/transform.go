package overlay

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/ayusman/jajanken/internal/fingertip"
)

// Gravity says how the capture image is fitted into the preview.
type Gravity int

const (
	// GravityResize stretches the image to fill the view.
	GravityResize Gravity = iota

	// GravityResizeAspect fits the whole image, letterboxing the rest.
	GravityResizeAspect

	// GravityResizeAspectFill fills the view, cropping the overflow.
	GravityResizeAspectFill
)

func (g Gravity) String() string {
	switch g {
	case GravityResize:
		return "resize"
	case GravityResizeAspectFill:
		return "aspect_fill"
	default:
		return "aspect"
	}
}

// ParseGravity parses "resize", "aspect" or "aspect_fill".
func ParseGravity(s string) (Gravity, error) {
	switch strings.ToLower(s) {
	case "resize":
		return GravityResize, nil
	case "", "aspect":
		return GravityResizeAspect, nil
	case "aspect_fill":
		return GravityResizeAspectFill, nil
	}
	return GravityResizeAspect, fmt.Errorf("unknown gravity %q", s)
}

// PreviewTransform maps normalized capture-device points into the pixel
// space of a preview of size View showing a Source-sized image.
type PreviewTransform struct {
	Source  image.Point
	View    image.Point
	Gravity Gravity
	Mirror  bool
}

// Apply returns p in view pixels. Points may land outside the view when the
// gravity crops.
func (t PreviewTransform) Apply(p fingertip.Point) (x, y float64) {
	if t.Mirror {
		p.X = 1 - p.X
	}

	content, offset := t.Layout()
	return offset.X + p.X*content.X, offset.Y + p.Y*content.Y
}

// ImagePoint is Apply rounded to the nearest pixel.
func (t PreviewTransform) ImagePoint(p fingertip.Point) image.Point {
	x, y := t.Apply(p)
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}

// Layout returns the size of the scaled image inside the view and the
// position of its top-left corner.
func (t PreviewTransform) Layout() (size, offset Vec) {
	vw, vh := float64(t.View.X), float64(t.View.Y)
	sw, sh := float64(t.Source.X), float64(t.Source.Y)

	if t.Gravity == GravityResize || sw <= 0 || sh <= 0 {
		return Vec{vw, vh}, Vec{}
	}

	scale := math.Min(vw/sw, vh/sh)
	if t.Gravity == GravityResizeAspectFill {
		scale = math.Max(vw/sw, vh/sh)
	}

	size = Vec{sw * scale, sh * scale}
	offset = Vec{(vw - size.X) / 2, (vh - size.Y) / 2}
	return size, offset
}

// Vec is a 2D vector in view pixels.
type Vec struct {
	X, Y float64
}
