// Package detector provides the hand-pose detector boundary: the interface the
// fingertip extractor calls per frame, the observation types it returns and the
// backends behind it.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTipIdx  = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTipIdx  = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTipIdx = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTipIdx   = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTipIdx  = 20
	NumLandmarks = 21
)

// Label names a landmark in an observation.
type Label string

// Fingertip labels.
const (
	ThumbTip  Label = "thumbTip"
	IndexTip  Label = "indexTip"
	MiddleTip Label = "middleTip"
	RingTip   Label = "ringTip"
	LittleTip Label = "littleTip"
)

// FingertipLabels lists the fingertip labels in the order they are examined.
var FingertipLabels = [5]Label{ThumbTip, IndexTip, MiddleTip, RingTip, LittleTip}

// labelIndex maps each fingertip label to its MediaPipe landmark index.
var labelIndex = map[Label]int{
	ThumbTip:  ThumbTipIdx,
	IndexTip:  IndexTipIdx,
	MiddleTip: MiddleTipIdx,
	RingTip:   RingTipIdx,
	LittleTip: PinkyTipIdx,
}

// Point is a normalized location in [0,1]x[0,1]. Detector space has its origin
// at the lower-left corner of the image.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RecognizedPoint is a landmark location with the detector's confidence.
type RecognizedPoint struct {
	Location   Point   `json:"location"`
	Confidence float64 `json:"confidence"`
}

// Observation is one detected hand. Points may lack any label.
type Observation struct {
	Points     map[Label]RecognizedPoint `json:"points"`
	Handedness string                    `json:"handedness"` // "Left" or "Right"
	Score      float64                   `json:"score"`
}

// Point looks up a label. The second result is false when the detector did not
// report it.
func (o Observation) Point(label Label) (RecognizedPoint, bool) {
	if o.Points == nil {
		return RecognizedPoint{}, false
	}
	p, ok := o.Points[label]
	return p, ok
}
