package detector

import "math"

// Extension ramps. A finger whose joints line up and whose tip reaches past
// its middle joint scores 1; a curled finger scores 0.
const (
	straightLow  = 0.75
	straightHigh = 0.95
	reachLow     = 1.0
	reachHigh    = 1.25
)

// fingerChain lists the four landmarks of each digit from base to tip.
var fingerChain = map[Label][4]int{
	ThumbTip:  {ThumbCMC, ThumbMCP, ThumbIP, ThumbTipIdx},
	IndexTip:  {IndexMCP, IndexPIP, IndexDIP, IndexTipIdx},
	MiddleTip: {MiddleMCP, MiddlePIP, MiddleDIP, MiddleTipIdx},
	RingTip:   {RingMCP, RingPIP, RingDIP, RingTipIdx},
	LittleTip: {PinkyMCP, PinkyPIP, PinkyDIP, PinkyTipIdx},
}

// extension scores how far the digit ending at label is extended, in [0,1].
// It needs a full hand of NumLandmarks points.
//
// Two cues are combined with min: straightness, the base-to-tip distance over
// the length of the joint chain, and reach, how much farther the tip is from
// an anchor than the chain's second joint. Fingers use the wrist as anchor;
// the thumb uses the little finger's knuckle so a thumb folded across the
// palm does not count.
func extension(points []jsonPoint, label Label) float64 {
	if len(points) < NumLandmarks {
		return 0
	}
	chain, ok := fingerChain[label]
	if !ok {
		return 0
	}

	base, second, third, tip := points[chain[0]], points[chain[1]], points[chain[2]], points[chain[3]]

	length := dist(base, second) + dist(second, third) + dist(third, tip)
	if length == 0 {
		return 0
	}
	straight := dist(base, tip) / length

	anchor, joint := points[Wrist], second
	if label == ThumbTip {
		anchor, joint = points[PinkyMCP], points[ThumbMCP]
	}
	near := dist(anchor, joint)
	if near == 0 {
		return 0
	}
	reach := dist(anchor, tip) / near

	return math.Min(ramp(straight, straightLow, straightHigh), ramp(reach, reachLow, reachHigh))
}

func ramp(v, lo, hi float64) float64 {
	switch {
	case v <= lo:
		return 0
	case v >= hi:
		return 1
	}
	return (v - lo) / (hi - lo)
}

func dist(a, b jsonPoint) float64 {
	return math.Sqrt((a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y) + (a.Z-b.Z)*(a.Z-b.Z))
}
