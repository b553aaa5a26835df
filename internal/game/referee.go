package game

import (
	"math/rand/v2"
	"sync"

	"github.com/ayusman/jajanken/internal/fingertip"
)

// DefaultStableFrames is how many consecutive frames a shape must be held.
const DefaultStableFrames = 5

// Opponent picks the opponent's shape for a round.
type Opponent func() Shape

// RandomOpponent picks uniformly among the playable shapes.
func RandomOpponent() Shape {
	return Shapes[rand.IntN(len(Shapes))]
}

// Throw is one committed round.
type Throw struct {
	Player   Shape   `json:"player"`
	Opponent Shape   `json:"opponent"`
	Outcome  Outcome `json:"outcome"`
	Tips     int     `json:"tips"`
}

// Referee turns per-frame fingertip results into throws. A shape counts once
// it is held for the configured number of frames; after that the referee
// waits for the hand to leave before accepting another throw.
type Referee struct {
	stable   int
	opponent Opponent

	mu        sync.Mutex
	armed     bool
	candidate Shape
	count     int
}

// NewReferee creates a referee. A nil opponent plays randomly.
func NewReferee(stableFrames int, opponent Opponent) *Referee {
	if stableFrames <= 0 {
		stableFrames = DefaultStableFrames
	}
	if opponent == nil {
		opponent = RandomOpponent
	}
	return &Referee{
		stable:   stableFrames,
		opponent: opponent,
		armed:    true,
	}
}

// Observe feeds one frame's result and returns a throw when one completes.
func (r *Referee) Observe(res fingertip.Result) (Throw, bool) {
	shape := Classify(res.Hands, len(res.Points))

	r.mu.Lock()
	defer r.mu.Unlock()

	if shape == ShapeNone {
		r.armed = true
		r.candidate = ShapeNone
		r.count = 0
		return Throw{}, false
	}
	if !r.armed {
		return Throw{}, false
	}

	if shape == r.candidate {
		r.count++
	} else {
		r.candidate = shape
		r.count = 1
	}
	if r.count < r.stable {
		return Throw{}, false
	}

	r.armed = false
	opp := r.opponent()
	return Throw{
		Player:   shape,
		Opponent: opp,
		Outcome:  Judge(shape, opp),
		Tips:     len(res.Points),
	}, true
}

// Reset re-arms the referee and forgets any partial hold.
func (r *Referee) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = true
	r.candidate = ShapeNone
	r.count = 0
}
