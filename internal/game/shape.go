// Package game referees rock-paper-scissors throws read from the fingertip
// stream.
package game

import "fmt"

// Shape is a hand shape.
type Shape string

const (
	ShapeNone     Shape = ""
	ShapeRock     Shape = "rock"
	ShapePaper    Shape = "paper"
	ShapeScissors Shape = "scissors"
)

// Shapes lists the playable shapes.
var Shapes = [3]Shape{ShapeRock, ShapePaper, ShapeScissors}

// ParseShape parses a stored shape name.
func ParseShape(s string) (Shape, error) {
	switch Shape(s) {
	case ShapeRock, ShapePaper, ShapeScissors:
		return Shape(s), nil
	}
	return ShapeNone, fmt.Errorf("unknown shape %q", s)
}

// Classify reads a shape from the number of hands seen and the number of
// fingertips that passed the filter. No hand is ShapeNone.
func Classify(hands, tips int) Shape {
	switch {
	case hands == 0:
		return ShapeNone
	case tips <= 1:
		return ShapeRock
	case tips <= 3:
		return ShapeScissors
	default:
		return ShapePaper
	}
}

// beats reports what each shape defeats.
var beats = map[Shape]Shape{
	ShapeRock:     ShapeScissors,
	ShapeScissors: ShapePaper,
	ShapePaper:    ShapeRock,
}

// Outcome is a round result from the player's side.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeDraw Outcome = "draw"
)

// Judge returns the player's outcome against the opponent.
func Judge(player, opponent Shape) Outcome {
	switch {
	case player == opponent:
		return OutcomeDraw
	case beats[player] == opponent:
		return OutcomeWin
	default:
		return OutcomeLose
	}
}
