package game

import (
	"testing"

	"github.com/ayusman/jajanken/internal/fingertip"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		hands, tips int
		want        Shape
	}{
		{0, 0, ShapeNone},
		{0, 3, ShapeNone},
		{1, 0, ShapeRock},
		{1, 1, ShapeRock},
		{1, 2, ShapeScissors},
		{1, 3, ShapeScissors},
		{1, 4, ShapePaper},
		{1, 5, ShapePaper},
		{2, 10, ShapePaper},
	}

	for _, tt := range tests {
		if got := Classify(tt.hands, tt.tips); got != tt.want {
			t.Errorf("Classify(%d, %d) = %q, want %q", tt.hands, tt.tips, got, tt.want)
		}
	}
}

func TestJudge(t *testing.T) {
	tests := []struct {
		player, opponent Shape
		want             Outcome
	}{
		{ShapeRock, ShapeScissors, OutcomeWin},
		{ShapeScissors, ShapePaper, OutcomeWin},
		{ShapePaper, ShapeRock, OutcomeWin},
		{ShapeScissors, ShapeRock, OutcomeLose},
		{ShapePaper, ShapeScissors, OutcomeLose},
		{ShapeRock, ShapePaper, OutcomeLose},
		{ShapeRock, ShapeRock, OutcomeDraw},
		{ShapePaper, ShapePaper, OutcomeDraw},
		{ShapeScissors, ShapeScissors, OutcomeDraw},
	}

	for _, tt := range tests {
		t.Run(string(tt.player)+"_vs_"+string(tt.opponent), func(t *testing.T) {
			if got := Judge(tt.player, tt.opponent); got != tt.want {
				t.Errorf("Judge() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseShape(t *testing.T) {
	for _, s := range Shapes {
		if got, err := ParseShape(string(s)); err != nil || got != s {
			t.Errorf("ParseShape(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParseShape("lizard"); err == nil {
		t.Error("expected error for unknown shape")
	}
}

func TestRandomOpponent(t *testing.T) {
	seen := map[Shape]bool{}
	for i := 0; i < 300; i++ {
		s := RandomOpponent()
		if _, err := ParseShape(string(s)); err != nil {
			t.Fatalf("RandomOpponent() = %q", s)
		}
		seen[s] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected all shapes over 300 draws, saw %v", seen)
	}
}

func tips(n int) fingertip.Result {
	return fingertip.Result{Points: make(fingertip.Set, n), Hands: 1}
}

var noHand = fingertip.Result{Points: fingertip.Set{}}

func TestReferee_CommitsAfterStableHold(t *testing.T) {
	r := NewReferee(3, func() Shape { return ShapeRock })

	for i := 0; i < 2; i++ {
		if _, ok := r.Observe(tips(5)); ok {
			t.Fatalf("committed after %d frames", i+1)
		}
	}

	throw, ok := r.Observe(tips(5))
	if !ok {
		t.Fatal("expected a throw on the third stable frame")
	}
	want := Throw{Player: ShapePaper, Opponent: ShapeRock, Outcome: OutcomeWin, Tips: 5}
	if throw != want {
		t.Errorf("throw = %+v, want %+v", throw, want)
	}
}

func TestReferee_ShapeChangeRestartsHold(t *testing.T) {
	r := NewReferee(3, func() Shape { return ShapePaper })

	r.Observe(tips(2))
	r.Observe(tips(2))
	if _, ok := r.Observe(tips(0)); ok {
		t.Fatal("shape change must restart the hold")
	}
	r.Observe(tips(1))

	throw, ok := r.Observe(tips(0))
	if !ok {
		t.Fatal("expected rock after three frames")
	}
	if throw.Player != ShapeRock || throw.Outcome != OutcomeLose {
		t.Errorf("throw = %+v", throw)
	}
}

func TestReferee_OneThrowPerHold(t *testing.T) {
	r := NewReferee(2, func() Shape { return ShapeScissors })

	commits := 0
	for i := 0; i < 20; i++ {
		if _, ok := r.Observe(tips(2)); ok {
			commits++
		}
	}
	if commits != 1 {
		t.Fatalf("commits = %d, want 1 while the hand stays", commits)
	}

	r.Observe(noHand)
	r.Observe(tips(2))
	if _, ok := r.Observe(tips(2)); !ok {
		t.Error("expected a new throw after the hand left and returned")
	}
}

func TestReferee_Reset(t *testing.T) {
	r := NewReferee(2, nil)

	r.Observe(tips(5))
	r.Observe(tips(5))
	r.Reset()

	r.Observe(tips(5))
	if _, ok := r.Observe(tips(5)); !ok {
		t.Error("expected throw after Reset")
	}
}

func TestNewReferee_Defaults(t *testing.T) {
	r := NewReferee(0, nil)
	if r.stable != DefaultStableFrames {
		t.Errorf("stable = %d, want %d", r.stable, DefaultStableFrames)
	}
	if r.opponent == nil {
		t.Error("expected default opponent")
	}
}
