package store

import (
	"errors"
	"testing"

	"github.com/ayusman/jajanken/internal/game"
)

func TestRoundRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Rounds()

	rd := NewRound(game.Throw{
		Player:   game.ShapePaper,
		Opponent: game.ShapeRock,
		Outcome:  game.OutcomeWin,
		Tips:     5,
	})
	if err := repo.Create(rd); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rd.ID == "" {
		t.Fatal("Create() should assign an ID")
	}
	if rd.CreatedAt.IsZero() {
		t.Error("Create() should set CreatedAt")
	}

	got, err := repo.GetByID(rd.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Player != game.ShapePaper || got.Opponent != game.ShapeRock || got.Outcome != game.OutcomeWin || got.Tips != 5 {
		t.Errorf("GetByID() = %+v", got)
	}
	if !got.CreatedAt.Equal(rd.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, rd.CreatedAt)
	}
}

func TestRoundRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Rounds().GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestRoundRepository_CreateRejectsBadShape(t *testing.T) {
	s := newTestStore(t)

	rd := &Round{Player: "lizard", Opponent: game.ShapeRock, Outcome: game.OutcomeWin}
	if err := s.Rounds().Create(rd); err == nil {
		t.Error("expected check constraint violation")
	}
}

func TestRoundRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Rounds()

	var ids []string
	for _, p := range []game.Shape{game.ShapeRock, game.ShapePaper, game.ShapeScissors} {
		rd := NewRound(game.Throw{Player: p, Opponent: game.ShapeRock, Outcome: game.Judge(p, game.ShapeRock)})
		if err := repo.Create(rd); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ids = append(ids, rd.ID)
	}

	t.Run("all newest first", func(t *testing.T) {
		rounds, err := repo.List(0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(rounds) != 3 {
			t.Fatalf("expected 3 rounds, got %d", len(rounds))
		}
		if rounds[0].ID != ids[2] || rounds[2].ID != ids[0] {
			t.Errorf("unexpected order: %s, %s, %s", rounds[0].ID, rounds[1].ID, rounds[2].ID)
		}
	})

	t.Run("limited", func(t *testing.T) {
		rounds, err := repo.List(2)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(rounds) != 2 {
			t.Errorf("expected 2 rounds, got %d", len(rounds))
		}
	})

	t.Run("empty store", func(t *testing.T) {
		rounds, err := newTestStore(t).Rounds().List(10)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if rounds == nil || len(rounds) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", rounds)
		}
	})
}

func TestRoundRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Rounds()

	rd := NewRound(game.Throw{Player: game.ShapeRock, Opponent: game.ShapeRock, Outcome: game.OutcomeDraw})
	if err := repo.Create(rd); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(rd.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(rd.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("round still present after delete: %v", err)
	}
	if err := repo.Delete(rd.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestRoundRepository_Stats(t *testing.T) {
	s := newTestStore(t)
	repo := s.Rounds()

	st, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st != (Stats{}) {
		t.Errorf("empty Stats() = %+v", st)
	}

	throws := []game.Throw{
		{Player: game.ShapeRock, Opponent: game.ShapeScissors, Outcome: game.OutcomeWin},
		{Player: game.ShapePaper, Opponent: game.ShapeRock, Outcome: game.OutcomeWin},
		{Player: game.ShapeRock, Opponent: game.ShapePaper, Outcome: game.OutcomeLose},
		{Player: game.ShapeScissors, Opponent: game.ShapeScissors, Outcome: game.OutcomeDraw},
	}
	for _, th := range throws {
		if err := repo.Create(NewRound(th)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	st, err = repo.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := Stats{Total: 4, Wins: 2, Losses: 1, Draws: 1}
	if st != want {
		t.Errorf("Stats() = %+v, want %+v", st, want)
	}
}
