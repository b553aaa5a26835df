package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/jajanken/internal/game"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Round is a stored throw.
type Round struct {
	ID        string       `json:"id"`
	Player    game.Shape   `json:"player"`
	Opponent  game.Shape   `json:"opponent"`
	Outcome   game.Outcome `json:"outcome"`
	Tips      int          `json:"tips"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewRound builds an unsaved round from a throw.
func NewRound(t game.Throw) *Round {
	return &Round{
		Player:   t.Player,
		Opponent: t.Opponent,
		Outcome:  t.Outcome,
		Tips:     t.Tips,
	}
}

// Stats summarizes all rounds.
type Stats struct {
	Total  int `json:"total"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// RoundRepository provides CRUD operations for rounds.
type RoundRepository struct {
	db *sql.DB
}

// Rounds returns the round repository for this store.
func (s *Store) Rounds() *RoundRepository {
	return &RoundRepository{db: s.db}
}

// Create inserts a round, assigning an ID when it has none.
func (r *RoundRepository) Create(rd *Round) error {
	if rd.ID == "" {
		rd.ID = uuid.New().String()
	}
	rd.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(
		`INSERT INTO rounds (id, player, opponent, outcome, tips, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rd.ID, string(rd.Player), string(rd.Opponent), string(rd.Outcome), rd.Tips, rd.CreatedAt,
	)
	return err
}

// GetByID retrieves a round by its ID.
func (r *RoundRepository) GetByID(id string) (*Round, error) {
	row := r.db.QueryRow(
		`SELECT id, player, opponent, outcome, tips, created_at
		 FROM rounds WHERE id = ?`,
		id,
	)

	rd, err := scanRound(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rd, nil
}

// List returns the most recent rounds first. A limit of zero or less returns
// all rounds.
func (r *RoundRepository) List(limit int) ([]*Round, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, player, opponent, outcome, tips, created_at
		 FROM rounds ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rounds := []*Round{}
	for rows.Next() {
		rd, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, rd)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rounds, nil
}

// Delete removes a round by its ID.
func (r *RoundRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM rounds WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Stats counts rounds by outcome.
func (r *RoundRepository) Stats() (Stats, error) {
	rows, err := r.db.Query(`SELECT outcome, COUNT(*) FROM rounds GROUP BY outcome`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	var st Stats
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return Stats{}, err
		}

		switch game.Outcome(outcome) {
		case game.OutcomeWin:
			st.Wins = n
		case game.OutcomeLose:
			st.Losses = n
		case game.OutcomeDraw:
			st.Draws = n
		}
		st.Total += n
	}

	return st, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRound(s scanner) (*Round, error) {
	rd := &Round{}
	var player, opponent, outcome string

	if err := s.Scan(&rd.ID, &player, &opponent, &outcome, &rd.Tips, &rd.CreatedAt); err != nil {
		return nil, err
	}

	rd.Player = game.Shape(player)
	rd.Opponent = game.Shape(opponent)
	rd.Outcome = game.Outcome(outcome)
	return rd, nil
}
