package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/jajanken/internal/store"
)

// DefaultListLimit caps GET /api/rounds without a limit parameter.
const DefaultListLimit = 50

// RoundHandler handles HTTP requests for round resources.
type RoundHandler struct {
	store *store.Store
}

// NewRoundHandler creates a new RoundHandler with the given store.
func NewRoundHandler(s *store.Store) *RoundHandler {
	return &RoundHandler{store: s}
}

// ServeHTTP routes /api/rounds, /api/rounds/stats and /api/rounds/{id}.
func (h *RoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/rounds")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	case "stats":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.stats(w, r)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type roundResponse struct {
	ID        string `json:"id"`
	Player    string `json:"player"`
	Opponent  string `json:"opponent"`
	Outcome   string `json:"outcome"`
	Tips      int    `json:"tips"`
	CreatedAt string `json:"created_at"`
}

type listRoundsResponse struct {
	Rounds []roundResponse `json:"rounds"`
}

func toResponse(rd *store.Round) roundResponse {
	return roundResponse{
		ID:        rd.ID,
		Player:    string(rd.Player),
		Opponent:  string(rd.Opponent),
		Outcome:   string(rd.Outcome),
		Tips:      rd.Tips,
		CreatedAt: rd.CreatedAt.Format(time.RFC3339),
	}
}

// list handles GET /api/rounds?limit=N, newest first.
func (h *RoundHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	rounds, err := h.store.Rounds().List(limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list rounds")
		return
	}

	response := listRoundsResponse{
		Rounds: make([]roundResponse, 0, len(rounds)),
	}
	for _, rd := range rounds {
		response.Rounds = append(response.Rounds, toResponse(rd))
	}

	WriteJSON(w, http.StatusOK, response)
}

// stats handles GET /api/rounds/stats.
func (h *RoundHandler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Rounds().Stats()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

// get handles GET /api/rounds/{id}.
func (h *RoundHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	rd, err := h.store.Rounds().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Round not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to get round")
		return
	}

	WriteJSON(w, http.StatusOK, toResponse(rd))
}

// delete handles DELETE /api/rounds/{id}.
func (h *RoundHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Rounds().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Round not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to delete round")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
