package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/gesturefall/internal/store"
)

// GameHandler serves /api/game, /api/game/enable and /api/game/retry.
type GameHandler struct {
	ctl Controller
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(ctl Controller) *GameHandler {
	return &GameHandler{ctl: ctl}
}

type enableRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/game")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.ctl.State())

	case "enable":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req enableRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		if err := h.ctl.SetEnabled(*req.Enabled); err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, h.ctl.State())

	case "retry":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.ctl.Retry()
		writeJSON(w, http.StatusOK, h.ctl.State())

	default:
		http.NotFound(w, r)
	}
}

// RoundsHandler serves GET /api/rounds?limit=N.
type RoundsHandler struct {
	ctl Controller
}

func NewRoundsHandler(ctl Controller) *RoundsHandler {
	return &RoundsHandler{ctl: ctl}
}

type listRoundsResponse struct {
	Rounds []*store.Round `json:"rounds"`
}

func (h *RoundsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, ok := parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	rounds, err := h.ctl.Rounds(limit)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if rounds == nil {
		rounds = []*store.Round{}
	}
	writeJSON(w, http.StatusOK, listRoundsResponse{Rounds: rounds})
}

func parseLimit(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
