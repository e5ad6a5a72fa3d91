package handlers

import (
	"encoding/json"
	"net/http"

	"pong-game/internal/models"
	"pong-game/internal/tournament"

	"github.com/gorilla/mux"
)

// TournamentHandler is the REST facade over the tournament engine, one
// endpoint per engine operation. The WebSocket tournament_action path
// and these endpoints share all business logic.
type TournamentHandler struct {
	engine *tournament.Engine
}

func NewTournamentHandler(engine *tournament.Engine) *TournamentHandler {
	return &TournamentHandler{engine: engine}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateTournamentRequest struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MaxPlayers  int    `json:"maxPlayers,omitempty"`
	IsPrivate   bool   `json:"isPrivate,omitempty"`
	Password    string `json:"password,omitempty"`
}

// CreateTournament creates a tournament with the caller as creator
func (h *TournamentHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var req CreateTournamentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlayerID == "" || req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Player ID and tournament name are required")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.PlayerID
	}

	result := h.engine.Create(
		models.PlayerRef{ID: req.PlayerID, DisplayName: req.DisplayName},
		tournament.CreateData{
			Name:        req.Name,
			Description: req.Description,
			MaxPlayers:  req.MaxPlayers,
			IsPrivate:   req.IsPrivate,
			Password:    req.Password,
		},
	)
	if !result.Success {
		respondWithError(w, http.StatusBadRequest, result.Message)
		return
	}
	respondWithJSON(w, http.StatusCreated, result.Tournament)
}

// ListTournaments returns every tournament the given player is in, or
// all open tournaments when no player is given
func (h *TournamentHandler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	if playerID := r.URL.Query().Get("playerId"); playerID != "" {
		respondWithJSON(w, http.StatusOK, h.engine.TournamentsFor(playerID))
		return
	}
	respondWithJSON(w, http.StatusOK, h.engine.AvailableTournaments())
}

// ListAvailable returns tournaments still open for joining
func (h *TournamentHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.engine.AvailableTournaments())
}

// GetTournament returns one tournament snapshot
func (h *TournamentHandler) GetTournament(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result := h.engine.Info(id)
	if !result.Success {
		respondWithError(w, http.StatusNotFound, result.Message)
		return
	}
	respondWithJSON(w, http.StatusOK, result.Tournament)
}

type JoinTournamentRequest struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password,omitempty"`
}

// JoinTournament adds a player to a waiting tournament
func (h *TournamentHandler) JoinTournament(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req JoinTournamentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlayerID == "" {
		respondWithError(w, http.StatusBadRequest, "Player ID is required")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.PlayerID
	}

	result := h.engine.Join(models.PlayerRef{ID: req.PlayerID, DisplayName: req.DisplayName}, id, req.Password)
	if !result.Success {
		respondWithError(w, http.StatusBadRequest, result.Message)
		return
	}
	respondWithJSON(w, http.StatusOK, result.Tournament)
}

type PlayerActionRequest struct {
	PlayerID string `json:"playerId"`
}

// LeaveTournament removes a player from a tournament
func (h *TournamentHandler) LeaveTournament(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req PlayerActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlayerID == "" {
		respondWithError(w, http.StatusBadRequest, "Player ID is required")
		return
	}

	result := h.engine.Leave(req.PlayerID, id)
	if !result.Success {
		respondWithError(w, http.StatusBadRequest, result.Message)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// StartTournament begins a tournament on the creator's request
func (h *TournamentHandler) StartTournament(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req PlayerActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlayerID == "" {
		respondWithError(w, http.StatusBadRequest, "Player ID is required")
		return
	}

	result := h.engine.Start(req.PlayerID, id)
	if !result.Success {
		respondWithError(w, http.StatusBadRequest, result.Message)
		return
	}
	respondWithJSON(w, http.StatusOK, result.Tournament)
}

type MatchResultRequest struct {
	WinnerID string `json:"winnerId"`
}

// ReportMatchResult completes a bracket match by tournament and match
// id, advancing the bracket exactly as the WebSocket path does. This is
// also the recovery path for a match whose game session ended without a
// winner.
func (h *TournamentHandler) ReportMatchResult(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tournamentID := vars["id"]
	matchID := vars["matchId"]

	var req MatchResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.WinnerID == "" {
		respondWithError(w, http.StatusBadRequest, "Winner ID is required")
		return
	}

	result := h.engine.ReportMatchResultByMatch(tournamentID, matchID, req.WinnerID)
	if !result.Success {
		respondWithError(w, http.StatusBadRequest, result.Message)
		return
	}
	respondWithJSON(w, http.StatusOK, result.Tournament)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
