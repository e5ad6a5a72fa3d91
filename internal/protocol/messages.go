package protocol

import (
	"encoding/json"
	"fmt"
)

// Inbound message types.
const (
	TypeMatchmaking      = "matchmaking"
	TypeGameReady        = "game_ready"
	TypeGameJoin         = "game_join"
	TypePlayerMove       = "player_move"
	TypeScoreUpdate      = "score_update"
	TypeMatchEnd         = "match_end"
	TypeGameResult       = "game_result"
	TypeTournamentAction = "tournament_action"
	TypeGetTournaments   = "get_tournaments"
	TypePing             = "ping"
)

// ClientMessage is the inbound envelope: a type tag plus a payload left
// raw until the type is known.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MatchmakingPayload joins or leaves the matchmaking queue.
type MatchmakingPayload struct {
	Action   string `json:"action"`
	GameType string `json:"gameType"`
}

func (p *MatchmakingPayload) Validate() []string {
	var errs []string
	if p.Action != "join" && p.Action != "leave" {
		errs = append(errs, "action: must be \"join\" or \"leave\"")
	}
	if p.GameType == "" {
		p.GameType = "classic"
	}
	if p.GameType != "classic" && p.GameType != "tournament" {
		errs = append(errs, "gameType: must be \"classic\" or \"tournament\"")
	}
	return errs
}

// GameReadyPayload signals the sender is ready to start their session.
type GameReadyPayload struct {
	GameID string `json:"gameId"`
}

func (p *GameReadyPayload) Validate() []string {
	var errs []string
	if p.GameID == "" {
		errs = append(errs, "gameId: required")
	}
	return errs
}

// GameJoinPayload joins a specific session by id, or requests a fresh
// one when gameId is empty.
type GameJoinPayload struct {
	GameID   string `json:"gameId"`
	GameType string `json:"gameType"`
}

func (p *GameJoinPayload) Validate() []string {
	var errs []string
	if p.GameType == "" {
		p.GameType = "classic"
	}
	if p.GameType != "classic" && p.GameType != "tournament" {
		errs = append(errs, "gameType: must be \"classic\" or \"tournament\"")
	}
	return errs
}

var validDirections = map[string]bool{
	"up":    true,
	"down":  true,
	"left":  true,
	"right": true,
}

// PlayerMovePayload relays a paddle movement to the opponent.
type PlayerMovePayload struct {
	GameID    string `json:"gameId"`
	Direction string `json:"direction"`
	Timestamp int64  `json:"timestamp"`
}

func (p *PlayerMovePayload) Validate() []string {
	var errs []string
	if p.GameID == "" {
		errs = append(errs, "gameId: required")
	}
	if !validDirections[p.Direction] {
		errs = append(errs, "direction: must be one of up, down, left, right")
	}
	if p.Timestamp <= 0 {
		errs = append(errs, "timestamp: must be positive")
	}
	return errs
}

// ScoreUpdatePayload reports the sender's running score.
type ScoreUpdatePayload struct {
	GameID     string `json:"gameId"`
	CurrentExp int    `json:"currentExp"`
	Timestamp  int64  `json:"timestamp"`
}

func (p *ScoreUpdatePayload) Validate() []string {
	var errs []string
	if p.GameID == "" {
		errs = append(errs, "gameId: required")
	}
	if p.CurrentExp < 0 {
		errs = append(errs, "currentExp: must not be negative")
	}
	if p.Timestamp <= 0 {
		errs = append(errs, "timestamp: must be positive")
	}
	return errs
}

// MatchEndPayload is the client's authoritative end-of-match report.
type MatchEndPayload struct {
	GameID          string `json:"gameId"`
	Player1ID       string `json:"player1Id"`
	Player2ID       string `json:"player2Id"`
	Player1Exp      int    `json:"player1Exp"`
	Player2Exp      int    `json:"player2Exp"`
	MatchDurationMs int64  `json:"matchDurationMs"`
	Timestamp       int64  `json:"timestamp"`
}

func (p *MatchEndPayload) Validate() []string {
	var errs []string
	if p.GameID == "" {
		errs = append(errs, "gameId: required")
	}
	if p.Player1ID == "" {
		errs = append(errs, "player1Id: required")
	}
	if p.Player2ID == "" {
		errs = append(errs, "player2Id: required")
	}
	if p.Player1Exp < 0 {
		errs = append(errs, "player1Exp: must not be negative")
	}
	if p.Player2Exp < 0 {
		errs = append(errs, "player2Exp: must not be negative")
	}
	if p.MatchDurationMs == 0 {
		p.MatchDurationMs = 60000
	}
	if p.MatchDurationMs < 0 {
		errs = append(errs, "matchDurationMs: must be positive")
	}
	if p.Timestamp <= 0 {
		errs = append(errs, "timestamp: must be positive")
	}
	return errs
}

// GameResultPayload acknowledges a processed game outcome.
type GameResultPayload struct {
	GameID   string `json:"gameId"`
	WinnerID string `json:"winnerId"`
}

func (p *GameResultPayload) Validate() []string {
	var errs []string
	if p.GameID == "" {
		errs = append(errs, "gameId: required")
	}
	if p.WinnerID == "" {
		errs = append(errs, "winnerId: required")
	}
	return errs
}

// TournamentData carries the creation fields of a tournament_action
// create request.
type TournamentData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxPlayers  int    `json:"maxPlayers"`
	IsPrivate   bool   `json:"isPrivate"`
	Password    string `json:"password"`
}

var tournamentActions = map[string]bool{
	"create":   true,
	"join":     true,
	"leave":    true,
	"start":    true,
	"get_info": true,
}

// TournamentActionPayload is the single envelope for all tournament
// operations. Which fields are required depends on the action.
type TournamentActionPayload struct {
	Action         string          `json:"action"`
	TournamentID   string          `json:"tournamentId"`
	Password       string          `json:"password"`
	TournamentData *TournamentData `json:"tournamentData"`
}

func (p *TournamentActionPayload) Validate() []string {
	var errs []string
	if !tournamentActions[p.Action] {
		errs = append(errs, "action: must be one of create, join, leave, start, get_info")
		return errs
	}

	if p.Action == "create" {
		if p.TournamentData == nil {
			errs = append(errs, "tournamentData: required for create")
			return errs
		}
		d := p.TournamentData
		if len(d.Name) < 1 || len(d.Name) > 100 {
			errs = append(errs, "tournamentData.name: must be 1-100 characters")
		}
		if d.MaxPlayers == 0 {
			d.MaxPlayers = 8
		}
		if d.MaxPlayers < 4 || d.MaxPlayers > 64 {
			errs = append(errs, "tournamentData.maxPlayers: must be between 4 and 64")
		}
		if len(d.Description) > 500 {
			errs = append(errs, "tournamentData.description: must be at most 500 characters")
		}
		return errs
	}

	if p.TournamentID == "" {
		errs = append(errs, fmt.Sprintf("tournamentId: required for %s", p.Action))
	}
	return errs
}
