package models

import (
	"strings"
	"time"
)

type SessionStatus string

const (
	SessionStarting  SessionStatus = "starting"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

type GameType string

const (
	GameTypeClassic    GameType = "classic"
	GameTypeTournament GameType = "tournament"
)

const BotIDPrefix = "bot-"

// IsBotID reports whether a player id belongs to a synthetic opponent.
func IsBotID(playerID string) bool {
	return strings.HasPrefix(playerID, BotIDPrefix)
}

type PlayerRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

func (p PlayerRef) IsBot() bool {
	return IsBotID(p.ID)
}

// GameSession is one live two-party match, standalone or tournament-linked.
type GameSession struct {
	ID        string        `json:"id"`
	Players   []PlayerRef   `json:"players"`
	GameType  GameType      `json:"gameType"`
	Status    SessionStatus `json:"status"`
	IsBotGame bool          `json:"isBotGame"`

	// Ready-check bookkeeping: a session activates only once every
	// participant id is present here.
	ReadyPlayers map[string]bool `json:"-"`

	// Last score reported by each player via score_update.
	Scores map[string]int `json:"expScores"`

	MatchDurationMs int64 `json:"matchDurationMs"`

	CreatedAt time.Time  `json:"createdAt"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`

	WinnerID    string         `json:"winnerId,omitempty"`
	IsTie       bool           `json:"isTie,omitempty"`
	FinalScores map[string]int `json:"finalScores,omitempty"`

	// Set only for sessions created by the tournament engine.
	TournamentID string `json:"tournamentId,omitempty"`
	MatchID      string `json:"matchId,omitempty"`
}

// Clone returns a deep copy safe to hand to the serialization layer
// while the live session keeps mutating.
func (s *GameSession) Clone() *GameSession {
	cp := *s
	cp.Players = make([]PlayerRef, len(s.Players))
	copy(cp.Players, s.Players)
	cp.ReadyPlayers = make(map[string]bool, len(s.ReadyPlayers))
	for k, v := range s.ReadyPlayers {
		cp.ReadyPlayers[k] = v
	}
	cp.Scores = make(map[string]int, len(s.Scores))
	for k, v := range s.Scores {
		cp.Scores[k] = v
	}
	if s.FinalScores != nil {
		cp.FinalScores = make(map[string]int, len(s.FinalScores))
		for k, v := range s.FinalScores {
			cp.FinalScores[k] = v
		}
	}
	return &cp
}

// PlayerIDs returns both participant ids in slot order.
func (s *GameSession) PlayerIDs() []string {
	ids := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		ids = append(ids, p.ID)
	}
	return ids
}

// HasPlayer reports whether the given id is a participant.
func (s *GameSession) HasPlayer(playerID string) bool {
	for _, p := range s.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// Opponent returns the other participant's id, or "" if playerID is not
// a participant.
func (s *GameSession) Opponent(playerID string) string {
	if !s.HasPlayer(playerID) {
		return ""
	}
	for _, p := range s.Players {
		if p.ID != playerID {
			return p.ID
		}
	}
	return ""
}
