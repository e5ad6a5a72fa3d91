package models

import "time"

type TournamentStatus string

const (
	TournamentWaiting    TournamentStatus = "waiting_for_players"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentCompleted  TournamentStatus = "completed"
)

type MatchStatus string

const (
	MatchWaiting    MatchStatus = "waiting"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
)

type TournamentPlayer struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	JoinedAt     time.Time `json:"joinedAt"`
	IsEliminated bool      `json:"isEliminated"`
}

// BracketMatch is one slot in a single-elimination bracket. Round 1 matches
// are seeded at start; later rounds are placeholders filled by winners.
type BracketMatch struct {
	ID      string            `json:"id"`
	Round   int               `json:"round"`
	Slot    int               `json:"slot"`
	Player1 *TournamentPlayer `json:"player1"`
	Player2 *TournamentPlayer `json:"player2"`
	Winner  *TournamentPlayer `json:"winner"`
	GameID  string            `json:"gameId,omitempty"`
	Status  MatchStatus       `json:"status"`
}

// HasPlayer reports whether the given id occupies either slot.
func (m *BracketMatch) HasPlayer(playerID string) bool {
	return (m.Player1 != nil && m.Player1.ID == playerID) ||
		(m.Player2 != nil && m.Player2.ID == playerID)
}

// OpponentOf returns the other slotted player, or nil.
func (m *BracketMatch) OpponentOf(playerID string) *TournamentPlayer {
	if m.Player1 != nil && m.Player1.ID == playerID {
		return m.Player2
	}
	if m.Player2 != nil && m.Player2.ID == playerID {
		return m.Player1
	}
	return nil
}

type Tournament struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	CreatorID    string             `json:"creatorId"`
	Description  string             `json:"description,omitempty"`
	MaxPlayers   int                `json:"maxPlayers"`
	IsPrivate    bool               `json:"isPrivate"`
	Password     string             `json:"-"`
	Status       TournamentStatus   `json:"status"`
	Players      []TournamentPlayer `json:"players"`
	Bracket      []*BracketMatch    `json:"bracket"`
	CurrentRound int                `json:"currentRound"`
	WinnerID     string             `json:"winnerId,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	StartedAt    *time.Time         `json:"startedAt,omitempty"`
	CompletedAt  *time.Time         `json:"completedAt,omitempty"`
}

// TournamentView is the client-facing snapshot of a tournament. It is the
// only shape ever serialized outward, so the access password stays private.
type TournamentView struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	CreatorID    string             `json:"creatorId"`
	Description  string             `json:"description,omitempty"`
	MaxPlayers   int                `json:"maxPlayers"`
	IsPrivate    bool               `json:"isPrivate"`
	Status       TournamentStatus   `json:"status"`
	Players      []TournamentPlayer `json:"players"`
	Bracket      []*BracketMatch    `json:"bracket"`
	CurrentRound int                `json:"currentRound"`
	WinnerID     string             `json:"winnerId,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	StartedAt    *time.Time         `json:"startedAt,omitempty"`
	CompletedAt  *time.Time         `json:"completedAt,omitempty"`
}

// View copies the tournament into its sanitized client shape.
func (t *Tournament) View() *TournamentView {
	players := make([]TournamentPlayer, len(t.Players))
	copy(players, t.Players)

	bracket := make([]*BracketMatch, len(t.Bracket))
	for i, m := range t.Bracket {
		cp := *m
		bracket[i] = &cp
	}

	return &TournamentView{
		ID:           t.ID,
		Name:         t.Name,
		CreatorID:    t.CreatorID,
		Description:  t.Description,
		MaxPlayers:   t.MaxPlayers,
		IsPrivate:    t.IsPrivate,
		Status:       t.Status,
		Players:      players,
		Bracket:      bracket,
		CurrentRound: t.CurrentRound,
		WinnerID:     t.WinnerID,
		CreatedAt:    t.CreatedAt,
		StartedAt:    t.StartedAt,
		CompletedAt:  t.CompletedAt,
	}
}

// MatchView is the per-match shape broadcast in round and result events.
type MatchView struct {
	ID      string            `json:"id"`
	Round   int               `json:"round"`
	Slot    int               `json:"slot"`
	Player1 *TournamentPlayer `json:"player1"`
	Player2 *TournamentPlayer `json:"player2"`
	Winner  *TournamentPlayer `json:"winner"`
	Status  MatchStatus       `json:"status"`
}

func (m *BracketMatch) View() *MatchView {
	return &MatchView{
		ID:      m.ID,
		Round:   m.Round,
		Slot:    m.Slot,
		Player1: m.Player1,
		Player2: m.Player2,
		Winner:  m.Winner,
		Status:  m.Status,
	}
}
