package db

import (
	"context"
	"log"
	"time"

	"pong-game/internal/models"
)

// MatchRecord is the document written to match_history for every
// completed game session.
type MatchRecord struct {
	GameID          string     `bson:"gameId"`
	GameType        string     `bson:"gameType"`
	Player1ID       string     `bson:"player1Id"`
	Player2ID       string     `bson:"player2Id"`
	Player1Score    int        `bson:"player1Score"`
	Player2Score    int        `bson:"player2Score"`
	WinnerID        string     `bson:"winnerId,omitempty"`
	IsTie           bool       `bson:"isTie"`
	IsBotGame       bool       `bson:"isBotGame"`
	TournamentID    string     `bson:"tournamentId,omitempty"`
	MatchID         string     `bson:"matchId,omitempty"`
	MatchDurationMs int64      `bson:"matchDurationMs"`
	StartedAt       *time.Time `bson:"startedAt,omitempty"`
	EndedAt         time.Time  `bson:"endedAt"`
}

// TournamentRecord is the document written to tournament_history when a
// tournament completes.
type TournamentRecord struct {
	TournamentID string    `bson:"tournamentId"`
	Name         string    `bson:"name"`
	CreatorID    string    `bson:"creatorId"`
	PlayerCount  int       `bson:"playerCount"`
	Rounds       int       `bson:"rounds"`
	WinnerID     string    `bson:"winnerId"`
	StartedAt    time.Time `bson:"startedAt"`
	CompletedAt  time.Time `bson:"completedAt"`
}

// Recorder persists terminal game and tournament results. The game and
// tournament engines call it fire-and-forget, after their in-memory state
// is already consistent, so a slow write never stalls a handler.
type Recorder struct {
	db *MongoDB
}

func NewRecorder(database *MongoDB) *Recorder {
	return &Recorder{db: database}
}

// RecordGameResult writes one match_history document (at most once per
// completed session). Errors are logged, never returned.
func (r *Recorder) RecordGameResult(session *models.GameSession) {
	if r.db == nil || len(session.Players) < 2 {
		return
	}

	rec := MatchRecord{
		GameID:          session.ID,
		GameType:        string(session.GameType),
		Player1ID:       session.Players[0].ID,
		Player2ID:       session.Players[1].ID,
		Player1Score:    session.FinalScores[session.Players[0].ID],
		Player2Score:    session.FinalScores[session.Players[1].ID],
		WinnerID:        session.WinnerID,
		IsTie:           session.IsTie,
		IsBotGame:       session.IsBotGame,
		TournamentID:    session.TournamentID,
		MatchID:         session.MatchID,
		MatchDurationMs: session.MatchDurationMs,
		StartedAt:       session.StartedAt,
		EndedAt:         time.Now(),
	}
	if session.EndedAt != nil {
		rec.EndedAt = *session.EndedAt
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := r.db.MatchHistory().InsertOne(ctx, rec); err != nil {
			log.Printf("Failed to record game result for %s: %v", session.ID, err)
		}
	}()
}

// RecordTournamentResult writes one tournament_history document.
func (r *Recorder) RecordTournamentResult(t *models.Tournament) {
	if r.db == nil {
		return
	}

	rounds := 0
	for _, m := range t.Bracket {
		if m.Round > rounds {
			rounds = m.Round
		}
	}

	rec := TournamentRecord{
		TournamentID: t.ID,
		Name:         t.Name,
		CreatorID:    t.CreatorID,
		PlayerCount:  len(t.Players),
		Rounds:       rounds,
		WinnerID:     t.WinnerID,
		CompletedAt:  time.Now(),
	}
	if t.StartedAt != nil {
		rec.StartedAt = *t.StartedAt
	}
	if t.CompletedAt != nil {
		rec.CompletedAt = *t.CompletedAt
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := r.db.TournamentHistory().InsertOne(ctx, rec); err != nil {
			log.Printf("Failed to record tournament result for %s: %v", t.ID, err)
		}
	}()
}
