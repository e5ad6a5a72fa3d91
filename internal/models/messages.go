package models

import "time"

// ServerMessage is the outbound envelope. Payload is one of the typed
// structs below, keyed by Type.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Message string `json:"message,omitempty"`
}

// Outbound event types.
const (
	EventWelcome           = "welcome"
	EventError             = "error"
	EventPong              = "pong"
	EventMatchmakingResult = "matchmaking_result"
	EventGameMatched       = "game_matched"
	EventGameJoinResult    = "game_join_result"
	EventPlayerJoined      = "player_joined"
	EventGameStart         = "game_start"
	EventPlayerMoved       = "player_moved"
	EventScoreUpdate       = "score_update"
	EventScoreUpdateAck    = "score_update_ack"
	EventMatchEnded        = "match_ended"
	EventMatchEndAck       = "match_end_ack"
	EventGameResultDone    = "game_result_processed"

	EventTournamentActionResult   = "tournament_action_result"
	EventTournamentsList          = "tournaments_list"
	EventTournamentPlayerJoined   = "tournament_player_joined"
	EventTournamentPlayerLeft     = "tournament_player_left"
	EventTournamentPlayerOut      = "tournament_player_eliminated"
	EventTournamentStarted        = "tournament_started"
	EventTournamentRoundStarted   = "tournament_round_started"
	EventTournamentMatchReady     = "tournament_match_ready"
	EventTournamentMatchCompleted = "tournament_match_completed"
	EventTournamentCompleted      = "tournament_completed"
)

// Result is the uniform outcome shape for operations that answer the
// caller directly. Business-rule failures travel as Success=false, never
// as a dropped connection.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type WelcomePayload struct {
	UserID string `json:"userId"`
	Stats  Stats  `json:"stats"`
}

// Stats is a point-in-time snapshot of live server state.
type Stats struct {
	ActiveConnections int `json:"activeConnections"`
	GameSessions      int `json:"gameSessions"`
	MatchmakingQueue  int `json:"matchmakingQueue"`
	Tournaments       int `json:"tournaments"`
	ActiveTournaments int `json:"activeTournaments"`
}

type MatchmakingResult struct {
	Result
	Position  int `json:"position,omitempty"`
	QueueSize int `json:"queueSize,omitempty"`
}

type GameMatchedPayload struct {
	*GameSession
	YourPlayerID  string `json:"yourPlayerId"`
	OpponentIsBot bool   `json:"opponentIsBot"`
}

type PlayerJoinedPayload struct {
	UserID string `json:"userId"`
	GameID string `json:"gameId"`
}

type GameStartPayload struct {
	GameID          string    `json:"gameId"`
	StartedAt       time.Time `json:"startedAt"`
	MatchDurationMs int64     `json:"matchDurationMs"`
}

type PlayerMovedPayload struct {
	UserID    string `json:"userId"`
	GameID    string `json:"gameId"`
	Direction string `json:"direction"`
	Timestamp int64  `json:"timestamp"`
	IsBot     bool   `json:"isBot"`
}

type ScoreUpdatePayload struct {
	GameID    string         `json:"gameId"`
	Scores    map[string]int `json:"scores"`
	Timestamp int64          `json:"timestamp"`
}

type MatchEndedPayload struct {
	GameID          string         `json:"gameId"`
	WinnerID        string         `json:"winnerId,omitempty"`
	IsTie           bool           `json:"isTie"`
	FinalScores     map[string]int `json:"finalScores"`
	MatchDurationMs int64          `json:"matchDurationMs"`
	Forced          bool           `json:"forced,omitempty"`
}

type MatchEndResult struct {
	Result
	WinnerID    string         `json:"winnerId,omitempty"`
	IsTie       bool           `json:"isTie"`
	FinalScores map[string]int `json:"finalScores,omitempty"`
}

type TournamentActionResult struct {
	Result
	Tournament *TournamentView `json:"tournament,omitempty"`
}

type TournamentsListPayload struct {
	Success     bool              `json:"success"`
	Tournaments []*TournamentView `json:"tournaments"`
}

type TournamentPlayerJoinedPayload struct {
	TournamentID string           `json:"tournamentId"`
	Player       TournamentPlayer `json:"player"`
	TotalPlayers int              `json:"totalPlayers"`
	MaxPlayers   int              `json:"maxPlayers"`
}

type TournamentPlayerLeftPayload struct {
	TournamentID string `json:"tournamentId"`
	PlayerID     string `json:"playerId"`
	TotalPlayers int    `json:"totalPlayers"`
	MaxPlayers   int    `json:"maxPlayers"`
}

type TournamentPlayerEliminatedPayload struct {
	TournamentID string `json:"tournamentId"`
	PlayerID     string `json:"playerId"`
	Reason       string `json:"reason"`
}

type TournamentStartedPayload struct {
	TournamentID string          `json:"tournamentId"`
	Tournament   *TournamentView `json:"tournament"`
}

type TournamentRoundStartedPayload struct {
	TournamentID string       `json:"tournamentId"`
	Round        int          `json:"round"`
	Matches      []*MatchView `json:"matches"`
}

type TournamentMatchReadyPayload struct {
	*GameSession
	YourPlayerID string `json:"yourPlayerId"`
}

type TournamentMatchCompletedPayload struct {
	TournamentID string            `json:"tournamentId"`
	MatchID      string            `json:"matchId"`
	Winner       *TournamentPlayer `json:"winner"`
	Match        *MatchView        `json:"match"`
}

type TournamentCompletedPayload struct {
	TournamentID string            `json:"tournamentId"`
	Winner       *TournamentPlayer `json:"winner"`
	Tournament   *TournamentView   `json:"tournament"`
}
