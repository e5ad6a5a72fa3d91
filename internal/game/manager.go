package game

import (
	"errors"
	"log"
	"sync"
	"time"

	"pong-game/internal/models"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("game session not found")
	ErrNotInGame       = errors.New("player is not in this game")
	ErrGameFull        = errors.New("game is full")
)

// Notifier delivers an outbound event to a player's live connection.
// Delivery to a player without a connection (bots, disconnected
// players) is a no-op.
type Notifier interface {
	NotifyPlayer(playerID string, msg models.ServerMessage)
}

// GameRecorder is the persistence sink for completed sessions. Calls
// must be fire-and-forget from the manager's point of view.
type GameRecorder interface {
	RecordGameResult(session *models.GameSession)
}

// TournamentReporter consumes completed tournament-linked sessions so
// the bracket can advance.
type TournamentReporter interface {
	ReportMatchResult(tournamentID, gameID, winnerID string)
	ReportForfeit(tournamentID, playerID string)
}

// Options carries the session timing knobs.
type Options struct {
	MatchDuration        time.Duration
	BotMoveInterval      time.Duration
	TournamentStartDelay time.Duration
	ForcedEndGrace       time.Duration
}

func (o *Options) applyDefaults() {
	if o.MatchDuration == 0 {
		o.MatchDuration = 60 * time.Second
	}
	if o.BotMoveInterval == 0 {
		o.BotMoveInterval = 1500 * time.Millisecond
	}
	if o.TournamentStartDelay == 0 {
		o.TournamentStartDelay = 2 * time.Second
	}
	if o.ForcedEndGrace == 0 {
		o.ForcedEndGrace = 10 * time.Second
	}
}

// Manager owns every live game session, the per-session timer registry
// and the bot controller. All state mutation happens behind mu; calls
// out to the notifier, recorder and tournament reporter are made after
// unlocking.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*models.GameSession

	timers   *timerRegistry
	bots     *BotController
	notifier Notifier
	recorder GameRecorder
	reporter TournamentReporter

	opts Options
}

func NewManager(notifier Notifier, recorder GameRecorder, opts Options) *Manager {
	opts.applyDefaults()

	m := &Manager{
		sessions: make(map[string]*models.GameSession),
		timers:   newTimerRegistry(),
		notifier: notifier,
		recorder: recorder,
		opts:     opts,
	}
	m.bots = NewBotController(opts.BotMoveInterval, m.injectBotMove)
	return m
}

// SetTournamentReporter wires the tournament engine in. Must be called
// before traffic starts.
func (m *Manager) SetTournamentReporter(r TournamentReporter) {
	m.reporter = r
}

// CreateSession creates a standalone session between two players. A bot
// opponent is pre-marked ready and its mover started, so the game
// activates as soon as the human readies up.
func (m *Manager) CreateSession(p1, p2 models.PlayerRef, gameType models.GameType) *models.GameSession {
	session := m.newSession(p1, p2, gameType)
	if session.IsBotGame {
		session.ReadyPlayers[p2.ID] = true
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	snapshot := session.Clone()
	m.mu.Unlock()

	m.notifier.NotifyPlayer(p1.ID, models.ServerMessage{
		Type: models.EventGameMatched,
		Payload: models.GameMatchedPayload{
			GameSession:   snapshot,
			YourPlayerID:  p1.ID,
			OpponentIsBot: session.IsBotGame,
		},
	})

	if session.IsBotGame {
		m.bots.Start(session.ID, p2.ID)
	} else {
		m.notifier.NotifyPlayer(p2.ID, models.ServerMessage{
			Type: models.EventGameMatched,
			Payload: models.GameMatchedPayload{
				GameSession:   snapshot,
				YourPlayerID:  p2.ID,
				OpponentIsBot: false,
			},
		})
	}

	return session
}

// CreateTournamentSession creates a bracket-linked session. Both
// players are pre-marked ready and the game auto-activates after a
// short grace delay so clients can show the match-ready screen.
func (m *Manager) CreateTournamentSession(p1, p2 models.PlayerRef, tournamentID, matchID string) *models.GameSession {
	session := m.newSession(p1, p2, models.GameTypeTournament)
	session.TournamentID = tournamentID
	session.MatchID = matchID
	session.ReadyPlayers[p1.ID] = true
	session.ReadyPlayers[p2.ID] = true

	m.mu.Lock()
	m.sessions[session.ID] = session
	snapshot := session.Clone()
	m.mu.Unlock()

	for _, p := range session.Players {
		m.notifier.NotifyPlayer(p.ID, models.ServerMessage{
			Type: models.EventTournamentMatchReady,
			Payload: models.TournamentMatchReadyPayload{
				GameSession:  snapshot,
				YourPlayerID: p.ID,
			},
		})
	}

	gameID := session.ID
	m.timers.Arm(gameID, m.opts.TournamentStartDelay, func() {
		m.autoActivate(gameID)
	})

	return session
}

func (m *Manager) newSession(p1, p2 models.PlayerRef, gameType models.GameType) *models.GameSession {
	return &models.GameSession{
		ID:           "game-" + uuid.NewString(),
		Players:      []models.PlayerRef{p1, p2},
		GameType:     gameType,
		Status:       models.SessionStarting,
		IsBotGame:    p2.IsBot(),
		ReadyPlayers: map[string]bool{},
		Scores: map[string]int{
			p1.ID: 0,
			p2.ID: 0,
		},
		MatchDurationMs: m.opts.MatchDuration.Milliseconds(),
		CreatedAt:       time.Now(),
	}
}

// HandleReady records a player's ready signal; once every participant
// has readied, the session activates and the match clock starts.
func (m *Manager) HandleReady(playerID, gameID string) error {
	m.mu.Lock()
	session, ok := m.sessions[gameID]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	if !session.HasPlayer(playerID) {
		m.mu.Unlock()
		return ErrNotInGame
	}

	session.ReadyPlayers[playerID] = true

	var started *models.GameSession
	if session.Status == models.SessionStarting && len(session.ReadyPlayers) == len(session.Players) {
		m.activateLocked(session)
		started = session.Clone()
	}
	m.mu.Unlock()

	if started != nil {
		m.broadcastGameStart(started)
	}
	return nil
}

// autoActivate flips a tournament session to active once its start
// delay elapses. No-op if the session was torn down in the meantime.
func (m *Manager) autoActivate(gameID string) {
	m.mu.Lock()
	session, ok := m.sessions[gameID]
	if !ok || session.Status != models.SessionStarting {
		m.mu.Unlock()
		return
	}
	m.activateLocked(session)
	started := session.Clone()
	m.mu.Unlock()

	m.broadcastGameStart(started)
}

// activateLocked transitions starting -> active and arms the match
// clock. Caller holds m.mu.
func (m *Manager) activateLocked(session *models.GameSession) {
	now := time.Now()
	session.Status = models.SessionActive
	session.StartedAt = &now

	gameID := session.ID
	m.timers.Arm(gameID, m.opts.MatchDuration, func() {
		m.onMatchTimerExpired(gameID)
	})

	log.Printf("Game %s started, match clock %v", gameID, m.opts.MatchDuration)
}

func (m *Manager) broadcastGameStart(session *models.GameSession) {
	payload := models.GameStartPayload{
		GameID:          session.ID,
		StartedAt:       *session.StartedAt,
		MatchDurationMs: session.MatchDurationMs,
	}
	for _, p := range session.Players {
		m.notifier.NotifyPlayer(p.ID, models.ServerMessage{
			Type:    models.EventGameStart,
			Payload: payload,
		})
	}
}

// HandleMove relays a move verbatim to the other participant. The
// server is a relay and scorekeeper, not a physics simulator. Relay
// only needs the session to exist; moves sent during the ready phase
// pass through unchanged.
func (m *Manager) HandleMove(playerID, gameID, direction string, timestamp int64) error {
	m.mu.Lock()
	session, ok := m.sessions[gameID]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	if !session.HasPlayer(playerID) {
		m.mu.Unlock()
		return ErrNotInGame
	}
	opponent := session.Opponent(playerID)
	m.mu.Unlock()

	if opponent != "" {
		m.notifier.NotifyPlayer(opponent, models.ServerMessage{
			Type: models.EventPlayerMoved,
			Payload: models.PlayerMovedPayload{
				UserID:    playerID,
				GameID:    gameID,
				Direction: direction,
				Timestamp: timestamp,
				IsBot:     models.IsBotID(playerID),
			},
		})
	}
	return nil
}

// injectBotMove is the BotMover: bot moves travel through the identical
// path humans use so downstream relay logic stays uniform. A tick that
// fires after its session is gone is a guarded no-op.
func (m *Manager) injectBotMove(botID, gameID, direction string, timestamp int64) {
	if err := m.HandleMove(botID, gameID, direction, timestamp); err != nil {
		m.bots.Stop(gameID)
	}
}

// HandleScoreUpdate overwrites the sender's last-known score and
// rebroadcasts the score table to both sides.
func (m *Manager) HandleScoreUpdate(playerID, gameID string, currentExp int, timestamp int64) error {
	m.mu.Lock()
	session, ok := m.sessions[gameID]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	if !session.HasPlayer(playerID) {
		m.mu.Unlock()
		return ErrNotInGame
	}

	session.Scores[playerID] = currentExp
	scores := make(map[string]int, len(session.Scores))
	for k, v := range session.Scores {
		scores[k] = v
	}
	players := session.PlayerIDs()
	m.mu.Unlock()

	msg := models.ServerMessage{
		Type: models.EventScoreUpdate,
		Payload: models.ScoreUpdatePayload{
			GameID:    gameID,
			Scores:    scores,
			Timestamp: timestamp,
		},
	}
	for _, id := range players {
		m.notifier.NotifyPlayer(id, msg)
	}
	return nil
}

// HandleMatchEnd finalizes a session from a client-reported result. The
// client report is the authoritative score source but only for the
// session's own participants; strictly greater score wins, equal scores
// are a tie with no winner.
func (m *Manager) HandleMatchEnd(gameID, player1ID, player2ID string, player1Exp, player2Exp int, matchDurationMs int64) (*models.MatchEndResult, error) {
	m.mu.Lock()
	session, ok := m.sessions[gameID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if player1ID == player2ID || !session.HasPlayer(player1ID) || !session.HasPlayer(player2ID) {
		m.mu.Unlock()
		return nil, ErrNotInGame
	}
	completed := m.finalizeLocked(session, player1ID, player2ID, player1Exp, player2Exp, matchDurationMs)
	m.mu.Unlock()

	m.afterFinalize(completed, false)

	return &models.MatchEndResult{
		Result:      models.Result{Success: true},
		WinnerID:    completed.WinnerID,
		IsTie:       completed.IsTie,
		FinalScores: completed.FinalScores,
	}, nil
}

// finalizeLocked applies the terminal state and removes the session
// from the live set. Caller holds m.mu.
func (m *Manager) finalizeLocked(session *models.GameSession, player1ID, player2ID string, player1Exp, player2Exp int, matchDurationMs int64) *models.GameSession {
	var winnerID string
	isTie := player1Exp == player2Exp
	switch {
	case player1Exp > player2Exp:
		winnerID = player1ID
	case player2Exp > player1Exp:
		winnerID = player2ID
	}

	now := time.Now()
	session.Status = models.SessionCompleted
	session.EndedAt = &now
	session.WinnerID = winnerID
	session.IsTie = isTie
	session.FinalScores = map[string]int{
		player1ID: player1Exp,
		player2ID: player2Exp,
	}
	if matchDurationMs > 0 {
		session.MatchDurationMs = matchDurationMs
	}

	m.timers.Cancel(session.ID)
	delete(m.sessions, session.ID)

	return session.Clone()
}

// afterFinalize runs the post-completion fanout: player notification,
// result recording (at most once per session) and bracket advancement.
func (m *Manager) afterFinalize(session *models.GameSession, forced bool) {
	m.bots.Stop(session.ID)

	payload := models.MatchEndedPayload{
		GameID:          session.ID,
		WinnerID:        session.WinnerID,
		IsTie:           session.IsTie,
		FinalScores:     session.FinalScores,
		MatchDurationMs: session.MatchDurationMs,
		Forced:          forced,
	}
	for _, p := range session.Players {
		m.notifier.NotifyPlayer(p.ID, models.ServerMessage{
			Type:    models.EventMatchEnded,
			Payload: payload,
		})
	}

	if m.recorder != nil {
		m.recorder.RecordGameResult(session)
	}

	if session.TournamentID != "" && session.WinnerID != "" && m.reporter != nil {
		m.reporter.ReportMatchResult(session.TournamentID, session.ID, session.WinnerID)
	}
}

// onMatchTimerExpired fires when the match clock runs out. The clock
// does not finalize by itself: the client report remains the score
// authority, so a grace timer is armed and only if no match_end arrives
// within it does the server finalize from the last reported scores.
func (m *Manager) onMatchTimerExpired(gameID string) {
	m.mu.Lock()
	session, ok := m.sessions[gameID]
	if !ok || session.Status != models.SessionActive {
		m.mu.Unlock()
		return
	}
	log.Printf("Match clock expired for game %s, waiting %v for end-of-match report", gameID, m.opts.ForcedEndGrace)
	m.timers.Arm(gameID, m.opts.ForcedEndGrace, func() {
		m.forceFinalize(gameID)
	})
	m.mu.Unlock()
}

// forceFinalize ends a session whose client never reported match_end,
// using the last scores the clients reported via score_update.
func (m *Manager) forceFinalize(gameID string) {
	m.mu.Lock()
	session, ok := m.sessions[gameID]
	if !ok || session.Status != models.SessionActive {
		m.mu.Unlock()
		return
	}
	p1 := session.Players[0].ID
	p2 := session.Players[1].ID
	completed := m.finalizeLocked(session, p1, p2, session.Scores[p1], session.Scores[p2], session.MatchDurationMs)
	m.mu.Unlock()

	log.Printf("Forced finalization of game %s (no match_end received)", gameID)
	m.afterFinalize(completed, true)
}

// JoinExistingGame lets a player join a specific session by id.
func (m *Manager) JoinExistingGame(player models.PlayerRef, gameID string) error {
	m.mu.Lock()
	session, ok := m.sessions[gameID]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	if session.HasPlayer(player.ID) {
		m.mu.Unlock()
		return nil
	}
	if len(session.Players) >= 2 {
		m.mu.Unlock()
		return ErrGameFull
	}
	session.Players = append(session.Players, player)
	session.Scores[player.ID] = 0
	players := session.PlayerIDs()
	m.mu.Unlock()

	msg := models.ServerMessage{
		Type:    models.EventPlayerJoined,
		Payload: models.PlayerJoinedPayload{UserID: player.ID, GameID: gameID},
	}
	for _, id := range players {
		m.notifier.NotifyPlayer(id, msg)
	}
	return nil
}

// HandleDisconnect tears down the disconnecting player's live session,
// if any, within the same call: bot stopped, timer cancelled, session
// removed. Standalone games end without a winner; tournament games are
// awarded to the survivor by forfeit. Returns the removed game id.
func (m *Manager) HandleDisconnect(playerID string) string {
	m.mu.Lock()
	var found *models.GameSession
	for _, s := range m.sessions {
		if s.HasPlayer(playerID) {
			found = s
			break
		}
	}
	if found == nil {
		m.mu.Unlock()
		return ""
	}
	delete(m.sessions, found.ID)
	m.timers.Cancel(found.ID)
	m.mu.Unlock()

	m.bots.Stop(found.ID)
	log.Printf("Ending game %s due to player %s disconnect", found.ID, playerID)

	if found.TournamentID != "" && m.reporter != nil {
		m.reporter.ReportForfeit(found.TournamentID, playerID)
	}
	return found.ID
}

// AbortSession silently tears down a live session: timer cancelled, bot
// stopped, session dropped. No result is recorded and nobody is
// notified; callers announce the outcome themselves.
func (m *Manager) AbortSession(gameID string) {
	m.mu.Lock()
	_, ok := m.sessions[gameID]
	if ok {
		delete(m.sessions, gameID)
		m.timers.Cancel(gameID)
	}
	m.mu.Unlock()

	if ok {
		m.bots.Stop(gameID)
	}
}

// HasActiveSession reports whether the player holds a live (starting or
// active) session. Completed sessions leave the live set immediately.
func (m *Manager) HasActiveSession(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.HasPlayer(playerID) {
			return true
		}
	}
	return false
}

// Session returns a snapshot of a live session.
func (m *Manager) Session(gameID string) (*models.GameSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[gameID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// SessionCount returns the number of live sessions.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CleanupStale tears down sessions stuck in the ready phase longer than
// threshold (matched players that never readied up). Returns the number
// removed.
func (m *Manager) CleanupStale(threshold time.Duration) int {
	m.mu.Lock()
	var stale []*models.GameSession
	for _, s := range m.sessions {
		if s.Status == models.SessionStarting && time.Since(s.CreatedAt) > threshold {
			stale = append(stale, s)
		}
	}
	for _, s := range stale {
		delete(m.sessions, s.ID)
		m.timers.Cancel(s.ID)
	}
	m.mu.Unlock()

	for _, s := range stale {
		m.bots.Stop(s.ID)
		log.Printf("Removed stale game %s (never activated)", s.ID)
	}
	return len(stale)
}

// Shutdown cancels every outstanding timer and bot and drops all live
// sessions.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.sessions = make(map[string]*models.GameSession)
	m.mu.Unlock()

	m.timers.CancelAll()
	m.bots.StopAll()
}
