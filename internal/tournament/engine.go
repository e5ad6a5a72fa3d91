package tournament

import (
	"fmt"
	"log"
	"sync"
	"time"

	"pong-game/internal/models"

	"github.com/google/uuid"
)

// Notifier delivers an outbound event to a player's live connection.
type Notifier interface {
	NotifyPlayer(playerID string, msg models.ServerMessage)
}

// Recorder persists completed tournaments.
type Recorder interface {
	RecordTournamentResult(t *models.Tournament)
}

// SessionStarter is implemented by the game manager. The engine calls
// it while holding its own lock; the lock order is engine before
// manager everywhere, so the manager must never call back into the
// engine while holding its lock.
type SessionStarter interface {
	CreateTournamentSession(p1, p2 models.PlayerRef, tournamentID, matchID string) *models.GameSession
	AbortSession(gameID string)
}

// CreateData is the creation request for a tournament.
type CreateData struct {
	Name        string
	Description string
	MaxPlayers  int
	IsPrivate   bool
	Password    string
}

// outMsg is a notification deferred until the engine lock is released.
type outMsg struct {
	playerID string
	msg      models.ServerMessage
}

// Engine owns every tournament and its bracket. All mutation happens
// behind mu; notifications are collected while locked and flushed after
// unlocking so a slow client can never stall bracket bookkeeping.
type Engine struct {
	mu                sync.Mutex
	tournaments       map[string]*models.Tournament
	playerTournaments map[string]string
	pendingStarts     map[string]*time.Timer

	notifier Notifier
	recorder Recorder
	starter  SessionStarter

	startDelay time.Duration
}

func NewEngine(notifier Notifier, recorder Recorder, startDelay time.Duration) *Engine {
	if startDelay == 0 {
		startDelay = 2 * time.Second
	}
	return &Engine{
		tournaments:       make(map[string]*models.Tournament),
		playerTournaments: make(map[string]string),
		pendingStarts:     make(map[string]*time.Timer),
		notifier:          notifier,
		recorder:          recorder,
		startDelay:        startDelay,
	}
}

// SetSessionStarter wires the game manager in. Must be called before
// traffic starts.
func (e *Engine) SetSessionStarter(s SessionStarter) {
	e.starter = s
}

func (e *Engine) flush(outbox []outMsg) {
	for _, o := range outbox {
		e.notifier.NotifyPlayer(o.playerID, o.msg)
	}
}

func fail(format string, args ...any) *models.TournamentActionResult {
	return &models.TournamentActionResult{
		Result: models.Result{Success: false, Message: fmt.Sprintf(format, args...)},
	}
}

// Create makes a new tournament with the creator as its first player.
func (e *Engine) Create(creator models.PlayerRef, data CreateData) *models.TournamentActionResult {
	if data.MaxPlayers == 0 {
		data.MaxPlayers = 8
	}
	if data.MaxPlayers < 4 || data.MaxPlayers > 64 {
		return fail("maxPlayers must be between 4 and 64")
	}
	if data.IsPrivate && data.Password == "" {
		return fail("private tournaments require a password")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, busy := e.playerTournaments[creator.ID]; busy {
		return fail("You are already in a tournament")
	}

	t := &models.Tournament{
		ID:          "tournament-" + uuid.NewString(),
		Name:        data.Name,
		CreatorID:   creator.ID,
		Description: data.Description,
		MaxPlayers:  data.MaxPlayers,
		IsPrivate:   data.IsPrivate,
		Password:    data.Password,
		Status:      models.TournamentWaiting,
		Players: []models.TournamentPlayer{{
			ID:       creator.ID,
			Name:     creator.DisplayName,
			JoinedAt: time.Now(),
		}},
		CreatedAt: time.Now(),
	}

	e.tournaments[t.ID] = t
	e.playerTournaments[creator.ID] = t.ID

	log.Printf("Tournament %s (%q) created by %s", t.ID, t.Name, creator.ID)
	return &models.TournamentActionResult{
		Result:     models.Result{Success: true},
		Tournament: t.View(),
	}
}

// Join adds a player to a waiting tournament. Filling the last slot
// arms the auto-start timer.
func (e *Engine) Join(player models.PlayerRef, tournamentID, password string) *models.TournamentActionResult {
	e.mu.Lock()

	t, ok := e.tournaments[tournamentID]
	if !ok {
		e.mu.Unlock()
		return fail("Tournament not found")
	}
	if t.Status != models.TournamentWaiting {
		e.mu.Unlock()
		return fail("Tournament has already started")
	}
	if len(t.Players) >= t.MaxPlayers {
		e.mu.Unlock()
		return fail("Tournament is full")
	}
	if t.IsPrivate && password != t.Password {
		e.mu.Unlock()
		return fail("Invalid tournament password")
	}
	if current, busy := e.playerTournaments[player.ID]; busy {
		e.mu.Unlock()
		if current == tournamentID {
			return fail("You are already in this tournament")
		}
		return fail("You are already in a tournament")
	}

	joined := models.TournamentPlayer{
		ID:       player.ID,
		Name:     player.DisplayName,
		JoinedAt: time.Now(),
	}
	t.Players = append(t.Players, joined)
	e.playerTournaments[player.ID] = tournamentID

	outbox := e.broadcastLocked(t, models.ServerMessage{
		Type: models.EventTournamentPlayerJoined,
		Payload: models.TournamentPlayerJoinedPayload{
			TournamentID: t.ID,
			Player:       joined,
			TotalPlayers: len(t.Players),
			MaxPlayers:   t.MaxPlayers,
		},
	}, "")

	if len(t.Players) == t.MaxPlayers {
		e.armAutoStartLocked(t.ID)
	}

	view := t.View()
	e.mu.Unlock()

	e.flush(outbox)
	return &models.TournamentActionResult{
		Result:     models.Result{Success: true},
		Tournament: view,
	}
}

// armAutoStartLocked schedules the auto-start that follows a tournament
// reaching capacity. Caller holds e.mu.
func (e *Engine) armAutoStartLocked(tournamentID string) {
	if old, ok := e.pendingStarts[tournamentID]; ok {
		old.Stop()
	}
	e.pendingStarts[tournamentID] = time.AfterFunc(e.startDelay, func() {
		e.autoStart(tournamentID)
	})
}

// autoStart begins a full tournament after the capacity grace delay.
// No-op if the tournament emptied out or started in the meantime.
func (e *Engine) autoStart(tournamentID string) {
	e.mu.Lock()
	delete(e.pendingStarts, tournamentID)

	t, ok := e.tournaments[tournamentID]
	if !ok || t.Status != models.TournamentWaiting || len(t.Players) < t.MaxPlayers {
		e.mu.Unlock()
		return
	}
	outbox := e.startLocked(t)
	e.mu.Unlock()

	e.flush(outbox)
}

// Start begins a tournament on the creator's request. The player count
// must be a power of two of at least four; starting below the declared
// capacity is allowed as long as that holds.
func (e *Engine) Start(playerID, tournamentID string) *models.TournamentActionResult {
	e.mu.Lock()

	t, ok := e.tournaments[tournamentID]
	if !ok {
		e.mu.Unlock()
		return fail("Tournament not found")
	}
	if t.CreatorID != playerID {
		e.mu.Unlock()
		return fail("Only the tournament creator can start it")
	}
	if t.Status != models.TournamentWaiting {
		e.mu.Unlock()
		return fail("Tournament has already started")
	}
	if len(t.Players) < 4 || !isPowerOfTwo(len(t.Players)) {
		e.mu.Unlock()
		return fail("Tournament needs a power-of-two player count (minimum 4) to start")
	}

	if timer, pending := e.pendingStarts[tournamentID]; pending {
		timer.Stop()
		delete(e.pendingStarts, tournamentID)
	}

	outbox := e.startLocked(t)
	view := t.View()
	e.mu.Unlock()

	e.flush(outbox)
	return &models.TournamentActionResult{
		Result:     models.Result{Success: true},
		Tournament: view,
	}
}

// startLocked generates the bracket, flips the tournament to
// in_progress and launches round 1. Caller holds e.mu and has already
// validated the player count.
func (e *Engine) startLocked(t *models.Tournament) []outMsg {
	now := time.Now()
	t.Status = models.TournamentInProgress
	t.StartedAt = &now
	t.CurrentRound = 1
	t.Bracket = generateBracket(t.Players)

	log.Printf("Tournament %s started with %d players, %d bracket matches",
		t.ID, len(t.Players), len(t.Bracket))

	outbox := e.broadcastLocked(t, models.ServerMessage{
		Type: models.EventTournamentStarted,
		Payload: models.TournamentStartedPayload{
			TournamentID: t.ID,
			Tournament:   t.View(),
		},
	}, "")

	return append(outbox, e.startRoundLocked(t)...)
}

// startRoundLocked creates a game session for every fully-slotted
// waiting match of the current round and announces the round. Caller
// holds e.mu.
func (e *Engine) startRoundLocked(t *models.Tournament) []outMsg {
	matches := roundMatches(t.Bracket, t.CurrentRound)

	for _, m := range matches {
		if m.Status != models.MatchWaiting || m.Player1 == nil || m.Player2 == nil {
			continue
		}
		session := e.starter.CreateTournamentSession(
			models.PlayerRef{ID: m.Player1.ID, DisplayName: m.Player1.Name},
			models.PlayerRef{ID: m.Player2.ID, DisplayName: m.Player2.Name},
			t.ID, m.ID,
		)
		m.GameID = session.ID
		m.Status = models.MatchInProgress
	}

	views := make([]*models.MatchView, len(matches))
	for i, m := range matches {
		views[i] = m.View()
	}

	return e.broadcastLocked(t, models.ServerMessage{
		Type: models.EventTournamentRoundStarted,
		Payload: models.TournamentRoundStartedPayload{
			TournamentID: t.ID,
			Round:        t.CurrentRound,
			Matches:      views,
		},
	}, "")
}

// Leave removes a player from a tournament. Before start this is an
// outright removal; after start the player is eliminated in place and
// any live match is forfeited to the opponent.
func (e *Engine) Leave(playerID, tournamentID string) *models.TournamentActionResult {
	e.mu.Lock()

	t, ok := e.tournaments[tournamentID]
	if !ok {
		e.mu.Unlock()
		return fail("Tournament not found")
	}

	idx := -1
	for i, p := range t.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		e.mu.Unlock()
		return fail("You are not in this tournament")
	}

	var outbox []outMsg
	switch t.Status {
	case models.TournamentWaiting:
		outbox = e.removeWaitingPlayerLocked(t, idx)
	case models.TournamentInProgress:
		outbox = e.eliminateLocked(t, playerID, "left")
	default:
		e.mu.Unlock()
		return fail("Tournament is already completed")
	}
	e.mu.Unlock()

	e.flush(outbox)
	return &models.TournamentActionResult{Result: models.Result{Success: true}}
}

// removeWaitingPlayerLocked drops a player from a pre-start tournament.
// The creator leaving hands ownership to the earliest remaining joiner;
// the last player leaving deletes the tournament. Caller holds e.mu.
func (e *Engine) removeWaitingPlayerLocked(t *models.Tournament, idx int) []outMsg {
	playerID := t.Players[idx].ID
	t.Players = append(t.Players[:idx], t.Players[idx+1:]...)
	delete(e.playerTournaments, playerID)

	if timer, pending := e.pendingStarts[t.ID]; pending {
		timer.Stop()
		delete(e.pendingStarts, t.ID)
	}

	if len(t.Players) == 0 {
		delete(e.tournaments, t.ID)
		log.Printf("Tournament %s deleted (last player left)", t.ID)
		return nil
	}
	if t.CreatorID == playerID {
		t.CreatorID = t.Players[0].ID
		log.Printf("Tournament %s ownership transferred to %s", t.ID, t.CreatorID)
	}

	return e.broadcastLocked(t, models.ServerMessage{
		Type: models.EventTournamentPlayerLeft,
		Payload: models.TournamentPlayerLeftPayload{
			TournamentID: t.ID,
			PlayerID:     playerID,
			TotalPlayers: len(t.Players),
			MaxPlayers:   t.MaxPlayers,
		},
	}, "")
}

// eliminateLocked marks an in-progress participant as out of the
// tournament and forfeits their live match, if any, to the opponent.
// Caller holds e.mu. Idempotent for already-eliminated players.
func (e *Engine) eliminateLocked(t *models.Tournament, playerID, reason string) []outMsg {
	var player *models.TournamentPlayer
	for i := range t.Players {
		if t.Players[i].ID == playerID {
			player = &t.Players[i]
			break
		}
	}
	if player == nil || player.IsEliminated {
		return nil
	}
	player.IsEliminated = true
	delete(e.playerTournaments, playerID)

	outbox := e.broadcastLocked(t, models.ServerMessage{
		Type: models.EventTournamentPlayerOut,
		Payload: models.TournamentPlayerEliminatedPayload{
			TournamentID: t.ID,
			PlayerID:     playerID,
			Reason:       reason,
		},
	}, "")

	for _, m := range roundMatches(t.Bracket, t.CurrentRound) {
		if m.Status == models.MatchCompleted || !m.HasPlayer(playerID) {
			continue
		}
		opponent := m.OpponentOf(playerID)
		if m.GameID != "" {
			e.starter.AbortSession(m.GameID)
		}
		if opponent != nil {
			outbox = append(outbox, e.completeMatchLocked(t, m, opponent.ID)...)
		}
		break
	}
	return outbox
}

// ReportMatchResult advances the bracket with the outcome of a finished
// tournament-linked game session. A stale report for a match that is no
// longer in progress is a guarded no-op.
func (e *Engine) ReportMatchResult(tournamentID, gameID, winnerID string) {
	e.mu.Lock()

	t, ok := e.tournaments[tournamentID]
	if !ok || t.Status != models.TournamentInProgress {
		e.mu.Unlock()
		return
	}

	var match *models.BracketMatch
	for _, m := range t.Bracket {
		if m.GameID == gameID {
			match = m
			break
		}
	}
	if match == nil || match.Status != models.MatchInProgress || !match.HasPlayer(winnerID) {
		e.mu.Unlock()
		return
	}

	outbox := e.completeMatchLocked(t, match, winnerID)
	e.mu.Unlock()

	e.flush(outbox)
}

// ReportMatchResultByMatch completes a bracket match addressed by
// tournament and match id rather than by game session. This is the
// REST reporting path, and the only way to complete a match whose
// session ended without a bracket-advancing result (a tie or a result
// that never arrived leaves the match in progress with no live game).
func (e *Engine) ReportMatchResultByMatch(tournamentID, matchID, winnerID string) *models.TournamentActionResult {
	e.mu.Lock()

	t, ok := e.tournaments[tournamentID]
	if !ok {
		e.mu.Unlock()
		return fail("Tournament not found")
	}
	if t.Status != models.TournamentInProgress {
		e.mu.Unlock()
		return fail("Tournament is not in progress")
	}

	var match *models.BracketMatch
	for _, m := range t.Bracket {
		if m.ID == matchID {
			match = m
			break
		}
	}
	if match == nil {
		e.mu.Unlock()
		return fail("Match not found")
	}
	if match.Status != models.MatchInProgress {
		e.mu.Unlock()
		return fail("Match is not in progress")
	}
	if !match.HasPlayer(winnerID) {
		e.mu.Unlock()
		return fail("Winner is not a participant of this match")
	}

	if match.GameID != "" {
		e.starter.AbortSession(match.GameID)
	}
	outbox := e.completeMatchLocked(t, match, winnerID)
	view := t.View()
	e.mu.Unlock()

	e.flush(outbox)
	return &models.TournamentActionResult{
		Result:     models.Result{Success: true},
		Tournament: view,
	}
}

// ReportForfeit eliminates a player who dropped out of an in-progress
// tournament and awards their live match to the opponent.
func (e *Engine) ReportForfeit(tournamentID, playerID string) {
	e.mu.Lock()

	t, ok := e.tournaments[tournamentID]
	if !ok || t.Status != models.TournamentInProgress {
		e.mu.Unlock()
		return
	}
	outbox := e.eliminateLocked(t, playerID, "forfeit")
	e.mu.Unlock()

	e.flush(outbox)
}

// completeMatchLocked records a match winner, eliminates the loser and
// advances the round when it is the last match standing. Caller holds
// e.mu.
func (e *Engine) completeMatchLocked(t *models.Tournament, match *models.BracketMatch, winnerID string) []outMsg {
	winner := match.Player1
	loser := match.Player2
	if match.Player2 != nil && match.Player2.ID == winnerID {
		winner, loser = match.Player2, match.Player1
	}

	match.Winner = winner
	match.Status = models.MatchCompleted

	var outbox []outMsg
	if loser != nil {
		for i := range t.Players {
			if t.Players[i].ID == loser.ID && !t.Players[i].IsEliminated {
				t.Players[i].IsEliminated = true
				delete(e.playerTournaments, loser.ID)
				break
			}
		}
	}

	outbox = append(outbox, e.broadcastLocked(t, models.ServerMessage{
		Type: models.EventTournamentMatchCompleted,
		Payload: models.TournamentMatchCompletedPayload{
			TournamentID: t.ID,
			MatchID:      match.ID,
			Winner:       winner,
			Match:        match.View(),
		},
	}, "")...)

	return append(outbox, e.maybeAdvanceLocked(t)...)
}

// maybeAdvanceLocked checks whether the current round is finished and
// either seeds the next one or completes the tournament. Caller holds
// e.mu.
func (e *Engine) maybeAdvanceLocked(t *models.Tournament) []outMsg {
	current := roundMatches(t.Bracket, t.CurrentRound)
	var winners []*models.TournamentPlayer
	for _, m := range current {
		if m.Status != models.MatchCompleted || m.Winner == nil {
			return nil
		}
		winners = append(winners, m.Winner)
	}

	if len(winners) == 1 {
		return e.completeTournamentLocked(t, winners[0])
	}

	t.CurrentRound++
	next := roundMatches(t.Bracket, t.CurrentRound)
	for i, w := range winners {
		target := next[i/2]
		if i%2 == 0 {
			target.Player1 = w
		} else {
			target.Player2 = w
		}
	}

	log.Printf("Tournament %s advancing to round %d (%d matches)", t.ID, t.CurrentRound, len(next))
	return e.startRoundLocked(t)
}

// completeTournamentLocked finalizes the tournament, records the result
// and releases every participant. Caller holds e.mu.
func (e *Engine) completeTournamentLocked(t *models.Tournament, winner *models.TournamentPlayer) []outMsg {
	now := time.Now()
	t.Status = models.TournamentCompleted
	t.WinnerID = winner.ID
	t.CompletedAt = &now

	for _, p := range t.Players {
		delete(e.playerTournaments, p.ID)
	}

	log.Printf("Tournament %s completed, winner %s", t.ID, winner.ID)

	if e.recorder != nil {
		e.recorder.RecordTournamentResult(t)
	}

	return e.broadcastLocked(t, models.ServerMessage{
		Type: models.EventTournamentCompleted,
		Payload: models.TournamentCompletedPayload{
			TournamentID: t.ID,
			Winner:       winner,
			Tournament:   t.View(),
		},
	}, "")
}

// HandleDisconnect removes the player from whichever tournament they
// are in: pre-start as a normal leave, post-start as a forfeit.
func (e *Engine) HandleDisconnect(playerID string) {
	e.mu.Lock()

	tournamentID, ok := e.playerTournaments[playerID]
	if !ok {
		e.mu.Unlock()
		return
	}
	t, ok := e.tournaments[tournamentID]
	if !ok {
		delete(e.playerTournaments, playerID)
		e.mu.Unlock()
		return
	}

	var outbox []outMsg
	switch t.Status {
	case models.TournamentWaiting:
		for i, p := range t.Players {
			if p.ID == playerID {
				outbox = e.removeWaitingPlayerLocked(t, i)
				break
			}
		}
	case models.TournamentInProgress:
		outbox = e.eliminateLocked(t, playerID, "disconnected")
	}
	e.mu.Unlock()

	e.flush(outbox)
}

// Info returns the sanitized snapshot of one tournament.
func (e *Engine) Info(tournamentID string) *models.TournamentActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tournaments[tournamentID]
	if !ok {
		return fail("Tournament not found")
	}
	return &models.TournamentActionResult{
		Result:     models.Result{Success: true},
		Tournament: t.View(),
	}
}

// AvailableTournaments lists tournaments still open for joining.
func (e *Engine) AvailableTournaments() []*models.TournamentView {
	e.mu.Lock()
	defer e.mu.Unlock()

	views := make([]*models.TournamentView, 0)
	for _, t := range e.tournaments {
		if t.Status == models.TournamentWaiting && len(t.Players) < t.MaxPlayers {
			views = append(views, t.View())
		}
	}
	return views
}

// TournamentsFor lists every tournament the player participates in.
func (e *Engine) TournamentsFor(playerID string) []*models.TournamentView {
	e.mu.Lock()
	defer e.mu.Unlock()

	views := make([]*models.TournamentView, 0)
	for _, t := range e.tournaments {
		for _, p := range t.Players {
			if p.ID == playerID {
				views = append(views, t.View())
				break
			}
		}
	}
	return views
}

// Count returns the total number of tracked tournaments.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tournaments)
}

// ActiveCount returns the number of in-progress tournaments.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, t := range e.tournaments {
		if t.Status == models.TournamentInProgress {
			n++
		}
	}
	return n
}

// Shutdown cancels pending auto-starts and drops all tournaments. Game
// sessions and their timers are the game manager's to stop.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, timer := range e.pendingStarts {
		timer.Stop()
		delete(e.pendingStarts, id)
	}
	e.tournaments = make(map[string]*models.Tournament)
	e.playerTournaments = make(map[string]string)
}

// broadcastLocked queues msg for every participant except skipID.
// Caller holds e.mu.
func (e *Engine) broadcastLocked(t *models.Tournament, msg models.ServerMessage, skipID string) []outMsg {
	outbox := make([]outMsg, 0, len(t.Players))
	for _, p := range t.Players {
		if p.ID == skipID {
			continue
		}
		outbox = append(outbox, outMsg{playerID: p.ID, msg: msg})
	}
	return outbox
}
