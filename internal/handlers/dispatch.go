package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"pong-game/internal/game"
	"pong-game/internal/matchmaking"
	"pong-game/internal/models"
	"pong-game/internal/protocol"
	"pong-game/internal/tournament"
)

// ConnectionRegistry is the hub surface the dispatcher needs.
type ConnectionRegistry interface {
	NotifyPlayer(playerID string, msg models.ServerMessage)
	ConnectionCount() int
}

// Dispatcher routes parsed client messages to the queue, game manager
// and tournament engine. Malformed input and business-rule failures are
// answered on the connection; nothing a client sends can drop it.
type Dispatcher struct {
	hub         ConnectionRegistry
	queue       *matchmaking.Queue
	games       *game.Manager
	tournaments *tournament.Engine
}

func NewDispatcher(hub ConnectionRegistry, queue *matchmaking.Queue, games *game.Manager, tournaments *tournament.Engine) *Dispatcher {
	return &Dispatcher{
		hub:         hub,
		queue:       queue,
		games:       games,
		tournaments: tournaments,
	}
}

// Dispatch handles one raw inbound frame from a player.
func (d *Dispatcher) Dispatch(playerID, displayName string, data []byte) {
	var msg protocol.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		d.sendError(playerID, "Invalid message format")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic handling %q from player %s: %v", msg.Type, playerID, r)
			d.sendError(playerID, "Internal server error")
		}
	}()

	switch msg.Type {
	case protocol.TypeMatchmaking:
		d.handleMatchmaking(playerID, displayName, msg.Payload)
	case protocol.TypeGameReady:
		d.handleGameReady(playerID, msg.Payload)
	case protocol.TypeGameJoin:
		d.handleGameJoin(playerID, displayName, msg.Payload)
	case protocol.TypePlayerMove:
		d.handlePlayerMove(playerID, msg.Payload)
	case protocol.TypeScoreUpdate:
		d.handleScoreUpdate(playerID, msg.Payload)
	case protocol.TypeMatchEnd:
		d.handleMatchEnd(playerID, msg.Payload)
	case protocol.TypeGameResult:
		d.handleGameResult(playerID, msg.Payload)
	case protocol.TypeTournamentAction:
		d.handleTournamentAction(playerID, displayName, msg.Payload)
	case protocol.TypeGetTournaments:
		d.handleGetTournaments(playerID)
	case protocol.TypePing:
		d.send(playerID, models.ServerMessage{Type: models.EventPong})
	default:
		d.sendError(playerID, "Unknown message type: "+msg.Type)
	}
}

func (d *Dispatcher) send(playerID string, msg models.ServerMessage) {
	d.hub.NotifyPlayer(playerID, msg)
}

func (d *Dispatcher) sendError(playerID, message string) {
	d.send(playerID, models.ServerMessage{
		Type:    models.EventError,
		Message: message,
	})
}

// decode unmarshals a payload and runs its validation, reporting any
// failure to the player. Returns false when dispatch should stop.
func (d *Dispatcher) decode(playerID string, data json.RawMessage, payload interface{ Validate() []string }) bool {
	if len(data) > 0 {
		if err := json.Unmarshal(data, payload); err != nil {
			d.sendError(playerID, "Invalid payload")
			return false
		}
	}
	if errs := payload.Validate(); len(errs) > 0 {
		d.sendError(playerID, "Validation failed: "+strings.Join(errs, "; "))
		return false
	}
	return true
}

func (d *Dispatcher) handleMatchmaking(playerID, displayName string, data json.RawMessage) {
	var p protocol.MatchmakingPayload
	if !d.decode(playerID, data, &p) {
		return
	}

	if p.Action == "leave" {
		d.queue.Leave(playerID)
		d.send(playerID, models.ServerMessage{
			Type:    models.EventMatchmakingResult,
			Payload: models.MatchmakingResult{Result: models.Result{Success: true, Message: "Left matchmaking queue"}},
		})
		return
	}

	position, queueSize, err := d.queue.Join(
		models.PlayerRef{ID: playerID, DisplayName: displayName},
		models.GameType(p.GameType),
	)
	if err != nil {
		msg := "Failed to join matchmaking"
		if errors.Is(err, matchmaking.ErrInSession) {
			msg = "You are already in an active game"
		}
		d.send(playerID, models.ServerMessage{
			Type:    models.EventMatchmakingResult,
			Payload: models.MatchmakingResult{Result: models.Result{Success: false, Message: msg}},
		})
		return
	}

	d.send(playerID, models.ServerMessage{
		Type: models.EventMatchmakingResult,
		Payload: models.MatchmakingResult{
			Result:    models.Result{Success: true, Message: "Joined matchmaking queue"},
			Position:  position,
			QueueSize: queueSize,
		},
	})
}

func (d *Dispatcher) handleGameReady(playerID string, data json.RawMessage) {
	var p protocol.GameReadyPayload
	if !d.decode(playerID, data, &p) {
		return
	}
	if err := d.games.HandleReady(playerID, p.GameID); err != nil {
		d.sendError(playerID, err.Error())
	}
}

func (d *Dispatcher) handleGameJoin(playerID, displayName string, data json.RawMessage) {
	var p protocol.GameJoinPayload
	if !d.decode(playerID, data, &p) {
		return
	}

	player := models.PlayerRef{ID: playerID, DisplayName: displayName}

	if p.GameID != "" {
		if err := d.games.JoinExistingGame(player, p.GameID); err != nil {
			d.send(playerID, models.ServerMessage{
				Type:    models.EventGameJoinResult,
				Payload: models.Result{Success: false, Message: err.Error()},
			})
			return
		}
		d.send(playerID, models.ServerMessage{
			Type:    models.EventGameJoinResult,
			Payload: models.Result{Success: true},
		})
		return
	}

	// Without a target game this is just matchmaking by another name.
	_, _, err := d.queue.Join(player, models.GameType(p.GameType))
	if err != nil {
		d.send(playerID, models.ServerMessage{
			Type:    models.EventGameJoinResult,
			Payload: models.Result{Success: false, Message: "You are already in an active game"},
		})
		return
	}
	d.send(playerID, models.ServerMessage{
		Type:    models.EventGameJoinResult,
		Payload: models.Result{Success: true, Message: "Searching for an opponent"},
	})
}

func (d *Dispatcher) handlePlayerMove(playerID string, data json.RawMessage) {
	var p protocol.PlayerMovePayload
	if !d.decode(playerID, data, &p) {
		return
	}
	if err := d.games.HandleMove(playerID, p.GameID, p.Direction, p.Timestamp); err != nil {
		d.sendError(playerID, err.Error())
	}
}

func (d *Dispatcher) handleScoreUpdate(playerID string, data json.RawMessage) {
	var p protocol.ScoreUpdatePayload
	if !d.decode(playerID, data, &p) {
		return
	}
	if err := d.games.HandleScoreUpdate(playerID, p.GameID, p.CurrentExp, p.Timestamp); err != nil {
		d.sendError(playerID, err.Error())
		return
	}
	d.send(playerID, models.ServerMessage{
		Type:    models.EventScoreUpdateAck,
		Payload: models.Result{Success: true},
	})
}

func (d *Dispatcher) handleMatchEnd(playerID string, data json.RawMessage) {
	var p protocol.MatchEndPayload
	if !d.decode(playerID, data, &p) {
		return
	}

	result, err := d.games.HandleMatchEnd(p.GameID, p.Player1ID, p.Player2ID, p.Player1Exp, p.Player2Exp, p.MatchDurationMs)
	if err != nil {
		d.send(playerID, models.ServerMessage{
			Type:    models.EventMatchEndAck,
			Payload: models.MatchEndResult{Result: models.Result{Success: false, Message: err.Error()}},
		})
		return
	}
	d.send(playerID, models.ServerMessage{
		Type:    models.EventMatchEndAck,
		Payload: result,
	})
}

// handleGameResult feeds a client-submitted winner into the bracket for
// tournament-linked sessions. Standalone sessions have no bracket to
// advance, so their result is acknowledged as-is.
func (d *Dispatcher) handleGameResult(playerID string, data json.RawMessage) {
	var p protocol.GameResultPayload
	if !d.decode(playerID, data, &p) {
		return
	}

	session, ok := d.games.Session(p.GameID)
	if !ok {
		d.send(playerID, models.ServerMessage{
			Type:    models.EventGameResultDone,
			Payload: models.Result{Success: false, Message: "Game session not found"},
		})
		return
	}
	if session.TournamentID != "" {
		d.tournaments.ReportMatchResult(session.TournamentID, p.GameID, p.WinnerID)
	}
	d.send(playerID, models.ServerMessage{
		Type:    models.EventGameResultDone,
		Payload: models.Result{Success: true},
	})
}

func (d *Dispatcher) handleTournamentAction(playerID, displayName string, data json.RawMessage) {
	var p protocol.TournamentActionPayload
	if !d.decode(playerID, data, &p) {
		return
	}

	player := models.PlayerRef{ID: playerID, DisplayName: displayName}

	var result *models.TournamentActionResult
	switch p.Action {
	case "create":
		result = d.tournaments.Create(player, tournament.CreateData{
			Name:        p.TournamentData.Name,
			Description: p.TournamentData.Description,
			MaxPlayers:  p.TournamentData.MaxPlayers,
			IsPrivate:   p.TournamentData.IsPrivate,
			Password:    p.TournamentData.Password,
		})
	case "join":
		result = d.tournaments.Join(player, p.TournamentID, p.Password)
	case "leave":
		result = d.tournaments.Leave(playerID, p.TournamentID)
	case "start":
		result = d.tournaments.Start(playerID, p.TournamentID)
	case "get_info":
		result = d.tournaments.Info(p.TournamentID)
	}

	d.send(playerID, models.ServerMessage{
		Type:    models.EventTournamentActionResult,
		Payload: result,
	})
}

func (d *Dispatcher) handleGetTournaments(playerID string) {
	d.send(playerID, models.ServerMessage{
		Type: models.EventTournamentsList,
		Payload: models.TournamentsListPayload{
			Success:     true,
			Tournaments: d.tournaments.AvailableTournaments(),
		},
	})
}

// Stats snapshots the live counts shown in the welcome event and the
// stats endpoint.
func (d *Dispatcher) Stats() models.Stats {
	return models.Stats{
		ActiveConnections: d.hub.ConnectionCount(),
		GameSessions:      d.games.SessionCount(),
		MatchmakingQueue:  d.queue.Size(),
		Tournaments:       d.tournaments.Count(),
		ActiveTournaments: d.tournaments.ActiveCount(),
	}
}
