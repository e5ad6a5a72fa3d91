package matchmaking

import (
	"errors"
	"log"
	"sync"
	"time"

	"pong-game/internal/models"
	"pong-game/internal/utils"

	"github.com/google/uuid"
)

// ErrInSession rejects enqueueing a player who already holds a live game.
var ErrInSession = errors.New("already in an active game session")

// MatchCreator is called with two queued players (or one player and a
// freshly minted bot) to create a game session. Invoked outside the
// queue lock.
type MatchCreator func(p1, p2 models.PlayerRef, gameType models.GameType)

// SessionChecker reports whether a player currently holds a starting or
// active game session.
type SessionChecker func(playerID string) bool

type entry struct {
	player   models.PlayerRef
	gameType models.GameType
	joinedAt time.Time
}

// Queue is the in-memory FIFO matchmaking queue. Players are paired in
// strict arrival order; a lone player waiting past the bot-fallback
// threshold is matched against a synthetic opponent.
type Queue struct {
	mu     sync.Mutex
	order  []*entry
	byID   map[string]*entry
	ticker *time.Ticker
	stopCh chan struct{}

	interval       time.Duration
	botFallback    time.Duration
	matchCreator   MatchCreator
	sessionChecker SessionChecker
}

func NewQueue(interval, botFallback time.Duration) *Queue {
	return &Queue{
		byID:        make(map[string]*entry),
		interval:    interval,
		botFallback: botFallback,
		stopCh:      make(chan struct{}),
	}
}

// SetMatchCreator registers the callback invoked when a pairing is made.
func (q *Queue) SetMatchCreator(fn MatchCreator) {
	q.matchCreator = fn
}

// SetSessionChecker registers the callback that gates enqueueing.
func (q *Queue) SetSessionChecker(fn SessionChecker) {
	q.sessionChecker = fn
}

// Start begins the background matching loop
func (q *Queue) Start() {
	q.ticker = time.NewTicker(q.interval)
	go q.processLoop()
	log.Println("Matchmaking queue started")
}

// Stop halts the background matching loop
func (q *Queue) Stop() {
	if q.ticker != nil {
		q.ticker.Stop()
	}
	close(q.stopCh)
	log.Println("Matchmaking queue stopped")
}

func (q *Queue) processLoop() {
	for {
		select {
		case <-q.ticker.C:
			q.tick()
		case <-q.stopCh:
			return
		}
	}
}

// Join enqueues a player. Joining twice is a no-op that reports the
// current position; joining while holding a live session is rejected.
// The returned position and size reflect the queue before any pairing
// this join may trigger.
func (q *Queue) Join(player models.PlayerRef, gameType models.GameType) (position, queueSize int, err error) {
	if q.sessionChecker != nil && q.sessionChecker(player.ID) {
		return 0, 0, ErrInSession
	}

	q.mu.Lock()
	if _, queued := q.byID[player.ID]; !queued {
		e := &entry{player: player, gameType: gameType, joinedAt: time.Now()}
		q.order = append(q.order, e)
		q.byID[player.ID] = e
	}
	position = q.positionLocked(player.ID)
	queueSize = len(q.order)
	q.mu.Unlock()

	log.Printf("Matchmaking queue: %d players", queueSize)

	// Pair immediately when a second player is already waiting, rather
	// than holding both until the next tick.
	q.matchPass()

	return position, queueSize, nil
}

// Leave removes a player and their wait-time bookkeeping. Removing an
// absent player is a no-op.
func (q *Queue) Leave(playerID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(playerID)
}

// Size returns the number of waiting players.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Waiting reports whether the player is currently queued.
func (q *Queue) Waiting(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.byID[playerID]
	return ok
}

// tick runs one matching cycle: pair the two earliest arrivals, or fall
// back to a bot for a lone player past the wait threshold.
func (q *Queue) tick() {
	if q.matchPass() {
		return
	}

	q.mu.Lock()
	if len(q.order) != 1 {
		q.mu.Unlock()
		return
	}
	e := q.order[0]
	if time.Since(e.joinedAt) <= q.botFallback {
		q.mu.Unlock()
		return
	}
	q.removeLocked(e.player.ID)
	q.mu.Unlock()

	bot := models.PlayerRef{
		ID:          models.BotIDPrefix + uuid.NewString(),
		DisplayName: utils.GenerateBotName(),
	}
	log.Printf("Matching %s with bot %s", e.player.ID, bot.ID)
	if q.matchCreator != nil {
		q.matchCreator(e.player, bot, e.gameType)
	}
}

// matchPass pops the two earliest players and creates a session for
// them. Returns true if a pairing was made.
func (q *Queue) matchPass() bool {
	q.mu.Lock()
	if len(q.order) < 2 {
		q.mu.Unlock()
		return false
	}
	first, second := q.order[0], q.order[1]
	q.removeLocked(first.player.ID)
	q.removeLocked(second.player.ID)
	q.mu.Unlock()

	log.Printf("Matched players: %s vs %s", first.player.ID, second.player.ID)
	if q.matchCreator != nil {
		q.matchCreator(first.player, second.player, first.gameType)
	}
	return true
}

func (q *Queue) positionLocked(playerID string) int {
	for i, e := range q.order {
		if e.player.ID == playerID {
			return i + 1
		}
	}
	return 0
}

func (q *Queue) removeLocked(playerID string) {
	if _, ok := q.byID[playerID]; !ok {
		return
	}
	delete(q.byID, playerID)
	for i, e := range q.order {
		if e.player.ID == playerID {
			q.order = append(q.order[:i], q.order[i+1:]...)
			return
		}
	}
}
