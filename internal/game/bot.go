package game

import (
	"log"
	"math/rand"
	"sync"
	"time"
)

var botDirections = []string{"up", "down"}

// BotMover feeds a synthesized move into the normal move path, exactly
// as if a human had sent it.
type BotMover func(botID, gameID, direction string, timestamp int64)

type botRunner struct {
	botID  string
	stopCh chan struct{}
}

// BotController drives synthetic opponents. Each bot owns a periodic
// ticker that injects a random up/down move for its session; the ticker
// is stopped the moment the owning session ends.
type BotController struct {
	mu       sync.Mutex
	bots     map[string]*botRunner // sessionID -> runner
	interval time.Duration
	mover    BotMover
}

func NewBotController(interval time.Duration, mover BotMover) *BotController {
	return &BotController{
		bots:     make(map[string]*botRunner),
		interval: interval,
		mover:    mover,
	}
}

// Start begins bot behavior for a session. Starting twice for the same
// session replaces the previous runner.
func (bc *BotController) Start(sessionID, botID string) {
	bc.mu.Lock()
	if existing, ok := bc.bots[sessionID]; ok {
		close(existing.stopCh)
	}
	runner := &botRunner{botID: botID, stopCh: make(chan struct{})}
	bc.bots[sessionID] = runner
	bc.mu.Unlock()

	log.Printf("Starting bot behavior for %s in game %s", botID, sessionID)
	go bc.run(sessionID, runner)
}

// Stop halts the bot for a session. Stopping an absent session is a
// no-op.
func (bc *BotController) Stop(sessionID string) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if runner, ok := bc.bots[sessionID]; ok {
		close(runner.stopCh)
		delete(bc.bots, sessionID)
	}
}

// StopAll halts every bot. Used at shutdown.
func (bc *BotController) StopAll() {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	for id, runner := range bc.bots {
		close(runner.stopCh)
		delete(bc.bots, id)
	}
}

// Active reports whether a bot is running for the session.
func (bc *BotController) Active(sessionID string) bool {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	_, ok := bc.bots[sessionID]
	return ok
}

func (bc *BotController) run(sessionID string, runner *botRunner) {
	ticker := time.NewTicker(bc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-runner.stopCh:
			return
		case <-ticker.C:
			direction := botDirections[rand.Intn(len(botDirections))]
			bc.mover(runner.botID, sessionID, direction, time.Now().UnixMilli())
		}
	}
}
