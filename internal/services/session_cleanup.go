package services

import (
	"log"
	"time"
)

// StaleSessionSweeper is implemented by the game manager.
type StaleSessionSweeper interface {
	CleanupStale(threshold time.Duration) int
}

// SessionCleanupService periodically removes sessions whose players
// were matched but never readied up, so an abandoned ready screen
// cannot hold its players hostage forever.
type SessionCleanupService struct {
	sweeper        StaleSessionSweeper
	stopCh         chan struct{}
	interval       time.Duration
	staleThreshold time.Duration
}

func NewSessionCleanupService(sweeper StaleSessionSweeper, interval, staleThreshold time.Duration) *SessionCleanupService {
	if interval == 0 {
		interval = 1 * time.Minute
	}
	if staleThreshold == 0 {
		staleThreshold = 2 * time.Minute
	}
	return &SessionCleanupService{
		sweeper:        sweeper,
		stopCh:         make(chan struct{}),
		interval:       interval,
		staleThreshold: staleThreshold,
	}
}

// Start begins the periodic sweep loop in a background goroutine.
func (s *SessionCleanupService) Start() {
	go s.runCleanupLoop()
	log.Printf("Session cleanup service started (interval: %v, threshold: %v)", s.interval, s.staleThreshold)
}

// Stop signals the sweep loop to exit.
func (s *SessionCleanupService) Stop() {
	close(s.stopCh)
	log.Println("Session cleanup service stopped")
}

func (s *SessionCleanupService) runCleanupLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if removed := s.sweeper.CleanupStale(s.staleThreshold); removed > 0 {
				log.Printf("Cleanup pass removed %d stale game sessions", removed)
			}
		}
	}
}
