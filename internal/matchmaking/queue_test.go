package matchmaking

import (
	"sync"
	"testing"
	"time"

	"pong-game/internal/models"
)

type capturedMatch struct {
	p1, p2   models.PlayerRef
	gameType models.GameType
}

// matchRecorder collects every pairing the queue makes.
type matchRecorder struct {
	mu      sync.Mutex
	matches []capturedMatch
}

func (r *matchRecorder) create(p1, p2 models.PlayerRef, gameType models.GameType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, capturedMatch{p1: p1, p2: p2, gameType: gameType})
}

func (r *matchRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}

func (r *matchRecorder) last(t *testing.T) capturedMatch {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.matches) == 0 {
		t.Fatalf("expected at least one match")
	}
	return r.matches[len(r.matches)-1]
}

func newTestQueue(rec *matchRecorder) *Queue {
	q := NewQueue(time.Hour, 10*time.Second)
	q.SetMatchCreator(rec.create)
	return q
}

func player(id string) models.PlayerRef {
	return models.PlayerRef{ID: id, DisplayName: "Player " + id}
}

func TestJoinReportsPositionAndSize(t *testing.T) {
	q := newTestQueue(&matchRecorder{})

	pos, size, err := q.Join(player("p1"), models.GameTypeClassic)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if pos != 1 || size != 1 {
		t.Fatalf("want position=1 size=1, got position=%d size=%d", pos, size)
	}
	if !q.Waiting("p1") {
		t.Fatalf("p1 should be waiting after join")
	}
}

func TestSecondJoinPairsImmediately(t *testing.T) {
	rec := &matchRecorder{}
	q := newTestQueue(rec)

	q.Join(player("p1"), models.GameTypeClassic)
	q.Join(player("p2"), models.GameTypeClassic)

	if rec.count() != 1 {
		t.Fatalf("want 1 match, got %d", rec.count())
	}
	m := rec.last(t)
	if m.p1.ID != "p1" || m.p2.ID != "p2" {
		t.Fatalf("want p1 vs p2, got %s vs %s", m.p1.ID, m.p2.ID)
	}
	if q.Size() != 0 {
		t.Fatalf("queue should be empty after pairing, size=%d", q.Size())
	}
}

func TestPairingIsFIFO(t *testing.T) {
	rec := &matchRecorder{}
	q := newTestQueue(rec)

	q.Join(player("first"), models.GameTypeClassic)
	q.Join(player("second"), models.GameTypeClassic)
	q.Join(player("third"), models.GameTypeClassic)
	q.Join(player("fourth"), models.GameTypeClassic)

	if rec.count() != 2 {
		t.Fatalf("want 2 matches, got %d", rec.count())
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.matches[0].p1.ID != "first" || rec.matches[0].p2.ID != "second" {
		t.Fatalf("first match should pair first vs second, got %s vs %s",
			rec.matches[0].p1.ID, rec.matches[0].p2.ID)
	}
	if rec.matches[1].p1.ID != "third" || rec.matches[1].p2.ID != "fourth" {
		t.Fatalf("second match should pair third vs fourth, got %s vs %s",
			rec.matches[1].p1.ID, rec.matches[1].p2.ID)
	}
}

func TestJoinTwiceIsIdempotent(t *testing.T) {
	q := newTestQueue(&matchRecorder{})

	q.Join(player("p1"), models.GameTypeClassic)
	pos, size, err := q.Join(player("p1"), models.GameTypeClassic)
	if err != nil {
		t.Fatalf("repeat join failed: %v", err)
	}
	if pos != 1 || size != 1 {
		t.Fatalf("repeat join should report same slot, got position=%d size=%d", pos, size)
	}
}

func TestJoinRejectedWhileInSession(t *testing.T) {
	q := newTestQueue(&matchRecorder{})
	q.SetSessionChecker(func(playerID string) bool { return playerID == "busy" })

	if _, _, err := q.Join(player("busy"), models.GameTypeClassic); err != ErrInSession {
		t.Fatalf("want ErrInSession, got %v", err)
	}
	if _, _, err := q.Join(player("free"), models.GameTypeClassic); err != nil {
		t.Fatalf("free player should join, got %v", err)
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	q := newTestQueue(&matchRecorder{})

	q.Join(player("p1"), models.GameTypeClassic)
	q.Leave("p1")
	q.Leave("p1")
	q.Leave("never-joined")

	if q.Size() != 0 {
		t.Fatalf("queue should be empty, size=%d", q.Size())
	}
	if q.Waiting("p1") {
		t.Fatalf("p1 should not be waiting after leave")
	}
}

func TestBotFallbackForLonePlayer(t *testing.T) {
	rec := &matchRecorder{}
	q := newTestQueue(rec)

	q.Join(player("lonely"), models.GameTypeClassic)

	// Not past the threshold yet: the tick leaves the player queued.
	q.tick()
	if rec.count() != 0 {
		t.Fatalf("bot matched before fallback threshold")
	}

	q.mu.Lock()
	q.order[0].joinedAt = time.Now().Add(-11 * time.Second)
	q.mu.Unlock()

	q.tick()
	if rec.count() != 1 {
		t.Fatalf("want 1 bot match, got %d", rec.count())
	}
	m := rec.last(t)
	if m.p1.ID != "lonely" {
		t.Fatalf("bot match should keep the human as p1, got %s", m.p1.ID)
	}
	if !m.p2.IsBot() {
		t.Fatalf("opponent should be a bot, got %s", m.p2.ID)
	}
	if m.p2.DisplayName == "" {
		t.Fatalf("bot should carry a generated display name")
	}
	if q.Size() != 0 {
		t.Fatalf("queue should be empty after bot match, size=%d", q.Size())
	}
}

func TestNoBotFallbackWithTwoWaiting(t *testing.T) {
	rec := &matchRecorder{}
	q := newTestQueue(rec)

	q.Join(player("a"), models.GameTypeClassic)
	if rec.count() != 0 {
		t.Fatalf("single player should not match")
	}

	q.mu.Lock()
	q.order[0].joinedAt = time.Now().Add(-time.Minute)
	q.mu.Unlock()

	q.Join(player("b"), models.GameTypeClassic)
	m := rec.last(t)
	if m.p2.IsBot() {
		t.Fatalf("two humans waiting must pair with each other, not a bot")
	}
}
