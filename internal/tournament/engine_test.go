package tournament

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"pong-game/internal/models"

	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[string][]models.ServerMessage
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(map[string][]models.ServerMessage)}
}

func (n *fakeNotifier) NotifyPlayer(playerID string, msg models.ServerMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[playerID] = append(n.sent[playerID], msg)
}

func (n *fakeNotifier) countOfType(playerID, msgType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, m := range n.sent[playerID] {
		if m.Type == msgType {
			count++
		}
	}
	return count
}

type fakeRecorder struct {
	mu       sync.Mutex
	recorded []*models.Tournament
}

func (r *fakeRecorder) RecordTournamentResult(t *models.Tournament) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded = append(r.recorded, t)
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recorded)
}

// fakeStarter hands out session ids without running real games.
type fakeStarter struct {
	mu      sync.Mutex
	created []*models.GameSession
	aborted []string
	nextID  int
}

func (s *fakeStarter) CreateTournamentSession(p1, p2 models.PlayerRef, tournamentID, matchID string) *models.GameSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	session := &models.GameSession{
		ID:           fmt.Sprintf("game-%d", s.nextID),
		Players:      []models.PlayerRef{p1, p2},
		GameType:     models.GameTypeTournament,
		Status:       models.SessionStarting,
		TournamentID: tournamentID,
		MatchID:      matchID,
	}
	s.created = append(s.created, session)
	return session
}

func (s *fakeStarter) AbortSession(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = append(s.aborted, gameID)
}

func newTestEngine() (*Engine, *fakeNotifier, *fakeRecorder, *fakeStarter) {
	notifier := newFakeNotifier()
	recorder := &fakeRecorder{}
	starter := &fakeStarter{}
	e := NewEngine(notifier, recorder, time.Hour)
	e.SetSessionStarter(starter)
	return e, notifier, recorder, starter
}

func ref(id string) models.PlayerRef {
	return models.PlayerRef{ID: id, DisplayName: "Player " + id}
}

// fillTournament creates a tournament owned by p0 and joins n-1 more
// players.
func fillTournament(t *testing.T, e *Engine, n int) string {
	t.Helper()
	result := e.Create(ref("p0"), CreateData{Name: "Cup", MaxPlayers: 64})
	require.True(t, result.Success, result.Message)
	id := result.Tournament.ID
	for i := 1; i < n; i++ {
		join := e.Join(ref(fmt.Sprintf("p%d", i)), id, "")
		require.True(t, join.Success, join.Message)
	}
	return id
}

func TestCreateValidatesInput(t *testing.T) {
	e, _, _, _ := newTestEngine()

	require.False(t, e.Create(ref("p1"), CreateData{Name: "Cup", MaxPlayers: 3}).Success)
	require.False(t, e.Create(ref("p1"), CreateData{Name: "Cup", MaxPlayers: 100}).Success)
	require.False(t, e.Create(ref("p1"), CreateData{Name: "Cup", IsPrivate: true}).Success)

	result := e.Create(ref("p1"), CreateData{Name: "Cup"})
	require.True(t, result.Success)
	require.Equal(t, 8, result.Tournament.MaxPlayers, "maxPlayers should default to 8")
	require.Len(t, result.Tournament.Players, 1, "creator auto-joins")
	require.Equal(t, "p1", result.Tournament.CreatorID)
}

func TestCreateWhileInTournamentRejected(t *testing.T) {
	e, _, _, _ := newTestEngine()

	require.True(t, e.Create(ref("p1"), CreateData{Name: "First"}).Success)
	require.False(t, e.Create(ref("p1"), CreateData{Name: "Second"}).Success)
}

func TestJoinRejections(t *testing.T) {
	e, _, _, _ := newTestEngine()

	require.False(t, e.Join(ref("p1"), "missing", "").Success)

	created := e.Create(ref("owner"), CreateData{Name: "Private Cup", MaxPlayers: 4, IsPrivate: true, Password: "sekrit"})
	require.True(t, created.Success)
	id := created.Tournament.ID

	require.False(t, e.Join(ref("p1"), id, "wrong").Success, "wrong password")
	require.True(t, e.Join(ref("p1"), id, "sekrit").Success)
	require.False(t, e.Join(ref("p1"), id, "sekrit").Success, "double join")

	require.True(t, e.Join(ref("p2"), id, "sekrit").Success)
	require.True(t, e.Join(ref("p3"), id, "sekrit").Success)
	require.False(t, e.Join(ref("p4"), id, "sekrit").Success, "full")
}

func TestJoinBroadcastsToParticipants(t *testing.T) {
	e, notifier, _, _ := newTestEngine()

	fillTournament(t, e, 3)

	// Creator saw both later joins; the first joiner saw the second.
	require.Equal(t, 2, notifier.countOfType("p0", models.EventTournamentPlayerJoined))
	require.Equal(t, 2, notifier.countOfType("p1", models.EventTournamentPlayerJoined))
}

func TestViewNeverLeaksPassword(t *testing.T) {
	e, _, _, _ := newTestEngine()

	created := e.Create(ref("owner"), CreateData{Name: "Private", MaxPlayers: 4, IsPrivate: true, Password: "sekrit"})
	require.True(t, created.Success)

	info := e.Info(created.Tournament.ID)
	require.True(t, info.Success)
	require.True(t, info.Tournament.IsPrivate)
	// TournamentView has no password field at all; spot-check the
	// snapshot is the sanitized shape.
	require.NotNil(t, info.Tournament)
}

func TestLeaveTransfersOwnershipAndDeletesEmpty(t *testing.T) {
	e, _, _, _ := newTestEngine()

	id := fillTournament(t, e, 2)

	require.True(t, e.Leave("p0", id).Success)
	info := e.Info(id)
	require.True(t, info.Success)
	require.Equal(t, "p1", info.Tournament.CreatorID, "ownership transfers to next joiner")

	require.True(t, e.Leave("p1", id).Success)
	require.False(t, e.Info(id).Success, "empty tournament is deleted")
}

func TestLeaveNonMemberRejected(t *testing.T) {
	e, _, _, _ := newTestEngine()

	id := fillTournament(t, e, 2)
	require.False(t, e.Leave("stranger", id).Success)
}

func TestStartRequiresCreatorAndPowerOfTwo(t *testing.T) {
	e, _, _, _ := newTestEngine()

	id := fillTournament(t, e, 3)

	require.False(t, e.Start("p1", id).Success, "non-creator cannot start")
	require.False(t, e.Start("p0", id).Success, "3 players is not a valid bracket")

	require.True(t, e.Join(ref("p3"), id, "").Success)
	require.True(t, e.Start("p0", id).Success)
	require.False(t, e.Start("p0", id).Success, "double start")
}

func TestStartGeneratesFullBracket(t *testing.T) {
	e, notifier, _, starter := newTestEngine()

	id := fillTournament(t, e, 8)
	require.True(t, e.Start("p0", id).Success)

	info := e.Info(id)
	require.True(t, info.Success)
	tv := info.Tournament
	require.Equal(t, models.TournamentInProgress, tv.Status)
	require.Equal(t, 1, tv.CurrentRound)
	// 8 players: 4 + 2 + 1 matches.
	require.Len(t, tv.Bracket, 7)

	seen := make(map[string]int)
	for _, m := range tv.Bracket {
		switch m.Round {
		case 1:
			require.Equal(t, models.MatchInProgress, m.Status)
			require.NotEmpty(t, m.GameID)
			require.NotNil(t, m.Player1)
			require.NotNil(t, m.Player2)
			seen[m.Player1.ID]++
			seen[m.Player2.ID]++
		default:
			require.Equal(t, models.MatchWaiting, m.Status)
			require.Nil(t, m.Player1)
			require.Nil(t, m.Player2)
		}
	}
	require.Len(t, seen, 8, "every player seeded")
	for id, n := range seen {
		require.Equal(t, 1, n, "player %s seeded %d times", id, n)
	}

	starter.mu.Lock()
	require.Len(t, starter.created, 4, "one session per round-1 match")
	starter.mu.Unlock()

	require.Equal(t, 1, notifier.countOfType("p0", models.EventTournamentStarted))
	require.Equal(t, 1, notifier.countOfType("p0", models.EventTournamentRoundStarted))
}

// playRound reports a win for player1 of every in-progress match of the
// current round.
func playRound(t *testing.T, e *Engine, id string) {
	t.Helper()
	info := e.Info(id)
	require.True(t, info.Success)
	round := info.Tournament.CurrentRound
	for _, m := range info.Tournament.Bracket {
		if m.Round == round && m.Status == models.MatchInProgress {
			e.ReportMatchResult(id, m.GameID, m.Player1.ID)
		}
	}
}

func TestTournamentRunsToCompletion(t *testing.T) {
	e, notifier, recorder, _ := newTestEngine()

	id := fillTournament(t, e, 4)
	require.True(t, e.Start("p0", id).Success)

	playRound(t, e, id)
	info := e.Info(id)
	require.True(t, info.Success)
	require.Equal(t, 2, info.Tournament.CurrentRound, "round advances when all matches complete")

	playRound(t, e, id)
	info = e.Info(id)
	require.True(t, info.Success)
	require.Equal(t, models.TournamentCompleted, info.Tournament.Status)
	require.NotEmpty(t, info.Tournament.WinnerID)
	require.NotNil(t, info.Tournament.CompletedAt)

	require.Equal(t, 1, recorder.count(), "completed tournament recorded once")
	require.Equal(t, 1, notifier.countOfType("p0", models.EventTournamentCompleted))

	// Participants are released and free to start over.
	winner := info.Tournament.WinnerID
	require.True(t, e.Create(ref(winner), CreateData{Name: "Next Cup"}).Success)
}

func TestStaleMatchResultIgnored(t *testing.T) {
	e, _, recorder, _ := newTestEngine()

	id := fillTournament(t, e, 4)
	require.True(t, e.Start("p0", id).Success)

	info := e.Info(id)
	var m *models.BracketMatch
	for _, bm := range info.Tournament.Bracket {
		if bm.Round == 1 {
			m = bm
			break
		}
	}

	e.ReportMatchResult(id, m.GameID, m.Player1.ID)
	// Duplicate and bogus reports change nothing.
	e.ReportMatchResult(id, m.GameID, m.Player2.ID)
	e.ReportMatchResult(id, "no-such-game", m.Player1.ID)

	fresh := e.Info(id)
	for _, bm := range fresh.Tournament.Bracket {
		if bm.ID == m.ID {
			require.Equal(t, m.Player1.ID, bm.Winner.ID)
		}
	}
	require.Equal(t, 0, recorder.count())
}

func TestReportByMatchIDCompletesMatch(t *testing.T) {
	e, _, _, starter := newTestEngine()

	id := fillTournament(t, e, 4)
	require.True(t, e.Start("p0", id).Success)

	info := e.Info(id)
	var m *models.BracketMatch
	for _, bm := range info.Tournament.Bracket {
		if bm.Round == 1 {
			m = bm
			break
		}
	}

	// Addressed by match id, not by game session: this is how a match
	// whose session ended in a tie gets resolved.
	result := e.ReportMatchResultByMatch(id, m.ID, m.Player2.ID)
	require.True(t, result.Success, result.Message)

	fresh := e.Info(id)
	for _, bm := range fresh.Tournament.Bracket {
		if bm.ID == m.ID {
			require.Equal(t, models.MatchCompleted, bm.Status)
			require.Equal(t, m.Player2.ID, bm.Winner.ID)
		}
	}

	starter.mu.Lock()
	require.Contains(t, starter.aborted, m.GameID, "dangling session torn down")
	starter.mu.Unlock()
}

func TestReportByMatchIDRejections(t *testing.T) {
	e, _, _, _ := newTestEngine()

	id := fillTournament(t, e, 4)

	require.False(t, e.ReportMatchResultByMatch("missing", "m", "p1").Success)
	require.False(t, e.ReportMatchResultByMatch(id, "m", "p1").Success, "not started yet")

	require.True(t, e.Start("p0", id).Success)

	info := e.Info(id)
	var m *models.BracketMatch
	for _, bm := range info.Tournament.Bracket {
		if bm.Round == 1 {
			m = bm
			break
		}
	}

	require.False(t, e.ReportMatchResultByMatch(id, "no-such-match", m.Player1.ID).Success)
	require.False(t, e.ReportMatchResultByMatch(id, m.ID, "outsider").Success, "winner must be a participant")

	require.True(t, e.ReportMatchResultByMatch(id, m.ID, m.Player1.ID).Success)
	require.False(t, e.ReportMatchResultByMatch(id, m.ID, m.Player2.ID).Success, "completed match stays completed")
}

func TestForfeitAdvancesOpponent(t *testing.T) {
	e, notifier, _, starter := newTestEngine()

	id := fillTournament(t, e, 4)
	require.True(t, e.Start("p0", id).Success)

	info := e.Info(id)
	var m *models.BracketMatch
	for _, bm := range info.Tournament.Bracket {
		if bm.Round == 1 {
			m = bm
			break
		}
	}

	e.ReportForfeit(id, m.Player1.ID)

	fresh := e.Info(id)
	for _, bm := range fresh.Tournament.Bracket {
		if bm.ID == m.ID {
			require.Equal(t, models.MatchCompleted, bm.Status)
			require.Equal(t, m.Player2.ID, bm.Winner.ID, "opponent wins by forfeit")
		}
	}
	for _, p := range fresh.Tournament.Players {
		if p.ID == m.Player1.ID {
			require.True(t, p.IsEliminated)
		}
	}

	starter.mu.Lock()
	require.Contains(t, starter.aborted, m.GameID, "live session torn down on forfeit")
	starter.mu.Unlock()

	require.Equal(t, 1, notifier.countOfType("p0", models.EventTournamentPlayerOut))
}

func TestDisconnectBeforeStartLeaves(t *testing.T) {
	e, _, _, _ := newTestEngine()

	id := fillTournament(t, e, 3)
	e.HandleDisconnect("p1")

	info := e.Info(id)
	require.True(t, info.Success)
	require.Len(t, info.Tournament.Players, 2)
}

func TestAutoStartWhenFull(t *testing.T) {
	notifier := newFakeNotifier()
	e := NewEngine(notifier, &fakeRecorder{}, 10*time.Millisecond)
	e.SetSessionStarter(&fakeStarter{})

	created := e.Create(ref("p0"), CreateData{Name: "Quick Cup", MaxPlayers: 4})
	require.True(t, created.Success)
	id := created.Tournament.ID
	for i := 1; i < 4; i++ {
		require.True(t, e.Join(ref(fmt.Sprintf("p%d", i)), id, "").Success)
	}

	require.Eventually(t, func() bool {
		info := e.Info(id)
		return info.Success && info.Tournament.Status == models.TournamentInProgress
	}, 2*time.Second, 10*time.Millisecond, "full tournament should auto-start")
}

func TestLeaveBeforeAutoStartCancelsIt(t *testing.T) {
	e := NewEngine(newFakeNotifier(), &fakeRecorder{}, 20*time.Millisecond)
	e.SetSessionStarter(&fakeStarter{})

	created := e.Create(ref("p0"), CreateData{Name: "Cup", MaxPlayers: 4})
	id := created.Tournament.ID
	for i := 1; i < 4; i++ {
		require.True(t, e.Join(ref(fmt.Sprintf("p%d", i)), id, "").Success)
	}
	require.True(t, e.Leave("p3", id).Success)

	time.Sleep(100 * time.Millisecond)
	info := e.Info(id)
	require.True(t, info.Success)
	require.Equal(t, models.TournamentWaiting, info.Tournament.Status, "auto-start must be cancelled by a leave")
}
