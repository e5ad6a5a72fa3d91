package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeLeavesPayloadRaw(t *testing.T) {
	var msg ClientMessage
	err := json.Unmarshal([]byte(`{"type":"player_move","payload":{"gameId":"g1","direction":"up","timestamp":5}}`), &msg)
	require.NoError(t, err)
	require.Equal(t, TypePlayerMove, msg.Type)

	var p PlayerMovePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Equal(t, "g1", p.GameID)
	assert.Empty(t, p.Validate())
}

func TestMatchmakingValidation(t *testing.T) {
	p := MatchmakingPayload{Action: "join"}
	assert.Empty(t, p.Validate())
	assert.Equal(t, "classic", p.GameType, "gameType defaults to classic")

	bad := MatchmakingPayload{Action: "dance", GameType: "3d"}
	errs := bad.Validate()
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "action:")
	assert.Contains(t, errs[1], "gameType:")
}

func TestPlayerMoveValidationEnumeratesAllFailures(t *testing.T) {
	p := PlayerMovePayload{Direction: "sideways"}
	errs := p.Validate()
	require.Len(t, errs, 3, "every failing field reported, not just the first")
	assert.Contains(t, errs[0], "gameId:")
	assert.Contains(t, errs[1], "direction:")
	assert.Contains(t, errs[2], "timestamp:")
}

func TestScoreUpdateValidation(t *testing.T) {
	good := ScoreUpdatePayload{GameID: "g1", CurrentExp: 0, Timestamp: 1}
	assert.Empty(t, good.Validate())

	bad := ScoreUpdatePayload{GameID: "g1", CurrentExp: -1, Timestamp: 1}
	errs := bad.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "currentExp:")
}

func TestMatchEndValidationAndDefaults(t *testing.T) {
	p := MatchEndPayload{GameID: "g1", Player1ID: "a", Player2ID: "b", Timestamp: 1}
	assert.Empty(t, p.Validate())
	assert.Equal(t, int64(60000), p.MatchDurationMs, "duration defaults to a full match")

	bad := MatchEndPayload{Player1Exp: -1, Player2Exp: -2}
	errs := bad.Validate()
	require.Len(t, errs, 6)
}

func TestTournamentActionCrossFieldRules(t *testing.T) {
	create := TournamentActionPayload{Action: "create"}
	errs := create.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "tournamentData:")

	createOK := TournamentActionPayload{
		Action:         "create",
		TournamentData: &TournamentData{Name: "Cup"},
	}
	assert.Empty(t, createOK.Validate())
	assert.Equal(t, 8, createOK.TournamentData.MaxPlayers)

	join := TournamentActionPayload{Action: "join"}
	errs = join.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "tournamentId: required for join")

	unknown := TournamentActionPayload{Action: "explode"}
	errs = unknown.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "action:")
}

func TestTournamentCreateFieldLimits(t *testing.T) {
	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}

	p := TournamentActionPayload{
		Action: "create",
		TournamentData: &TournamentData{
			Name:        "",
			MaxPlayers:  2,
			Description: string(long),
		},
	}
	errs := p.Validate()
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "tournamentData.name:")
	assert.Contains(t, errs[1], "tournamentData.maxPlayers:")
	assert.Contains(t, errs[2], "tournamentData.description:")
}

func TestGameJoinDefaults(t *testing.T) {
	p := GameJoinPayload{}
	assert.Empty(t, p.Validate(), "gameId is optional")
	assert.Equal(t, "classic", p.GameType)
}
