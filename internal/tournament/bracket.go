package tournament

import (
	"math/rand"

	"pong-game/internal/models"

	"github.com/google/uuid"
)

// isPowerOfTwo reports whether n is a power of two. Zero is not.
func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// generateBracket seeds a full single-elimination bracket for the given
// players. Seeding order is random: a Fisher-Yates shuffle of the join
// order. Round 1 pairs consecutive seeds; every later round is created
// as an empty placeholder filled in as winners come through. The player
// count must already be a power of two.
func generateBracket(players []models.TournamentPlayer) []*models.BracketMatch {
	seeded := make([]models.TournamentPlayer, len(players))
	copy(seeded, players)
	for i := len(seeded) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		seeded[i], seeded[j] = seeded[j], seeded[i]
	}

	var bracket []*models.BracketMatch

	round := 1
	for n := len(seeded); n >= 2; n /= 2 {
		for slot := 0; slot < n/2; slot++ {
			match := &models.BracketMatch{
				ID:     "match-" + uuid.NewString(),
				Round:  round,
				Slot:   slot,
				Status: models.MatchWaiting,
			}
			if round == 1 {
				p1 := seeded[slot*2]
				p2 := seeded[slot*2+1]
				match.Player1 = &p1
				match.Player2 = &p2
			}
			bracket = append(bracket, match)
		}
		round++
	}

	return bracket
}

// roundMatches returns the matches of one round in slot order. Brackets
// are built in round-then-slot order so the slice is already sorted.
func roundMatches(bracket []*models.BracketMatch, round int) []*models.BracketMatch {
	var out []*models.BracketMatch
	for _, m := range bracket {
		if m.Round == round {
			out = append(out, m)
		}
	}
	return out
}
