package tournament

import (
	"math/rand"
	"testing"

	"github.com/justinjudd/leaguebracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// playRound resolves every pending match of a round-name with player 1 winning and advances
func playRound(t *testing.T, e *Engine, s *State, roundName string) {
	t.Helper()
	played := 0
	for _, m := range pendingMatches(s) {
		if m.RoundName() != roundName {
			continue
		}
		win(t, s, m.ID, m.Player1, 6, 2)
		played++
	}
	require.Positive(t, played, "nothing pending in %s", roundName)
	_, err := e.Advance(s)
	require.NoError(t, err)
}

func TestEightPlayersHandOverToFourPlayerFinals(t *testing.T) {
	e := testEngine()
	s := newState(testTournament(2, false), "g1", 8)
	_, err := e.Start(s)
	require.NoError(t, err)
	require.Len(t, s.Matches, 4)

	playRound(t, e, s, "Round1")
	finals, ok := s.bracket("finals")
	require.True(t, ok)
	assert.Equal(t, models.Shape_FOUR_PLAYER, finals.Shape)
	assert.Len(t, finals.Players, 4)
	_, ok = s.bracket("losers")
	assert.False(t, ok, "two places come from the winners alone")

	_, ok = findMatch(s, "finals/Round1")
	assert.True(t, ok)

	playOut(t, e, s, rand.New(rand.NewSource(2)))
	assert.Len(t, ranks(s), 2)
	for _, p := range s.Positions {
		assert.Contains(t, finals.Players, p.PlayerID)
	}
}

func TestLosersPlayForPlacesBehindWinners(t *testing.T) {
	e := testEngine()
	s := newState(testTournament(6, false), "g1", 8)
	_, err := e.Start(s)
	require.NoError(t, err)

	playRound(t, e, s, "Round1")
	losers, ok := s.bracket("losers")
	require.True(t, ok)
	assert.Equal(t, 4, losers.Offset)
	assert.Equal(t, 2, losers.Need)

	playOut(t, e, s, rand.New(rand.NewSource(5)))
	got := ranks(s)
	require.Len(t, got, 6)
	finals, _ := s.bracket("finals")
	for r := 1; r <= 4; r++ {
		assert.Contains(t, finals.Players, got[r])
	}
	for r := 5; r <= 6; r++ {
		assert.Contains(t, losers.Players, got[r])
	}
}

func TestOddRoundTakesBestLoser(t *testing.T) {
	e := testEngine()
	s := newState(testTournament(3, false), "g1", 10)
	_, err := e.Start(s)
	require.NoError(t, err)
	require.Len(t, s.Matches, 5)

	playRound(t, e, s, "Round1")
	round2 := s.stageMatches("", models.Stage_ROUND, 2)
	require.Len(t, round2, 3, "five winners and the best loser")
	for _, m := range round2 {
		assert.False(t, m.Extra)
	}

	playRound(t, e, s, "Round2")
	finals, ok := s.bracket("finals")
	require.True(t, ok)
	assert.Equal(t, models.Shape_THREE_PLAYER, finals.Shape)
}

func TestTwoWinnersPlaySemifinalWithReserve(t *testing.T) {
	e := testEngine()
	s := newState(testTournament(3, false), "g1", 5)
	_, err := e.Start(s)
	require.NoError(t, err)

	// The leftover player loses the extra match, leaving two winners
	for _, m := range pendingMatches(s) {
		winner := m.Player1
		if m.Extra {
			winner = m.Player2
		}
		win(t, s, m.ID, winner, 6, 2)
	}
	_, err = e.Advance(s)
	require.NoError(t, err)

	finals, ok := s.bracket("finals")
	require.True(t, ok)
	assert.Equal(t, models.Shape_SEMIFINAL, finals.Shape)
	assert.Len(t, finals.Players, 4)
	assert.Len(t, finals.Reserve, 1)

	wsf, ok := findMatch(s, "finals/WinnersSemifinal")
	require.True(t, ok)
	assert.Equal(t, finals.Players[:2], []string{wsf.Player1, wsf.Player2})
	_, ok = findMatch(s, "finals/LosersSemifinal")
	assert.True(t, ok)

	playOut(t, e, s, rand.New(rand.NewSource(9)))
	assert.Len(t, ranks(s), 3)
	assert.True(t, s.Cohort.Completed)
}
