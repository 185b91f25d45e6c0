package tournament

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/justinjudd/leaguebracket/models"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	n := 0
	return NewEngine(
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("m%04d", n)
		}),
		WithClock(func() time.Time { return testNow }),
	)
}

func testTournament(k int, special bool) models.Tournament {
	t := models.Tournament{ID: "t1", Name: "Spring Open", WinnersNeeded: k, AreaScope: models.Level_COUNTY, Special: special}
	return t
}

func cohortKey(t models.Tournament, group string) models.CohortKey {
	level := models.Level_COMMUNITY
	if t.Special {
		level = models.Level_SPECIAL
	}
	return models.CohortKey{TournamentID: t.ID, Level: level, GroupID: group}
}

// newState builds a cohort of players p01..pNN with no previous-level history
func newState(t models.Tournament, group string, n int) *State {
	c := models.Cohort{Key: cohortKey(t, group)}
	for i := 1; i <= n; i++ {
		c.Entrants = append(c.Entrants, models.Entrant{PlayerID: fmt.Sprintf("p%02d", i)})
	}
	return NewState(t, models.CohortRecord{Cohort: c}, nil)
}

func stateWith(t models.Tournament, entrants ...models.Entrant) *State {
	c := models.Cohort{Key: cohortKey(t, "g1"), Entrants: entrants}
	return NewState(t, models.CohortRecord{Cohort: c}, nil)
}

func clone(s *State) *State {
	c := *s
	c.Cohort.Entrants = append([]models.Entrant(nil), s.Cohort.Entrants...)
	c.Brackets = append([]models.Bracket(nil), s.Brackets...)
	c.Matches = append([]models.Match(nil), s.Matches...)
	c.Positions = append([]models.Position(nil), s.Positions...)
	return &c
}

func pendingMatches(s *State) []models.Match {
	var out []models.Match
	for _, m := range s.Matches {
		if m.Status == models.Status_PENDING {
			out = append(out, m)
		}
	}
	return out
}

func findMatch(s *State, roundName string) (models.Match, bool) {
	for _, m := range s.Matches {
		if m.RoundName() == roundName {
			return m, true
		}
	}
	return models.Match{}, false
}

// win records a result for the match with the given scores, winner first
func win(t *testing.T, s *State, matchID, winner string, winnerScore, loserScore int) {
	t.Helper()
	for i, m := range s.Matches {
		if m.ID != matchID {
			continue
		}
		require.True(t, models.Plays(m, winner), "%s does not play in %s", winner, m.RoundName())
		r := models.Result{Player1Score: winnerScore, Player2Score: loserScore}
		if m.Player2 == winner {
			r = models.Result{Player1Score: loserScore, Player2Score: winnerScore}
		}
		resolved, err := models.ApplyResult(m, r, testNow)
		require.NoError(t, err)
		s.Matches[i] = resolved
		return
	}
	t.Fatalf("no match %s", matchID)
}

// winRound plays the match of a single-match round-name and advances the cohort
func winRound(t *testing.T, e *Engine, s *State, roundName, winner string) []Action {
	t.Helper()
	m, ok := findMatch(s, roundName)
	require.True(t, ok, "no %s match", roundName)
	win(t, s, m.ID, winner, 5, 3)
	actions, err := e.Advance(s)
	require.NoError(t, err)
	return actions
}

// playOut resolves pending matches at random, advancing after each, until none are left
func playOut(t *testing.T, e *Engine, s *State, rng *rand.Rand) {
	t.Helper()
	for i := 0; i < 500; i++ {
		pending := pendingMatches(s)
		if len(pending) == 0 {
			return
		}
		m := pending[rng.Intn(len(pending))]
		winner := m.Player1
		if rng.Intn(2) == 1 {
			winner = m.Player2
		}
		win(t, s, m.ID, winner, 5+rng.Intn(3), rng.Intn(5))
		_, err := e.Advance(s)
		require.NoError(t, err)
	}
	t.Fatal("cohort never ran out of matches")
}

func ranks(s *State) map[int]string {
	out := map[int]string{}
	for _, p := range s.Positions {
		out[p.Rank] = p.PlayerID
	}
	return out
}

func actionsOf[T Action](actions []Action) []T {
	var out []T
	for _, a := range actions {
		if v, ok := a.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
