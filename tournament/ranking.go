package tournament

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/justinjudd/leaguebracket/models"
)

// Standing is a player's record over the resolved matches of a cohort
type Standing struct {
	PlayerID   string
	Wins       int
	Losses     int
	Played     int
	Points     int
	CareerWins int
}

// WinRate is the share of matches won, as a percentage
func (st Standing) WinRate() float64 {
	if st.Played == 0 {
		return 0
	}
	return float64(st.Wins) / float64(st.Played) * 100
}

// AveragePoints is the points scored per match played
func (st Standing) AveragePoints() float64 {
	if st.Played == 0 {
		return 0
	}
	return float64(st.Points) / float64(st.Played)
}

// Standings tallies every resolved match. Career wins come from previous tournaments
func Standings(matches []models.Match, careerWins map[string]int) map[string]Standing {
	out := map[string]Standing{}
	add := func(playerID string, won bool, points int) {
		st := out[playerID]
		st.PlayerID = playerID
		st.CareerWins = careerWins[playerID]
		st.Played++
		st.Points += points
		if won {
			st.Wins++
		} else {
			st.Losses++
		}
		out[playerID] = st
	}
	for _, m := range matches {
		if !models.IsResolved(m) {
			continue
		}
		add(m.Player1, m.Winner == m.Player1, m.Player1Score)
		add(m.Player2, m.Winner == m.Player2, m.Player2Score)
	}
	return out
}

func (s *State) standing(standings map[string]Standing, playerID string) Standing {
	st, ok := standings[playerID]
	if !ok {
		st = Standing{PlayerID: playerID, CareerWins: s.CareerWins[playerID]}
	}
	return st
}

// performanceBefore orders by win rate, then total points, then career tournament wins
func performanceBefore(a, b Standing) bool {
	if a.WinRate() != b.WinRate() {
		return a.WinRate() > b.WinRate()
	}
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	return a.CareerWins > b.CareerWins
}

// roundRobinBefore orders by wins, then average points
func roundRobinBefore(a, b Standing) bool {
	if a.Wins != b.Wins {
		return a.Wins > b.Wins
	}
	return a.AveragePoints() > b.AveragePoints()
}

// orderPlayers sorts players by their standings over the given matches. Players the
// comparator cannot separate keep the order of a seeded shuffle
func (s *State) orderPlayers(matches []models.Match, players []string, before func(a, b Standing) bool, rng *rand.Rand) ([]string, map[string]Standing) {
	standings := Standings(matches, s.CareerWins)
	for _, id := range players {
		standings[id] = s.standing(standings, id)
	}
	ordered := make([]string, len(players))
	copy(ordered, players)
	sort.Strings(ordered)
	rng.Shuffle(len(ordered), func(i, j int) {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	})
	sort.SliceStable(ordered, func(i, j int) bool {
		return before(standings[ordered[i]], standings[ordered[j]])
	})
	return ordered, standings
}

// tieSizes returns, for each ordered player, how many players share their standing
func tieSizes(ordered []string, standings map[string]Standing, before func(a, b Standing) bool) []int {
	sizes := make([]int, len(ordered))
	for i := 0; i < len(ordered); {
		j := i + 1
		for j < len(ordered) && !before(standings[ordered[i]], standings[ordered[j]]) {
			j++
		}
		for k := i; k < j; k++ {
			sizes[k] = j - i
		}
		i = j
	}
	return sizes
}

// placement is a rank within one bracket, before the bracket's offset is applied
type placement struct {
	playerID  string
	rank      int
	narrative string
}

// assign turns a bracket's placements into positions. Ranks already written are skipped so
// the same placements can be offered again without effect. Ranks beyond the bracket's need
// are dropped unless allRanks is set
func (s *State) assign(b models.Bracket, placements []placement, allRanks bool) ([]Action, error) {
	standings := Standings(s.Matches, s.CareerWins)
	final := s.Tournament.IsTargetLevel(s.Cohort.Key.Level)

	var positions []models.Position
	for _, p := range placements {
		if p.playerID == "" || (!allRanks && p.rank > b.Need) {
			continue
		}
		rank := b.Offset + p.rank
		if s.rankTaken(rank) {
			continue
		}
		if existing, ok := s.positionOf(p.playerID); ok {
			return nil, fmt.Errorf("%w: player %s already holds rank %d in %s", models.ErrState, p.playerID, existing.Rank, s.Cohort.Key)
		}
		positions = append(positions, models.Position{
			Cohort:    s.Cohort.Key,
			PlayerID:  p.playerID,
			Rank:      rank,
			Points:    s.standing(standings, p.playerID).Points,
			Narrative: p.narrative,
			Final:     final,
			CreatedAt: s.timestamp(),
		})
	}
	if len(positions) == 0 {
		return nil, nil
	}

	actions := []Action{AssignPositions{Positions: positions}}
	if final {
		return actions, nil
	}
	var promotions []models.Promotion
	for _, p := range positions {
		if p.Rank > s.Tournament.WinnersNeeded {
			continue
		}
		promotions = append(promotions, models.Promotion{
			TournamentID: s.Cohort.Key.TournamentID,
			Level:        s.Cohort.Key.Level,
			GroupID:      s.Cohort.Key.GroupID,
			PlayerID:     p.PlayerID,
			Rank:         p.Rank,
		})
	}
	if len(promotions) > 0 {
		actions = append(actions, Promote{Promotions: promotions})
	}
	return actions, nil
}

// tieNarrative explains how a player was placed out of a tie
func tieNarrative(st Standing, tied int) string {
	return fmt.Sprintf("Placed out of a %d-way tie on %.0f%% win rate, %d points and %d tournament wins",
		tied, st.WinRate(), st.Points, st.CareerWins)
}

// Ordinal renders a rank as 1st, 2nd, 3rd...
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
