package tournament

import (
	"fmt"

	"github.com/justinjudd/leaguebracket/models"
)

// Round robin is used for mid-sized cohorts at the level whose results count: every player
// plays every other player once, all matches created together under one round-name
var roundRobinFlow = shapeFlow{
	build: buildRoundRobin,
	rank:  rankRoundRobin,
}

// inRoundRobinBand reports whether n players wanting need places should play round robin
func inRoundRobinBand(n, need int) bool {
	return need > 3 && need <= n && n <= 2*need-1
}

func buildRoundRobin(s *State, b models.Bracket, stage models.Stage) ([]models.Match, error) {
	if stage != models.Stage_ROUND_ROBIN {
		return nil, unknownStage(b, stage)
	}
	// One match per unordered pair
	var matches []models.Match
	for i := 0; i < len(b.Players); i++ {
		for j := i + 1; j < len(b.Players); j++ {
			matches = append(matches, s.match(b, stage, 0, len(matches), b.Players[i], b.Players[j]))
		}
	}
	return matches, nil
}

func rankRoundRobin(s *State, b models.Bracket) ([]placement, bool) {
	played := s.stageMatches(b.Path, models.Stage_ROUND_ROBIN, 0)
	ordered, standings := s.orderPlayers(played, b.Players, roundRobinBefore, s.rng(b.Path, "standings"))
	ties := tieSizes(ordered, standings, roundRobinBefore)

	placements := make([]placement, len(ordered))
	for i, id := range ordered {
		p := placement{playerID: id, rank: i + 1}
		if ties[i] > 1 {
			st := standings[id]
			p.narrative = fmt.Sprintf("Level with %d others on %d wins and %.1f points a match, order drawn", ties[i]-1, st.Wins, st.AveragePoints())
		}
		placements[i] = p
	}
	// Round robin ranks every player, not just the places asked for
	return placements, true
}
