package tournament

import (
	"sort"

	"github.com/justinjudd/leaguebracket/models"
)

// A three player bracket: the best previous finisher sits out the semifinal, then meets its
// loser in the final. A bye player winning the final earns a tie-breaker against the
// semifinal winner; losing it may earn a fair-chance rematch when the tournament allows one
var threePlayerFlow = shapeFlow{
	build:   buildThreePlayer,
	rank:    rankThreePlayer,
	outcome: threePlayerOutcome,
}

// chooseBye picks the bye player: best prior rank, seeded draw between equals
func chooseBye(s *State, b models.Bracket) (string, []string) {
	entrants := s.entrants(b.Players)
	rng := s.rng(b.Path, "bye")
	rng.Shuffle(len(entrants), func(i, j int) {
		entrants[i], entrants[j] = entrants[j], entrants[i]
	})
	sort.SliceStable(entrants, func(i, j int) bool {
		return tier(entrants[i]) < tier(entrants[j])
	})
	bye := entrants[0].PlayerID
	var rest []string
	for _, id := range b.Players {
		if id != bye {
			rest = append(rest, id)
		}
	}
	return bye, rest
}

func buildThreePlayer(s *State, b models.Bracket, stage models.Stage) ([]models.Match, error) {
	if stage == models.Stage_SF {
		bye, rest := chooseBye(s, b)
		m := s.match(b, stage, 0, 0, rest[0], rest[1])
		m.ByePlayer = bye
		return []models.Match{m}, nil
	}

	sf, ok := s.stageMatch(b.Path, models.Stage_SF)
	if !ok {
		return nil, unknownStage(b, models.Stage_SF)
	}
	switch stage {
	case models.Stage_FINAL:
		m := s.match(b, stage, 0, 0, models.Loser(sf), sf.ByePlayer)
		return []models.Match{m}, nil
	case models.Stage_TIE_BREAKER, models.Stage_FAIR_CHANCE:
		m := s.match(b, stage, 0, 0, sf.ByePlayer, sf.Winner)
		return []models.Match{m}, nil
	}
	return nil, unknownStage(b, stage)
}

func threePlayerOutcome(s *State, b models.Bracket) outcome {
	sf, ok := s.stageMatch(b.Path, models.Stage_SF)
	if !ok {
		return anyOutcome
	}
	final, ok := s.stageMatch(b.Path, models.Stage_FINAL)
	if !ok || !models.IsResolved(final) {
		return anyOutcome
	}
	if final.Winner == sf.ByePlayer {
		return byeWon
	}
	return byeLost
}

func rankThreePlayer(s *State, b models.Bracket) ([]placement, bool) {
	sf, _ := s.stageMatch(b.Path, models.Stage_SF)
	winner, loser, bye := sf.Winner, models.Loser(sf), sf.ByePlayer

	if tb, ok := s.stageMatch(b.Path, models.Stage_TIE_BREAKER); ok {
		return []placement{
			{playerID: tb.Winner, rank: 1, narrative: "Won the tie-breaker"},
			{playerID: models.Loser(tb), rank: 2, narrative: "Lost the tie-breaker"},
			{playerID: loser, rank: 3},
		}, false
	}

	fc, ok := s.stageMatch(b.Path, models.Stage_FAIR_CHANCE)
	if !ok || fc.Winner == winner {
		return []placement{
			{playerID: winner, rank: 1},
			{playerID: loser, rank: 2},
			{playerID: bye, rank: 3},
		}, false
	}

	// Every player finished on one win and one loss
	ordered, standings := s.orderPlayers(s.Matches, []string{winner, loser, bye}, performanceBefore, s.rng(b.Path, "triple-tie"))
	placements := make([]placement, len(ordered))
	for i, id := range ordered {
		placements[i] = placement{playerID: id, rank: i + 1, narrative: tieNarrative(standings[id], len(ordered))}
	}
	return placements, false
}
