package tournament

import "github.com/justinjudd/leaguebracket/models"

// A four player bracket opens with two paired matches. Their winners meet in the winners
// final and, when a third place is wanted, their losers in the losers semifinal. A final
// between the two is only played when more than four places are wanted
var fourPlayerFlow = shapeFlow{
	build: buildFourPlayer,
	rank:  rankFourPlayer,
}

func buildFourPlayer(s *State, b models.Bracket, stage models.Stage) ([]models.Match, error) {
	switch stage {
	case models.Stage_ROUND:
		p := smartPairing(s.entrants(b.Players), s.rng(b.Path, "round1"))
		return roundMatches(s, b, 1, p), nil
	case models.Stage_WINNERS_FINAL, models.Stage_LOSERS_SEMIFINAL:
		r1 := s.stageMatches(b.Path, models.Stage_ROUND, 1)
		if len(r1) != 2 {
			return nil, unknownStage(b, models.Stage_ROUND)
		}
		if stage == models.Stage_WINNERS_FINAL {
			return []models.Match{s.match(b, stage, 0, 0, r1[0].Winner, r1[1].Winner)}, nil
		}
		return []models.Match{s.match(b, stage, 0, 0, models.Loser(r1[0]), models.Loser(r1[1]))}, nil
	case models.Stage_FINAL:
		wf, _ := s.stageMatch(b.Path, models.Stage_WINNERS_FINAL)
		lsf, _ := s.stageMatch(b.Path, models.Stage_LOSERS_SEMIFINAL)
		return []models.Match{s.match(b, stage, 0, 0, models.Loser(wf), lsf.Winner)}, nil
	}
	return nil, unknownStage(b, stage)
}

func rankFourPlayer(s *State, b models.Bracket) ([]placement, bool) {
	wf, _ := s.stageMatch(b.Path, models.Stage_WINNERS_FINAL)
	lsf, _ := s.stageMatch(b.Path, models.Stage_LOSERS_SEMIFINAL)
	if final, ok := s.stageMatch(b.Path, models.Stage_FINAL); ok {
		return []placement{
			{playerID: wf.Winner, rank: 1},
			{playerID: final.Winner, rank: 2},
			{playerID: models.Loser(final), rank: 3},
			{playerID: models.Loser(lsf), rank: 4},
		}, false
	}
	return []placement{
		{playerID: wf.Winner, rank: 1},
		{playerID: models.Loser(wf), rank: 2},
		{playerID: lsf.Winner, rank: 3},
		{playerID: models.Loser(lsf), rank: 4},
	}, false
}
