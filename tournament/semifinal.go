package tournament

import "github.com/justinjudd/leaguebracket/models"

// A semifinal bracket is opened when a round leaves two winners. Its players are the two
// winners followed by the two best losers; the reserve ranks behind them in order
var semifinalFlow = shapeFlow{
	build: buildSemifinal,
	rank:  rankSemifinal,
}

func buildSemifinal(s *State, b models.Bracket, stage models.Stage) ([]models.Match, error) {
	switch stage {
	case models.Stage_WINNERS_SEMIFINAL:
		return []models.Match{s.match(b, stage, 0, 0, b.Players[0], b.Players[1])}, nil
	case models.Stage_LOSERS_SEMIFINAL:
		return []models.Match{s.match(b, stage, 0, 0, b.Players[2], b.Players[3])}, nil
	case models.Stage_FINAL:
		wsf, _ := s.stageMatch(b.Path, models.Stage_WINNERS_SEMIFINAL)
		lsf, _ := s.stageMatch(b.Path, models.Stage_LOSERS_SEMIFINAL)
		return []models.Match{s.match(b, stage, 0, 0, models.Loser(wsf), lsf.Winner)}, nil
	}
	return nil, unknownStage(b, stage)
}

func rankSemifinal(s *State, b models.Bracket) ([]placement, bool) {
	wsf, _ := s.stageMatch(b.Path, models.Stage_WINNERS_SEMIFINAL)
	lsf, _ := s.stageMatch(b.Path, models.Stage_LOSERS_SEMIFINAL)
	final, _ := s.stageMatch(b.Path, models.Stage_FINAL)
	placements := []placement{
		{playerID: wsf.Winner, rank: 1},
		{playerID: final.Winner, rank: 2},
		{playerID: models.Loser(final), rank: 3},
		{playerID: models.Loser(lsf), rank: 4},
	}
	for i, id := range b.Reserve {
		placements = append(placements, placement{playerID: id, rank: 5 + i})
	}
	return placements, false
}
