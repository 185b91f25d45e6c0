package tournament

import "github.com/justinjudd/leaguebracket/models"

var twoPlayerFlow = shapeFlow{
	build: func(s *State, b models.Bracket, stage models.Stage) ([]models.Match, error) {
		if stage != models.Stage_FINAL {
			return nil, unknownStage(b, stage)
		}
		return []models.Match{s.match(b, stage, 0, 0, b.Players[0], b.Players[1])}, nil
	},
	rank: func(s *State, b models.Bracket) ([]placement, bool) {
		final, _ := s.stageMatch(b.Path, models.Stage_FINAL)
		return []placement{
			{playerID: final.Winner, rank: 1},
			{playerID: models.Loser(final), rank: 2},
		}, false
	},
}

// singleResolver ranks a lone player straight away
type singleResolver struct{}

func (singleResolver) Open(s *State, b models.Bracket) ([]Action, error) {
	return s.assign(b, []placement{{playerID: b.Players[0], rank: 1}}, false)
}

func (r singleResolver) OnMatchCompleted(s *State, b models.Bracket) ([]Action, error) {
	return r.Open(s, b)
}

func (singleResolver) Done(s *State, b models.Bracket) bool {
	_, ok := s.positionOf(b.Players[0])
	return ok
}
