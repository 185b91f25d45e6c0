package tournament

import (
	"fmt"

	"github.com/justinjudd/leaguebracket/models"
)

// outcome is a result a transition can depend on
type outcome int

const (
	anyOutcome outcome = iota
	byeWon             // the bye player won the three-player final
	byeLost
)

type toggle int

const (
	either toggle = iota
	on
	off
)

// transition opens the next stages of a bracket once every stage in after is resolved
type transition struct {
	shape      models.Shape
	after      []models.Stage
	outcome    outcome
	minNeed    int
	maxNeed    int // 0 is unbounded
	fairChance toggle
	next       []models.Stage
}

var transitions = []transition{
	{shape: models.Shape_TWO_PLAYER, next: []models.Stage{models.Stage_FINAL}},

	{shape: models.Shape_THREE_PLAYER, next: []models.Stage{models.Stage_SF}},
	{shape: models.Shape_THREE_PLAYER, after: []models.Stage{models.Stage_SF}, next: []models.Stage{models.Stage_FINAL}},
	{shape: models.Shape_THREE_PLAYER, after: []models.Stage{models.Stage_FINAL}, outcome: byeWon, next: []models.Stage{models.Stage_TIE_BREAKER}},
	{shape: models.Shape_THREE_PLAYER, after: []models.Stage{models.Stage_FINAL}, outcome: byeLost, fairChance: on, next: []models.Stage{models.Stage_FAIR_CHANCE}},

	{shape: models.Shape_FOUR_PLAYER, next: []models.Stage{models.Stage_ROUND}},
	{shape: models.Shape_FOUR_PLAYER, after: []models.Stage{models.Stage_ROUND}, maxNeed: 2, next: []models.Stage{models.Stage_WINNERS_FINAL}},
	{shape: models.Shape_FOUR_PLAYER, after: []models.Stage{models.Stage_ROUND}, minNeed: 3, next: []models.Stage{models.Stage_WINNERS_FINAL, models.Stage_LOSERS_SEMIFINAL}},
	{shape: models.Shape_FOUR_PLAYER, after: []models.Stage{models.Stage_WINNERS_FINAL, models.Stage_LOSERS_SEMIFINAL}, minNeed: 5, next: []models.Stage{models.Stage_FINAL}},

	{shape: models.Shape_SEMIFINAL, maxNeed: 1, next: []models.Stage{models.Stage_WINNERS_SEMIFINAL}},
	{shape: models.Shape_SEMIFINAL, minNeed: 2, next: []models.Stage{models.Stage_WINNERS_SEMIFINAL, models.Stage_LOSERS_SEMIFINAL}},
	{shape: models.Shape_SEMIFINAL, after: []models.Stage{models.Stage_WINNERS_SEMIFINAL, models.Stage_LOSERS_SEMIFINAL}, minNeed: 2, next: []models.Stage{models.Stage_FINAL}},

	{shape: models.Shape_ROUND_ROBIN, next: []models.Stage{models.Stage_ROUND_ROBIN}},
}

// stageRound is the round number a stage is stored under. Small shapes play a single
// standard round
func stageRound(stage models.Stage) int {
	if stage == models.Stage_ROUND {
		return 1
	}
	return 0
}

func (t transition) applies(s *State, b models.Bracket, o outcome) bool {
	if t.shape != b.Shape {
		return false
	}
	if t.minNeed > 0 && b.Need < t.minNeed {
		return false
	}
	if t.maxNeed > 0 && b.Need > t.maxNeed {
		return false
	}
	switch t.fairChance {
	case on:
		if !s.Tournament.FairChance {
			return false
		}
	case off:
		if s.Tournament.FairChance {
			return false
		}
	}
	if t.outcome != anyOutcome && t.outcome != o {
		return false
	}
	for _, stage := range t.after {
		if !s.stageResolved(b.Path, stage, stageRound(stage)) {
			return false
		}
	}
	return true
}

// shapeFlow holds what a table-driven shape does at each stage
type shapeFlow struct {
	build   func(s *State, b models.Bracket, stage models.Stage) ([]models.Match, error)
	rank    func(s *State, b models.Bracket) (placements []placement, allRanks bool)
	outcome func(s *State, b models.Bracket) outcome
}

// tableResolver drives a bracket through the transitions of its shape and ranks it once
// nothing is left to play
type tableResolver struct {
	flow shapeFlow
}

func (r tableResolver) Open(s *State, b models.Bracket) ([]Action, error) {
	return r.step(s, b)
}

func (r tableResolver) OnMatchCompleted(s *State, b models.Bracket) ([]Action, error) {
	return r.step(s, b)
}

func (r tableResolver) Done(s *State, b models.Bracket) bool {
	return r.settled(s, b) && len(r.pending(s, b)) == 0
}

func (r tableResolver) step(s *State, b models.Bracket) ([]Action, error) {
	if next := r.pending(s, b); len(next) > 0 {
		var actions []Action
		for _, stage := range next {
			matches, err := r.flow.build(s, b, stage)
			if err != nil {
				return nil, err
			}
			actions = append(actions, CreateMatches{
				Cohort:    s.Cohort.Key,
				RoundName: models.RoundName(b.Path, stage, stageRound(stage)),
				Matches:   matches,
			})
		}
		return actions, nil
	}
	if !r.settled(s, b) {
		return nil, nil
	}
	placements, allRanks := r.flow.rank(s, b)
	return s.assign(b, placements, allRanks)
}

// pending lists the stages the table wants that do not exist yet
func (r tableResolver) pending(s *State, b models.Bracket) []models.Stage {
	o := anyOutcome
	if r.flow.outcome != nil {
		o = r.flow.outcome(s, b)
	}
	var next []models.Stage
	seen := map[models.Stage]bool{}
	for _, t := range transitions {
		if !t.applies(s, b, o) {
			continue
		}
		for _, stage := range t.next {
			if seen[stage] || s.stageExists(b.Path, stage, stageRound(stage)) {
				continue
			}
			seen[stage] = true
			next = append(next, stage)
		}
	}
	return next
}

// settled reports whether the bracket has played something and has nothing in progress
func (r tableResolver) settled(s *State, b models.Bracket) bool {
	played := false
	for _, m := range s.Matches {
		if m.Bracket != b.Path {
			continue
		}
		if !models.IsResolved(m) {
			return false
		}
		played = true
	}
	return played
}

func unknownStage(b models.Bracket, stage models.Stage) error {
	return fmt.Errorf("%w: %s bracket %q has no %s stage", models.ErrState, b.Shape, b.Path, stage)
}
