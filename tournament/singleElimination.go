package tournament

import (
	"fmt"

	"github.com/justinjudd/leaguebracket/models"
)

// bracketResolver plays standard numbered rounds until few enough winners remain, then hands
// them to a finals sub-bracket. When more places are wanted than there are winners, the
// losers of that last round play a mirrored sub-bracket for the places behind them
type bracketResolver struct{}

func (bracketResolver) Open(s *State, b models.Bracket) ([]Action, error) {
	if s.stageExists(b.Path, models.Stage_ROUND, 1) {
		return nil, nil
	}
	p := smartPairing(s.entrants(b.Players), s.rng(b.Path, "round1"))
	return []Action{CreateMatches{
		Cohort:    s.Cohort.Key,
		RoundName: models.RoundName(b.Path, models.Stage_ROUND, 1),
		Matches:   roundMatches(s, b, 1, p),
	}}, nil
}

func (r bracketResolver) OnMatchCompleted(s *State, b models.Bracket) ([]Action, error) {
	if r.Done(s, b) {
		return nil, nil
	}
	round := s.latestRound(b.Path)
	if round == 0 {
		return r.Open(s, b)
	}
	if !s.stageResolved(b.Path, models.Stage_ROUND, round) {
		return nil, nil
	}

	winners, losers, extraLosers := roundOutcome(s.stageMatches(b.Path, models.Stage_ROUND, round))
	knockedOut := append(losers, extraLosers...)
	roundRobin := s.RoundRobinEligible() && inRoundRobinBand(len(winners), b.Need)

	switch {
	case len(winners) >= 5 && !roundRobin:
		return r.nextRound(s, b, round+1, winners, knockedOut)
	case len(winners) == 2 && len(knockedOut) >= 2:
		return r.openSemifinal(s, b, round, winners, knockedOut)
	}
	return r.openFinals(s, b, winners, knockedOut)
}

// Done reports whether the bracket has handed over to its finals
func (bracketResolver) Done(s *State, b models.Bracket) bool {
	_, ok := s.bracket(b.Child("finals"))
	return ok
}

func (bracketResolver) nextRound(s *State, b models.Bracket, round int, winners, knockedOut []string) ([]Action, error) {
	if s.stageExists(b.Path, models.Stage_ROUND, round) {
		return nil, nil
	}
	pool := append([]string{}, winners...)
	if len(pool)%2 == 1 {
		// Best loser of the round makes the numbers even
		ordered, _ := s.orderPlayers(s.Matches, knockedOut, performanceBefore, s.rng(b.Path, fmt.Sprintf("lucky-loser%d", round)))
		pool = append(pool, ordered[0])
	}
	p := smartPairing(s.entrants(pool), s.rng(b.Path, fmt.Sprintf("round%d", round)))
	return []Action{CreateMatches{
		Cohort:    s.Cohort.Key,
		RoundName: models.RoundName(b.Path, models.Stage_ROUND, round),
		Matches:   roundMatches(s, b, round, p),
	}}, nil
}

func (bracketResolver) openSemifinal(s *State, b models.Bracket, round int, winners, knockedOut []string) ([]Action, error) {
	ordered, _ := s.orderPlayers(s.Matches, knockedOut, performanceBefore, s.rng(b.Path, fmt.Sprintf("losers%d", round)))
	return s.open(models.Bracket{
		Cohort:  s.Cohort.Key,
		Path:    b.Child("finals"),
		Shape:   models.Shape_SEMIFINAL,
		Players: []string{winners[0], winners[1], ordered[0], ordered[1]},
		Reserve: ordered[2:],
		Need:    b.Need,
		Offset:  b.Offset,
	})
}

func (bracketResolver) openFinals(s *State, b models.Bracket, winners, knockedOut []string) ([]Action, error) {
	shape, err := shapeFor(len(winners), b.Need, s.RoundRobinEligible())
	if err != nil {
		return nil, err
	}
	actions, err := s.open(models.Bracket{
		Cohort:  s.Cohort.Key,
		Path:    b.Child("finals"),
		Shape:   shape,
		Players: winners,
		Need:    b.Need,
		Offset:  b.Offset,
	})
	if err != nil {
		return nil, err
	}
	if b.Need <= len(winners) || len(knockedOut) == 0 {
		return actions, nil
	}

	need := b.Need - len(winners)
	shape, err = shapeFor(len(knockedOut), need, s.RoundRobinEligible())
	if err != nil {
		return nil, err
	}
	mirror, err := s.open(models.Bracket{
		Cohort:  s.Cohort.Key,
		Path:    b.Child("losers"),
		Shape:   shape,
		Players: knockedOut,
		Need:    need,
		Offset:  b.Offset + len(winners),
	})
	if err != nil {
		return nil, err
	}
	return append(actions, mirror...), nil
}
