package tournament

import "github.com/justinjudd/leaguebracket/models"

// Action is a decision made by a resolver. Actions are carried out by the storage adapter;
// the engine itself never touches storage
type Action interface {
	apply(s *State)
}

// OpenBracket starts a sub-bracket of the cohort
type OpenBracket struct {
	Bracket models.Bracket
}

func (a OpenBracket) apply(s *State) {
	s.Brackets = append(s.Brackets, a.Bracket)
}

// CreateMatches creates every match of one round-name at once
type CreateMatches struct {
	Cohort    models.CohortKey
	RoundName string
	Matches   []models.Match
}

func (a CreateMatches) apply(s *State) {
	s.Matches = append(s.Matches, a.Matches...)
}

// AssignPositions writes final ranks for a cohort
type AssignPositions struct {
	Positions []models.Position
}

func (a AssignPositions) apply(s *State) {
	s.Positions = append(s.Positions, a.Positions...)
}

// Promote qualifies players for the next level
type Promote struct {
	Promotions []models.Promotion
}

func (a Promote) apply(s *State) {}

// CompleteCohort marks a cohort as having every position it will produce
type CompleteCohort struct {
	Cohort models.CohortKey
}

func (a CompleteCohort) apply(s *State) {
	s.Cohort.Completed = true
}

// NotifyPlayers carries the notices to send once the step has been stored
type NotifyPlayers struct {
	Matches   []models.MatchNotice
	Positions []models.PositionNotice
}

func (a NotifyPlayers) apply(s *State) {}
