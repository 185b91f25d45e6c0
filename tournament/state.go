package tournament

import (
	"hash/fnv"
	"math/rand"
	"sort"
	"time"

	"github.com/justinjudd/leaguebracket/models"
)

// State is the snapshot of one cohort the resolvers work from. Actions produced during a
// step are applied to it as they are made, so later resolvers see earlier decisions
type State struct {
	Tournament models.Tournament
	Cohort     models.Cohort
	Brackets   []models.Bracket
	Matches    []models.Match
	Positions  []models.Position
	CareerWins map[string]int

	newID func() string
	now   func() time.Time
}

// NewState builds the working state for a cohort from what storage holds for it
func NewState(t models.Tournament, rec models.CohortRecord, careerWins map[string]int) *State {
	if careerWins == nil {
		careerWins = map[string]int{}
	}
	s := &State{
		Tournament: t,
		Cohort:     rec.Cohort,
		CareerWins: careerWins,
	}
	s.Brackets = append(s.Brackets, rec.Brackets...)
	s.Matches = append(s.Matches, rec.Matches...)
	s.Positions = append(s.Positions, rec.Positions...)
	return s
}

// RoundRobinEligible reports whether mid-size cohorts of this level switch to round robin
func (s *State) RoundRobinEligible() bool {
	return s.Tournament.Special || s.Tournament.IsTargetLevel(s.Cohort.Key.Level)
}

func (s *State) bracket(path string) (models.Bracket, bool) {
	for _, b := range s.Brackets {
		if b.Path == path {
			return b, true
		}
	}
	return models.Bracket{}, false
}

// stageMatches returns the matches of one stage of a bracket, in slot order
func (s *State) stageMatches(path string, stage models.Stage, round int) []models.Match {
	var out []models.Match
	for _, m := range s.Matches {
		if m.Bracket != path || m.Stage != stage {
			continue
		}
		if stage == models.Stage_ROUND && m.Round != round {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// stageMatch returns the single match of a stage that only ever holds one
func (s *State) stageMatch(path string, stage models.Stage) (models.Match, bool) {
	ms := s.stageMatches(path, stage, 0)
	if len(ms) == 0 {
		return models.Match{}, false
	}
	return ms[0], true
}

func (s *State) stageExists(path string, stage models.Stage, round int) bool {
	return s.roundExists(models.RoundName(path, stage, round))
}

func (s *State) stageResolved(path string, stage models.Stage, round int) bool {
	ms := s.stageMatches(path, stage, round)
	if len(ms) == 0 {
		return false
	}
	for _, m := range ms {
		if !models.IsResolved(m) {
			return false
		}
	}
	return true
}

func (s *State) roundExists(name string) bool {
	for _, m := range s.Matches {
		if m.RoundName() == name {
			return true
		}
	}
	return false
}

// latestRound is the highest standard round number played in a bracket
func (s *State) latestRound(path string) int {
	latest := 0
	for _, m := range s.Matches {
		if m.Bracket == path && m.Stage == models.Stage_ROUND && m.Round > latest {
			latest = m.Round
		}
	}
	return latest
}

func (s *State) rankTaken(rank int) bool {
	for _, p := range s.Positions {
		if p.Rank == rank {
			return true
		}
	}
	return false
}

func (s *State) positionOf(playerID string) (models.Position, bool) {
	for _, p := range s.Positions {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return models.Position{}, false
}

func (s *State) entrant(playerID string) models.Entrant {
	for _, e := range s.Cohort.Entrants {
		if e.PlayerID == playerID {
			return e
		}
	}
	return models.Entrant{PlayerID: playerID}
}

func (s *State) entrants(playerIDs []string) []models.Entrant {
	out := make([]models.Entrant, len(playerIDs))
	for i, id := range playerIDs {
		out[i] = s.entrant(id)
	}
	return out
}

// rng returns a random source seeded from the cohort, bracket and purpose, so that
// the same cohort always makes the same choices
func (s *State) rng(path, purpose string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(s.Cohort.Key.String()))
	h.Write([]byte{'|'})
	h.Write([]byte(path))
	h.Write([]byte{'|'})
	h.Write([]byte(purpose))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func (s *State) timestamp() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now()
}

func (s *State) match(b models.Bracket, stage models.Stage, round, slot int, p1, p2 string) models.Match {
	id := ""
	if s.newID != nil {
		id = s.newID()
	}
	return models.Match{
		ID:        id,
		Cohort:    s.Cohort.Key,
		Bracket:   b.Path,
		Stage:     stage,
		Round:     round,
		Slot:      slot,
		Player1:   p1,
		Player2:   p2,
		Status:    models.Status_PENDING,
		CreatedAt: s.timestamp(),
	}
}
