package tournament

import (
	"fmt"
	"sort"
	"time"

	"github.com/justinjudd/leaguebracket/models"
	"github.com/rs/xid"
)

// CohortResolver progresses one shape of bracket. Resolvers only read the state they are
// given and return the actions that should follow from it
type CohortResolver interface {
	// Open makes the opening moves of a newly created bracket
	Open(s *State, b models.Bracket) ([]Action, error)
	// OnMatchCompleted decides what follows from the bracket's current results. Calling it
	// again without new results returns no actions
	OnMatchCompleted(s *State, b models.Bracket) ([]Action, error)
	// Done reports whether the bracket has produced everything it will
	Done(s *State, b models.Bracket) bool
}

func resolverFor(shape models.Shape) (CohortResolver, error) {
	switch shape {
	case models.Shape_SINGLE:
		return singleResolver{}, nil
	case models.Shape_TWO_PLAYER:
		return tableResolver{flow: twoPlayerFlow}, nil
	case models.Shape_THREE_PLAYER:
		return tableResolver{flow: threePlayerFlow}, nil
	case models.Shape_FOUR_PLAYER:
		return tableResolver{flow: fourPlayerFlow}, nil
	case models.Shape_SEMIFINAL:
		return tableResolver{flow: semifinalFlow}, nil
	case models.Shape_ROUND_ROBIN:
		return tableResolver{flow: roundRobinFlow}, nil
	case models.Shape_BRACKET:
		return bracketResolver{}, nil
	}
	return nil, fmt.Errorf("%w: no resolver for %s", models.ErrState, shape)
}

// shapeFor decides how n players wanting need places are played
func shapeFor(n, need int, roundRobinEligible bool) (models.Shape, error) {
	switch {
	case n <= 0:
		return 0, fmt.Errorf("%w: bracket has no players", models.ErrInsufficientPlayers)
	case n == 1:
		return models.Shape_SINGLE, nil
	case n == 2:
		return models.Shape_TWO_PLAYER, nil
	case n == 3:
		return models.Shape_THREE_PLAYER, nil
	case n == 4:
		return models.Shape_FOUR_PLAYER, nil
	case roundRobinEligible && inRoundRobinBand(n, need):
		return models.Shape_ROUND_ROBIN, nil
	}
	return models.Shape_BRACKET, nil
}

// open creates a sub-bracket and lets its resolver make its opening moves. A bracket that
// already exists is left alone
func (s *State) open(b models.Bracket) ([]Action, error) {
	if _, ok := s.bracket(b.Path); ok {
		return nil, nil
	}
	r, err := resolverFor(b.Shape)
	if err != nil {
		return nil, err
	}
	opening, err := r.Open(s, b)
	if err != nil {
		return nil, err
	}
	return append([]Action{OpenBracket{Bracket: b}}, opening...), nil
}

// maxPasses bounds how many times the brackets of a cohort are re-examined in one step.
// Every pass that changes anything opens a bracket, a round or writes ranks
const maxPasses = 64

// Engine runs the progression of cohorts
type Engine struct {
	newID func() string
	now   func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithIDGenerator sets how match ids are generated
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// WithClock sets the clock used to stamp matches and positions
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) {
		e.now = fn
	}
}

// NewEngine creates an Engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		newID: func() string { return xid.New().String() },
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) bind(s *State) {
	s.newID = e.newID
	s.now = e.now
}

// Start opens the main bracket of a cohort and plays out everything that needs no results,
// such as a lone player's rank
func (e *Engine) Start(s *State) ([]Action, error) {
	e.bind(s)
	if _, ok := s.bracket(""); ok {
		return nil, fmt.Errorf("%w: cohort %s has already started", models.ErrDuplicateState, s.Cohort.Key)
	}
	players := s.Cohort.PlayerIDs()
	need := s.Tournament.WinnersNeeded
	shape, err := shapeFor(len(players), need, s.RoundRobinEligible())
	if err != nil {
		return nil, fmt.Errorf("cohort %s: %w", s.Cohort.Key, err)
	}

	actions, err := s.open(models.Bracket{
		Cohort:  s.Cohort.Key,
		Shape:   shape,
		Players: players,
		Need:    need,
	})
	if err != nil {
		return nil, err
	}
	for _, a := range actions {
		a.apply(s)
	}

	more, err := e.drive(s)
	if err != nil {
		return nil, err
	}
	return e.finish(s, append(actions, more...)), nil
}

// Advance reacts to completed matches. It is safe to call any number of times: once nothing
// new has been resolved it returns no actions
func (e *Engine) Advance(s *State) ([]Action, error) {
	e.bind(s)
	if _, ok := s.bracket(""); !ok {
		return nil, fmt.Errorf("%w: cohort %s has not started", models.ErrState, s.Cohort.Key)
	}
	actions, err := e.drive(s)
	if err != nil {
		return nil, err
	}
	return e.finish(s, actions), nil
}

// drive re-examines every bracket until none of them has anything more to do
func (e *Engine) drive(s *State) ([]Action, error) {
	var out []Action
	for pass := 0; pass < maxPasses; pass++ {
		progressed := false
		brackets := append([]models.Bracket(nil), s.Brackets...)
		for _, b := range brackets {
			r, err := resolverFor(b.Shape)
			if err != nil {
				return nil, err
			}
			actions, err := r.OnMatchCompleted(s, b)
			if err != nil {
				return nil, fmt.Errorf("cohort %s bracket %q: %w", s.Cohort.Key, b.Path, err)
			}
			for _, a := range actions {
				a.apply(s)
			}
			if len(actions) > 0 {
				out = append(out, actions...)
				progressed = true
			}
		}
		if !progressed {
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: cohort %s did not settle after %d passes", models.ErrState, s.Cohort.Key, maxPasses)
}

// finish completes the cohort once every bracket is done and adds the notices for the step
func (e *Engine) finish(s *State, actions []Action) []Action {
	if !s.Cohort.Completed && e.allDone(s) {
		complete := CompleteCohort{Cohort: s.Cohort.Key}
		complete.apply(s)
		actions = append(actions, complete)
	}
	if notify, ok := notices(actions); ok {
		actions = append(actions, notify)
	}
	return actions
}

func (e *Engine) allDone(s *State) bool {
	if len(s.Brackets) == 0 {
		return false
	}
	for _, b := range s.Brackets {
		r, err := resolverFor(b.Shape)
		if err != nil || !r.Done(s, b) {
			return false
		}
	}
	return true
}

// notices batches new matches per player and announces every new position
func notices(actions []Action) (NotifyPlayers, bool) {
	var notify NotifyPlayers
	batches := map[string]*models.MatchNotice{}
	var order []string
	for _, a := range actions {
		switch a := a.(type) {
		case CreateMatches:
			for _, m := range a.Matches {
				for _, id := range []string{m.Player1, m.Player2} {
					n, ok := batches[id]
					if !ok {
						n = &models.MatchNotice{PlayerID: id, Cohort: a.Cohort}
						batches[id] = n
						order = append(order, id)
					}
					n.Matches = append(n.Matches, m)
				}
			}
		case AssignPositions:
			for _, p := range a.Positions {
				notify.Positions = append(notify.Positions, models.PositionNotice{
					PlayerID: p.PlayerID,
					Position: p,
					Ordinal:  Ordinal(p.Rank),
				})
			}
		}
	}
	for _, id := range order {
		notify.Matches = append(notify.Matches, *batches[id])
	}
	sort.SliceStable(notify.Positions, func(i, j int) bool {
		return notify.Positions[i].Position.Rank < notify.Positions[j].Position.Rank
	})
	return notify, len(notify.Matches) > 0 || len(notify.Positions) > 0
}
