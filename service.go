package competition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justinjudd/leaguebracket/lock"
	"github.com/justinjudd/leaguebracket/models"
	"github.com/justinjudd/leaguebracket/tournament"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// DefaultCandidateDates is how many days are offered to players for each new match
const DefaultCandidateDates = 7

// Service runs tournaments against a storage engine. Every progression step of a cohort runs
// under the cohort's lock and inside one storage transaction; notices go out once it commits
type Service struct {
	store          models.StorageEngine
	engine         *tournament.Engine
	locks          lock.Locker
	notifier       models.Notifier
	log            *logrus.Logger
	now            func() time.Time
	newID          func() string
	candidateDates int
}

// Option configures a Service
type Option func(*Service)

// WithLocker sets the locker used to serialise steps of a cohort
func WithLocker(l lock.Locker) Option {
	return func(s *Service) { s.locks = l }
}

// WithNotifier sets where player notices are sent
func WithNotifier(n models.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock sets the service clock, which also stamps matches and positions
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator sets how tournament, player and match ids are made
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithCandidateDates sets how many candidate dates each new match carries
func WithCandidateDates(n int) Option {
	return func(s *Service) { s.candidateDates = n }
}

// NewService creates a Service over store
func NewService(store models.StorageEngine, opts ...Option) *Service {
	s := &Service{
		store:          store,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          func() string { return xid.New().String() },
		candidateDates: DefaultCandidateDates,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.locks == nil {
		s.locks = lock.NewMemory()
	}
	if s.notifier == nil {
		s.notifier = NewLogNotifier(s.log)
	}
	s.engine = tournament.NewEngine(tournament.WithClock(s.now), tournament.WithIDGenerator(s.newID))
	return s
}

// CreateTournament validates and stores a new tournament
func (s *Service) CreateTournament(ctx context.Context, t models.Tournament) (models.Tournament, error) {
	if err := t.Validate(); err != nil {
		return t, err
	}
	if t.ID == "" {
		t.ID = s.newID()
	}
	t.CreatedAt = s.now()
	err := s.store.Update(ctx, func(tx models.Tx) error {
		return tx.SaveTournament(t)
	})
	if err != nil {
		return t, err
	}
	s.log.WithFields(logrus.Fields{"tournament": t.ID, "name": t.Name}).Info("tournament created")
	return t, nil
}

// RegisterPlayers stores players, giving an id to any that lack one
func (s *Service) RegisterPlayers(ctx context.Context, players ...models.Player) ([]models.Player, error) {
	for i := range players {
		if players[i].ID == "" {
			players[i].ID = s.newID()
		}
	}
	err := s.store.Update(ctx, func(tx models.Tx) error {
		return tx.SavePlayers(players...)
	})
	return players, err
}

// StartLevel builds the cohorts of a level and opens their brackets. The first level is played
// by the given players, or every registered player when none are given; later levels are played
// by the winners of the level below
func (s *Service) StartLevel(ctx context.Context, tournamentID string, level models.Level, playerIDs []string) ([]models.Cohort, error) {
	var t models.Tournament
	var cohorts []models.Cohort
	err := s.store.View(ctx, func(tx models.Tx) error {
		var err error
		if t, err = tx.GetTournament(tournamentID); err != nil {
			return err
		}
		if level == t.StartLevel() {
			players, err := tx.GetPlayers(playerIDs)
			if err != nil {
				return err
			}
			if len(playerIDs) > 0 && len(players) != len(playerIDs) {
				return fmt.Errorf("%w: %d of %d players are not registered", models.ErrConfiguration, len(playerIDs)-len(players), len(playerIDs))
			}
			if cohorts, err = tournament.Partition(t, level, players); err != nil {
				return err
			}
			if len(cohorts) == 0 {
				return fmt.Errorf("%w: no players to start %s level of tournament %s", models.ErrInsufficientPlayers, level, t.ID)
			}
			return nil
		}

		previous, ok := level.Previous()
		if !ok {
			return fmt.Errorf("%w: %s is not played after another level", models.ErrConfiguration, level)
		}
		below, err := tx.ListCohorts(t.ID, previous)
		if err != nil {
			return err
		}
		for _, c := range below {
			if !c.Completed {
				return fmt.Errorf("%w: cohort %s has not finished", models.ErrState, c.Key)
			}
		}
		promotions, err := tx.Promotions(t.ID, previous)
		if err != nil {
			return err
		}
		ids := make([]string, len(promotions))
		for i, p := range promotions {
			ids[i] = p.PlayerID
		}
		players, err := tx.GetPlayers(ids)
		if err != nil {
			return err
		}
		cohorts, err = tournament.PartitionPromotions(t, level, promotions, players)
		return err
	})
	if err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{"tournament": t.ID, "level": level.String()})
	log.WithField("cohorts", len(cohorts)).Info("starting level")
	completed := false
	for _, c := range cohorts {
		done, err := s.startCohort(ctx, t, c)
		if err != nil {
			return nil, err
		}
		completed = completed || done
	}
	if completed {
		s.advanceLevel(ctx, t, level)
	}
	return cohorts, nil
}

func (s *Service) startCohort(ctx context.Context, t models.Tournament, c models.Cohort) (bool, error) {
	c.CreatedAt = s.now()
	return s.locked(ctx, c.Key, func(tx models.Tx) ([]tournament.Action, error) {
		if err := tx.SaveCohort(c); err != nil {
			return nil, err
		}
		wins, err := tx.CareerWins(c.PlayerIDs())
		if err != nil {
			return nil, err
		}
		state := tournament.NewState(t, models.CohortRecord{Cohort: c}, wins)
		return s.engine.Start(state)
	})
}

// SubmitResult records a match result and progresses the match's cohort. If progression fails
// the result stands, and HandleMatchCompleted can be called again for the cohort
func (s *Service) SubmitResult(ctx context.Context, matchID string, r models.Result) (models.Match, error) {
	var m models.Match
	err := s.store.Update(ctx, func(tx models.Tx) error {
		var err error
		m, err = tx.RecordResult(matchID, r, s.now())
		return err
	})
	if err != nil {
		return m, err
	}
	s.log.WithFields(logrus.Fields{"match": m.ID, "cohort": m.Cohort.String(), "winner": m.Winner, "status": m.Status.String()}).Info("result recorded")
	return m, s.HandleMatchCompleted(ctx, m.Cohort)
}

// HandleMatchCompleted progresses a cohort from its stored results. Calling it again without new
// results changes nothing
func (s *Service) HandleMatchCompleted(ctx context.Context, key models.CohortKey) error {
	var t models.Tournament
	err := s.store.View(ctx, func(tx models.Tx) error {
		var err error
		t, err = tx.GetTournament(key.TournamentID)
		return err
	})
	if err != nil {
		return err
	}
	completed, err := s.locked(ctx, key, func(tx models.Tx) ([]tournament.Action, error) {
		return s.advance(tx, t, key)
	})
	if err != nil {
		return err
	}
	if completed {
		s.advanceLevel(ctx, t, key.Level)
	}
	return nil
}

func (s *Service) advance(tx models.Tx, t models.Tournament, key models.CohortKey) ([]tournament.Action, error) {
	rec, err := tx.GetCohort(key)
	if err != nil {
		return nil, err
	}
	wins, err := tx.CareerWins(rec.Cohort.PlayerIDs())
	if err != nil {
		return nil, err
	}
	return s.engine.Advance(tournament.NewState(t, rec, wins))
}

// locked runs one progression step for a cohort and carries out its actions. A step that would
// duplicate stored state is dropped. It reports whether the step completed the cohort
func (s *Service) locked(ctx context.Context, key models.CohortKey, step func(tx models.Tx) ([]tournament.Action, error)) (bool, error) {
	unlock, err := s.locks.Lock(ctx, key.String())
	if err != nil {
		return false, fmt.Errorf("Unable to lock cohort %s: %w", key, err)
	}
	defer unlock()

	var notify tournament.NotifyPlayers
	completed := false
	err = s.store.Update(ctx, func(tx models.Tx) error {
		actions, err := step(tx)
		if err != nil {
			return err
		}
		notify, completed, err = s.execute(tx, actions)
		return err
	})
	if errors.Is(err, models.ErrDuplicateState) {
		s.log.WithError(err).WithField("cohort", key.String()).Debug("step already applied")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.send(ctx, notify)
	return completed, nil
}

// execute writes the actions of a step
func (s *Service) execute(tx models.Tx, actions []tournament.Action) (tournament.NotifyPlayers, bool, error) {
	var notify tournament.NotifyPlayers
	completed := false
	dates := CandidateDates(s.now(), s.candidateDates)
	for _, a := range actions {
		var err error
		switch a := a.(type) {
		case tournament.OpenBracket:
			err = tx.OpenBracket(a.Bracket)
		case tournament.CreateMatches:
			for i := range a.Matches {
				a.Matches[i].CandidateDates = dates
			}
			err = tx.CreateRound(a.Cohort, a.RoundName, a.Matches)
			if err == nil {
				s.log.WithFields(logrus.Fields{"cohort": a.Cohort.String(), "round": a.RoundName, "matches": len(a.Matches)}).Info("round created")
			}
		case tournament.AssignPositions:
			err = tx.AssignPositions(a.Positions)
		case tournament.Promote:
			err = tx.SavePromotions(a.Promotions)
		case tournament.CompleteCohort:
			completed = true
			err = tx.SetCohortCompleted(a.Cohort)
			if err == nil {
				s.log.WithField("cohort", a.Cohort.String()).Info("cohort complete")
			}
		case tournament.NotifyPlayers:
			notify = a
			for i := range notify.Matches {
				for j := range notify.Matches[i].Matches {
					notify.Matches[i].Matches[j].CandidateDates = dates
				}
			}
		}
		if err != nil {
			return notify, false, err
		}
	}
	return notify, completed, nil
}

// send delivers the notices of a committed step. Delivery failures are logged, the step stands
func (s *Service) send(ctx context.Context, notify tournament.NotifyPlayers) {
	for _, n := range notify.Matches {
		if err := s.notifier.MatchesCreated(ctx, n); err != nil {
			s.log.WithError(err).WithField("player", n.PlayerID).Warn("failed to send match notice")
		}
	}
	for _, n := range notify.Positions {
		if err := s.notifier.FinalPosition(ctx, n); err != nil {
			s.log.WithError(err).WithField("player", n.PlayerID).Warn("failed to send position notice")
		}
	}
}

// advanceLevel starts the next level of an automatic tournament once every cohort of level is complete
func (s *Service) advanceLevel(ctx context.Context, t models.Tournament, level models.Level) {
	if t.Automation != models.Automation_AUTOMATIC || t.IsTargetLevel(level) {
		return
	}
	next, ok := level.Next()
	if !ok {
		return
	}
	log := s.log.WithFields(logrus.Fields{"tournament": t.ID, "level": next.String()})
	var cohorts []models.Cohort
	err := s.store.View(ctx, func(tx models.Tx) error {
		var err error
		cohorts, err = tx.ListCohorts(t.ID, level)
		return err
	})
	if err != nil {
		log.WithError(err).Error("failed to check level")
		return
	}
	for _, c := range cohorts {
		if !c.Completed {
			return
		}
	}
	if _, err := s.StartLevel(ctx, t.ID, next, nil); err != nil {
		log.WithError(err).Error("failed to start next level")
	}
}

// Cohort returns everything stored for a cohort
func (s *Service) Cohort(ctx context.Context, key models.CohortKey) (models.CohortRecord, error) {
	var rec models.CohortRecord
	err := s.store.View(ctx, func(tx models.Tx) error {
		var err error
		rec, err = tx.GetCohort(key)
		return err
	})
	return rec, err
}

// Positions returns the ranks written for a cohort so far
func (s *Service) Positions(ctx context.Context, key models.CohortKey) ([]models.Position, error) {
	rec, err := s.Cohort(ctx, key)
	return rec.Positions, err
}

// Level returns the cohorts of a level and whether each has finished
func (s *Service) Level(ctx context.Context, tournamentID string, level models.Level) ([]models.Cohort, error) {
	var cohorts []models.Cohort
	err := s.store.View(ctx, func(tx models.Tx) error {
		var err error
		cohorts, err = tx.ListCohorts(tournamentID, level)
		return err
	})
	return cohorts, err
}

// CohortHTML renders the brackets of a cohort
func (s *Service) CohortHTML(ctx context.Context, key models.CohortKey) ([]byte, error) {
	var rec models.CohortRecord
	var players []models.Player
	err := s.store.View(ctx, func(tx models.Tx) error {
		var err error
		if rec, err = tx.GetCohort(key); err != nil {
			return err
		}
		players, err = tx.GetPlayers(rec.Cohort.PlayerIDs())
		return err
	})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}
	return GenerateCohortHTML(rec, names)
}

// CandidateDates offers n days to play a match, starting the day after now
func CandidateDates(now time.Time, n int) []time.Time {
	y, m, d := now.Date()
	start := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}
