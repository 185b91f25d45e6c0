package storm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/justinjudd/leaguebracket/models"

	"github.com/asdine/storm"
	"github.com/asdine/storm/codec/msgpack"
	"github.com/asdine/storm/index"
	"github.com/asdine/storm/q"
)

type engine struct {
	*storm.DB
}

// NewStorageEngine creates and returns a StorageEngine meeting the engine interface, using a storm db backend
func NewStorageEngine(path string) (models.StorageEngine, error) {
	db, err := storm.Open(path, storm.Codec(msgpack.Codec))
	//db, err := storm.Open(path) // Use this for debug or if you want JSON stored in the database
	if err != nil {
		return nil, fmt.Errorf("Unable to open storage engine: %w", err)
	}

	for _, kind := range []interface{}{
		&models.Tournament{}, &models.Player{}, &cohortRecord{}, &bracketRecord{},
		&roundRecord{}, &matchRecord{}, &positionRecord{}, &promotionRecord{},
	} {
		if err := db.Init(kind); err != nil {
			db.Close()
			return nil, fmt.Errorf("Unable to initialise storage engine: %w", err)
		}
	}
	return &engine{db}, nil
}

func (e *engine) Update(ctx context.Context, fn func(models.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	node, err := e.Begin(true)
	if err != nil {
		return fmt.Errorf("Unable to begin transaction: %w", err)
	}
	if err := fn(&tx{node}); err != nil {
		node.Rollback()
		return err
	}
	return node.Commit()
}

func (e *engine) View(ctx context.Context, fn func(models.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	node, err := e.Begin(false)
	if err != nil {
		return fmt.Errorf("Unable to begin transaction: %w", err)
	}
	defer node.Rollback()
	return fn(&tx{node})
}

type cohortRecord struct {
	Key          string `storm:"id"`
	TournamentID string `storm:"index"`
	Level        int32  `storm:"index"`
	Cohort       models.Cohort
}

type bracketRecord struct {
	ID      int    `storm:"id,increment"`
	Key     string `storm:"unique"` // cohort#path
	Cohort  string `storm:"index"`
	Bracket models.Bracket
}

type roundRecord struct {
	ID     int    `storm:"id,increment"`
	Key    string `storm:"unique"` // cohort#round-name
	Cohort string `storm:"index"`
	Name   string
}

type matchRecord struct {
	ID     string `storm:"id"`
	Cohort string `storm:"index"`
	Match  models.Match
}

type positionRecord struct {
	ID        int    `storm:"id,increment"`
	RankKey   string `storm:"unique"` // cohort#rank
	PlayerKey string `storm:"unique"` // cohort#player
	Cohort    string `storm:"index"`
	PlayerID  string `storm:"index"`
	Rank      int
	Final     bool
	Position  models.Position
}

type promotionRecord struct {
	ID           int    `storm:"id,increment"`
	Key          string `storm:"unique"` // tournament#level#player
	TournamentID string `storm:"index"`
	Level        int32  `storm:"index"`
	Promotion    models.Promotion
}

func key(parts ...string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "#"
		}
		out += p
	}
	return out
}

// translate maps storm errors onto the engine's error kinds
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storm.ErrAlreadyExists), errors.Is(err, index.ErrAlreadyExists):
		return fmt.Errorf("%w: %s", models.ErrDuplicateState, what)
	case errors.Is(err, storm.ErrNotFound):
		return fmt.Errorf("%w: %s", models.ErrNotFound, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

type tx struct {
	storm.Node
}

// The msgpack codec decodes times in the local zone; everything is handed back in UTC
func utc(at time.Time) time.Time {
	if at.IsZero() {
		return time.Time{}
	}
	return at.UTC()
}

func matchUTC(m models.Match) models.Match {
	if len(m.CandidateDates) > 0 {
		dates := make([]time.Time, len(m.CandidateDates))
		for i, d := range m.CandidateDates {
			dates[i] = utc(d)
		}
		m.CandidateDates = dates
	}
	m.CreatedAt = utc(m.CreatedAt)
	m.CompletedAt = utc(m.CompletedAt)
	return m
}

func (t *tx) SaveTournament(tournament models.Tournament) error {
	return translate(t.Save(&tournament), "tournament "+tournament.ID)
}

func (t *tx) GetTournament(id string) (models.Tournament, error) {
	var tournament models.Tournament
	err := t.One("ID", id, &tournament)
	tournament.CreatedAt = utc(tournament.CreatedAt)
	return tournament, translate(err, "tournament "+id)
}

func (t *tx) ListTournaments() ([]models.Tournament, error) {
	var tournaments []models.Tournament
	if err := t.All(&tournaments); err != nil {
		return nil, translate(err, "tournaments")
	}
	for i := range tournaments {
		tournaments[i].CreatedAt = utc(tournaments[i].CreatedAt)
	}
	sort.Slice(tournaments, func(i, j int) bool { return tournaments[i].CreatedAt.Before(tournaments[j].CreatedAt) })
	return tournaments, nil
}

func (t *tx) SavePlayers(players ...models.Player) error {
	for i := range players {
		if players[i].ID == "" {
			return fmt.Errorf("%w: player %q has no id", models.ErrConfiguration, players[i].Name)
		}
		if err := t.Save(&players[i]); err != nil {
			return translate(err, "player "+players[i].ID)
		}
	}
	return nil
}

func (t *tx) GetPlayers(ids []string) ([]models.Player, error) {
	var players []models.Player
	if len(ids) == 0 {
		err := t.All(&players)
		return players, translate(err, "players")
	}
	err := t.Select(q.In("ID", ids)).Find(&players)
	if errors.Is(err, storm.ErrNotFound) {
		return nil, nil
	}
	return players, translate(err, "players")
}

func (t *tx) SaveCohort(c models.Cohort) error {
	k := c.Key.String()
	var existing cohortRecord
	if err := t.One("Key", k, &existing); err == nil {
		return fmt.Errorf("%w: cohort %s", models.ErrDuplicateState, k)
	} else if !errors.Is(err, storm.ErrNotFound) {
		return translate(err, "cohort "+k)
	}
	rec := cohortRecord{Key: k, TournamentID: c.Key.TournamentID, Level: int32(c.Key.Level), Cohort: c}
	return translate(t.Save(&rec), "cohort "+k)
}

func (t *tx) GetCohort(k models.CohortKey) (models.CohortRecord, error) {
	var out models.CohortRecord
	var c cohortRecord
	if err := t.One("Key", k.String(), &c); err != nil {
		return out, translate(err, "cohort "+k.String())
	}
	out.Cohort = c.Cohort
	out.Cohort.CreatedAt = utc(out.Cohort.CreatedAt)

	var brackets []bracketRecord
	if err := t.Find("Cohort", k.String(), &brackets); err != nil && !errors.Is(err, storm.ErrNotFound) {
		return out, translate(err, "brackets of "+k.String())
	}
	sort.Slice(brackets, func(i, j int) bool { return brackets[i].ID < brackets[j].ID })
	for _, b := range brackets {
		out.Brackets = append(out.Brackets, b.Bracket)
	}

	var matches []matchRecord
	if err := t.Find("Cohort", k.String(), &matches); err != nil && !errors.Is(err, storm.ErrNotFound) {
		return out, translate(err, "matches of "+k.String())
	}
	for _, m := range matches {
		out.Matches = append(out.Matches, matchUTC(m.Match))
	}
	sort.SliceStable(out.Matches, func(i, j int) bool {
		a, b := out.Matches[i], out.Matches[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.RoundName() != b.RoundName() {
			return a.RoundName() < b.RoundName()
		}
		return a.Slot < b.Slot
	})

	var positions []positionRecord
	if err := t.Find("Cohort", k.String(), &positions); err != nil && !errors.Is(err, storm.ErrNotFound) {
		return out, translate(err, "positions of "+k.String())
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Rank < positions[j].Rank })
	for _, p := range positions {
		p.Position.CreatedAt = utc(p.Position.CreatedAt)
		out.Positions = append(out.Positions, p.Position)
	}
	return out, nil
}

func (t *tx) ListCohorts(tournamentID string, level models.Level) ([]models.Cohort, error) {
	var recs []cohortRecord
	err := t.Select(q.Eq("TournamentID", tournamentID), q.Eq("Level", int32(level))).Find(&recs)
	if errors.Is(err, storm.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "cohorts of "+tournamentID)
	}
	cohorts := make([]models.Cohort, len(recs))
	for i, r := range recs {
		cohorts[i] = r.Cohort
		cohorts[i].CreatedAt = utc(r.Cohort.CreatedAt)
	}
	sort.Slice(cohorts, func(i, j int) bool { return cohorts[i].Key.GroupID < cohorts[j].Key.GroupID })
	return cohorts, nil
}

func (t *tx) SetCohortCompleted(k models.CohortKey) error {
	var c cohortRecord
	if err := t.One("Key", k.String(), &c); err != nil {
		return translate(err, "cohort "+k.String())
	}
	c.Cohort.Completed = true
	return translate(t.Save(&c), "cohort "+k.String())
}

func (t *tx) OpenBracket(b models.Bracket) error {
	rec := bracketRecord{Key: key(b.Cohort.String(), b.Path), Cohort: b.Cohort.String(), Bracket: b}
	return translate(t.Save(&rec), fmt.Sprintf("bracket %q of %s", b.Path, b.Cohort))
}

// CreateRound stores every match of a round-name together. A round-name is only ever created once per cohort
func (t *tx) CreateRound(cohort models.CohortKey, roundName string, matches []models.Match) error {
	rec := roundRecord{Key: key(cohort.String(), roundName), Cohort: cohort.String(), Name: roundName}
	if err := t.Save(&rec); err != nil {
		return translate(err, fmt.Sprintf("round %s of %s", roundName, cohort))
	}
	for _, m := range matches {
		if m.ID == "" {
			return fmt.Errorf("%w: match in round %s has no id", models.ErrState, roundName)
		}
		mr := matchRecord{ID: m.ID, Cohort: cohort.String(), Match: m}
		if err := t.Save(&mr); err != nil {
			return translate(err, "match "+m.ID)
		}
	}
	return nil
}

func (t *tx) GetMatch(id string) (models.Match, error) {
	var rec matchRecord
	err := t.One("ID", id, &rec)
	return matchUTC(rec.Match), translate(err, "match "+id)
}

func (t *tx) RecordResult(id string, r models.Result, at time.Time) (models.Match, error) {
	var rec matchRecord
	if err := t.One("ID", id, &rec); err != nil {
		return models.Match{}, translate(err, "match "+id)
	}
	m, err := models.ApplyResult(matchUTC(rec.Match), r, at.UTC())
	if err != nil {
		return m, err
	}
	rec.Match = m
	return m, translate(t.Save(&rec), "match "+id)
}

func (t *tx) AssignPositions(positions []models.Position) error {
	for _, p := range positions {
		c := p.Cohort.String()
		rec := positionRecord{
			RankKey:   key(c, strconv.Itoa(p.Rank)),
			PlayerKey: key(c, p.PlayerID),
			Cohort:    c,
			PlayerID:  p.PlayerID,
			Rank:      p.Rank,
			Final:     p.Final,
			Position:  p,
		}
		if err := t.Save(&rec); err != nil {
			return translate(err, fmt.Sprintf("rank %d of %s", p.Rank, c))
		}
	}
	return nil
}

func (t *tx) SavePromotions(promotions []models.Promotion) error {
	for _, p := range promotions {
		rec := promotionRecord{
			Key:          key(p.TournamentID, p.Level.String(), p.PlayerID),
			TournamentID: p.TournamentID,
			Level:        int32(p.Level),
			Promotion:    p,
		}
		if err := t.Save(&rec); err != nil {
			return translate(err, fmt.Sprintf("promotion of %s at %s", p.PlayerID, p.Level))
		}
	}
	return nil
}

func (t *tx) Promotions(tournamentID string, level models.Level) ([]models.Promotion, error) {
	var recs []promotionRecord
	err := t.Select(q.Eq("TournamentID", tournamentID), q.Eq("Level", int32(level))).Find(&recs)
	if errors.Is(err, storm.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "promotions of "+tournamentID)
	}
	out := make([]models.Promotion, len(recs))
	for i, r := range recs {
		out[i] = r.Promotion
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].Rank < out[j].Rank
	})
	return out, nil
}

// CareerWins counts the tournaments each player has won outright
func (t *tx) CareerWins(playerIDs []string) (map[string]int, error) {
	wins := make(map[string]int, len(playerIDs))
	for _, id := range playerIDs {
		n, err := t.Select(q.Eq("PlayerID", id), q.Eq("Rank", 1), q.Eq("Final", true)).Count(&positionRecord{})
		if err != nil && !errors.Is(err, storm.ErrNotFound) {
			return nil, translate(err, "wins of "+id)
		}
		wins[id] = n
	}
	return wins, nil
}
