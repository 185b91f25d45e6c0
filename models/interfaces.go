package models

import (
	"context"
	"time"
)

// StorageEngine is a backing store for tournaments, cohorts and their brackets.
// Every progression step runs inside a single Update so that a failure leaves nothing behind
type StorageEngine interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx is a storage transaction. Writes that would duplicate a round, bracket, cohort or
// position fail with ErrDuplicateState
type Tx interface {
	SaveTournament(t Tournament) error
	GetTournament(id string) (Tournament, error)
	ListTournaments() ([]Tournament, error)

	SavePlayers(players ...Player) error
	GetPlayers(ids []string) ([]Player, error)

	SaveCohort(c Cohort) error
	GetCohort(key CohortKey) (CohortRecord, error)
	ListCohorts(tournamentID string, level Level) ([]Cohort, error)
	SetCohortCompleted(key CohortKey) error

	OpenBracket(b Bracket) error
	CreateRound(cohort CohortKey, roundName string, matches []Match) error
	GetMatch(id string) (Match, error)
	RecordResult(id string, r Result, at time.Time) (Match, error)

	AssignPositions(positions []Position) error
	SavePromotions(promotions []Promotion) error
	Promotions(tournamentID string, level Level) ([]Promotion, error)
	CareerWins(playerIDs []string) (map[string]int, error)
}

// MatchNotice batches every match created for one player of one cohort in one step
type MatchNotice struct {
	PlayerID string
	Cohort   CohortKey
	Matches  []Match
}

// PositionNotice tells a player where they finished in a cohort
type PositionNotice struct {
	PlayerID string
	Position Position
	Ordinal  string
}

// Notifier delivers player-facing notices. Delivery mechanics live outside the engine
type Notifier interface {
	MatchesCreated(ctx context.Context, n MatchNotice) error
	FinalPosition(ctx context.Context, n PositionNotice) error
}
