package models

import "errors"

var (
	// ErrConfiguration is returned for an invalid level or missing previous-level winners
	ErrConfiguration = errors.New("configuration error")
	// ErrState is returned when a prerequisite match is missing or not yet resolved
	ErrState = errors.New("state error")
	// ErrDuplicateState is returned when a round, bracket or position already exists. It is not fatal
	ErrDuplicateState = errors.New("duplicate state")
	// ErrInsufficientPlayers is returned for a cohort that cannot form a match
	ErrInsufficientPlayers = errors.New("insufficient players")
	// ErrNotFound is returned by storage engines for unknown records
	ErrNotFound = errors.New("not found")
)
