package models

import (
	"fmt"
	"time"
)

// IsResolved reports whether a match has a winner, either played out or forfeited
func IsResolved(m Match) bool {
	if m.Status != Status_COMPLETED && m.Status != Status_FORFEIT {
		return false
	}
	return m.Winner != ""
}

// Loser returns the player who did not win a resolved match
func Loser(m Match) string {
	if !IsResolved(m) {
		return ""
	}
	if m.Winner == m.Player1 {
		return m.Player2
	}
	return m.Player1
}

// Plays reports whether a player is one of the two players of a match
func Plays(m Match, playerID string) bool {
	return m.Player1 == playerID || m.Player2 == playerID
}

// PointsFor returns the score a player made in a match
func PointsFor(m Match, playerID string) int {
	switch playerID {
	case m.Player1:
		return m.Player1Score
	case m.Player2:
		return m.Player2Score
	}
	return 0
}

// Opponent returns the other player of a match
func Opponent(m Match, playerID string) string {
	if m.Player1 == playerID {
		return m.Player2
	}
	return m.Player1
}

// ApplyResult returns the match resolved by a reported result. Resolved matches are final,
// and a result without a forfeit must have a winner
func ApplyResult(m Match, r Result, at time.Time) (Match, error) {
	if m.Status != Status_PENDING {
		return m, fmt.Errorf("%w: match %s is already %s", ErrState, m.ID, m.Status)
	}
	m.Player1Score, m.Player2Score = r.Player1Score, r.Player2Score
	m.CompletedAt = at
	if r.ForfeitBy != "" {
		if !Plays(m, r.ForfeitBy) {
			return m, fmt.Errorf("%w: %s does not play in match %s", ErrState, r.ForfeitBy, m.ID)
		}
		m.Status = Status_FORFEIT
		m.Winner = Opponent(m, r.ForfeitBy)
		return m, nil
	}
	switch {
	case r.Player1Score < 0 || r.Player2Score < 0:
		return m, fmt.Errorf("%w: negative score for match %s", ErrState, m.ID)
	case r.Player1Score == r.Player2Score:
		return m, fmt.Errorf("%w: match %s cannot end level at %d", ErrState, m.ID, r.Player1Score)
	case r.Player1Score > r.Player2Score:
		m.Winner = m.Player1
	default:
		m.Winner = m.Player2
	}
	m.Status = Status_COMPLETED
	return m, nil
}
