package storm

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/justinjudd/leaguebracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	storedAt = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	key1     = models.CohortKey{TournamentID: "t1", Level: models.Level_COMMUNITY, GroupID: "harbor"}
)

func openEngine(t *testing.T) models.StorageEngine {
	t.Helper()
	e, err := NewStorageEngine(filepath.Join(t.TempDir(), "league.db"))
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func update(t *testing.T, e models.StorageEngine, fn func(models.Tx) error) error {
	t.Helper()
	return e.Update(context.Background(), fn)
}

func seedCohort(t *testing.T, e models.StorageEngine) {
	t.Helper()
	require.NoError(t, update(t, e, func(tx models.Tx) error {
		if err := tx.SaveCohort(models.Cohort{Key: key1, Entrants: []models.Entrant{{PlayerID: "a"}, {PlayerID: "b"}}}); err != nil {
			return err
		}
		if err := tx.OpenBracket(models.Bracket{Cohort: key1, Shape: models.Shape_TWO_PLAYER, Players: []string{"a", "b"}, Need: 2}); err != nil {
			return err
		}
		return tx.CreateRound(key1, "Final", []models.Match{
			{ID: "m1", Cohort: key1, Stage: models.Stage_FINAL, Player1: "a", Player2: "b", CreatedAt: storedAt},
		})
	}))
}

func TestTournamentsAndPlayers(t *testing.T) {
	e := openEngine(t)
	require.NoError(t, update(t, e, func(tx models.Tx) error {
		if err := tx.SaveTournament(models.Tournament{ID: "t2", Name: "Later", WinnersNeeded: 2, CreatedAt: storedAt.Add(time.Hour)}); err != nil {
			return err
		}
		if err := tx.SaveTournament(models.Tournament{ID: "t1", Name: "Spring", WinnersNeeded: 3, CreatedAt: storedAt}); err != nil {
			return err
		}
		return tx.SavePlayers(models.Player{ID: "a", CommunityID: "harbor"}, models.Player{ID: "b", CommunityID: "mill"})
	}))

	err := e.View(context.Background(), func(tx models.Tx) error {
		got, err := tx.GetTournament("t1")
		require.NoError(t, err)
		assert.Equal(t, 3, got.WinnersNeeded)

		_, err = tx.GetTournament("nope")
		assert.ErrorIs(t, err, models.ErrNotFound)

		all, err := tx.ListTournaments()
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "t1", all[0].ID)

		players, err := tx.GetPlayers([]string{"b"})
		require.NoError(t, err)
		require.Len(t, players, 1)
		assert.Equal(t, "mill", players[0].CommunityID)

		players, err = tx.GetPlayers(nil)
		require.NoError(t, err)
		assert.Len(t, players, 2)
		return nil
	})
	require.NoError(t, err)

	err = update(t, e, func(tx models.Tx) error { return tx.SavePlayers(models.Player{Name: "nameless"}) })
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestCohortIsSavedOnce(t *testing.T) {
	e := openEngine(t)
	seedCohort(t, e)

	err := update(t, e, func(tx models.Tx) error { return tx.SaveCohort(models.Cohort{Key: key1}) })
	assert.ErrorIs(t, err, models.ErrDuplicateState)

	err = update(t, e, func(tx models.Tx) error {
		return tx.OpenBracket(models.Bracket{Cohort: key1, Shape: models.Shape_TWO_PLAYER})
	})
	assert.ErrorIs(t, err, models.ErrDuplicateState)
}

func TestRoundNamesAreCreatedOnce(t *testing.T) {
	e := openEngine(t)
	seedCohort(t, e)

	err := update(t, e, func(tx models.Tx) error {
		return tx.CreateRound(key1, "Final", []models.Match{{ID: "m2", Cohort: key1, Player1: "a", Player2: "b"}})
	})
	assert.ErrorIs(t, err, models.ErrDuplicateState)

	// The failed step left nothing behind
	err = e.View(context.Background(), func(tx models.Tx) error {
		_, err := tx.GetMatch("m2")
		assert.ErrorIs(t, err, models.ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	other := key1
	other.GroupID = "mill"
	err = update(t, e, func(tx models.Tx) error {
		return tx.CreateRound(other, "Final", []models.Match{{ID: "m3", Cohort: other, Player1: "c", Player2: "d"}})
	})
	assert.NoError(t, err, "round-names are unique per cohort only")

	err = update(t, e, func(tx models.Tx) error {
		return tx.CreateRound(key1, "TieBreaker", []models.Match{{Cohort: key1, Player1: "a", Player2: "b"}})
	})
	assert.ErrorIs(t, err, models.ErrState)
}

func TestRecordResult(t *testing.T) {
	e := openEngine(t)
	seedCohort(t, e)

	var m models.Match
	require.NoError(t, update(t, e, func(tx models.Tx) error {
		var err error
		m, err = tx.RecordResult("m1", models.Result{Player1Score: 2, Player2Score: 5}, storedAt)
		return err
	}))
	assert.Equal(t, "b", m.Winner)

	err := update(t, e, func(tx models.Tx) error {
		_, err := tx.RecordResult("m1", models.Result{Player1Score: 5, Player2Score: 2}, storedAt)
		return err
	})
	assert.ErrorIs(t, err, models.ErrState)

	err = update(t, e, func(tx models.Tx) error {
		_, err := tx.RecordResult("missing", models.Result{Player1Score: 5}, storedAt)
		return err
	})
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, e.View(context.Background(), func(tx models.Tx) error {
		stored, err := tx.GetMatch("m1")
		require.NoError(t, err)
		assert.Equal(t, models.Status_COMPLETED, stored.Status)
		assert.Equal(t, 5, stored.Player2Score)
		return nil
	}))
}

func TestPositionsAreWrittenOnce(t *testing.T) {
	e := openEngine(t)
	seedCohort(t, e)
	first := models.Position{Cohort: key1, PlayerID: "b", Rank: 1, Final: true}
	require.NoError(t, update(t, e, func(tx models.Tx) error {
		return tx.AssignPositions([]models.Position{first, {Cohort: key1, PlayerID: "a", Rank: 2, Final: true}})
	}))

	err := update(t, e, func(tx models.Tx) error {
		return tx.AssignPositions([]models.Position{{Cohort: key1, PlayerID: "c", Rank: 1}})
	})
	assert.ErrorIs(t, err, models.ErrDuplicateState, "rank taken")

	err = update(t, e, func(tx models.Tx) error {
		return tx.AssignPositions([]models.Position{{Cohort: key1, PlayerID: "b", Rank: 3}})
	})
	assert.ErrorIs(t, err, models.ErrDuplicateState, "player already ranked")

	require.NoError(t, update(t, e, func(tx models.Tx) error { return tx.SetCohortCompleted(key1) }))

	require.NoError(t, e.View(context.Background(), func(tx models.Tx) error {
		rec, err := tx.GetCohort(key1)
		require.NoError(t, err)
		assert.True(t, rec.Cohort.Completed)
		require.Len(t, rec.Brackets, 1)
		require.Len(t, rec.Matches, 1)
		require.Len(t, rec.Positions, 2)
		assert.Equal(t, "b", rec.Positions[0].PlayerID)
		assert.Equal(t, "a", rec.Positions[1].PlayerID)

		wins, err := tx.CareerWins([]string{"a", "b", "c"})
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 0}, wins)

		cohorts, err := tx.ListCohorts("t1", models.Level_COMMUNITY)
		require.NoError(t, err)
		assert.Len(t, cohorts, 1)

		cohorts, err = tx.ListCohorts("t1", models.Level_COUNTY)
		require.NoError(t, err)
		assert.Empty(t, cohorts)
		return nil
	}))
}

func TestPromotions(t *testing.T) {
	e := openEngine(t)
	promotions := []models.Promotion{
		{TournamentID: "t1", Level: models.Level_COMMUNITY, GroupID: "mill", PlayerID: "c", Rank: 1},
		{TournamentID: "t1", Level: models.Level_COMMUNITY, GroupID: "harbor", PlayerID: "b", Rank: 2},
		{TournamentID: "t1", Level: models.Level_COMMUNITY, GroupID: "harbor", PlayerID: "a", Rank: 1},
	}
	require.NoError(t, update(t, e, func(tx models.Tx) error { return tx.SavePromotions(promotions) }))

	err := update(t, e, func(tx models.Tx) error { return tx.SavePromotions(promotions[:1]) })
	assert.ErrorIs(t, err, models.ErrDuplicateState)

	require.NoError(t, e.View(context.Background(), func(tx models.Tx) error {
		got, err := tx.Promotions("t1", models.Level_COMMUNITY)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].PlayerID, got[1].PlayerID, got[2].PlayerID})

		got, err = tx.Promotions("t1", models.Level_COUNTY)
		require.NoError(t, err)
		assert.Empty(t, got)
		return nil
	}))
}

func TestCancelledContext(t *testing.T) {
	e := openEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Update(ctx, func(models.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTimesComeBackInUTC(t *testing.T) {
	e := openEngine(t)
	east := time.FixedZone("east", -5*60*60)
	day := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, update(t, e, func(tx models.Tx) error {
		if err := tx.SaveTournament(models.Tournament{ID: "t1", Name: "Spring", WinnersNeeded: 1, CreatedAt: storedAt.In(east)}); err != nil {
			return err
		}
		if err := tx.SaveCohort(models.Cohort{Key: key1, Entrants: []models.Entrant{{PlayerID: "a"}, {PlayerID: "b"}}, CreatedAt: storedAt.In(east)}); err != nil {
			return err
		}
		return tx.CreateRound(key1, "Final", []models.Match{{
			ID: "m1", Cohort: key1, Stage: models.Stage_FINAL, Player1: "a", Player2: "b",
			CandidateDates: []time.Time{day, day.AddDate(0, 0, 1)}, CreatedAt: storedAt,
		}})
	}))

	require.NoError(t, update(t, e, func(tx models.Tx) error {
		m, err := tx.RecordResult("m1", models.Result{Player1Score: 7, Player2Score: 3}, storedAt.Add(time.Hour).In(east))
		if err != nil {
			return err
		}
		assert.Equal(t, storedAt.Add(time.Hour), m.CompletedAt)
		return nil
	}))

	err := e.View(context.Background(), func(tx models.Tx) error {
		tour, err := tx.GetTournament("t1")
		require.NoError(t, err)
		assert.Equal(t, storedAt, tour.CreatedAt)

		rec, err := tx.GetCohort(key1)
		require.NoError(t, err)
		assert.Equal(t, storedAt, rec.Cohort.CreatedAt)
		require.Len(t, rec.Matches, 1)
		assert.Equal(t, []time.Time{day, day.AddDate(0, 0, 1)}, rec.Matches[0].CandidateDates)
		assert.Equal(t, storedAt, rec.Matches[0].CreatedAt)
		assert.Equal(t, storedAt.Add(time.Hour), rec.Matches[0].CompletedAt)

		m, err := tx.GetMatch("m1")
		require.NoError(t, err)
		assert.Equal(t, day, m.CandidateDates[0])
		return nil
	})
	require.NoError(t, err)
}
