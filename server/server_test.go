package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	competition "github.com/justinjudd/leaguebracket"
	"github.com/justinjudd/leaguebracket/models"
	"github.com/justinjudd/leaguebracket/models/storm"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storm.NewStorageEngine(filepath.Join(t.TempDir(), "league.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger, _ := test.NewNullLogger()
	svc := competition.NewService(store, competition.WithLogger(logger))
	return New(svc, logger)
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestPlayCohortOverHTTP(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/players", []models.Player{
		{ID: "ann", Name: "Ann", CommunityID: "harbor"},
		{ID: "bo", Name: "Bo", CommunityID: "harbor"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/tournaments", models.Tournament{Name: "Spring", WinnersNeeded: 2, AreaScope: models.Level_COMMUNITY})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var tour models.Tournament
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tour))

	base := fmt.Sprintf("/tournaments/%s/levels/community", tour.ID)
	rec = do(t, s, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, base+"/cohorts/harbor", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cohort models.CohortRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cohort))
	require.Len(t, cohort.Matches, 1)
	final := cohort.Matches[0]

	rec = do(t, s, http.MethodPost, "/matches/"+final.ID+"/result", models.Result{Player1Score: 2, Player2Score: 9})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/matches/"+final.ID+"/result", models.Result{Player1Score: 9, Player2Score: 2})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPost, base+"/cohorts/harbor/advance", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, base+"/cohorts/harbor/positions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var positions []models.Position
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&positions))
	require.Len(t, positions, 2)
	assert.Equal(t, final.Player2, positions[0].PlayerID)

	rec = do(t, s, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var level []models.Cohort
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&level))
	require.Len(t, level, 1)
	assert.True(t, level[0].Completed)

	rec = do(t, s, http.MethodGet, base+"/cohorts/harbor/bracket.html", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Ann")
}

func TestRequestErrors(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/tournaments", models.Tournament{Name: "Broken"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/players", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rec = do(t, s, http.MethodGet, "/tournaments/t1/levels/galaxy/cohorts/harbor", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/tournaments/t1/levels/community/cohorts/harbor", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/tournaments/t1/levels/community/start", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotEmpty(t, body["error"])
}

func TestStatusFor(t *testing.T) {
	for err, want := range map[error]int{
		fmt.Errorf("x: %w", models.ErrNotFound):            http.StatusNotFound,
		fmt.Errorf("x: %w", models.ErrConfiguration):       http.StatusBadRequest,
		fmt.Errorf("x: %w", models.ErrInsufficientPlayers): http.StatusBadRequest,
		fmt.Errorf("x: %w", models.ErrState):               http.StatusConflict,
		fmt.Errorf("x: %w", models.ErrDuplicateState):      http.StatusConflict,
		errors.New("disk on fire"):                         http.StatusInternalServerError,
	} {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}
