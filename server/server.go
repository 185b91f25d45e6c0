// Package server exposes tournaments over HTTP
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinjudd/leaguebracket/models"
	"github.com/sirupsen/logrus"
)

// Competition is what the HTTP layer needs from the tournament service
type Competition interface {
	CreateTournament(ctx context.Context, t models.Tournament) (models.Tournament, error)
	RegisterPlayers(ctx context.Context, players ...models.Player) ([]models.Player, error)
	StartLevel(ctx context.Context, tournamentID string, level models.Level, playerIDs []string) ([]models.Cohort, error)
	Level(ctx context.Context, tournamentID string, level models.Level) ([]models.Cohort, error)
	SubmitResult(ctx context.Context, matchID string, r models.Result) (models.Match, error)
	HandleMatchCompleted(ctx context.Context, key models.CohortKey) error
	Cohort(ctx context.Context, key models.CohortKey) (models.CohortRecord, error)
	Positions(ctx context.Context, key models.CohortKey) ([]models.Position, error)
	CohortHTML(ctx context.Context, key models.CohortKey) ([]byte, error)
}

// Server routes HTTP requests to a Competition
type Server struct {
	Router *mux.Router
	svc    Competition
	logger *logrus.Logger
}

// New creates a Server with its routes registered
func New(svc Competition, logger *logrus.Logger) *Server {
	s := &Server{Router: mux.NewRouter(), svc: svc, logger: logger}
	s.initializeRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) initializeRoutes() {
	s.Router.HandleFunc("/tournaments", s.createTournament).Methods(http.MethodPost)
	s.Router.HandleFunc("/players", s.registerPlayers).Methods(http.MethodPost)

	level := s.Router.PathPrefix("/tournaments/{tid}/levels/{level}").Subrouter()
	level.HandleFunc("", s.levelStatus).Methods(http.MethodGet)
	level.HandleFunc("/start", s.startLevel).Methods(http.MethodPost)
	level.HandleFunc("/cohorts/{group}", s.cohort).Methods(http.MethodGet)
	level.HandleFunc("/cohorts/{group}/bracket.html", s.cohortHTML).Methods(http.MethodGet)
	level.HandleFunc("/cohorts/{group}/positions", s.positions).Methods(http.MethodGet)
	level.HandleFunc("/cohorts/{group}/advance", s.advance).Methods(http.MethodPost)

	s.Router.HandleFunc("/matches/{id}/result", s.submitResult).Methods(http.MethodPost)
}

func (s *Server) createTournament(w http.ResponseWriter, r *http.Request) {
	var t models.Tournament
	if !s.decode(w, r, &t) {
		return
	}
	t, err := s.svc.CreateTournament(r.Context(), t)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, t)
}

func (s *Server) registerPlayers(w http.ResponseWriter, r *http.Request) {
	var players []models.Player
	if !s.decode(w, r, &players) {
		return
	}
	players, err := s.svc.RegisterPlayers(r.Context(), players...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, players)
}

type startRequest struct {
	PlayerIDs []string `json:"player_ids"`
}

func (s *Server) startLevel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	level, err := models.ParseLevel(vars["level"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req startRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	cohorts, err := s.svc.StartLevel(r.Context(), vars["tid"], level, req.PlayerIDs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, cohorts)
}

func (s *Server) levelStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	level, err := models.ParseLevel(vars["level"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cohorts, err := s.svc.Level(r.Context(), vars["tid"], level)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, cohorts)
}

func (s *Server) submitResult(w http.ResponseWriter, r *http.Request) {
	var result models.Result
	if !s.decode(w, r, &result) {
		return
	}
	m, err := s.svc.SubmitResult(r.Context(), mux.Vars(r)["id"], result)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, m)
}

func cohortKey(r *http.Request) (models.CohortKey, error) {
	vars := mux.Vars(r)
	level, err := models.ParseLevel(vars["level"])
	if err != nil {
		return models.CohortKey{}, err
	}
	return models.CohortKey{TournamentID: vars["tid"], Level: level, GroupID: vars["group"]}, nil
}

func (s *Server) cohort(w http.ResponseWriter, r *http.Request) {
	key, err := cohortKey(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rec, err := s.svc.Cohort(r.Context(), key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, rec)
}

func (s *Server) cohortHTML(w http.ResponseWriter, r *http.Request) {
	key, err := cohortKey(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.svc.CohortHTML(r.Context(), key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

func (s *Server) positions(w http.ResponseWriter, r *http.Request) {
	key, err := cohortKey(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	positions, err := s.svc.Positions(r.Context(), key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, positions)
}

func (s *Server) advance(w http.ResponseWriter, r *http.Request) {
	key, err := cohortKey(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.HandleMatchCompleted(r.Context(), key); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("failed to write response")
	}
}

// statusFor maps error kinds onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConfiguration), errors.Is(err, models.ErrInsufficientPlayers):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrState), errors.Is(err, models.ErrDuplicateState):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := s.logger.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path, "status": status})
	if status == http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	s.respond(w, status, map[string]string{"error": err.Error()})
}
