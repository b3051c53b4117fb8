package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/wellcheck/internal/hermes"
	"github.com/MikeSquared-Agency/wellcheck/internal/scoring"
	"github.com/MikeSquared-Agency/wellcheck/internal/store"
)

const maxBodyBytes = 1 << 20

// Store is what the HTTP layer reads and writes directly.
type Store interface {
	Ping(ctx context.Context) error
	EnsureStudent(ctx context.Context, studentID, name string) error
	InsertCheckin(ctx context.Context, studentID string, chatDate time.Time, a scoring.Answers) (*store.CheckinRecord, error)
	InsertJournalEntry(ctx context.Context, studentID, content string) (*store.JournalEntry, error)
	InsertPHQ9(ctx context.Context, studentID string, answers []int, res scoring.PHQ9Result) (*store.PHQ9Record, error)
	GetProfile(ctx context.Context, studentID string) (*store.Profile, error)
	ListProfiles(ctx context.Context) ([]store.Profile, error)
	ListJournalEntries(ctx context.Context, studentID string, limit int) ([]store.JournalEntry, error)
}

// Clearer resets a student's urgent flag on behalf of a reviewer.
type Clearer interface {
	ClearUrgentFlag(ctx context.Context, studentID, reviewer string) error
}

type Server struct {
	router  *chi.Mux
	port    int
	store   Store
	bus     hermes.Publisher
	clearer Clearer
	secret  []byte
	logger  *slog.Logger
	srv     *http.Server
}

func NewServer(port int, db Store, bus hermes.Publisher, clearer Clearer, jwtSecret string, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		store:   db,
		bus:     bus,
		clearer: clearer,
		secret:  []byte(jwtSecret),
		logger:  logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/wellcheck/status", s.status)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkins", s.createCheckin)
		r.Post("/journal", s.createJournalEntry)
		r.Post("/phq9", s.submitPHQ9)

		r.Group(func(r chi.Router) {
			r.Use(s.requireReviewer)
			r.Get("/students", s.listStudents)
			r.Get("/students/{id}/report", s.studentReport)
			r.Post("/students/{id}/clear-urgent", s.clearUrgent)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	db := "ok"
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("database ping failed", "error", err)
		db = "unavailable"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"agent":    "wellcheck",
		"status":   "ok",
		"database": db,
	})
}

func (s *Server) publish(subject string, evt any) {
	if err := s.bus.Publish(subject, evt); err != nil {
		s.logger.Error("publish failed", "subject", subject, "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
