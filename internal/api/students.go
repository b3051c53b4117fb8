package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/wellcheck/internal/report"
	"github.com/MikeSquared-Agency/wellcheck/internal/store"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 200
)

func (s *Server) listStudents(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.ListProfiles(r.Context())
	if err != nil {
		s.logger.Error("list profiles failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load students")
		return
	}
	rows := report.SortForDashboard(profiles)
	writeJSON(w, http.StatusOK, map[string]any{
		"students": rows,
		"count":    len(rows),
	})
}

func (s *Server) studentReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := defaultJournalLimit
	if v := r.URL.Query().Get("journal_limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "journal_limit must be a positive integer")
			return
		}
		limit = min(n, maxJournalLimit)
	}

	ctx := r.Context()
	profile, err := s.store.GetProfile(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "student not found")
		return
	}
	if err != nil {
		s.logger.Error("get profile failed", "student_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load student")
		return
	}
	journals, err := s.store.ListJournalEntries(ctx, id, limit)
	if err != nil {
		s.logger.Error("list journal entries failed", "student_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load journal")
		return
	}

	writeJSON(w, http.StatusOK, report.Build(*profile, journals))
}

func (s *Server) clearUrgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reviewer, _ := ReviewerFromContext(r.Context())

	err := s.clearer.ClearUrgentFlag(r.Context(), id, reviewer)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "student not found")
		return
	}
	if err != nil {
		s.logger.Error("clear urgent flag failed", "student_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not clear flag")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"student_id": id,
		"status":     "cleared",
	})
}
