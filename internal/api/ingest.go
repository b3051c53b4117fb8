package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/wellcheck/internal/hermes"
	"github.com/MikeSquared-Agency/wellcheck/internal/scoring"
)

type checkinRequest struct {
	StudentID           string     `json:"student_id"`
	Name                string     `json:"name,omitempty"`
	ChatDate            *time.Time `json:"chat_date,omitempty"`
	StressResponses     []int      `json:"stress_responses"`
	AnxietyResponses    []int      `json:"anxiety_responses"`
	DepressionResponses []int      `json:"depression_responses"`
}

type journalRequest struct {
	StudentID string `json:"student_id,omitempty"`
	Content   string `json:"content"`
}

type phq9Request struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name,omitempty"`
	Answers   []int  `json:"answers"`
}

func (s *Server) createCheckin(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.StudentID) == "" {
		writeError(w, http.StatusBadRequest, "student_id is required")
		return
	}
	answers := scoring.Answers{
		Stress:     req.StressResponses,
		Anxiety:    req.AnxietyResponses,
		Depression: req.DepressionResponses,
	}
	if err := scoring.ValidateAnswers(answers); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	chatDate := time.Now().UTC()
	if req.ChatDate != nil {
		chatDate = req.ChatDate.UTC()
	}

	ctx := r.Context()
	if err := s.store.EnsureStudent(ctx, req.StudentID, req.Name); err != nil {
		s.logger.Error("ensure student failed", "student_id", req.StudentID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save check-in")
		return
	}
	rec, err := s.store.InsertCheckin(ctx, req.StudentID, chatDate, answers)
	if err != nil {
		s.logger.Error("insert checkin failed", "student_id", req.StudentID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save check-in")
		return
	}

	s.publish(hermes.SubjectCheckinCompleted, hermes.CheckinCompleted{
		CheckinID: rec.ID.String(),
		StudentID: rec.StudentID,
	})
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) createJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req journalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	ctx := r.Context()
	studentID := strings.TrimSpace(req.StudentID)
	if studentID != "" {
		if err := s.store.EnsureStudent(ctx, studentID, ""); err != nil {
			s.logger.Error("ensure student failed", "student_id", studentID, "error", err)
			writeError(w, http.StatusInternalServerError, "could not save journal entry")
			return
		}
	}
	entry, err := s.store.InsertJournalEntry(ctx, studentID, req.Content)
	if err != nil {
		s.logger.Error("insert journal entry failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save journal entry")
		return
	}

	s.publish(hermes.SubjectJournalCreated, hermes.JournalCreated{
		EntryID:   entry.ID.String(),
		StudentID: studentID,
	})
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) submitPHQ9(w http.ResponseWriter, r *http.Request) {
	var req phq9Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.StudentID) == "" {
		writeError(w, http.StatusBadRequest, "student_id is required")
		return
	}
	res, err := scoring.ScorePHQ9(req.Answers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if err := s.store.EnsureStudent(ctx, req.StudentID, req.Name); err != nil {
		s.logger.Error("ensure student failed", "student_id", req.StudentID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save survey")
		return
	}
	rec, err := s.store.InsertPHQ9(ctx, req.StudentID, req.Answers, res)
	if err != nil {
		s.logger.Error("insert phq9 failed", "student_id", req.StudentID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save survey")
		return
	}

	s.publish(hermes.SubjectPHQ9Submitted, hermes.PHQ9Submitted{
		ResultID:  rec.ID.String(),
		StudentID: rec.StudentID,
	})
	writeJSON(w, http.StatusCreated, rec)
}
