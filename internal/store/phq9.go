package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/wellcheck/internal/scoring"
)

type PHQ9Record struct {
	ID          uuid.UUID          `json:"id"`
	StudentID   string             `json:"student_id"`
	Answers     []int              `json:"answers"`
	Result      scoring.PHQ9Result `json:"result"`
	SubmittedAt time.Time          `json:"submitted_at"`
}

// InsertPHQ9 stores a scored PHQ-9 submission.
func (s *Store) InsertPHQ9(ctx context.Context, studentID string, answers []int, res scoring.PHQ9Result) (*PHQ9Record, error) {
	rec := &PHQ9Record{
		ID:          uuid.New(),
		StudentID:   studentID,
		Answers:     answers,
		Result:      res,
		SubmittedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO phq9_results (id, student_id, answers, score, status, needs_help, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, studentID, answers, res.Score, res.Status, res.NeedsHelp, rec.SubmittedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert phq9: %w", err)
	}
	return rec, nil
}

// GetPHQ9 fetches a PHQ-9 submission by ID.
func (s *Store) GetPHQ9(ctx context.Context, id uuid.UUID) (*PHQ9Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, student_id, answers, score, status, needs_help, submitted_at
		FROM phq9_results WHERE id = $1`, id)

	var r PHQ9Record
	err := row.Scan(&r.ID, &r.StudentID, &r.Answers, &r.Result.Score, &r.Result.Status, &r.Result.NeedsHelp, &r.SubmittedAt)
	if err != nil {
		return nil, fmt.Errorf("get phq9 %s: %w", id, notFound(err))
	}
	return &r, nil
}
