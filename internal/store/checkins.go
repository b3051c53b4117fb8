package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/wellcheck/internal/scoring"
)

// CheckinRecord is one completed weekly check-in. Rows are never updated.
type CheckinRecord struct {
	ID        uuid.UUID             `json:"id"`
	StudentID string                `json:"student_id"`
	ChatDate  time.Time             `json:"chat_date"`
	Answers   scoring.Answers       `json:"answers"`
	Scores    scoring.CheckinScores `json:"scores"`
}

// InsertCheckin stores a check-in with its raw per-category sums.
func (s *Store) InsertCheckin(ctx context.Context, studentID string, chatDate time.Time, a scoring.Answers) (*CheckinRecord, error) {
	rec := &CheckinRecord{
		ID:        uuid.New(),
		StudentID: studentID,
		ChatDate:  chatDate.UTC(),
		Answers:   a,
		Scores:    scoring.ScoreCheckin(a),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO weekly_checkins (id, student_id, chat_date, stress_responses, anxiety_responses, depression_responses,
			stress_score, anxiety_score, depression_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.StudentID, rec.ChatDate, a.Stress, a.Anxiety, a.Depression,
		rec.Scores.Stress, rec.Scores.Anxiety, rec.Scores.Depression,
	)
	if err != nil {
		return nil, fmt.Errorf("insert checkin: %w", err)
	}
	return rec, nil
}

const checkinColumns = `id, student_id, chat_date, stress_responses, anxiety_responses, depression_responses,
	stress_score, anxiety_score, depression_score`

func scanCheckin(row scanner) (*CheckinRecord, error) {
	var c CheckinRecord
	err := row.Scan(&c.ID, &c.StudentID, &c.ChatDate, &c.Answers.Stress, &c.Answers.Anxiety, &c.Answers.Depression,
		&c.Scores.Stress, &c.Scores.Anxiety, &c.Scores.Depression)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCheckin fetches a check-in by ID.
func (s *Store) GetCheckin(ctx context.Context, id uuid.UUID) (*CheckinRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+checkinColumns+` FROM weekly_checkins WHERE id = $1`, id)
	c, err := scanCheckin(row)
	if err != nil {
		return nil, fmt.Errorf("get checkin %s: %w", id, notFound(err))
	}
	return c, nil
}

// ListCheckins returns a student's check-ins with chat_date in [from, to].
func (s *Store) ListCheckins(ctx context.Context, studentID string, from, to time.Time) ([]CheckinRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+checkinColumns+`
		FROM weekly_checkins
		WHERE student_id = $1 AND chat_date >= $2 AND chat_date <= $3
		ORDER BY chat_date`,
		studentID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	defer rows.Close()

	var out []CheckinRecord
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkin: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
