package store

import (
	"context"
	"fmt"
	"time"

	"github.com/MikeSquared-Agency/wellcheck/internal/scoring"
)

// Profile is a student's mutable risk state.
type Profile struct {
	StudentID        string     `json:"student_id"`
	Name             string     `json:"name"`
	AnxietyScore     int        `json:"anxiety_score"`
	DepressionScore  int        `json:"depression_score"`
	StressScore      int        `json:"stress_score"`
	NeedsHelp        bool       `json:"needs_help"`
	LastUrgentEntry  *string    `json:"last_urgent_entry"`
	LastUrgentReason *string    `json:"last_urgent_reason"`
	PHQ9Score        *int       `json:"phq9_score,omitempty"`
	PHQ9Status       *string    `json:"phq9_status,omitempty"`
	ScoresUpdatedAt  *time.Time `json:"scores_updated_at,omitempty"`
	FlaggedAt        *time.Time `json:"flagged_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Scores returns the three numeric scores.
func (p Profile) Scores() scoring.Scores {
	return scoring.Scores{
		Anxiety:    p.AnxietyScore,
		Depression: p.DepressionScore,
		Stress:     p.StressScore,
	}
}

const profileColumns = `id, name, anxiety_score, depression_score, stress_score, needs_help,
	last_urgent_entry, last_urgent_reason, phq9_score, phq9_status, scores_updated_at, flagged_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.StudentID, &p.Name, &p.AnxietyScore, &p.DepressionScore, &p.StressScore, &p.NeedsHelp,
		&p.LastUrgentEntry, &p.LastUrgentReason, &p.PHQ9Score, &p.PHQ9Status, &p.ScoresUpdatedAt, &p.FlaggedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureStudent creates the profile row if missing and refreshes the name
// when one is given.
func (s *Store) EnsureStudent(ctx context.Context, studentID, name string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO students (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET
			name = CASE WHEN $2 = '' THEN students.name ELSE $2 END`,
		studentID, name,
	)
	if err != nil {
		return fmt.Errorf("ensure student: %w", err)
	}
	return nil
}

// GetProfile fetches one profile.
func (s *Store) GetProfile(ctx context.Context, studentID string) (*Profile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM students WHERE id = $1`, studentID)
	p, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", studentID, notFound(err))
	}
	return p, nil
}

// ListProfiles returns every profile ordered by name.
func (s *Store) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+profileColumns+` FROM students ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdateScores writes the three aggregate scores and nothing else.
func (s *Store) UpdateScores(ctx context.Context, studentID string, sc scoring.Scores) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO students (id, anxiety_score, depression_score, stress_score, scores_updated_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			anxiety_score = $2,
			depression_score = $3,
			stress_score = $4,
			scores_updated_at = now(),
			updated_at = now()`,
		studentID, sc.Anxiety, sc.Depression, sc.Stress,
	)
	if err != nil {
		return fmt.Errorf("update scores: %w", err)
	}
	return nil
}

// FlagUrgent sets needs_help with its reason and the triggering text.
func (s *Store) FlagUrgent(ctx context.Context, studentID, reason, entry string) error {
	if reason == "" {
		return fmt.Errorf("flag urgent %s: empty reason", studentID)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO students (id, needs_help, last_urgent_entry, last_urgent_reason, flagged_at, updated_at)
		VALUES ($1, true, $2, $3, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			needs_help = true,
			last_urgent_entry = $2,
			last_urgent_reason = $3,
			flagged_at = now(),
			updated_at = now()`,
		studentID, entry, reason,
	)
	if err != nil {
		return fmt.Errorf("flag urgent: %w", err)
	}
	return nil
}

// ClearUrgentFlag resets needs_help and nulls the reason and entry.
// Scores are left untouched.
func (s *Store) ClearUrgentFlag(ctx context.Context, studentID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE students SET
			needs_help = false,
			last_urgent_entry = NULL,
			last_urgent_reason = NULL,
			updated_at = now()
		WHERE id = $1`,
		studentID,
	)
	if err != nil {
		return fmt.Errorf("clear urgent flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("clear urgent flag %s: %w", studentID, ErrNotFound)
	}
	return nil
}

// UpdatePHQ9 records the latest PHQ-9 score and status on the profile.
func (s *Store) UpdatePHQ9(ctx context.Context, studentID string, score int, status string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO students (id, phq9_score, phq9_status, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET
			phq9_score = $2,
			phq9_status = $3,
			updated_at = now()`,
		studentID, score, status,
	)
	if err != nil {
		return fmt.Errorf("update phq9: %w", err)
	}
	return nil
}
