package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JournalEntry is a free-text submission. Sentiment fields stay nil until
// the single analysis pass sets them.
type JournalEntry struct {
	ID                 uuid.UUID `json:"id"`
	StudentID          *string   `json:"student_id"`
	Content            string    `json:"content"`
	CreatedAt          time.Time `json:"created_at"`
	SentimentScore     *float64  `json:"sentiment_score"`
	SentimentMagnitude *float64  `json:"sentiment_magnitude"`
}

// Analyzed reports whether sentiment has been recorded.
func (e JournalEntry) Analyzed() bool {
	return e.SentimentScore != nil && e.SentimentMagnitude != nil
}

// InsertJournalEntry stores a new entry. An empty studentID is stored as NULL.
func (s *Store) InsertJournalEntry(ctx context.Context, studentID, content string) (*JournalEntry, error) {
	e := &JournalEntry{
		ID:        uuid.New(),
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if studentID != "" {
		e.StudentID = &studentID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO journal_entries (id, student_id, content, created_at)
		VALUES ($1, $2, $3, $4)`,
		e.ID, e.StudentID, e.Content, e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}
	return e, nil
}

const journalColumns = `id, student_id, content, created_at, sentiment_score, sentiment_magnitude`

func scanJournal(row scanner) (*JournalEntry, error) {
	var e JournalEntry
	if err := row.Scan(&e.ID, &e.StudentID, &e.Content, &e.CreatedAt, &e.SentimentScore, &e.SentimentMagnitude); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetJournalEntry fetches an entry by ID.
func (s *Store) GetJournalEntry(ctx context.Context, id uuid.UUID) (*JournalEntry, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+journalColumns+` FROM journal_entries WHERE id = $1`, id)
	e, err := scanJournal(row)
	if err != nil {
		return nil, fmt.Errorf("get journal entry %s: %w", id, notFound(err))
	}
	return e, nil
}

// SetJournalSentiment records sentiment once. It returns false when the
// entry already had sentiment and was left unchanged.
func (s *Store) SetJournalSentiment(ctx context.Context, id uuid.UUID, score, magnitude float64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE journal_entries
		SET sentiment_score = $2, sentiment_magnitude = $3
		WHERE id = $1 AND sentiment_score IS NULL AND sentiment_magnitude IS NULL`,
		id, score, magnitude,
	)
	if err != nil {
		return false, fmt.Errorf("set journal sentiment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListJournalEntries returns a student's most recent entries, newest first.
func (s *Store) ListJournalEntries(ctx context.Context, studentID string, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+journalColumns+`
		FROM journal_entries
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		studentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		e, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
