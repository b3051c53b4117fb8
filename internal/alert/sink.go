// Package alert merges risk flags and scores into a student's profile and
// fans the change out to NATS and, when configured, a Slack channel.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/wellcheck/internal/hermes"
	"github.com/MikeSquared-Agency/wellcheck/internal/scoring"
)

// ErrEmptyReason guards the needs_help implies reason invariant.
var ErrEmptyReason = errors.New("urgent flag requires a reason")

// ProfileWriter is the slice of the store the sink writes through. Each
// method touches a disjoint set of profile columns.
type ProfileWriter interface {
	FlagUrgent(ctx context.Context, studentID, reason, entry string) error
	UpdateScores(ctx context.Context, studentID string, s scoring.Scores) error
	ClearUrgentFlag(ctx context.Context, studentID string) error
}

type Notifier interface {
	NotifyUrgent(ctx context.Context, studentID, reason, entry string) (string, error)
}

type Sink struct {
	store    ProfileWriter
	bus      hermes.Publisher
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewSink wires the sink. bus and notifier may be nil.
func NewSink(store ProfileWriter, bus hermes.Publisher, notifier Notifier, logger *slog.Logger) *Sink {
	return &Sink{
		store:    store,
		bus:      bus,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Escalate sets needs_help with its reason. Only the store write can fail
// the call; publish and Slack failures are logged.
func (s *Sink) Escalate(ctx context.Context, studentID, reason, entry string) error {
	if reason == "" {
		return ErrEmptyReason
	}
	if err := s.store.FlagUrgent(ctx, studentID, reason, entry); err != nil {
		return fmt.Errorf("escalate %s: %w", studentID, err)
	}
	s.logger.Warn("student flagged urgent", "student_id", studentID, "reason", reason)

	s.publish(hermes.SubjectRiskFlagged, hermes.RiskFlagged{
		StudentID: studentID,
		Reason:    reason,
		Entry:     entry,
		FlaggedAt: s.now().UTC(),
	})

	if s.notifier != nil {
		if _, err := s.notifier.NotifyUrgent(ctx, studentID, reason, entry); err != nil {
			s.logger.Error("slack alert failed", "student_id", studentID, "error", err)
		}
	}
	return nil
}

// RecordScores writes the aggregate scores without touching the urgent flag.
func (s *Sink) RecordScores(ctx context.Context, studentID string, sc scoring.Scores) error {
	if err := s.store.UpdateScores(ctx, studentID, sc); err != nil {
		return fmt.Errorf("record scores %s: %w", studentID, err)
	}
	s.publish(hermes.SubjectScoresUpdated, hermes.ScoresUpdated{
		StudentID:       studentID,
		AnxietyScore:    sc.Anxiety,
		DepressionScore: sc.Depression,
		StressScore:     sc.Stress,
		UpdatedAt:       s.now().UTC(),
	})
	return nil
}

// ClearUrgentFlag resets needs_help and the reason fields. Scores are
// never changed.
func (s *Sink) ClearUrgentFlag(ctx context.Context, studentID, reviewer string) error {
	if err := s.store.ClearUrgentFlag(ctx, studentID); err != nil {
		return fmt.Errorf("clear urgent %s: %w", studentID, err)
	}
	s.logger.Info("urgent flag cleared", "student_id", studentID, "reviewer", reviewer)
	s.publish(hermes.SubjectRiskCleared, hermes.RiskCleared{
		StudentID: studentID,
		ClearedBy: reviewer,
		ClearedAt: s.now().UTC(),
	})
	return nil
}

func (s *Sink) publish(subject string, evt any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(subject, evt); err != nil {
		s.logger.Error("publish failed", "subject", subject, "error", err)
	}
}
