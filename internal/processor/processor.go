package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/wellcheck/internal/cache"
	"github.com/MikeSquared-Agency/wellcheck/internal/hermes"
	"github.com/MikeSquared-Agency/wellcheck/internal/language"
	"github.com/MikeSquared-Agency/wellcheck/internal/risk"
	"github.com/MikeSquared-Agency/wellcheck/internal/scoring"
	"github.com/MikeSquared-Agency/wellcheck/internal/store"
	"github.com/MikeSquared-Agency/wellcheck/internal/wearable"
)

// handlerTimeout bounds one event's pipeline.
const handlerTimeout = 30 * time.Second

// Store is the persistence the pipeline reads and writes.
type Store interface {
	ListCheckins(ctx context.Context, studentID string, from, to time.Time) ([]store.CheckinRecord, error)
	GetJournalEntry(ctx context.Context, id uuid.UUID) (*store.JournalEntry, error)
	SetJournalSentiment(ctx context.Context, id uuid.UUID, score, magnitude float64) (bool, error)
	GetPHQ9(ctx context.Context, id uuid.UUID) (*store.PHQ9Record, error)
	UpdatePHQ9(ctx context.Context, studentID string, score int, status string) error
}

type Sink interface {
	Escalate(ctx context.Context, studentID, reason, entry string) error
	RecordScores(ctx context.Context, studentID string, s scoring.Scores) error
}

type Analyzer interface {
	Analyze(ctx context.Context, text string) language.Result
}

type Fitness interface {
	FetchWeek(ctx context.Context, accessToken string, now time.Time) (wearable.Sample, error)
}

// Processor runs the scoring and risk pipeline for inbound events.
type Processor struct {
	store      Store
	sink       Sink
	analyzer   Analyzer
	classifier *risk.Classifier
	samples    cache.BehavioralCache
	fitness    Fitness
	logger     *slog.Logger
	now        func() time.Time

	students *keyedMutex
}

// New builds a processor. samples and fitness may be nil.
func New(s Store, sink Sink, a Analyzer, c *risk.Classifier, samples cache.BehavioralCache, fitness Fitness, logger *slog.Logger) *Processor {
	return &Processor{
		store:      s,
		sink:       sink,
		analyzer:   a,
		classifier: c,
		samples:    samples,
		fitness:    fitness,
		logger:     logger,
		now:        time.Now,
		students:   newKeyedMutex(),
	}
}

// HandleCheckinCompleted is the NATS handler for wellcheck.checkin.completed.
func (p *Processor) HandleCheckinCompleted(subject string, data []byte) {
	evt, err := hermes.Decode[hermes.CheckinCompleted](data)
	if err != nil {
		p.logger.Error("invalid checkin event", "subject", subject, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if _, err := p.Recompute(ctx, evt.StudentID, nil); err != nil {
		p.logger.Error("recompute after checkin failed", "student_id", evt.StudentID, "checkin_id", evt.CheckinID, "error", err)
	}
}

// HandleJournalCreated is the NATS handler for wellcheck.journal.created.
func (p *Processor) HandleJournalCreated(subject string, data []byte) {
	var evt hermes.JournalCreated
	if err := json.Unmarshal(data, &evt); err != nil {
		p.logger.Error("invalid journal event", "subject", subject, "error", err)
		return
	}
	id, err := uuid.Parse(evt.EntryID)
	if err != nil {
		p.logger.Error("invalid journal entry id", "entry_id", evt.EntryID, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if _, err := p.AnalyzeJournal(ctx, id); err != nil {
		p.logger.Error("journal analysis failed", "entry_id", id, "error", err)
	}
}

// HandleWearableSynced is the NATS handler for wellcheck.wearable.synced.
func (p *Processor) HandleWearableSynced(subject string, data []byte) {
	evt, err := hermes.Decode[hermes.WearableSynced](data)
	if err != nil {
		p.logger.Error("invalid wearable event", "subject", subject, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := p.SyncWearable(ctx, evt); err != nil {
		p.logger.Error("wearable sync failed", "student_id", evt.StudentID, "error", err)
	}
}

// HandlePHQ9Submitted is the NATS handler for wellcheck.phq9.submitted.
func (p *Processor) HandlePHQ9Submitted(subject string, data []byte) {
	evt, err := hermes.Decode[hermes.PHQ9Submitted](data)
	if err != nil {
		p.logger.Error("invalid phq9 event", "subject", subject, "error", err)
		return
	}
	id, err := uuid.Parse(evt.ResultID)
	if err != nil {
		p.logger.Error("invalid phq9 result id", "result_id", evt.ResultID, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := p.ApplyPHQ9(ctx, id); err != nil {
		p.logger.Error("phq9 processing failed", "result_id", id, "error", err)
	}
}

// AnalyzeJournal scores one entry's sentiment, runs the risk classifier and
// escalates when the entry belongs to a student. Entries that already
// carry sentiment are left alone.
func (p *Processor) AnalyzeJournal(ctx context.Context, entryID uuid.UUID) (*risk.Verdict, error) {
	entry, err := p.store.GetJournalEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Analyzed() {
		p.logger.Debug("journal entry already analyzed", "entry_id", entryID)
		return nil, nil
	}

	res := p.analyzer.Analyze(ctx, entry.Content)
	verdict := p.classifier.Classify(entry.Content, res)

	written, err := p.store.SetJournalSentiment(ctx, entryID, verdict.AdjustedScore, verdict.AdjustedMagnitude)
	switch {
	case err != nil:
		// Flagging does not depend on the sentiment write.
		p.logger.Error("persist journal sentiment failed", "entry_id", entryID, "error", err)
	case !written:
		p.logger.Debug("journal entry analyzed concurrently", "entry_id", entryID)
		return &verdict, nil
	}

	p.logger.Info("journal analyzed",
		"entry_id", entryID,
		"score", verdict.AdjustedScore,
		"magnitude", verdict.AdjustedMagnitude,
		"urgent", verdict.IsUrgent,
	)

	if !verdict.IsUrgent {
		return &verdict, nil
	}
	if entry.StudentID == nil || *entry.StudentID == "" {
		p.logger.Warn("urgent journal entry has no student", "entry_id", entryID, "reason", verdict.Reason)
		return &verdict, nil
	}
	if err := p.sink.Escalate(ctx, *entry.StudentID, verdict.Reason, entry.Content); err != nil {
		return &verdict, err
	}
	return &verdict, nil
}

// Recompute rebuilds a student's scores from this month's check-ins and the
// latest behavioral sample. A non-nil sample is used instead of the cache.
func (p *Processor) Recompute(ctx context.Context, studentID string, sample *wearable.Sample) (scoring.Scores, error) {
	unlock := p.students.Lock(studentID)
	defer unlock()

	from, to := scoring.MonthRange(p.now())
	recs, err := p.store.ListCheckins(ctx, studentID, from, to)
	if err != nil {
		return scoring.Scores{}, fmt.Errorf("load checkins: %w", err)
	}
	answers := make([]scoring.Answers, 0, len(recs))
	for _, r := range recs {
		answers = append(answers, r.Answers)
	}

	factors := scoring.MonthlyFactors(answers)
	behavioral := p.behavioral(ctx, studentID, sample)
	scores := scoring.Aggregate(factors, behavioral)

	if err := p.sink.RecordScores(ctx, studentID, scores); err != nil {
		return scores, err
	}
	p.logger.Info("scores recomputed",
		"student_id", studentID,
		"checkins", len(recs),
		"anxiety", scores.Anxiety,
		"depression", scores.Depression,
		"stress", scores.Stress,
	)
	return scores, nil
}

func (p *Processor) behavioral(ctx context.Context, studentID string, sample *wearable.Sample) scoring.Behavioral {
	if sample == nil && p.samples != nil {
		cached, err := p.samples.GetSample(ctx, studentID)
		if err != nil {
			p.logger.Warn("behavioral cache read failed", "student_id", studentID, "error", err)
		}
		sample = cached
	}
	if sample == nil {
		return scoring.NeutralBehavioral()
	}
	return scoring.BehavioralScores(sample.AvgSleepHours, sample.AvgStepCount)
}

// SyncWearable resolves a fresh weekly sample, caches it and recomputes.
func (p *Processor) SyncWearable(ctx context.Context, evt hermes.WearableSynced) error {
	var sample wearable.Sample
	switch {
	case evt.Inline():
		sample = wearable.Sample{
			AvgSleepHours: *evt.AvgSleepHours,
			AvgStepCount:  *evt.AvgStepCount,
			FetchedAt:     p.now().UTC(),
		}
	case evt.AccessToken != "" && p.fitness != nil:
		s, err := p.fitness.FetchWeek(ctx, evt.AccessToken, p.now())
		if errors.Is(err, wearable.ErrNoData) {
			p.logger.Info("no wearable data this week", "student_id", evt.StudentID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("fetch wearable week: %w", err)
		}
		sample = s
	default:
		return fmt.Errorf("wearable event for %s has neither averages nor a usable token", evt.StudentID)
	}

	if p.samples != nil {
		if err := p.samples.SetSample(ctx, evt.StudentID, sample); err != nil {
			p.logger.Warn("behavioral cache write failed", "student_id", evt.StudentID, "error", err)
		}
	}
	_, err := p.Recompute(ctx, evt.StudentID, &sample)
	return err
}

// ApplyPHQ9 copies a stored PHQ-9 result onto the profile and escalates an
// endorsed self-harm item.
func (p *Processor) ApplyPHQ9(ctx context.Context, resultID uuid.UUID) error {
	rec, err := p.store.GetPHQ9(ctx, resultID)
	if err != nil {
		return err
	}
	if err := p.store.UpdatePHQ9(ctx, rec.StudentID, rec.Result.Score, rec.Result.Status); err != nil {
		p.logger.Error("update profile phq9 failed", "student_id", rec.StudentID, "error", err)
	}
	if !rec.Result.NeedsHelp {
		return nil
	}
	entry := fmt.Sprintf("PHQ-9 total %d", rec.Result.Score)
	if len(rec.Answers) > scoring.PHQ9SelfHarmItem {
		entry += fmt.Sprintf(", item 9 answered %d", rec.Answers[scoring.PHQ9SelfHarmItem])
	}
	return p.sink.Escalate(ctx, rec.StudentID, scoring.ReasonPHQ9SelfHarm, entry)
}
